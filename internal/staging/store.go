// Copyright © 2024 Meroxa, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package staging writes records into Cloud Storage objects so BigQuery load
// jobs can pick them up, and manages the lifecycle of run-owned staging
// buckets.
package staging

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Store is the slice of the Cloud Storage API the staging layer needs. It is
// scoped to a single bucket.
type Store interface {
	// BucketName returns the name of the bucket the store writes to.
	BucketName() string
	// BucketExists reports whether the bucket exists.
	BucketExists(ctx context.Context) (bool, error)
	// CreateBucket creates the bucket in the given location. Creating a
	// bucket that already exists is not an error.
	CreateBucket(ctx context.Context, location string) error
	// NewWriter opens a writer for the named object. The object becomes
	// visible when the writer is closed.
	NewWriter(ctx context.Context, object string) io.WriteCloser
	// DeleteObjects deletes every object under the given prefix.
	DeleteObjects(ctx context.Context, prefix string) error
	// DeleteBucket deletes the bucket. The bucket must be empty. Deleting a
	// bucket that does not exist is not an error.
	DeleteBucket(ctx context.Context) error
}

// gcsStore implements Store on a real Cloud Storage bucket.
type gcsStore struct {
	client    *storage.Client
	projectID string
	bucket    string
}

// NewGCSStore opens a Cloud Storage client scoped to the given bucket.
func NewGCSStore(ctx context.Context, projectID, bucket string, opts ...option.ClientOption) (Store, io.Closer, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("create storage client: %w", err)
	}
	return &gcsStore{client: client, projectID: projectID, bucket: bucket}, client, nil
}

func (s *gcsStore) BucketName() string {
	return s.bucket
}

func (s *gcsStore) BucketExists(ctx context.Context) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Attrs(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrBucketNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("get attributes of bucket %q: %w", s.bucket, err)
	}
}

func (s *gcsStore) CreateBucket(ctx context.Context, location string) error {
	err := s.client.Bucket(s.bucket).Create(ctx, s.projectID, &storage.BucketAttrs{
		Location: location,
	})
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 409 {
			// somebody else created it first
			return nil
		}
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	return nil
}

func (s *gcsStore) NewWriter(ctx context.Context, object string) io.WriteCloser {
	return s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
}

func (s *gcsStore) DeleteObjects(ctx context.Context, prefix string) error {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list objects under %q: %w", prefix, err)
		}
		err = s.client.Bucket(s.bucket).Object(attrs.Name).Delete(ctx)
		if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
			return fmt.Errorf("delete object %q: %w", attrs.Name, err)
		}
	}
}

func (s *gcsStore) DeleteBucket(ctx context.Context) error {
	err := s.client.Bucket(s.bucket).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("delete bucket %q: %w", s.bucket, err)
	}
	return nil
}
