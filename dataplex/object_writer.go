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

package dataplex

import (
	"context"
	"fmt"
	"io"

	sdk "github.com/conduitio/conduit-connector-sdk"
	"go.uber.org/multierr"
	"google.golang.org/api/option"

	"github.com/conduitio-labs/conduit-connector-google-cloud/bigquery"
	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/ndjson"
	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/schema"
	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/staging"
)

// objectWriter writes records as newline-delimited JSON objects straight
// into the bucket behind a STORAGE_BUCKET asset, under
// <zone>/<table-or-asset>/part-xxxxx.json. Unlike load-job staging the
// objects are the destination data and are never deleted.
type objectWriter struct {
	parts    *staging.Writer
	closer   io.Closer
	declared *schema.Schema
	enc      *ndjson.Encoder
}

func (d *Destination) openObjectWriter(
	ctx context.Context,
	opts []option.ClientOption,
	project string,
	asset *Asset,
	declared *schema.Schema,
) (recordWriter, error) {
	_, bucket, err := parseResourceName(asset.ResourceSpec.Name, "buckets")
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", asset.Name, err)
	}

	store, closer, err := staging.NewGCSStore(ctx, project, bucket, opts...)
	if err != nil {
		return nil, err
	}
	exists, err := store.BucketExists(ctx)
	if err != nil {
		closer.Close()
		return nil, err
	}
	if !exists {
		closer.Close()
		return nil, fmt.Errorf("bucket %q behind asset %q does not exist", bucket, asset.Name)
	}

	dir := d.config.Table
	if dir == "" {
		dir = asset.ID
	}
	prefix := fmt.Sprintf("%s/%s/", d.config.Zone, dir)
	return &objectWriter{
		parts:    staging.NewWriter(store, prefix, staging.DefaultRotateBytes),
		closer:   closer,
		declared: declared,
	}, nil
}

func (w *objectWriter) Write(ctx context.Context, rec sdk.Record) error {
	data, err := bigquery.StructuredPayload(rec)
	if err != nil {
		return err
	}

	if w.enc == nil {
		recordSchema := w.declared
		if recordSchema == nil {
			inferred, err := schema.Infer(data)
			if err != nil {
				return fmt.Errorf("infer schema: %w", err)
			}
			recordSchema = &inferred
		}
		w.enc, err = ndjson.NewEncoder(*recordSchema)
		if err != nil {
			return err
		}
	}

	line, err := w.enc.Encode(data)
	if err != nil {
		return fmt.Errorf("encode record %q: %w", string(rec.Position), err)
	}
	return w.parts.Append(ctx, line)
}

func (w *objectWriter) Close(ctx context.Context) error {
	err := w.parts.Flush(ctx)
	if err == nil {
		sdk.Logger(ctx).Info().
			Int("objects", len(w.parts.Objects())).
			Msg("closed staged objects")
	}
	return multierr.Append(err, w.closer.Close())
}
