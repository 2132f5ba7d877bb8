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

package bigquery

import (
	"context"
	"fmt"

	bq "cloud.google.com/go/bigquery"
	"google.golang.org/api/option"
)

// loadSpec describes one load job from staged part objects into a table.
type loadSpec struct {
	uris        []string
	schema      bq.Schema
	disposition bq.TableWriteDisposition
}

// datasetAPI is the slice of the BigQuery client the writer needs, scoped to
// one dataset. Narrow so writer tests run against a fake, like the staging
// layer's Store.
type datasetAPI interface {
	// DatasetMetadata fetches the dataset's metadata.
	DatasetMetadata(ctx context.Context) (*bq.DatasetMetadata, error)
	// CreateDataset creates the dataset.
	CreateDataset(ctx context.Context, md *bq.DatasetMetadata) error
	// TableMetadata fetches a table's metadata.
	TableMetadata(ctx context.Context, table string) (*bq.TableMetadata, error)
	// Load runs a single load-job attempt into a table and returns the
	// loaded row count.
	Load(ctx context.Context, table string, spec loadSpec) (int64, error)
	Close() error
}

// datasetClient implements datasetAPI on a real BigQuery client.
type datasetClient struct {
	client  *bq.Client
	dataset string
}

func newDatasetClient(ctx context.Context, projectID, dataset string, opts ...option.ClientOption) (*datasetClient, error) {
	client, err := bq.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create BigQuery client: %w", err)
	}
	return &datasetClient{client: client, dataset: dataset}, nil
}

func (c *datasetClient) DatasetMetadata(ctx context.Context) (*bq.DatasetMetadata, error) {
	return c.client.Dataset(c.dataset).Metadata(ctx)
}

func (c *datasetClient) CreateDataset(ctx context.Context, md *bq.DatasetMetadata) error {
	return c.client.Dataset(c.dataset).Create(ctx, md)
}

func (c *datasetClient) TableMetadata(ctx context.Context, table string) (*bq.TableMetadata, error) {
	return c.client.Dataset(c.dataset).Table(table).Metadata(ctx)
}

func (c *datasetClient) Load(ctx context.Context, table string, spec loadSpec) (int64, error) {
	gcsRef := bq.NewGCSReference(spec.uris...)
	gcsRef.SourceFormat = bq.JSON
	gcsRef.MaxBadRecords = 0
	gcsRef.IgnoreUnknownValues = false
	gcsRef.Schema = spec.schema

	loader := c.client.Dataset(c.dataset).Table(table).LoaderFrom(gcsRef)
	loader.CreateDisposition = bq.CreateIfNeeded
	loader.WriteDisposition = spec.disposition

	job, err := loader.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("start load job: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for load job: %w", err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("load job failed: %w", err)
	}
	if stats, ok := status.Statistics.Details.(*bq.LoadStatistics); ok {
		return stats.OutputRows, nil
	}
	return 0, nil
}

func (c *datasetClient) Close() error {
	return c.client.Close()
}
