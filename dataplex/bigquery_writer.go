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

	sdk "github.com/conduitio/conduit-connector-sdk"
	"google.golang.org/api/option"

	"github.com/conduitio-labs/conduit-connector-google-cloud/bigquery"
	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/schema"
)

// bigQueryWriter drives the BigQuery sink machinery against the dataset
// behind a BIGQUERY_DATASET asset. All records go into one configured table.
type bigQueryWriter struct {
	writer *bigquery.Writer
	table  string
}

func (d *Destination) openBigQueryWriter(
	ctx context.Context,
	opts []option.ClientOption,
	asset *Asset,
	declared *schema.Schema,
) (recordWriter, error) {
	if d.config.Table == "" {
		return nil, fmt.Errorf("asset %q is a BigQuery dataset, the table config is required", asset.Name)
	}
	project, dataset, err := parseResourceName(asset.ResourceSpec.Name, "datasets")
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", asset.Name, err)
	}

	// the dataset is the asset's resource, it must already exist
	w, err := bigquery.NewWriter(ctx, bigquery.WriterOptions{
		ClientOptions:    opts,
		ProjectID:        project,
		Dataset:          dataset,
		Location:         d.config.Location,
		Bucket:           d.config.Bucket,
		CreateDataset:    false,
		Schema:           declared,
		Truncate:         d.config.Truncate,
		LoadTriggerBytes: d.config.LoadTriggerBytes,
		Retries:          d.config.Retries,
	})
	if err != nil {
		return nil, err
	}
	return &bigQueryWriter{writer: w, table: d.config.Table}, nil
}

func (w *bigQueryWriter) Write(ctx context.Context, rec sdk.Record) error {
	data, err := bigquery.StructuredPayload(rec)
	if err != nil {
		return err
	}
	return w.writer.WriteRecord(ctx, w.table, data)
}

func (w *bigQueryWriter) Close(ctx context.Context) error {
	return w.writer.Close(ctx)
}
