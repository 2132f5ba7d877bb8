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

// Package bigquery implements the BigQuery destination connector: records
// are staged as newline-delimited JSON in Cloud Storage and moved into
// BigQuery tables with load jobs.
package bigquery

import (
	"context"
	"fmt"

	sdk "github.com/conduitio/conduit-connector-sdk"

	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/staging"
)

type Destination struct {
	sdk.UnimplementedDestination

	config Config
	router *tableRouter
	writer *Writer
}

func NewDestination() sdk.Destination {
	return sdk.DestinationWithMiddleware(&Destination{}, sdk.DefaultDestinationMiddleware()...)
}

func (d *Destination) Configure(ctx context.Context, cfg map[string]string) error {
	sdk.Logger(ctx).Debug().Msg("configuring BigQuery destination")
	if err := sdk.Util.ParseConfig(cfg, &d.config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return d.config.Validate()
}

func (d *Destination) Open(ctx context.Context) error {
	resolved, err := d.config.Credentials.Resolve(ctx)
	if err != nil {
		return err
	}
	project := d.config.Project
	if project == "" {
		project = resolved.ProjectID
	}
	if project == "" {
		return fmt.Errorf("no project configured and the credentials carry none")
	}

	d.router, err = newTableRouter(d.config.Table)
	if err != nil {
		return err
	}
	declared, err := d.config.DeclaredSchema()
	if err != nil {
		return err
	}

	d.writer, err = NewWriter(ctx, WriterOptions{
		ClientOptions:    resolved.ClientOptions(),
		ProjectID:        project,
		Dataset:          d.config.Dataset,
		Location:         d.config.Location,
		Bucket:           d.config.Bucket,
		CreateDataset:    true,
		Schema:           declared,
		Truncate:         d.config.Truncate,
		LoadTriggerBytes: d.config.LoadTriggerBytes,
		Retries:          d.config.Retries,
	})
	if err != nil {
		return err
	}

	sdk.Logger(ctx).Info().
		Str("project", project).
		Str("dataset", d.config.Dataset).
		Msg("BigQuery destination open")
	return nil
}

func (d *Destination) Write(ctx context.Context, records []sdk.Record) (int, error) {
	for i, rec := range records {
		if rec.Operation == sdk.OperationDelete {
			return i, fmt.Errorf(
				"record %q: delete operations are not supported, the destination is append-only",
				string(rec.Position))
		}
		data, err := StructuredPayload(rec)
		if err != nil {
			return i, err
		}
		table, err := d.router.Route(rec)
		if err != nil {
			return i, err
		}
		if err := d.writer.WriteRecord(ctx, table, data); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

func (d *Destination) Teardown(ctx context.Context) error {
	if d.writer == nil {
		return nil
	}
	return d.writer.Close(ctx)
}

// LifecycleOnDeleted removes this connector's staging objects from a
// configured bucket, scoped to its dataset so other connectors sharing the
// bucket keep theirs. Run-owned buckets never outlive Teardown, so there is
// nothing to do without a configured bucket.
func (d *Destination) LifecycleOnDeleted(ctx context.Context, cfg map[string]string) error {
	var c Config
	if err := sdk.Util.ParseConfig(cfg, &c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Bucket == "" {
		return nil
	}

	resolved, err := c.Credentials.Resolve(ctx)
	if err != nil {
		return err
	}
	project := c.Project
	if project == "" {
		project = resolved.ProjectID
	}

	store, closer, err := staging.NewGCSStore(ctx, project, c.Bucket, resolved.ClientOptions()...)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := store.DeleteObjects(ctx, staging.ScopePrefix(c.Dataset)); err != nil {
		// best effort, the staging files only cost their storage
		sdk.Logger(ctx).Warn().Err(err).
			Str("bucket", c.Bucket).
			Msg("could not delete staging objects")
	}
	return nil
}

// StructuredPayload extracts the structured payload of a record. Raw
// payloads cannot be mapped to table columns.
func StructuredPayload(rec sdk.Record) (map[string]any, error) {
	data, ok := rec.Payload.After.(sdk.StructuredData)
	if !ok {
		return nil, fmt.Errorf("record %q has no structured payload", string(rec.Position))
	}
	return data, nil
}
