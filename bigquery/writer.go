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
	"errors"
	"fmt"
	"sync"

	bq "cloud.google.com/go/bigquery"
	sdk "github.com/conduitio/conduit-connector-sdk"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"gopkg.in/tomb.v2"

	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/ndjson"
	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/schema"
	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/staging"
)

// WriterOptions configures a Writer. The zero values of LoadTriggerBytes and
// Retries fall back to the connector defaults.
type WriterOptions struct {
	// ClientOptions are passed to the BigQuery and Cloud Storage clients.
	ClientOptions []option.ClientOption
	// ProjectID is the project holding the dataset and the staging bucket.
	ProjectID string
	// Dataset is the target dataset.
	Dataset string
	// Location is used when creating the dataset or a run-owned bucket.
	Location string
	// Bucket is the staging bucket. Empty means a run-owned bucket named by
	// a fresh UUID is created and deleted with the run.
	Bucket string
	// CreateDataset makes the writer create a missing dataset instead of
	// failing.
	CreateDataset bool
	// Schema is the declared record schema. Nil means the schema is
	// inferred from the first record written to each table.
	Schema *schema.Schema
	// Truncate makes the first load into each table replace its contents.
	Truncate bool
	// LoadTriggerBytes is the staged-bytes threshold that triggers an early
	// load job for a table.
	LoadTriggerBytes int64
	// Retries caps the attempts for retriable API calls.
	Retries int
}

// Writer moves structured records into BigQuery tables of one dataset: it
// encodes them to newline-delimited JSON, stages the files in Cloud Storage
// and runs load jobs. It is shared by the BigQuery destination and the
// Dataplex destination writing through a BigQuery dataset asset.
type Writer struct {
	opts WriterOptions

	api     datasetAPI
	area    *staging.Area
	cleanup []func() error

	declared *schema.Schema
	tables   map[string]*tableState

	closed bool
}

// tableState is everything the writer knows about one target table after
// first contact.
type tableState struct {
	enc      *ndjson.Encoder
	bqSchema bq.Schema
	loaded   bool // a load job already ran for this table
}

// NewWriter connects the clients, ensures the dataset and the staging
// bucket, and returns a writer ready for records.
func NewWriter(ctx context.Context, opts WriterOptions) (*Writer, error) {
	if opts.LoadTriggerBytes <= 0 {
		opts.LoadTriggerBytes = defaultLoadTriggerBytes
	}
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}
	if opts.Location == "" {
		opts.Location = defaultLocation
	}

	w := &Writer{
		opts:     opts,
		declared: opts.Schema,
		tables:   make(map[string]*tableState),
	}

	api, err := newDatasetClient(ctx, opts.ProjectID, opts.Dataset, opts.ClientOptions...)
	if err != nil {
		return nil, err
	}
	w.api = api
	w.cleanup = append(w.cleanup, api.Close)

	if err := w.ensureDataset(ctx); err != nil {
		w.closeClients(ctx)
		return nil, err
	}

	runID, bucket, runOwned := runIdentity(opts.Bucket)
	store, storeCloser, err := staging.NewGCSStore(ctx, opts.ProjectID, bucket, opts.ClientOptions...)
	if err != nil {
		w.closeClients(ctx)
		return nil, err
	}
	w.cleanup = append(w.cleanup, storeCloser.Close)

	w.area = staging.NewArea(store, opts.Dataset, runID, runOwned, staging.DefaultRotateBytes)
	if err := w.area.EnsureBucket(ctx, opts.Location); err != nil {
		w.closeClients(ctx)
		return nil, fmt.Errorf("ensure staging bucket: %w", err)
	}
	if runOwned {
		sdk.Logger(ctx).Info().
			Str("bucket", bucket).
			Str("location", opts.Location).
			Msg("created run-owned staging bucket")
	}
	return w, nil
}

// runIdentity picks the staging run ID and the bucket. A run-owned bucket
// takes the run's UUID as its name, so a leftover bucket correlates with its
// run's object prefixes.
func runIdentity(configured string) (runID, bucket string, runOwned bool) {
	runID = uuid.NewString()
	if configured != "" {
		return runID, configured, false
	}
	return runID, runID, true
}

// ensureDataset checks the dataset exists, creating it when allowed. A 409
// on create means somebody else created it concurrently, which is fine.
func (w *Writer) ensureDataset(ctx context.Context) error {
	_, err := w.api.DatasetMetadata(ctx)
	if err == nil {
		return nil
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) || gerr.Code != 404 {
		return fmt.Errorf("get metadata of dataset %q: %w", w.opts.Dataset, err)
	}
	if !w.opts.CreateDataset {
		return fmt.Errorf("dataset %q does not exist", w.opts.Dataset)
	}

	sdk.Logger(ctx).Info().
		Str("dataset", w.opts.Dataset).
		Str("location", w.opts.Location).
		Msg("creating dataset")
	err = w.api.CreateDataset(ctx, &bq.DatasetMetadata{Location: w.opts.Location})
	if err != nil {
		if errors.As(err, &gerr) && gerr.Code == 409 {
			return nil
		}
		return fmt.Errorf("create dataset %q: %w", w.opts.Dataset, err)
	}
	return nil
}

// WriteRecord encodes one structured record and stages it for the given
// table. The first record per table fixes the table's schema and validates
// it against the live table.
func (w *Writer) WriteRecord(ctx context.Context, table string, data map[string]any) error {
	ts, ok := w.tables[table]
	if !ok {
		var err error
		ts, err = w.initTable(ctx, table, data)
		if err != nil {
			return err
		}
		w.tables[table] = ts
	}

	line, err := ts.enc.Encode(data)
	if err != nil {
		return fmt.Errorf("encode record for table %q: %w", table, err)
	}
	if err := w.area.Append(ctx, table, line); err != nil {
		return fmt.Errorf("stage record for table %q: %w", table, err)
	}

	if w.area.StagedBytes(table) >= w.opts.LoadTriggerBytes {
		if err := w.area.Flush(ctx, table); err != nil {
			return fmt.Errorf("flush staged parts of table %q: %w", table, err)
		}
		if err := w.loadTable(ctx, table, ts); err != nil {
			return err
		}
	}
	return nil
}

// initTable determines the table schema (declared or inferred from the first
// record), maps it to BigQuery and validates it against the live table.
func (w *Writer) initTable(ctx context.Context, table string, data map[string]any) (*tableState, error) {
	recordSchema := w.declared
	if recordSchema == nil {
		inferred, err := schema.Infer(data)
		if err != nil {
			return nil, fmt.Errorf("infer schema for table %q: %w", table, err)
		}
		recordSchema = &inferred
		sdk.Logger(ctx).Debug().
			Str("table", table).
			Str("schema", inferred.String()).
			Msg("inferred schema from first record")
	}

	enc, err := ndjson.NewEncoder(*recordSchema)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", table, err)
	}
	bqSchema, err := toBigQuerySchema(*recordSchema)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", table, err)
	}

	if err := w.validateLiveTable(ctx, table, bqSchema); err != nil {
		return nil, err
	}
	return &tableState{enc: enc, bqSchema: bqSchema}, nil
}

// validateLiveTable compares the output schema with an existing table. A
// missing table is fine, load jobs create it.
func (w *Writer) validateLiveTable(ctx context.Context, table string, output bq.Schema) error {
	md, err := w.api.TableMetadata(ctx, table)
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 404 {
			return nil
		}
		return fmt.Errorf("get metadata of table %q: %w", table, err)
	}
	if len(md.Schema) == 0 {
		return nil
	}
	if err := validateAgainstTable(table, output, md.Schema); err != nil {
		return fmt.Errorf("schema of table %q is incompatible: %w", table, err)
	}
	return nil
}

// loadTable runs a load job for the closed staged parts of a table and
// deletes them on success. No closed parts is a no-op.
func (w *Writer) loadTable(ctx context.Context, table string, ts *tableState) error {
	uris := w.area.URIs(table)
	if len(uris) == 0 {
		return nil
	}

	disposition := bq.WriteAppend
	if w.opts.Truncate && !ts.loaded {
		disposition = bq.WriteTruncate
	}
	rows, err := w.runLoad(ctx, table, loadSpec{
		uris:        uris,
		schema:      ts.bqSchema,
		disposition: disposition,
	})
	if err != nil {
		return fmt.Errorf("load staged parts into table %q: %w", table, err)
	}
	ts.loaded = true

	sdk.Logger(ctx).Info().
		Str("table", table).
		Int("parts", len(uris)).
		Int64("rows", rows).
		Msg("load job finished")

	if err := w.area.DiscardLoaded(ctx, table); err != nil {
		sdk.Logger(ctx).Warn().Err(err).
			Str("table", table).
			Msg("could not delete loaded staging objects")
	}
	return nil
}

// Close flushes and loads all remaining staged parts, then removes the
// staging area. Closing twice is a no-op.
func (w *Writer) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.area == nil {
		return w.closeClients(ctx)
	}

	err := w.area.FlushAll(ctx)
	if err == nil {
		err = w.loadRemaining(ctx)
	}

	if removeErr := w.area.Remove(ctx); removeErr != nil {
		sdk.Logger(ctx).Warn().Err(removeErr).
			Str("bucket", w.area.Bucket()).
			Bool("runOwned", w.area.RunOwned()).
			Msg("could not clean up staging area")
	} else if w.area.RunOwned() {
		sdk.Logger(ctx).Info().
			Str("bucket", w.area.Bucket()).
			Msg("deleted run-owned staging bucket")
	}

	return multierr.Append(err, w.closeClients(ctx))
}

// loadRemaining fans out one load job per table with staged parts.
func (w *Writer) loadRemaining(ctx context.Context) error {
	tables := w.area.Tables()
	if len(tables) == 0 {
		return nil
	}

	var (
		t    tomb.Tomb
		mu   sync.Mutex
		errs error
	)
	for _, table := range tables {
		table := table
		ts := w.tables[table]
		t.Go(func() error {
			if err := w.loadTable(ctx, table, ts); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = t.Wait()
	return errs
}

func (w *Writer) closeClients(_ context.Context) error {
	var errs error
	for i := len(w.cleanup) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, w.cleanup[i]())
	}
	w.cleanup = nil
	return errs
}
