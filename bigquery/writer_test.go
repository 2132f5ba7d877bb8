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
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	bq "cloud.google.com/go/bigquery"
	"github.com/matryer/is"
	"google.golang.org/api/googleapi"

	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/staging"
)

// eventLog records cross-fake events so tests can assert ordering. Load jobs
// at teardown fan out over goroutines, so it locks.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) index(event string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.events {
		if e == event {
			return i
		}
	}
	return -1
}

type recordedLoad struct {
	table string
	spec  loadSpec
}

// fakeBigQuery is an in-memory datasetAPI.
type fakeBigQuery struct {
	mu sync.Mutex

	metadataErr error
	createErr   error
	created     []*bq.DatasetMetadata

	// tables maps table names to live metadata; absent tables 404.
	tables map[string]*bq.TableMetadata

	loadErr  error
	attempts int
	loads    []recordedLoad

	log *eventLog
}

func (f *fakeBigQuery) DatasetMetadata(context.Context) (*bq.DatasetMetadata, error) {
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	return &bq.DatasetMetadata{}, nil
}

func (f *fakeBigQuery) CreateDataset(_ context.Context, md *bq.DatasetMetadata) error {
	f.created = append(f.created, md)
	return f.createErr
}

func (f *fakeBigQuery) TableMetadata(_ context.Context, table string) (*bq.TableMetadata, error) {
	if md, ok := f.tables[table]; ok {
		return md, nil
	}
	return nil, &googleapi.Error{Code: 404}
}

func (f *fakeBigQuery) Load(_ context.Context, table string, spec loadSpec) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.loadErr != nil {
		return 0, f.loadErr
	}
	f.loads = append(f.loads, recordedLoad{table: table, spec: spec})
	if f.log != nil {
		f.log.add("load " + table)
	}
	return int64(len(spec.uris)), nil
}

func (f *fakeBigQuery) Close() error { return nil }

func (f *fakeBigQuery) recorded() []recordedLoad {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedLoad(nil), f.loads...)
}

// memStore is an in-memory staging.Store.
type memStore struct {
	mu      sync.Mutex
	bucket  string
	exists  bool
	objects map[string][]byte
	deleted bool

	log *eventLog
}

func newMemStore(bucket string, exists bool) *memStore {
	return &memStore{bucket: bucket, exists: exists, objects: make(map[string][]byte)}
}

func (s *memStore) BucketName() string { return s.bucket }

func (s *memStore) BucketExists(context.Context) (bool, error) { return s.exists, nil }

func (s *memStore) CreateBucket(context.Context, string) error {
	s.exists = true
	return nil
}

func (s *memStore) NewWriter(_ context.Context, object string) io.WriteCloser {
	return &memObjectWriter{store: s, object: object}
}

func (s *memStore) DeleteObjects(_ context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.objects {
		if strings.HasPrefix(name, prefix) {
			delete(s.objects, name)
		}
	}
	return nil
}

func (s *memStore) DeleteBucket(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = true
	if s.log != nil {
		s.log.add("delete-bucket")
	}
	return nil
}

func (s *memStore) objectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type memObjectWriter struct {
	store  *memStore
	object string
	buf    bytes.Buffer
}

func (w *memObjectWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memObjectWriter) Close() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	w.store.objects[w.object] = w.buf.Bytes()
	return nil
}

// newTestWriter wires a writer to the fakes, skipping the client and bucket
// setup NewWriter does.
func newTestWriter(t *testing.T, api datasetAPI, store *memStore, opts WriterOptions) *Writer {
	t.Helper()

	opts.Dataset = "ds"
	if opts.LoadTriggerBytes <= 0 {
		opts.LoadTriggerBytes = defaultLoadTriggerBytes
	}
	if opts.Retries <= 0 {
		opts.Retries = defaultRetries
	}
	return &Writer{
		opts:     opts,
		api:      api,
		area:     staging.NewArea(store, opts.Dataset, "run1", opts.Bucket == "", staging.DefaultRotateBytes),
		declared: opts.Schema,
		tables:   make(map[string]*tableState),
	}
}

func TestWriter_EnsureDataset(t *testing.T) {
	testCases := []struct {
		name        string
		metadataErr error
		createErr   error
		create      bool
		wantErr     string
		wantCreated bool
	}{
		{
			name: "dataset exists",
		},
		{
			name:        "missing dataset is created",
			metadataErr: &googleapi.Error{Code: 404},
			create:      true,
			wantCreated: true,
		},
		{
			name:        "concurrent create is fine",
			metadataErr: &googleapi.Error{Code: 404},
			createErr:   &googleapi.Error{Code: 409},
			create:      true,
			wantCreated: true,
		},
		{
			name:        "missing dataset with creation disabled",
			metadataErr: &googleapi.Error{Code: 404},
			wantErr:     "does not exist",
		},
		{
			name:        "metadata failure",
			metadataErr: &googleapi.Error{Code: 500},
			create:      true,
			wantErr:     "get metadata",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)

			api := &fakeBigQuery{metadataErr: tc.metadataErr, createErr: tc.createErr}
			w := &Writer{
				opts: WriterOptions{Dataset: "ds", Location: "EU", CreateDataset: tc.create},
				api:  api,
			}

			err := w.ensureDataset(context.Background())
			if tc.wantErr != "" {
				is.True(err != nil)
				is.True(strings.Contains(err.Error(), tc.wantErr))
				return
			}
			is.NoErr(err)
			if tc.wantCreated {
				is.Equal(len(api.created), 1)
				is.Equal(api.created[0].Location, "EU")
			} else {
				is.Equal(len(api.created), 0)
			}
		})
	}
}

func TestWriter_TruncateFirstLoadPerTable(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s := parseSchema(t, `{"type":"record","name":"r","fields":[{"name":"a","type":"string"}]}`)
	api := &fakeBigQuery{}
	// trigger on every record so each write runs its own load job
	w := newTestWriter(t, api, newMemStore("run1", true), WriterOptions{
		Schema:           &s,
		Truncate:         true,
		LoadTriggerBytes: 1,
	})

	is.NoErr(w.WriteRecord(ctx, "orders", map[string]any{"a": "o1"}))
	is.NoErr(w.WriteRecord(ctx, "orders", map[string]any{"a": "o2"}))
	is.NoErr(w.WriteRecord(ctx, "users", map[string]any{"a": "u1"}))

	loads := api.recorded()
	is.Equal(len(loads), 3)
	is.Equal(loads[0].table, "orders")
	is.Equal(loads[0].spec.disposition, bq.WriteTruncate) // first load truncates
	is.Equal(loads[1].table, "orders")
	is.Equal(loads[1].spec.disposition, bq.WriteAppend) // later loads append
	is.Equal(loads[2].table, "users")
	is.Equal(loads[2].spec.disposition, bq.WriteTruncate) // truncation is per table
}

func TestWriter_AppendWithoutTruncate(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s := parseSchema(t, `{"type":"record","name":"r","fields":[{"name":"a","type":"string"}]}`)
	api := &fakeBigQuery{}
	w := newTestWriter(t, api, newMemStore("run1", true), WriterOptions{
		Schema:           &s,
		LoadTriggerBytes: 1,
	})

	is.NoErr(w.WriteRecord(ctx, "orders", map[string]any{"a": "o1"}))

	loads := api.recorded()
	is.Equal(len(loads), 1)
	is.Equal(loads[0].spec.disposition, bq.WriteAppend)
}

func TestWriter_LoadTriggerBytes(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s := parseSchema(t, `{"type":"record","name":"r","fields":[{"name":"a","type":"string"}]}`)
	api := &fakeBigQuery{}
	store := newMemStore("run1", true)
	// each encoded record is 10 bytes: {"a":"x"} plus the newline
	w := newTestWriter(t, api, store, WriterOptions{
		Schema:           &s,
		LoadTriggerBytes: 32,
	})

	for i := 0; i < 3; i++ {
		is.NoErr(w.WriteRecord(ctx, "orders", map[string]any{"a": "x"}))
	}
	is.Equal(len(api.recorded()), 0) // 30 staged bytes, below the trigger

	is.NoErr(w.WriteRecord(ctx, "orders", map[string]any{"a": "x"}))

	loads := api.recorded()
	is.Equal(len(loads), 1) // 40 staged bytes crossed the trigger
	is.Equal(loads[0].spec.uris, []string{"gs://run1/input/ds/orders-run1/part-00000.json"})
	is.Equal(store.objectCount(), 0) // loaded parts are discarded
}

func TestWriter_CloseLoadsRemainingAndCleansUp(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s := parseSchema(t, `{"type":"record","name":"r","fields":[{"name":"a","type":"string"}]}`)
	log := &eventLog{}
	api := &fakeBigQuery{log: log}
	store := newMemStore("run1", true)
	store.log = log
	w := newTestWriter(t, api, store, WriterOptions{Schema: &s})

	is.NoErr(w.WriteRecord(ctx, "orders", map[string]any{"a": "o1"}))
	is.NoErr(w.WriteRecord(ctx, "users", map[string]any{"a": "u1"}))
	is.Equal(len(api.recorded()), 0) // nothing reached the trigger

	is.NoErr(w.Close(ctx))

	loads := api.recorded()
	is.Equal(len(loads), 2)
	loaded := map[string][]string{}
	for _, l := range loads {
		loaded[l.table] = l.spec.uris
	}
	is.Equal(loaded["orders"], []string{"gs://run1/input/ds/orders-run1/part-00000.json"})
	is.Equal(loaded["users"], []string{"gs://run1/input/ds/users-run1/part-00000.json"})

	// the run-owned bucket goes away only after the loads finished
	is.True(store.deleted)
	is.Equal(store.objectCount(), 0)
	is.True(log.index("load orders") < log.index("delete-bucket"))
	is.True(log.index("load users") < log.index("delete-bucket"))

	// closing again is a no-op
	is.NoErr(w.Close(ctx))
	is.Equal(len(api.recorded()), 2)
}

func TestWriter_LoadFailureNotRetried(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s := parseSchema(t, `{"type":"record","name":"r","fields":[{"name":"a","type":"string"}]}`)
	api := &fakeBigQuery{loadErr: &googleapi.Error{Code: 400}}
	w := newTestWriter(t, api, newMemStore("run1", true), WriterOptions{
		Schema:           &s,
		LoadTriggerBytes: 1,
	})

	err := w.WriteRecord(ctx, "orders", map[string]any{"a": "x"})
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "load staged parts"))
	is.Equal(api.attempts, 1) // data errors are not retried
}

func TestWriter_RejectsIncompatibleLiveTable(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	s := parseSchema(t, `{"type":"record","name":"r","fields":[{"name":"a","type":"string"}]}`)
	api := &fakeBigQuery{
		tables: map[string]*bq.TableMetadata{
			"orders": {Schema: bq.Schema{{Name: "a", Type: bq.IntegerFieldType}}},
		},
	}
	w := newTestWriter(t, api, newMemStore("run1", true), WriterOptions{Schema: &s})

	err := w.WriteRecord(ctx, "orders", map[string]any{"a": "x"})
	is.True(err != nil)
	is.True(strings.Contains(err.Error(), "incompatible"))
}

func TestRunIdentity(t *testing.T) {
	is := is.New(t)

	runID, bucket, runOwned := runIdentity("")
	is.True(runOwned)
	is.Equal(runID, bucket) // a run-owned bucket shares the run's UUID

	runID, bucket, runOwned = runIdentity("configured")
	is.True(!runOwned)
	is.Equal(bucket, "configured")
	is.True(runID != "")
}
