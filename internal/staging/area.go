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

package staging

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// Area is the staging namespace of one destination run: per-table part
// writers under "input/<scope>/<table>-<runID>/" in a single bucket. When
// the bucket was created for this run the Area owns it and Remove deletes it
// again.
type Area struct {
	store       Store
	scope       string
	runID       string
	runOwned    bool
	rotateBytes int64

	tables map[string]*Writer
}

// NewArea returns a staging area in the store's bucket. The scope segment
// keeps connectors sharing a bucket apart, so one connector's cleanup never
// touches another's objects. runOwned marks that the bucket is created by
// EnsureBucket and deleted by Remove.
func NewArea(store Store, scope, runID string, runOwned bool, rotateBytes int64) *Area {
	return &Area{
		store:       store,
		scope:       scope,
		runID:       runID,
		runOwned:    runOwned,
		rotateBytes: rotateBytes,
		tables:      make(map[string]*Writer),
	}
}

// RunOwned reports whether the bucket lives and dies with this run.
func (a *Area) RunOwned() bool {
	return a.runOwned
}

// Bucket returns the name of the staging bucket.
func (a *Area) Bucket() string {
	return a.store.BucketName()
}

// EnsureBucket makes the staging bucket usable: a configured bucket must
// already exist, a run-owned one is created in the given location.
func (a *Area) EnsureBucket(ctx context.Context, location string) error {
	exists, err := a.store.BucketExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if !a.runOwned {
		return fmt.Errorf("bucket %q does not exist", a.store.BucketName())
	}
	return a.store.CreateBucket(ctx, location)
}

// Append stages one encoded line for the given table.
func (a *Area) Append(ctx context.Context, table string, line []byte) error {
	w, ok := a.tables[table]
	if !ok {
		w = NewWriter(a.store, Prefix(a.scope, table, a.runID), a.rotateBytes)
		a.tables[table] = w
	}
	return w.Append(ctx, line)
}

// StagedBytes returns the bytes currently staged for a table, both closed
// and open parts.
func (a *Area) StagedBytes(table string) int64 {
	w, ok := a.tables[table]
	if !ok {
		return 0
	}
	return w.StagedBytes()
}

// Flush closes the open part of one table.
func (a *Area) Flush(ctx context.Context, table string) error {
	w, ok := a.tables[table]
	if !ok {
		return nil
	}
	return w.Flush(ctx)
}

// FlushAll closes the open parts of every table.
func (a *Area) FlushAll(ctx context.Context) error {
	var errs error
	for table, w := range a.tables {
		if err := w.Flush(ctx); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("table %q: %w", table, err))
		}
	}
	return errs
}

// URIs returns the gs:// URIs of the closed parts of a table, ready to hand
// to a load job.
func (a *Area) URIs(table string) []string {
	w, ok := a.tables[table]
	if !ok {
		return nil
	}
	return w.URIs()
}

// DiscardLoaded deletes the closed parts of a table after a successful load.
func (a *Area) DiscardLoaded(ctx context.Context, table string) error {
	w, ok := a.tables[table]
	if !ok {
		return nil
	}
	return w.DiscardClosed(ctx)
}

// Tables returns the tables with staged data, sorted for determinism.
func (a *Area) Tables() []string {
	tables := make([]string, 0, len(a.tables))
	for table := range a.tables {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	return tables
}

// Remove deletes everything this run staged. A run-owned bucket is deleted
// entirely, otherwise only this run's objects go.
func (a *Area) Remove(ctx context.Context) error {
	if a.runOwned {
		if err := a.store.DeleteObjects(ctx, ""); err != nil {
			return err
		}
		return a.store.DeleteBucket(ctx)
	}

	var errs error
	for _, table := range a.Tables() {
		errs = multierr.Append(errs, a.store.DeleteObjects(ctx, Prefix(a.scope, table, a.runID)))
	}
	return errs
}

// Prefix is the object prefix of one table's staged parts within a run. The
// BigQuery sink scopes by its target dataset.
func Prefix(scope, table, runID string) string {
	return fmt.Sprintf("%s%s-%s/", ScopePrefix(scope), table, runID)
}

// ScopePrefix is the prefix holding every run's staged parts of one scope.
func ScopePrefix(scope string) string {
	return fmt.Sprintf("input/%s/", scope)
}
