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
	"io"
)

// DefaultRotateBytes is the size at which an open part object is closed and
// a new one started.
const DefaultRotateBytes = 16 << 20 // 16 MiB

// Writer writes lines into sequentially numbered part objects under a fixed
// prefix, rotating to a new object once the open one grows past a threshold.
// It is not safe for concurrent use; the connector SDK calls destinations
// from a single goroutine.
type Writer struct {
	store       Store
	prefix      string
	rotateBytes int64

	seq       int
	open      io.WriteCloser
	openName  string
	openBytes int64

	closedObjects []string
	closedBytes   int64
}

// NewWriter returns a part writer placing objects under the given prefix,
// e.g. "input/<dataset>/orders-<runID>/part-00000.json". A rotateBytes of 0
// falls back to DefaultRotateBytes.
func NewWriter(store Store, prefix string, rotateBytes int64) *Writer {
	if rotateBytes <= 0 {
		rotateBytes = DefaultRotateBytes
	}
	return &Writer{
		store:       store,
		prefix:      prefix,
		rotateBytes: rotateBytes,
	}
}

// Append writes one line into the open part, rotating first when the part is
// full.
func (w *Writer) Append(ctx context.Context, line []byte) error {
	if w.open != nil && w.openBytes+int64(len(line)) > w.rotateBytes {
		if err := w.Flush(ctx); err != nil {
			return err
		}
	}
	if w.open == nil {
		w.openName = fmt.Sprintf("%spart-%05d.json", w.prefix, w.seq)
		w.open = w.store.NewWriter(ctx, w.openName)
		w.seq++
	}

	n, err := w.open.Write(line)
	w.openBytes += int64(n)
	if err != nil {
		return fmt.Errorf("write to object %q: %w", w.openName, err)
	}
	return nil
}

// Flush closes the open part, if any, making it visible in the bucket.
func (w *Writer) Flush(_ context.Context) error {
	if w.open == nil {
		return nil
	}
	if err := w.open.Close(); err != nil {
		return fmt.Errorf("close object %q: %w", w.openName, err)
	}
	w.closedObjects = append(w.closedObjects, w.openName)
	w.closedBytes += w.openBytes
	w.open = nil
	w.openName = ""
	w.openBytes = 0
	return nil
}

// StagedBytes returns the bytes written so far, open part included.
func (w *Writer) StagedBytes() int64 {
	return w.closedBytes + w.openBytes
}

// Objects returns the names of all closed parts.
func (w *Writer) Objects() []string {
	return append([]string(nil), w.closedObjects...)
}

// URIs returns the gs:// URIs of all closed parts.
func (w *Writer) URIs() []string {
	uris := make([]string, len(w.closedObjects))
	for i, obj := range w.closedObjects {
		uris[i] = fmt.Sprintf("gs://%s/%s", w.store.BucketName(), obj)
	}
	return uris
}

// DiscardClosed deletes the closed parts and forgets them. Bytes staged in
// closed parts no longer count towards StagedBytes.
func (w *Writer) DiscardClosed(ctx context.Context) error {
	for _, obj := range w.closedObjects {
		if err := w.store.DeleteObjects(ctx, obj); err != nil {
			return err
		}
	}
	w.closedObjects = nil
	w.closedBytes = 0
	return nil
}
