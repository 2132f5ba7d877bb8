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
	"time"

	sdk "github.com/conduitio/conduit-connector-sdk"
	"github.com/jpillora/backoff"
	"google.golang.org/api/googleapi"
)

// runLoad executes one load job from staged Cloud Storage parts into a
// table, retrying retriable failures, and returns the number of loaded rows.
func (w *Writer) runLoad(ctx context.Context, table string, spec loadSpec) (int64, error) {
	b := &backoff.Backoff{
		Min:    time.Second,
		Max:    30 * time.Second,
		Factor: 2,
	}

	var lastErr error
	for attempt := 1; attempt <= w.opts.Retries; attempt++ {
		rows, err := w.api.Load(ctx, table, spec)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		if !retriable(err) {
			return 0, err
		}

		d := b.Duration()
		sdk.Logger(ctx).Warn().Err(err).
			Str("table", table).
			Int("attempt", attempt).
			Dur("backoff", d).
			Msg("load job failed, retrying")
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(d):
		}
	}
	return 0, fmt.Errorf("load job failed after %d attempts: %w", w.opts.Retries, lastErr)
}

// retriable reports whether an API error is worth another attempt: rate
// limiting and server-side failures are, data and schema errors are not.
func retriable(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == 429 || gerr.Code >= 500
}
