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
	"errors"
	"fmt"
	"testing"

	"github.com/matryer/is"
	"google.golang.org/api/googleapi"
)

func TestRetriable(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "rate limited", err: &googleapi.Error{Code: 429}, want: true},
		{name: "internal", err: &googleapi.Error{Code: 500}, want: true},
		{name: "unavailable", err: &googleapi.Error{Code: 503}, want: true},
		{name: "wrapped server error", err: fmt.Errorf("run: %w", &googleapi.Error{Code: 502}), want: true},
		{name: "not found", err: &googleapi.Error{Code: 404}, want: false},
		{name: "bad request", err: &googleapi.Error{Code: 400}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)
			is.Equal(retriable(tc.err), tc.want)
		})
	}
}
