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
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	sdk "github.com/conduitio/conduit-connector-sdk"
)

// tableRouter resolves the target table per record. A plain string routes
// everything to one table, a Go template enables routing on record contents
// (most commonly the collection metadata field).
type tableRouter struct {
	raw  string
	tmpl *template.Template
}

func newTableRouter(raw string) (*tableRouter, error) {
	if raw == "" {
		return nil, fmt.Errorf("table must not be empty")
	}
	if !strings.Contains(raw, "{{") {
		return &tableRouter{raw: raw}, nil
	}

	tmpl, err := template.New("table").Funcs(sprig.FuncMap()).Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse table template: %w", err)
	}
	return &tableRouter{raw: raw, tmpl: tmpl}, nil
}

func (r *tableRouter) Route(rec sdk.Record) (string, error) {
	if r.tmpl == nil {
		return r.raw, nil
	}

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, rec); err != nil {
		return "", fmt.Errorf("execute table template: %w", err)
	}
	table := strings.TrimSpace(sb.String())
	if table == "" {
		return "", fmt.Errorf("table template %q resolved to an empty string for record %q", r.raw, string(rec.Position))
	}
	return table, nil
}
