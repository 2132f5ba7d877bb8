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
	"sort"
	"strings"

	bq "cloud.google.com/go/bigquery"
	"go.uber.org/multierr"

	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/schema"
)

var fieldTypes = map[schema.Type]bq.FieldType{
	schema.TypeInt:     bq.IntegerFieldType,
	schema.TypeLong:    bq.IntegerFieldType,
	schema.TypeFloat:   bq.FloatFieldType,
	schema.TypeDouble:  bq.FloatFieldType,
	schema.TypeString:  bq.StringFieldType,
	schema.TypeBoolean: bq.BooleanFieldType,
	schema.TypeBytes:   bq.BytesFieldType,
}

var logicalFieldTypes = map[schema.LogicalType]bq.FieldType{
	schema.LogicalDate:            bq.DateFieldType,
	schema.LogicalTimeMillis:      bq.TimeFieldType,
	schema.LogicalTimeMicros:      bq.TimeFieldType,
	schema.LogicalTimestampMillis: bq.TimestampFieldType,
	schema.LogicalTimestampMicros: bq.TimestampFieldType,
}

// toBigQuerySchema maps a record schema to the BigQuery table schema loads
// are validated and executed against.
func toBigQuerySchema(s schema.Schema) (bq.Schema, error) {
	if s.Type != schema.TypeRecord {
		return nil, fmt.Errorf("output schema must be a record, got %q", s.Type)
	}
	out := make(bq.Schema, 0, len(s.Fields))
	for _, f := range s.Fields {
		fs, err := toFieldSchema(f.Name, f.Schema)
		if err != nil {
			return nil, err
		}
		out = append(out, fs)
	}
	return out, nil
}

func toFieldSchema(name string, s schema.Schema) (*bq.FieldSchema, error) {
	repeated := false
	if s.Type == schema.TypeArray {
		if s.Items.Type == schema.TypeArray {
			return nil, fmt.Errorf("field %q: arrays of arrays cannot be mapped to a BigQuery column", name)
		}
		repeated = true
		s = *s.Items
	}

	fs := &bq.FieldSchema{
		Name:     name,
		Repeated: repeated,
		Required: !repeated && !s.Nullable,
	}

	switch {
	case s.Logical != schema.LogicalNone:
		t, ok := logicalFieldTypes[s.Logical]
		if !ok {
			return nil, fmt.Errorf("field %q: unsupported logical type %q", name, s.Logical)
		}
		fs.Type = t
	case s.Type == schema.TypeRecord:
		nested, err := toBigQuerySchema(schema.Schema{Type: schema.TypeRecord, Fields: s.Fields})
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		fs.Type = bq.RecordFieldType
		fs.Schema = nested
	default:
		t, ok := fieldTypes[s.Type]
		if !ok {
			return nil, fmt.Errorf("field %q: unsupported type %q", name, s.Type)
		}
		fs.Type = t
	}
	return fs, nil
}

// normalizeFieldType folds the standard SQL aliases BigQuery reports into
// the legacy names the mapping tables produce.
func normalizeFieldType(t bq.FieldType) bq.FieldType {
	switch t {
	case "INT64":
		return bq.IntegerFieldType
	case "FLOAT64":
		return bq.FloatFieldType
	case "BOOL":
		return bq.BooleanFieldType
	case "STRUCT":
		return bq.RecordFieldType
	default:
		return t
	}
}

// validateAgainstTable checks that records mapped to the output schema can
// be loaded into an existing table. All violations are reported together.
func validateAgainstTable(table string, output, existing bq.Schema) error {
	existingByName := make(map[string]*bq.FieldSchema, len(existing))
	for _, col := range existing {
		existingByName[col.Name] = col
	}

	var errs error
	var extra []string
	for _, f := range output {
		col, ok := existingByName[f.Name]
		if !ok {
			extra = append(extra, f.Name)
			continue
		}
		errs = multierr.Append(errs, validateField(table, f, col))
	}
	if len(extra) > 0 {
		errs = multierr.Append(errs, fmt.Errorf(
			"table %q does not have the output fields: %s", table, strings.Join(extra, ", ")))
	}

	outputNames := make(map[string]struct{}, len(output))
	for _, f := range output {
		outputNames[f.Name] = struct{}{}
	}
	var missing []string
	for _, col := range existing {
		if _, ok := outputNames[col.Name]; ok {
			continue
		}
		if col.Required || col.Repeated {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		errs = multierr.Append(errs, fmt.Errorf(
			"table %q columns not covered by the output schema must be NULLABLE: %s",
			table, strings.Join(missing, ", ")))
	}
	return errs
}

func validateField(table string, f, col *bq.FieldSchema) error {
	var errs error
	if normalizeFieldType(f.Type) != normalizeFieldType(col.Type) {
		errs = multierr.Append(errs, fmt.Errorf(
			"field %q maps to type %s but table %q declares %s", f.Name, f.Type, table, col.Type))
	}
	if f.Repeated != col.Repeated {
		errs = multierr.Append(errs, fmt.Errorf(
			"field %q: repeated mode mismatch with table %q", f.Name, table))
	}
	if !f.Required && col.Required {
		errs = multierr.Append(errs, fmt.Errorf(
			"field %q is nullable but table %q declares the column REQUIRED", f.Name, table))
	}
	return errs
}
