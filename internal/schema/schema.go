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

// Package schema models the record schemas that drive the BigQuery and
// Dataplex destinations: they dictate how records are encoded to
// newline-delimited JSON and how output columns are typed and validated.
// The wire format is an Avro-flavoured JSON schema.
package schema

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Type is the physical type of a field.
type Type string

const (
	TypeBoolean Type = "boolean"
	TypeInt     Type = "int"
	TypeLong    Type = "long"
	TypeFloat   Type = "float"
	TypeDouble  Type = "double"
	TypeString  Type = "string"
	TypeBytes   Type = "bytes"
	TypeArray   Type = "array"
	TypeRecord  Type = "record"
)

// LogicalType refines how an int or long value is interpreted.
type LogicalType string

const (
	LogicalNone            LogicalType = ""
	LogicalDate            LogicalType = "date"             // int, days since unix epoch
	LogicalTimeMillis      LogicalType = "time-millis"      // int, milliseconds of day
	LogicalTimeMicros      LogicalType = "time-micros"      // long, microseconds of day
	LogicalTimestampMillis LogicalType = "timestamp-millis" // long, milliseconds since unix epoch
	LogicalTimestampMicros LogicalType = "timestamp-micros" // long, microseconds since unix epoch
)

// Schema describes the shape of a value. A record schema has Fields, an array
// schema has Items, scalar schemas have neither. Nullable marks that a null
// value is acceptable in place of the typed value.
type Schema struct {
	Type     Type
	Logical  LogicalType
	Nullable bool

	// Name is the record name. Only set for record schemas and only
	// informational, it does not participate in equality.
	Name   string
	Fields []Field
	Items  *Schema
}

// Field is a named schema inside a record.
type Field struct {
	Name   string
	Schema Schema
}

// Field returns the field with the given name and whether it exists.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Equal reports whether two schemas describe the same wire shape. Record
// names are ignored, field order is not.
func (s Schema) Equal(other Schema) bool {
	if s.Type != other.Type ||
		s.Logical != other.Logical ||
		s.Nullable != other.Nullable {
		return false
	}
	if (s.Items == nil) != (other.Items == nil) {
		return false
	}
	if s.Items != nil && !s.Items.Equal(*other.Items) {
		return false
	}
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i, f := range s.Fields {
		if f.Name != other.Fields[i].Name || !f.Schema.Equal(other.Fields[i].Schema) {
			return false
		}
	}
	return true
}

// String renders the schema back into its JSON wire form, parseable by Parse.
func (s Schema) String() string {
	b, err := json.Marshal(s.wireForm())
	if err != nil {
		// wireForm only produces maps, slices and strings
		panic(fmt.Errorf("marshal schema: %w", err))
	}
	return string(b)
}

func (s Schema) wireForm() any {
	var typ any
	switch s.Type {
	case TypeRecord:
		fields := make([]any, len(s.Fields))
		for i, f := range s.Fields {
			fields[i] = map[string]any{
				"name": f.Name,
				"type": f.Schema.wireForm(),
			}
		}
		name := s.Name
		if name == "" {
			name = "record"
		}
		typ = map[string]any{
			"type":   "record",
			"name":   name,
			"fields": fields,
		}
	case TypeArray:
		typ = map[string]any{
			"type":  "array",
			"items": s.Items.wireForm(),
		}
	default:
		if s.Logical != LogicalNone {
			typ = map[string]any{
				"type":        string(s.Type),
				"logicalType": string(s.Logical),
			}
		} else {
			typ = string(s.Type)
		}
	}
	if s.Nullable {
		return []any{"null", typ}
	}
	return typ
}

// validate checks the structural invariants that Parse and Infer guarantee.
func (s Schema) validate(path string) error {
	switch s.Type {
	case TypeRecord:
		if len(s.Fields) == 0 {
			return fmt.Errorf("record schema %q has no fields", pathOr(path, "record"))
		}
		seen := make(map[string]struct{}, len(s.Fields))
		for _, f := range s.Fields {
			if _, ok := seen[f.Name]; ok {
				return fmt.Errorf("record schema %q declares field %q twice", pathOr(path, "record"), f.Name)
			}
			seen[f.Name] = struct{}{}
			if err := f.Schema.validate(joinPath(path, f.Name)); err != nil {
				return err
			}
		}
	case TypeArray:
		if s.Items == nil {
			return fmt.Errorf("array schema %q has no items schema", pathOr(path, "array"))
		}
		return s.Items.validate(path)
	case TypeBoolean, TypeInt, TypeLong, TypeFloat, TypeDouble, TypeString, TypeBytes:
		switch s.Logical {
		case LogicalNone:
		case LogicalDate, LogicalTimeMillis:
			if s.Type != TypeInt {
				return fmt.Errorf("field %q: logical type %q requires int, got %q", path, s.Logical, s.Type)
			}
		case LogicalTimeMicros, LogicalTimestampMillis, LogicalTimestampMicros:
			if s.Type != TypeLong {
				return fmt.Errorf("field %q: logical type %q requires long, got %q", path, s.Logical, s.Type)
			}
		default:
			return fmt.Errorf("field %q: unsupported logical type %q", path, s.Logical)
		}
	default:
		return fmt.Errorf("field %q: unsupported type %q", path, s.Type)
	}
	return nil
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func pathOr(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}
