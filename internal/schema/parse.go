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

package schema

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Parse parses an Avro-flavoured JSON schema. Scalar types are type names as
// strings, records and arrays are objects, nullability is expressed as a
// two-branch union with "null" in either order, and logical types ride on
// int/long via "logicalType".
func Parse(raw []byte) (Schema, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Schema{}, fmt.Errorf("invalid schema JSON: %w", err)
	}
	s, err := parseValue(v, "")
	if err != nil {
		return Schema{}, err
	}
	if err := s.validate(""); err != nil {
		return Schema{}, err
	}
	return s, nil
}

func parseValue(v any, path string) (Schema, error) {
	switch t := v.(type) {
	case string:
		return parseTypeName(t, LogicalNone, path)
	case map[string]any:
		return parseObject(t, path)
	case []any:
		return parseUnion(t, path)
	default:
		return Schema{}, fmt.Errorf("field %q: unexpected schema element of type %T", pathOr(path, "schema"), v)
	}
}

func parseTypeName(name string, logical LogicalType, path string) (Schema, error) {
	switch Type(name) {
	case TypeBoolean, TypeInt, TypeLong, TypeFloat, TypeDouble, TypeString, TypeBytes:
		return Schema{Type: Type(name), Logical: logical}, nil
	case TypeRecord, TypeArray:
		return Schema{}, fmt.Errorf("field %q: type %q requires an object schema", pathOr(path, "schema"), name)
	default:
		return Schema{}, fmt.Errorf("field %q: unknown type %q", pathOr(path, "schema"), name)
	}
}

func parseObject(obj map[string]any, path string) (Schema, error) {
	typName, ok := obj["type"].(string)
	if !ok {
		return Schema{}, fmt.Errorf("field %q: schema object has no \"type\"", pathOr(path, "schema"))
	}

	switch Type(typName) {
	case TypeRecord:
		return parseRecord(obj, path)
	case TypeArray:
		items, ok := obj["items"]
		if !ok {
			return Schema{}, fmt.Errorf("field %q: array schema has no \"items\"", pathOr(path, "schema"))
		}
		itemSchema, err := parseValue(items, path)
		if err != nil {
			return Schema{}, err
		}
		return Schema{Type: TypeArray, Items: &itemSchema}, nil
	default:
		logical := LogicalNone
		if l, ok := obj["logicalType"].(string); ok {
			logical = LogicalType(l)
		}
		return parseTypeName(typName, logical, path)
	}
}

func parseRecord(obj map[string]any, path string) (Schema, error) {
	name, _ := obj["name"].(string)
	rawFields, ok := obj["fields"].([]any)
	if !ok || len(rawFields) == 0 {
		return Schema{}, fmt.Errorf("record schema %q has no fields", pathOr(path, name))
	}

	fields := make([]Field, 0, len(rawFields))
	for _, rf := range rawFields {
		fobj, ok := rf.(map[string]any)
		if !ok {
			return Schema{}, fmt.Errorf("record schema %q: field is not an object", pathOr(path, name))
		}
		fname, ok := fobj["name"].(string)
		if !ok || fname == "" {
			return Schema{}, fmt.Errorf("record schema %q: field has no name", pathOr(path, name))
		}
		ftype, ok := fobj["type"]
		if !ok {
			return Schema{}, fmt.Errorf("field %q has no type", joinPath(path, fname))
		}
		fs, err := parseValue(ftype, joinPath(path, fname))
		if err != nil {
			return Schema{}, err
		}
		fields = append(fields, Field{Name: fname, Schema: fs})
	}
	return Schema{Type: TypeRecord, Name: name, Fields: fields}, nil
}

// parseUnion handles the nullable encoding: exactly two branches, one of
// which is "null".
func parseUnion(branches []any, path string) (Schema, error) {
	if len(branches) != 2 {
		return Schema{}, fmt.Errorf("field %q: union must have exactly two branches, got %d", pathOr(path, "schema"), len(branches))
	}

	var typed any
	nullSeen := false
	for _, b := range branches {
		if s, ok := b.(string); ok && s == "null" {
			nullSeen = true
			continue
		}
		typed = b
	}
	if !nullSeen || typed == nil {
		return Schema{}, fmt.Errorf("field %q: union must pair \"null\" with exactly one type", pathOr(path, "schema"))
	}

	s, err := parseValue(typed, path)
	if err != nil {
		return Schema{}, err
	}
	s.Nullable = true
	return s, nil
}
