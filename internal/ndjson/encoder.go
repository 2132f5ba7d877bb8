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

// Package ndjson encodes structured records into newline-delimited JSON in
// the shape BigQuery load jobs expect: one object per line, fields in schema
// order, logical date/time values rendered as civil strings.
package ndjson

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/schema"
)

// BigQuery decodes BYTES columns from padded URL-safe base64.
var base64URL = base64.URLEncoding

const (
	dateFormat      = "2006-01-02"
	timeFormat      = "15:04:05.000000"
	timestampFormat = "2006-01-02 15:04:05.000000"
)

// Encoder encodes records against a fixed record schema. The output is
// deterministic: fields appear in schema order regardless of map iteration.
type Encoder struct {
	schema schema.Schema
}

// NewEncoder returns an encoder for the given record schema.
func NewEncoder(s schema.Schema) (*Encoder, error) {
	if s.Type != schema.TypeRecord {
		return nil, fmt.Errorf("encoder requires a record schema, got %q", s.Type)
	}
	return &Encoder{schema: s}, nil
}

// Encode renders one record as a single JSON line, newline included.
func (e *Encoder) Encode(data map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeRecord(&buf, e.schema, data, ""); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func encodeRecord(buf *bytes.Buffer, s schema.Schema, data map[string]any, path string) error {
	buf.WriteByte('{')
	for i, f := range s.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(buf, f.Name)
		buf.WriteByte(':')
		if err := encodeValue(buf, f.Schema, data[f.Name], joinPath(path, f.Name)); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeValue(buf *bytes.Buffer, s schema.Schema, v any, path string) error {
	if v == nil {
		if !s.Nullable {
			return fmt.Errorf("field %q: null value for non-nullable field", path)
		}
		buf.WriteString("null")
		return nil
	}

	switch s.Type {
	case schema.TypeRecord:
		nested, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("field %q: expected a nested record, got %T", path, v)
		}
		return encodeRecord(buf, s, nested, path)
	case schema.TypeArray:
		return encodeArray(buf, s, v, path)
	case schema.TypeInt, schema.TypeLong:
		return encodeIntegral(buf, s, v, path)
	case schema.TypeFloat, schema.TypeDouble:
		f, err := asFloat(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", path, err)
		}
		return writeMarshaled(buf, f)
	case schema.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("field %q: expected a boolean, got %T", path, v)
		}
		return writeMarshaled(buf, b)
	case schema.TypeString:
		str, ok := v.(string)
		if !ok {
			return fmt.Errorf("field %q: expected a string, got %T", path, v)
		}
		writeJSONString(buf, str)
		return nil
	case schema.TypeBytes:
		return encodeBytes(buf, v, path)
	default:
		return fmt.Errorf("field %q: unsupported type %q", path, s.Type)
	}
}

func encodeArray(buf *bytes.Buffer, s schema.Schema, v any, path string) error {
	if s.Items.Type == schema.TypeArray {
		return fmt.Errorf("field %q: arrays of arrays cannot be loaded into BigQuery", path)
	}
	arr, ok := v.([]any)
	if !ok {
		return fmt.Errorf("field %q: expected an array, got %T", path, v)
	}

	buf.WriteByte('[')
	first := true
	for _, el := range arr {
		// BigQuery rejects null elements in repeated columns, skip them
		if el == nil {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := encodeValue(buf, *s.Items, el, path); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// encodeIntegral writes int/long values, turning logical date/time types
// into the string forms BigQuery parses for DATE, TIME and TIMESTAMP
// columns. It accepts the raw integer encodings (days, millis, micros) as
// well as time.Time values.
func encodeIntegral(buf *bytes.Buffer, s schema.Schema, v any, path string) error {
	if s.Logical == schema.LogicalNone {
		n, err := asInt(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", path, err)
		}
		return writeMarshaled(buf, n)
	}

	t, err := logicalTime(s.Logical, v)
	if err != nil {
		return fmt.Errorf("field %q: %w", path, err)
	}

	switch s.Logical {
	case schema.LogicalDate:
		writeJSONString(buf, t.Format(dateFormat))
	case schema.LogicalTimeMillis, schema.LogicalTimeMicros:
		writeJSONString(buf, t.Format(timeFormat))
	default:
		writeJSONString(buf, t.Format(timestampFormat))
	}
	return nil
}

func logicalTime(l schema.LogicalType, v any) (time.Time, error) {
	if t, ok := v.(time.Time); ok {
		return t.UTC(), nil
	}
	n, err := asInt(v)
	if err != nil {
		return time.Time{}, err
	}

	epoch := time.Unix(0, 0).UTC()
	switch l {
	case schema.LogicalDate:
		return epoch.AddDate(0, 0, int(n)), nil
	case schema.LogicalTimeMillis, schema.LogicalTimestampMillis:
		return epoch.Add(time.Duration(n) * time.Millisecond), nil
	case schema.LogicalTimeMicros, schema.LogicalTimestampMicros:
		return epoch.Add(time.Duration(n) * time.Microsecond), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported logical type %q", l)
	}
}

func encodeBytes(buf *bytes.Buffer, v any, path string) error {
	var b []byte
	switch t := v.(type) {
	case []byte:
		b = t
	case string:
		b = []byte(t)
	default:
		return fmt.Errorf("field %q: expected bytes, got %T", path, v)
	}
	writeJSONString(buf, base64URL.EncodeToString(b))
	return nil
}

func asInt(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("expected an integer, got %v", t)
		}
		return int64(t), nil
	case json.Number:
		return t.Int64()
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float32:
		return float64(t), nil
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func writeMarshaled(buf *bytes.Buffer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}
