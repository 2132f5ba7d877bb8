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
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// Infer derives a record schema from the structured payload of a record. It
// is used when the destination is configured without an explicit schema: the
// first record seen for a table decides the table's shape. All inferred
// fields are nullable, since later records may omit them.
func Infer(data map[string]any) (Schema, error) {
	if len(data) == 0 {
		return Schema{}, fmt.Errorf("cannot infer schema from an empty record")
	}

	// map iteration order is random, keep the output deterministic
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		fs, err := inferValue(data[name], name)
		if err != nil {
			return Schema{}, err
		}
		fs.Nullable = true
		fields = append(fields, Field{Name: name, Schema: fs})
	}
	return Schema{Type: TypeRecord, Name: "record", Fields: fields}, nil
}

func inferValue(v any, path string) (Schema, error) {
	switch t := v.(type) {
	case bool:
		return Schema{Type: TypeBoolean}, nil
	case int32:
		return Schema{Type: TypeInt}, nil
	case int, int64:
		return Schema{Type: TypeLong}, nil
	case float32:
		return Schema{Type: TypeFloat}, nil
	case float64:
		// JSON numbers decode as float64
		return Schema{Type: TypeDouble}, nil
	case json.Number:
		return Schema{Type: TypeDouble}, nil
	case string:
		return Schema{Type: TypeString}, nil
	case []byte:
		return Schema{Type: TypeBytes}, nil
	case time.Time:
		return Schema{Type: TypeLong, Logical: LogicalTimestampMicros}, nil
	case map[string]any:
		return Infer(t)
	case []any:
		return inferArray(t, path)
	case nil:
		return Schema{Type: TypeString}, nil
	default:
		return Schema{}, fmt.Errorf("field %q: cannot infer schema for value of type %T", path, v)
	}
}

func inferArray(arr []any, path string) (Schema, error) {
	// the component type comes from the first non-nil element; an empty or
	// all-nil array degrades to nullable strings
	for _, el := range arr {
		if el == nil {
			continue
		}
		items, err := inferValue(el, path)
		if err != nil {
			return Schema{}, err
		}
		items.Nullable = true
		return Schema{Type: TypeArray, Items: &items}, nil
	}
	return Schema{Type: TypeArray, Items: &Schema{Type: TypeString, Nullable: true}}, nil
}
