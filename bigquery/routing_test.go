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
	"testing"

	sdk "github.com/conduitio/conduit-connector-sdk"
	"github.com/matryer/is"
)

func TestTableRouter_Plain(t *testing.T) {
	is := is.New(t)

	r, err := newTableRouter("orders")
	is.NoErr(err)

	table, err := r.Route(sdk.Record{})
	is.NoErr(err)
	is.Equal(table, "orders")
}

func TestTableRouter_Template(t *testing.T) {
	is := is.New(t)

	r, err := newTableRouter(`{{ index .Metadata "opencdc.collection" }}`)
	is.NoErr(err)

	table, err := r.Route(sdk.Record{
		Metadata: sdk.Metadata{"opencdc.collection": "users"},
	})
	is.NoErr(err)
	is.Equal(table, "users")
}

func TestTableRouter_SprigFunctions(t *testing.T) {
	is := is.New(t)

	r, err := newTableRouter(`{{ index .Metadata "opencdc.collection" | snakecase }}`)
	is.NoErr(err)

	table, err := r.Route(sdk.Record{
		Metadata: sdk.Metadata{"opencdc.collection": "UserEvents"},
	})
	is.NoErr(err)
	is.Equal(table, "user_events")
}

func TestTableRouter_Errors(t *testing.T) {
	is := is.New(t)

	_, err := newTableRouter("")
	is.True(err != nil)

	_, err = newTableRouter("{{ .Broken")
	is.True(err != nil)

	r, err := newTableRouter(`{{ index .Metadata "missing" }}`)
	is.NoErr(err)
	_, err = r.Route(sdk.Record{Position: sdk.Position("p1"), Metadata: sdk.Metadata{}})
	is.True(err != nil) // template resolved to an empty table name
}
