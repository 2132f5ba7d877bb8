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

package dataplex

import (
	"fmt"

	sdk "github.com/conduitio/conduit-connector-sdk"

	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/googleutil"
	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/schema"
)

const (
	ConfigProject            = "project"
	ConfigServiceAccountKey  = "serviceAccountKey"
	ConfigServiceAccountFile = "serviceAccountFile"
	// ConfigLocation is the Google Cloud location of the lake.
	ConfigLocation = "location"
	// ConfigLake is the Dataplex lake ID.
	ConfigLake = "lake"
	// ConfigZone is the zone ID within the lake.
	ConfigZone = "zone"
	// ConfigAsset is the asset ID within the zone records are written
	// through.
	ConfigAsset = "asset"
	// ConfigTable is the table (BigQuery assets) or object directory name
	// (storage assets). Required for BigQuery assets, defaults to the asset
	// ID for storage assets.
	ConfigTable = "table"
	// ConfigBucket is the staging bucket for load jobs into BigQuery
	// assets. When empty a run-owned bucket is used.
	ConfigBucket = "bucket"
	// ConfigSchema is an optional JSON schema for the records.
	ConfigSchema = "schema"
	// ConfigTruncate makes the first load into the table replace its
	// contents. Only meaningful for BigQuery assets.
	ConfigTruncate = "truncate"
	// ConfigLoadTriggerBytes triggers an early load job. Only meaningful
	// for BigQuery assets.
	ConfigLoadTriggerBytes = "loadTriggerBytes"
	// ConfigRetries caps attempts for retriable API calls.
	ConfigRetries = "retries"
)

const (
	defaultLoadTriggerBytes = 128 << 20
	defaultRetries          = 4
)

// Config is the configuration of the Dataplex destination.
type Config struct {
	googleutil.Credentials `json:",squash"`

	Project          string `json:"project"`
	Location         string `json:"location"`
	Lake             string `json:"lake"`
	Zone             string `json:"zone"`
	Asset            string `json:"asset"`
	Table            string `json:"table"`
	Bucket           string `json:"bucket"`
	Schema           string `json:"schema"`
	Truncate         bool   `json:"truncate"`
	LoadTriggerBytes int64  `json:"loadTriggerBytes"`
	Retries          int    `json:"retries"`
}

// Validate checks the cross-field rules and fills in defaults.
func (c *Config) Validate() error {
	if err := c.Credentials.Validate(); err != nil {
		return err
	}
	if c.Schema != "" {
		if _, err := schema.Parse([]byte(c.Schema)); err != nil {
			return fmt.Errorf("invalid schema: %w", err)
		}
	}
	if c.LoadTriggerBytes <= 0 {
		c.LoadTriggerBytes = defaultLoadTriggerBytes
	}
	if c.Retries <= 0 {
		c.Retries = defaultRetries
	}
	return nil
}

// DeclaredSchema returns the configured schema, nil when the schema should
// be inferred from data.
func (c *Config) DeclaredSchema() (*schema.Schema, error) {
	if c.Schema == "" {
		return nil, nil
	}
	s, err := schema.Parse([]byte(c.Schema))
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *Destination) Parameters() map[string]sdk.Parameter {
	return map[string]sdk.Parameter{
		ConfigProject: {
			Description: "Google Cloud project of the lake. Defaults to the project of the configured credentials.",
		},
		ConfigServiceAccountKey: {
			Description: "Service account key JSON, specified inline. Mutually exclusive with serviceAccountFile.",
		},
		ConfigServiceAccountFile: {
			Description: "Path to a service account key JSON file. Mutually exclusive with serviceAccountKey.",
			Type:        sdk.ParameterTypeFile,
		},
		ConfigLocation: {
			Description: "Google Cloud location of the lake, e.g. us-central1.",
			Validations: []sdk.Validation{sdk.ValidationRequired{}},
		},
		ConfigLake: {
			Description: "Dataplex lake ID.",
			Validations: []sdk.Validation{sdk.ValidationRequired{}},
		},
		ConfigZone: {
			Description: "Zone ID within the lake.",
			Validations: []sdk.Validation{sdk.ValidationRequired{}},
		},
		ConfigAsset: {
			Description: "Asset ID within the zone. The asset's resource (BigQuery dataset or storage bucket) " +
				"receives the records.",
			Validations: []sdk.Validation{sdk.ValidationRequired{}},
		},
		ConfigTable: {
			Description: "Table to load into (required for BigQuery dataset assets) or directory name for staged " +
				"objects (storage bucket assets, defaults to the asset ID).",
		},
		ConfigBucket: {
			Description: "Cloud Storage bucket for staging load files into BigQuery assets. When empty, a bucket is " +
				"created for the duration of the run and deleted afterwards.",
		},
		ConfigSchema: {
			Description: "JSON schema of the records. When empty, the schema is inferred from the first record.",
		},
		ConfigTruncate: {
			Default:     "false",
			Description: "Replace the target table's contents instead of appending. BigQuery dataset assets only.",
			Type:        sdk.ParameterTypeBool,
		},
		ConfigLoadTriggerBytes: {
			Default:     "134217728",
			Description: "Staged bytes that trigger a load job before the connector shuts down. BigQuery dataset assets only.",
			Type:        sdk.ParameterTypeInt,
		},
		ConfigRetries: {
			Default:     "4",
			Description: "Maximum attempts for retriable Google API calls.",
			Type:        sdk.ParameterTypeInt,
		},
	}
}
