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

	sdk "github.com/conduitio/conduit-connector-sdk"

	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/googleutil"
	"github.com/conduitio-labs/conduit-connector-google-cloud/internal/schema"
)

const (
	// ConfigProject is the Google Cloud project. Defaults to the project of
	// the resolved credentials.
	ConfigProject = "project"
	// ConfigServiceAccountKey is the service account key JSON, inline.
	ConfigServiceAccountKey = "serviceAccountKey"
	// ConfigServiceAccountFile is a path to a service account key JSON file.
	ConfigServiceAccountFile = "serviceAccountFile"
	// ConfigDataset is the BigQuery dataset records are loaded into.
	ConfigDataset = "dataset"
	// ConfigTable is the target table, optionally a Go template evaluated
	// against each record.
	ConfigTable = "table"
	// ConfigBucket is the Cloud Storage bucket used for staging. When empty
	// a bucket is created for the duration of the run and deleted again.
	ConfigBucket = "bucket"
	// ConfigLocation is the location of the dataset and the staging bucket.
	ConfigLocation = "location"
	// ConfigSchema is an optional JSON schema for the records. Without it
	// the schema is inferred from the first record per table.
	ConfigSchema = "schema"
	// ConfigTruncate makes the first load into each table replace the
	// table's contents instead of appending.
	ConfigTruncate = "truncate"
	// ConfigLoadTriggerBytes is the amount of staged bytes per table that
	// triggers a load job before the run ends.
	ConfigLoadTriggerBytes = "loadTriggerBytes"
	// ConfigRetries is the number of attempts for retriable BigQuery calls.
	ConfigRetries = "retries"
)

const (
	defaultLocation         = "US"
	defaultLoadTriggerBytes = 128 << 20 // 128 MiB
	defaultRetries          = 4
)

// Config is the configuration of the BigQuery destination.
type Config struct {
	googleutil.Credentials `json:",squash"`

	Project          string `json:"project"`
	Dataset          string `json:"dataset"`
	Table            string `json:"table"`
	Bucket           string `json:"bucket"`
	Location         string `json:"location"`
	Schema           string `json:"schema"`
	Truncate         bool   `json:"truncate"`
	LoadTriggerBytes int64  `json:"loadTriggerBytes"`
	Retries          int    `json:"retries"`
}

// Validate checks the cross-field rules the parameter validations cannot
// express and fills in defaults.
func (c *Config) Validate() error {
	if err := c.Credentials.Validate(); err != nil {
		return err
	}
	if c.Schema != "" {
		if _, err := schema.Parse([]byte(c.Schema)); err != nil {
			return fmt.Errorf("invalid schema: %w", err)
		}
	}
	if _, err := newTableRouter(c.Table); err != nil {
		return fmt.Errorf("invalid table: %w", err)
	}
	if c.Location == "" {
		c.Location = defaultLocation
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
			Description: "Google Cloud project of the dataset. Defaults to the project of the configured credentials.",
		},
		ConfigServiceAccountKey: {
			Description: "Service account key JSON, specified inline. Mutually exclusive with serviceAccountFile. " +
				"When neither is set, application default credentials are used.",
		},
		ConfigServiceAccountFile: {
			Description: "Path to a service account key JSON file. Mutually exclusive with serviceAccountKey.",
			Type:        sdk.ParameterTypeFile,
		},
		ConfigDataset: {
			Description: "BigQuery dataset records are loaded into. Created if it does not exist.",
			Validations: []sdk.Validation{sdk.ValidationRequired{}},
		},
		ConfigTable: {
			Description: "Target table name. May be a Go template (with sprig functions) evaluated against each record, " +
				`e.g. {{ index .Metadata "opencdc.collection" }}.`,
			Validations: []sdk.Validation{sdk.ValidationRequired{}},
		},
		ConfigBucket: {
			Description: "Cloud Storage bucket used to stage load files. When empty, a bucket is created for the " +
				"duration of the run and deleted afterwards.",
		},
		ConfigLocation: {
			Default:     defaultLocation,
			Description: "Location used when creating the dataset or the staging bucket.",
		},
		ConfigSchema: {
			Description: "JSON schema of the records. When empty, the schema is inferred from the first record " +
				"written to each table.",
		},
		ConfigTruncate: {
			Default:     "false",
			Description: "Replace the contents of each target table with this run's records instead of appending.",
			Type:        sdk.ParameterTypeBool,
		},
		ConfigLoadTriggerBytes: {
			Default:     "134217728",
			Description: "Staged bytes per table that trigger a load job before the connector shuts down.",
			Type:        sdk.ParameterTypeInt,
		},
		ConfigRetries: {
			Default:     "4",
			Description: "Maximum attempts for retriable BigQuery and Cloud Storage calls.",
			Type:        sdk.ParameterTypeInt,
		},
	}
}
