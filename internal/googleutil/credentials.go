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

// Package googleutil resolves Google Cloud credentials shared by the
// BigQuery and Dataplex connectors.
package googleutil

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// scopeCloudPlatform covers BigQuery, Cloud Storage and Dataplex.
const scopeCloudPlatform = "https://www.googleapis.com/auth/cloud-platform"

// Credentials is the credentials part of a connector configuration. At most
// one of the two fields may be set; with both empty the connector falls back
// to application default credentials.
type Credentials struct {
	// ServiceAccountKey is the service account key JSON, inline.
	ServiceAccountKey string `json:"serviceAccountKey"`
	// ServiceAccountFile is a path to a service account key JSON file.
	ServiceAccountFile string `json:"serviceAccountFile"`
}

// Resolved carries the client options and default project derived from a
// Credentials configuration.
type Resolved struct {
	// ProjectID is the project the credentials belong to, empty when the
	// credentials carry none.
	ProjectID string

	opts []option.ClientOption
}

// ClientOptions returns the options to pass to Google API clients.
func (r *Resolved) ClientOptions() []option.ClientOption {
	return r.opts
}

// serviceAccountKey is the subset of the key JSON we validate before handing
// it to a client, so a malformed key fails fast instead of on the first API
// call.
type serviceAccountKey struct {
	Type       string `json:"type"`
	ProjectID  string `json:"project_id"`
	PrivateKey string `json:"private_key"`
}

// Validate checks the configuration shape without touching the network.
func (c Credentials) Validate() error {
	if c.ServiceAccountKey != "" && c.ServiceAccountFile != "" {
		return fmt.Errorf("serviceAccountKey and serviceAccountFile are mutually exclusive")
	}
	if c.ServiceAccountKey != "" {
		if err := validateKeyJSON([]byte(c.ServiceAccountKey)); err != nil {
			return fmt.Errorf("serviceAccountKey: %w", err)
		}
	}
	return nil
}

// Resolve produces client options and the default project ID. The key file,
// if configured, is read exactly once here.
func (c Credentials) Resolve(ctx context.Context) (*Resolved, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	raw := []byte(c.ServiceAccountKey)
	if c.ServiceAccountFile != "" {
		var err error
		raw, err = os.ReadFile(c.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		if err := validateKeyJSON(raw); err != nil {
			return nil, fmt.Errorf("serviceAccountFile %q: %w", c.ServiceAccountFile, err)
		}
	}

	if len(raw) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, raw, scopeCloudPlatform)
		if err != nil {
			return nil, fmt.Errorf("parse service account key: %w", err)
		}
		return &Resolved{
			ProjectID: creds.ProjectID,
			opts:      []option.ClientOption{option.WithCredentials(creds)},
		}, nil
	}

	creds, err := google.FindDefaultCredentials(ctx, scopeCloudPlatform)
	if err != nil {
		return nil, fmt.Errorf("find application default credentials: %w", err)
	}
	return &Resolved{
		ProjectID: creds.ProjectID,
		opts:      []option.ClientOption{option.WithCredentials(creds)},
	}, nil
}

func validateKeyJSON(raw []byte) error {
	var key serviceAccountKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return fmt.Errorf("not valid JSON: %w", err)
	}
	if key.Type == "" || key.ProjectID == "" || key.PrivateKey == "" {
		return fmt.Errorf("key JSON must contain type, project_id and private_key")
	}
	return nil
}
