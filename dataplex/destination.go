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

// Package dataplex implements a client for the Dataplex catalog and a
// destination connector that writes records through a Dataplex asset, either
// into the BigQuery dataset or the Cloud Storage bucket behind it.
package dataplex

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/conduitio/conduit-connector-sdk"
)

// recordWriter is the destination the resolved asset maps to.
type recordWriter interface {
	Write(ctx context.Context, rec sdk.Record) error
	Close(ctx context.Context) error
}

type Destination struct {
	sdk.UnimplementedDestination

	config Config

	// catalog is swapped out in tests, Open creates the real one when nil.
	catalog Catalog
	writer  recordWriter
}

func NewDestination() sdk.Destination {
	return sdk.DestinationWithMiddleware(&Destination{}, sdk.DefaultDestinationMiddleware()...)
}

func (d *Destination) Configure(ctx context.Context, cfg map[string]string) error {
	sdk.Logger(ctx).Debug().Msg("configuring Dataplex destination")
	if err := sdk.Util.ParseConfig(cfg, &d.config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return d.config.Validate()
}

// Open resolves the configured asset through the catalog and sets up the
// writer matching the asset's resource type.
func (d *Destination) Open(ctx context.Context) error {
	resolved, err := d.config.Credentials.Resolve(ctx)
	if err != nil {
		return err
	}
	project := d.config.Project
	if project == "" {
		project = resolved.ProjectID
	}
	if project == "" {
		return fmt.Errorf("no project configured and the credentials carry none")
	}

	if d.catalog == nil {
		d.catalog, err = NewCatalog(ctx, resolved.ClientOptions()...)
		if err != nil {
			return err
		}
	}

	asset, err := d.catalog.GetAsset(ctx, project, d.config.Location, d.config.Lake, d.config.Zone, d.config.Asset)
	if err != nil {
		return err
	}
	if asset.State != StateActive {
		return fmt.Errorf("asset %q is not active, state is %q", asset.Name, asset.State)
	}

	declared, err := d.config.DeclaredSchema()
	if err != nil {
		return err
	}

	switch asset.ResourceSpec.Type {
	case ResourceTypeBigQueryDataset:
		d.writer, err = d.openBigQueryWriter(ctx, resolved.ClientOptions(), asset, declared)
	case ResourceTypeStorageBucket:
		d.writer, err = d.openObjectWriter(ctx, resolved.ClientOptions(), project, asset, declared)
	default:
		return fmt.Errorf("asset %q has unsupported resource type %q", asset.Name, asset.ResourceSpec.Type)
	}
	if err != nil {
		return err
	}

	sdk.Logger(ctx).Info().
		Str("asset", asset.Name).
		Str("resourceType", asset.ResourceSpec.Type).
		Msg("Dataplex destination open")
	return nil
}

func (d *Destination) Write(ctx context.Context, records []sdk.Record) (int, error) {
	for i, rec := range records {
		if rec.Operation == sdk.OperationDelete {
			return i, fmt.Errorf(
				"record %q: delete operations are not supported, the destination is append-only",
				string(rec.Position))
		}
		if err := d.writer.Write(ctx, rec); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

func (d *Destination) Teardown(ctx context.Context) error {
	if d.writer == nil {
		return nil
	}
	return d.writer.Close(ctx)
}

// parseResourceName extracts the trailing ID from an asset resource name of
// the form projects/<p>/<collection>/<id>, e.g. projects/p/datasets/ds.
func parseResourceName(name, collection string) (project, id string, err error) {
	parts := strings.Split(name, "/")
	if len(parts) != 4 || parts[0] != "projects" || parts[2] != collection {
		return "", "", fmt.Errorf("unexpected resource name %q, want projects/<project>/%s/<id>", name, collection)
	}
	return parts[1], parts[3], nil
}
