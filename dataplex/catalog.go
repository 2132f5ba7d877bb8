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

//go:generate mockgen -destination=mock_catalog_test.go -package=dataplex -write_package_comment=false . Catalog

package dataplex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dataplexapi "google.golang.org/api/dataplex/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Catalog lists and fetches the Dataplex resource hierarchy: locations hold
// lakes, lakes hold zones, zones hold assets.
type Catalog interface {
	ListLocations(ctx context.Context, project string) ([]Location, error)
	GetLocation(ctx context.Context, project, location string) (*Location, error)
	ListLakes(ctx context.Context, project, location string) ([]Lake, error)
	GetLake(ctx context.Context, project, location, lake string) (*Lake, error)
	ListZones(ctx context.Context, project, location, lake string) ([]Zone, error)
	GetZone(ctx context.Context, project, location, lake, zone string) (*Zone, error)
	ListAssets(ctx context.Context, project, location, lake, zone string) ([]Asset, error)
	GetAsset(ctx context.Context, project, location, lake, zone, asset string) (*Asset, error)
}

// Location is a Google Cloud location lakes can live in.
type Location struct {
	ID   string
	Name string
}

// Lake is a Dataplex lake.
type Lake struct {
	ID          string
	Name        string
	DisplayName string
	State       string
}

// Zone is a zone within a lake.
type Zone struct {
	ID          string
	Name        string
	DisplayName string
	State       string
	Type        string
}

// Asset is a resource attached to a zone.
type Asset struct {
	ID           string
	Name         string
	DisplayName  string
	State        string
	ResourceSpec ResourceSpec
}

// ResourceSpec identifies the Google Cloud resource behind an asset.
type ResourceSpec struct {
	// Name is the resource name, e.g. projects/<p>/datasets/<ds> or
	// projects/<p>/buckets/<b>.
	Name string
	// Type is the resource type, BIGQUERY_DATASET or STORAGE_BUCKET.
	Type string
}

// Asset resource types.
const (
	ResourceTypeBigQueryDataset = "BIGQUERY_DATASET"
	ResourceTypeStorageBucket   = "STORAGE_BUCKET"
)

// StateActive is the state of a usable lake, zone or asset.
const StateActive = "ACTIVE"

// NotFoundError is returned when a resource in the hierarchy does not exist.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("dataplex resource %q not found", e.Resource)
}

// restCatalog implements Catalog on the Dataplex REST API.
type restCatalog struct {
	svc *dataplexapi.Service
}

// NewCatalog returns a Catalog backed by the Dataplex REST API.
func NewCatalog(ctx context.Context, opts ...option.ClientOption) (Catalog, error) {
	svc, err := dataplexapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create dataplex service: %w", err)
	}
	return &restCatalog{svc: svc}, nil
}

func (c *restCatalog) ListLocations(ctx context.Context, project string) ([]Location, error) {
	name := "projects/" + project
	var out []Location
	token := ""
	for {
		resp, err := c.svc.Projects.Locations.List(name).PageToken(token).Context(ctx).Do()
		if err != nil {
			return nil, wrapAPIError(name+"/locations", err)
		}
		for _, l := range resp.Locations {
			out = append(out, locationModel(l))
		}
		token = resp.NextPageToken
		if token == "" {
			return out, nil
		}
	}
}

func (c *restCatalog) GetLocation(ctx context.Context, project, location string) (*Location, error) {
	name := locationName(project, location)
	l, err := c.svc.Projects.Locations.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(name, err)
	}
	model := locationModel(l)
	return &model, nil
}

func (c *restCatalog) ListLakes(ctx context.Context, project, location string) ([]Lake, error) {
	parent := locationName(project, location)
	var out []Lake
	token := ""
	for {
		resp, err := c.svc.Projects.Locations.Lakes.List(parent).PageToken(token).Context(ctx).Do()
		if err != nil {
			return nil, wrapAPIError(parent+"/lakes", err)
		}
		for _, l := range resp.Lakes {
			out = append(out, lakeModel(l))
		}
		token = resp.NextPageToken
		if token == "" {
			return out, nil
		}
	}
}

func (c *restCatalog) GetLake(ctx context.Context, project, location, lake string) (*Lake, error) {
	name := lakeName(project, location, lake)
	l, err := c.svc.Projects.Locations.Lakes.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(name, err)
	}
	model := lakeModel(l)
	return &model, nil
}

func (c *restCatalog) ListZones(ctx context.Context, project, location, lake string) ([]Zone, error) {
	parent := lakeName(project, location, lake)
	var out []Zone
	token := ""
	for {
		resp, err := c.svc.Projects.Locations.Lakes.Zones.List(parent).PageToken(token).Context(ctx).Do()
		if err != nil {
			return nil, wrapAPIError(parent+"/zones", err)
		}
		for _, z := range resp.Zones {
			out = append(out, zoneModel(z))
		}
		token = resp.NextPageToken
		if token == "" {
			return out, nil
		}
	}
}

func (c *restCatalog) GetZone(ctx context.Context, project, location, lake, zone string) (*Zone, error) {
	name := zoneName(project, location, lake, zone)
	z, err := c.svc.Projects.Locations.Lakes.Zones.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(name, err)
	}
	model := zoneModel(z)
	return &model, nil
}

func (c *restCatalog) ListAssets(ctx context.Context, project, location, lake, zone string) ([]Asset, error) {
	parent := zoneName(project, location, lake, zone)
	var out []Asset
	token := ""
	for {
		resp, err := c.svc.Projects.Locations.Lakes.Zones.Assets.List(parent).PageToken(token).Context(ctx).Do()
		if err != nil {
			return nil, wrapAPIError(parent+"/assets", err)
		}
		for _, a := range resp.Assets {
			out = append(out, assetModel(a))
		}
		token = resp.NextPageToken
		if token == "" {
			return out, nil
		}
	}
}

func (c *restCatalog) GetAsset(ctx context.Context, project, location, lake, zone, asset string) (*Asset, error) {
	name := assetName(project, location, lake, zone, asset)
	a, err := c.svc.Projects.Locations.Lakes.Zones.Assets.Get(name).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(name, err)
	}
	model := assetModel(a)
	return &model, nil
}

func locationModel(l *dataplexapi.GoogleCloudLocationLocation) Location {
	return Location{ID: lastSegment(l.Name), Name: l.Name}
}

func lakeModel(l *dataplexapi.GoogleCloudDataplexV1Lake) Lake {
	return Lake{
		ID:          lastSegment(l.Name),
		Name:        l.Name,
		DisplayName: l.DisplayName,
		State:       l.State,
	}
}

func zoneModel(z *dataplexapi.GoogleCloudDataplexV1Zone) Zone {
	return Zone{
		ID:          lastSegment(z.Name),
		Name:        z.Name,
		DisplayName: z.DisplayName,
		State:       z.State,
		Type:        z.Type,
	}
}

func assetModel(a *dataplexapi.GoogleCloudDataplexV1Asset) Asset {
	model := Asset{
		ID:          lastSegment(a.Name),
		Name:        a.Name,
		DisplayName: a.DisplayName,
		State:       a.State,
	}
	if a.ResourceSpec != nil {
		model.ResourceSpec = ResourceSpec{
			Name: a.ResourceSpec.Name,
			Type: a.ResourceSpec.Type,
		}
	}
	return model
}

func wrapAPIError(resource string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == 404 {
		return &NotFoundError{Resource: resource}
	}
	return fmt.Errorf("dataplex call for %q: %w", resource, err)
}

func locationName(project, location string) string {
	return fmt.Sprintf("projects/%s/locations/%s", project, location)
}

func lakeName(project, location, lake string) string {
	return locationName(project, location) + "/lakes/" + lake
}

func zoneName(project, location, lake, zone string) string {
	return lakeName(project, location, lake) + "/zones/" + zone
}

func assetName(project, location, lake, zone, asset string) string {
	return zoneName(project, location, lake, zone) + "/assets/" + asset
}

func lastSegment(name string) string {
	idx := strings.LastIndexByte(name, '/')
	return name[idx+1:]
}
