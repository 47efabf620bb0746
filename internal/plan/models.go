// Package plan models satellite acquisition plans: the planned overpass
// footprints parsed from mission manifests, and the merge rules that turn
// multiple manifest files into one time-ordered collection.
package plan

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/geowatch/nextpass/pkg/geo"
)

// Acquisition is a single planned overpass footprint. Immutable once parsed.
type Acquisition struct {
	BeginDate     time.Time
	EndDate       time.Time
	Mode          string
	OrbitAbsolute int
	OrbitRelative int
	Platform      string // optional satellite identifier, e.g. "S1A"
	Footprint     *geo.Geometry
}

// Collection is an ordered set of acquisitions for one mission.
type Collection struct {
	Acquisitions []Acquisition
}

// IsEmpty reports whether the collection holds no acquisitions.
func (c *Collection) IsEmpty() bool {
	return c == nil || len(c.Acquisitions) == 0
}

// LatestEnd returns the latest end date in the collection, the staleness
// boundary reported when no collect matches a query.
func (c *Collection) LatestEnd() time.Time {
	var latest time.Time
	if c == nil {
		return latest
	}
	for _, a := range c.Acquisitions {
		if a.EndDate.After(latest) {
			latest = a.EndDate
		}
	}
	return latest
}

// feature mirrors the GeoJSON on-disk representation of one acquisition.
type feature struct {
	Type       string             `json:"type"`
	Geometry   *geo.Geometry      `json:"geometry"`
	Properties acquisitionDetails `json:"properties"`
}

type acquisitionDetails struct {
	BeginDate     time.Time `json:"begin_date"`
	EndDate       time.Time `json:"end_date"`
	Mode          string    `json:"mode"`
	OrbitAbsolute int       `json:"orbit_absolute"`
	OrbitRelative int       `json:"orbit_relative"`
	Platform      string    `json:"platform,omitempty"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// MarshalJSON encodes the collection as a GeoJSON FeatureCollection.
func (c *Collection) MarshalJSON() ([]byte, error) {
	fc := featureCollection{
		Type:     "FeatureCollection",
		Features: make([]feature, 0, len(c.Acquisitions)),
	}
	for _, a := range c.Acquisitions {
		fc.Features = append(fc.Features, feature{
			Type:     "Feature",
			Geometry: a.Footprint,
			Properties: acquisitionDetails{
				BeginDate:     a.BeginDate,
				EndDate:       a.EndDate,
				Mode:          a.Mode,
				OrbitAbsolute: a.OrbitAbsolute,
				OrbitRelative: a.OrbitRelative,
				Platform:      a.Platform,
			},
		})
	}
	return json.Marshal(fc)
}

// UnmarshalJSON decodes a GeoJSON FeatureCollection into the collection.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to decode feature collection: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return fmt.Errorf("expected FeatureCollection, got %q", fc.Type)
	}
	c.Acquisitions = make([]Acquisition, 0, len(fc.Features))
	for _, f := range fc.Features {
		c.Acquisitions = append(c.Acquisitions, Acquisition{
			BeginDate:     f.Properties.BeginDate,
			EndDate:       f.Properties.EndDate,
			Mode:          f.Properties.Mode,
			OrbitAbsolute: f.Properties.OrbitAbsolute,
			OrbitRelative: f.Properties.OrbitRelative,
			Platform:      f.Properties.Platform,
			Footprint:     f.Geometry,
		})
	}
	return nil
}
