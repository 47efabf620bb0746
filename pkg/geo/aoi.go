package geo

import "fmt"

// AOIKind discriminates the supported area-of-interest shapes.
type AOIKind int

const (
	// AOIPoint is a single lon/lat position. An overpass either covers it
	// or it does not; there is no partial overlap.
	AOIPoint AOIKind = iota
	// AOIPolygon is an areal shape (a bounding box becomes a rectangle).
	AOIPolygon
)

// AOI is the area of interest a caller wants overpass predictions for.
// It is a tagged union of a point and a polygon.
type AOI struct {
	kind     AOIKind
	geometry *Geometry
}

// PointAOI creates a point AOI from lat/lon.
func PointAOI(lat, lon float64) (*AOI, error) {
	if err := validateLatLon(lat, lon); err != nil {
		return nil, err
	}
	return &AOI{kind: AOIPoint, geometry: NewPoint(lon, lat)}, nil
}

// BoxAOI creates a rectangular AOI from south, north, west, east bounds.
// Reversed bounds are swapped. Equal corners degrade to a point AOI.
func BoxAOI(south, north, west, east float64) (*AOI, error) {
	if err := validateLatLon(south, west); err != nil {
		return nil, err
	}
	if err := validateLatLon(north, east); err != nil {
		return nil, err
	}
	if south > north {
		south, north = north, south
	}
	if west > east {
		west, east = east, west
	}
	if south == north && west == east {
		return PointAOI(south, west)
	}
	poly, err := NewPolygonFromBBox([]float64{west, south, east, north})
	if err != nil {
		return nil, err
	}
	return &AOI{kind: AOIPolygon, geometry: poly}, nil
}

// PolygonAOI creates an AOI from an existing polygon geometry.
func PolygonAOI(g *Geometry) (*AOI, error) {
	if g == nil {
		return nil, fmt.Errorf("AOI geometry is nil")
	}
	switch g.Type {
	case "Point":
		return &AOI{kind: AOIPoint, geometry: g}, nil
	case "Polygon", "MultiPolygon":
		return &AOI{kind: AOIPolygon, geometry: g}, nil
	default:
		return nil, fmt.Errorf("unsupported AOI geometry type: %s", g.Type)
	}
}

// Kind returns the AOI shape discriminator.
func (a *AOI) Kind() AOIKind { return a.kind }

// IsPoint reports whether the AOI is a single position.
func (a *AOI) IsPoint() bool { return a.kind == AOIPoint }

// Geometry returns the underlying geometry.
func (a *AOI) Geometry() *Geometry { return a.geometry }

func validateLatLon(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90 degrees, got %g", lat)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("longitude must be between -180 and 180 degrees, got %g", lon)
	}
	return nil
}
