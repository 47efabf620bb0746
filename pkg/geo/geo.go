// Package geo provides GeoJSON geometry types and planar overlap math for
// acquisition footprints and areas of interest.
package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Geometry represents a GeoJSON geometry object. Coordinates are kept raw
// and decoded on demand by type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// NewPoint creates a Point geometry from lon/lat.
func NewPoint(lon, lat float64) *Geometry {
	coords, _ := json.Marshal([]float64{lon, lat})
	return &Geometry{Type: "Point", Coordinates: coords}
}

// NewPolygon creates a Polygon geometry from rings of [lon, lat] pairs.
// The first ring is the exterior boundary.
func NewPolygon(rings [][][]float64) (*Geometry, error) {
	if len(rings) == 0 || len(rings[0]) < 4 {
		return nil, fmt.Errorf("polygon needs at least one ring with 4 positions")
	}
	coords, err := json.Marshal(rings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal polygon coordinates: %w", err)
	}
	return &Geometry{Type: "Polygon", Coordinates: coords}, nil
}

// NewPolygonFromBBox creates a rectangular polygon from [west, south, east, north].
func NewPolygonFromBBox(bbox []float64) (*Geometry, error) {
	if len(bbox) != 4 {
		return nil, fmt.Errorf("bbox must have 4 values [west, south, east, north], got %d", len(bbox))
	}
	west, south, east, north := bbox[0], bbox[1], bbox[2], bbox[3]
	return NewPolygon([][][]float64{
		{
			{west, south},
			{east, south},
			{east, north},
			{west, north},
			{west, south}, // close the ring
		},
	})
}

// Point returns the coordinates as [lon, lat].
// Returns an error if the geometry is not a Point.
func (g *Geometry) Point() ([]float64, error) {
	if g.Type != "Point" {
		return nil, fmt.Errorf("geometry is not a Point, got %s", g.Type)
	}
	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Point coordinates: %w", err)
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("invalid Point coordinates: expected at least 2 values, got %d", len(coords))
	}
	return coords, nil
}

// Polygon returns the coordinates as rings of [lon, lat] pairs.
// Returns an error if the geometry is not a Polygon.
func (g *Geometry) Polygon() ([][][]float64, error) {
	if g.Type != "Polygon" {
		return nil, fmt.Errorf("geometry is not a Polygon, got %s", g.Type)
	}
	var coords [][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Polygon coordinates: %w", err)
	}
	return coords, nil
}

// MultiPolygon returns the coordinates as a list of polygons.
// Returns an error if the geometry is not a MultiPolygon.
func (g *Geometry) MultiPolygon() ([][][][]float64, error) {
	if g.Type != "MultiPolygon" {
		return nil, fmt.Errorf("geometry is not a MultiPolygon, got %s", g.Type)
	}
	var coords [][][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal MultiPolygon coordinates: %w", err)
	}
	return coords, nil
}

// IsPoint reports whether the geometry is a Point.
func (g *Geometry) IsPoint() bool {
	return g != nil && g.Type == "Point"
}

// BBox computes the bounding box of the geometry as [west, south, east, north].
func (g *Geometry) BBox() ([]float64, error) {
	if g == nil {
		return nil, fmt.Errorf("geometry is nil")
	}

	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)

	expand := func(point []float64) {
		if len(point) < 2 {
			return
		}
		minLon = math.Min(minLon, point[0])
		maxLon = math.Max(maxLon, point[0])
		minLat = math.Min(minLat, point[1])
		maxLat = math.Max(maxLat, point[1])
	}

	switch g.Type {
	case "Point":
		coords, err := g.Point()
		if err != nil {
			return nil, err
		}
		return []float64{coords[0], coords[1], coords[0], coords[1]}, nil

	case "Polygon":
		coords, err := g.Polygon()
		if err != nil {
			return nil, err
		}
		for _, ring := range coords {
			for _, point := range ring {
				expand(point)
			}
		}

	case "MultiPolygon":
		coords, err := g.MultiPolygon()
		if err != nil {
			return nil, err
		}
		for _, polygon := range coords {
			for _, ring := range polygon {
				for _, point := range ring {
					expand(point)
				}
			}
		}

	default:
		return nil, fmt.Errorf("unsupported geometry type: %s", g.Type)
	}

	if math.IsInf(minLon, 0) || math.IsInf(minLat, 0) {
		return nil, fmt.Errorf("failed to compute bounding box: no valid coordinates found")
	}

	return []float64{minLon, minLat, maxLon, maxLat}, nil
}

// WKT serializes the geometry to well-known text.
// Supports Point, Polygon, and MultiPolygon.
func (g *Geometry) WKT() (string, error) {
	if g == nil {
		return "", fmt.Errorf("geometry is nil")
	}

	switch g.Type {
	case "Point":
		coords, err := g.Point()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("POINT(%s %s)", formatFloat(coords[0]), formatFloat(coords[1])), nil

	case "Polygon":
		coords, err := g.Polygon()
		if err != nil {
			return "", err
		}
		rings, err := ringsToWKT(coords)
		if err != nil {
			return "", err
		}
		return "POLYGON" + rings, nil

	case "MultiPolygon":
		coords, err := g.MultiPolygon()
		if err != nil {
			return "", err
		}
		polygons := make([]string, 0, len(coords))
		for _, polygon := range coords {
			rings, err := ringsToWKT(polygon)
			if err != nil {
				return "", err
			}
			polygons = append(polygons, rings)
		}
		return "MULTIPOLYGON(" + strings.Join(polygons, ",") + ")", nil

	default:
		return "", fmt.Errorf("unsupported geometry type for WKT conversion: %s", g.Type)
	}
}

func ringsToWKT(rings [][][]float64) (string, error) {
	out := make([]string, 0, len(rings))
	for _, ring := range rings {
		points := make([]string, len(ring))
		for i, point := range ring {
			if len(point) < 2 {
				return "", fmt.Errorf("invalid point in ring: expected at least 2 coordinates")
			}
			points[i] = fmt.Sprintf("%s %s", formatFloat(point[0]), formatFloat(point[1]))
		}
		out = append(out, "("+strings.Join(points, ",")+")")
	}
	return "(" + strings.Join(out, ",") + ")", nil
}

// formatFloat formats a float64 for WKT output without trailing zeros.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
