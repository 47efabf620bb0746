package geo

import (
	"encoding/json"
	"fmt"

	"github.com/peterstace/simplefeatures/geom"
)

// OverlapPercent computes how much of the AOI a footprint covers, as 0-100.
// For a point AOI the result is 100 whenever the footprint intersects it.
// For an areal AOI it is 100*area(footprint AND aoi)/area(aoi); the ratio is
// intentionally asymmetric, measuring AOI coverage rather than footprint
// coverage. The second return value is false when the shapes do not
// intersect at all.
func OverlapPercent(footprint *Geometry, aoi *AOI) (float64, bool, error) {
	fp, err := toSimple(footprint)
	if err != nil {
		return 0, false, fmt.Errorf("invalid footprint: %w", err)
	}
	target, err := toSimple(aoi.Geometry())
	if err != nil {
		return 0, false, fmt.Errorf("invalid AOI: %w", err)
	}

	if !geom.Intersects(fp, target) {
		return 0, false, nil
	}

	if aoi.IsPoint() {
		return 100, true, nil
	}

	aoiArea := target.Area()
	if aoiArea <= 0 {
		return 0, false, fmt.Errorf("AOI has zero area")
	}

	overlap, err := geom.Intersection(fp, target)
	if err != nil {
		return 0, false, fmt.Errorf("intersection failed: %w", err)
	}

	pct := 100 * overlap.Area() / aoiArea
	// Guard against floating-point spill outside [0, 100].
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true, nil
}

// Intersection returns footprint AND aoi as a geometry, or nil if the
// result is empty.
func Intersection(footprint, aoi *Geometry) (*Geometry, error) {
	a, err := toSimple(footprint)
	if err != nil {
		return nil, fmt.Errorf("invalid footprint: %w", err)
	}
	b, err := toSimple(aoi)
	if err != nil {
		return nil, fmt.Errorf("invalid AOI: %w", err)
	}
	out, err := geom.Intersection(a, b)
	if err != nil {
		return nil, fmt.Errorf("intersection failed: %w", err)
	}
	if out.IsEmpty() {
		return nil, nil
	}
	return fromSimple(out)
}

// Intersects reports whether two geometries share any point.
func Intersects(a, b *Geometry) (bool, error) {
	ga, err := toSimple(a)
	if err != nil {
		return false, err
	}
	gb, err := toSimple(b)
	if err != nil {
		return false, err
	}
	return geom.Intersects(ga, gb), nil
}

// Shape is a geometry prepared for repeated point-containment tests and
// area/bounds queries, as used by the cloudiness samplers.
type Shape struct {
	simple geom.Geometry
	bbox   []float64
}

// NewShape prepares a geometry for sampling.
func NewShape(g *Geometry) (*Shape, error) {
	simple, err := toSimple(g)
	if err != nil {
		return nil, err
	}
	bbox, err := g.BBox()
	if err != nil {
		return nil, err
	}
	return &Shape{simple: simple, bbox: bbox}, nil
}

// Area returns the planar area in squared degrees.
func (s *Shape) Area() float64 {
	return s.simple.Area()
}

// BBox returns [west, south, east, north].
func (s *Shape) BBox() []float64 {
	return s.bbox
}

// Contains reports whether the shape covers the given lon/lat position.
// Boundary points count as contained.
func (s *Shape) Contains(lon, lat float64) bool {
	pt, err := geom.UnmarshalWKT(fmt.Sprintf("POINT(%s %s)", formatFloat(lon), formatFloat(lat)))
	if err != nil {
		return false
	}
	return geom.Intersects(s.simple, pt)
}

// toSimple converts to a simplefeatures geometry via WKT. Validation is
// skipped so that degenerate upstream footprints (self-intersecting rings)
// still participate in intersects tests; operations that cannot handle them
// surface their own errors.
func toSimple(g *Geometry) (geom.Geometry, error) {
	wkt, err := g.WKT()
	if err != nil {
		return geom.Geometry{}, err
	}
	sg, err := geom.UnmarshalWKT(wkt, geom.NoValidate{})
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("failed to parse WKT: %w", err)
	}
	return sg, nil
}

// fromSimple converts a simplefeatures geometry back via its GeoJSON form.
func fromSimple(sg geom.Geometry) (*Geometry, error) {
	data, err := json.Marshal(sg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal geometry: %w", err)
	}
	var g Geometry
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to decode geometry: %w", err)
	}
	return &g, nil
}
