package cloud

import (
	"math"
	"math/rand"

	"github.com/geowatch/nextpass/pkg/geo"
)

// SamplingMethod selects how sample points are placed inside a polygon.
type SamplingMethod int

const (
	// SampleRandom draws uniform points in the bounding box and keeps the
	// ones contained in the polygon.
	SampleRandom SamplingMethod = iota
	// SampleGrid lays out an evenly spaced grid sized from the polygon
	// area; the resulting count approximates the request.
	SampleGrid
)

// randomPoints rejection-samples up to n points inside the shape. It gives
// up after 10*n attempts so a near-zero-area polygon returns fewer points
// instead of looping forever. The package-level rand source is used because
// estimates may run concurrently.
func randomPoints(shape *geo.Shape, n int) []SamplePoint {
	bbox := shape.BBox()
	west, south, east, north := bbox[0], bbox[1], bbox[2], bbox[3]

	points := make([]SamplePoint, 0, n)
	maxAttempts := n * 10
	for attempts := 0; len(points) < n && attempts < maxAttempts; attempts++ {
		lon := west + rand.Float64()*(east-west)
		lat := south + rand.Float64()*(north-south)
		if shape.Contains(lon, lat) {
			points = append(points, SamplePoint{Lat: lat, Lon: lon})
		}
	}
	return points
}

// gridPoints lays out an axis-aligned grid with spacing sqrt(area/n) over
// the bounding box and keeps grid points contained in the shape.
func gridPoints(shape *geo.Shape, n int) []SamplePoint {
	if n <= 0 {
		return nil
	}
	area := shape.Area()
	if area <= 0 {
		return nil
	}
	spacing := math.Sqrt(area / float64(n))
	if spacing <= 0 {
		return nil
	}

	bbox := shape.BBox()
	west, south, east, north := bbox[0], bbox[1], bbox[2], bbox[3]

	var points []SamplePoint
	for lon := west; lon < east; lon += spacing {
		for lat := south; lat < north; lat += spacing {
			if shape.Contains(lon, lat) {
				points = append(points, SamplePoint{Lat: lat, Lon: lon})
			}
		}
	}
	return points
}
