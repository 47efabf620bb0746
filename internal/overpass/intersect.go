// Package overpass finds the acquisitions whose footprints cover an area
// of interest and collapses them into per-orbit groups.
package overpass

import (
	"sort"
	"time"

	"github.com/geowatch/nextpass/internal/plan"
	"github.com/geowatch/nextpass/pkg/geo"
)

// Collect is an acquisition annotated with the share of the AOI its
// footprint covers. Derived per query, never cached.
type Collect struct {
	plan.Acquisition
	IntersectionPct float64
}

// Filter narrows the candidate acquisitions before intersection.
type Filter struct {
	// Mode keeps only acquisitions with this sensor mode when non-empty.
	Mode string
	// OrbitRelative keeps only this relative orbit when non-nil.
	OrbitRelative *int
}

// FindIntersecting returns the collects whose footprints intersect the AOI,
// annotated with intersection percentage, deduplicated on
// (begin_date, orbit_relative), and sorted by intersection percentage
// descending then begin date ascending. Footprints whose geometry cannot
// be evaluated are excluded rather than failing the query.
func FindIntersecting(col *plan.Collection, aoi *geo.AOI, filter Filter) []Collect {
	if col == nil {
		return nil
	}

	var collects []Collect
	for _, a := range col.Acquisitions {
		if filter.Mode != "" && a.Mode != filter.Mode {
			continue
		}
		if filter.OrbitRelative != nil && a.OrbitRelative != *filter.OrbitRelative {
			continue
		}
		if a.Footprint == nil {
			continue
		}

		pct, hit, err := geo.OverlapPercent(a.Footprint, aoi)
		if err != nil || !hit {
			continue
		}
		collects = append(collects, Collect{Acquisition: a, IntersectionPct: pct})
	}

	collects = dedupeByBeginOrbit(collects)

	sort.SliceStable(collects, func(i, j int) bool {
		if collects[i].IntersectionPct != collects[j].IntersectionPct {
			return collects[i].IntersectionPct > collects[j].IntersectionPct
		}
		return collects[i].BeginDate.Before(collects[j].BeginDate)
	})

	return collects
}

func dedupeByBeginOrbit(collects []Collect) []Collect {
	type key struct {
		begin time.Time
		orbit int
	}
	seen := make(map[key]struct{}, len(collects))
	out := collects[:0]
	for _, c := range collects {
		k := key{begin: c.BeginDate.UTC(), orbit: c.OrbitRelative}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}
