package overpass

import (
	"sort"
	"time"

	"github.com/geowatch/nextpass/pkg/geo"
)

// Group is the acquisitions sharing (orbit_relative, platform), collapsed
// to one representative footprint and a sorted timestamp list. Footprints
// repeat across a fixed relative orbit, so the group carries the first
// intersection percentage encountered. Cloudiness, when computed, aligns
// positionally with BeginDates.
type Group struct {
	OrbitRelative   int
	Platform        string
	Footprint       *geo.Geometry
	BeginDates      []time.Time
	IntersectionPct float64
	Cloudiness      []*float64
}

// GroupByOrbit collapses collects into orbit groups. Input order (the
// post-sort order from FindIntersecting) decides which footprint becomes
// the representative: the first WKT-unique geometry seen in the group.
// Acquisitions with the same footprint and orbit but different platform
// labels land in separate groups. Groups come back sorted by intersection
// percentage descending.
func GroupByOrbit(collects []Collect) []Group {
	type key struct {
		orbit    int
		platform string
	}

	byKey := make(map[key]*Group)
	seenWKT := make(map[key]map[string]struct{})
	var order []key

	for _, c := range collects {
		k := key{orbit: c.OrbitRelative, platform: c.Platform}
		g, ok := byKey[k]
		if !ok {
			g = &Group{
				OrbitRelative:   c.OrbitRelative,
				Platform:        c.Platform,
				IntersectionPct: c.IntersectionPct,
			}
			byKey[k] = g
			seenWKT[k] = make(map[string]struct{})
			order = append(order, k)
		}

		g.BeginDates = append(g.BeginDates, c.BeginDate)

		wkt, err := c.Footprint.WKT()
		if err != nil {
			continue
		}
		if _, dup := seenWKT[k][wkt]; !dup {
			seenWKT[k][wkt] = struct{}{}
			if g.Footprint == nil {
				g.Footprint = c.Footprint
			}
		}
	}

	groups := make([]Group, 0, len(order))
	for _, k := range order {
		g := byKey[k]
		sort.Slice(g.BeginDates, func(i, j int) bool {
			return g.BeginDates[i].Before(g.BeginDates[j])
		})
		groups = append(groups, *g)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].IntersectionPct > groups[j].IntersectionPct
	})

	return groups
}
