// Package mission wires the per-mission pipeline: scraping the plan pages,
// synchronizing the manifest cache, merging collections, and answering
// overpass queries.
package mission

import (
	"fmt"
	"sort"
	"strings"
)

// Section is one scrape target on a mission's acquisition-plan page: a
// CSS class scoping the download links and the platform label attached to
// every acquisition from those links.
type Section struct {
	Class    string
	Platform string
}

// Mission describes one supported satellite mission.
type Mission struct {
	// Name is the public mission identifier, e.g. "sentinel-1".
	Name string
	// CachePrefix prefixes local manifest file names, e.g. "sentinel1".
	CachePrefix string
	// PlanPagePath is the acquisition-plans page, relative to the site base.
	PlanPagePath string
	// Sections are scraped in order; their platform labels ride along.
	Sections []Section
}

// Registry maps mission names to their definitions.
type Registry struct {
	missions map[string]Mission
}

// DefaultRegistry returns the built-in mission set.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Mission{
			Name:         "sentinel-1",
			CachePrefix:  "sentinel1",
			PlanPagePath: "/web/sentinel/copernicus/sentinel-1/acquisition-plans",
			Sections: []Section{
				{Class: "sentinel-1a", Platform: "S1A"},
				{Class: "sentinel-1c", Platform: "S1C"},
			},
		},
		Mission{
			Name:         "sentinel-2",
			CachePrefix:  "sentinel2",
			PlanPagePath: "/web/sentinel/copernicus/sentinel-2/acquisition-plans",
			Sections: []Section{
				{Class: "sentinel-2a"},
				{Class: "sentinel-2b"},
			},
		},
	)
}

// NewRegistry builds a registry from mission definitions.
func NewRegistry(missions ...Mission) *Registry {
	r := &Registry{missions: make(map[string]Mission, len(missions))}
	for _, m := range missions {
		r.missions[m.Name] = m
	}
	return r
}

// Get returns the mission definition for name.
func (r *Registry) Get(name string) (Mission, error) {
	m, ok := r.missions[strings.ToLower(name)]
	if !ok {
		return Mission{}, fmt.Errorf("%w: %s", ErrUnknownMission, name)
	}
	return m, nil
}

// Names returns the registered mission names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.missions))
	for name := range r.missions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
