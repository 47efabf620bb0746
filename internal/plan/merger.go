package plan

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ParseFunc converts one downloaded manifest file into a collection.
// A failure for one file must not abort processing of other files; the
// merger logs and skips.
type ParseFunc func(path string) (*Collection, error)

// Source is one local manifest file together with its resolved platform
// label (may be empty when no label is known).
type Source struct {
	Path     string
	Platform string
}

// Merger loads per-source collections, reusing previously parsed results
// from a cache, and merges them into one deduplicated, time-filtered,
// time-sorted collection.
type Merger struct {
	cache  CollectionCache
	parse  ParseFunc
	logger *slog.Logger
	now    func() time.Time
}

// NewMerger creates a merger. The cache is keyed by source file stem.
func NewMerger(cache CollectionCache, parse ParseFunc, logger *slog.Logger) *Merger {
	return &Merger{
		cache:  cache,
		parse:  parse,
		logger: logger,
		now:    time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (m *Merger) WithNow(now func() time.Time) *Merger {
	m.now = now
	return m
}

// Merge parses or loads every source, attaches platform labels, then
// concatenates, deduplicates, restricts to begin_date >= now-lookback and
// sorts ascending by begin date. Sources that fail to parse degrade to
// warnings; if nothing usable remains the returned collection is empty and
// the caller must treat the mission as unavailable.
func (m *Merger) Merge(sources []Source, lookback time.Duration) *Collection {
	merged := &Collection{}

	for _, src := range sources {
		key := stem(src.Path)

		col, ok := m.cache.Get(key)
		if ok {
			m.logger.Info("using cached collection", "source", src.Path)
		} else {
			m.logger.Info("parsing new manifest", "source", src.Path)
			parsed, err := m.parse(src.Path)
			if err != nil {
				m.logger.Error("failed to parse manifest", "source", src.Path, "error", err)
				continue
			}
			if parsed.IsEmpty() {
				m.logger.Warn("no valid data in manifest", "source", src.Path)
				continue
			}
			if err := m.cache.Put(key, parsed); err != nil {
				m.logger.Error("failed to cache collection", "source", src.Path, "error", err)
			}
			col = parsed
		}

		for _, a := range col.Acquisitions {
			a.Platform = src.Platform
			merged.Acquisitions = append(merged.Acquisitions, a)
		}
	}

	cutoff := m.now().UTC().Add(-lookback)
	merged.Acquisitions = dedupe(merged.Acquisitions)

	kept := merged.Acquisitions[:0]
	for _, a := range merged.Acquisitions {
		a.BeginDate = a.BeginDate.UTC()
		a.EndDate = a.EndDate.UTC()
		if a.BeginDate.Before(cutoff) {
			continue
		}
		kept = append(kept, a)
	}
	merged.Acquisitions = kept

	sort.SliceStable(merged.Acquisitions, func(i, j int) bool {
		return merged.Acquisitions[i].BeginDate.Before(merged.Acquisitions[j].BeginDate)
	})

	return merged
}

// dedupe drops exact duplicates of (begin_date, orbit_relative, footprint).
func dedupe(acqs []Acquisition) []Acquisition {
	seen := make(map[string]struct{}, len(acqs))
	out := acqs[:0]
	for _, a := range acqs {
		wkt := ""
		if a.Footprint != nil {
			if w, err := a.Footprint.WKT(); err == nil {
				wkt = w
			}
		}
		key := strconv.FormatInt(a.BeginDate.UTC().UnixNano(), 10) +
			"|" + strconv.Itoa(a.OrbitRelative) + "|" + wkt
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, a)
	}
	return out
}

// ResolveSources pairs local manifest paths with platform labels. Platform
// labels arrive positionally aligned with the remote URL list; local file
// names carry a mission prefix, so resolution tries, in order: exact stem
// match, suffix after the first underscore, then substring containment.
func ResolveSources(paths, urls, platforms []string) []Source {
	byName := make(map[string]string, len(platforms))
	keys := make([]string, 0, len(platforms))
	for i, u := range urls {
		if i >= len(platforms) || platforms[i] == "" {
			continue
		}
		k := strings.ToLower(stem(u))
		if _, dup := byName[k]; !dup {
			keys = append(keys, k)
		}
		byName[k] = platforms[i]
	}

	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, Source{
			Path:     p,
			Platform: resolvePlatform(strings.ToLower(stem(p)), byName, keys),
		})
	}
	return sources
}

func resolvePlatform(stem string, byName map[string]string, keys []string) string {
	if len(byName) == 0 {
		return ""
	}
	if p, ok := byName[stem]; ok {
		return p
	}
	if i := strings.Index(stem, "_"); i >= 0 {
		if p, ok := byName[stem[i+1:]]; ok {
			return p
		}
	}
	// Last resort: containment, in the order the URL list supplied the keys.
	for _, k := range keys {
		if strings.Contains(stem, k) {
			return byName[k]
		}
	}
	return ""
}

// stem returns the file name without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
