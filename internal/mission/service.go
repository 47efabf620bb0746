package mission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/geowatch/nextpass/internal/cache"
	"github.com/geowatch/nextpass/internal/cloud"
	"github.com/geowatch/nextpass/internal/config"
	"github.com/geowatch/nextpass/internal/esa"
	"github.com/geowatch/nextpass/internal/kml"
	"github.com/geowatch/nextpass/internal/overpass"
	"github.com/geowatch/nextpass/internal/plan"
	"github.com/geowatch/nextpass/pkg/geo"
)

// ErrUnknownMission is returned for mission names outside the registry.
// It is a programmer-visible failure, surfaced to the caller immediately.
var ErrUnknownMission = errors.New("unsupported mission")

// Result is the answer to one overpass query for one mission.
type Result struct {
	Mission string
	Groups  []overpass.Group
	// Message is set instead of Groups when there is nothing to report,
	// carrying the staleness boundary of the data.
	Message string
	// PlanEnd is the latest end date known to the plan.
	PlanEnd time.Time
}

// Service runs the full pipeline per mission.
type Service struct {
	cfg       *config.Config
	registry  *Registry
	esaClient *esa.Client
	syncer    *cache.Synchronizer
	merger    *plan.Merger
	estimator *cloud.Estimator
	plans     *planCache
	logger    *slog.Logger
}

// NewService assembles the pipeline from configuration.
func NewService(cfg *config.Config, registry *Registry, estimator *cloud.Estimator, logger *slog.Logger) *Service {
	esaClient := esa.NewClient(cfg.ESA.SiteBaseURL, cfg.ESA.Timeout).WithLogger(logger)
	collections := cache.NewFSCollections(cfg.Cache.Dir)

	return &Service{
		cfg:       cfg,
		registry:  registry,
		esaClient: esaClient,
		syncer:    cache.NewSynchronizer(cfg.Cache.Dir, esaClient, logger),
		merger:    plan.NewMerger(collections, kml.ParseFile, logger),
		estimator: estimator,
		plans:     newPlanCache(cfg.Plan.RefreshInterval),
		logger:    logger,
	}
}

// Missions returns the supported mission names.
func (s *Service) Missions() []string {
	return s.registry.Names()
}

// Plan returns the merged acquisition plan for a mission, rebuilding it
// from upstream manifests when the cached copy has expired. An empty
// collection means the mission currently has no usable data; that is not
// an error so that callers handling several missions keep going.
func (s *Service) Plan(ctx context.Context, name string) (*plan.Collection, error) {
	m, err := s.registry.Get(name)
	if err != nil {
		return nil, err
	}

	if col, ok := s.plans.get(m.Name); ok {
		return col, nil
	}

	col := s.buildPlan(ctx, m)
	s.plans.put(m.Name, col)
	return col, nil
}

func (s *Service) buildPlan(ctx context.Context, m Mission) *plan.Collection {
	pageURL := s.cfg.ESA.SiteBaseURL + m.PlanPagePath

	var urls []string
	var platforms []string
	for _, section := range m.Sections {
		sectionURLs, err := s.esaClient.ScrapeDownloadURLs(ctx, pageURL, section.Class)
		if err != nil {
			s.logger.Error("failed to scrape plan section",
				"mission", m.Name, "class", section.Class, "error", err)
			continue
		}
		for _, u := range sectionURLs {
			urls = append(urls, u)
			platforms = append(platforms, section.Platform)
		}
	}

	if len(urls) == 0 {
		s.logger.Warn("no manifest URLs found", "mission", m.Name)
		return &plan.Collection{}
	}

	local, err := s.syncer.Sync(ctx, m.CachePrefix, urls)
	if err != nil {
		s.logger.Error("manifest cache sync failed", "mission", m.Name, "error", err)
		return &plan.Collection{}
	}

	sources := plan.ResolveSources(local, urls, platforms)
	merged := s.merger.Merge(sources, s.cfg.Lookback())

	if merged.IsEmpty() {
		s.logger.Warn("no usable acquisitions after merge", "mission", m.Name)
		return merged
	}

	outPath := filepath.Join(s.cfg.Cache.Dir, m.CachePrefix+"_collection.geojson")
	if err := plan.WriteFile(outPath, merged); err != nil {
		s.logger.Error("failed to write merged plan", "mission", m.Name, "error", err)
	} else {
		s.logger.Info("merged plan saved", "mission", m.Name, "path", outPath,
			"acquisitions", len(merged.Acquisitions))
	}

	return merged
}

// Overpasses answers one AOI query for one mission, optionally estimating
// per-overpass cloudiness.
func (s *Service) Overpasses(ctx context.Context, name string, aoi *geo.AOI, withCloudiness bool) (*Result, error) {
	col, err := s.Plan(ctx, name)
	if err != nil {
		return nil, err
	}

	result := &Result{Mission: name, PlanEnd: col.LatestEnd()}

	if col.IsEmpty() {
		result.Message = "no acquisition plan data available"
		return result, nil
	}

	collects := overpass.FindIntersecting(col, aoi, overpass.Filter{})
	if len(collects) == 0 {
		result.Message = fmt.Sprintf("no scheduled collects before %s",
			col.LatestEnd().Format("2006-01-02"))
		return result, nil
	}

	groups := overpass.GroupByOrbit(collects)

	if withCloudiness {
		s.logger.Info("calculating cloudiness",
			"mission", name, "orbit_groups", len(groups))
		pol := s.policy()
		for i := range groups {
			groups[i].Cloudiness = s.estimateGroup(ctx, &groups[i], aoi, pol)
		}
	}

	result.Groups = groups
	return result, nil
}

// estimateGroup estimates cloudiness for every timestamp of one orbit
// group over the footprint/AOI intersection. Values align positionally
// with the group's sorted timestamps.
func (s *Service) estimateGroup(ctx context.Context, g *overpass.Group, aoi *geo.AOI, pol cloud.Policy) []*float64 {
	inter, err := geo.Intersection(g.Footprint, aoi.Geometry())
	if err != nil {
		s.logger.Warn("cloudiness intersection failed",
			"orbit_relative", g.OrbitRelative, "error", err)
		return make([]*float64, len(g.BeginDates))
	}
	return s.estimator.EstimateSeries(ctx, inter, g.BeginDates, pol)
}

func (s *Service) policy() cloud.Policy {
	return cloud.Policy{
		NearHorizon: s.cfg.Sampling.NearHorizon,
		FarHorizon:  s.cfg.Sampling.FarHorizon,
		NearSamples: s.cfg.Sampling.NearSamples,
		FarSamples:  s.cfg.Sampling.FarSamples,
		Method:      cloud.SampleGrid,
	}
}
