package cloud

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/geowatch/nextpass/pkg/geo"
)

// EstimatorConfig bounds the estimator's concurrency and request shape.
type EstimatorConfig struct {
	// Workers is the size of the batch-dispatch pool.
	Workers int
	// BatchSize is the number of points per provider request.
	BatchSize int
	// RatePerSec caps dispatches per second across all workers.
	RatePerSec float64
}

// DefaultEstimatorConfig matches the provider's published limits.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{Workers: 4, BatchSize: 20, RatePerSec: 3}
}

// Estimator turns a polygon and a target time into a single average
// cloud-cover percentage by sampling points and querying the weather
// provider concurrently. The limiter and breaker are shared across all
// estimates in the process.
type Estimator struct {
	client  *Client
	breaker *Breaker
	limiter *rate.Limiter
	cfg     EstimatorConfig
	logger  *slog.Logger
}

// NewEstimator creates an estimator around a weather client and a shared
// circuit breaker.
func NewEstimator(client *Client, breaker *Breaker, cfg EstimatorConfig, logger *slog.Logger) *Estimator {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 3
	}
	return &Estimator{
		client:  client,
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		cfg:     cfg,
		logger:  logger,
	}
}

// Estimate returns the average cloud cover over the polygon at target, or
// nil when no sample could be resolved: empty polygon, an already-open
// breaker, or every batch degrading to unavailable.
func (e *Estimator) Estimate(ctx context.Context, polygon *geo.Geometry, target time.Time, samples int, method SamplingMethod, allowNearest bool) *float64 {
	if e.breaker.Open() {
		e.logger.Warn("weather API limit already reached, skipping estimate")
		return nil
	}

	points := e.samplePoints(polygon, samples, method)
	if len(points) == 0 {
		return nil
	}

	results := make([]*float64, len(points))

	var g errgroup.Group
	g.SetLimit(e.cfg.Workers)

	for start := 0; start < len(points); start += e.cfg.BatchSize {
		if e.breaker.Open() {
			break
		}
		end := start + e.cfg.BatchSize
		if end > len(points) {
			end = len(points)
		}
		batch := points[start:end]
		offset := start

		g.Go(func() error {
			if e.breaker.Open() {
				return nil
			}
			if err := e.limiter.Wait(ctx); err != nil {
				return nil
			}
			vals, err := e.client.CloudCover(ctx, batch, target, allowNearest)
			if err != nil {
				if errors.Is(err, ErrRateLimited) {
					e.breaker.Trip()
					e.logger.Warn("weather API limit reached, stopping further requests")
				} else {
					e.logger.Error("cloudiness batch failed", "error", err)
				}
				return nil
			}
			// Results stay positionally aligned with the sampled points.
			copy(results[offset:offset+len(batch)], vals)
			return nil
		})
	}

	_ = g.Wait()

	var sum float64
	var count int
	for _, v := range results {
		if v == nil {
			continue
		}
		sum += *v
		count++
	}
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}

// samplePoints places sample points inside the polygon. A point geometry
// (a point AOI clipped against a footprint) degrades to a single sample at
// that position.
func (e *Estimator) samplePoints(polygon *geo.Geometry, samples int, method SamplingMethod) []SamplePoint {
	if polygon == nil {
		return nil
	}
	if polygon.IsPoint() {
		coords, err := polygon.Point()
		if err != nil {
			return nil
		}
		return []SamplePoint{{Lat: coords[1], Lon: coords[0]}}
	}

	shape, err := geo.NewShape(polygon)
	if err != nil {
		e.logger.Error("failed to prepare sampling shape", "error", err)
		return nil
	}

	switch method {
	case SampleGrid:
		return gridPoints(shape, samples)
	default:
		return randomPoints(shape, samples)
	}
}
