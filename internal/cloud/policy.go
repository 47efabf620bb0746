package cloud

import (
	"context"
	"time"

	"github.com/geowatch/nextpass/pkg/geo"
)

// Policy sets how many samples an overpass gets based on how soon it is,
// and where estimation stops entirely.
type Policy struct {
	// NearHorizon bounds the window that gets NearSamples points.
	NearHorizon time.Duration
	// FarHorizon is the supported prediction horizon; overpasses beyond it
	// are not estimated at all.
	FarHorizon time.Duration
	// NearSamples is the sample count for overpasses within NearHorizon.
	NearSamples int
	// FarSamples is the sample count for everything else within FarHorizon.
	FarSamples int
	// Method selects the sampling strategy.
	Method SamplingMethod
	// Now is the clock; defaults to time.Now when nil.
	Now func() time.Time
}

// DefaultPolicy mirrors the operational defaults: dense sampling inside
// four days, sparse out to fourteen, nothing beyond.
func DefaultPolicy() Policy {
	return Policy{
		NearHorizon: 4 * 24 * time.Hour,
		FarHorizon:  14 * 24 * time.Hour,
		NearSamples: 210,
		FarSamples:  60,
		Method:      SampleGrid,
	}
}

// EstimateSeries estimates cloud cover over the polygon for each timestamp,
// returning one value (or nil for unavailable) per timestamp in input
// order. Timestamps beyond the policy's far horizon are not attempted.
func (e *Estimator) EstimateSeries(ctx context.Context, polygon *geo.Geometry, times []time.Time, pol Policy) []*float64 {
	now := time.Now
	if pol.Now != nil {
		now = pol.Now
	}

	results := make([]*float64, len(times))
	if polygon == nil {
		return results
	}

	for i, ts := range times {
		current := now().UTC()
		if ts.After(current.Add(pol.FarHorizon)) {
			continue
		}

		samples := pol.FarSamples
		if !ts.Before(current) && !ts.After(current.Add(pol.NearHorizon)) {
			samples = pol.NearSamples
		}

		results[i] = e.Estimate(ctx, polygon, ts, samples, pol.Method, true)
	}
	return results
}
