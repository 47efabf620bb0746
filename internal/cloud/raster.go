package cloud

import "context"

// MaskResult is what the raster cloud-mask collaborator reports for one
// downloaded scene: the cloud-affected share of valid pixels and the valid
// area in square kilometers.
type MaskResult struct {
	CloudPercent float64
	AreaKm2      float64
}

// MaskFunc computes a cloud-mask percentage from a downloadable raster URL.
// It returns (nil, nil) when the raster is unavailable. The computation
// itself lives outside this service; the type only fixes the boundary.
type MaskFunc func(ctx context.Context, rasterURL string) (*MaskResult, error)
