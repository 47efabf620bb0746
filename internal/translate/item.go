// Package translate converts acquisition-plan records into STAC items for
// the plan endpoint.
package translate

import (
	"fmt"
	"strings"

	"github.com/planetlabs/go-stac"

	"github.com/geowatch/nextpass/internal/plan"
)

// stacVersion is the STAC spec version stamped on emitted items.
const stacVersion = "1.0.0"

// PlanToItems converts a merged acquisition plan into STAC items under the
// mission's collection ID. Planned acquisitions have no assets yet; the
// items carry geometry, timing and orbit properties only.
func PlanToItems(mission string, col *plan.Collection) []*stac.Item {
	if col == nil {
		return nil
	}

	items := make([]*stac.Item, 0, len(col.Acquisitions))
	for i, a := range col.Acquisitions {
		items = append(items, acquisitionToItem(mission, i, a))
	}
	return items
}

func acquisitionToItem(mission string, idx int, a plan.Acquisition) *stac.Item {
	item := &stac.Item{
		Version:    stacVersion,
		Id:         itemID(mission, idx, a),
		Collection: mission + "-acquisition-plan",
		Properties: make(map[string]any),
		Assets:     make(map[string]*stac.Asset),
		Links:      make([]*stac.Link, 0),
	}

	if a.Footprint != nil {
		item.Geometry = a.Footprint
		if bbox, err := a.Footprint.BBox(); err == nil {
			item.Bbox = bbox
		}
	}

	// Planned acquisitions are time ranges, so datetime is null and the
	// range lives in start/end per the STAC common metadata rules.
	item.Properties["datetime"] = nil
	item.Properties["start_datetime"] = a.BeginDate
	item.Properties["end_datetime"] = a.EndDate

	if a.Platform != "" {
		item.Properties["platform"] = strings.ToLower(a.Platform)
	}
	item.Properties["constellation"] = mission

	if a.Mode != "" {
		item.Properties["sar:instrument_mode"] = a.Mode
	}
	item.Properties["sat:absolute_orbit"] = a.OrbitAbsolute
	item.Properties["sat:relative_orbit"] = a.OrbitRelative

	return item
}

func itemID(mission string, idx int, a plan.Acquisition) string {
	platform := a.Platform
	if platform == "" {
		platform = mission
	}
	return fmt.Sprintf("%s-%d-%s-%d",
		strings.ToLower(platform),
		a.OrbitAbsolute,
		a.BeginDate.UTC().Format("20060102T150405"),
		idx,
	)
}
