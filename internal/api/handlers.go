package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/planetlabs/go-stac"

	"github.com/geowatch/nextpass/internal/mission"
	"github.com/geowatch/nextpass/internal/plan"
	"github.com/geowatch/nextpass/internal/translate"
	"github.com/geowatch/nextpass/pkg/geo"
)

// OverpassService is the mission pipeline the handlers query.
type OverpassService interface {
	Missions() []string
	Plan(ctx context.Context, name string) (*plan.Collection, error)
	Overpasses(ctx context.Context, name string, aoi *geo.AOI, withCloudiness bool) (*mission.Result, error)
}

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	svc    OverpassService
	logger *slog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(svc OverpassService, logger *slog.Logger) *Handlers {
	return &Handlers{svc: svc, logger: logger}
}

// Health responds to liveness probes.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// groupResponse is one orbit group in an overpass response.
type groupResponse struct {
	Platform        string        `json:"platform,omitempty"`
	OrbitRelative   int           `json:"orbit_relative"`
	BeginDates      []time.Time   `json:"begin_dates"`
	IntersectionPct float64       `json:"intersection_pct"`
	Cloudiness      []*float64    `json:"cloudiness,omitempty"`
	Footprint       *geo.Geometry `json:"footprint,omitempty"`
}

// missionResponse is one mission's answer in an overpass response.
type missionResponse struct {
	Mission     string          `json:"mission"`
	OrbitGroups []groupResponse `json:"orbit_groups"`
	Message     string          `json:"message,omitempty"`
	PlanEnd     *time.Time      `json:"plan_end,omitempty"`
}

type overpassResponse struct {
	AOI      *geo.Geometry     `json:"aoi"`
	Missions []missionResponse `json:"missions"`
}

// Overpasses answers an AOI query across one or all missions.
// GET /overpasses?bbox=lat,lon | bbox=lat_min,lat_max,lon_min,lon_max
//
//	&mission=<name|all>&cloudiness=<bool>
func (h *Handlers) Overpasses(w http.ResponseWriter, r *http.Request) {
	aoi, err := parseBBoxParam(r.URL.Query().Get("bbox"))
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	withCloudiness := false
	if v := r.URL.Query().Get("cloudiness"); v != "" {
		withCloudiness, err = strconv.ParseBool(v)
		if err != nil {
			WriteError(w, http.StatusBadRequest, ErrCodeInvalidParameter,
				"cloudiness must be a boolean")
			return
		}
	}

	missions := h.svc.Missions()
	if name := r.URL.Query().Get("mission"); name != "" && name != "all" {
		missions = []string{name}
	}

	results := make([]*mission.Result, len(missions))
	errs := make([]error, len(missions))

	// Missions are independent; a failure in one must not lose the others.
	var wg sync.WaitGroup
	for i, name := range missions {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i], errs[i] = h.svc.Overpasses(r.Context(), name, aoi, withCloudiness)
		}(i, name)
	}
	wg.Wait()

	resp := overpassResponse{AOI: aoi.Geometry()}
	for i := range missions {
		if errs[i] != nil {
			if errors.Is(errs[i], mission.ErrUnknownMission) {
				WriteError(w, http.StatusBadRequest, ErrCodeInvalidParameter, errs[i].Error())
				return
			}
			h.logger.Error("overpass query failed",
				"mission", missions[i], "error", errs[i])
			resp.Missions = append(resp.Missions, missionResponse{
				Mission: missions[i],
				Message: "mission data unavailable",
			})
			continue
		}
		resp.Missions = append(resp.Missions, toMissionResponse(results[i]))
	}

	WriteJSON(w, http.StatusOK, resp)
}

func toMissionResponse(res *mission.Result) missionResponse {
	out := missionResponse{
		Mission:     res.Mission,
		OrbitGroups: make([]groupResponse, 0, len(res.Groups)),
		Message:     res.Message,
	}
	if !res.PlanEnd.IsZero() {
		end := res.PlanEnd
		out.PlanEnd = &end
	}
	for _, g := range res.Groups {
		out.OrbitGroups = append(out.OrbitGroups, groupResponse{
			Platform:        g.Platform,
			OrbitRelative:   g.OrbitRelative,
			BeginDates:      g.BeginDates,
			IntersectionPct: g.IntersectionPct,
			Cloudiness:      g.Cloudiness,
			Footprint:       g.Footprint,
		})
	}
	return out
}

// PlanItems exposes a mission's merged acquisition plan as a STAC
// ItemCollection.
// GET /missions/{mission}/plan/items
func (h *Handlers) PlanItems(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "mission")

	col, err := h.svc.Plan(r.Context(), name)
	if err != nil {
		if errors.Is(err, mission.ErrUnknownMission) {
			WriteNotFound(w, err.Error())
			return
		}
		h.logger.Error("failed to load plan", "mission", name, "error", err)
		WriteError(w, http.StatusBadGateway, ErrCodeUpstreamError, "failed to load acquisition plan")
		return
	}

	items := translate.PlanToItems(name, col)
	WriteGeoJSON(w, http.StatusOK, struct {
		Type     string       `json:"type"`
		Features []*stac.Item `json:"features"`
	}{
		Type:     "FeatureCollection",
		Features: items,
	})
}

// parseBBoxParam parses the bbox query parameter: two floats make a point
// AOI (lat, lon), four make a box (lat_min, lat_max, lon_min, lon_max).
func parseBBoxParam(raw string) (*geo.AOI, error) {
	if raw == "" {
		return nil, errors.New("bbox parameter is required")
	}

	parts := strings.Split(raw, ",")
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.New("bbox values must be numbers")
		}
		values = append(values, v)
	}

	switch len(values) {
	case 2:
		return geo.PointAOI(values[0], values[1])
	case 4:
		return geo.BoxAOI(values[0], values[1], values[2], values[3])
	default:
		return nil, errors.New("bbox must have 2 values (lat,lon) or 4 values (lat_min,lat_max,lon_min,lon_max)")
	}
}
