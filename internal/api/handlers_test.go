package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/geowatch/nextpass/internal/mission"
	"github.com/geowatch/nextpass/internal/overpass"
	"github.com/geowatch/nextpass/internal/plan"
	"github.com/geowatch/nextpass/pkg/geo"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

type fakeService struct {
	missions   []string
	plans      map[string]*plan.Collection
	results    map[string]*mission.Result
	errs       map[string]error
	lastAOI    *geo.AOI
	cloudiness bool
}

func (f *fakeService) Missions() []string { return f.missions }

func (f *fakeService) Plan(_ context.Context, name string) (*plan.Collection, error) {
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	col, ok := f.plans[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", mission.ErrUnknownMission, name)
	}
	return col, nil
}

func (f *fakeService) Overpasses(_ context.Context, name string, aoi *geo.AOI, withCloudiness bool) (*mission.Result, error) {
	f.lastAOI = aoi
	f.cloudiness = withCloudiness
	if err, ok := f.errs[name]; ok {
		return nil, err
	}
	res, ok := f.results[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", mission.ErrUnknownMission, name)
	}
	return res, nil
}

func testGroup(t *testing.T) overpass.Group {
	t.Helper()
	fp, err := geo.NewPolygonFromBBox([]float64{10, 45, 12, 47})
	if err != nil {
		t.Fatalf("NewPolygonFromBBox() error = %v", err)
	}
	return overpass.Group{
		OrbitRelative:   64,
		Platform:        "S1A",
		Footprint:       fp,
		BeginDates:      []time.Time{time.Date(2026, 8, 21, 5, 30, 0, 0, time.UTC)},
		IntersectionPct: 100,
	}
}

func doRequest(t *testing.T, h *Handlers, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(h, quietLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	h := NewHandlers(&fakeService{}, quietLogger())
	rec := doRequest(t, h, "/health")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestOverpassesPoint(t *testing.T) {
	svc := &fakeService{
		missions: []string{"sentinel-1"},
		results: map[string]*mission.Result{
			"sentinel-1": {Mission: "sentinel-1", Groups: []overpass.Group{testGroup(t)}},
		},
	}
	h := NewHandlers(svc, quietLogger())

	rec := doRequest(t, h, "/overpasses?bbox=46,11")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}

	if svc.lastAOI == nil || !svc.lastAOI.IsPoint() {
		t.Fatal("two bbox values should query a point AOI")
	}
	coords, err := svc.lastAOI.Geometry().Point()
	if err != nil {
		t.Fatalf("Point() error = %v", err)
	}
	if coords[0] != 11 || coords[1] != 46 {
		t.Errorf("AOI = %v, want lon 11 lat 46", coords)
	}

	var resp struct {
		AOI      *geo.Geometry `json:"aoi"`
		Missions []struct {
			Mission     string `json:"mission"`
			OrbitGroups []struct {
				OrbitRelative   int     `json:"orbit_relative"`
				Platform        string  `json:"platform"`
				IntersectionPct float64 `json:"intersection_pct"`
			} `json:"orbit_groups"`
		} `json:"missions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(resp.Missions) != 1 || resp.Missions[0].Mission != "sentinel-1" {
		t.Fatalf("missions = %+v", resp.Missions)
	}
	g := resp.Missions[0].OrbitGroups[0]
	if g.OrbitRelative != 64 || g.Platform != "S1A" || g.IntersectionPct != 100 {
		t.Errorf("group = %+v", g)
	}
}

func TestOverpassesBox(t *testing.T) {
	svc := &fakeService{
		missions: []string{"sentinel-1"},
		results: map[string]*mission.Result{
			"sentinel-1": {Mission: "sentinel-1"},
		},
	}
	h := NewHandlers(svc, quietLogger())

	// Box order is lat_min, lat_max, lon_min, lon_max.
	rec := doRequest(t, h, "/overpasses?bbox=45,47,10,12")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if svc.lastAOI == nil || svc.lastAOI.IsPoint() {
		t.Fatal("four bbox values should query an areal AOI")
	}
	bbox, err := svc.lastAOI.Geometry().BBox()
	if err != nil {
		t.Fatalf("BBox() error = %v", err)
	}
	want := []float64{10, 45, 12, 47}
	for i := range want {
		if bbox[i] != want[i] {
			t.Errorf("AOI bbox = %v, want %v", bbox, want)
			break
		}
	}
}

func TestOverpassesBadBBox(t *testing.T) {
	h := NewHandlers(&fakeService{missions: []string{"sentinel-1"}}, quietLogger())

	tests := []string{
		"/overpasses",
		"/overpasses?bbox=1",
		"/overpasses?bbox=1,2,3",
		"/overpasses?bbox=a,b",
		"/overpasses?bbox=91,0",
	}
	for _, target := range tests {
		if rec := doRequest(t, h, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestOverpassesBadCloudiness(t *testing.T) {
	h := NewHandlers(&fakeService{missions: []string{"sentinel-1"}}, quietLogger())
	if rec := doRequest(t, h, "/overpasses?bbox=46,11&cloudiness=maybe"); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestOverpassesCloudinessFlag(t *testing.T) {
	svc := &fakeService{
		missions: []string{"sentinel-1"},
		results:  map[string]*mission.Result{"sentinel-1": {Mission: "sentinel-1"}},
	}
	h := NewHandlers(svc, quietLogger())

	doRequest(t, h, "/overpasses?bbox=46,11&cloudiness=true")
	if !svc.cloudiness {
		t.Error("cloudiness=true not forwarded to the service")
	}
}

func TestOverpassesUnknownMission(t *testing.T) {
	svc := &fakeService{missions: []string{"sentinel-1"}}
	h := NewHandlers(svc, quietLogger())

	rec := doRequest(t, h, "/overpasses?bbox=46,11&mission=landsat-8")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var apiErr APIError
	if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if apiErr.Code != ErrCodeInvalidParameter {
		t.Errorf("error code = %q, want %q", apiErr.Code, ErrCodeInvalidParameter)
	}
}

func TestOverpassesPartialFailure(t *testing.T) {
	svc := &fakeService{
		missions: []string{"sentinel-1", "sentinel-2"},
		results: map[string]*mission.Result{
			"sentinel-1": {Mission: "sentinel-1", Groups: []overpass.Group{testGroup(t)}},
		},
		errs: map[string]error{"sentinel-2": fmt.Errorf("upstream down")},
	}
	h := NewHandlers(svc, quietLogger())

	rec := doRequest(t, h, "/overpasses?bbox=46,11")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite one mission failing", rec.Code)
	}

	var resp struct {
		Missions []struct {
			Mission string `json:"mission"`
			Message string `json:"message"`
		} `json:"missions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(resp.Missions) != 2 {
		t.Fatalf("missions = %+v, want both entries", resp.Missions)
	}
	for _, m := range resp.Missions {
		if m.Mission == "sentinel-2" && m.Message != "mission data unavailable" {
			t.Errorf("failed mission message = %q", m.Message)
		}
	}
}

func TestPlanItems(t *testing.T) {
	fp, err := geo.NewPolygonFromBBox([]float64{10, 45, 12, 47})
	if err != nil {
		t.Fatalf("NewPolygonFromBBox() error = %v", err)
	}
	svc := &fakeService{
		missions: []string{"sentinel-1"},
		plans: map[string]*plan.Collection{
			"sentinel-1": {Acquisitions: []plan.Acquisition{{
				BeginDate:     time.Date(2026, 8, 21, 5, 30, 0, 0, time.UTC),
				EndDate:       time.Date(2026, 8, 21, 5, 31, 0, 0, time.UTC),
				Mode:          "IW",
				OrbitAbsolute: 51234,
				OrbitRelative: 64,
				Platform:      "S1A",
				Footprint:     fp,
			}}},
		},
	}
	h := NewHandlers(svc, quietLogger())

	rec := doRequest(t, h, "/missions/sentinel-1/plan/items")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("Content-Type = %q, want application/geo+json", ct)
	}

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Id         string         `json:"id"`
			Collection string         `json:"collection"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &fc); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if fc.Type != "FeatureCollection" || len(fc.Features) != 1 {
		t.Fatalf("body = %s", rec.Body)
	}
	f := fc.Features[0]
	if f.Collection != "sentinel-1-acquisition-plan" {
		t.Errorf("collection = %q", f.Collection)
	}
	if f.Properties["platform"] != "s1a" {
		t.Errorf("platform = %v, want s1a", f.Properties["platform"])
	}
}

func TestPlanItemsUnknownMission(t *testing.T) {
	h := NewHandlers(&fakeService{}, quietLogger())
	if rec := doRequest(t, h, "/missions/landsat-8/plan/items"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPlanItemsUpstreamFailure(t *testing.T) {
	svc := &fakeService{
		errs: map[string]error{"sentinel-1": fmt.Errorf("scrape failed")},
	}
	h := NewHandlers(svc, quietLogger())
	if rec := doRequest(t, h, "/missions/sentinel-1/plan/items"); rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestRouterNotFound(t *testing.T) {
	h := NewHandlers(&fakeService{}, quietLogger())
	if rec := doRequest(t, h, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRequestIDHeaderSet(t *testing.T) {
	h := NewHandlers(&fakeService{}, quietLogger())
	rec := doRequest(t, h, "/health")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("response missing X-Request-ID header")
	}
}
