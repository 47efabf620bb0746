package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrRateLimited signals that the weather provider reported quota
// exhaustion. Callers escalate it to the circuit breaker instead of
// retrying.
var ErrRateLimited = errors.New("weather API rate limited")

// hourLayout is the hour format used in provider time series.
const hourLayout = "2006-01-02T15:04"

// SamplePoint is one lat/lon position to query.
type SamplePoint struct {
	Lat float64
	Lon float64
}

// Client queries the weather provider's forecast and historical archive
// endpoints for hourly cloud-cover series at batches of points.
type Client struct {
	forecastURL string
	archiveURL  string
	httpClient  *http.Client
	now         func() time.Time
	logger      *slog.Logger
}

// NewClient creates a weather client.
func NewClient(forecastURL, archiveURL string, timeout time.Duration) *Client {
	return &Client{
		forecastURL: forecastURL,
		archiveURL:  archiveURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        8,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		now:    time.Now,
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// WithNow overrides the clock used for forecast/archive routing, for tests.
func (c *Client) WithNow(now func() time.Time) *Client {
	c.now = now
	return c
}

// CloudCover returns one cloud-cover percentage (or nil for unavailable)
// per requested point, positionally aligned with points. Targets strictly
// in the future route to the forecast endpoint, everything else to the
// archive. Returns ErrRateLimited when the provider signals quota
// exhaustion.
func (c *Client) CloudCover(ctx context.Context, points []SamplePoint, target time.Time, allowNearest bool) ([]*float64, error) {
	if len(points) == 0 {
		return nil, nil
	}

	endpoint := c.archiveURL
	future := target.After(c.now())
	if future {
		endpoint = c.forecastURL
	}

	reqURL, err := c.buildQueryURL(endpoint, points, target, !future)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "nextpass/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		body, _ := io.ReadAll(resp.Body)
		c.logger.WarnContext(ctx, "weather API quota exceeded",
			slog.String("reason", rateLimitReason(body)),
		)
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("weather API returned status %d: %s", resp.StatusCode, string(body))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read weather response: %w", err)
	}

	series, err := decodeSeries(raw)
	if err != nil {
		return nil, err
	}

	return resolveSeries(series, len(points), target, allowNearest), nil
}

// hourlySeries is one point's hourly time series.
type hourlySeries struct {
	Time       []string  `json:"time"`
	CloudCover []float64 `json:"cloudcover"`
}

type pointResponse struct {
	Hourly hourlySeries `json:"hourly"`
}

// decodeSeries handles both response shapes: an array of per-point objects
// for multi-point queries and a single object for one point.
func decodeSeries(raw []byte) ([]hourlySeries, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var many []pointResponse
		if err := json.Unmarshal(raw, &many); err != nil {
			return nil, fmt.Errorf("failed to decode weather response: %w", err)
		}
		out := make([]hourlySeries, len(many))
		for i, p := range many {
			out[i] = p.Hourly
		}
		return out, nil
	}

	var one pointResponse
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	return []hourlySeries{one.Hourly}, nil
}

// resolveSeries picks one value per point from its hourly series: exact
// target-hour match first, nearest entry by absolute seconds if allowed,
// otherwise unavailable. The output has exactly count entries.
func resolveSeries(series []hourlySeries, count int, target time.Time, allowNearest bool) []*float64 {
	targetISO := target.UTC().Format(hourLayout)
	results := make([]*float64, count)

	for i := 0; i < count; i++ {
		if i >= len(series) {
			break
		}
		hourly := series[i]
		if len(hourly.Time) == 0 || len(hourly.Time) != len(hourly.CloudCover) {
			continue
		}

		if idx := indexOf(hourly.Time, targetISO); idx >= 0 {
			v := hourly.CloudCover[idx]
			results[i] = &v
			continue
		}

		if !allowNearest {
			continue
		}

		bestIdx := -1
		bestDiff := math.Inf(1)
		for j, ts := range hourly.Time {
			t, err := time.Parse(hourLayout, ts)
			if err != nil {
				continue
			}
			diff := math.Abs(t.Sub(target.UTC()).Seconds())
			if diff < bestDiff {
				bestDiff = diff
				bestIdx = j
			}
		}
		if bestIdx >= 0 {
			v := hourly.CloudCover[bestIdx]
			results[i] = &v
		}
	}

	return results
}

func indexOf(list []string, want string) int {
	for i, v := range list {
		if v == want {
			return i
		}
	}
	return -1
}

func (c *Client) buildQueryURL(endpoint string, points []SamplePoint, target time.Time, archive bool) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid weather endpoint: %w", err)
	}

	lats := make([]string, len(points))
	lons := make([]string, len(points))
	for i, p := range points {
		lats[i] = strconv.FormatFloat(p.Lat, 'f', -1, 64)
		lons[i] = strconv.FormatFloat(p.Lon, 'f', -1, 64)
	}

	q := url.Values{}
	q.Set("latitude", strings.Join(lats, ","))
	q.Set("longitude", strings.Join(lons, ","))
	q.Set("hourly", "cloudcover")
	q.Set("timezone", "UTC")
	if archive {
		day := target.UTC().Format("2006-01-02")
		q.Set("start_date", day)
		q.Set("end_date", day)
	}

	u.RawQuery = q.Encode()
	return u.String(), nil
}

func rateLimitReason(body []byte) string {
	var info struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(body, &info); err == nil && info.Reason != "" {
		return info.Reason
	}
	return strings.TrimSpace(string(body))
}
