package elevation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"drone-delivery-service/internal/domain"
	"drone-delivery-service/internal/platform/obs"
	"drone-delivery-service/internal/ports"

	"golang.org/x/time/rate"
)

// GoogleElevationProvider implements ElevationProvider against the Google
// Elevation API.
//
// It coordinates:
//   - Coordinate rounding for stable cache keys
//   - Persistent elevation caching
//   - External API calls with retry/backoff and rate limiting
//
// The provider is safe for concurrent use.
type GoogleElevationProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	limiter *rate.Limiter
	cache   ports.ElevationCache
}

func NewGoogleElevationProvider(apiKey string, cache ports.ElevationCache) (*GoogleElevationProvider, error) {
	if apiKey == "" {
		return nil, errors.New("google elevation api key is empty")
	}

	return &GoogleElevationProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://maps.googleapis.com/maps/api/elevation/json",
		// The Elevation API free tier throttles hard; 10 rps with a small
		// burst keeps planning-time lookups under the quota.
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		cache:   cache,
	}, nil
}

// coordKey rounds to ~11m precision so nearby planner nodes share cache rows.
func coordKey(c domain.Coordinate) string {
	return fmt.Sprintf("%.4f,%.4f", c.Lat, c.Lng)
}

// ElevationAt returns terrain elevation in meters at c.
func (g *GoogleElevationProvider) ElevationAt(ctx context.Context, c domain.Coordinate) (_ float64, err error) {
	defer obs.Time(ctx, "elevation.ElevationAt")(&err)

	key := coordKey(c)

	// Check the persistent cache before issuing external API calls.
	if g.cache != nil {
		hits, err := g.cache.GetMany(ctx, []string{key})
		if err != nil {
			return 0, fmt.Errorf("elevation cache read: %w", err)
		}
		if elev, ok := hits[key]; ok {
			return elev, nil
		}
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("elevation rate limit: %w", err)
	}

	elev, err := g.fetch(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("fetch elevation for %s: %w", key, err)
	}

	if g.cache != nil {
		if err := g.cache.PutMany(ctx, map[string]float64{key: elev}); err != nil {
			log.Printf("elevation cache write failed: %v", err)
		}
	}

	return elev, nil
}

type elevationResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
	Status string `json:"status"`
}

func (g *GoogleElevationProvider) fetch(ctx context.Context, c domain.Coordinate) (float64, error) {
	q := url.Values{}
	q.Set("locations", fmt.Sprintf("%f,%f", c.Lat, c.Lng))
	q.Set("key", g.apiKey)
	reqURL := g.baseURL + "?" + q.Encode()

	resp, err := g.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var body elevationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode elevation response: %w", err)
	}

	if body.Status != "OK" || len(body.Results) == 0 {
		return 0, fmt.Errorf("elevation API status %q with %d results", body.Status, len(body.Results))
	}

	return body.Results[0].Elevation, nil
}
