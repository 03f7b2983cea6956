package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"drone-delivery-service/internal/domain"
	"drone-delivery-service/internal/ports"

	"golang.org/x/time/rate"
)

// OpenWeatherProvider implements WeatherProvider against the OpenWeather
// current-conditions API.
//
// Upstream failures never propagate: the provider answers with the last
// successful snapshot, or with a calm default-safe snapshot before the
// first success, so the scheduler keeps running degraded instead of
// halting. Responses are reused for RefreshInterval so per-tick sampling
// does not turn into per-tick API calls.
//
// The provider is safe for concurrent use.
type OpenWeatherProvider struct {
	session  *http.Client
	apiKey   string
	baseURL  string
	location domain.Coordinate
	limiter  *rate.Limiter

	// RefreshInterval bounds how stale a served snapshot may be before a
	// new upstream fetch is attempted.
	RefreshInterval time.Duration

	mu          sync.Mutex
	lastKnown   ports.Conditions
	lastFetched time.Time
	haveData    bool
}

func NewOpenWeatherProvider(apiKey string, location domain.Coordinate) (*OpenWeatherProvider, error) {
	if apiKey == "" {
		return nil, errors.New("openweather api key is empty")
	}

	return &OpenWeatherProvider{
		session:         &http.Client{Timeout: 10 * time.Second},
		apiKey:          apiKey,
		baseURL:         "https://api.openweathermap.org/data/2.5/weather",
		location:        location,
		limiter:         rate.NewLimiter(rate.Limit(1), 2),
		RefreshInterval: 10 * time.Second,
	}, nil
}

// defaultSafe is served before the first successful fetch: calm wind, no
// precipitation, full visibility.
func defaultSafe() ports.Conditions {
	return ports.Conditions{VisibilityKM: 10}
}

// CurrentConditions returns the freshest available snapshot. It never
// returns an error for upstream failures; degraded data is the fallback.
func (o *OpenWeatherProvider) CurrentConditions(ctx context.Context) (ports.Conditions, error) {
	o.mu.Lock()
	fresh := o.haveData && time.Since(o.lastFetched) < o.RefreshInterval
	cached := o.lastKnown
	have := o.haveData
	o.mu.Unlock()

	if fresh {
		return cached, nil
	}

	cond, err := o.fetch(ctx)
	if err != nil {
		log.Printf("weather fetch failed (serving fallback): %v", err)
		if have {
			return cached, nil
		}
		return defaultSafe(), nil
	}

	o.mu.Lock()
	o.lastKnown = cond
	o.lastFetched = time.Now()
	o.haveData = true
	o.mu.Unlock()

	return cond, nil
}

type openWeatherResponse struct {
	Wind struct {
		Speed float64 `json:"speed"` // m/s
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"` // mm/h
	} `json:"rain"`
	Visibility float64 `json:"visibility"` // meters
}

func (o *OpenWeatherProvider) fetch(ctx context.Context) (ports.Conditions, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return ports.Conditions{}, fmt.Errorf("weather rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", o.location.Lat))
	q.Set("lon", fmt.Sprintf("%f", o.location.Lng))
	q.Set("appid", o.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return ports.Conditions{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.session.Do(req)
	if err != nil {
		return ports.Conditions{}, fmt.Errorf("openweather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		return ports.Conditions{}, fmt.Errorf(
			"openweather status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)),
		)
	}

	var body openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ports.Conditions{}, fmt.Errorf("decode weather response: %w", err)
	}

	return ports.Conditions{
		WindSpeedMPS:     body.Wind.Speed,
		WindDirectionDeg: body.Wind.Deg,
		PrecipitationMMH: body.Rain.OneHour,
		VisibilityKM:     body.Visibility / 1000,
	}, nil
}
