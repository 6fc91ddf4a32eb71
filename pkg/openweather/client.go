// Package openweather fetches current-weather telemetry per city from the
// OpenWeatherMap API.
package openweather

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Client fetches current telemetry for a city.
type Client interface {
	CurrentWeather(ctx context.Context, city string) (*Observation, error)
}

// Observation is the normalized telemetry for one city.
type Observation struct {
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"` // °C
	Humidity    float64   `json:"humidity"`    // %
	Rainfall    float64   `json:"rainfall"`    // mm/h
	WindSpeed   float64   `json:"wind_speed"`  // km/h
	Condition   string    `json:"condition"`
	ObservedAt  time.Time `json:"observed_at"`
}

// apiResponse mirrors the subset of the /weather payload we consume.
type apiResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s with units=metric
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	DT int64 `json:"dt"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate (requests per second).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an OpenWeatherMap client. The free tier is rate-limited,
// so requests go through a limiter (default 1 req/s).
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) CurrentWeather(ctx context.Context, city string) (*Observation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "openweather: rate limit wait")
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "openweather: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "openweather: fetch %s", city)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "openweather: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("openweather: unexpected status %d for %s: %s", resp.StatusCode, city, string(body))
	}

	var raw apiResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, eris.Wrap(err, "openweather: unmarshal response")
	}

	return normalize(city, raw), nil
}

// normalize converts API units to the engine's units: wind m/s → km/h,
// rain mm over the last hour read as mm/h. Negative readings clamp to zero.
func normalize(requestedCity string, raw apiResponse) *Observation {
	city := raw.Name
	if city == "" {
		city = requestedCity
	}

	condition := ""
	if len(raw.Weather) > 0 {
		condition = raw.Weather[0].Main
	}

	obs := &Observation{
		City:        city,
		Temperature: raw.Main.Temp,
		Humidity:    raw.Main.Humidity,
		Rainfall:    raw.Rain.OneHour,
		WindSpeed:   raw.Wind.Speed * 3.6,
		Condition:   condition,
		ObservedAt:  time.Unix(raw.DT, 0).UTC(),
	}
	if obs.Rainfall < 0 {
		obs.Rainfall = 0
	}
	if obs.WindSpeed < 0 {
		obs.WindSpeed = 0
	}
	return obs
}
