// Package openweather is a read-only client for the OpenWeatherMap 2.5 API.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-weather-auth/internal/config"
	"github.com/go-weather-auth/internal/domain"
)

// forecastSamples is the number of 3-hour forecast entries requested (5 days).
const forecastSamples = 40

type Condition struct {
	Main string `json:"main"`
}

type Main struct {
	Temp     float64 `json:"temp"`
	Humidity int     `json:"humidity"`
}

type Wind struct {
	Speed float64 `json:"speed"` // m/s with units=metric
}

// Current is the /weather response.
type Current struct {
	Name    string      `json:"name"`
	Main    Main        `json:"main"`
	Weather []Condition `json:"weather"`
	Wind    Wind        `json:"wind"`
}

// ForecastEntry is one 3-hour slot of the /forecast response.
type ForecastEntry struct {
	Dt      int64       `json:"dt"`
	Main    Main        `json:"main"`
	Weather []Condition `json:"weather"`
}

type Forecast struct {
	List []ForecastEntry `json:"list"`
}

type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

func NewClient(cfg config.WeatherConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

func (c *Client) Current(ctx context.Context, city string) (*Current, error) {
	var out Current
	if err := c.get(ctx, "/weather", city, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Forecast(ctx context.Context, city string) (*Forecast, error) {
	var out Forecast
	extra := url.Values{"cnt": {fmt.Sprint(forecastSamples)}}
	if err := c.get(ctx, "/forecast", city, extra, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path, city string, extra url.Values, dst any) error {
	q := url.Values{}
	q.Set("q", city)
	q.Set("units", "metric")
	q.Set("appid", c.apiKey)
	for k, vs := range extra {
		q[k] = vs
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build weather request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		// url.Error embeds the request URL, which carries the API key.
		return fmt.Errorf("error fetching weather: %w", &domain.UpstreamError{Message: "weather provider unreachable"})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("error fetching weather: %w", &domain.UpstreamError{Message: "unreadable weather provider response"})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("error fetching weather: %w", &domain.UpstreamError{Message: upstreamMessage(resp.StatusCode, body)})
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("error fetching weather: decode %s: %w", path, &domain.UpstreamError{Message: "malformed weather provider response"})
	}
	return nil
}

// upstreamMessage prefers the provider's own "message" field.
func upstreamMessage(status int, body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("upstream status %d", status)
}
