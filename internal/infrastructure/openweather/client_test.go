package openweather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-weather-auth/internal/config"
	"github.com/go-weather-auth/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(config.WeatherConfig{BaseURL: srv.URL + "/", APIKey: "k3y"})
}

func TestCurrent_QueryAndDecode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "Buenos Aires", r.URL.Query().Get("q"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		assert.Equal(t, "k3y", r.URL.Query().Get("appid"))
		_, _ = w.Write([]byte(`{"name":"Buenos Aires","main":{"temp":21.6,"humidity":70},"weather":[{"main":"Clouds"}],"wind":{"speed":5}}`))
	})

	cur, err := c.Current(context.Background(), "Buenos Aires")
	require.NoError(t, err)
	assert.Equal(t, "Buenos Aires", cur.Name)
	assert.InDelta(t, 21.6, cur.Main.Temp, 0.001)
	assert.Equal(t, 70, cur.Main.Humidity)
	assert.Equal(t, "Clouds", cur.Weather[0].Main)
	assert.InDelta(t, 5.0, cur.Wind.Speed, 0.001)
}

func TestForecast_RequestsFortyEntries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forecast", r.URL.Path)
		assert.Equal(t, "40", r.URL.Query().Get("cnt"))
		_, _ = w.Write([]byte(`{"list":[{"dt":1700000000,"main":{"temp":10.4},"weather":[{"main":"Rain"}]}]}`))
	})

	fc, err := c.Forecast(context.Background(), "Lima")
	require.NoError(t, err)
	require.Len(t, fc.List, 1)
	assert.Equal(t, int64(1700000000), fc.List[0].Dt)
}

func TestGet_UpstreamMessageSurfaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	})

	_, err := c.Current(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	var ue *domain.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "city not found", ue.Message)
}

func TestGet_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Current(context.Background(), "Lima")
	assert.ErrorContains(t, err, "upstream status 502")
}

func TestGet_TransportErrorHidesKey(t *testing.T) {
	c := NewClient(config.WeatherConfig{BaseURL: "http://127.0.0.1:1", APIKey: "sup3r-secret"})
	_, err := c.Current(context.Background(), "Lima")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.NotContains(t, err.Error(), "sup3r-secret")
}
