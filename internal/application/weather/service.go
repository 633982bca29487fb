package weather

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/go-weather-auth/internal/domain"
	"github.com/go-weather-auth/internal/infrastructure/openweather"
	"github.com/go-weather-auth/internal/metrics"
)

const (
	// The provider returns 3-hour slots; every 8th one is a new day.
	slotsPerDay  = 8
	forecastDays = 5
)

type Provider interface {
	Current(ctx context.Context, city string) (*openweather.Current, error)
	Forecast(ctx context.Context, city string) (*openweather.Forecast, error)
}

type Cache interface {
	Get(ctx context.Context, city string) (*domain.Weather, bool, error)
	Set(ctx context.Context, city string, w *domain.Weather) error
}

type Service interface {
	ForCity(ctx context.Context, city string) (*domain.Weather, error)
}

type service struct {
	provider Provider
	cache    Cache
}

// NewService builds the weather proxy. cache may be nil.
func NewService(provider Provider, cache Cache) Service {
	return &service{provider: provider, cache: cache}
}

func (s *service) ForCity(ctx context.Context, city string) (*domain.Weather, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, &domain.ValidationError{Fields: map[string]string{"city": "is required"}}
	}

	if s.cache != nil {
		w, ok, err := s.cache.Get(ctx, city)
		switch {
		case err != nil:
			metrics.WeatherCacheTotal.WithLabelValues("error").Inc()
			slog.WarnContext(ctx, "weather cache read failed", "op", "weather.for_city", "city", city, "error", err)
		case ok:
			metrics.WeatherCacheTotal.WithLabelValues("hit").Inc()
			return w, nil
		default:
			metrics.WeatherCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	cur, err := s.provider.Current(ctx, city)
	if err != nil {
		metrics.WeatherUpstreamErrorsTotal.Inc()
		return nil, fmt.Errorf("current weather for %q: %w", city, err)
	}
	fc, err := s.provider.Forecast(ctx, city)
	if err != nil {
		metrics.WeatherUpstreamErrorsTotal.Inc()
		return nil, fmt.Errorf("forecast for %q: %w", city, err)
	}

	w := assemble(cur, fc)
	if s.cache != nil {
		if err := s.cache.Set(ctx, city, w); err != nil {
			slog.WarnContext(ctx, "weather cache write failed", "op", "weather.for_city", "city", city, "error", err)
		}
	}
	return w, nil
}

func assemble(cur *openweather.Current, fc *openweather.Forecast) *domain.Weather {
	w := &domain.Weather{
		Location:    cur.Name,
		Temperature: round(cur.Main.Temp),
		Condition:   condition(cur.Weather),
		Humidity:    cur.Main.Humidity,
		WindSpeed:   round(cur.Wind.Speed * 3.6), // m/s → km/h
		Forecast:    make([]domain.ForecastDay, 0, forecastDays),
	}
	for i := 0; i < len(fc.List) && len(w.Forecast) < forecastDays; i += slotsPerDay {
		e := fc.List[i]
		w.Forecast = append(w.Forecast, domain.ForecastDay{
			Day:         time.Unix(e.Dt, 0).UTC().Weekday().String(),
			Temperature: round(e.Main.Temp),
			Condition:   condition(e.Weather),
		})
	}
	return w
}

func condition(cs []openweather.Condition) string {
	if len(cs) == 0 {
		return ""
	}
	return cs[0].Main
}

// round halves toward positive infinity (-2.5 → -2).
func round(f float64) int {
	return int(math.Floor(f + 0.5))
}
