package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-weather-auth/internal/application/weather"
	"github.com/go-weather-auth/internal/domain"
)

type WeatherHandler struct {
	svc weather.Service
}

func NewWeatherHandler(svc weather.Service) *WeatherHandler { return &WeatherHandler{svc: svc} }

func (h *WeatherHandler) Get(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		writeJSON(w, http.StatusBadRequest, WeatherErrorEnvelope{Error: "City parameter is required and must be a string"})
		return
	}
	report, err := h.svc.ForCity(r.Context(), city)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, WeatherErrorEnvelope{Error: "City parameter is required and must be a string"})
			return
		}
		slog.ErrorContext(r.Context(), "weather lookup failed", "op", "weather.get", "city", city, "error", err)
		env := WeatherErrorEnvelope{Error: "Error fetching weather data"}
		var ue *domain.UpstreamError
		if errors.As(err, &ue) {
			env.Message = ue.Message
		}
		writeJSON(w, http.StatusInternalServerError, env)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
