package http

import (
	"github.com/go-weather-auth/internal/application/account"
	"github.com/go-weather-auth/internal/application/weather"
	"github.com/go-weather-auth/internal/transport/http/middleware"
)

// Deps holds the services the router exposes.
type Deps struct {
	Account account.Service
	Weather weather.Service
	Tokens  middleware.TokenVerifier
}
