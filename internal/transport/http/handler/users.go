package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/go-weather-auth/internal/application/account"
	"github.com/go-weather-auth/internal/domain"
)

// UserHandler serves registration, login and user lookup.
type UserHandler struct {
	svc account.Service
}

func NewUserHandler(svc account.Service) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, r, "account.register", err)
		return
	}
	writeJSON(w, http.StatusCreated, UserEnvelope{Message: "user registered successfully", User: u})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, r, "account.login", err)
		return
	}
	writeJSON(w, http.StatusCreated, LoginEnvelope{Message: "login successful", Token: res.Token, User: res.User})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, r, "account.get", err)
		return
	}
	writeJSON(w, http.StatusOK, UserEnvelope{Message: "user found", User: u})
}
