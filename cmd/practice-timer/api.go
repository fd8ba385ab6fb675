package main

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/edumarques81/practice-timer-backend/internal/domain/playback"
	"github.com/edumarques81/practice-timer-backend/internal/domain/theme"
	"github.com/edumarques81/practice-timer-backend/internal/version"
)

// api is the REST fallback for clients that cannot hold a socket open.
type api struct {
	theme   *theme.Controller
	tracker *playback.Tracker
	storage string
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", a.health)
	mux.HandleFunc("GET /api/v1/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, version.GetInfo())
	})
	mux.HandleFunc("GET /api/v1/theme", a.getTheme)
	mux.HandleFunc("POST /api/v1/theme", a.setTheme)
	mux.HandleFunc("DELETE /api/v1/theme", a.resetTheme)
	mux.HandleFunc("POST /api/v1/theme/toggle", a.toggleTheme)
	mux.HandleFunc("GET /api/v1/playing", a.getPlaying)
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"storage": a.storage,
		"syncing": a.theme.Syncing(),
	})
}

func (a *api) getTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.theme.ToJSON())
}

func (a *api) toggleTheme(w http.ResponseWriter, r *http.Request) {
	a.theme.Toggle()
	writeJSON(w, http.StatusOK, a.theme.ToJSON())
}

// resetTheme clears the saved preference so the system preference is followed again.
func (a *api) resetTheme(w http.ResponseWriter, r *http.Request) {
	a.theme.Reset()
	writeJSON(w, http.StatusOK, a.theme.ToJSON())
}

type setThemeRequest struct {
	IsDark *bool `json:"isDark"`
}

func (a *api) setTheme(w http.ResponseWriter, r *http.Request) {
	var req setThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsDark == nil {
		http.Error(w, `body must be {"isDark": bool}`, http.StatusBadRequest)
		return
	}

	a.theme.SetTheme(*req.IsDark)
	writeJSON(w, http.StatusOK, a.theme.ToJSON())
}

func (a *api) getPlaying(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.tracker.Current().ToJSON())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
