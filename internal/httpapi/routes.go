// Package httpapi serves the scanner's observability surface: blacklist
// management, runtime settings, notification history, aggregate stats, a
// WebSocket stream for live updates, health/metrics, and a Basic-Auth
// gated pprof surface. Adapted from the reference implementation's
// internal/api package (SPEC_FULL §11).
package httpapi

import (
	"net/http"
	"net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"arbitrage/internal/httpapi/handlers"
	"arbitrage/internal/httpapi/middleware"
	"arbitrage/internal/service"
	"arbitrage/internal/wsapi"
	"arbitrage/pkg/utils"
)

// Dependencies wires every service and the WebSocket hub into the router.
// A nil field simply skips registering that route group, so a caller can
// stand up a partial API (e.g. no database, no audit trail) without it
// erroring.
type Dependencies struct {
	BlacklistService    *service.BlacklistService
	SettingsService     *service.SettingsService
	NotificationService *service.NotificationService
	StatsService        *service.StatsService
	Hub                 *wsapi.Hub

	Logger            *utils.Logger
	CORSAllowedOrigins []string
	AdminUsername      string
	AdminPasswordHash  string
}

// SetupRoutes builds the full router: global middleware, the /api/v1
// resource routes, /ws/stream, /health, /metrics, and a Basic-Auth gated
// /debug/pprof.
func SetupRoutes(deps *Dependencies) *mux.Router {
	if deps == nil {
		deps = &Dependencies{}
	}

	router := mux.NewRouter()
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.Logging(deps.Logger))
	router.Use(middleware.CORS(deps.CORSAllowedOrigins))

	api := router.PathPrefix("/api/v1").Subrouter()

	if deps.BlacklistService != nil {
		h := handlers.NewBlacklistHandler(deps.BlacklistService)
		api.HandleFunc("/blacklist", h.List).Methods(http.MethodGet)
		api.HandleFunc("/blacklist", h.Add).Methods(http.MethodPost)
		api.HandleFunc("/blacklist/{symbol}", h.Remove).Methods(http.MethodDelete)
	}

	if deps.SettingsService != nil {
		h := handlers.NewSettingsHandler(deps.SettingsService)
		api.HandleFunc("/settings", h.Get).Methods(http.MethodGet)
		api.HandleFunc("/settings", h.Update).Methods(http.MethodPatch)
	}

	if deps.NotificationService != nil {
		h := handlers.NewNotificationHandler(deps.NotificationService)
		api.HandleFunc("/notifications", h.List).Methods(http.MethodGet)
	}

	if deps.StatsService != nil {
		h := handlers.NewStatsHandler(deps.StatsService)
		api.HandleFunc("/stats", h.Get).Methods(http.MethodGet)
		api.HandleFunc("/stats/period", h.Period).Methods(http.MethodGet)
		api.HandleFunc("/stats/top", h.Top).Methods(http.MethodGet)
	}

	if deps.Hub != nil {
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			wsapi.ServeWS(deps.Hub, deps.CORSAllowedOrigins, deps.Logger, w, r)
		}).Methods(http.MethodGet)
	}

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	debugAuth := middleware.DebugAuth(deps.AdminUsername, deps.AdminPasswordHash)
	debug := router.PathPrefix("/debug/pprof").Subrouter()
	debug.Use(debugAuth)
	debug.HandleFunc("/", pprof.Index)
	debug.HandleFunc("/cmdline", pprof.Cmdline)
	debug.HandleFunc("/profile", pprof.Profile)
	debug.HandleFunc("/symbol", pprof.Symbol)
	debug.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"heap", "goroutine", "block", "threadcreate", "mutex", "allocs"} {
		name := name
		debug.HandleFunc("/"+name, func(w http.ResponseWriter, r *http.Request) {
			pprof.Handler(name).ServeHTTP(w, r)
		})
	}

	return router
}
