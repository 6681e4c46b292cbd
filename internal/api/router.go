// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router builds the chi router over the server's handlers.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(s.cfg.Server.CORSAllowedOrigins))
	if s.cfg.Server.GlobalRateLimit > 0 {
		r.Use(globalRateLimit(s.cfg.Server.GlobalRateLimit))
	}

	r.With(instrumentMiddleware("ping")).Get("/ping", s.handlePing)
	r.With(instrumentMiddleware("health")).Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(instrumentMiddleware("recommendations")).
			Get("/recommendations/{userID}", s.handleRecommendations)
		r.With(instrumentMiddleware("cache")).
			Get("/cache/{userID}", s.handleCacheUser)
	})

	r.With(instrumentMiddleware("populate")).Post("/populate", s.handlePopulate)

	return r
}
