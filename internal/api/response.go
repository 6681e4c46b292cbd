// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package api exposes the HTTP surface: the recommendation endpoint,
// cache priming, bulk onboarding, and the health and metrics probes.
//
// Every recommendation code path answers HTTP 200 with a structured
// status body; only admission rejection uses 429. Clients branch on the
// body's status field, not on HTTP status codes.
package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/reelrank/internal/logging"
)

// Response statuses. Clients treat these as the API contract.
const (
	StatusSuccess          = "success"
	StatusInsufficientData = "insufficient_data"
	StatusUserNotFound     = "user_not_found"
	StatusRateLimited      = "rate_limited"
	StatusTimeout          = "timeout"
	StatusError            = "error"
)

// Response is the body of every recommendation-flow endpoint.
type Response struct {
	Status          string             `json:"status"`
	Message         string             `json:"message"`
	Recommendations map[string]float64 `json:"recommendations,omitempty"`
	Metadata        *Metadata          `json:"metadata,omitempty"`
}

// Metadata describes the dataset and computation behind a response.
type Metadata struct {
	TotalUsers            int     `json:"totalUsers"`
	TotalItems            int     `json:"totalItems"`
	UnseenItems           int     `json:"unseenItems"`
	TotalRecommendations  int     `json:"totalRecommendations"`
	ProcessingTimeSeconds float64 `json:"processingTimeSeconds"`
	Mode                  string  `json:"mode,omitempty"`
}

// respondJSON writes v with the given HTTP status code.
func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Err(err).Msg("Failed to encode response")
	}
}

// respondStatus writes a bare status/message body.
func respondStatus(w http.ResponseWriter, code int, status, message string) {
	respondJSON(w, code, Response{Status: status, Message: message})
}
