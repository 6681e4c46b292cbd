// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelrank/internal/cache"
	"github.com/tomtom215/reelrank/internal/config"
	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/metrics"
	"github.com/tomtom215/reelrank/internal/onboard"
	"github.com/tomtom215/reelrank/internal/ratelimit"
	"github.com/tomtom215/reelrank/internal/recommend"
	"github.com/tomtom215/reelrank/internal/store"
)

// validate checks request bodies against struct tags.
var validate = validator.New()

// Server wires the HTTP handlers to the service's collaborators.
type Server struct {
	cfg       *config.Config
	store     store.RatingStore
	cache     *cache.DatasetCache
	limiter   *ratelimit.SlidingWindow
	executor  *recommend.Executor
	onboarder *onboard.Orchestrator
	logger    zerolog.Logger
}

// NewServer assembles the handler set.
func NewServer(
	cfg *config.Config,
	st store.RatingStore,
	dsCache *cache.DatasetCache,
	limiter *ratelimit.SlidingWindow,
	executor *recommend.Executor,
	onboarder *onboard.Orchestrator,
) *Server {
	return &Server{
		cfg:       cfg,
		store:     st,
		cache:     dsCache,
		limiter:   limiter,
		executor:  executor,
		onboarder: onboarder,
		logger:    logging.With().Str("component", "api").Logger(),
	}
}

// handleRecommendations serves GET /api/recommendations/{userID}.
//
// Flow: admission control, dataset load (cache, then store, onboarding
// the user if they are unknown), then the deadline-bounded engine run.
// Every outcome except rate limiting answers 200 with a status body.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := chi.URLParam(r, "userID")

	if !s.limiter.Allow(clientIP(r)) {
		metrics.RateLimitRejections.Inc()
		respondStatus(w, http.StatusTooManyRequests, StatusRateLimited,
			"Rate limit exceeded. Try again in a minute.")
		return
	}

	ds, errResp := s.loadDataset(ctx, username)
	if errResp != nil {
		respondJSON(w, http.StatusOK, *errResp)
		return
	}

	result, err := s.executor.Run(ctx, ds, username)
	if err != nil {
		respondJSON(w, http.StatusOK, *s.engineErrorResponse(ctx, username, err))
		return
	}

	metrics.RecommendDuration.WithLabelValues(string(result.Mode)).Observe(result.Elapsed.Seconds())

	status := StatusSuccess
	message := "Recommendations generated successfully"
	if result.Mode == recommend.ModeFallback {
		metrics.FallbacksServed.Inc()
		status = StatusTimeout
		message = "Computation timed out; showing broadly popular films"
	}

	recs := make(map[string]float64, len(result.Recommendations))
	for _, rec := range result.Recommendations {
		recs[rec.Title] = rec.Score
	}

	respondJSON(w, http.StatusOK, Response{
		Status:          status,
		Message:         message,
		Recommendations: recs,
		Metadata: &Metadata{
			TotalUsers:            result.TotalUsers,
			TotalItems:            result.TotalFilms,
			UnseenItems:           result.UnseenFilms,
			TotalRecommendations:  len(result.Recommendations),
			ProcessingTimeSeconds: result.Elapsed.Seconds(),
			Mode:                  string(result.Mode),
		},
	})
}

// loadDataset returns the dataset for username, from cache when fresh.
// Unknown users are onboarded first. A non-nil Response means the load
// failed in a way that is already a complete answer for the client.
func (s *Server) loadDataset(ctx context.Context, username string) (*recommend.Dataset, *Response) {
	if ds, ok := s.cache.Get(username); ok {
		metrics.CacheHits.Inc()
		return ds, nil
	}
	metrics.CacheMisses.Inc()

	if err := s.onboarder.EnsureUser(ctx, username); err != nil {
		switch {
		case errors.Is(err, onboard.ErrUserNotFound), errors.Is(err, onboard.ErrNoRatings):
			return nil, &Response{
				Status:  StatusUserNotFound,
				Message: "User not found on Letterboxd or has no rated films",
			}
		default:
			logging.Ctx(ctx).Error().Err(err).Str("user", username).Msg("Onboarding failed")
			return nil, &Response{
				Status:  StatusError,
				Message: "Could not load user data. Please try again later.",
			}
		}
	}

	ratings, err := s.store.GetAllRatings(ctx)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to load ratings from store")
		return nil, &Response{
			Status:  StatusError,
			Message: "Could not load rating data. Please try again later.",
		}
	}

	ds := &recommend.Dataset{
		Ratings:  toEngineRatings(ratings),
		LoadedAt: time.Now(),
	}
	s.cache.Put(username, ds)
	return ds, nil
}

// engineErrorResponse maps engine errors onto status bodies.
func (s *Server) engineErrorResponse(ctx context.Context, username string, err error) *Response {
	switch {
	case errors.Is(err, recommend.ErrInsufficientData):
		return &Response{
			Status:  StatusInsufficientData,
			Message: "Not enough rating data yet. Add more users to improve recommendations.",
		}
	case errors.Is(err, recommend.ErrUnknownUser):
		return &Response{
			Status:  StatusUserNotFound,
			Message: "User has no ratings to recommend from",
		}
	default:
		logging.Ctx(ctx).Error().Err(err).Str("user", username).Msg("Recommendation failed")
		return &Response{
			Status:  StatusError,
			Message: "Recommendation computation failed. Please try again later.",
		}
	}
}

// handleCacheUser serves GET /api/cache/{userID}: it primes the dataset
// cache for the user so the next recommendation request skips the store
// scan (and any onboarding).
func (s *Server) handleCacheUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "userID")

	s.cache.Invalidate(username)
	ds, errResp := s.loadDataset(r.Context(), username)
	if errResp != nil {
		respondJSON(w, http.StatusOK, *errResp)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Status:  StatusSuccess,
		Message: "Dataset cached",
		Metadata: &Metadata{
			TotalUsers: ds.Users(),
			TotalItems: ds.Films(),
		},
	})
}

// populateRequest is the optional body for POST /populate.
type populateRequest struct {
	Usernames []string `json:"usernames" validate:"omitempty,max=100,dive,min=1,max=64"`
}

// populateResult reports one username's onboarding outcome.
type populateResult struct {
	Username string `json:"username"`
	Outcome  string `json:"outcome"`
	Films    int    `json:"films,omitempty"`
	Ratings  int    `json:"ratings,omitempty"`
}

// handlePopulate serves POST /populate: bulk onboarding of the supplied
// usernames, falling back to the configured seed list. Failures on one
// username never abort the rest.
func (s *Server) handlePopulate(w http.ResponseWriter, r *http.Request) {
	var req populateRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondStatus(w, http.StatusBadRequest, StatusError, "Invalid JSON body")
			return
		}
	}
	if err := validate.Struct(&req); err != nil {
		respondStatus(w, http.StatusBadRequest, StatusError, "Invalid usernames list")
		return
	}

	usernames := req.Usernames
	if len(usernames) == 0 {
		usernames = s.cfg.Populate.Usernames
	}
	if len(usernames) == 0 {
		respondStatus(w, http.StatusOK, StatusError,
			"No usernames supplied and no seed list configured")
		return
	}

	results := make([]populateResult, 0, len(usernames))
	for _, username := range usernames {
		summary, err := s.onboarder.Onboard(r.Context(), username)
		res := populateResult{
			Username: username,
			Films:    summary.Films,
			Ratings:  summary.Ratings,
		}
		switch {
		case err == nil:
			res.Outcome = "onboarded"
		case errors.Is(err, onboard.ErrUserNotFound):
			res.Outcome = "not_found"
		case errors.Is(err, onboard.ErrNoRatings):
			res.Outcome = "no_ratings"
		default:
			logging.Ctx(r.Context()).Error().Err(err).Str("user", username).
				Msg("Populate onboarding failed")
			res.Outcome = "error"
		}
		// Onboarding changed the store, so cached snapshots are stale.
		s.cache.Invalidate(username)
		results = append(results, res)
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":  StatusSuccess,
		"message": "Populate run complete",
		"results": results,
	})
}

// healthResponse is the body of GET /health.
type healthResponse struct {
	Status  string `json:"status"`
	Users   int    `json:"users"`
	Films   int    `json:"films"`
	Ratings int    `json:"ratings"`
}

// handleHealth probes the store and reports record counts.
// Unlike the recommendation flow, an unhealthy store answers 503 so
// load balancers can take the instance out of rotation.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	stats, err := s.store.Stats(ctx)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Health probe failed")
		respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy"})
		return
	}

	respondJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Users:   stats.Users,
		Films:   stats.Films,
		Ratings: stats.Ratings,
	})
}

// handlePing is a trivial liveness probe.
func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

// toEngineRatings converts store triples to engine triples.
func toEngineRatings(in []store.Rating) []recommend.Rating {
	out := make([]recommend.Rating, len(in))
	for i, r := range in {
		out[i] = recommend.Rating{User: r.Username, Title: r.Title, Score: r.Score}
	}
	return out
}
