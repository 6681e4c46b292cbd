// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

// Package letterboxd fetches a user's film diary from letterboxd.com by
// scraping their public profile pages.
//
// Letterboxd has no public API, so the client is deliberately gentle: a
// token-bucket throttle paces page fetches and a circuit breaker (see
// BreakerClient) stops hammering the site when it is unavailable.
package letterboxd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/reelrank/internal/logging"
	"github.com/tomtom215/reelrank/internal/metrics"
)

// ErrUnexpectedStatus indicates letterboxd.com answered with a status
// code the scraper cannot interpret.
var ErrUnexpectedStatus = errors.New("unexpected letterboxd response status")

// Film is one entry from a user's film pages. Unrated films carry
// Rated=false and a zero Score; they still become film records so the
// catalog grows even without a rating.
type Film struct {
	Title string
	Score float64
	Rated bool
}

// Source is the scraping contract the onboarding flow depends on.
// Implemented by Client and by BreakerClient.
type Source interface {
	// VerifyUser reports whether the username exists on Letterboxd.
	VerifyUser(ctx context.Context, username string) (bool, error)

	// FetchFilms returns every film on the user's paginated film pages.
	FetchFilms(ctx context.Context, username string) ([]Film, error)
}

// Config tunes the scraping client.
type Config struct {
	BaseURL           string
	UserAgent         string
	RequestTimeout    time.Duration
	MaxPages          int
	RequestsPerSecond float64
}

// Client scrapes letterboxd.com directly. Wrap it in a BreakerClient for
// production use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	maxPages   int
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a scraping client.
func NewClient(cfg Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		maxPages:   cfg.MaxPages,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:     logging.With().Str("component", "letterboxd").Logger(),
	}
}

// VerifyUser reports whether the username exists on Letterboxd.
// A 404 is a definitive "no", not an error.
func (c *Client) VerifyUser(ctx context.Context, username string) (bool, error) {
	resp, err := c.get(ctx, fmt.Sprintf("%s/%s/", c.baseURL, username))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: verify %q returned %d",
			ErrUnexpectedStatus, username, resp.StatusCode)
	}
}

// FetchFilms walks the user's film pages until a page comes back empty
// or the page cap is hit, collecting every poster entry.
func (c *Client) FetchFilms(ctx context.Context, username string) ([]Film, error) {
	var films []Film
	for page := 1; page <= c.maxPages; page++ {
		url := fmt.Sprintf("%s/%s/films/by/date/page/%d/", c.baseURL, username, page)
		resp, err := c.get(ctx, url)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			break
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("%w: films page %d returned %d",
				ErrUnexpectedStatus, page, resp.StatusCode)
		}

		pageFilms, err := parseFilmsPage(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("parse films page %d for %q: %w", page, username, err)
		}
		if len(pageFilms) == 0 {
			break
		}

		films = append(films, pageFilms...)
		c.logger.Debug().Str("user", username).Int("page", page).
			Int("films", len(pageFilms)).Msg("Scraped film page")
	}
	return films, nil
}

// get performs a throttled request with the configured user agent.
func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("throttle wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.ScrapeRequests.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	metrics.ScrapeRequests.WithLabelValues("success").Inc()
	return resp, nil
}
