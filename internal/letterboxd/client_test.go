// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package letterboxd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:           baseURL,
		UserAgent:         "reelrank-test",
		RequestTimeout:    5 * time.Second,
		MaxPages:          10,
		RequestsPerSecond: 1000, // no throttling in tests
	})
}

func TestVerifyUser(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantExists bool
		wantErr    bool
	}{
		{"existing user", http.StatusOK, true, false},
		{"missing user", http.StatusNotFound, false, false},
		{"server error", http.StatusInternalServerError, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/somebody/" {
					t.Errorf("unexpected path %q", r.URL.Path)
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			exists, err := newTestClient(srv.URL).VerifyUser(context.Background(), "somebody")
			if tt.wantErr {
				if !errors.Is(err, ErrUnexpectedStatus) {
					t.Errorf("expected ErrUnexpectedStatus, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("VerifyUser: %v", err)
			}
			if exists != tt.wantExists {
				t.Errorf("exists = %v, want %v", exists, tt.wantExists)
			}
		})
	}
}

func filmPage(titles ...string) string {
	page := `<html><body><ul>`
	for i, title := range titles {
		page += fmt.Sprintf(`<li class="poster-container"><img alt=%q>`, title)
		if i%2 == 0 {
			page += `<span class="rating">★★★★</span>`
		}
		page += `</li>`
	}
	return page + `</ul></body></html>`
}

func TestFetchFilmsPaginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/somebody/films/by/date/page/1/":
			fmt.Fprint(w, filmPage("Alien", "Heat"))
		case "/somebody/films/by/date/page/2/":
			fmt.Fprint(w, filmPage("Ran"))
		case "/somebody/films/by/date/page/3/":
			fmt.Fprint(w, filmPage()) // empty page ends the walk
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	films, err := newTestClient(srv.URL).FetchFilms(context.Background(), "somebody")
	if err != nil {
		t.Fatalf("FetchFilms: %v", err)
	}

	want := []Film{
		{Title: "Alien", Score: 4, Rated: true},
		{Title: "Heat", Rated: false},
		{Title: "Ran", Score: 4, Rated: true},
	}
	if len(films) != len(want) {
		t.Fatalf("got %d films, want %d: %+v", len(films), len(want), films)
	}
	for i := range want {
		if films[i] != want[i] {
			t.Errorf("film %d = %+v, want %+v", i, films[i], want[i])
		}
	}
}

func TestFetchFilmsStopsAt404(t *testing.T) {
	pages := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages++
		if pages > 1 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, filmPage("Alien"))
	}))
	defer srv.Close()

	films, err := newTestClient(srv.URL).FetchFilms(context.Background(), "somebody")
	if err != nil {
		t.Fatalf("FetchFilms: %v", err)
	}
	if len(films) != 1 {
		t.Errorf("got %d films, want 1", len(films))
	}
	if pages != 2 {
		t.Errorf("fetched %d pages, want 2", pages)
	}
}

func TestFetchFilmsRespectsPageCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every page claims more films; only the cap stops the walk.
		fmt.Fprint(w, filmPage("Endless Film"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.maxPages = 3

	films, err := c.FetchFilms(context.Background(), "somebody")
	if err != nil {
		t.Fatalf("FetchFilms: %v", err)
	}
	if len(films) != 3 {
		t.Errorf("got %d films, want 3 (one per page up to the cap)", len(films))
	}
}

// fakeSource lets breaker tests control outcomes directly.
type fakeSource struct {
	exists bool
	films  []Film
	err    error
}

func (f *fakeSource) VerifyUser(_ context.Context, _ string) (bool, error) {
	return f.exists, f.err
}

func (f *fakeSource) FetchFilms(_ context.Context, _ string) ([]Film, error) {
	return f.films, f.err
}

func TestBreakerClientPassesThrough(t *testing.T) {
	src := &fakeSource{
		exists: true,
		films:  []Film{{Title: "Alien", Score: 4.5, Rated: true}},
	}
	b := NewBreakerClient(src)

	exists, err := b.VerifyUser(context.Background(), "somebody")
	if err != nil || !exists {
		t.Errorf("VerifyUser = (%v, %v), want (true, nil)", exists, err)
	}

	films, err := b.FetchFilms(context.Background(), "somebody")
	if err != nil {
		t.Fatalf("FetchFilms: %v", err)
	}
	if len(films) != 1 || films[0].Title != "Alien" {
		t.Errorf("FetchFilms = %+v, want the fake's films", films)
	}
}

func TestBreakerClientPropagatesErrors(t *testing.T) {
	wantErr := errors.New("boom")
	b := NewBreakerClient(&fakeSource{err: wantErr})

	if _, err := b.VerifyUser(context.Background(), "somebody"); !errors.Is(err, wantErr) {
		t.Errorf("VerifyUser error = %v, want %v", err, wantErr)
	}
}
