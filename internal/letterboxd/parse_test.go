// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package letterboxd

import (
	"strings"
	"testing"
)

func TestParseStars(t *testing.T) {
	tests := []struct {
		input     string
		wantScore float64
		wantRated bool
	}{
		{"★★★★★", 5, true},
		{"★★★★", 4, true},
		{"★★★½", 3.5, true},
		{"★", 1, true},
		{"½", 0.5, true},
		{" ★★½ ", 2.5, true},
		{"", 0, false},
		{"no stars here", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			score, rated := parseStars(tt.input)
			if score != tt.wantScore || rated != tt.wantRated {
				t.Errorf("parseStars(%q) = (%v, %v), want (%v, %v)",
					tt.input, score, rated, tt.wantScore, tt.wantRated)
			}
		})
	}
}

const samplePage = `
<html><body>
<ul class="poster-list">
  <li class="poster-container">
    <div class="film-poster"><img alt="The Thing" src="x.jpg"></div>
    <p class="poster-viewingdata"><span class="rating">★★★★½</span></p>
  </li>
  <li class="poster-container">
    <div class="film-poster"><img alt="Paddington 2" src="y.jpg"></div>
    <p class="poster-viewingdata"><span class="rating">★★★★★</span></p>
  </li>
  <li class="poster-container">
    <div class="film-poster"><img alt="Unrated Obscurity" src="z.jpg"></div>
  </li>
  <li class="some-other-list-item"><img alt="Not A Film"></li>
</ul>
</body></html>`

func TestParseFilmsPage(t *testing.T) {
	films, err := parseFilmsPage(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("parseFilmsPage: %v", err)
	}

	want := []Film{
		{Title: "The Thing", Score: 4.5, Rated: true},
		{Title: "Paddington 2", Score: 5, Rated: true},
		{Title: "Unrated Obscurity", Score: 0, Rated: false},
	}
	if len(films) != len(want) {
		t.Fatalf("parsed %d films, want %d: %+v", len(films), len(want), films)
	}
	for i := range want {
		if films[i] != want[i] {
			t.Errorf("film %d = %+v, want %+v", i, films[i], want[i])
		}
	}
}

func TestParseFilmsPageEmpty(t *testing.T) {
	films, err := parseFilmsPage(strings.NewReader(`<html><body><ul></ul></body></html>`))
	if err != nil {
		t.Fatalf("parseFilmsPage: %v", err)
	}
	if len(films) != 0 {
		t.Errorf("expected no films, got %+v", films)
	}
}
