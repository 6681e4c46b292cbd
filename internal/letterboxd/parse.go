// Reelrank - Letterboxd Film Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelrank

package letterboxd

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// parseFilmsPage extracts films from one diary page. Each film sits in a
// <li class="poster-container">; the poster <img> alt text carries the
// title and an optional <span class="rating"> carries the star string.
func parseFilmsPage(r io.Reader) ([]Film, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var films []Film
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "li" && hasClass(n, "poster-container") {
			if film, ok := extractFilm(n); ok {
				films = append(films, film)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return films, nil
}

// extractFilm pulls the title and optional rating out of one poster
// container. Containers without an img alt are skipped.
func extractFilm(container *html.Node) (Film, bool) {
	var film Film
	var found bool

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "img" && !found:
				if alt := attr(n, "alt"); alt != "" {
					film.Title = alt
					found = true
				}
			case n.Data == "span" && hasClass(n, "rating"):
				if score, ok := parseStars(textContent(n)); ok {
					film.Score = score
					film.Rated = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(container)
	return film, found
}

// parseStars converts a Letterboxd star string to a half-step score:
// each ★ counts 1.0 and a trailing ½ adds 0.5. Returns false when the
// text holds no stars at all.
func parseStars(s string) (float64, bool) {
	stars := strings.Count(s, "★")
	half := strings.Count(s, "½")
	if stars == 0 && half == 0 {
		return 0, false
	}
	return float64(stars) + 0.5*float64(half), true
}

// hasClass reports whether the node's class attribute contains name as
// a whole word.
func hasClass(n *html.Node, name string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == name {
			return true
		}
	}
	return false
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates all text beneath the node.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
