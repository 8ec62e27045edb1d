package library

import (
	"math"
	"strings"
)

// Game is one entry scraped from a user's library listing.
type Game struct {
	ID     string   `json:"id,omitempty"`
	Title  string   `json:"title,omitempty"`
	Rating *float64 `json:"rating,omitempty"`
	Slug   string   `json:"slug,omitempty"`
}

// CacheEntry is the full cached library for one username.
// It is only ever written wholesale: a failed scrape never touches it.
type CacheEntry struct {
	Games     []Game
	FetchedAt int64 // epoch millis
}

// Stars renders the 0-5 rating as filled/empty stars, rounded to the
// nearest whole star.
func (g Game) Stars() string {
	if g.Rating == nil {
		return "No rating"
	}

	n := int(math.Round(*g.Rating))
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}

	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

// DetailURL builds the game's detail page URL from its slug.
func (g Game) DetailURL(baseURL string) string {
	if g.Slug == "" {
		return ""
	}

	return strings.TrimSuffix(baseURL, "/") + "/games/" + g.Slug
}
