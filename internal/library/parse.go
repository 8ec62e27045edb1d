package library

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	cardSelector       = "#user-games-library-container .rating-hover .card"
	paginationSelector = "nav.pagy a[href]"
	gamePathPrefix     = "/games/"
)

var pageParamRe = regexp.MustCompile(`page=(\d+)`)

// ParsePage extracts the game cards from one library listing document,
// in document order. Cards missing a title or rating are kept with the
// field left empty; a missing field is not an error.
func ParsePage(doc *goquery.Document) []Game {
	var out []Game

	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		g := Game{}
		g.ID, _ = card.Attr("game_id")

		if raw, ok := card.Attr("data-rating"); ok {
			if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
				// The site stores ratings on a 0-10 scale, displayed as 0-5.
				r := v / 2
				g.Rating = &r
			}
		}

		g.Title = strings.TrimSpace(card.Find(".game-text-centered").First().Text())

		if href, ok := card.Find("a.cover-link").First().Attr("href"); ok {
			g.Slug = strings.TrimSuffix(strings.TrimPrefix(href, gamePathPrefix), "/")
		}

		out = append(out, g)
	})

	return out
}

// MaxPages scans the pagination anchors of a listing document and returns
// the highest numeric page parameter found. Anchors without a parseable
// page number are ignored; a document with no usable anchors is a
// single-page library.
func MaxPages(doc *goquery.Document) int {
	maxPage := 1

	doc.Find(paginationSelector).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := pageParamRe.FindStringSubmatch(href)
		if m == nil {
			return
		}

		if n, err := strconv.Atoi(m[1]); err == nil && n > maxPage {
			maxPage = n
		}
	})

	return maxPage
}
