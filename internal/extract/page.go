package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/danielpatrickdp/hinteval/internal/feature"
)

// #region type-map

var imdbTypeMap = map[string]feature.ContentType{
	"movie":        feature.ContentMovie,
	"tvseries":     feature.ContentSeries,
	"tvepisode":    feature.ContentSeries,
	"tvminiseries": feature.ContentSeries,
	"short":        feature.ContentShort,
	"person":       feature.ContentPerson,
}

// #endregion type-map

// #region imdb-page

// imdbPage is what an IMDb title or name page yields.
type imdbPage struct {
	OfficialTitle string
	ContentType   feature.ContentType
	IMDBRating    *float64
	IMDBVotes     *int
	Starmeter     *int
}

var starmeterRe = regexp.MustCompile(`(?i)STARmeter\s*([0-9,]+)`)

// parseIMDB pulls title, type, rating, votes, and STARmeter rank out of a
// cached IMDb page. JSON-LD is authoritative; og:title and <title> are
// fallbacks for the name only.
func parseIMDB(html string) imdbPage {
	page := imdbPage{ContentType: feature.ContentUnknown}
	if html == "" {
		return page
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return page
	}

	if ld := parseJSONLD(doc); ld != nil {
		rawType := strings.ToLower(asString(ld["@type"]))
		if ct, ok := imdbTypeMap[rawType]; ok {
			page.ContentType = ct
		}
		if name := strings.TrimSpace(asString(ld["name"])); name != "" {
			page.OfficialTitle = name
		}
		if rating, ok := ld["aggregateRating"].(map[string]any); ok {
			if v, ok := asFloat(rating["ratingValue"]); ok {
				page.IMDBRating = &v
			}
			if v, ok := asInt(rating["ratingCount"]); ok {
				page.IMDBVotes = &v
			}
		}
	}

	if page.OfficialTitle == "" {
		if content, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
			if title := cleanIMDBTitle(content); title != "" {
				page.OfficialTitle = title
			}
		}
	}
	if page.OfficialTitle == "" {
		if title := cleanIMDBTitle(doc.Find("title").First().Text()); title != "" {
			page.OfficialTitle = title
		}
	}

	if m := starmeterRe.FindStringSubmatch(html); m != nil {
		if rank, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", "")); err == nil {
			page.Starmeter = &rank
		}
	}

	return page
}

func cleanIMDBTitle(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, " - IMDb", ""))
}

// parseJSONLD returns the first ld+json object that declares an @type.
// Top-level arrays are searched in order.
func parseJSONLD(doc *goquery.Document) map[string]any {
	var found map[string]any
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			return true
		}
		switch v := decoded.(type) {
		case map[string]any:
			if _, ok := v["@type"]; ok {
				found = v
				return false
			}
		case []any:
			for _, item := range v {
				if obj, ok := item.(map[string]any); ok {
					if _, ok := obj["@type"]; ok {
						found = obj
						return false
					}
				}
			}
		}
		return true
	})
	return found
}

// #endregion imdb-page

// #region google-page

// parseGoogleTitle pulls the page title from a cached Google knowledge page.
func parseGoogleTitle(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if content, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if title := strings.TrimSpace(content); title != "" {
			return title
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// parseGoogleCandidates lists distinct result headers from a cached search page.
func parseGoogleCandidates(html string, limit int) []string {
	if html == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var candidates []string
	seen := make(map[string]bool)
	doc.Find("h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text != "" && !seen[text] {
			seen[text] = true
			candidates = append(candidates, text)
		}
		return len(candidates) < limit
	})
	return candidates
}

// parseIMDBCandidates lists distinct title/name anchor texts from a cached
// IMDb search page.
func parseIMDBCandidates(html string, limit int) []string {
	if html == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var candidates []string
	seen := make(map[string]bool)
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !strings.Contains(href, "/title/tt") && !strings.Contains(href, "/name/nm") {
			return true
		}
		text := strings.TrimSpace(s.Text())
		if len(text) < 2 || seen[text] {
			return true
		}
		seen[text] = true
		candidates = append(candidates, text)
		return len(candidates) < limit
	})
	return candidates
}

// #endregion google-page

// #region json-coercion

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(n, ",", ""), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.ReplaceAll(n, ",", ""))
		return i, err == nil
	default:
		return 0, false
	}
}

// #endregion json-coercion
