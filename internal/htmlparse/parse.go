// Package htmlparse implements the frontend's light-phase HTML analysis:
// title, links, heading structure, image count, and meta tag extraction.
// This is a pure function over the downloaded document; parsing errors
// degrade gracefully rather than failing the task.
package htmlparse

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"scrapeforge.xyz/orchestrator/internal/task"
)

var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// Parse produces ScrapingData from html. baseURL resolves relative links
// and the canonical URL to absolute form; a malformed baseURL is tolerated
// and simply leaves unresolved links as-is.
func Parse(html string, baseURL string) *task.ScrapingData {
	data := &task.ScrapingData{
		Links:     []string{},
		Structure: map[string]int{},
		MetaTags: task.MetaTags{
			Basic:     map[string]string{},
			OpenGraph: map[string]string{},
			Twitter:   map[string]string{},
			Other:     map[string]string{},
		},
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return data
	}

	base, _ := url.Parse(baseURL)

	data.Title = strings.TrimSpace(doc.Find("title").First().Text())
	data.Links = extractLinks(doc, base)
	data.Structure = extractStructure(doc)
	data.ImagesCount = doc.Find("img").Length()
	data.MetaTags = extractMetaTags(doc)
	data.CanonicalURL = extractCanonical(doc, base)
	data.Language = extractLanguage(doc)

	return data
}

func extractLinks(doc *goquery.Document, base *url.URL) []string {
	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		resolved := resolve(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		if parsed, err := url.Parse(resolved); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})

	if links == nil {
		links = []string{}
	}
	return links
}

func extractStructure(doc *goquery.Document) map[string]int {
	structure := map[string]int{}
	for _, tag := range headingTags {
		count := doc.Find(tag).Length()
		if count > 0 {
			structure[tag] = count
		}
	}
	return structure
}

// basicMetaNames is the curated whitelist of "name" meta tags that land in
// MetaTags.Basic; everything else (csrf-token and the like) goes to Other.
var basicMetaNames = map[string]bool{
	"description": true,
	"keywords":    true,
	"author":      true,
	"viewport":    true,
	"robots":      true,
	"generator":   true,
	"theme-color": true,
	"charset":     true,
}

func extractMetaTags(doc *goquery.Document) task.MetaTags {
	tags := task.MetaTags{
		Basic:     map[string]string{},
		OpenGraph: map[string]string{},
		Twitter:   map[string]string{},
		Other:     map[string]string{},
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, hasContent := s.Attr("content")
		if !hasContent {
			return
		}
		if property, ok := s.Attr("property"); ok {
			switch {
			case strings.HasPrefix(property, "og:"):
				tags.OpenGraph[strings.TrimPrefix(property, "og:")] = content
			default:
				tags.Other[property] = content
			}
			return
		}
		if name, ok := s.Attr("name"); ok {
			switch {
			case strings.HasPrefix(name, "twitter:"):
				tags.Twitter[strings.TrimPrefix(name, "twitter:")] = content
			case basicMetaNames[name]:
				tags.Basic[name] = content
			default:
				tags.Other[name] = content
			}
		}
	})

	return tags
}

func extractCanonical(doc *goquery.Document, base *url.URL) string {
	href, ok := doc.Find("link[rel=canonical]").First().Attr("href")
	if !ok {
		return ""
	}
	return resolve(base, href)
}

func extractLanguage(doc *goquery.Document) string {
	if lang, ok := doc.Find("html").First().Attr("lang"); ok && lang != "" {
		return lang
	}
	if content, ok := doc.Find(`meta[http-equiv="content-language"]`).First().Attr("content"); ok {
		return content
	}
	return ""
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
