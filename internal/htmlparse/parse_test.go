package htmlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleHTML = `
<html lang="en">
<head>
  <title>  Example Domain  </title>
  <meta name="description" content="An example page">
  <meta property="og:title" content="Example OG Title">
  <meta name="twitter:card" content="summary">
  <link rel="canonical" href="/canonical-page">
</head>
<body>
  <h1>Welcome</h1>
  <h2>Section A</h2>
  <h2>Section B</h2>
  <a href="/about">About</a>
  <a href="https://other.example.com/page">Other</a>
  <a href="/about">About Again</a>
  <a href="#section">Anchor</a>
  <img src="/a.png">
  <img src="/b.png">
</body>
</html>`

func TestParse_ExtractsTitleLinksStructure(t *testing.T) {
	data := Parse(sampleHTML, "https://example.com/index.html")

	assert.Equal(t, "Example Domain", data.Title)
	assert.Equal(t, []string{"https://example.com/about", "https://other.example.com/page"}, data.Links)
	assert.Equal(t, map[string]int{"h1": 1, "h2": 2}, data.Structure)
	assert.Equal(t, 2, data.ImagesCount)
	assert.Equal(t, "https://example.com/canonical-page", data.CanonicalURL)
	assert.Equal(t, "en", data.Language)
}

func TestParse_MetaTagNamespacesStripped(t *testing.T) {
	data := Parse(sampleHTML, "https://example.com")

	assert.Equal(t, "An example page", data.MetaTags.Basic["description"])
	assert.Equal(t, "Example OG Title", data.MetaTags.OpenGraph["title"])
	assert.Equal(t, "summary", data.MetaTags.Twitter["card"])
}

func TestParse_NonWhitelistedNameMetaTagGoesToOther(t *testing.T) {
	html := `<html><head><meta name="csrf-token" content="abc123"></head><body></body></html>`
	data := Parse(html, "https://example.com")

	assert.Equal(t, "abc123", data.MetaTags.Other["csrf-token"])
	assert.NotContains(t, data.MetaTags.Basic, "csrf-token")
}

func TestParse_NonHTTPSchemeLinksAreSkipped(t *testing.T) {
	html := `<html><body>
	  <a href="mailto:info@example.com">Mail</a>
	  <a href="tel:+15551234567">Call</a>
	  <a href="ftp://example.com/file">FTP</a>
	  <a href="/contact">Contact</a>
	</body></html>`
	data := Parse(html, "https://example.com")

	assert.Equal(t, []string{"https://example.com/contact"}, data.Links)
}

func TestParse_EmptyDocumentDegradesGracefully(t *testing.T) {
	data := Parse("", "https://example.com")

	assert.Equal(t, "", data.Title)
	assert.Equal(t, []string{}, data.Links)
	assert.Equal(t, map[string]int{}, data.Structure)
	assert.Equal(t, 0, data.ImagesCount)
}

func TestParse_MalformedHTMLDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Parse("<html><body><div>unterminated", "https://example.com")
	})
}
