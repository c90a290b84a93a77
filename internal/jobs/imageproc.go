package jobs

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/disintegration/imaging"
)

// thumbnailBoxSide is the side of the square box thumbnails are fit within, matching the
// source's THUMBNAIL_SIZE. Images already at or under the box are left
// untouched rather than upscaled.
const thumbnailBoxSide = 200

// jpegQuality is the output quality for thumbnail encoding.
const jpegQuality = 85

// imageFetchTimeout bounds each individual per-image download.
const imageFetchTimeout = 10 * time.Second

// ProcessImages walks the <img> sources of htmlContent in document order,
// downloads each, and resizes it into a base64 JPEG thumbnail, stopping once
// maxImages thumbnails exist. Any image that fails to download or decode is
// skipped and the next source is tried; the function always succeeds,
// reporting the number of thumbnails actually produced.
func ProcessImages(ctx context.Context, pageURL, htmlContent string, maxImages int) ([]string, int) {
	thumbnails := []string{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return thumbnails, 0
	}
	base, _ := url.Parse(pageURL)

	client := &http.Client{Timeout: imageFetchTimeout}

	doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(thumbnails) >= maxImages {
			return false
		}
		src, ok := s.Attr("src")
		if !ok {
			return true
		}
		resolved := resolveImageURL(base, src)
		if resolved == "" {
			return true
		}

		thumb, ok := fetchThumbnail(ctx, client, resolved)
		if ok {
			thumbnails = append(thumbnails, thumb)
		}
		return true
	})

	return thumbnails, len(thumbnails)
}

func fetchThumbnail(ctx context.Context, client *http.Client, imgURL string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgURL, nil)
	if err != nil {
		return "", false
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", false
	}

	thumb := fitWithinBox(img, thumbnailBoxSide)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", false
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), true
}

// fitWithinBox scales img down to fit within a side x side bounding box,
// preserving aspect ratio. Images already within the box are returned as-is
// (the source does not upscale small images).
func fitWithinBox(img image.Image, side int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= side && h <= side {
		return img
	}
	ratio := math.Min(float64(side)/float64(w), float64(side)/float64(h))
	newW := int(float64(w) * ratio)
	newH := int(float64(h) * ratio)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}
	return imaging.Resize(img, newW, newH, imaging.Lanczos)
}

func resolveImageURL(base *url.URL, src string) string {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return ""
	}
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
