package jobs

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSolidJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bufferCloser
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

type bufferCloser struct{ data []byte }

func (b *bufferCloser) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}
func (b *bufferCloser) Bytes() []byte { return b.data }

func TestProcessImages_DownloadsAndThumbnails(t *testing.T) {
	img := newSolidJPEG(t, 800, 400)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(img)
	}))
	defer srv.Close()

	html := `<html><body><img src="/pic1.jpg"><img src="/pic2.jpg"></body></html>`

	thumbs, count := ProcessImages(context.Background(), srv.URL, html, 5)

	assert.Equal(t, 2, count)
	assert.Len(t, thumbs, 2)
	for _, th := range thumbs {
		assert.NotEmpty(t, th)
	}
}

func TestProcessImages_RespectsMaxImages(t *testing.T) {
	img := newSolidJPEG(t, 50, 50)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(img)
	}))
	defer srv.Close()

	html := `<html><body><img src="/a.jpg"><img src="/b.jpg"><img src="/c.jpg"></body></html>`

	thumbs, count := ProcessImages(context.Background(), srv.URL, html, 2)

	assert.Equal(t, 2, count)
	assert.Len(t, thumbs, 2)
}

func TestProcessImages_SkipsFailedDownloadsWithoutFailingOverall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	html := `<html><body><img src="/missing.jpg"></body></html>`

	thumbs, count := ProcessImages(context.Background(), srv.URL, html, 5)

	assert.Equal(t, 0, count)
	assert.Empty(t, thumbs)
}

func TestProcessImages_SkipsDataURIsAndEmptySrc(t *testing.T) {
	html := `<html><body><img src=""><img src="data:image/png;base64,aaaa"></body></html>`

	thumbs, count := ProcessImages(context.Background(), "https://example.com", html, 5)

	assert.Equal(t, 0, count)
	assert.Empty(t, thumbs)
}

func TestFitWithinBox_DownscalesPreservingAspectAndNeverUpscales(t *testing.T) {
	large := image.NewRGBA(image.Rect(0, 0, 800, 400))
	fitted := fitWithinBox(large, thumbnailBoxSide)
	b := fitted.Bounds()
	assert.LessOrEqual(t, b.Dx(), thumbnailBoxSide)
	assert.LessOrEqual(t, b.Dy(), thumbnailBoxSide)
	assert.Equal(t, 200, b.Dx())
	assert.Equal(t, 100, b.Dy())

	small := image.NewRGBA(image.Rect(0, 0, 50, 30))
	untouched := fitWithinBox(small, thumbnailBoxSide)
	assert.Equal(t, small.Bounds(), untouched.Bounds())
}
