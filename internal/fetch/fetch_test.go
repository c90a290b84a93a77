package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_SetsHeadersAndReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DesktopUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "gzip, deflate", r.Header.Get("Accept-Encoding"))
		w.Write([]byte("<html><title>Example</title></html>"))
	}))
	defer srv.Close()

	result, err := Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Contains(t, result.Body, "Example")
}

func TestGet_NonSuccessStatusStillReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	}))
	defer srv.Close()

	result, err := Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Equal(t, "not found", result.Body)
}

func TestGet_TransportFailureReturnsError(t *testing.T) {
	_, err := Get(context.Background(), "http://127.0.0.1:0")
	assert.Error(t, err)
}
