package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/moodmix/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeminiServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-2.0-flash:generateContent") {
			http.NotFound(w, r)
			return
		}
		key := r.Header.Get("x-goog-api-key")
		if key == "" {
			key = r.URL.Query().Get("key")
		}
		if key != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if seen != nil {
			var req map[string]any
			_ = json.NewDecoder(r.Body).Decode(&req)
			*seen = req
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiService(t *testing.T) {
	ctx := context.Background()

	t.Run("requires an API key", func(t *testing.T) {
		_, err := NewGeminiService(ctx, GeminiOpts{})
		assert.ErrorIs(t, err, shared.ErrMissingCredentials)
	})

	t.Run("Generate returns candidate text", func(t *testing.T) {
		var seen map[string]any
		srv := newGeminiServer(t, http.StatusOK,
			`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"coreArtists\":"},{"text":"[],\"vibeKeywords\":[]}"}]}}]}`,
			&seen)

		g, err := NewGeminiService(ctx, GeminiOpts{APIKey: "test-key", Endpoint: srv.URL + "/", HTTPClient: srv.Client()})
		require.NoError(t, err)
		assert.Equal(t, "gemini-2.0-flash", g.Name())

		text, err := g.Generate(ctx, "Act as a DJ")
		require.NoError(t, err)
		assert.Equal(t, `{"coreArtists":[],"vibeKeywords":[]}`, text)

		contents, ok := seen["contents"].([]any)
		require.True(t, ok, "request should carry contents")
		require.Len(t, contents, 1)
		first := contents[0].(map[string]any)
		assert.Equal(t, "user", first["role"])
	})

	t.Run("Generate wraps API errors", func(t *testing.T) {
		srv := newGeminiServer(t, http.StatusBadRequest, `{"error":{"code":400,"message":"boom","status":"INVALID_ARGUMENT"}}`, nil)

		g, err := NewGeminiService(ctx, GeminiOpts{APIKey: "test-key", Endpoint: srv.URL + "/", HTTPClient: srv.Client()})
		require.NoError(t, err)

		_, err = g.Generate(ctx, "prompt")
		assert.True(t, errors.Is(err, shared.ErrAPIRequest), "got %v", err)
	})

	t.Run("Generate rejects empty candidates", func(t *testing.T) {
		srv := newGeminiServer(t, http.StatusOK, `{"candidates":[]}`, nil)

		g, err := NewGeminiService(ctx, GeminiOpts{APIKey: "test-key", Endpoint: srv.URL + "/", HTTPClient: srv.Client()})
		require.NoError(t, err)

		_, err = g.Generate(ctx, "prompt")
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
	})
}
