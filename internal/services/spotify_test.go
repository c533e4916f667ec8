package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/moodmix/internal/models"
	"github.com/desertthunder/moodmix/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchPayload = `{
  "tracks": {
    "href": "",
    "limit": 5,
    "offset": 0,
    "total": 2,
    "items": [
      {
        "id": "1",
        "name": "Chandelier",
        "artists": [{"id": "a1", "name": "Sia"}, {"id": "a2", "name": "Guest"}],
        "album": {"name": "1000 Forms of Fear", "images": [{"url": "http://img/1-large.jpg"}, {"url": "http://img/1-small.jpg"}]},
        "preview_url": "http://preview/1",
        "external_urls": {"spotify": "https://open.spotify.com/track/1"}
      },
      {
        "id": "2",
        "name": "Bare",
        "artists": [],
        "album": {"name": "", "images": []},
        "preview_url": null,
        "external_urls": {}
      }
    ]
  }
}`

func newSpotifyServer(t *testing.T, tokenCalls *int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(tokenCalls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"app-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer app-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		q := r.URL.Query()
		if q.Get("type") != "track" || q.Get("limit") != "5" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if q.Get("q") == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"status":500,"message":"upstream"}}`))
			return
		}
		_, _ = w.Write([]byte(searchPayload))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSpotifyCatalog(t *testing.T) {
	ctx := context.Background()

	t.Run("requires credentials", func(t *testing.T) {
		_, err := NewSpotifyCatalog(ctx, SpotifyOpts{ClientID: "id"})
		assert.ErrorIs(t, err, shared.ErrMissingCredentials)
	})

	t.Run("SearchTracks maps results", func(t *testing.T) {
		var tokenCalls int32
		srv := newSpotifyServer(t, &tokenCalls)

		catalog, err := NewSpotifyCatalog(ctx, SpotifyOpts{
			ClientID:     "id",
			ClientSecret: "secret",
			TokenURL:     srv.URL + "/api/token",
			APIURL:       srv.URL + "/v1/",
			HTTPClient:   srv.Client(),
		})
		require.NoError(t, err)

		tracks, err := catalog.SearchTracks(ctx, "Sia", 5)
		require.NoError(t, err)
		require.Len(t, tracks, 2)

		assert.Equal(t, models.Track{
			ID:          "1",
			Title:       "Chandelier",
			Artist:      "Sia",
			AlbumArtURL: "http://img/1-large.jpg",
			PreviewURL:  "http://preview/1",
			ExternalURL: "https://open.spotify.com/track/1",
		}, tracks[0])

		assert.Equal(t, "2", tracks[1].ID)
		assert.Empty(t, tracks[1].Artist)
		assert.Empty(t, tracks[1].AlbumArtURL)
		assert.Empty(t, tracks[1].PreviewURL)

		_, err = catalog.SearchTracks(ctx, "melancholy", 5)
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&tokenCalls), "app token should be reused while valid")
	})

	t.Run("SearchTracks wraps upstream errors", func(t *testing.T) {
		var tokenCalls int32
		srv := newSpotifyServer(t, &tokenCalls)

		catalog, err := NewSpotifyCatalog(ctx, SpotifyOpts{
			ClientID:     "id",
			ClientSecret: "secret",
			TokenURL:     srv.URL + "/api/token",
			APIURL:       srv.URL + "/v1/",
			HTTPClient:   srv.Client(),
		})
		require.NoError(t, err)

		_, err = catalog.SearchTracks(ctx, "fail", 5)
		assert.ErrorIs(t, err, shared.ErrAPIRequest)
	})
}
