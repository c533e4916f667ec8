package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/moodmix/internal/models"
	"github.com/desertthunder/moodmix/internal/shared"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyMaxLimit = 50
)

// SpotifyCatalog implements [Catalog] with Spotify track search.
//
// It authenticates with the client-credentials grant; the [oauth2] transport
// fetches a new app token whenever the current one expires.
type SpotifyCatalog struct {
	client *spotify.Client
}

// SpotifyOpts configures a [SpotifyCatalog].
type SpotifyOpts struct {
	ClientID     string
	ClientSecret string
	TokenURL     string        // defaults to the Spotify accounts endpoint
	APIURL       string        // overrides the Web API base URL, must end with "/"
	Timeout      time.Duration // per-request timeout
	HTTPClient   *http.Client  // base client used for token and API calls
}

// NewSpotifyCatalog creates a catalog client from app credentials.
func NewSpotifyCatalog(ctx context.Context, opts SpotifyOpts) (*SpotifyCatalog, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}
	if opts.TokenURL == "" {
		opts.TokenURL = spotifyTokenURL
	}

	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}

	config := &clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	httpClient := config.Client(ctx)
	httpClient.Timeout = opts.Timeout

	var clientOpts []spotify.ClientOption
	if opts.APIURL != "" {
		clientOpts = append(clientOpts, spotify.WithBaseURL(opts.APIURL))
	}

	return &SpotifyCatalog{client: spotify.New(httpClient, clientOpts...)}, nil
}

// SearchTracks runs a track search for term, returning at most limit results.
func (s *SpotifyCatalog) SearchTracks(ctx context.Context, term string, limit int) ([]models.Track, error) {
	if limit <= 0 || limit > spotifyMaxLimit {
		limit = spotifyMaxLimit
	}

	result, err := s.client.Search(ctx, term, spotify.SearchTypeTrack, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("%w: spotify search %q: %v", shared.ErrAPIRequest, term, err)
	}

	if result == nil || result.Tracks == nil {
		return nil, nil
	}

	tracks := make([]models.Track, 0, len(result.Tracks.Tracks))
	for _, ft := range result.Tracks.Tracks {
		tracks = append(tracks, trackFromSpotify(ft))
	}
	return tracks, nil
}

// trackFromSpotify maps a search hit, taking the first artist and first album image.
func trackFromSpotify(ft spotify.FullTrack) models.Track {
	track := models.Track{
		ID:          string(ft.ID),
		Title:       ft.Name,
		PreviewURL:  ft.PreviewURL,
		ExternalURL: ft.ExternalURLs["spotify"],
	}
	if len(ft.Artists) > 0 {
		track.Artist = ft.Artists[0].Name
	}
	if len(ft.Album.Images) > 0 {
		track.AlbumArtURL = ft.Album.Images[0].URL
	}
	return track
}
