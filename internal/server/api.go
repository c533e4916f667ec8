package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodmix/internal/shared"
	"github.com/desertthunder/moodmix/internal/tasks"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	msgNoTracks         = "Could not find any tracks for that mood."
	msgGenerateFailed   = "Failed to generate playlist."
	msgPlaylistNotFound = "Playlist not found"
	msgServerError      = "Server Error"
	msgHistoryFailed    = "Failed to fetch history."
	msgMoodRequired     = "Mood is required."
	msgTimeout          = "Request timed out."
)

// API serves the playlist routes over a [tasks.Pipeline].
type API struct {
	pipeline tasks.Pipeline
	logger   *log.Logger
}

func NewAPI(pipeline tasks.Pipeline, logger *log.Logger) *API {
	return &API{pipeline: pipeline, logger: logger}
}

// Register mounts the routes on r. Routes that need an owner are wrapped with auth.
func (a *API) Register(r Router, auth *Authenticator) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.health))
	r.Handle(http.MethodGet, "/playlist/{id}", http.HandlerFunc(a.getPlaylist))

	protected := r
	if auth != nil {
		protected = r.With(auth.Middleware)
	}
	protected.Handle(http.MethodPost, "/generate-playlist", http.HandlerFunc(a.generate))
	protected.Handle(http.MethodPost, "/playlist/{id}/add", http.HandlerFunc(a.appendTracks))
	protected.Handle(http.MethodGet, "/history", http.HandlerFunc(a.history))
}

type moodRequest struct {
	Mood string `json:"mood"`
}

func decodeMood(r *http.Request) (string, error) {
	var req moodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", err
	}
	mood := strings.TrimSpace(req.Mood)
	if mood == "" {
		return "", shared.ErrInvalidInput
	}
	return mood, nil
}

func (a *API) requestLogger(r *http.Request) *log.Logger {
	return shared.WithLogger(a.logger, "request_id", middleware.GetReqID(r.Context()))
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) generate(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	mood, err := decodeMood(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgMoodRequired)
		return
	}

	pl, err := a.pipeline.Generate(r.Context(), owner, mood, nil)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, pl)
	case timedOut(r):
		writeError(w, http.StatusGatewayTimeout, msgTimeout)
	case errors.Is(err, shared.ErrNoResults):
		writeError(w, http.StatusNotFound, msgNoTracks)
	case errors.Is(err, shared.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, msgMoodRequired)
	default:
		a.requestLogger(r).Error("generate failed", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, msgGenerateFailed)
	}
}

func (a *API) appendTracks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	mood, err := decodeMood(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgMoodRequired)
		return
	}

	pl, err := a.pipeline.Append(r.Context(), id, mood, nil)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, pl)
	case timedOut(r):
		writeError(w, http.StatusGatewayTimeout, msgTimeout)
	case errors.Is(err, shared.ErrPlaylistNotFound):
		writeError(w, http.StatusNotFound, msgPlaylistNotFound)
	default:
		a.requestLogger(r).Error("append failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, msgServerError)
	}
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	playlists, err := a.pipeline.History(r.Context(), owner)
	if err != nil {
		a.requestLogger(r).Error("history failed", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, msgHistoryFailed)
		return
	}
	writeJSON(w, http.StatusOK, playlists)
}

func (a *API) getPlaylist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	pl, err := a.pipeline.Playlist(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, pl)
	case errors.Is(err, shared.ErrPlaylistNotFound):
		writeError(w, http.StatusNotFound, msgPlaylistNotFound)
	default:
		a.requestLogger(r).Error("load failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, msgServerError)
	}
}

// timedOut reports whether the request deadline expired. Failed searches then look like
// an empty result, so it is checked before mapping pipeline errors.
func timedOut(r *http.Request) bool {
	return errors.Is(r.Context().Err(), context.DeadlineExceeded)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
