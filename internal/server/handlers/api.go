package handlers

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	perrors "git.home.luguber.info/inful/pagepress/internal/errors"
	"git.home.luguber.info/inful/pagepress/internal/journal"
	"git.home.luguber.info/inful/pagepress/internal/layout"
	"git.home.luguber.info/inful/pagepress/internal/logfields"
	"git.home.luguber.info/inful/pagepress/internal/paths"
	"git.home.luguber.info/inful/pagepress/internal/pipeline"
	"git.home.luguber.info/inful/pagepress/internal/server/responses"
	"git.home.luguber.info/inful/pagepress/internal/version"
)

const defaultRevisionLimit = 50

// StatusSource reports the pipeline snapshot.
type StatusSource interface {
	Status() pipeline.Snapshot
}

// RevisionSource lists journaled revisions.
type RevisionSource interface {
	Session() string
	Recent(ctx context.Context, n int) ([]journal.Entry, error)
}

// APIHandlers contains the JSON API handlers.
type APIHandlers struct {
	status      StatusSource
	journal     RevisionSource
	artifactDir string
	started     time.Time
	logger      *slog.Logger
}

// NewAPIHandlers creates a new API handlers instance. journal may be nil when
// the revision journal is disabled.
func NewAPIHandlers(status StatusSource, journal RevisionSource, artifactDir string, logger *slog.Logger) *APIHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandlers{
		status:      status,
		journal:     journal,
		artifactDir: artifactDir,
		started:     time.Now(),
		logger:      logger,
	}
}

// HandleStatus serves the pipeline snapshot.
func (h *APIHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	snap := h.status.Status()
	state := "idle"
	if snap.Revision > 0 {
		state = string(snap.State)
	}
	resp := &responses.StatusResponse{
		Status:    state,
		Version:   version.Version,
		Uptime:    time.Since(h.started).Seconds(),
		StartTime: h.started,
		Pipeline:  snap,
	}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		writeError(w, http.StatusInternalServerError, perrors.InternalError("failed to encode status", err))
	}
}

// HandleRevisions serves the most recent journal entries. ?limit=n caps the list.
func (h *APIHandlers) HandleRevisions(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeError(w, http.StatusNotFound, perrors.ValidationError("revision journal is disabled"))
		return
	}
	limit := defaultRevisionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, perrors.ValidationError("limit must be a positive integer"))
			return
		}
		limit = n
	}
	entries, err := h.journal.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Journal query failed", logfields.Error(err))
		writeError(w, http.StatusInternalServerError, perrors.InternalError("journal query failed", err))
		return
	}
	resp := &responses.RevisionsResponse{Session: h.journal.Session(), Revisions: entries}
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		writeError(w, http.StatusInternalServerError, perrors.InternalError("failed to encode revisions", err))
	}
}

// HandleArtifact decodes a theme artifact next to the asset dir and returns
// it as JSON for the browser runtime.
func (h *APIHandlers) HandleArtifact(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !validArtifactName(name) {
		writeError(w, http.StatusBadRequest, perrors.ValidationError("invalid artifact name"))
		return
	}
	a, err := layout.Read(filepath.Join(h.artifactDir, name))
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, perrors.ValidationError("artifact not found"))
		return
	case errors.Is(err, layout.ErrBadMagic), errors.Is(err, layout.ErrDigestMismatch), errors.Is(err, layout.ErrTruncated):
		writeError(w, http.StatusUnprocessableEntity, perrors.Wrap(err, perrors.CategoryExport, perrors.SeverityError, "corrupt artifact"))
		return
	default:
		writeError(w, http.StatusInternalServerError, perrors.InternalError("artifact read failed", err))
		return
	}

	fonts := a.Body.Fonts
	if fonts == nil {
		fonts = []string{}
	}
	resp := &responses.ArtifactResponse{
		Name: name,
		Header: responses.ArtifactHeader{
			Version: a.Header.Version,
			Theme:   a.Header.Theme,
			Target:  a.Header.Target,
			Style:   a.Header.Style,
			Digest:  a.Header.Digest,
		},
		Body: responses.ArtifactBody{Title: a.Body.Title, HTML: a.Body.HTML, Fonts: fonts},
	}
	w.Header().Set("Cache-Control", "no-cache")
	if err := writeJSONPretty(w, r, http.StatusOK, resp); err != nil {
		writeError(w, http.StatusInternalServerError, perrors.InternalError("failed to encode artifact", err))
	}
}

func validArtifactName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return false
	}
	return strings.HasSuffix(name, "."+paths.ArtifactExtension)
}
