package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagepress/internal/journal"
	"git.home.luguber.info/inful/pagepress/internal/layout"
	"git.home.luguber.info/inful/pagepress/internal/pipeline"
	"git.home.luguber.info/inful/pagepress/internal/server/responses"
)

type fixedStatus pipeline.Snapshot

func (f fixedStatus) Status() pipeline.Snapshot { return pipeline.Snapshot(f) }

type fakeJournal struct {
	entries []journal.Entry
	err     error
	limit   int
}

func (f *fakeJournal) Session() string { return "sess" }

func (f *fakeJournal) Recent(_ context.Context, n int) ([]journal.Entry, error) {
	f.limit = n
	return f.entries, f.err
}

func router(h *APIHandlers) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/status", h.HandleStatus)
	r.Get("/api/revisions", h.HandleRevisions)
	r.Get("/api/artifacts/{name}", h.HandleArtifact)
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleStatus(t *testing.T) {
	h := NewAPIHandlers(fixedStatus{Revision: 3, State: pipeline.StateExportFailed, LastError: "dark failed"}, nil, t.TempDir(), nil)
	rec := get(t, router(h), "/api/status")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp responses.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "export_failed", resp.Status)
	assert.Equal(t, uint64(3), resp.Pipeline.Revision)
	assert.Equal(t, "dark failed", resp.Pipeline.LastError)
}

func TestHandleStatus_IdleBeforeFirstRevision(t *testing.T) {
	h := NewAPIHandlers(fixedStatus{}, nil, t.TempDir(), nil)
	rec := get(t, router(h), "/api/status?pretty=1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "\n  \"status\": \"idle\"")
}

func TestHandleRevisions(t *testing.T) {
	j := &fakeJournal{entries: []journal.Entry{{Revision: 2, State: "rendered"}, {Revision: 1, State: "compile_failed"}}}
	h := NewAPIHandlers(fixedStatus{}, j, t.TempDir(), nil)

	rec := get(t, router(h), "/api/revisions?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, j.limit)

	var resp responses.RevisionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess", resp.Session)
	require.Len(t, resp.Revisions, 2)
	assert.Equal(t, uint64(2), resp.Revisions[0].Revision)
}

func TestHandleRevisions_Errors(t *testing.T) {
	disabled := NewAPIHandlers(fixedStatus{}, nil, t.TempDir(), nil)
	assert.Equal(t, http.StatusNotFound, get(t, router(disabled), "/api/revisions").Code)

	j := &fakeJournal{}
	h := NewAPIHandlers(fixedStatus{}, j, t.TempDir(), nil)
	assert.Equal(t, http.StatusBadRequest, get(t, router(h), "/api/revisions?limit=zero").Code)

	j.err = errors.New("database is locked")
	rec := get(t, router(h), "/api/revisions")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body responses.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal", body.Category)
	assert.Contains(t, body.Error, "database is locked")
}

func writeArtifact(t *testing.T, dir, name string) {
	t.Helper()
	data, err := layout.Encode(layout.Artifact{
		Header: layout.Header{Theme: "dark", Target: "web-dark", Style: "monokai"},
		Body:   layout.Body{Title: "Post", HTML: "<h1>Post</h1>"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

func TestHandleArtifact(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "post.dark.multi.sir.in")
	h := NewAPIHandlers(fixedStatus{}, nil, dir, nil)

	rec := get(t, router(h), "/api/artifacts/post.dark.multi.sir.in")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp responses.ArtifactResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dark", resp.Header.Theme)
	assert.Equal(t, "web-dark", resp.Header.Target)
	assert.Equal(t, "monokai", resp.Header.Style)
	assert.Equal(t, "<h1>Post</h1>", resp.Body.HTML)
	assert.Equal(t, []string{}, resp.Body.Fonts)
}

func TestHandleArtifact_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.dark.multi.sir.in"), []byte("garbage"), 0o600))
	h := NewAPIHandlers(fixedStatus{}, nil, dir, nil)
	r := router(h)

	assert.Equal(t, http.StatusBadRequest, get(t, r, "/api/artifacts/post.html").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, r, "/api/artifacts/.hidden.multi.sir.in").Code)
	assert.Equal(t, http.StatusNotFound, get(t, r, "/api/artifacts/missing.dark.multi.sir.in").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, get(t, r, "/api/artifacts/bad.dark.multi.sir.in").Code)
}
