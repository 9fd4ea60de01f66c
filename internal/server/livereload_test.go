package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagepress/internal/pipeline"
)

func readEvent(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
}

func TestLiveReloadHub_BroadcastsRenderedFingerprints(t *testing.T) {
	hub := NewLiveReloadHub(nil)
	hub.Broadcast("first")

	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Shutdown()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	assert.Equal(t, `{"hash":"first"}`, readEvent(t, r))

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	// Failed revisions never reload the page.
	hub.RevisionFinished(t.Context(), pipeline.Result{State: pipeline.StateExportFailed, Fingerprint: "ignored"})
	hub.RevisionFinished(t.Context(), pipeline.Result{State: pipeline.StateRendered, Fingerprint: "second"})
	assert.Equal(t, `{"hash":"second"}`, readEvent(t, r))
}

func TestLiveReloadHub_DeduplicatesAndShutsDown(t *testing.T) {
	hub := NewLiveReloadHub(nil)
	hub.Broadcast("a")
	hub.Broadcast("a")
	assert.Equal(t, "a", hub.lastHash)

	hub.Shutdown()
	hub.Broadcast("b")
	assert.Equal(t, "a", hub.lastHash)

	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livereload", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInjectLiveReload(t *testing.T) {
	page := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", "38")
		_, _ = w.Write([]byte("<html><body><p>x</p></body></html>"))
	})
	rec := httptest.NewRecorder()
	injectLiveReload(page).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/post.html", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Length"))
	assert.Equal(t, `<html><body><p>x</p>`+liveReloadTag+`</body></html>`, rec.Body.String())
}

func TestInjectLiveReload_SkipsNonHTML(t *testing.T) {
	css := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		_, _ = w.Write([]byte("body{}"))
	})
	rec := httptest.NewRecorder()
	injectLiveReload(css).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/themes/css/general.css", nil))
	assert.Equal(t, "body{}", rec.Body.String())

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) })
	rec = httptest.NewRecorder()
	injectLiveReload(notFound).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing.html", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "livereload")
}
