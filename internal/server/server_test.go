package server

import (
	"compress/gzip"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagepress/internal/pipeline"
)

type staticStatus struct{}

func (staticStatus) Status() pipeline.Snapshot {
	return pipeline.Snapshot{Revision: 1, State: pipeline.StateRendered}
}

func newTestServer(t *testing.T, opts Options) (*Server, string, string) {
	t.Helper()
	assets := t.TempDir()
	dev := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(assets, "post.html"), []byte("<html><body>post "+strings.Repeat("x", 2048)+"</body></html>"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "notes.txt"), []byte("dev file"), 0o600))
	opts.AssetDir = assets
	opts.DevDir = dev
	opts.Status = staticStatus{}
	s, err := New(opts)
	require.NoError(t, err)
	return s, assets, dev
}

func do(t *testing.T, h http.Handler, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_Validates(t *testing.T) {
	_, err := New(Options{AssetDir: "."})
	require.Error(t, err)
	_, err = New(Options{Status: staticStatus{}})
	require.Error(t, err)
}

func TestServer_ServesAssetsAndDevDir(t *testing.T) {
	s, _, _ := newTestServer(t, Options{})
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/post.html", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "post")
	assert.NotContains(t, rec.Body.String(), "livereload.js")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, h, http.MethodGet, "/dev/notes.txt", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev file", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/missing.css", nil).Code)
}

func TestServer_IsReadOnly(t *testing.T) {
	s, _, _ := newTestServer(t, Options{})
	h := s.Handler()

	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/post.html", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodDelete, "/dev/notes.txt", nil).Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodOptions, "/post.html", nil).Code)
}

func TestServer_Gzip(t *testing.T) {
	s, _, _ := newTestServer(t, Options{})
	rec := do(t, s.Handler(), http.MethodGet, "/post.html", map[string]string{"Accept-Encoding": "gzip"})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), "post xxx")
}

func TestServer_LiveReloadInjection(t *testing.T) {
	s, _, _ := newTestServer(t, Options{LiveReload: NewLiveReloadHub(nil)})
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/post.html", nil)
	assert.Contains(t, rec.Body.String(), liveReloadTag+"</body>")

	rec = do(t, h, http.MethodGet, "/livereload.js", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "EventSource('/livereload')")
}

func TestServer_APIAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pagepress_revisions_total 1\n"))
	})
	s, _, _ := newTestServer(t, Options{Metrics: metrics})
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"rendered"`)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/revisions", nil).Code)
	assert.Contains(t, do(t, h, http.MethodGet, "/metrics", nil).Body.String(), "pagepress_revisions_total")
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	s, _, _ := newTestServer(t, Options{ShutdownGrace: time.Second})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/post.html"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) // #nosec G107 -- test server
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
