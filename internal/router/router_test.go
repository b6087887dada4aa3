package router

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onebite/internal/handlers"
	"onebite/internal/middleware"
	"onebite/internal/services"
	"onebite/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type allowAll struct{}

func (allowAll) Evaluate(ctx context.Context, text string) services.Verdict {
	return services.Allow(services.StageClassifier)
}

type silentLLM struct{}

func (silentLLM) Complete(ctx context.Context, prompt string) (string, error) { return "", nil }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newEngine(t *testing.T) (*gin.Engine, *services.BoardService) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "templates", "layouts", "base.html"),
		`<html><body>{{template "content" .}}</body></html>`)
	writeFile(t, filepath.Join(dir, "templates", "views", "index.html"),
		`{{define "content"}}limit={{.PostLimit}}{{range .Posts}}<div>{{markdown .Content}}</div><i>{{timeAgo .CreatedAt}}</i>{{end}}{{end}}`)
	writeFile(t, filepath.Join(dir, "static", "css", "style.css"), "body{}")

	s := store.New()
	limiter := services.NewRateLimiter(3, services.NewMemoryCounters())
	board := services.NewBoardService(s, limiter, allowAll{}, nil)

	engine, err := New(Options{
		TemplatesDir:   filepath.Join(dir, "templates"),
		StaticDir:      filepath.Join(dir, "static"),
		MaxInflight:    4,
		MaxUploadBytes: 1 << 20,
	}, Handlers{
		Board:  handlers.NewBoardHandler(board),
		Upload: handlers.NewUploadHandler(services.NewLocalImageStore(filepath.Join(dir, "static", "uploads"), "/static/uploads", 1<<20)),
		Chat:   handlers.NewChatHandler(services.NewChatService(silentLLM{}, time.Second)),
	})
	require.NoError(t, err)
	return engine, board
}

func TestIndexPage(t *testing.T) {
	engine, board := newEngine(t)
	_, err := board.CreatePost(context.Background(), "10.0.0.1", "**bold** move", "")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "limit=3")
	assert.Contains(t, body, "<strong>bold</strong> move")
	assert.Contains(t, body, "just now")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestRoutesRegistered(t *testing.T) {
	engine, _ := newEngine(t)

	routes := map[string]bool{}
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /", "GET /posts", "POST /post", "GET /post/:id", "POST /like/:id",
		"POST /comment/:id", "PUT /comment/:id/:cid", "DELETE /comment/:id/:cid",
		"GET /search", "POST /upload", "POST /chat",
	} {
		assert.True(t, routes[want], want)
	}
}

func TestGzipAndStatic(t *testing.T) {
	engine, _ := newEngine(t)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"success":true`))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/css/style.css", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "body{}", w.Body.String())
}

func TestLoadTemplatesMissingLayouts(t *testing.T) {
	_, err := LoadTemplates(t.TempDir())
	assert.Error(t, err)
}

func TestTimeAgo(t *testing.T) {
	assert.Equal(t, "", TimeAgo(time.Time{}))
	assert.Equal(t, "just now", TimeAgo(time.Now()))
	assert.Equal(t, "5m ago", TimeAgo(time.Now().Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "3h ago", TimeAgo(time.Now().Add(-3*time.Hour-time.Second)))
	assert.Equal(t, "2d ago", TimeAgo(time.Now().Add(-49*time.Hour)))
}
