package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onebite/internal/middleware"
	"onebite/internal/services"
	"onebite/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixedModerator struct {
	verdict services.Verdict
}

func (m *fixedModerator) Evaluate(ctx context.Context, text string) services.Verdict {
	return m.verdict
}

type echoLLM struct {
	err error
}

func (e echoLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return "answer", e.err
}

type testServer struct {
	engine    *gin.Engine
	moderator *fixedModerator
	uploadDir string
}

func newTestServer(t *testing.T, limit int) *testServer {
	t.Helper()
	s := store.New()
	limiter := services.NewRateLimiter(limit, services.NewMemoryCounters())
	mod := &fixedModerator{verdict: services.Allow(services.StageClassifier)}
	board := services.NewBoardService(s, limiter, mod, nil)
	uploadDir := t.TempDir()

	bh := NewBoardHandler(board)
	uh := NewUploadHandler(services.NewLocalImageStore(uploadDir, "/static/uploads", 1024))
	ch := NewChatHandler(services.NewChatService(echoLLM{}, time.Second))

	r := gin.New()
	r.Use(middleware.Identity())
	r.GET("/posts", bh.List)
	r.POST("/post", bh.Create)
	r.GET("/post/:id", bh.Detail)
	r.POST("/like/:id", bh.ToggleLike)
	r.GET("/search", bh.Search)
	r.POST("/comment/:id", bh.AddComment)
	r.PUT("/comment/:id/:cid", bh.UpdateComment)
	r.DELETE("/comment/:id/:cid", bh.DeleteComment)
	r.POST("/upload", uh.Upload)
	r.POST("/chat", ch.Chat)

	return &testServer{engine: r, moderator: mod, uploadDir: uploadDir}
}

func (ts *testServer) do(t *testing.T, method, path, ip string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = ip + ":40000"

	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestCreateAndFetchPost(t *testing.T) {
	ts := newTestServer(t, 3)

	code, out := ts.do(t, http.MethodPost, "/post", "10.0.0.1", gin.H{"content": "I love my cat", "image_url": "/static/uploads/x.png"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["success"])
	post := out["post"].(map[string]interface{})
	assert.Equal(t, float64(1), post["id"])
	assert.Equal(t, "10.0.0.1", post["user_ip"])
	assert.Equal(t, []interface{}{}, post["liked_by"])

	code, out = ts.do(t, http.MethodGet, "/post/1", "10.0.0.2", nil)
	require.Equal(t, http.StatusOK, code)
	post = out["post"].(map[string]interface{})
	assert.Equal(t, float64(1), post["views"])
	assert.Equal(t, false, post["liked"])

	code, out = ts.do(t, http.MethodGet, "/posts", "10.0.0.2", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, out["posts"], 1)

	code, _ = ts.do(t, http.MethodGet, "/post/99", "10.0.0.2", nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = ts.do(t, http.MethodGet, "/post/abc", "10.0.0.2", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCreatePostErrors(t *testing.T) {
	ts := newTestServer(t, 1)

	code, out := ts.do(t, http.MethodPost, "/post", "10.0.0.1", gin.H{"content": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, out["success"])

	code, _ = ts.do(t, http.MethodPost, "/post", "10.0.0.1", gin.H{"content": "hi"})
	require.Equal(t, http.StatusOK, code)

	code, out = ts.do(t, http.MethodPost, "/post", "10.0.0.1", gin.H{"content": "hi again"})
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "you can only write 1 posts per day", out["error"])

	ts.moderator.verdict = services.Reject(services.StageHeuristic, services.ReasonCharRepetition)
	code, out = ts.do(t, http.MethodPost, "/post", "10.0.0.2", gin.H{"content": "soo nice"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, services.ReasonCharRepetition, out["error"])
}

func TestToggleLike(t *testing.T) {
	ts := newTestServer(t, 3)
	ts.do(t, http.MethodPost, "/post", "10.0.0.1", gin.H{"content": "hi"})

	code, out := ts.do(t, http.MethodPost, "/like/1", "10.0.0.5", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), out["likes"])
	assert.Equal(t, true, out["liked"])

	_, out = ts.do(t, http.MethodPost, "/like/1", "10.0.0.5", nil)
	assert.Equal(t, float64(0), out["likes"])
	assert.Equal(t, false, out["liked"])

	code, _ = ts.do(t, http.MethodPost, "/like/7", "10.0.0.5", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCommentEndpoints(t *testing.T) {
	ts := newTestServer(t, 3)
	ts.do(t, http.MethodPost, "/post", "10.0.0.1", gin.H{"content": "hi"})

	code, out := ts.do(t, http.MethodPost, "/comment/1", "10.0.0.2", gin.H{"comment": "nice"})
	require.Equal(t, http.StatusOK, code)
	comment := out["comment"].(map[string]interface{})
	assert.Equal(t, float64(1), comment["id"])
	assert.Equal(t, "nice", comment["text"])

	code, _ = ts.do(t, http.MethodPost, "/comment/1", "10.0.0.2", gin.H{"comment": ""})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = ts.do(t, http.MethodPost, "/comment/5", "10.0.0.2", gin.H{"comment": "nice"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = ts.do(t, http.MethodPut, "/comment/1/1", "10.0.0.3", gin.H{"comment": "mine now"})
	assert.Equal(t, http.StatusForbidden, code)

	code, out = ts.do(t, http.MethodPut, "/comment/1/1", "10.0.0.2", gin.H{"comment": "very nice"})
	require.Equal(t, http.StatusOK, code)
	comment = out["comment"].(map[string]interface{})
	assert.Equal(t, true, comment["edited"])
	assert.NotEmpty(t, comment["edited_at"])

	code, _ = ts.do(t, http.MethodDelete, "/comment/1/1", "10.0.0.3", nil)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = ts.do(t, http.MethodDelete, "/comment/1/1", "10.0.0.2", nil)
	assert.Equal(t, http.StatusOK, code)

	code, out = ts.do(t, http.MethodDelete, "/comment/1/1", "10.0.0.2", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "comment not found", out["error"])
}

func TestSearchEndpoint(t *testing.T) {
	ts := newTestServer(t, 3)
	ts.do(t, http.MethodPost, "/post", "10.0.0.1", gin.H{"content": "I love my cat"})
	ts.do(t, http.MethodPost, "/post", "10.0.0.1", gin.H{"content": "dogs"})

	_, out := ts.do(t, http.MethodGet, "/search?q=Cat", "10.0.0.1", nil)
	assert.Len(t, out["posts"], 1)

	_, out = ts.do(t, http.MethodGet, "/search?q=", "10.0.0.1", nil)
	assert.Equal(t, []interface{}{}, out["posts"])
}

func TestChatEndpoint(t *testing.T) {
	ts := newTestServer(t, 3)

	code, out := ts.do(t, http.MethodPost, "/chat", "10.0.0.1", gin.H{"message": "hello?"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "answer", out["response"])

	code, _ = ts.do(t, http.MethodPost, "/chat", "10.0.0.1", gin.H{"message": " "})
	assert.Equal(t, http.StatusBadRequest, code)
}

func multipartImage(t *testing.T, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	ts := newTestServer(t, 3)

	send := func(filename, contentType string, data []byte) (int, map[string]interface{}) {
		body, ct := multipartImage(t, filename, contentType, data)
		req := httptest.NewRequest(http.MethodPost, "/upload", body)
		req.Header.Set("Content-Type", ct)
		w := httptest.NewRecorder()
		ts.engine.ServeHTTP(w, req)
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return w.Code, out
	}

	png := append([]byte("\x89PNG\r\n\x1a\n"), []byte("png-bytes")...)
	code, out := send("../../cat photo.png", "image/png", png)
	require.Equal(t, http.StatusOK, code)
	filename := out["filename"].(string)
	assert.Contains(t, filename, "cat_photo.png")
	assert.Equal(t, "/static/uploads/"+filename, out["url"])

	saved, err := os.ReadFile(filepath.Join(ts.uploadDir, filename))
	require.NoError(t, err)
	assert.Equal(t, png, saved)

	code, _ = send("notes.txt", "text/plain", []byte("hi"))
	assert.Equal(t, http.StatusBadRequest, code)

	// 内容决定类型，伪造的 Content-Type 不算数
	code, out = send("fake.png", "image/png", []byte("<html><script>alert(1)</script></html>"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, services.ErrNotImage.Error(), out["error"])
	entries, err := os.ReadDir(ts.uploadDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// 扩展名和声明都不是图片，但内容是图片
	code, _ = send("cat.bin", "application/octet-stream", png)
	assert.Equal(t, http.StatusOK, code)

	code, _ = send("big.png", "image/png", bytes.Repeat([]byte("x"), 2048))
	assert.Equal(t, http.StatusBadRequest, code)

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{services.ErrValidation, http.StatusBadRequest},
		{&services.ModerationError{Reason: "x"}, http.StatusBadRequest},
		{services.ErrRateLimited, http.StatusTooManyRequests},
		{services.ErrNotFound, http.StatusNotFound},
		{services.ErrForbidden, http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		code, _ := statusFor(tc.err, 3)
		assert.Equal(t, tc.code, code, tc.err.Error())
	}
}
