package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweetpotato0/lorem-mcp/config"
	"github.com/sweetpotato0/lorem-mcp/lorem"
	"github.com/sweetpotato0/lorem-mcp/mcp"
	"github.com/sweetpotato0/lorem-mcp/pkg/logging"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            8000,
		MCPPath:         "/mcp",
		Transport:       config.TransportHTTP,
		CORSOrigins:     []string{"*"},
		MetricsEnabled:  true,
		ShutdownTimeout: time.Second,
	}
}

func newTestServer(t *testing.T, cfg config.ServerConfig) *Server {
	t.Helper()
	s, err := New(cfg, lorem.NewGenerator(lorem.WithSeed(42)), WithLogger(logging.Discard()))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s.Handler(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = do(t, s.Handler(), http.MethodHead, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoremParagraphs(t *testing.T) {
	s := newTestServer(t, testConfig())

	for _, count := range []int{1, 3, 7} {
		rec := do(t, s.Handler(), http.MethodGet, "/lorem/"+strconv.Itoa(count), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

		var body ParagraphsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Paragraphs, count)
		for _, p := range body.Paragraphs {
			assert.NotEmpty(t, strings.TrimSpace(p))
		}
	}
}

func TestLoremZeroIsEmptyList(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s.Handler(), http.MethodGet, "/lorem/0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"paragraphs":[]}`, rec.Body.String())
}

func TestLoremRejectsBadCounts(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		name   string
		target string
		status int
		errMsg string
	}{
		{name: "negative", target: "/lorem/-1", status: http.StatusBadRequest, errMsg: "invalid input"},
		{name: "not a number", target: "/lorem/abc", status: http.StatusUnprocessableEntity, errMsg: "unprocessable entity"},
		{name: "fraction", target: "/lorem/1.5", status: http.StatusUnprocessableEntity, errMsg: "unprocessable entity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s.Handler(), http.MethodGet, tt.target, nil)
			require.Equal(t, tt.status, rec.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.errMsg, body.Error)
			assert.NotEmpty(t, body.Detail)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s.Handler(), http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s.Handler(), http.MethodGet, "/lorem/1", nil)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = do(t, s.Handler(), http.MethodGet, "/lorem/1", http.Header{RequestIDHeader: {"abc-123"}})
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = do(t, s.Handler(), http.MethodGet, "/lorem/1", http.Header{"x-request-id": {"lower-1"}})
	assert.Equal(t, "lower-1", rec.Header().Get(RequestIDHeader))
}

func TestRequestIDAvailableToHandlers(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestLogger(logging.Discard()))
	engine.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, RequestID(c))
	})

	rec := do(t, engine, http.MethodGet, "/id", http.Header{RequestIDHeader: {"req-7"}})
	assert.Equal(t, "req-7", rec.Body.String())
}

func TestCORS(t *testing.T) {
	cfg := testConfig()
	cfg.CORSOrigins = []string{"http://frontend.test"}
	s := newTestServer(t, cfg)

	rec := do(t, s.Handler(), http.MethodGet, "/health", http.Header{"Origin": {"http://frontend.test"}})
	assert.Equal(t, "http://frontend.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Mcp-Session-Id")

	rec = do(t, s.Handler(), http.MethodGet, "/health", http.Header{"Origin": {"http://other.test"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t, testConfig())

	rec := do(t, s.Handler(), http.MethodGet, "/lorem/2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s.Handler(), http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `lorem_paragraphs_generated_total{surface="rest"}`)
	assert.Contains(t, body, `lorem_generation_requests_total{outcome="ok",surface="rest"}`)
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsEnabled = false
	s := newTestServer(t, cfg)

	rec := do(t, s.Handler(), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.MCPPath = "/lorem"
	_, err := New(cfg, lorem.NewGenerator())
	assert.Error(t, err)

	_, err = New(testConfig(), nil)
	assert.Error(t, err)
}

func TestMCPMountedOnSamePort(t *testing.T) {
	cfg := testConfig()
	cfg.MCPPath = "/agents/mcp"
	s := newTestServer(t, cfg)

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mcp.NewStreamableClient(ctx, ts.URL+cfg.MCPPath,
		mcp.WithHTTPClient(ts.Client()),
		mcp.WithStreamableMaxRetries(0),
	)
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, mcp.ServerName, client.InitializeResult().ServerInfo.Name)

	text, err := client.CallTool(ctx, lorem.ToolName, map[string]interface{}{"paragraph_count": 2})
	require.NoError(t, err)
	assert.Len(t, strings.Split(text, lorem.BlockSeparator), 2)

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, testConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
