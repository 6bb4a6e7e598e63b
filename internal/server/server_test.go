package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wikid82/warden/backend/internal/api/handlers"
	"github.com/Wikid82/warden/backend/internal/cerberus"
	"github.com/Wikid82/warden/backend/internal/config"
)

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := handlers.OpenTestDB(t)
	cerb := cerberus.New(cfg.Security, db)
	t.Cleanup(cerb.Stop)

	srv, err := New(db, cfg, cerb)
	require.NoError(t, err)
	return srv
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestNew_ServesFrontendAndAPI(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html></html>"), 0o644))

	srv := newTestServer(t, config.Config{FrontendDir: dir})

	w := get(srv, "/dashboard/ips")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<html></html>")

	w = get(srv, "/api/v1/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, w.Body.String())

	w = get(srv, "/api/v1/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestNew_WithoutFrontend(t *testing.T) {
	srv := newTestServer(t, config.Config{FrontendDir: filepath.Join(t.TempDir(), "missing")})
	assert.Equal(t, http.StatusNotFound, get(srv, "/").Code)
}

func TestNew_ExposesMetrics(t *testing.T) {
	srv := newTestServer(t, config.Config{})

	body := strings.NewReader(`{"ip_address":"10.0.0.9","success":false}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/security/login/attempt", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = get(srv, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `warden_login_attempts_total{result="failure"}`)
}

func TestNew_EnforcesBlocklist(t *testing.T) {
	srv := newTestServer(t, config.Config{Security: config.SecurityConfig{EnforceBlocklist: true}})

	body := strings.NewReader(`{"ip_address":"192.0.2.1","status":false,"reason":"hack"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ips", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// httptest requests come from 192.0.2.1.
	w = get(srv, "/api/v1/ips/192.0.2.1")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, http.StatusOK, get(srv, "/api/v1/health").Code, "health stays reachable")
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	srv := newTestServer(t, config.Config{HTTPPort: strconv.Itoa(port)})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/api/v1/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
