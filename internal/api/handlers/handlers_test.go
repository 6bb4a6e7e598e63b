package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Wikid82/warden/backend/internal/cerberus"
	"github.com/Wikid82/warden/backend/internal/config"
)

func setupSecurityRouter(t *testing.T) (*gin.Engine, *cerberus.Cerberus, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := OpenTestDB(t)
	cerb := cerberus.New(config.SecurityConfig{}, db)
	t.Cleanup(cerb.Stop)

	r := gin.New()
	sec := NewSecurityHandler(cerb)
	r.POST("/security/login/attempt", sec.RecordAttempt)
	r.GET("/security/login/attempts", sec.ListAttempts)
	r.POST("/security/rules", sec.SetRule)
	r.GET("/security/rules", sec.ListRules)
	r.GET("/security/rules/active", sec.ActiveRule)
	r.GET("/security/alerts", sec.Alerts)
	r.GET("/security/decisions", sec.Decisions)
	r.GET("/security/status", sec.Status)

	ips := NewIPHandler(cerb)
	r.GET("/ips", ips.List)
	r.GET("/ips/search", ips.Search)
	r.POST("/ips", ips.Create)
	r.GET("/ips/:ip_address", ips.Get)
	r.PATCH("/ips/:ip_address", ips.UpdateStatus)
	return r, cerb, db
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}
