package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger_Levels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		handler   gin.HandlerFunc
		wantLevel string
		wantError string
	}{
		{"ok", func(c *gin.Context) { c.Status(http.StatusOK) }, "INFO", ""},
		{"bind error", func(c *gin.Context) {
			_ = c.Error(errors.New("json: cannot unmarshal")).SetType(gin.ErrorTypeBind)
			c.Status(http.StatusBadRequest)
		}, "WARN", "json: cannot unmarshal"},
		{"storage error", func(c *gin.Context) {
			_ = c.Error(errors.New("connection refused"))
			c.Status(http.StatusInternalServerError)
		}, "ERROR", "connection refused"},
		{"bare 500", func(c *gin.Context) { c.Status(http.StatusInternalServerError) }, "ERROR", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := gin.New()
			r.Use(RequestLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
			r.GET("/x", tt.handler)

			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			var rec map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &rec), buf.String())
			assert.Equal(t, tt.wantLevel, rec["level"])
			assert.Equal(t, "/x", rec["path"])
			if tt.wantError != "" {
				assert.Contains(t, rec["error"], tt.wantError)
			} else {
				assert.NotContains(t, rec, "error")
			}
		})
	}
}
