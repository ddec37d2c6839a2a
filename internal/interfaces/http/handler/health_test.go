package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthHandler_Check(t *testing.T) {
	ok := HealthCheck{Name: "database", Probe: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Probe: func(context.Context) error { return errors.New("connection refused") }}

	t.Run("all probes pass", func(t *testing.T) {
		h := NewHealthHandler("1.2.3", ok)
		c, w := newTestContext()

		h.Check(c)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Success bool           `json:"success"`
			Data    HealthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, HealthStatusHealthy, resp.Data.Status)
		assert.Equal(t, "1.2.3", resp.Data.Version)
		assert.NotEmpty(t, resp.Data.GoVersion)
		assert.Equal(t, map[string]string{"database": "ok"}, resp.Data.Checks)
	})

	t.Run("failing probe returns 503", func(t *testing.T) {
		h := NewHealthHandler("1.2.3", ok, down)
		c, w := newTestContext()

		h.Check(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp struct {
			Success bool           `json:"success"`
			Data    HealthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, HealthStatusUnhealthy, resp.Data.Status)
		assert.Equal(t, "ok", resp.Data.Checks["database"])
		assert.Equal(t, "error", resp.Data.Checks["redis"])
	})

	t.Run("no probes is healthy", func(t *testing.T) {
		h := NewHealthHandler("dev")
		c, w := newTestContext()

		h.Check(c)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
