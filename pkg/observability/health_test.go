package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_Check(t *testing.T) {
	h := NewHealthChecker("1.2.3")
	assert.Equal(t, StatusHealthy, h.Check(context.Background()).Status)

	h.Register("graph", true, func(context.Context) error { return nil })
	h.Register("assets", false, func(context.Context) error { return errors.New("unreadable") })

	status := h.Check(context.Background())
	assert.Equal(t, StatusDegraded, status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Equal(t, StatusHealthy, status.Dependencies["graph"].Status)
	assert.Equal(t, "unreadable", status.Dependencies["assets"].Message)

	h.Register("graph", true, func(context.Context) error { return errors.New("gone") })
	assert.Equal(t, StatusUnhealthy, h.Check(context.Background()).Status)
}

func TestHealthChecker_Handlers(t *testing.T) {
	h := NewHealthChecker("dev")

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	h.Register("graph", true, func(context.Context) error { return errors.New("gone") })
	rec = httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, StatusUnhealthy, status.Status)
}
