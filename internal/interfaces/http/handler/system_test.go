package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/erp/aftersales/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSystemRouter(h *SystemHandler) *gin.Engine {
	router := gin.New()
	h.RegisterRoutes(router.Group(""))
	return router
}

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("1.2.3")
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
	assert.Empty(t, h.checks)
}

func TestSystemHandler_Health(t *testing.T) {
	h := NewSystemHandler("1.2.3")
	h.AddCheck("database", PingCheck(func(context.Context) error { return nil }))
	h.AddCheck("enrichment", func(context.Context) string { return StatusDisabled })

	w := get(setupSystemRouter(h), "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp APIResponse[dto.HealthResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, StatusUp, resp.Data.Status)
	assert.Equal(t, "1.2.3", resp.Data.Version)
	assert.NotEmpty(t, resp.Data.GoVersion)
	assert.Equal(t, map[string]string{"database": StatusUp, "enrichment": StatusDisabled}, resp.Data.Components)
}

func TestSystemHandler_Health_ComponentDown(t *testing.T) {
	h := NewSystemHandler("1.2.3")
	h.AddCheck("database", PingCheck(func(context.Context) error { return errors.New("connection refused") }))

	w := get(setupSystemRouter(h), "/health")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp APIResponse[dto.HealthResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, StatusDown, resp.Data.Status)
	assert.Equal(t, StatusDown, resp.Data.Components["database"])
}

func TestSystemHandler_Health_CheckHasDeadline(t *testing.T) {
	h := NewSystemHandler("dev")
	var hasDeadline bool
	h.AddCheck("cache", func(ctx context.Context) string {
		_, hasDeadline = ctx.Deadline()
		return StatusUp
	})

	get(setupSystemRouter(h), "/health")

	assert.True(t, hasDeadline)
}

func TestSystemHandler_Ping(t *testing.T) {
	w := get(setupSystemRouter(NewSystemHandler("dev")), "/ping")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp APIResponse[PingResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "pong", resp.Data.Message)

	_, err := time.Parse(time.RFC3339, resp.Data.Timestamp)
	assert.NoError(t, err)
}
