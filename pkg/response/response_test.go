package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessWritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(RequestIDKey, "rid-1")

	Success(c, 0, map[string]string{"id": "u1"}, "ok", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var body APIResponse[map[string]string]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "rid-1", body.RequestID)
	assert.Equal(t, "u1", body.Data["id"])
}

func TestErrorAborts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error[any](c, http.StatusNotFound, "user not found", map[string]string{"id": "missing"})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, c.IsAborted())
	var body APIResponse[any]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "user not found", body.Message)
}

func TestLegacyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Legacy(c, http.StatusConflict, "email already in use", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.True(t, c.IsAborted())
	assert.JSONEq(t, `{"error":"email already in use"}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	Legacy(c, http.StatusBadRequest, "invalid form", map[string]string{"email": "must be a valid email"})
	assert.JSONEq(t, `{"error":"invalid form","details":{"email":"must be a valid email"}}`, w.Body.String())
}
