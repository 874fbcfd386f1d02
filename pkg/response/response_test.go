package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-portal-api/internal/models"
	appErrors "github.com/noah-isme/student-portal-api/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestJSONWritesEnvelopeAndHeaders(t *testing.T) {
	c, w := newContext()
	JSON(c, http.StatusOK, gin.H{"id": "1001"}, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, map[string]interface{}{"cache_hit": true})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "1001", body["data"].(map[string]interface{})["id"])
	assert.EqualValues(t, 1, body["pagination"].(map[string]interface{})["total_count"])
	assert.Equal(t, true, body["meta"].(map[string]interface{})["cache_hit"])
	assert.NotContains(t, body, "error")
}

func TestErrorHidesWrappedCause(t *testing.T) {
	c, w := newContext()
	Error(c, appErrors.Internal(errors.New("pq: connection refused"), "failed to list students"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Contains(t, w.Body.String(), `"code":"INTERNAL_ERROR"`)
	require.Len(t, c.Errors, 1)
}

func TestErrorUsesTypedStatus(t *testing.T) {
	c, w := newContext()
	Error(c, appErrors.Clone(appErrors.ErrNotFound, "student not found"))

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "student not found")
}

func TestCreatedAndAccepted(t *testing.T) {
	c, w := newContext()
	Created(c, gin.H{"ok": true})
	assert.Equal(t, http.StatusCreated, w.Code)

	c2, w2 := newContext()
	Accepted(c2, gin.H{"ok": true})
	assert.Equal(t, http.StatusAccepted, w2.Code)
}
