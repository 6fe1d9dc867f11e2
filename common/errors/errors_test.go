package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAs_UnwrapsNestedError(t *testing.T) {
	wrapped := fmt.Errorf("create product: %w", NotFound("Not found"))

	appErr := As(wrapped)
	assert.Equal(t, http.StatusNotFound, appErr.Code)
	assert.Equal(t, "Not found", appErr.Message)
}

func TestAs_PlainErrorBecomesInternal(t *testing.T) {
	cause := stderrors.New("connection refused")

	appErr := As(cause)
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.Equal(t, "Internal Server Error", appErr.Message)
	assert.ErrorIs(t, appErr, cause)
}

func TestRespond_WritesErrorField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/products", nil)

	Respond(c, zap.NewNop(), Upstream("Gemini error 503: overloaded", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"Gemini error 503: overloaded"}`, w.Body.String())
}
