package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Pauline-WN/AjaliApp/internal/service"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, tc := range []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", fmt.Errorf("%w: description is required", service.ErrValidation), http.StatusBadRequest, "description is required"},
		{"duplicate", fmt.Errorf("%w: Email already exists", service.ErrDuplicateField), http.StatusBadRequest, "Email already exists"},
		{"unauthenticated", service.ErrUnauthenticated, http.StatusUnauthorized, "user not logged in"},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, "permission denied"},
		{"not found", fmt.Errorf("%w: Incident not found", service.ErrNotFound), http.StatusNotFound, "Incident not found"},
		{"too large", fmt.Errorf("%w: file exceeds 10 bytes", service.ErrPayloadTooLarge), http.StatusRequestEntityTooLarge, "file exceeds 10 bytes"},
		{"storage detail is hidden", fmt.Errorf("%w: disk on fire", service.ErrStorage), http.StatusInternalServerError, "Something failed"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Something failed"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, zap.NewNop(), tc.err, "Something failed")

			require.Equal(t, tc.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Equal(t, tc.message, body["message"])
		})
	}
}

func TestParseID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for raw, ok := range map[string]bool{"1": true, "42": true, "0": false, "-3": false, "abc": false, "1.5": false} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: raw}}

		_, got := parseID(c)
		require.Equal(t, ok, got, raw)
		if !ok {
			require.Equal(t, http.StatusBadRequest, w.Code)
		}
	}
}
