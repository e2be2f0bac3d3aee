package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h gin.HandlerFunc) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", h)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp Response
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantErrors string
		attached   int
	}{
		{"app error keeps status", NewBadRequestError("bad direction", nil), http.StatusBadRequest, "BAD_REQUEST", 0},
		{"wrapped app error", errorsJoin(NewUnavailableError("directions down", nil)), http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", 1},
		{"plain error becomes 500", errors.New("boom"), http.StatusInternalServerError, "INTERNAL", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := serve(t, func(c *gin.Context) {
				assert.True(t, HandleServiceError(c, tt.err, "fallback"))
				assert.Len(t, c.Errors, tt.attached)
			})
			assert.Equal(t, tt.wantCode, w.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantErrors, resp.Error.ErrorCode)
		})
	}
}

func errorsJoin(err error) error {
	return errors.Join(errors.New("context"), err)
}

func TestHandleServiceError_NilIsNoop(t *testing.T) {
	w, _ := serve(t, func(c *gin.Context) {
		assert.False(t, HandleServiceError(c, nil, "fallback"))
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestReadinessProbe(t *testing.T) {
	w, _ := serve(t, ReadinessProbe("routes", "test", map[string]func() error{
		"redis": func() error { return nil },
	}))
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = serve(t, ReadinessProbe("routes", "test", map[string]func() error{
		"redis": func() error { return errors.New("down") },
	}))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAppError_Unwrap(t *testing.T) {
	err := NewNotFoundError("no route", nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "no route")
}

func TestSuccessWithNotices(t *testing.T) {
	tests := []struct {
		name    string
		notices []string
		want    []string
	}{
		{"no notices omits meta", nil, nil},
		{"blank notices dropped", []string{"", ""}, nil},
		{"kept in order", []string{"No trails found nearby.", "", "Closest route found is 2.10 mi."},
			[]string{"No trails found nearby.", "Closest route found is 2.10 mi."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := serve(t, func(c *gin.Context) {
				SuccessWithNotices(c, map[string]int{"attempts": 3}, tt.notices...)
			})
			assert.Equal(t, http.StatusOK, w.Code)
			assert.True(t, resp.Success)
			if tt.want == nil {
				assert.Nil(t, resp.Meta)
				return
			}
			require.NotNil(t, resp.Meta)
			assert.Equal(t, tt.want, resp.Meta.Notices)
		})
	}
}
