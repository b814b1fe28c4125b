package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"hrportal/pkg/requestcontext"
)

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var sawAdmin bool
	handler := RequireAdminToken("s3cret", logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawAdmin = requestcontext.IsAdmin(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing token is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/", nil))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("matching token marks context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/", nil)
		req.Header.Set(HeaderAdminToken, "s3cret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, sawAdmin)
	})

	t.Run("empty configured token never matches", func(t *testing.T) {
		open := RequireAdminToken("", logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodPatch, "/", nil)
		req.Header.Set(HeaderAdminToken, "")
		rec := httptest.NewRecorder()
		open.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
