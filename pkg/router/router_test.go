package router

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouter() *Router {
	return New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func get(r *Router, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestMappedErrorResponse(t *testing.T) {
	errNotFound := errors.New("thing not found")

	r := testRouter()
	r.MapError(errNotFound, http.StatusNotFound)
	r.Get("/thing", func(w http.ResponseWriter, req *http.Request) error {
		return errNotFound
	})

	rec := get(r, "/thing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"code":404,"error":"thing not found"}`, rec.Body.String())
}

func TestWrappedErrorMatchesSentinel(t *testing.T) {
	errNotFound := errors.New("thing not found")

	r := testRouter()
	r.MapError(errNotFound, http.StatusNotFound)
	r.Get("/thing", func(w http.ResponseWriter, req *http.Request) error {
		return fmt.Errorf("lookup: %w", errNotFound)
	})

	rec := get(r, "/thing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnmappedErrorFallsBackToDefault(t *testing.T) {
	r := testRouter()
	r.Get("/boom", func(w http.ResponseWriter, req *http.Request) error {
		return errors.New("disk on fire")
	})

	rec := get(r, "/boom")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// The raw error never leaks to the client.
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestJsonErrorPassesThroughUnmapped(t *testing.T) {
	r := testRouter()
	r.Get("/teapot", func(w http.ResponseWriter, req *http.Request) error {
		return NewJsonError(http.StatusTeapot, "short and stout")
	})

	rec := get(r, "/teapot")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.JSONEq(t, `{"code":418,"error":"short and stout"}`, rec.Body.String())
}

func TestSubrouterInheritsErrorMappers(t *testing.T) {
	errNotFound := errors.New("thing not found")

	r := testRouter()
	r.MapError(errNotFound, http.StatusNotFound)
	r.Route("/api", func(r *Router) {
		r.Get("/thing", func(w http.ResponseWriter, req *http.Request) error {
			return errNotFound
		})
	})

	rec := get(r, "/api/thing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMiddlewareErrorShortCircuits(t *testing.T) {
	reached := false

	r := testRouter()
	guard := func(next http.Handler) HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) error {
			return NewJsonError(http.StatusUnauthorized, "unauthenticated")
		}
	}
	r.With(guard).Get("/private", func(w http.ResponseWriter, req *http.Request) error {
		reached = true
		return nil
	})

	rec := get(r, "/private")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestSuccessPathWritesNothingExtra(t *testing.T) {
	r := testRouter()
	r.Get("/ok", func(w http.ResponseWriter, req *http.Request) error {
		return WriteJson(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	rec := get(r, "/ok")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
