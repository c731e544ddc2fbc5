package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error { return nil }

func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("no checks is healthy", func(t *testing.T) {
		t.Parallel()

		resp := Run(context.Background(), nil)
		assert.Equal(t, StatusHealthy, resp.Status)
		assert.NoError(t, resp.Err())
	})

	t.Run("all passing", func(t *testing.T) {
		t.Parallel()

		resp := Run(context.Background(), Checks{"a": ok, "b": ok})
		assert.Equal(t, StatusHealthy, resp.Status)
		assert.Len(t, resp.Checks, 2)
	})

	t.Run("one failing", func(t *testing.T) {
		t.Parallel()

		resp := Run(context.Background(), Checks{
			"postgres": ok,
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		assert.Equal(t, StatusUnhealthy, resp.Status)
		assert.Equal(t, StatusHealthy, resp.Checks["postgres"].Status)
		assert.Equal(t, "connection refused", resp.Checks["redis"].Error)

		err := resp.Err()
		require.ErrorIs(t, err, ErrCheckFailed)
		assert.Contains(t, err.Error(), "redis: connection refused")
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		slow := func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}
		resp := Run(context.Background(), Checks{"slow": slow}, WithTimeout(20*time.Millisecond))
		assert.Equal(t, StatusUnhealthy, resp.Status)
		assert.Contains(t, resp.Checks["slow"].Error, ErrCheckTimeout.Error())
	})

	t.Run("panicking check", func(t *testing.T) {
		t.Parallel()

		resp := Run(context.Background(), Checks{
			"ok":    ok,
			"crash": func(context.Context) error { panic("nil pool") },
		})
		assert.Equal(t, StatusUnhealthy, resp.Status)
		assert.Equal(t, StatusHealthy, resp.Checks["ok"].Status)
		assert.Contains(t, resp.Checks["crash"].Error, ErrCheckPanicked.Error())
		assert.Contains(t, resp.Checks["crash"].Error, "nil pool")
	})
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	failing := Checks{"scheduler": func(context.Context) error { return errors.New("stale") }}

	t.Run("plain text", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		ReadinessHandler(failing)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "Service Unavailable", rec.Body.String())
	})

	t.Run("json via query", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		ReadinessHandler(failing)(rec, httptest.NewRequest(http.MethodGet, "/health/ready?format=json", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, StatusUnhealthy, resp.Status)
		assert.Equal(t, "stale", resp.Checks["scheduler"].Error)
	})

	t.Run("json via accept header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		ReadinessHandler(Checks{"db": ok})(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var resp Response
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, StatusHealthy, resp.Status)
	})
}
