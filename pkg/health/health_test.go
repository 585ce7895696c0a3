package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, endpoint http.HandlerFunc) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	endpoint(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestLiveEndpoint_NoChecks(t *testing.T) {
	h := New()

	rec, body := probe(t, h.LiveEndpoint)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestLiveEndpoint_FailingCheck(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, func(context.Context) error {
		return errors.New("too many goroutines")
	})

	rec, body := probe(t, h.LiveEndpoint)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "too many goroutines", checks["goroutines"])
}

func TestReadyEndpoint_GatedUntilSetReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("database", time.Second, func(context.Context) error { return nil })

	rec, _ := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	h.SetReady(true)
	rec, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, rec.Code)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["database"])
}

func TestReadyEndpoint_DrainsOnShutdown(t *testing.T) {
	h := New()
	h.SetReady(true)

	rec, _ := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, rec.Code)

	h.SetReady(false)
	rec, _ = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestReadyEndpoint_CheckTimeout(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.AddReadinessCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})

	rec, _ := probe(t, h.ReadyEndpoint)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
