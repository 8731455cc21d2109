package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusBody struct {
	Status string
	Checks map[string]string
}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) statusBody {
	t.Helper()
	var body statusBody
	require.NoError(t, jx.DecodeBytes(w.Body.Bytes()).ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "status":
			s, err := d.Str()
			body.Status = s
			return err
		case "checks":
			body.Checks = make(map[string]string)
			return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
				s, err := d.Str()
				body.Checks[string(key)] = s
				return err
			})
		default:
			return d.Skip()
		}
	}))
	return body
}

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

func passing() CheckFunc {
	return func(context.Context) error { return nil }
}

func serve(h http.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w
}

func TestLiveEndpoint_Passing(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, passing())

	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decodeStatus(t, w).Status)
}

func TestLiveEndpoint_FailureThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failing("connection refused"))
	c := h.liveness.checks[0]
	ctx := context.Background()

	c.run(ctx)
	c.run(ctx)
	assert.Equal(t, http.StatusOK, serve(h.LiveEndpoint).Code, "below threshold stays healthy")

	c.run(ctx)
	w := serve(h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeStatus(t, w)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["db"])
}

func TestCheck_Recovers(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	c := newCheck("redis", time.Second, func(context.Context) error {
		if fail.Load() {
			return errors.New("down")
		}
		return nil
	}, Thresholds{Failure: 1, Success: 2})
	ctx := context.Background()

	c.run(ctx)
	assert.Equal(t, "down", c.failure())

	fail.Store(false)
	c.run(ctx)
	assert.NotEmpty(t, c.failure(), "one success is below the success threshold")
	c.run(ctx)
	assert.Empty(t, c.failure())
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheckWithThresholds("storage", time.Second, failing("timeout"), Thresholds{Failure: 1, Success: 1})

	w := serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, decodeStatus(t, w).Checks, "_readiness")

	h.SetReady(true)
	assert.Equal(t, http.StatusOK, serve(h.ReadyEndpoint).Code)
	assert.True(t, h.IsReady())

	h.readiness.checks[0].run(context.Background())
	w = serve(h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "timeout", decodeStatus(t, w).Checks["storage"])
	assert.False(t, h.IsReady())
}

func TestStartStop(t *testing.T) {
	h := New()
	var runs atomic.Int32
	h.AddReadinessCheck("counter", time.Second, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	require.Eventually(t, func() bool { return runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
	n := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, runs.Load(), n+1)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestPingCheck(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, PingCheck(pinger{})(ctx))
	require.ErrorContains(t, PingCheck(pinger{err: errors.New("refused")})(ctx), "refused")
}

func TestGoroutineCountCheck(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, GoroutineCountCheck(1_000_000)(ctx))
	require.Error(t, GoroutineCountCheck(0)(ctx))
}

func TestLastGCPauseCheck(t *testing.T) {
	runtime.GC()
	ctx := context.Background()
	require.NoError(t, LastGCPauseCheck(time.Hour)(ctx))
	require.Error(t, LastGCPauseCheck(-1)(ctx))
}
