package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"pokuclick/aggregator"
	"pokuclick/audio"
	"pokuclick/config"
	"pokuclick/forwarder"
	"pokuclick/interfaces"
	"pokuclick/storage/memory"
)

type testHost struct {
	agg       *aggregator.Aggregator
	presenter *StatePresenter
	handler   *Handler
}

func newTestHost(t *testing.T, remote interfaces.AggregateStore, opts Options) testHost {
	t.Helper()
	logger := zaptest.NewLogger(t)
	if remote == nil {
		remote = memory.NewAggregateStore()
	}

	presenter := NewStatePresenter(logger)
	agg, err := aggregator.New(aggregator.OptionsFromConfig(config.Default()), aggregator.Deps{
		Local:         memory.NewKeyValueStore(),
		Remote:        remote,
		Presenter:     presenter,
		BusyListeners: []interfaces.BusyListener{presenter},
	}, logger)
	require.NoError(t, err)

	return testHost{
		agg:       agg,
		presenter: presenter,
		handler:   New(agg, presenter, opts, logger),
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestClick_RecordsInteraction(t *testing.T) {
	host := newTestHost(t, nil, Options{})

	rec := do(t, host.handler, http.MethodPost, "/click", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ClickResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.LocalTotal)
	assert.GreaterOrEqual(t, resp.Pitch, audio.MinPitch)
	assert.Less(t, resp.Pitch, audio.MaxPitch)
	assert.Equal(t, 0.5, resp.Gain)

	view := host.presenter.View()
	assert.Equal(t, int64(1), view.LocalTotal)
	assert.Equal(t, "playing", view.Animation)
}

func TestClick_WrongMethod(t *testing.T) {
	host := newTestHost(t, nil, Options{})
	rec := do(t, host.handler, http.MethodGet, "/click", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestClick_UsesMiddleware(t *testing.T) {
	blocked := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			http.Error(rw, "Rate limit exceeded", http.StatusTooManyRequests)
		})
	}
	host := newTestHost(t, nil, Options{ClickMiddleware: blocked})

	assert.Equal(t, http.StatusTooManyRequests, do(t, host.handler, http.MethodPost, "/click", "").Code)
	assert.Equal(t, int64(0), host.agg.Snapshot().LocalTotal)

	// Other routes are not wrapped.
	assert.Equal(t, http.StatusOK, do(t, host.handler, http.MethodGet, "/state", "").Code)
}

func TestState_ReflectsEngine(t *testing.T) {
	host := newTestHost(t, nil, Options{})
	for i := 0; i < 3; i++ {
		do(t, host.handler, http.MethodPost, "/click", "")
	}
	host.agg.Tick(context.Background(), 5)

	rec := do(t, host.handler, http.MethodGet, "/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StateResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(3), resp.Engine.LocalTotal)
	assert.Equal(t, int64(3), resp.Engine.FlushedTotal)
	assert.Equal(t, int64(3), resp.Engine.PendingRemote)
	assert.Equal(t, int64(3), resp.View.FlushedTotal)
	assert.Equal(t, int64(3), resp.View.LastFlush)
}

func TestVolume(t *testing.T) {
	host := newTestHost(t, nil, Options{})

	rec := do(t, host.handler, http.MethodPut, "/volume", `{"volume": 150}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"volume": 100}`, rec.Body.String())
	assert.Equal(t, 100, host.agg.Snapshot().Volume)

	for _, body := range []string{"", "{}", "nope", `{"volume": "loud"}`} {
		rec := do(t, host.handler, http.MethodPut, "/volume", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body=%q", body)
	}
}

func TestAnimationComplete(t *testing.T) {
	host := newTestHost(t, nil, Options{})

	do(t, host.handler, http.MethodPost, "/click", "")
	rec := do(t, host.handler, http.MethodPost, "/animation/complete", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"animation": "idle"}`, rec.Body.String())
}

func TestPresenter_BusyAndSpeedLines(t *testing.T) {
	p := NewStatePresenter(zaptest.NewLogger(t))

	p.RateThresholdCrossed(interfaces.Rising)
	assert.True(t, p.View().SpeedLines)
	p.RateThresholdCrossed(interfaces.Falling)
	assert.False(t, p.View().SpeedLines)

	p.OnBusyBegan()
	p.AnimateRemoteTotal(10, 25, 2*time.Second)
	view := p.View()
	assert.True(t, view.Busy)
	assert.Equal(t, "mixing", view.Animation)
	assert.Equal(t, int64(10), view.RemoteFrom)
	assert.Equal(t, int64(25), view.RemoteTo)
	assert.Equal(t, 2.0, view.RemoteDuration)

	// Clicks keep the mixing clip while busy.
	p.PlayCue(interfaces.Cue{Pitch: 1.5, Gain: 0.5})
	assert.Equal(t, "mixing", p.View().Animation)

	p.OnBusyEnded()
	assert.False(t, p.View().Busy)
	assert.Equal(t, "idle", p.View().Animation)
}

func TestAggregate_NotServedByDefault(t *testing.T) {
	host := newTestHost(t, nil, Options{})
	assert.Equal(t, http.StatusNotFound, do(t, host.handler, http.MethodGet, "/aggregate", "").Code)
}

func TestAggregate_ReadWrite(t *testing.T) {
	store := memory.NewAggregateStore()
	host := newTestHost(t, nil, Options{Aggregate: store})

	assert.Equal(t, http.StatusNotFound, do(t, host.handler, http.MethodGet, "/aggregate", "").Code)

	rec := do(t, host.handler, http.MethodPut, "/aggregate", `{"total": 12}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, host.handler, http.MethodGet, "/aggregate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total": 12}`, rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(t, host.handler, http.MethodPut, "/aggregate", `{"total": -1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, host.handler, http.MethodPut, "/aggregate", `[`).Code)
}

func TestAggregate_PeerRoundTrip(t *testing.T) {
	hub := newTestHost(t, nil, Options{Aggregate: memory.NewAggregateStore()})
	srv := httptest.NewServer(hub.handler)
	defer srv.Close()

	client := forwarder.NewClient(srv.URL+"/aggregate", time.Second, zaptest.NewLogger(t))
	peerA := newTestHost(t, client, Options{})
	peerB := newTestHost(t, client, Options{})

	for i := 0; i < 4; i++ {
		do(t, peerA.handler, http.MethodPost, "/click", "")
	}
	for i := 0; i < 2; i++ {
		do(t, peerB.handler, http.MethodPost, "/click", "")
	}
	ctx := context.Background()
	require.NoError(t, peerA.agg.Close(ctx))
	require.NoError(t, peerB.agg.Close(ctx))

	total, exists, err := client.Read(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(6), total)
}
