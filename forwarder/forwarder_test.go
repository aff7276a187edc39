package forwarder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type aggregateHost struct {
	mu     sync.Mutex
	total  int64
	exists bool
	puts   int
}

func (h *aggregateHost) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if !h.exists {
			http.NotFound(rw, r)
			return
		}
		_ = json.NewEncoder(rw).Encode(AggregateDocument{Total: h.total})
	case http.MethodPut:
		var doc AggregateDocument
		if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
			http.Error(rw, "bad body", http.StatusBadRequest)
			return
		}
		h.total = doc.Total
		h.exists = true
		h.puts++
		rw.WriteHeader(http.StatusNoContent)
	default:
		rw.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestClient_ReadAbsent(t *testing.T) {
	srv := httptest.NewServer(&aggregateHost{})
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zaptest.NewLogger(t))
	v, ok, err := c.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(0), v)
}

func TestClient_WriteThenRead(t *testing.T) {
	host := &aggregateHost{}
	srv := httptest.NewServer(host)
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zaptest.NewLogger(t))
	ctx := context.Background()
	require.NoError(t, c.WriteIfChanged(ctx, 42))

	v, ok, err := c.Read(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)
	assert.Equal(t, 1, host.puts)
}

func TestClient_ServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		http.Error(rw, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zaptest.NewLogger(t))
	_, _, err := c.Read(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "maintenance")

	assert.Error(t, c.WriteIfChanged(context.Background(), 1))
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zaptest.NewLogger(t))
	_, _, err := c.Read(context.Background())
	assert.Error(t, err)
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(&aggregateHost{})
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, zaptest.NewLogger(t))
	_, _, err := c.Read(context.Background())
	assert.Error(t, err)
}

func TestClient_RespectsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, 5*time.Second, zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := c.Read(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
