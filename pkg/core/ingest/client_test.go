package ingest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reverse_dcf/pkg/core/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	cfg := config.Default().Metrics
	cfg.BaseURL = srv.URL + "/company/{symbol}/"
	cfg.RateLimit = 100
	return NewClient(cfg, testLogger())
}

func TestClient_Lookup(t *testing.T) {
	var gotPath, gotUA string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(listPage))
	})

	m, err := c.Lookup(context.Background(), " nestleind ")
	require.NoError(t, err)

	assert.Equal(t, "/company/NESTLEIND/", gotPath)
	assert.NotEmpty(t, gotUA)
	assert.Equal(t, "NESTLEIND", m.Symbol)
	require.NotNil(t, m.CurrentPE)
	assert.Equal(t, 75.4, *m.CurrentPE)
	assert.False(t, m.FetchedAt.IsZero())
	assert.Contains(t, m.Source, "/company/NESTLEIND/")
}

func TestClient_Lookup_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"not found", http.StatusNotFound, "", ErrNotFound},
		{"server error", http.StatusInternalServerError, "", ErrUpstream},
		{"page without metrics", http.StatusOK, "<html><body>nothing</body></html>", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			m, err := c.Lookup(context.Background(), "ABC")
			assert.Nil(t, m)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestClient_Lookup_EmptySymbol(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := c.Lookup(context.Background(), "   ")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClient_Lookup_CancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listPage))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Lookup(ctx, "ABC")
	assert.Error(t, err)
}

func TestClient_Lookup_DeadlineExceeded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Lookup(ctx, "ABC")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUpstream))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
