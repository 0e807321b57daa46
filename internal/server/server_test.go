package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer() *Server {
	return New(http.NotFoundHandler(), Config{
		Port:            0,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestShutdown_RunsHooksInReverseOrder(t *testing.T) {
	s := newTestServer()

	var order []string
	for _, name := range []string{"activity_worker", "redis", "postgres"} {
		name := name
		s.OnShutdown(name, func(ctx context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, s.Shutdown())
	assert.Equal(t, []string{"postgres", "redis", "activity_worker"}, order)
}

func TestShutdown_ContinuesAfterFailure(t *testing.T) {
	s := newTestServer()

	errBoom := errors.New("boom")
	called := false
	s.OnShutdown("first", func(ctx context.Context) error {
		called = true
		return nil
	})
	s.OnShutdown("second", func(ctx context.Context) error {
		return errBoom
	})

	err := s.Shutdown()
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "second")
	assert.True(t, called, "earlier hooks still run after a failure")
}

func TestRun_StopsWhenContextCancelled(t *testing.T) {
	s := newTestServer()

	stopped := make(chan struct{})
	s.OnShutdown("marker", func(ctx context.Context) error {
		close(stopped)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	<-stopped
}
