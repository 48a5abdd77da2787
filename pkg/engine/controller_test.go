package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestControllerToggle(t *testing.T) {
	c := NewController()
	require.False(t, c.Paused())
	require.Equal(t, "running", c.State())

	require.True(t, c.Toggle())
	require.True(t, c.Paused())
	require.Equal(t, "paused", c.State())

	require.False(t, c.Toggle())
	require.False(t, c.Paused())
}

func TestControllerWaitReturnsKillError(t *testing.T) {
	c := NewController()
	boom := errors.New("boom")

	done := make(chan error, 1)
	go func() { done <- c.Wait(context.Background()) }()

	c.Kill(boom)
	select {
	case err := <-done:
		require.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatalf("wait did not observe kill")
	}
	require.Equal(t, "stopping", c.State())
}

func TestControllerWaitObservesContextCancellation(t *testing.T) {
	c := NewController()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Wait(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatalf("wait did not observe cancellation")
	}
}
