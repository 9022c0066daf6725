package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleTracker_WaitTimesOutBeforeIdle(t *testing.T) {
	tr := newIdleTracker()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := tr.wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, tr.isIdle())
}

func TestIdleTracker_ReturnsImmediatelyWhenIdle(t *testing.T) {
	tr := newIdleTracker()
	tr.observe("DOMContentLoaded")
	tr.observe(lifecycleNetworkIdle)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, tr.wait(ctx))
	assert.True(t, tr.isIdle())
}

func TestIdleTracker_ReleasesPendingWaiter(t *testing.T) {
	tr := newIdleTracker()

	done := make(chan error, 1)
	go func() {
		done <- tr.wait(context.Background())
	}()

	tr.observe("load")
	tr.observe(lifecycleNetworkIdle)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiter was not released by networkIdle")
	}
}

func TestIdleTracker_InitResetsIdle(t *testing.T) {
	tr := newIdleTracker()
	tr.observe(lifecycleNetworkIdle)
	require.True(t, tr.isIdle())

	tr.observe(lifecycleInit)
	assert.False(t, tr.isIdle())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tr.wait(ctx), context.DeadlineExceeded)

	// 重複したイベントで二重 close にならないこと
	tr.observe(lifecycleNetworkIdle)
	tr.observe(lifecycleNetworkIdle)
	assert.True(t, tr.isIdle())
}
