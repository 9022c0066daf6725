package adapters

import (
	"context"
	"sync"
)

// ページのライフサイクルイベント名
const (
	lifecycleInit        = "init"
	lifecycleNetworkIdle = "networkIdle"
)

// idleTracker はメインフレームのネットワークアイドル状態を追跡します。
// CDP イベントは chromedp のイベント goroutine から届くため、mutex で保護します。
type idleTracker struct {
	mu    sync.Mutex
	idle  bool
	ready chan struct{} // idle の間は close 済み
}

func newIdleTracker() *idleTracker {
	return &idleTracker{ready: make(chan struct{})}
}

// observe はライフサイクルイベントを反映します。新しいドキュメントの読み込み (init) で
// アイドル状態はリセットされます。
func (t *idleTracker) observe(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch name {
	case lifecycleInit:
		if t.idle {
			t.idle = false
			t.ready = make(chan struct{})
		}
	case lifecycleNetworkIdle:
		if !t.idle {
			t.idle = true
			close(t.ready)
		}
	}
}

func (t *idleTracker) isIdle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.idle
}

// wait はアイドル状態になるか ctx が終了するまでブロックします。
func (t *idleTracker) wait(ctx context.Context) error {
	t.mu.Lock()
	ready := t.ready
	t.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
