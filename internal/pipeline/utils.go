package pipeline

import (
	"context"
	"fmt"
	"time"
)

// withTimeout は d を上限として fn を実行します。
func withTimeout(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	stepCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(stepCtx)
}

// waitAndClick は要素が表示されるのを待ってからクリックします。
func (e *loginExecution) waitAndClick(ctx context.Context, name, sel string, visibleTimeout, clickTimeout time.Duration) error {
	if err := withTimeout(ctx, visibleTimeout, func(ctx context.Context) error {
		return e.page.WaitVisible(ctx, sel)
	}); err != nil {
		return fmt.Errorf("wait for %s: %w", name, err)
	}
	if err := withTimeout(ctx, clickTimeout, func(ctx context.Context) error {
		return e.page.Click(ctx, sel)
	}); err != nil {
		return fmt.Errorf("click %s: %w", name, err)
	}
	return nil
}
