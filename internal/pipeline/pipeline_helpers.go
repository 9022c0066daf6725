package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"panel-autologin/internal/config"
	"panel-autologin/internal/domain"
)

// notify は通知を送信します。通知の失敗は Notifier 側でログに記録されます。
func (e *loginExecution) notify(ctx context.Context, outcome domain.RunOutcome) {
	if e.pipeline.notifier == nil {
		return
	}
	e.pipeline.notifier.Notify(ctx, outcome)
}

// snapshot は判定用に現在の URL と DOM を取得します。
func (e *loginExecution) snapshot(ctx context.Context) (domain.PageSnapshot, error) {
	var snap domain.PageSnapshot
	err := withTimeout(ctx, config.SnapshotTimeout, func(ctx context.Context) error {
		var err error
		snap, err = e.page.Snapshot(ctx)
		return err
	})
	if err != nil {
		return domain.PageSnapshot{}, fmt.Errorf("capture page snapshot: %w", err)
	}
	return snap, nil
}

// screenshot はステージ名のファイルにページ全体を保存し、そのパスを返します。
func (e *loginExecution) screenshot(ctx context.Context, name string) (string, error) {
	path := e.pipeline.cfg.ScreenshotPath(name)
	if err := withTimeout(ctx, config.ScreenshotTimeout, func(ctx context.Context) error {
		return e.page.Screenshot(ctx, path)
	}); err != nil {
		return "", fmt.Errorf("screenshot %s: %w", name, err)
	}
	slog.InfoContext(ctx, "Screenshot saved", "path", path)
	return path, nil
}

// bestEffortScreenshot は失敗してもエラーを返さず、保存できなかった場合は空のパスを返します。
func (e *loginExecution) bestEffortScreenshot(ctx context.Context, name string) string {
	if e.page == nil {
		return ""
	}
	path, err := e.screenshot(ctx, name)
	if err != nil {
		slog.WarnContext(ctx, "Screenshot skipped", "name", name, "error", err)
		return ""
	}
	return path
}

// reportException は予期しないエラーをスクリーンショット付きで通知します。
// 親コンテキストがキャンセル済みでも報告できるよう、キャンセルを切り離します。
func (e *loginExecution) reportException(ctx context.Context, opErr error) {
	slog.ErrorContext(ctx, "Pipeline execution failed", "error", opErr)

	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.ErrorReportTimeout)
	defer cancel()

	path := e.bestEffortScreenshot(reportCtx, domain.ScreenshotError)
	e.notify(reportCtx, domain.Failed(domain.StageException, opErr.Error(), path))
}
