package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"panel-autologin/internal/config"
	"panel-autologin/internal/domain"
)

// loginExecution は 1 回の実行に関する状態 (開始時刻や開いたページ) を保持します。
type loginExecution struct {
	pipeline  *LoginPipeline
	page      Page
	startTime time.Time
}

// run はログインと後続のコンソール操作を順番に実行します。
// 予期しないエラーと panic は最後の defer でまとめて報告します。
func (e *loginExecution) run(ctx context.Context) (err error) {
	// ページのクローズは例外報告 (スクリーンショット) の後に行います。
	defer e.closePage()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during run: %v", r)
		}
		if err != nil && !domain.IsReported(err) {
			e.reportException(ctx, err)
		}
	}()

	slog.InfoContext(ctx, "Pipeline execution started", "login_url", config.LoginURL)

	page, err := e.pipeline.opener.OpenPage(ctx)
	if err != nil {
		return fmt.Errorf("open browser page: %w", err)
	}
	e.page = page

	// --- Phase 1: Login ---
	if err = e.openLoginPage(ctx); err != nil {
		return err
	}
	if err = e.fillCredentials(ctx); err != nil {
		return err
	}
	if err = e.submit(ctx); err != nil {
		return err
	}
	if err = e.verifyLogin(ctx); err != nil {
		return err
	}

	// --- Phase 2: Server console ---
	return e.runPostLogin(ctx)
}

func (e *loginExecution) closePage() {
	if e.page == nil {
		return
	}
	if err := e.page.Close(); err != nil {
		slog.Warn("Failed to close browser page", "error", err)
	}
}
