package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"panel-autologin/internal/config"
	"panel-autologin/internal/domain"

	"golang.org/x/sync/errgroup"
)

// ログインフォームのセレクター
const (
	usernameSelector = `input[name="username"]`
	passwordSelector = `input[name="password"]`
	submitSelector   = `button[type="submit"]`
)

// openLoginPage はログインページを開き、ボット検証ページでないことを確認するのだ。
func (e *loginExecution) openLoginPage(ctx context.Context) error {
	slog.InfoContext(ctx, "Step: Open login page", "url", config.LoginURL)

	if err := withTimeout(ctx, config.NavigationTimeout, func(ctx context.Context) error {
		return e.page.Navigate(ctx, config.LoginURL)
	}); err != nil {
		return fmt.Errorf("navigate to login page: %w", err)
	}

	snap, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	state := ClassifyLoginPage(snap)
	slog.InfoContext(ctx, "Login page classified", "state", state.String())

	if state.Kind == domain.PageChallenge {
		path := e.bestEffortScreenshot(ctx, domain.ScreenshotChallenge)
		e.notify(ctx, domain.Failed(domain.StageLoginPageOpened, "bot verification challenge detected", path))
		return domain.ErrChallengeDetected
	}
	return nil
}

// fillCredentials はユーザー名とパスワードの入力欄が表示されるのを待ってから入力します。
func (e *loginExecution) fillCredentials(ctx context.Context) error {
	slog.InfoContext(ctx, "Step: Fill credentials")

	cfg := e.pipeline.cfg
	fields := []struct {
		name  string
		sel   string
		value string
	}{
		{name: "username", sel: usernameSelector, value: cfg.Username},
		{name: "password", sel: passwordSelector, value: cfg.Password},
	}

	for _, f := range fields {
		if err := withTimeout(ctx, config.CredentialTimeout, func(ctx context.Context) error {
			return e.page.WaitVisible(ctx, f.sel)
		}); err != nil {
			return fmt.Errorf("wait for %s field: %w", f.name, err)
		}
	}
	for _, f := range fields {
		if err := withTimeout(ctx, config.CredentialTimeout, func(ctx context.Context) error {
			return e.page.Fill(ctx, f.sel, f.value)
		}); err != nil {
			return fmt.Errorf("fill %s field: %w", f.name, err)
		}
	}
	return nil
}

// submit はフォームを送信します。クリックとネットワークアイドル待機を並行に実行し、
// アイドル待機の失敗は無視します。
func (e *loginExecution) submit(ctx context.Context) error {
	slog.InfoContext(ctx, "Step: Submit login form")

	if err := withTimeout(ctx, config.SubmitVisibleTimeout, func(ctx context.Context) error {
		return e.page.WaitVisible(ctx, submitSelector)
	}); err != nil {
		return fmt.Errorf("wait for submit button: %w", err)
	}

	if _, err := e.screenshot(ctx, domain.ScreenshotPreSubmit); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := withTimeout(gctx, config.SubmitIdleTimeout, e.page.WaitNetworkIdle); err != nil {
			slog.DebugContext(ctx, "Network idle not reached after submit", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		return withTimeout(gctx, config.SubmitClickTimeout, func(ctx context.Context) error {
			return e.page.Click(ctx, submitSelector)
		})
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("click submit button: %w", err)
	}
	return nil
}

// verifyLogin は送信後のページを判定し、失敗であれば通知して ErrLoginRejected を返します。
func (e *loginExecution) verifyLogin(ctx context.Context) error {
	postPath, err := e.screenshot(ctx, domain.ScreenshotPostSubmit)
	if err != nil {
		return err
	}

	snap, err := e.snapshot(ctx)
	if err != nil {
		return err
	}
	state := ClassifySubmitResult(snap)
	slog.InfoContext(ctx, "Submit result classified", "state", state.String(), "url", snap.URL)

	if state.Kind == domain.PageSuccess {
		if state.Reason == domain.ReasonSuccessIndicator && HasErrorIndicator(snap) {
			slog.WarnContext(ctx, "Success indicator found alongside an error message on the login page",
				"ambiguous", true,
				"url", snap.URL,
			)
		}
		e.notify(ctx, domain.Succeeded(domain.StageLoginSucceeded, "current URL: "+snap.URL, postPath))
		return nil
	}

	msg := "still on login page"
	if state.Reason != "" {
		msg = fmt.Sprintf("suspected failure (%s)", state.Reason)
	}
	e.notify(ctx, domain.Failed(domain.StageLoginFailed, msg, postPath))
	return fmt.Errorf("%s: %w", msg, domain.ErrLoginRejected)
}
