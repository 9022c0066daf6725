package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"panel-autologin/internal/config"
	"panel-autologin/internal/domain"
)

// ログイン後に操作する要素のセレクター
const (
	restartSelector      = `//button[contains(normalize-space(.), "Restart")]`
	commandInputSelector = `input[placeholder="Type a command..."]`
)

func serverLinkSelector() string {
	return fmt.Sprintf(`a[href="%s"]`, config.ServerPath)
}

func consoleLinkSelector() string {
	return fmt.Sprintf(`a[href="%s"].active`, config.ServerPath)
}

// runPostLogin はサーバーページを開き、再起動とコマンド送信を行います。
// 途中の失敗は実行全体の失敗として扱います。
func (e *loginExecution) runPostLogin(ctx context.Context) error {
	if err := e.openServerPage(ctx); err != nil {
		return err
	}
	if err := e.openConsole(ctx); err != nil {
		return err
	}
	if err := e.restartServer(ctx); err != nil {
		return err
	}
	return e.sendCommand(ctx)
}

func (e *loginExecution) openServerPage(ctx context.Context) error {
	slog.InfoContext(ctx, "Step: Open server page", "path", config.ServerPath)

	if err := e.waitAndClick(ctx, "server link", serverLinkSelector(), config.ServerLinkTimeout, config.ServerClickTimeout); err != nil {
		return err
	}
	if err := withTimeout(ctx, config.ServerIdleTimeout, e.page.WaitNetworkIdle); err != nil {
		return fmt.Errorf("wait for server page network idle: %w", err)
	}

	path, err := e.screenshot(ctx, domain.ScreenshotServerPage)
	if err != nil {
		return err
	}
	e.notify(ctx, domain.Succeeded(domain.StageServerPageOpened, "server details opened", path))
	return nil
}

func (e *loginExecution) openConsole(ctx context.Context) error {
	slog.InfoContext(ctx, "Step: Open console")

	if err := e.waitAndClick(ctx, "console link", consoleLinkSelector(), config.ConsoleLinkTimeout, config.ConsoleClickTimeout); err != nil {
		return err
	}
	if err := withTimeout(ctx, config.ConsoleIdleTimeout, e.page.WaitNetworkIdle); err != nil {
		return fmt.Errorf("wait for console network idle: %w", err)
	}
	return nil
}

// restartServer は Restart を押して通知し、再起動の反映を待つのだ。
func (e *loginExecution) restartServer(ctx context.Context) error {
	slog.InfoContext(ctx, "Step: Restart server")

	if err := e.waitAndClick(ctx, "restart button", restartSelector, config.RestartVisibleTimeout, config.DefaultActionTimeout); err != nil {
		return err
	}
	e.notify(ctx, domain.Succeeded(domain.StageRestartClicked, "restarting VPS", ""))

	if err := e.pipeline.sleeper.Sleep(ctx, config.RestartSettleDelay); err != nil {
		return fmt.Errorf("wait after restart: %w", err)
	}
	return nil
}

func (e *loginExecution) sendCommand(ctx context.Context) error {
	slog.InfoContext(ctx, "Step: Send console command")

	if err := withTimeout(ctx, config.CommandInputTimeout, func(ctx context.Context) error {
		return e.page.WaitVisible(ctx, commandInputSelector)
	}); err != nil {
		return fmt.Errorf("wait for command input: %w", err)
	}
	if err := withTimeout(ctx, config.DefaultActionTimeout, func(ctx context.Context) error {
		return e.page.Fill(ctx, commandInputSelector, config.ConsoleCommand)
	}); err != nil {
		return fmt.Errorf("fill command input: %w", err)
	}
	if err := withTimeout(ctx, config.DefaultActionTimeout, func(ctx context.Context) error {
		return e.page.PressEnter(ctx, commandInputSelector)
	}); err != nil {
		return fmt.Errorf("press enter in command input: %w", err)
	}

	if err := e.pipeline.sleeper.Sleep(ctx, config.CommandSettleDelay); err != nil {
		return fmt.Errorf("wait after command: %w", err)
	}

	path, err := e.screenshot(ctx, domain.ScreenshotCommandExecuted)
	if err != nil {
		return err
	}
	e.notify(ctx, domain.Succeeded(domain.StageCommandExecuted, fmt.Sprintf("command %q sent", config.ConsoleCommand), path))
	return nil
}
