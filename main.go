package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"panel-autologin/internal/builder"
	"panel-autologin/internal/config"
	"panel-autologin/internal/domain"

	"github.com/google/uuid"
)

func main() {
	runID := uuid.NewString()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("run_id", runID))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()

	if err != nil {
		slog.Error("Application failed", "error", err)
	}
	os.Exit(domain.ExitCode(err))
}

func run(ctx context.Context) error {
	// 1. 設定のロード (バリデーションはコンテナ構築時に行います)
	cfg := config.LoadConfig()

	// 2. 依存関係の構築とライフサイクル管理
	container, err := builder.BuildContainer(cfg)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer container.Close()

	// 3. ログインからコンソール操作までの実行
	slog.Info("🚀 Auto-login starting...", "login_url", config.LoginURL, "notifications", cfg.TelegramEnabled())
	return container.Pipeline.Execute(ctx)
}
