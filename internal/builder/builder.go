package builder

import (
	"fmt"
	"log/slog"

	"panel-autologin/internal/adapters"
	"panel-autologin/internal/app"
	"panel-autologin/internal/config"

	"github.com/shouni/go-http-kit/httpkit"
)

// BuildContainer は設定を検証してから依存関係を組み立てます。
// 検証に失敗した場合、HTTP クライアントやブラウザは一切生成されません。
func BuildContainer(cfg config.Config) (*app.Container, error) {
	// 1. 設定のバリデーション
	if err := config.ValidateEssentialConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 2. 基盤クライアントの初期化
	httpClient := httpkit.New(config.DefaultHTTPTimeout)

	// 3. アダプターの初期化
	notifier := adapters.NewTelegramAdapter(httpClient, config.TelegramAPIBaseURL, cfg.TelegramBotToken, cfg.TelegramChatID)
	if !notifier.Enabled() {
		slog.Info("Telegram notifications are disabled", "token_env", config.EnvTelegramBotToken, "chat_env", config.EnvTelegramChatID)
	}
	browser := adapters.NewChromiumBrowser()

	// 4. パイプラインの構築
	p := buildPipeline(cfg, browser, notifier)

	return &app.Container{
		Config:     cfg,
		Browser:    browser,
		Pipeline:   p,
		HTTPClient: httpClient,
		Notifier:   notifier,
	}, nil
}
