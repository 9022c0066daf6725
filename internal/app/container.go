package app

import (
	"log/slog"

	"panel-autologin/internal/adapters"
	"panel-autologin/internal/config"
	"panel-autologin/internal/pipeline"

	"github.com/shouni/go-http-kit/httpkit"
)

// Container はアプリケーションの依存関係（DIコンテナ）を保持します。
type Container struct {
	Config config.Config

	// Browser
	Browser *adapters.ChromiumBrowser

	// Business Logic
	Pipeline *pipeline.LoginPipeline

	// External Adapters
	HTTPClient httpkit.Doer
	Notifier   adapters.TelegramNotifier
}

// Close は、Container が保持するブラウザプロセスを解放します。
func (c *Container) Close() {
	if c == nil || c.Browser == nil {
		return
	}
	slog.Info("Closing browser...")
	c.Browser.Close()
}
