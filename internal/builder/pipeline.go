package builder

import (
	"context"

	"panel-autologin/internal/adapters"
	"panel-autologin/internal/config"
	"panel-autologin/internal/pipeline"
)

// buildPipeline は、ブラウザと通知アダプターを注入したパイプラインを初期化して返します。
func buildPipeline(cfg config.Config, browser *adapters.ChromiumBrowser, notifier pipeline.Notifier) *pipeline.LoginPipeline {
	opener := pipeline.PageOpenerFunc(func(ctx context.Context) (pipeline.Page, error) {
		page, err := browser.OpenPage(ctx)
		if err != nil {
			return nil, err
		}
		return page, nil
	})

	return pipeline.NewLoginPipeline(cfg, opener, notifier, nil)
}
