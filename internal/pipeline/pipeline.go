package pipeline

import (
	"context"
	"log/slog"
	"time"

	"panel-autologin/internal/config"
	"panel-autologin/internal/domain"
)

// --- ポート定義 ---

// Page はパイプラインが操作する 1 つのブラウザページです。
// セレクターは CSS と XPath のどちらでも指定できます。
type Page interface {
	Navigate(ctx context.Context, url string) error
	Snapshot(ctx context.Context) (domain.PageSnapshot, error)
	WaitVisible(ctx context.Context, sel string) error
	Fill(ctx context.Context, sel, value string) error
	Click(ctx context.Context, sel string) error
	PressEnter(ctx context.Context, sel string) error
	WaitNetworkIdle(ctx context.Context) error
	Screenshot(ctx context.Context, path string) error
	Close() error
}

// PageOpener はブラウザセッションを開始し、操作対象のページを返します。
type PageOpener interface {
	OpenPage(ctx context.Context) (Page, error)
}

// PageOpenerFunc は関数を PageOpener として扱うためのアダプターです。
type PageOpenerFunc func(ctx context.Context) (Page, error)

func (f PageOpenerFunc) OpenPage(ctx context.Context) (Page, error) {
	return f(ctx)
}

// Notifier は各ステージの結果を通知します。失敗は実装側で握りつぶされます。
type Notifier interface {
	Notify(ctx context.Context, outcome domain.RunOutcome)
}

// Sleeper は固定時間の待機を提供します。
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// contextSleeper は ctx のキャンセルで中断できる実時間の Sleeper です。
type contextSleeper struct{}

func (contextSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --- パイプライン ---

// LoginPipeline はログインからコンソール操作までの一連の手順を実行します。
type LoginPipeline struct {
	cfg      config.Config
	opener   PageOpener
	notifier Notifier
	sleeper  Sleeper
}

// NewLoginPipeline は LoginPipeline を生成します。sleeper が nil の場合は実時間で待機します。
func NewLoginPipeline(cfg config.Config, opener PageOpener, notifier Notifier, sleeper Sleeper) *LoginPipeline {
	if sleeper == nil {
		sleeper = contextSleeper{}
	}
	return &LoginPipeline{
		cfg:      cfg,
		opener:   opener,
		notifier: notifier,
		sleeper:  sleeper,
	}
}

// Execute は 1 回分の実行を行います。
// 戻り値のエラーは domain.ExitCode で終了ステータスに変換できます。
func (p *LoginPipeline) Execute(ctx context.Context) error {
	exec := &loginExecution{
		pipeline:  p,
		startTime: time.Now(),
	}

	err := exec.run(ctx)
	slog.InfoContext(ctx, "Pipeline execution finished",
		"elapsed", time.Since(exec.startTime).Round(time.Millisecond).String(),
		"exit_code", domain.ExitCode(err),
	)
	return err
}
