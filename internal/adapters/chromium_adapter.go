package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"panel-autologin/internal/config"
	"panel-autologin/internal/domain"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"github.com/shouni/go-utils/iohandler"
)

// screenshotQuality が 100 の場合、FullScreenshot は PNG で出力されます。
const screenshotQuality = 100

// ChromiumBrowser はヘッドレス Chromium のプロセスを管理します。
// プロセスは最初のページ操作時に遅延起動されます。
type ChromiumBrowser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromiumBrowser は exec allocator を準備します。
func NewChromiumBrowser() *ChromiumBrowser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(config.ViewportWidth, config.ViewportHeight),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromiumBrowser{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}
}

// OpenPage はタブを生成してブラウザを起動し、ネットワークアイドルの監視を開始します。
func (b *ChromiumBrowser) OpenPage(ctx context.Context) (*ChromiumPage, error) {
	tabCtx, tabCancel := chromedp.NewContext(b.allocCtx)
	p := newChromiumPage(tabCtx, tabCancel)

	if err := p.start(ctx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	// メインフレームの ID はターゲット ID と一致します。
	mainFrame := cdp.FrameID(chromedp.FromContext(tabCtx).Target.TargetID)
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.FrameID == mainFrame {
			p.idle.observe(e.Name)
		}
	})

	slog.Info("Browser session opened", "viewport", fmt.Sprintf("%dx%d", config.ViewportWidth, config.ViewportHeight))
	return p, nil
}

// Close は Chromium プロセスを終了します。
func (b *ChromiumBrowser) Close() {
	if b.allocCancel != nil {
		b.allocCancel()
	}
}

// ChromiumPage は 1 つのタブに対する操作を提供します。
// セレクターは DOM.performSearch で解決されるため、CSS と XPath の両方を受け付けます。
type ChromiumPage struct {
	ctx    context.Context
	cancel context.CancelFunc
	idle   *idleTracker

	closeOnce sync.Once
	closeErr  error
}

func newChromiumPage(tabCtx context.Context, tabCancel context.CancelFunc) *ChromiumPage {
	return &ChromiumPage{
		ctx:    tabCtx,
		cancel: tabCancel,
		idle:   newIdleTracker(),
	}
}

// start はタブのコンテキストそのもので最初の Run を行い、ブラウザを割り当てます。
// 最初の Run に渡したコンテキストがブラウザプロセスの寿命になるため、派生コンテキストは使いません。
// ctx がキャンセルされた場合は起動中のタブを閉じます。
func (p *ChromiumPage) start(ctx context.Context) error {
	stop := context.AfterFunc(ctx, p.cancel)
	err := chromedp.Run(p.ctx)
	if !stop() && err == nil {
		err = ctx.Err()
	}
	return err
}

// Navigate は URL を開き、ページの読み込み完了まで待機します。
func (p *ChromiumPage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

// Snapshot は現在の URL と DOM を取得します。
func (p *ChromiumPage) Snapshot(ctx context.Context) (domain.PageSnapshot, error) {
	var snap domain.PageSnapshot
	err := p.run(ctx,
		chromedp.Location(&snap.URL),
		chromedp.OuterHTML("html", &snap.HTML, chromedp.ByQuery),
	)
	return snap, err
}

func (p *ChromiumPage) WaitVisible(ctx context.Context, sel string) error {
	return p.run(ctx, chromedp.WaitVisible(sel, chromedp.BySearch))
}

// Fill は入力欄をクリアしてから値をタイプします。
func (p *ChromiumPage) Fill(ctx context.Context, sel, value string) error {
	return p.run(ctx,
		chromedp.WaitVisible(sel, chromedp.BySearch),
		chromedp.Clear(sel, chromedp.BySearch),
		chromedp.SendKeys(sel, value, chromedp.BySearch),
	)
}

func (p *ChromiumPage) Click(ctx context.Context, sel string) error {
	return p.run(ctx, chromedp.Click(sel, chromedp.BySearch, chromedp.NodeVisible))
}

func (p *ChromiumPage) PressEnter(ctx context.Context, sel string) error {
	return p.run(ctx, chromedp.SendKeys(sel, kb.Enter, chromedp.BySearch))
}

// WaitNetworkIdle はメインフレームが networkIdle に達するまで待機します。
// 既にアイドル状態であれば即座に戻ります。
func (p *ChromiumPage) WaitNetworkIdle(ctx context.Context) error {
	if p.idle.isIdle() {
		return nil
	}
	waitCtx, cancel := p.scoped(ctx)
	defer cancel()
	return callerErr(ctx, p.idle.wait(waitCtx))
}

// Screenshot はページ全体を PNG で撮影し、path に書き出します。
func (p *ChromiumPage) Screenshot(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("screenshot path is empty")
	}
	var buf []byte
	if err := p.run(ctx, chromedp.FullScreenshot(&buf, screenshotQuality)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := iohandler.WriteOutput(path, buf); err != nil {
		return fmt.Errorf("failed to write screenshot %s: %w", path, err)
	}
	return nil
}

// Close はタブ (最初のタブの場合はブラウザ) を閉じます。複数回呼んでも安全です。
func (p *ChromiumPage) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = chromedp.Cancel(p.ctx)
		p.cancel()
	})
	return p.closeErr
}

// run は呼び出し元の期限とキャンセルを引き継いだタブのコンテキストでアクションを実行します。
func (p *ChromiumPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := p.scoped(ctx)
	defer cancel()
	return callerErr(ctx, chromedp.Run(runCtx, actions...))
}

// callerErr は呼び出し元のコンテキストが終了している場合、その理由を優先して返します。
func callerErr(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// scoped はタブのコンテキストから派生させ、ctx の期限とキャンセルを反映します。
// 派生コンテキストのキャンセルはアクションを中断するだけで、タブは閉じません。
func (p *ChromiumPage) scoped(ctx context.Context) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(p.ctx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}
