package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"panel-autologin/internal/config"
	"panel-autologin/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- テスト用のフェイク ---

// fakePage は呼び出しを記録し、あらかじめ用意したスナップショットを順番に返します。
type fakePage struct {
	mu         sync.Mutex
	calls      []string
	snapshots  []domain.PageSnapshot
	failOn     map[string]error
	panicOn    string
	idleErrs   []error
	closeCount int
}

func (f *fakePage) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if f.panicOn != "" && call == f.panicOn {
		panic("unexpected node state")
	}
	return f.failOn[call]
}

func (f *fakePage) Navigate(_ context.Context, url string) error {
	return f.record("Navigate " + url)
}

func (f *fakePage) Snapshot(context.Context) (domain.PageSnapshot, error) {
	if err := f.record("Snapshot"); err != nil {
		return domain.PageSnapshot{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.snapshots) == 0 {
		return domain.PageSnapshot{}, errors.New("no snapshot prepared")
	}
	snap := f.snapshots[0]
	f.snapshots = f.snapshots[1:]
	return snap, nil
}

func (f *fakePage) WaitVisible(_ context.Context, sel string) error {
	return f.record("WaitVisible " + sel)
}

func (f *fakePage) Fill(_ context.Context, sel, value string) error {
	return f.record(fmt.Sprintf("Fill %s=%s", sel, value))
}

func (f *fakePage) Click(_ context.Context, sel string) error {
	return f.record("Click " + sel)
}

func (f *fakePage) PressEnter(_ context.Context, sel string) error {
	return f.record("PressEnter " + sel)
}

func (f *fakePage) WaitNetworkIdle(context.Context) error {
	if err := f.record("WaitNetworkIdle"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.idleErrs) == 0 {
		return nil
	}
	err := f.idleErrs[0]
	f.idleErrs = f.idleErrs[1:]
	return err
}

func (f *fakePage) Screenshot(_ context.Context, path string) error {
	return f.record("Screenshot " + filepath.Base(path))
}

func (f *fakePage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCount++
	return nil
}

func (f *fakePage) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// withoutIdle は並行に実行されるネットワークアイドル待機を除いた呼び出し列を返します。
func (f *fakePage) withoutIdle() []string {
	var out []string
	for _, c := range f.recorded() {
		if c != "WaitNetworkIdle" {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakePage) count(prefix string) int {
	n := 0
	for _, c := range f.recorded() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

type fakeNotifier struct {
	mu       sync.Mutex
	outcomes []domain.RunOutcome
}

func (n *fakeNotifier) Notify(_ context.Context, outcome domain.RunOutcome) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.outcomes = append(n.outcomes, outcome)
}

func (n *fakeNotifier) stages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, o := range n.outcomes {
		out = append(out, o.Stage)
	}
	return out
}

func (n *fakeNotifier) last() domain.RunOutcome {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.outcomes[len(n.outcomes)-1]
}

type fakeSleeper struct {
	slept []time.Duration
}

func (s *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	return nil
}

var testConfig = config.Config{
	Username: "alice",
	Password: "s3cret",
}

const loginFormHTML = `<html><body><form><input name="username"><input name="password"><button type="submit">Sign in</button></form></body></html>`

func newTestPipeline(page *fakePage, openErr error) (*LoginPipeline, *fakeNotifier, *fakeSleeper) {
	notifier := &fakeNotifier{}
	sleeper := &fakeSleeper{}
	opener := PageOpenerFunc(func(context.Context) (Page, error) {
		if openErr != nil {
			return nil, openErr
		}
		return page, nil
	})
	return NewLoginPipeline(testConfig, opener, notifier, sleeper), notifier, sleeper
}

func successSnapshots() []domain.PageSnapshot {
	return []domain.PageSnapshot{
		{URL: config.LoginURL, HTML: loginFormHTML},
		{URL: "https://ctrl.lunes.host/", HTML: `<html><body><h1>Servers</h1></body></html>`},
	}
}

// --- テスト ---

func TestLoginPipeline_FullSuccess(t *testing.T) {
	page := &fakePage{snapshots: successSnapshots()}
	p, notifier, sleeper := newTestPipeline(page, nil)

	err := p.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.ExitSuccess, domain.ExitCode(err))

	expected := []string{
		"Navigate " + config.LoginURL,
		"Snapshot",
		"WaitVisible " + usernameSelector,
		"WaitVisible " + passwordSelector,
		"Fill " + usernameSelector + "=alice",
		"Fill " + passwordSelector + "=s3cret",
		"WaitVisible " + submitSelector,
		"Screenshot " + domain.ScreenshotPreSubmit,
		"Click " + submitSelector,
		"Screenshot " + domain.ScreenshotPostSubmit,
		"Snapshot",
		`WaitVisible a[href="/server/5202fe13"]`,
		`Click a[href="/server/5202fe13"]`,
		"Screenshot " + domain.ScreenshotServerPage,
		`WaitVisible a[href="/server/5202fe13"].active`,
		`Click a[href="/server/5202fe13"].active`,
		"WaitVisible " + restartSelector,
		"Click " + restartSelector,
		"WaitVisible " + commandInputSelector,
		"Fill " + commandInputSelector + "=working properly",
		"PressEnter " + commandInputSelector,
		"Screenshot " + domain.ScreenshotCommandExecuted,
	}
	assert.Equal(t, expected, page.withoutIdle())
	assert.Equal(t, 3, page.count("WaitNetworkIdle"), "submit race, server page and console")

	assert.Equal(t, []string{
		domain.StageLoginSucceeded,
		domain.StageServerPageOpened,
		domain.StageRestartClicked,
		domain.StageCommandExecuted,
	}, notifier.stages())
	for _, o := range notifier.outcomes {
		assert.True(t, o.Success, o.Stage)
	}
	assert.Equal(t, "current URL: https://ctrl.lunes.host/", notifier.outcomes[0].Message)
	assert.Equal(t, domain.ScreenshotPostSubmit, notifier.outcomes[0].ScreenshotPath)
	assert.Empty(t, notifier.outcomes[2].ScreenshotPath, "restart report carries no screenshot")

	assert.Equal(t, []time.Duration{config.RestartSettleDelay, config.CommandSettleDelay}, sleeper.slept)
	assert.Equal(t, 1, page.closeCount)
}

func TestLoginPipeline_ChallengeDetected(t *testing.T) {
	page := &fakePage{snapshots: []domain.PageSnapshot{
		{URL: config.LoginURL, HTML: `<html><body><h2>Verify you are human</h2></body></html>`},
	}}
	p, notifier, sleeper := newTestPipeline(page, nil)

	err := p.Execute(context.Background())

	require.ErrorIs(t, err, domain.ErrChallengeDetected)
	assert.Equal(t, domain.ExitChallenge, domain.ExitCode(err))

	assert.Zero(t, page.count("Fill"), "credentials must not be filled")
	assert.Zero(t, page.count("Click"), "nothing is submitted")
	assert.Equal(t, 1, page.count("Screenshot"))
	assert.Contains(t, page.recorded(), "Screenshot "+domain.ScreenshotChallenge)

	require.Len(t, notifier.outcomes, 1)
	assert.False(t, notifier.outcomes[0].Success)
	assert.Equal(t, domain.StageLoginPageOpened, notifier.outcomes[0].Stage)
	assert.Equal(t, domain.ScreenshotChallenge, notifier.outcomes[0].ScreenshotPath)

	assert.Empty(t, sleeper.slept)
	assert.Equal(t, 1, page.closeCount)
}

func TestLoginPipeline_LoginRejected(t *testing.T) {
	tests := []struct {
		name        string
		html        string
		wantMessage string
	}{
		{
			name:        "エラー表示あり",
			html:        `<html><body><div role="alert">Invalid credentials</div>` + loginFormHTML + `</body></html>`,
			wantMessage: "suspected failure (Invalid credentials)",
		},
		{
			name:        "エラー表示なし",
			html:        loginFormHTML,
			wantMessage: "still on login page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &fakePage{snapshots: []domain.PageSnapshot{
				{URL: config.LoginURL, HTML: loginFormHTML},
				{URL: config.LoginURL, HTML: tt.html},
			}}
			p, notifier, sleeper := newTestPipeline(page, nil)

			err := p.Execute(context.Background())

			require.ErrorIs(t, err, domain.ErrLoginRejected)
			assert.Equal(t, domain.ExitFailure, domain.ExitCode(err))

			require.Len(t, notifier.outcomes, 1, "no exception report on top of the rejection")
			assert.Equal(t, domain.StageLoginFailed, notifier.outcomes[0].Stage)
			assert.Equal(t, tt.wantMessage, notifier.outcomes[0].Message)
			assert.Equal(t, domain.ScreenshotPostSubmit, notifier.outcomes[0].ScreenshotPath)

			assert.NotContains(t, page.recorded(), `WaitVisible a[href="/server/5202fe13"]`, "no post-login action")
			assert.Empty(t, sleeper.slept)
			assert.Equal(t, 1, page.closeCount)
		})
	}
}

func TestLoginPipeline_RestartNeverVisible(t *testing.T) {
	page := &fakePage{
		snapshots: successSnapshots(),
		failOn: map[string]error{
			"WaitVisible " + restartSelector: context.DeadlineExceeded,
		},
	}
	p, notifier, sleeper := newTestPipeline(page, nil)

	err := p.Execute(context.Background())

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "wait for restart button")
	assert.Equal(t, domain.ExitFailure, domain.ExitCode(err))

	assert.Equal(t, 1, page.closeCount, "page is closed exactly once")
	assert.NotContains(t, page.recorded(), "Click "+restartSelector)
	assert.Contains(t, page.recorded(), "Screenshot "+domain.ScreenshotError)
	assert.Empty(t, sleeper.slept)

	last := notifier.last()
	assert.False(t, last.Success)
	assert.Equal(t, domain.StageException, last.Stage)
	assert.Equal(t, err.Error(), last.Message)
	assert.Equal(t, domain.ScreenshotError, last.ScreenshotPath)
}

func TestLoginPipeline_ErrorScreenshotFailureIsTolerated(t *testing.T) {
	page := &fakePage{
		snapshots: successSnapshots(),
		failOn: map[string]error{
			"WaitVisible " + commandInputSelector:  context.DeadlineExceeded,
			"Screenshot " + domain.ScreenshotError: errors.New("target closed"),
		},
	}
	p, notifier, _ := newTestPipeline(page, nil)

	err := p.Execute(context.Background())

	require.ErrorIs(t, err, context.DeadlineExceeded)
	last := notifier.last()
	assert.Equal(t, domain.StageException, last.Stage)
	assert.Empty(t, last.ScreenshotPath, "missing error screenshot is not attached")
	assert.Equal(t, 1, page.closeCount)
}

func TestLoginPipeline_SubmitIdleTimeoutIsIgnored(t *testing.T) {
	page := &fakePage{
		snapshots: successSnapshots(),
		idleErrs:  []error{context.DeadlineExceeded},
	}
	p, notifier, _ := newTestPipeline(page, nil)

	err := p.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, domain.StageCommandExecuted, notifier.last().Stage)
}

func TestLoginPipeline_IdleTimeoutAfterLoginIsFatal(t *testing.T) {
	page := &fakePage{
		snapshots: successSnapshots(),
		idleErrs:  []error{nil, context.DeadlineExceeded},
	}
	p, notifier, _ := newTestPipeline(page, nil)

	err := p.Execute(context.Background())

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "server page network idle")
	assert.Equal(t, []string{domain.StageLoginSucceeded, domain.StageException}, notifier.stages())
}

func TestLoginPipeline_SubmitClickFailure(t *testing.T) {
	page := &fakePage{
		snapshots: successSnapshots(),
		failOn: map[string]error{
			"Click " + submitSelector: errors.New("node not visible"),
		},
	}
	p, notifier, _ := newTestPipeline(page, nil)

	err := p.Execute(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "click submit button")
	assert.NotContains(t, page.recorded(), "Screenshot "+domain.ScreenshotPostSubmit)
	assert.Equal(t, []string{domain.StageException}, notifier.stages())
	assert.Equal(t, 1, page.closeCount)
}

func TestLoginPipeline_OpenPageFailure(t *testing.T) {
	p, notifier, _ := newTestPipeline(nil, errors.New("chrome not found"))

	err := p.Execute(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open browser page")
	require.Len(t, notifier.outcomes, 1)
	assert.Equal(t, domain.StageException, notifier.outcomes[0].Stage)
	assert.Empty(t, notifier.outcomes[0].ScreenshotPath)
}

func TestLoginPipeline_PanicIsRecovered(t *testing.T) {
	page := &fakePage{
		snapshots: successSnapshots(),
		panicOn:   "Click " + restartSelector,
	}
	p, notifier, _ := newTestPipeline(page, nil)

	var err error
	require.NotPanics(t, func() {
		err = p.Execute(context.Background())
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic during run")
	assert.Equal(t, domain.ExitFailure, domain.ExitCode(err))
	assert.Equal(t, domain.StageException, notifier.last().Stage)
	assert.Equal(t, 1, page.closeCount)
}

func TestContextSleeper(t *testing.T) {
	var s contextSleeper

	require.NoError(t, s.Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Sleep(ctx, time.Hour), context.Canceled)
}
