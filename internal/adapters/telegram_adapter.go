package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"panel-autologin/internal/domain"

	"github.com/shouni/go-http-kit/httpkit"
	"github.com/shouni/go-utils/iohandler"
	"github.com/shouni/go-utils/text"
)

const (
	reportTitle = "🔔 Lunes auto-login"
	// Telegram のメッセージ上限 (4096 文字) に収まるように切り詰めます。
	maxMessageRunes = 3500
	photoFileName   = "screenshot.png"
	isoMillis       = "2006-01-02T15:04:05.000Z07:00"
)

// --- インターフェース定義 ---

// TelegramNotifier は実行結果をチャットへ届ける通知インターフェースです。
// 送信失敗はログに記録するだけで、呼び出し元には返しません。
type TelegramNotifier interface {
	Notify(ctx context.Context, outcome domain.RunOutcome)
}

// --- 具象アダプター ---

type TelegramAdapter struct {
	httpClient httpkit.Doer
	baseURL    string
	token      string
	chatID     string
	now        func() time.Time
}

// telegramResponse は Bot API の共通レスポンスです。
type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// NewTelegramAdapter は TelegramAdapter を生成します。
// token か chatID が空の場合、通知は常にスキップされます。
func NewTelegramAdapter(httpClient httpkit.Doer, baseURL, token, chatID string) *TelegramAdapter {
	return &TelegramAdapter{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      strings.TrimSpace(token),
		chatID:     strings.TrimSpace(chatID),
		now:        time.Now,
	}
}

// Enabled は送信先の設定が揃っているかを返します。
func (a *TelegramAdapter) Enabled() bool {
	return a.httpClient != nil && a.token != "" && a.chatID != ""
}

// Notify はテキストのレポートを送信し、スクリーンショットがあれば別メッセージとして送信します。
func (a *TelegramAdapter) Notify(ctx context.Context, outcome domain.RunOutcome) {
	// 無効時のログは構築時に一度だけ出力します。
	if !a.Enabled() {
		return
	}

	if err := a.sendMessage(ctx, a.buildReport(outcome)); err != nil {
		slog.WarnContext(ctx, "Telegram message failed", "stage", outcome.Stage, "error", err)
	}

	if outcome.ScreenshotPath == "" {
		return
	}
	if _, err := os.Stat(outcome.ScreenshotPath); err != nil {
		slog.InfoContext(ctx, "Screenshot not found, photo skipped", "path", outcome.ScreenshotPath, "error", err)
		return
	}

	caption := fmt.Sprintf("Lunes auto-login screenshot (%s)", outcome.Stage)
	if err := a.sendPhoto(ctx, outcome.ScreenshotPath, caption); err != nil {
		slog.WarnContext(ctx, "Telegram photo failed", "stage", outcome.Stage, "path", outcome.ScreenshotPath, "error", err)
	}
}

// buildReport はステータス、ステージ、メッセージ、時刻を 1 行ずつ並べた本文を生成します。
func (a *TelegramAdapter) buildReport(outcome domain.RunOutcome) string {
	status := "❌ failure"
	if outcome.Success {
		status = "✅ success"
	}

	lines := []string{
		fmt.Sprintf("%s: %s", reportTitle, status),
		fmt.Sprintf("Stage: %s", outcome.Stage),
	}
	if msg := strings.TrimSpace(outcome.Message); msg != "" {
		lines = append(lines, fmt.Sprintf("Info: %s", text.Truncate(msg, maxMessageRunes, "...")))
	}
	lines = append(lines, fmt.Sprintf("Time: %s", a.now().UTC().Format(isoMillis)))

	return strings.Join(lines, "\n")
}

func (a *TelegramAdapter) sendMessage(ctx context.Context, body string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:                a.chatID,
		Text:                  body,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return a.post(ctx, "sendMessage", bytes.NewReader(payload), "application/json")
}

func (a *TelegramAdapter) sendPhoto(ctx context.Context, path, caption string) error {
	image, err := iohandler.ReadInput(path)
	if err != nil {
		return fmt.Errorf("failed to read screenshot: %w", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", a.chatID); err != nil {
		return fmt.Errorf("failed to build photo form: %w", err)
	}
	if err := w.WriteField("caption", caption); err != nil {
		return fmt.Errorf("failed to build photo form: %w", err)
	}
	part, err := w.CreateFormFile("photo", photoFileName)
	if err != nil {
		return fmt.Errorf("failed to build photo form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return fmt.Errorf("failed to build photo form: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to build photo form: %w", err)
	}

	return a.post(ctx, "sendPhoto", &buf, w.FormDataContentType())
}

// post は Bot API のメソッドを 1 回だけ呼び出します。リトライは行いません。
func (a *TelegramAdapter) post(ctx context.Context, method string, body io.Reader, contentType string) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", a.baseURL, a.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, a.redact(err))
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", httpkit.UserAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, a.redact(err))
	}

	respBody, err := httpkit.HandleResponse(resp)
	if err != nil {
		return fmt.Errorf("%s returned an error: %w", method, err)
	}

	var result telegramResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !result.OK {
		return fmt.Errorf("%s rejected: %s", method, result.Description)
	}
	return nil
}

// redact はエラー内の URL からボットトークンを取り除きます。
func (a *TelegramAdapter) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && a.token != "" {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, a.token, "<redacted>")
	}
	return err
}
