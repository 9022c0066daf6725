package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

const (
	// LoginURL は自動ログインの対象となるコントロールパネルのログインページです。
	LoginURL = "https://ctrl.lunes.host/auth/login"
	// ServerPath はログイン後に開くサーバー詳細ページのパスです。
	ServerPath = "/server/5202fe13"
	// ConsoleCommand はコンソールに入力する固定コマンドです。
	ConsoleCommand = "working properly"

	// TelegramAPIBaseURL は Telegram Bot API のエンドポイントです。
	TelegramAPIBaseURL = "https://api.telegram.org"
	// DefaultHTTPTimeout は通知 API 呼び出し 1 回あたりのタイムアウトです。
	DefaultHTTPTimeout = 30 * time.Second

	// ScreenshotDir はスクリーンショットの保存先 (作業ディレクトリ) です。
	ScreenshotDir = "."

	ViewportWidth  = 1366
	ViewportHeight = 768
)

// 各ステップの待機上限。超過した場合はそのステップの失敗として扱います。
const (
	NavigationTimeout     = 60 * time.Second
	CredentialTimeout     = 30 * time.Second
	SubmitVisibleTimeout  = 15 * time.Second
	SubmitClickTimeout    = 10 * time.Second
	SubmitIdleTimeout     = 30 * time.Second
	ServerLinkTimeout     = 20 * time.Second
	ServerClickTimeout    = 10 * time.Second
	ServerIdleTimeout     = 30 * time.Second
	ConsoleLinkTimeout    = 15 * time.Second
	ConsoleClickTimeout   = 5 * time.Second
	ConsoleIdleTimeout    = 10 * time.Second
	RestartVisibleTimeout = 15 * time.Second
	CommandInputTimeout   = 20 * time.Second
	DefaultActionTimeout  = 30 * time.Second
	SnapshotTimeout       = 15 * time.Second
	ScreenshotTimeout     = 30 * time.Second

	// ErrorReportTimeout は例外発生時のスクリーンショットと通知に与える時間です。
	ErrorReportTimeout = 45 * time.Second

	// RestartSettleDelay は Restart クリック後、再起動の反映を待つ固定時間です。
	RestartSettleDelay = 10 * time.Second
	// CommandSettleDelay はコマンド送信後、出力を待つ固定時間です。
	CommandSettleDelay = 5 * time.Second
)

// 環境変数名
const (
	EnvUsername         = "LUNES_USERNAME"
	EnvPassword         = "LUNES_PASSWORD"
	EnvTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID   = "TELEGRAM_CHAT_ID"
)

// Config は環境変数から読み込まれた実行時設定を保持します。
// プロセス開始時に一度だけ生成し、値として各コンポーネントへ渡します。
type Config struct {
	Username string
	Password string

	// TelegramBotToken と TelegramChatID のどちらかが空の場合、通知は無効になります。
	TelegramBotToken string
	TelegramChatID   string
}

// LoadConfig は環境変数から設定を読み込み、Config 構造体を生成します。
func LoadConfig() Config {
	return Config{
		Username:         envutil.GetEnv(EnvUsername, ""),
		Password:         envutil.GetEnv(EnvPassword, ""),
		TelegramBotToken: envutil.GetEnv(EnvTelegramBotToken, ""),
		TelegramChatID:   envutil.GetEnv(EnvTelegramChatID, ""),
	}
}
