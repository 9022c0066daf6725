package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shouni/netarmor/securenet"
)

// TelegramEnabled は通知先の設定 (トークンとチャット ID) が揃っているかを返します。
func (c Config) TelegramEnabled() bool {
	return strings.TrimSpace(c.TelegramBotToken) != "" && strings.TrimSpace(c.TelegramChatID) != ""
}

// ScreenshotPath はステージ名のファイルを保存ディレクトリ配下のパスに解決します。
func (c Config) ScreenshotPath(name string) string {
	return filepath.Join(ScreenshotDir, name)
}

// --- バリデーション ---

// ValidateEssentialConfig は実行に不可欠な設定を検証します。
// ブラウザや HTTP クライアントを生成する前に呼び出す必要があります。
func ValidateEssentialConfig(cfg Config) error {
	if cfg.Username == "" {
		return fmt.Errorf("configuration error: environment variable %s is not set", EnvUsername)
	}
	if cfg.Password == "" {
		return fmt.Errorf("configuration error: environment variable %s is not set", EnvPassword)
	}

	if !IsSecureURL(LoginURL) {
		return fmt.Errorf("security error: login URL ('%s') must be HTTPS", LoginURL)
	}
	if !IsSecureURL(TelegramAPIBaseURL) {
		return fmt.Errorf("security error: Telegram API URL ('%s') must be HTTPS", TelegramAPIBaseURL)
	}

	return nil
}

// IsSecureURL は指定された URL が HTTPS または localhost であるか判定します。
func IsSecureURL(rawURL string) bool {
	return securenet.IsSecureServiceURL(rawURL)
}
