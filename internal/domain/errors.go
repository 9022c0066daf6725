package domain

import (
	"errors"
)

var (
	// ErrChallengeDetected はログインページでボット検証が検出されたことを示します。
	ErrChallengeDetected = errors.New("blocked by bot verification challenge")
	// ErrLoginRejected は送信後もログインページに留まり、成功の兆候がないことを示します。
	ErrLoginRejected = errors.New("login rejected")
)

// プロセスの終了ステータス
const (
	ExitSuccess   = 0
	ExitFailure   = 1
	ExitChallenge = 2
)

// ExitCode は実行結果のエラーをプロセスの終了ステータスに変換します。
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrChallengeDetected):
		return ExitChallenge
	default:
		return ExitFailure
	}
}

// IsReported は、エラーが既に通知済みの終端状態 (検証ページ・ログイン拒否) かを判定します。
func IsReported(err error) bool {
	return errors.Is(err, ErrChallengeDetected) || errors.Is(err, ErrLoginRejected)
}
