package domain

import "fmt"

// PageSnapshot はある時点のページの URL と DOM を保持します。
// 画面状態の判定はすべてこのスナップショットに対して行います。
type PageSnapshot struct {
	URL  string
	HTML string
}

// PageKind はページ判定の種別です。
type PageKind int

const (
	PageUnknown PageKind = iota
	// PageChallenge はボット検証ページです。
	PageChallenge
	// PageLoginForm は通常のログインフォームです。
	PageLoginForm
	// PageSuccess はログイン成功と判定されたページです。
	PageSuccess
	// PageFailure はログイン失敗と判定されたページです。
	PageFailure
)

func (k PageKind) String() string {
	switch k {
	case PageChallenge:
		return "challenge"
	case PageLoginForm:
		return "login-form"
	case PageSuccess:
		return "success"
	case PageFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// 成功判定の根拠
const (
	ReasonURLChanged       = "url-changed"
	ReasonSuccessIndicator = "success-indicator"
)

// PageState はページ判定の結果です。
// Reason は PageFailure の場合はエラー表示のテキスト (空の場合あり)、
// PageSuccess の場合は判定の根拠を表します。
type PageState struct {
	Kind   PageKind
	Reason string
}

func (s PageState) String() string {
	if s.Reason == "" {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", s.Kind, s.Reason)
}
