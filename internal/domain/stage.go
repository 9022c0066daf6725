package domain

// 通知に使用するステージラベル
const (
	StageLoginPageOpened  = "login page opened"
	StageLoginSucceeded   = "login succeeded"
	StageLoginFailed      = "login failed"
	StageServerPageOpened = "server page opened"
	StageRestartClicked   = "restart clicked"
	StageCommandExecuted  = "command executed"
	StageException        = "exception"
)

// ステージごとのスクリーンショットファイル名。実行のたびに上書きされます。
const (
	ScreenshotChallenge       = "01-challenge-detected.png"
	ScreenshotPreSubmit       = "02-pre-submit.png"
	ScreenshotPostSubmit      = "03-post-submit.png"
	ScreenshotServerPage      = "04-server-page.png"
	ScreenshotCommandExecuted = "05-command-executed.png"
	ScreenshotError           = "99-error.png"
)
