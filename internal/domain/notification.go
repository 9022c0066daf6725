package domain

// RunOutcome は各ステージの結果を通知コンポーネントへ伝えるためのデータ構造です。
// 報告のたびに生成され、通知後は破棄されます。
type RunOutcome struct {
	// Success はステージが成功したかどうかです。
	Success bool `json:"success"`

	// Stage はどのステップの報告かを示すラベルです。(例: "login page opened")
	Stage string `json:"stage"`

	// Message は補足情報です。空の場合は通知本文から省略されます。
	Message string `json:"message,omitempty"`

	// ScreenshotPath は添付するスクリーンショットのパスです。空の場合は画像を送りません。
	ScreenshotPath string `json:"screenshot_path,omitempty"`
}

// Succeeded は成功を表す RunOutcome を生成します。
func Succeeded(stage, message, screenshotPath string) RunOutcome {
	return RunOutcome{Success: true, Stage: stage, Message: message, ScreenshotPath: screenshotPath}
}

// Failed は失敗を表す RunOutcome を生成します。
func Failed(stage, message, screenshotPath string) RunOutcome {
	return RunOutcome{Success: false, Stage: stage, Message: message, ScreenshotPath: screenshotPath}
}
