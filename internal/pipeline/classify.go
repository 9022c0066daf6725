package pipeline

import (
	"regexp"
	"strings"

	"panel-autologin/internal/domain"

	"github.com/PuerkitoBio/goquery"
	"github.com/shouni/go-utils/text"
	"golang.org/x/net/html"
)

var (
	challengePattern = regexp.MustCompile(`(?i)verify you are human|требуется подтверждение|проверка безопасности|review the security`)
	successPattern   = regexp.MustCompile(`(?i)dashboard|logout|sign out|консоль|панель управления`)
	errorPattern     = regexp.MustCompile(`(?i)invalid|incorrect|ошибка|сбой|недействительный`)
	loginPathPattern = regexp.MustCompile(`(?i)/auth/login`)
)

// 表示されないテキストを持つ要素
const hiddenSelector = "script, style, noscript, template"

// ClassifyLoginPage はログインページを開いた直後の状態を判定します。
func ClassifyLoginPage(snap domain.PageSnapshot) domain.PageState {
	doc := parseSnapshot(snap)
	if challengePattern.MatchString(visibleText(doc)) {
		return domain.PageState{Kind: domain.PageChallenge}
	}
	return domain.PageState{Kind: domain.PageLoginForm}
}

// ClassifySubmitResult はログイン送信後の状態を判定します。
// URL がログインパスから外れているか、成功を示すテキストがあれば成功とみなします。
func ClassifySubmitResult(snap domain.PageSnapshot) domain.PageState {
	if !IsLoginURL(snap.URL) {
		return domain.PageState{Kind: domain.PageSuccess, Reason: domain.ReasonURLChanged}
	}

	doc := parseSnapshot(snap)
	if successPattern.MatchString(visibleText(doc)) {
		return domain.PageState{Kind: domain.PageSuccess, Reason: domain.ReasonSuccessIndicator}
	}
	return domain.PageState{Kind: domain.PageFailure, Reason: errorText(doc)}
}

// IsLoginURL は URL がログインパスを含むかを返します。
func IsLoginURL(rawURL string) bool {
	return loginPathPattern.MatchString(rawURL)
}

// HasErrorIndicator はページにエラー表示が含まれるかを返します。
func HasErrorIndicator(snap domain.PageSnapshot) bool {
	return errorPattern.MatchString(visibleText(parseSnapshot(snap)))
}

// parseSnapshot は HTML を解析し、表示されない要素を取り除きます。
// 解析できない場合は空のドキュメントとして扱います。
func parseSnapshot(snap domain.PageSnapshot) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		doc, _ = goquery.NewDocumentFromReader(strings.NewReader(""))
	}
	doc.Find(hiddenSelector).Remove()
	return doc
}

// visibleText は body 配下のテキストを返します。head (title など) は描画されないため含めません。
func visibleText(doc *goquery.Document) string {
	return textOf(doc.Find("body"))
}

// textOf はテキストノードを空白で区切って連結し、空白を正規化します。
// 隣接する要素のテキストが 1 語につながらないようにするのだ。
func textOf(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		collectText(n, &b)
	}
	return text.NormalizeText(b.String())
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// errorText は自身のテキストノードがエラーパターンに一致する最初の要素のテキストを返します。
func errorText(doc *goquery.Document) string {
	var found string
	doc.Find("body *").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if errorPattern.MatchString(ownText(s)) {
			found = textOf(s)
			return false
		}
		return true
	})
	return found
}

func ownText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}
