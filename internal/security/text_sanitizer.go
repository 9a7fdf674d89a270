// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はフォームから送信された自由入力テキスト（エイリアス名、曖昧さ回避、注釈、変更ノート）から
// マークアップを取り除く。bbwsにはプレーンテキストのみを送信する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由入力テキストのサニタイズ機能のインターフェース。
type TextSanitizer interface {
	// Sanitize はすべてのタグを除去したプレーンテキストを返す。
	// 前後の空白は取り除く。同一入力に対して常に同一出力を返す。
	Sanitize(text string) string
}

// textSanitizer はTextSanitizerの実装。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はbluemondayのStrictPolicyを使用するTextSanitizerを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// maxSanitizePasses は文字参照の入れ子を剥がす最大回数。
const maxSanitizePasses = 8

// Sanitize はTextSanitizerを実装する。
// StrictPolicyは文字参照をエスケープするため、表示時の二重エスケープを避けて元に戻す。
// 元に戻した結果がタグになる場合があるので、出力が変化しなくなるまで繰り返す。
// 収束しない入力は空文字列にする。
func (s *textSanitizer) Sanitize(text string) string {
	for i := 0; i < maxSanitizePasses; i++ {
		if text == "" {
			return ""
		}
		next := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
		if next == text {
			return text
		}
		text = next
	}
	return ""
}
