package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はユーザー入力テキストのサニタイズ機能のインターフェースを定義する。
// デッキ名や説明文の保存前に使用され、HTMLタグの混入を防ぐ。
type TextSanitizerService interface {
	// Sanitize は入力テキストから全てのHTMLタグを除去してプレーンテキストを返す。
	// script, iframe等の危険なタグはタグごと内容も除去される。
	// 通常のタグ（b, p等）はタグのみ除去され、テキスト内容は保持される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全てのタグと属性を拒否し、テキストのみを通過させる。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストから全てのHTMLタグを除去してプレーンテキストを返す。
// bluemondayはテキストをHTMLエンティティにエスケープして返すため、
// プレーンテキストとして保存するためにアンエスケープする。
// JSON応答時のエスケープはエンコーダ側で行われる。
func (s *textSanitizer) Sanitize(raw string) string {
	return html.UnescapeString(s.policy.Sanitize(raw))
}
