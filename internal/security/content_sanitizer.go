// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は投稿タイトル・本文とコメント本文をAPI応答時に無害化する。
// bluemondayのStrictPolicyで全タグを除去し、残りのテキストはHTMLエスケープされた形で返す。
// Storeに保存されるテキストは変更しない。
package security

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はユーザー投稿テキストのサニタイズ機能のインターフェースを定義する。
// ハンドラーが応答を組み立てる際に呼び出す。
type ContentSanitizerService interface {
	// Sanitize は入力からHTMLタグを除去し、HTMLとして埋め込んでも安全なテキストを返す。
	// script, style等の要素は中身ごと除去される。
	// タグとして閉じていない "<"（例: "a<b"）は文字として残り、"&lt;" にエスケープされる。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返し、出力を再度渡しても変化しない（冪等）。
	Sanitize(raw string) string
}

// tagPattern は "<" で始まり ">" で閉じるタグ、終了タグ、コメント、宣言にマッチする。
var tagPattern = regexp.MustCompile(`<[A-Za-z/!?][^<>]*>`)

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーはスレッドセーフなので共有して使う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
func NewContentSanitizer() *contentSanitizer {
	return &contentSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はタグを除去したエスケープ済みテキストを返す。
func (s *contentSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return s.policy.Sanitize(escapeStrayLessThan(raw))
}

// escapeStrayLessThan はタグの開始になっていない "<" を "&lt;" に置き換える。
// HTMLトークナイザーは "<" の直後が英字だと閉じていなくてもタグとして読み、
// 以降のテキストを捨ててしまうため。
func escapeStrayLessThan(raw string) string {
	if !strings.Contains(raw, "<") {
		return raw
	}

	tags := tagPattern.FindAllStringIndex(raw, -1)
	var b strings.Builder
	b.Grow(len(raw))

	next := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] != '<' {
			b.WriteByte(raw[i])
			continue
		}
		for next < len(tags) && tags[next][0] < i {
			next++
		}
		if next < len(tags) && tags[next][0] == i {
			b.WriteByte('<')
		} else {
			b.WriteString("&lt;")
		}
	}
	return b.String()
}
