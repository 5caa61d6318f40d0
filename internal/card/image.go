// Package card はカード情報の取得・キャッシュのドメインロジックを提供する。
package card

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// defaultMaxImageSize はカード画像の最大サイズ（5MB）。
const defaultMaxImageSize = 5 * 1024 * 1024

// imageTimeout はカード画像取得のタイムアウト。
const imageTimeout = 10 * time.Second

// SSRFValidator はSSRF防止機能のインターフェース。
// security.SSRFGuardServiceのサブセットをローカルに定義する。
type SSRFValidator interface {
	NewSafeClient(timeout time.Duration) *http.Client
	ValidateImageURL(rawURL string) error
}

// ImageFetcherService はカード画像取得のインターフェース。
type ImageFetcherService interface {
	// FetchImage は指定URLからカード画像を取得する。
	// 取得失敗時はnilデータと空MIMEを返す（エラーは返さない）。
	FetchImage(ctx context.Context, imageURL string) (data []byte, mimeType string, err error)
}

// ImageFetcher はカード画像取得機能の実装。
type ImageFetcher struct {
	ssrfGuard SSRFValidator
	maxSize   int64
}

// NewImageFetcher はImageFetcherの新しいインスタンスを生成する。
// maxSizeが0以下の場合はデフォルト値（5MB）を使用する。
func NewImageFetcher(ssrfGuard SSRFValidator, maxSize int64) *ImageFetcher {
	if maxSize <= 0 {
		maxSize = defaultMaxImageSize
	}
	return &ImageFetcher{
		ssrfGuard: ssrfGuard,
		maxSize:   maxSize,
	}
}

// FetchImage は指定URLからカード画像を取得する。
// 取得失敗時はnilデータと空MIMEを返す。画像取得の失敗はカード情報の
// 提供を妨げないため、エラーとしては扱わない。
func (f *ImageFetcher) FetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	if imageURL == "" {
		return nil, "", nil
	}

	// SSRF検証
	if f.ssrfGuard != nil {
		if err := f.ssrfGuard.ValidateImageURL(imageURL); err != nil {
			slog.Warn("カード画像取得: SSRFブロック", "url", imageURL, "error", err)
			return nil, "", nil
		}
	}

	client := f.getHTTPClient()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		slog.Warn("カード画像取得: リクエスト作成失敗", "url", imageURL, "error", err)
		return nil, "", nil
	}
	req.Header.Set("User-Agent", "DeckBuilder/1.0")

	resp, err := client.Do(req)
	if err != nil {
		slog.Warn("カード画像取得: HTTPリクエスト失敗", "url", imageURL, "error", err)
		return nil, "", nil
	}
	defer resp.Body.Close()

	// 2xx以外は取得失敗として扱う
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("カード画像取得: HTTPステータス異常", "url", imageURL, "status", resp.StatusCode)
		return nil, "", nil
	}

	// レスポンスボディを読み込み（サイズ上限あり）
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		slog.Warn("カード画像取得: レスポンス読み取り失敗", "url", imageURL, "error", err)
		return nil, "", nil
	}

	// サイズ超過チェック
	if int64(len(body)) > f.maxSize {
		slog.Warn("カード画像取得: サイズ超過", "url", imageURL, "size", len(body))
		return nil, "", nil
	}

	// Content-Typeを取得
	contentType := resp.Header.Get("Content-Type")
	mimeType := extractMimeType(contentType)

	// 画像でない場合はnilを返す
	if !isImageMime(mimeType) {
		slog.Warn("カード画像取得: 画像以外のContent-Type", "url", imageURL, "contentType", contentType)
		return nil, "", nil
	}

	return body, mimeType, nil
}

// getHTTPClient はHTTPクライアントを取得する。
func (f *ImageFetcher) getHTTPClient() *http.Client {
	if f.ssrfGuard != nil {
		return f.ssrfGuard.NewSafeClient(imageTimeout)
	}
	return &http.Client{Timeout: imageTimeout}
}

// extractMimeType はContent-Typeヘッダーからメディアタイプを抽出する。
func extractMimeType(contentType string) string {
	if contentType == "" {
		return ""
	}
	// セミコロンの前の部分（charset等を除去）
	parts := strings.SplitN(contentType, ";", 2)
	return strings.TrimSpace(strings.ToLower(parts[0]))
}

// isImageMime はMIMEタイプが画像かどうかを判定する。
func isImageMime(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// compile-time interface check
var _ ImageFetcherService = (*ImageFetcher)(nil)
