package scryfall

import "time"

// FetchResult はHTTPステータスコードに基づくフェッチ結果の分類。
type FetchResult int

const (
	// FetchResultOK はフェッチ成功（200）。
	FetchResultOK FetchResult = iota
	// FetchResultNotFound はカード未検出（404）。Scryfallは検索0件でも404を返す。
	FetchResultNotFound
	// FetchResultStop はリトライ不要なクライアントエラー（400/401/403/410）。
	FetchResultStop
	// FetchResultBackoff はバックオフ付きリトライが必要なステータス（429/5xx）。
	FetchResultBackoff
	// FetchResultUnknown は未知のステータスコード。
	FetchResultUnknown
)

const (
	// initialRetryBackoff は指数バックオフの初回遅延。
	initialRetryBackoff = 500 * time.Millisecond
	// maxRetryBackoff は指数バックオフの最大遅延。
	maxRetryBackoff = 4 * time.Second
	// maxRetryAttempts はリクエストあたりの最大試行回数。
	maxRetryAttempts = 3
)

// ClassifyHTTPStatus はHTTPステータスコードをフェッチ結果に分類する。
func ClassifyHTTPStatus(statusCode int) FetchResult {
	switch {
	case statusCode == 200:
		return FetchResultOK
	case statusCode == 404:
		return FetchResultNotFound
	case statusCode == 400 || statusCode == 401 || statusCode == 403 || statusCode == 410:
		return FetchResultStop
	case statusCode == 429:
		return FetchResultBackoff
	case statusCode >= 500:
		return FetchResultBackoff
	default:
		return FetchResultUnknown
	}
}

// CalculateBackoff はリトライ回数に基づいて指数バックオフ遅延を計算する。
// 初回500ms、2倍ずつ増加、最大4秒。
func CalculateBackoff(attempt int) time.Duration {
	delay := initialRetryBackoff
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay > maxRetryBackoff {
			return maxRetryBackoff
		}
	}
	return delay
}
