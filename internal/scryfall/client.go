// Package scryfall はScryfall REST APIとの連携機能を提供する。
// カードの単体取得・全文検索クライアントと、構造化条件からの
// 検索クエリ組み立てを含む。
package scryfall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/Kaiza42/DeckBuilder/internal/model"
)

const (
	// defaultBaseURL はScryfall APIのベースURL。
	defaultBaseURL = "https://api.scryfall.com"
	// defaultRequestsPerSecond はScryfallのレート制限エチケットに基づく
	// デフォルトの秒間リクエスト数。
	defaultRequestsPerSecond = 10
	// userAgent はScryfallが要求するUser-Agentヘッダー。
	userAgent = "DeckBuilder/1.0"
)

// MetricsRecorder はScryfall呼び出しのメトリクス記録インターフェース。
// nilの場合は記録をスキップする。
type MetricsRecorder interface {
	RecordScryfallRequest(endpoint string, statusCode int)
	RecordScryfallLatency(duration time.Duration)
}

// Client はScryfall APIのクライアント。
// 送信レートをトークンバケットで制限し、429と5xxは指数バックオフで
// リトライする。リトライ後も回復しない非成功レスポンスと不正な
// ペイロードは警告ログの上で「未検出」「空結果」に降格する。
// トランスポート障害とコンテキストキャンセルはそのまま呼び出し元へ伝播する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
	metrics    MetricsRecorder
	baseURL    string // テスト用にベースURLを差し替え可能
}

// ClientConfig はClientの生成パラメータ。
type ClientConfig struct {
	// BaseURL はAPIのベースURL。空の場合は本番エンドポイントを使用する。
	BaseURL string
	// RequestsPerSecond は秒間リクエスト数の上限。0以下の場合はデフォルト値。
	RequestsPerSecond float64
	// Metrics はメトリクス記録先。nil可。
	Metrics MetricsRecorder
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		metrics:    cfg.Metrics,
		baseURL:    baseURL,
	}
}

// GetCardByID はScryfall IDでカードを1件取得する。
// カードが存在しない場合、またはScryfallが非成功レスポンス・不正な
// ペイロードを返した場合は (nil, nil) を返す。
func (c *Client) GetCardByID(ctx context.Context, scryfallID string) (*model.Card, error) {
	reqURL := fmt.Sprintf("%s/cards/%s", c.baseURL, url.PathEscape(scryfallID))

	body, statusCode, err := c.get(ctx, "get_by_id", reqURL)
	if err != nil {
		return nil, err
	}
	if statusCode != http.StatusOK {
		c.logger.Warn("Scryfallカード取得が非成功ステータスを返しました",
			slog.Int("http_status", statusCode),
			slog.String("scryfall_id", scryfallID),
		)
		return nil, nil
	}

	var wire scryfallCard
	if err := json.Unmarshal(body, &wire); err != nil {
		c.logger.Warn("Scryfallカードレスポンスのパースに失敗しました",
			slog.String("scryfall_id", scryfallID),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	return mapCard(&wire), nil
}

// SearchCards はScryfallの全文検索クエリでカードを検索する。
// 一致なし・非成功レスポンス・不正なペイロードの場合は空スライスを返す。
// 戻り値のスライスがnilになることはない。
func (c *Client) SearchCards(ctx context.Context, query string) ([]model.Card, error) {
	reqURL := fmt.Sprintf("%s/cards/search?q=%s", c.baseURL, url.QueryEscape(query))

	body, statusCode, err := c.get(ctx, "search", reqURL)
	if err != nil {
		return nil, err
	}
	if statusCode != http.StatusOK {
		// Scryfallは0件一致でも404を返すため、非成功は空結果として扱う
		c.logger.Warn("Scryfallカード検索が非成功ステータスを返しました",
			slog.Int("http_status", statusCode),
			slog.String("query", query),
		)
		return []model.Card{}, nil
	}

	var list scryfallListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		c.logger.Warn("Scryfall検索レスポンスのパースに失敗しました",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return []model.Card{}, nil
	}

	cards := make([]model.Card, 0, len(list.Data))
	for i := range list.Data {
		cards = append(cards, *mapCard(&list.Data[i]))
	}
	return cards, nil
}

// get はレート制限の下でGETリクエストを実行し、ボディとステータスを返す。
// 429と5xxは指数バックオフで最大maxRetryAttempts回までリトライする。
// リクエスト作成・送信・読み取りの失敗はエラーとして伝播する。
func (c *Client) get(ctx context.Context, endpoint, reqURL string) ([]byte, int, error) {
	var body []byte
	var statusCode int
	var err error

	for attempt := 0; attempt < maxRetryAttempts; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(attempt - 1)
			c.logger.Warn("Scryfall APIへのリクエストをリトライします",
				slog.String("endpoint", endpoint),
				slog.Int("attempt", attempt+1),
				slog.Int("http_status", statusCode),
				slog.Duration("backoff", delay),
			)
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, statusCode, err = c.doGet(ctx, endpoint, reqURL)
		if err != nil {
			return nil, 0, err
		}
		if ClassifyHTTPStatus(statusCode) != FetchResultBackoff {
			return body, statusCode, nil
		}
	}

	// リトライ上限に達した場合は最後のレスポンスをそのまま返す
	return body, statusCode, nil
}

// doGet はレート制限の下で1回のGETリクエストを実行する。
func (c *Client) doGet(ctx context.Context, endpoint, reqURL string) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, fmt.Errorf("scryfallレート制限の待機に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Scryfall APIの呼び出しに失敗しました",
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return nil, 0, err
	}
	defer resp.Body.Close()

	if c.metrics != nil {
		c.metrics.RecordScryfallRequest(endpoint, resp.StatusCode)
		c.metrics.RecordScryfallLatency(time.Since(start))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	return body, resp.StatusCode, nil
}
