package card

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Kaiza42/DeckBuilder/internal/model"
	"github.com/Kaiza42/DeckBuilder/internal/repository"
	"github.com/Kaiza42/DeckBuilder/internal/scryfall"
)

// defaultCacheTTL はキャッシュされたカード情報の鮮度の既定値。
const defaultCacheTTL = 24 * time.Hour

// ScryfallGateway はScryfall APIクライアントのインターフェース。
// テスタビリティのためscryfall.Clientを抽象化する。
type ScryfallGateway interface {
	GetCardByID(ctx context.Context, scryfallID string) (*model.Card, error)
	SearchCards(ctx context.Context, query string) ([]model.Card, error)
}

// CacheMetrics はキャッシュ関連メトリクスのインターフェース。
type CacheMetrics interface {
	RecordCacheHit()
	RecordCacheMiss()
	RecordImageFetched()
}

// CardService はカード情報の取得サービス層。
// ローカルキャッシュ（cardsテーブル）を優先し、未キャッシュまたは
// 鮮度切れの場合にScryfall APIへフォールバックするリードスルー構成。
type CardService struct {
	cardRepo     repository.CardRepository
	client       ScryfallGateway
	imageFetcher ImageFetcherService
	metrics      CacheMetrics
	cacheTTL     time.Duration
}

// NewCardService はCardServiceの新しいインスタンスを生成する。
// cacheTTLが0以下の場合はデフォルト値（24時間）を使用する。
// metricsはnil許容（記録をスキップする）。
func NewCardService(
	cardRepo repository.CardRepository,
	client ScryfallGateway,
	imageFetcher ImageFetcherService,
	metrics CacheMetrics,
	cacheTTL time.Duration,
) *CardService {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &CardService{
		cardRepo:     cardRepo,
		client:       client,
		imageFetcher: imageFetcher,
		metrics:      metrics,
		cacheTTL:     cacheTTL,
	}
}

// GetByScryfallID はScryfall IDでカード情報を取得する。
// フロー: キャッシュ検索 → 鮮度判定 → Scryfall API → キャッシュ保存
// カードが見つからない場合は (nil, nil) を返す。
// Scryfall APIへの到達失敗時は、鮮度切れのキャッシュがあればそれを返す。
func (s *CardService) GetByScryfallID(ctx context.Context, scryfallID string) (*model.Card, error) {
	scryfallID = strings.TrimSpace(scryfallID)
	if scryfallID == "" {
		return nil, model.NewCardIDRequiredError()
	}

	cached, err := s.cardRepo.FindByScryfallID(ctx, scryfallID)
	if err != nil {
		return nil, fmt.Errorf("カードキャッシュの検索に失敗しました: %w", err)
	}

	// 鮮度内のキャッシュヒット
	if cached != nil && time.Since(cached.FetchedAt) < s.cacheTTL {
		s.recordHit()
		return cached, nil
	}
	s.recordMiss()

	fetched, err := s.client.GetCardByID(ctx, scryfallID)
	if err != nil {
		// 到達失敗: 鮮度切れでもキャッシュがあれば縮退応答として返す
		if cached != nil {
			slog.Warn("Scryfall到達失敗のため鮮度切れキャッシュを返却", "scryfallId", scryfallID, "error", err)
			return cached, nil
		}
		return nil, err
	}
	if fetched == nil {
		// 上流で見つからない場合も鮮度切れキャッシュを優先する
		if cached != nil {
			return cached, nil
		}
		return nil, nil
	}

	s.storeCard(ctx, fetched)
	return fetched, nil
}

// Search は生のScryfallクエリ文字列でカードを検索する。
// 空クエリの場合は上流を呼ばずに空スライスを返す。
// 検索結果はベストエフォートでキャッシュに保存される。
func (s *CardService) Search(ctx context.Context, rawQuery string) ([]model.Card, error) {
	rawQuery = strings.TrimSpace(rawQuery)
	if rawQuery == "" {
		return []model.Card{}, nil
	}

	cards, err := s.client.SearchCards(ctx, rawQuery)
	if err != nil {
		return nil, err
	}

	for i := range cards {
		s.storeCard(ctx, &cards[i])
	}

	return cards, nil
}

// SearchByCriteria は構造化された検索条件でカードを検索する。
// 条件からScryfallクエリを組み立て、空クエリの場合は上流を呼ばずに空スライスを返す。
func (s *CardService) SearchByCriteria(ctx context.Context, criteria scryfall.SearchCriteria) ([]model.Card, error) {
	query := scryfall.BuildQuery(criteria)
	if query == "" {
		return []model.Card{}, nil
	}
	return s.Search(ctx, query)
}

// GetImage はカード画像のバイナリとMIMEタイプを取得する。
// フロー: 画像キャッシュ検索 → カード情報取得 → 画像URL取得 → 画像保存
// 画像が存在しない場合は (nil, "", nil) を返す。
func (s *CardService) GetImage(ctx context.Context, scryfallID string) ([]byte, string, error) {
	scryfallID = strings.TrimSpace(scryfallID)
	if scryfallID == "" {
		return nil, "", model.NewCardIDRequiredError()
	}

	data, mimeType, err := s.cardRepo.FindImage(ctx, scryfallID)
	if err != nil {
		return nil, "", fmt.Errorf("カード画像の検索に失敗しました: %w", err)
	}
	if data != nil {
		return data, mimeType, nil
	}

	card, err := s.GetByScryfallID(ctx, scryfallID)
	if err != nil {
		return nil, "", err
	}
	if card == nil || card.ImageURL == nil {
		return nil, "", nil
	}

	data, mimeType, err = s.imageFetcher.FetchImage(ctx, *card.ImageURL)
	if err != nil || data == nil {
		return nil, "", err
	}

	if err := s.cardRepo.UpdateImage(ctx, scryfallID, data, mimeType); err != nil {
		// 保存失敗は応答を妨げない
		slog.Warn("カード画像の保存に失敗", "scryfallId", scryfallID, "error", err)
	}
	if s.metrics != nil {
		s.metrics.RecordImageFetched()
	}

	return data, mimeType, nil
}

// storeCard はカード情報をベストエフォートでキャッシュに保存する。
func (s *CardService) storeCard(ctx context.Context, card *model.Card) {
	if err := s.cardRepo.Upsert(ctx, card); err != nil {
		slog.Warn("カードキャッシュの保存に失敗", "scryfallId", card.ScryfallID, "error", err)
	}
}

func (s *CardService) recordHit() {
	if s.metrics != nil {
		s.metrics.RecordCacheHit()
	}
}

func (s *CardService) recordMiss() {
	if s.metrics != nil {
		s.metrics.RecordCacheMiss()
	}
}
