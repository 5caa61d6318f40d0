// Package refresh はキャッシュ済みカード情報のバックグラウンド更新処理を提供する。
// デッキから参照されている鮮度切れカードを定期的にScryfallから再取得する。
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Kaiza42/DeckBuilder/internal/model"
	"github.com/Kaiza42/DeckBuilder/internal/repository"
)

// ScryfallGateway はScryfall APIクライアントのインターフェース。
type ScryfallGateway interface {
	GetCardByID(ctx context.Context, scryfallID string) (*model.Card, error)
}

// RefreshMetrics は更新メトリクスのインターフェース。
type RefreshMetrics interface {
	RecordCardsRefreshed(count int)
}

// Refresher は鮮度切れカードの再取得と並列制御を行う。
// ティッカーで更新対象カードを取得し、semaphoreパターンで
// 最大並列数を制御しながらScryfallから再取得する。
type Refresher struct {
	cardRepo       repository.CardRepository
	client         ScryfallGateway
	logger         *slog.Logger
	metrics        RefreshMetrics
	cacheTTL       time.Duration
	maxConcurrency int
	maxPerCycle    int
}

// NewRefresher はRefresherの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値5、
// maxPerCycleが0以下の場合はデフォルト値100を使用する。
// metricsはnil許容（記録をスキップする）。
func NewRefresher(
	cardRepo repository.CardRepository,
	client ScryfallGateway,
	logger *slog.Logger,
	metrics RefreshMetrics,
	cacheTTL time.Duration,
	maxConcurrency int,
	maxPerCycle int,
) *Refresher {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	if maxPerCycle <= 0 {
		maxPerCycle = 100
	}
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}
	return &Refresher{
		cardRepo:       cardRepo,
		client:         client,
		logger:         logger,
		metrics:        metrics,
		cacheTTL:       cacheTTL,
		maxConcurrency: maxConcurrency,
		maxPerCycle:    maxPerCycle,
	}
}

// Start は指定間隔のティッカーでリフレッシャーを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (r *Refresher) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("カード更新スケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", r.maxConcurrency),
		slog.Int("max_per_cycle", r.maxPerCycle),
	)

	// 起動直後に1回実行
	if err := r.RunOnce(ctx); err != nil {
		r.logger.Error("カード更新サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("カード更新スケジューラを停止しました")
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error("カード更新サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は更新対象カードを1回取得し、並列で再取得を実行する。
// semaphoreパターンで最大並列数を制御する。
func (r *Refresher) RunOnce(ctx context.Context) error {
	start := time.Now()

	olderThan := time.Now().UTC().Add(-r.cacheTTL)
	cards, err := r.cardRepo.ListStaleReferenced(ctx, olderThan, r.maxPerCycle)
	if err != nil {
		return err
	}

	if len(cards) == 0 {
		r.logger.Info("更新対象のカードはありません")
		return nil
	}

	r.logger.Info("カード更新サイクルを開始します",
		slog.Int("card_count", len(cards)),
	)

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, r.maxConcurrency)
	var wg sync.WaitGroup
	var refreshed atomic.Int64

	for _, card := range cards {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(c *model.Card) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			if r.refreshCard(ctx, c) {
				refreshed.Add(1)
			}
		}(card)
	}

	wg.Wait()

	if r.metrics != nil {
		r.metrics.RecordCardsRefreshed(int(refreshed.Load()))
	}

	duration := time.Since(start)
	r.logger.Info("カード更新サイクルが完了しました",
		slog.Int("card_count", len(cards)),
		slog.Int64("refreshed", refreshed.Load()),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// refreshCard は1枚のカードをScryfallから再取得して保存する。
// 上流で見つからない場合は既存キャッシュをそのまま残す。
func (r *Refresher) refreshCard(ctx context.Context, card *model.Card) bool {
	fetched, err := r.client.GetCardByID(ctx, card.ScryfallID)
	if err != nil {
		r.logger.Error("カードの再取得に失敗しました",
			slog.String("scryfall_id", card.ScryfallID),
			slog.String("error", err.Error()),
		)
		return false
	}
	if fetched == nil {
		r.logger.Warn("カードが上流で見つかりませんでした",
			slog.String("scryfall_id", card.ScryfallID),
		)
		return false
	}

	if err := r.cardRepo.Upsert(ctx, fetched); err != nil {
		r.logger.Error("カードの保存に失敗しました",
			slog.String("scryfall_id", card.ScryfallID),
			slog.String("error", err.Error()),
		)
		return false
	}

	return true
}
