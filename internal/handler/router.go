package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Kaiza42/DeckBuilder/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 運用
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// ドメインサービス
	DeckService DeckServiceInterface
	CardService CardServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → LoggingMiddleware → RecoveryMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// /health と /metrics はレート制限の外に配置する。
// /api/cards 配下にはScryfall上流保護のための検索専用レート制限を追加で適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewRecoveryMiddleware())

	deckHandler := NewDeckHandler(deps.DeckService)
	cardHandler := NewCardHandler(deps.CardService)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 運用ルート（レート制限の対象外） ---

	r.Get("/health", healthHandler.Check)
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// --- APIルート ---
	// ミドルウェアスタック: RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// デッキ管理
		r.Route("/api/decks", func(r chi.Router) {
			r.Post("/", deckHandler.CreateDeck)

			r.Route("/{idDeck}", func(r chi.Router) {
				r.Get("/", deckHandler.GetDeck)
				r.Delete("/", deckHandler.DeleteDeck)
				r.Patch("/visibility", deckHandler.ChangeVisibility)
				r.Patch("/description", deckHandler.SetDescription)

				r.Post("/entries", deckHandler.UpsertEntry)
				r.Delete("/entries/{cardScryfallId}", deckHandler.RemoveEntry)
			})
		})

		// カード参照・検索（Scryfallプロキシ。検索専用レート制限を追加）
		r.Route("/api/cards", func(r chi.Router) {
			r.Use(deps.RateLimiter.SearchMiddleware())

			r.Get("/search", cardHandler.SearchCards)

			r.Route("/scryfall/{scryfallId}", func(r chi.Router) {
				r.Get("/", cardHandler.GetCard)
				r.Get("/image", cardHandler.GetCardImage)
			})
		})
	})

	return r
}
