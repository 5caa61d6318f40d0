package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Kaiza42/DeckBuilder/internal/model"
	"github.com/Kaiza42/DeckBuilder/internal/scryfall"
)

// CardServiceInterface はカードハンドラーが必要とするサービスインターフェース。
type CardServiceInterface interface {
	// GetByScryfallID はScryfall IDでカードを取得する。存在しない場合は (nil, nil) を返す。
	GetByScryfallID(ctx context.Context, scryfallID string) (*model.Card, error)
	// Search は生のScryfallクエリでカードを検索する。
	Search(ctx context.Context, rawQuery string) ([]model.Card, error)
	// SearchByCriteria は構造化条件でカードを検索する。
	SearchByCriteria(ctx context.Context, criteria scryfall.SearchCriteria) ([]model.Card, error)
	// GetImage はカード画像のバイト列とMIMEタイプを返す。画像がない場合は (nil, "", nil) を返す。
	GetImage(ctx context.Context, scryfallID string) ([]byte, string, error)
}

// CardHandler はカード参照・検索のHTTPハンドラー。
type CardHandler struct {
	service CardServiceInterface
}

// NewCardHandler はCardHandlerを生成する。
func NewCardHandler(service CardServiceInterface) *CardHandler {
	return &CardHandler{service: service}
}

// cardResponse はカード情報のAPIレスポンス。
type cardResponse struct {
	ScryfallID      string    `json:"scryfall_id"`
	ArenaID         *int      `json:"arena_id"`
	Name            string    `json:"name"`
	SetCode         string    `json:"set_code"`
	CollectorNumber string    `json:"collector_number"`
	ManaCost        *string   `json:"mana_cost"`
	Cmc             float64   `json:"cmc"`
	Colors          string    `json:"colors"`
	ColorIdentity   string    `json:"color_identity"`
	TypeLine        string    `json:"type_line"`
	OracleText      *string   `json:"oracle_text"`
	Power           *string   `json:"power"`
	Toughness       *string   `json:"toughness"`
	Rarity          *string   `json:"rarity"`
	ImageURL        *string   `json:"image_url"`
	IsToken         bool      `json:"is_token"`
	IsDoubleFaced   bool      `json:"is_double_faced"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// GetCard はScryfall IDでカード詳細を取得する。
// GET /api/cards/scryfall/:scryfallId
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	scryfallID := chi.URLParam(r, "scryfallId")

	card, err := h.service.GetByScryfallID(r.Context(), scryfallID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if card == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewCardNotFoundError(scryfallID))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toCardResponse(card))
}

// SearchCards はカード検索を処理する。
// qパラメータがある場合は生クエリとして扱い、ない場合は構造化パラメータ
// （name, format, colors, min_cmc, max_cmc, rarity）からクエリを構築する。
// GET /api/cards/search
func (h *CardHandler) SearchCards(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var cards []model.Card
	var err error

	if raw := query.Get("q"); raw != "" {
		cards, err = h.service.Search(r.Context(), raw)
	} else {
		criteria, critErr := buildSearchCriteria(query)
		if critErr != nil {
			handleServiceError(w, critErr)
			return
		}
		cards, err = h.service.SearchByCriteria(r.Context(), criteria)
	}

	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]cardResponse, 0, len(cards))
	for i := range cards {
		responses = append(responses, toCardResponse(&cards[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(responses)
}

// GetCardImage はカード画像を返す。
// GET /api/cards/scryfall/:scryfallId/image
func (h *CardHandler) GetCardImage(w http.ResponseWriter, r *http.Request) {
	scryfallID := chi.URLParam(r, "scryfallId")

	data, mimeType, err := h.service.GetImage(r.Context(), scryfallID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if len(data) == 0 {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewCardNotFoundError(scryfallID))
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// buildSearchCriteria はクエリパラメータから構造化検索条件を構築する。
func buildSearchCriteria(query map[string][]string) (scryfall.SearchCriteria, error) {
	get := func(key string) string {
		if vs := query[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	criteria := scryfall.SearchCriteria{
		Name:   get("name"),
		Format: get("format"),
	}

	if raw := get("colors"); raw != "" {
		colors, err := model.ParseColors(raw)
		if err != nil {
			return scryfall.SearchCriteria{}, err
		}
		criteria.Colors = &colors
	}

	if raw := get("min_cmc"); raw != "" {
		minCmc, err := strconv.Atoi(raw)
		if err != nil {
			return scryfall.SearchCriteria{}, invalidCmcError(raw)
		}
		criteria.MinCmc = &minCmc
	}

	if raw := get("max_cmc"); raw != "" {
		maxCmc, err := strconv.Atoi(raw)
		if err != nil {
			return scryfall.SearchCriteria{}, invalidCmcError(raw)
		}
		criteria.MaxCmc = &maxCmc
	}

	if raw := get("rarity"); raw != "" {
		rarity, err := model.ParseRarity(raw)
		if err != nil {
			return scryfall.SearchCriteria{}, err
		}
		criteria.Rarity = &rarity
	}

	return criteria, nil
}

// invalidCmcError はマナ総量パラメータの解析失敗エラーを生成する。
func invalidCmcError(value string) *model.APIError {
	return &model.APIError{
		Code:     "INVALID_CMC",
		Message:  "マナ総量には整数を指定してください: " + value,
		Category: "validation",
		Action:   "min_cmc・max_cmcに整数を指定してください。",
	}
}

// toCardResponse はmodel.CardからAPIレスポンスに変換する。
func toCardResponse(card *model.Card) cardResponse {
	var rarity *string
	if card.Rarity != nil {
		value := string(*card.Rarity)
		rarity = &value
	}

	return cardResponse{
		ScryfallID:      card.ScryfallID,
		ArenaID:         card.ArenaID,
		Name:            card.Name,
		SetCode:         card.SetCode,
		CollectorNumber: card.CollectorNumber,
		ManaCost:        card.ManaCost,
		Cmc:             card.Cmc,
		Colors:          card.Colors.Symbols(),
		ColorIdentity:   card.ColorIdentity.Symbols(),
		TypeLine:        card.TypeLine,
		OracleText:      card.OracleText,
		Power:           card.Power,
		Toughness:       card.Toughness,
		Rarity:          rarity,
		ImageURL:        card.ImageURL,
		IsToken:         card.IsToken,
		IsDoubleFaced:   card.IsDoubleFaced,
		FetchedAt:       card.FetchedAt,
	}
}
