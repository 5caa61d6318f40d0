// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Kaiza42/DeckBuilder/internal/model"
)

// DeckServiceInterface はデッキハンドラーが必要とするサービスインターフェース。
type DeckServiceInterface interface {
	// Create は新しいデッキを作成する。
	Create(ctx context.Context, name, format string, visibility model.Visibility, description *string) (*model.Deck, error)
	// GetByID はデッキを取得する。存在しない場合は (nil, nil) を返す。
	GetByID(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error)
	// ChangeVisibility は公開設定を変更する。デッキが存在しない場合は (false, nil) を返す。
	ChangeVisibility(ctx context.Context, idDeck uuid.UUID, visibility model.Visibility) (bool, error)
	// SetDescription は説明文を設定する。
	SetDescription(ctx context.Context, idDeck uuid.UUID, description *string) (bool, error)
	// UpsertEntry はエントリを追加または枚数を更新する。
	UpsertEntry(ctx context.Context, idDeck uuid.UUID, cardScryfallID string, quantity int, section model.Section) (bool, error)
	// RemoveEntry はエントリを削除する。
	RemoveEntry(ctx context.Context, idDeck uuid.UUID, cardScryfallID string, section model.Section) (bool, error)
	// Delete はデッキを削除する。
	Delete(ctx context.Context, idDeck uuid.UUID) (bool, error)
}

// DeckHandler はデッキ管理のHTTPハンドラー。
type DeckHandler struct {
	service DeckServiceInterface
}

// NewDeckHandler はDeckHandlerを生成する。
func NewDeckHandler(service DeckServiceInterface) *DeckHandler {
	return &DeckHandler{service: service}
}

// createDeckRequest はデッキ作成リクエストのボディ。
type createDeckRequest struct {
	Name        string  `json:"name"`
	Format      string  `json:"format"`
	Visibility  string  `json:"visibility"`
	Description *string `json:"description"`
}

// changeVisibilityRequest は公開設定変更リクエストのボディ。
type changeVisibilityRequest struct {
	Visibility string `json:"visibility"`
}

// setDescriptionRequest は説明文設定リクエストのボディ。
// descriptionがnullまたは空白のみの場合は未設定に戻す。
type setDescriptionRequest struct {
	Description *string `json:"description"`
}

// upsertEntryRequest はエントリ追加・更新リクエストのボディ。
type upsertEntryRequest struct {
	CardScryfallID string `json:"card_scryfall_id"`
	Quantity       int    `json:"quantity"`
	Section        string `json:"section"`
}

// deckEntryResponse はデッキエントリのAPIレスポンス。
type deckEntryResponse struct {
	CardScryfallID string `json:"card_scryfall_id"`
	Quantity       int    `json:"quantity"`
	Section        string `json:"section"`
}

// deckResponse はデッキ情報のAPIレスポンス。
type deckResponse struct {
	IDDeck      string              `json:"id_deck"`
	Name        string              `json:"name"`
	Format      string              `json:"format"`
	Description *string             `json:"description"`
	Visibility  string              `json:"visibility"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Entries     []deckEntryResponse `json:"entries"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// CreateDeck はデッキ作成を処理する。
// POST /api/decks
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	// 未指定の公開設定はprivateにフォールバックする
	visibility := model.VisibilityPrivate
	if req.Visibility != "" {
		parsed, err := model.ParseVisibility(req.Visibility)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		visibility = parsed
	}

	deck, err := h.service.Create(r.Context(), req.Name, req.Format, visibility, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toDeckResponse(deck))
}

// GetDeck はデッキ詳細を取得する。
// GET /api/decks/:idDeck
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	idDeck, ok := parseDeckID(w, r)
	if !ok {
		return
	}

	deck, err := h.service.GetByID(r.Context(), idDeck)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if deck == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewDeckNotFoundError(idDeck.String()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toDeckResponse(deck))
}

// ChangeVisibility はデッキの公開設定を変更する。
// PATCH /api/decks/:idDeck/visibility
func (h *DeckHandler) ChangeVisibility(w http.ResponseWriter, r *http.Request) {
	idDeck, ok := parseDeckID(w, r)
	if !ok {
		return
	}

	var req changeVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	visibility, err := model.ParseVisibility(req.Visibility)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	found, err := h.service.ChangeVisibility(r.Context(), idDeck, visibility)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !found {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewDeckNotFoundError(idDeck.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetDescription はデッキの説明文を設定する。
// PATCH /api/decks/:idDeck/description
func (h *DeckHandler) SetDescription(w http.ResponseWriter, r *http.Request) {
	idDeck, ok := parseDeckID(w, r)
	if !ok {
		return
	}

	var req setDescriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	found, err := h.service.SetDescription(r.Context(), idDeck, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !found {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewDeckNotFoundError(idDeck.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpsertEntry はデッキへのカード追加・枚数更新を処理する。
// POST /api/decks/:idDeck/entries
func (h *DeckHandler) UpsertEntry(w http.ResponseWriter, r *http.Request) {
	idDeck, ok := parseDeckID(w, r)
	if !ok {
		return
	}

	var req upsertEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	section, err := model.ParseSection(req.Section)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 境界での事前検証。集約側でも再検証される
	if req.Quantity < 1 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidQuantityError(req.Quantity))
		return
	}

	found, err := h.service.UpsertEntry(r.Context(), idDeck, req.CardScryfallID, req.Quantity, section)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !found {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewDeckNotFoundError(idDeck.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveEntry はデッキからのカード削除を処理する。
// デッキまたは指定エントリが存在しない場合は404を返す。
// DELETE /api/decks/:idDeck/entries/:cardScryfallId?section=
func (h *DeckHandler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	idDeck, ok := parseDeckID(w, r)
	if !ok {
		return
	}

	cardScryfallID := chi.URLParam(r, "cardScryfallId")

	section, err := model.ParseSection(r.URL.Query().Get("section"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	found, err := h.service.RemoveEntry(r.Context(), idDeck, cardScryfallID, section)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !found {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewDeckNotFoundError(idDeck.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteDeck はデッキ削除を処理する。
// DELETE /api/decks/:idDeck
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	idDeck, ok := parseDeckID(w, r)
	if !ok {
		return
	}

	found, err := h.service.Delete(r.Context(), idDeck)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !found {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewDeckNotFoundError(idDeck.String()))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// parseDeckID はURLパラメータからデッキIDを取り出してパースする。
// パースに失敗した場合は400を書き込み、falseを返す。
func parseDeckID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "idDeck")
	idDeck, err := uuid.Parse(raw)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewDeckIDRequiredError())
		return uuid.Nil, false
	}
	return idDeck, true
}

// toDeckResponse はmodel.DeckからAPIレスポンスに変換する。
func toDeckResponse(deck *model.Deck) deckResponse {
	entries := deck.Entries()
	entryResponses := make([]deckEntryResponse, 0, len(entries))
	for _, entry := range entries {
		entryResponses = append(entryResponses, deckEntryResponse{
			CardScryfallID: entry.CardScryfallID,
			Quantity:       entry.Quantity,
			Section:        string(entry.Section),
		})
	}

	return deckResponse{
		IDDeck:      deck.IDDeck().String(),
		Name:        deck.Name(),
		Format:      deck.Format(),
		Description: deck.Description(),
		Visibility:  string(deck.Visibility()),
		CreatedAt:   deck.CreatedAtUTC(),
		UpdatedAt:   deck.UpdatedAtUTC(),
		Entries:     entryResponses,
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeInvalidRequestBody はリクエストボディの解析失敗レスポンスを書き込む。
func writeInvalidRequestBody(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeDeckNotFound, model.ErrCodeCardNotFound:
		return http.StatusNotFound
	case model.ErrCodeDeckIDRequired,
		model.ErrCodeDeckNameRequired,
		model.ErrCodeDeckFormatRequired,
		model.ErrCodeCardIDRequired,
		model.ErrCodeInvalidQuantity,
		model.ErrCodeInvalidVisibility,
		model.ErrCodeInvalidSection,
		model.ErrCodeInvalidColor,
		model.ErrCodeInvalidRarity:
		return http.StatusBadRequest
	case "INVALID_REQUEST", "INVALID_CMC":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
