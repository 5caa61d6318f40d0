// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, deck, card, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeDeckIDRequired     = "DECK_ID_REQUIRED"
	ErrCodeDeckNameRequired   = "DECK_NAME_REQUIRED"
	ErrCodeDeckFormatRequired = "DECK_FORMAT_REQUIRED"
	ErrCodeCardIDRequired     = "CARD_ID_REQUIRED"
	ErrCodeInvalidQuantity    = "INVALID_QUANTITY"
	ErrCodeInvalidVisibility  = "INVALID_VISIBILITY"
	ErrCodeInvalidSection     = "INVALID_SECTION"
	ErrCodeInvalidColor       = "INVALID_COLOR"
	ErrCodeInvalidRarity      = "INVALID_RARITY"
	ErrCodeDeckNotFound       = "DECK_NOT_FOUND"
	ErrCodeCardNotFound       = "CARD_NOT_FOUND"
)

// NewDeckIDRequiredError はデッキID未指定エラーを生成する。
func NewDeckIDRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeDeckIDRequired,
		Message:  "デッキIDが指定されていません。",
		Category: "validation",
		Action:   "デッキIDを指定してください。",
	}
}

// NewDeckNameRequiredError はデッキ名未指定エラーを生成する。
func NewDeckNameRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeDeckNameRequired,
		Message:  "デッキ名が指定されていません。",
		Category: "validation",
		Action:   "空白以外の文字を含むデッキ名を入力してください。",
	}
}

// NewDeckFormatRequiredError はフォーマット未指定エラーを生成する。
func NewDeckFormatRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeDeckFormatRequired,
		Message:  "フォーマットが指定されていません。",
		Category: "validation",
		Action:   "standard、modern などのフォーマットを指定してください。",
	}
}

// NewCardIDRequiredError はカードID未指定エラーを生成する。
func NewCardIDRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeCardIDRequired,
		Message:  "カードのScryfall IDが指定されていません。",
		Category: "validation",
		Action:   "カードのScryfall IDを指定してください。",
	}
}

// NewInvalidQuantityError は無効な枚数エラーを生成する。
func NewInvalidQuantityError(quantity int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidQuantity,
		Message:  fmt.Sprintf("無効な枚数です: %d", quantity),
		Category: "validation",
		Action:   "枚数には1以上の整数を指定してください。",
	}
}

// NewInvalidVisibilityError は無効な公開設定エラーを生成する。
func NewInvalidVisibilityError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidVisibility,
		Message:  fmt.Sprintf("無効な公開設定です: %s", value),
		Category: "validation",
		Action:   "公開設定には private、public、unlisted のいずれかを指定してください。",
	}
}

// NewInvalidSectionError は無効なセクションエラーを生成する。
func NewInvalidSectionError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSection,
		Message:  fmt.Sprintf("無効なセクションです: %s", value),
		Category: "validation",
		Action:   "セクションには mainboard、sideboard のいずれかを指定してください。",
	}
}

// NewInvalidColorError は無効な色指定エラーを生成する。
func NewInvalidColorError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidColor,
		Message:  fmt.Sprintf("無効な色指定です: %s", value),
		Category: "validation",
		Action:   "色には w、u、b、r、g の組み合わせ、または colorless を指定してください。",
	}
}

// NewInvalidRarityError は無効なレアリティエラーを生成する。
func NewInvalidRarityError(value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRarity,
		Message:  fmt.Sprintf("無効なレアリティです: %s", value),
		Category: "validation",
		Action:   "レアリティには common、uncommon、rare、mythic のいずれかを指定してください。",
	}
}

// NewDeckNotFoundError はデッキ未検出エラーを生成する。
func NewDeckNotFoundError(idDeck string) *APIError {
	return &APIError{
		Code:     ErrCodeDeckNotFound,
		Message:  fmt.Sprintf("指定されたデッキが見つかりません: %s", idDeck),
		Category: "deck",
		Action:   "デッキIDを確認してください。",
	}
}

// NewCardNotFoundError はカード未検出エラーを生成する。
func NewCardNotFoundError(scryfallID string) *APIError {
	return &APIError{
		Code:     ErrCodeCardNotFound,
		Message:  fmt.Sprintf("指定されたカードが見つかりません: %s", scryfallID),
		Category: "card",
		Action:   "カードのScryfall IDを確認してください。",
	}
}
