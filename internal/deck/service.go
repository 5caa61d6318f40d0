// Package deck はデッキ集約の作成・編集・照会のドメインロジックを提供する。
package deck

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kaiza42/DeckBuilder/internal/model"
	"github.com/Kaiza42/DeckBuilder/internal/repository"
)

// TextSanitizer はユーザー入力テキストのサニタイズのインターフェース。
// security.TextSanitizerServiceのサブセットをローカルに定義する。
type TextSanitizer interface {
	Sanitize(raw string) string
}

// DeckService はデッキ集約のサービス層。
// 読み込み → 集約メソッドによる変更 → 書き戻しのフローを統括する。
// 永続化は常にデッキ単位で行われ、エントリの部分更新は行わない。
type DeckService struct {
	deckRepo  repository.DeckRepository
	sanitizer TextSanitizer
}

// NewDeckService はDeckServiceの新しいインスタンスを生成する。
// sanitizerはnil許容（サニタイズをスキップする）。
func NewDeckService(deckRepo repository.DeckRepository, sanitizer TextSanitizer) *DeckService {
	return &DeckService{
		deckRepo:  deckRepo,
		sanitizer: sanitizer,
	}
}

// Create は新しいデッキを作成して保存する。
// 名前と説明文はHTMLタグ混入防止のためサニタイズされる。
func (s *DeckService) Create(ctx context.Context, name, format string, visibility model.Visibility, description *string) (*model.Deck, error) {
	name = s.sanitize(name)
	description = s.sanitizeDescription(description)

	deck, err := model.NewDeck(uuid.New(), name, format, visibility, description)
	if err != nil {
		return nil, err
	}

	if err := s.deckRepo.Create(ctx, deck); err != nil {
		return nil, fmt.Errorf("デッキの保存に失敗しました: %w", err)
	}

	return deck, nil
}

// GetByID は指定IDのデッキをエントリ込みで取得する。
// 見つからない場合は (nil, nil) を返す。
func (s *DeckService) GetByID(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error) {
	if idDeck == uuid.Nil {
		return nil, model.NewDeckIDRequiredError()
	}

	deck, err := s.deckRepo.FindByID(ctx, idDeck)
	if err != nil {
		return nil, fmt.Errorf("デッキの検索に失敗しました: %w", err)
	}

	return deck, nil
}

// ChangeVisibility はデッキの公開設定を変更する。
// デッキが見つからない場合は (false, nil) を返す。
func (s *DeckService) ChangeVisibility(ctx context.Context, idDeck uuid.UUID, visibility model.Visibility) (bool, error) {
	return s.mutate(ctx, idDeck, func(deck *model.Deck) error {
		deck.ChangeVisibility(visibility)
		return nil
	})
}

// SetDescription はデッキの説明文を変更する。
// 説明文はサニタイズされ、空白のみの場合は未設定に正規化される。
// デッキが見つからない場合は (false, nil) を返す。
func (s *DeckService) SetDescription(ctx context.Context, idDeck uuid.UUID, description *string) (bool, error) {
	description = s.sanitizeDescription(description)
	return s.mutate(ctx, idDeck, func(deck *model.Deck) error {
		deck.SetDescription(description)
		return nil
	})
}

// UpsertEntry はデッキにカードエントリを追加、または既存エントリの枚数を上書きする。
// エントリは (カードScryfall ID, セクション) の組で識別される。
// デッキが見つからない場合は (false, nil) を返す。
func (s *DeckService) UpsertEntry(ctx context.Context, idDeck uuid.UUID, cardScryfallID string, quantity int, section model.Section) (bool, error) {
	return s.mutate(ctx, idDeck, func(deck *model.Deck) error {
		return deck.UpsertEntry(cardScryfallID, quantity, section)
	})
}

// RemoveEntry はデッキからカードエントリを取り除く。
// デッキが見つからない場合、または (カードScryfall ID, セクション) に
// 一致するエントリが存在しない場合は (false, nil) を返す。
func (s *DeckService) RemoveEntry(ctx context.Context, idDeck uuid.UUID, cardScryfallID string, section model.Section) (bool, error) {
	if idDeck == uuid.Nil {
		return false, model.NewDeckIDRequiredError()
	}

	deck, err := s.deckRepo.FindByID(ctx, idDeck)
	if err != nil {
		return false, fmt.Errorf("デッキの検索に失敗しました: %w", err)
	}
	if deck == nil {
		return false, nil
	}

	removed, err := deck.RemoveEntry(cardScryfallID, section)
	if err != nil {
		return false, err
	}
	if !removed {
		// 一致するエントリがないため書き戻し不要
		return false, nil
	}

	if err := s.deckRepo.Update(ctx, deck); err != nil {
		return false, fmt.Errorf("デッキの保存に失敗しました: %w", err)
	}

	return true, nil
}

// Delete は指定IDのデッキをエントリごと削除する。
// 削除した場合はtrue、存在しない場合は (false, nil) を返す。
func (s *DeckService) Delete(ctx context.Context, idDeck uuid.UUID) (bool, error) {
	if idDeck == uuid.Nil {
		return false, model.NewDeckIDRequiredError()
	}

	deleted, err := s.deckRepo.Delete(ctx, idDeck)
	if err != nil {
		return false, fmt.Errorf("デッキの削除に失敗しました: %w", err)
	}

	return deleted, nil
}

// mutate はデッキを読み込み、変更を適用して書き戻す共通フロー。
func (s *DeckService) mutate(ctx context.Context, idDeck uuid.UUID, apply func(deck *model.Deck) error) (bool, error) {
	if idDeck == uuid.Nil {
		return false, model.NewDeckIDRequiredError()
	}

	deck, err := s.deckRepo.FindByID(ctx, idDeck)
	if err != nil {
		return false, fmt.Errorf("デッキの検索に失敗しました: %w", err)
	}
	if deck == nil {
		return false, nil
	}

	if err := apply(deck); err != nil {
		return false, err
	}

	if err := s.deckRepo.Update(ctx, deck); err != nil {
		return false, fmt.Errorf("デッキの保存に失敗しました: %w", err)
	}

	return true, nil
}

// sanitize はテキストをサニタイズする。sanitizerがnilの場合はそのまま返す。
func (s *DeckService) sanitize(raw string) string {
	if s.sanitizer == nil {
		return raw
	}
	return s.sanitizer.Sanitize(raw)
}

// sanitizeDescription は説明文をサニタイズする。nilはそのまま通す。
func (s *DeckService) sanitizeDescription(description *string) *string {
	if description == nil || s.sanitizer == nil {
		return description
	}
	sanitized := s.sanitizer.Sanitize(*description)
	return &sanitized
}
