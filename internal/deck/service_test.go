package deck

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Kaiza42/DeckBuilder/internal/model"
)

// mockDeckRepo はDeckRepositoryのモック実装。
type mockDeckRepo struct {
	createFunc   func(ctx context.Context, deck *model.Deck) error
	findByIDFunc func(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error)
	updateFunc   func(ctx context.Context, deck *model.Deck) error
	deleteFunc   func(ctx context.Context, idDeck uuid.UUID) (bool, error)

	createCalls int
	updateCalls int
	lastSaved   *model.Deck
}

func (m *mockDeckRepo) Create(ctx context.Context, deck *model.Deck) error {
	m.createCalls++
	m.lastSaved = deck
	if m.createFunc != nil {
		return m.createFunc(ctx, deck)
	}
	return nil
}

func (m *mockDeckRepo) FindByID(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, idDeck)
	}
	return nil, nil
}

func (m *mockDeckRepo) Update(ctx context.Context, deck *model.Deck) error {
	m.updateCalls++
	m.lastSaved = deck
	if m.updateFunc != nil {
		return m.updateFunc(ctx, deck)
	}
	return nil
}

func (m *mockDeckRepo) Delete(ctx context.Context, idDeck uuid.UUID) (bool, error) {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, idDeck)
	}
	return false, nil
}

// stripSanitizer はタグ風の文字列を除去する単純なサニタイザ。
type stripSanitizer struct{}

func (stripSanitizer) Sanitize(raw string) string {
	out := raw
	for {
		start := strings.Index(out, "<")
		end := strings.Index(out, ">")
		if start == -1 || end == -1 || end < start {
			return out
		}
		out = out[:start] + out[end+1:]
	}
}

func existingDeck(t *testing.T) *model.Deck {
	t.Helper()
	deck, err := model.NewDeck(uuid.New(), "Mono Red", "standard", model.VisibilityPrivate, nil)
	if err != nil {
		t.Fatalf("failed to build deck: %v", err)
	}
	return deck
}

// TestCreate_Valid はデッキが作成・保存されることを検証する。
func TestCreate_Valid(t *testing.T) {
	repo := &mockDeckRepo{}
	svc := NewDeckService(repo, nil)

	deck, err := svc.Create(context.Background(), "Mono Red", "standard", model.VisibilityPrivate, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deck.IDDeck() == uuid.Nil {
		t.Error("expected generated deck ID")
	}
	if repo.createCalls != 1 {
		t.Errorf("create calls = %d, want 1", repo.createCalls)
	}
}

// TestCreate_SanitizesNameAndDescription は名前と説明文がサニタイズされることを検証する。
func TestCreate_SanitizesNameAndDescription(t *testing.T) {
	repo := &mockDeckRepo{}
	svc := NewDeckService(repo, stripSanitizer{})

	desc := "aggro <script>alert(1)</script>plan"
	deck, err := svc.Create(context.Background(), "<b>Mono Red</b>", "standard", model.VisibilityPublic, &desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deck.Name() != "Mono Red" {
		t.Errorf("name = %q, want %q", deck.Name(), "Mono Red")
	}
	if deck.Description() == nil || strings.Contains(*deck.Description(), "<") {
		t.Errorf("description not sanitized: %v", deck.Description())
	}
}

// TestCreate_InvalidName はバリデーションエラーが保存を伴わず返ることを検証する。
func TestCreate_InvalidName(t *testing.T) {
	repo := &mockDeckRepo{}
	svc := NewDeckService(repo, nil)

	_, err := svc.Create(context.Background(), "   ", "standard", model.VisibilityPrivate, nil)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "DECK_NAME_REQUIRED" {
		t.Errorf("error code = %q, want DECK_NAME_REQUIRED", apiErr.Code)
	}
	if repo.createCalls != 0 {
		t.Errorf("create should not be called on validation error, got %d", repo.createCalls)
	}
}

// TestCreate_RepoFailure は保存失敗がエラーとして伝播することを検証する。
func TestCreate_RepoFailure(t *testing.T) {
	repo := &mockDeckRepo{
		createFunc: func(ctx context.Context, deck *model.Deck) error {
			return errors.New("db down")
		},
	}
	svc := NewDeckService(repo, nil)

	if _, err := svc.Create(context.Background(), "Mono Red", "standard", model.VisibilityPrivate, nil); err == nil {
		t.Fatal("expected error from repo failure")
	}
}

// TestGetByID_Found はデッキが取得できることを検証する。
func TestGetByID_Found(t *testing.T) {
	deck := existingDeck(t)
	repo := &mockDeckRepo{
		findByIDFunc: func(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error) {
			return deck, nil
		},
	}
	svc := NewDeckService(repo, nil)

	got, err := svc.GetByID(context.Background(), deck.IDDeck())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != deck {
		t.Error("expected deck to be returned")
	}
}

// TestGetByID_NotFound は不在デッキがnilを返すことを検証する。
func TestGetByID_NotFound(t *testing.T) {
	svc := NewDeckService(&mockDeckRepo{}, nil)

	got, err := svc.GetByID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for absent deck, got %+v", got)
	}
}

// TestGetByID_NilID はゼロ値UUIDがバリデーションエラーになることを検証する。
func TestGetByID_NilID(t *testing.T) {
	svc := NewDeckService(&mockDeckRepo{}, nil)

	_, err := svc.GetByID(context.Background(), uuid.Nil)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "DECK_ID_REQUIRED" {
		t.Errorf("error code = %q, want DECK_ID_REQUIRED", apiErr.Code)
	}
}

// TestChangeVisibility_Found は公開設定の変更が書き戻されることを検証する。
func TestChangeVisibility_Found(t *testing.T) {
	deck := existingDeck(t)
	repo := &mockDeckRepo{
		findByIDFunc: func(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error) {
			return deck, nil
		},
	}
	svc := NewDeckService(repo, nil)

	found, err := svc.ChangeVisibility(context.Background(), deck.IDDeck(), model.VisibilityPublic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}
	if deck.Visibility() != model.VisibilityPublic {
		t.Errorf("visibility = %q, want %q", deck.Visibility(), model.VisibilityPublic)
	}
	if repo.updateCalls != 1 {
		t.Errorf("update calls = %d, want 1", repo.updateCalls)
	}
}

// TestChangeVisibility_NotFound は不在デッキが (false, nil) を返すことを検証する。
func TestChangeVisibility_NotFound(t *testing.T) {
	repo := &mockDeckRepo{}
	svc := NewDeckService(repo, nil)

	found, err := svc.ChangeVisibility(context.Background(), uuid.New(), model.VisibilityPublic)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected found=false for absent deck")
	}
	if repo.updateCalls != 0 {
		t.Errorf("update should not be called, got %d", repo.updateCalls)
	}
}

// TestSetDescription_Sanitizes は説明文がサニタイズされて保存されることを検証する。
func TestSetDescription_Sanitizes(t *testing.T) {
	deck := existingDeck(t)
	repo := &mockDeckRepo{
		findByIDFunc: func(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error) {
			return deck, nil
		},
	}
	svc := NewDeckService(repo, stripSanitizer{})

	desc := "<p>burn them all</p>"
	found, err := svc.SetDescription(context.Background(), deck.IDDeck(), &desc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}
	if deck.Description() == nil || *deck.Description() != "burn them all" {
		t.Errorf("description = %v, want %q", deck.Description(), "burn them all")
	}
}

// TestSetDescription_Clears はnil説明文で未設定に戻せることを検証する。
func TestSetDescription_Clears(t *testing.T) {
	desc := "old"
	deck, err := model.NewDeck(uuid.New(), "Mono Red", "standard", model.VisibilityPrivate, &desc)
	if err != nil {
		t.Fatalf("failed to build deck: %v", err)
	}
	repo := &mockDeckRepo{
		findByIDFunc: func(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error) {
			return deck, nil
		},
	}
	svc := NewDeckService(repo, nil)

	found, err := svc.SetDescription(context.Background(), deck.IDDeck(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}
	if deck.Description() != nil {
		t.Errorf("description = %v, want nil", deck.Description())
	}
}

// TestUpsertEntry_AddsEntry はエントリ追加が書き戻されることを検証する。
func TestUpsertEntry_AddsEntry(t *testing.T) {
	deck := existingDeck(t)
	repo := &mockDeckRepo{
		findByIDFunc: func(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error) {
			return deck, nil
		},
	}
	svc := NewDeckService(repo, nil)

	found, err := svc.UpsertEntry(context.Background(), deck.IDDeck(), "card-1", 4, model.SectionMainboard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}
	entries := deck.Entries()
	if len(entries) != 1 || entries[0].Quantity != 4 {
		t.Errorf("entries = %+v, want one entry with quantity 4", entries)
	}
	if repo.updateCalls != 1 {
		t.Errorf("update calls = %d, want 1", repo.updateCalls)
	}
}

// TestUpsertEntry_InvalidQuantity は枚数バリデーションエラーが書き戻しを伴わず返ることを検証する。
func TestUpsertEntry_InvalidQuantity(t *testing.T) {
	deck := existingDeck(t)
	repo := &mockDeckRepo{
		findByIDFunc: func(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error) {
			return deck, nil
		},
	}
	svc := NewDeckService(repo, nil)

	_, err := svc.UpsertEntry(context.Background(), deck.IDDeck(), "card-1", 0, model.SectionMainboard)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Code != "INVALID_QUANTITY" {
		t.Errorf("error code = %q, want INVALID_QUANTITY", apiErr.Code)
	}
	if repo.updateCalls != 0 {
		t.Errorf("update should not be called, got %d", repo.updateCalls)
	}
}

// TestUpsertEntry_NotFound は不在デッキが (false, nil) を返すことを検証する。
func TestUpsertEntry_NotFound(t *testing.T) {
	svc := NewDeckService(&mockDeckRepo{}, nil)

	found, err := svc.UpsertEntry(context.Background(), uuid.New(), "card-1", 4, model.SectionMainboard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected found=false for absent deck")
	}
}

// TestRemoveEntry_Removes はエントリ削除が書き戻されることを検証する。
func TestRemoveEntry_Removes(t *testing.T) {
	deck := existingDeck(t)
	if err := deck.UpsertEntry("card-1", 4, model.SectionMainboard); err != nil {
		t.Fatalf("failed to seed entry: %v", err)
	}
	repo := &mockDeckRepo{
		findByIDFunc: func(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error) {
			return deck, nil
		},
	}
	svc := NewDeckService(repo, nil)

	found, err := svc.RemoveEntry(context.Background(), deck.IDDeck(), "card-1", model.SectionMainboard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected found=true")
	}
	if len(deck.Entries()) != 0 {
		t.Errorf("entries = %+v, want empty", deck.Entries())
	}
	if repo.updateCalls != 1 {
		t.Errorf("update calls = %d, want 1", repo.updateCalls)
	}
}

// TestRemoveEntry_AbsentEntryNotFound は不在エントリの削除が書き戻しなしで
// (false, nil) を返すことを検証する。
func TestRemoveEntry_AbsentEntryNotFound(t *testing.T) {
	deck := existingDeck(t)
	repo := &mockDeckRepo{
		findByIDFunc: func(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error) {
			return deck, nil
		},
	}
	svc := NewDeckService(repo, nil)

	found, err := svc.RemoveEntry(context.Background(), deck.IDDeck(), "missing", model.SectionMainboard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected found=false for absent entry")
	}
	if repo.updateCalls != 0 {
		t.Errorf("update should not be called when nothing removed, got %d", repo.updateCalls)
	}
}

// TestRemoveEntry_WrongSectionNotFound は別セクションの同一カードが
// 削除対象にならないことを検証する。
func TestRemoveEntry_WrongSectionNotFound(t *testing.T) {
	deck := existingDeck(t)
	if err := deck.UpsertEntry("card-1", 2, model.SectionMainboard); err != nil {
		t.Fatalf("failed to seed entry: %v", err)
	}
	repo := &mockDeckRepo{
		findByIDFunc: func(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error) {
			return deck, nil
		},
	}
	svc := NewDeckService(repo, nil)

	found, err := svc.RemoveEntry(context.Background(), deck.IDDeck(), "card-1", model.SectionSideboard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected found=false for entry in a different section")
	}
	if len(deck.Entries()) != 1 {
		t.Errorf("entries = %+v, want the mainboard entry kept", deck.Entries())
	}
	if repo.updateCalls != 0 {
		t.Errorf("update should not be called when nothing removed, got %d", repo.updateCalls)
	}
}

// TestRemoveEntry_DeckNotFound は不在デッキが (false, nil) を返すことを検証する。
func TestRemoveEntry_DeckNotFound(t *testing.T) {
	svc := NewDeckService(&mockDeckRepo{}, nil)

	found, err := svc.RemoveEntry(context.Background(), uuid.New(), "card-1", model.SectionMainboard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected found=false for absent deck")
	}
}

// TestDelete_Found は削除結果が伝播することを検証する。
func TestDelete_Found(t *testing.T) {
	repo := &mockDeckRepo{
		deleteFunc: func(ctx context.Context, idDeck uuid.UUID) (bool, error) {
			return true, nil
		},
	}
	svc := NewDeckService(repo, nil)

	deleted, err := svc.Delete(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("expected deleted=true")
	}
}

// TestDelete_NotFound は不在デッキの削除が (false, nil) を返すことを検証する。
func TestDelete_NotFound(t *testing.T) {
	svc := NewDeckService(&mockDeckRepo{}, nil)

	deleted, err := svc.Delete(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted {
		t.Error("expected deleted=false")
	}
}
