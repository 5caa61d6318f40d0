// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Visibility はデッキの公開設定を表す。
type Visibility string

const (
	// VisibilityPrivate は所有者のみ閲覧可能な公開設定。
	VisibilityPrivate Visibility = "private"
	// VisibilityPublic は誰でも閲覧・一覧可能な公開設定。
	VisibilityPublic Visibility = "public"
	// VisibilityUnlisted はリンクを知っている場合のみ閲覧可能な公開設定。
	VisibilityUnlisted Visibility = "unlisted"
)

// ParseVisibility は文字列をVisibilityに変換する。
// 未定義の値の場合はバリデーションエラーを返す。
func ParseVisibility(value string) (Visibility, error) {
	switch Visibility(value) {
	case VisibilityPrivate, VisibilityPublic, VisibilityUnlisted:
		return Visibility(value), nil
	default:
		return "", NewInvalidVisibilityError(value)
	}
}

// Section はデッキ内のセクション（メインボード/サイドボード）を表す。
type Section string

const (
	// SectionMainboard はメインデッキ。
	SectionMainboard Section = "mainboard"
	// SectionSideboard はサイドボード。
	SectionSideboard Section = "sideboard"
)

// ParseSection は文字列をSectionに変換する。
// 未定義の値の場合はバリデーションエラーを返す。
func ParseSection(value string) (Section, error) {
	switch Section(value) {
	case SectionMainboard, SectionSideboard:
		return Section(value), nil
	default:
		return "", NewInvalidSectionError(value)
	}
}

// DeckEntry はデッキ内のエントリ（カード+枚数+セクション）を表す。
// (CardScryfallID, Section) の組でデッキ内一意となる。
type DeckEntry struct {
	CardScryfallID string
	Quantity       int
	Section        Section
}

// newDeckEntry は検証済みのDeckEntryを生成する。
// Deck.UpsertEntry経由でのみ呼び出される。
func newDeckEntry(cardScryfallID string, quantity int, section Section) (DeckEntry, error) {
	if quantity < 1 {
		return DeckEntry{}, NewInvalidQuantityError(quantity)
	}
	return DeckEntry{
		CardScryfallID: cardScryfallID,
		Quantity:       quantity,
		Section:        section,
	}, nil
}

// Deck はデッキ集約ルートを表す。
// 全ての不変条件（エントリの一意性、枚数の下限、名称/フォーマットの必須）を
// メソッド経由の変更のみで保証する。フィールドへの直接代入は許可しない。
type Deck struct {
	idDeck       uuid.UUID
	name         string
	format       string
	description  *string
	visibility   Visibility
	createdAtUTC time.Time
	updatedAtUTC time.Time
	entries      []DeckEntry
}

// NewDeck は新しいデッキ集約を生成する。
// IDが未指定、または名称/フォーマットが空白のみの場合はバリデーションエラーを返す。
// 作成時刻と更新時刻は同一のUTC時刻で初期化される。
func NewDeck(idDeck uuid.UUID, name, format string, visibility Visibility, description *string) (*Deck, error) {
	if idDeck == uuid.Nil {
		return nil, NewDeckIDRequiredError()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewDeckNameRequiredError()
	}
	format = strings.TrimSpace(format)
	if format == "" {
		return nil, NewDeckFormatRequiredError()
	}

	now := nowUTC()
	return &Deck{
		idDeck:       idDeck,
		name:         name,
		format:       format,
		description:  normalizeDescription(description),
		visibility:   visibility,
		createdAtUTC: now,
		updatedAtUTC: now,
	}, nil
}

// RehydrateDeck は永続化済みのデッキ集約を再構築する。
// リポジトリ層専用。タイムスタンプの再設定や再検証は行わない。
func RehydrateDeck(
	idDeck uuid.UUID,
	name, format string,
	description *string,
	visibility Visibility,
	createdAtUTC, updatedAtUTC time.Time,
	entries []DeckEntry,
) *Deck {
	d := &Deck{
		idDeck:       idDeck,
		name:         name,
		format:       format,
		description:  description,
		visibility:   visibility,
		createdAtUTC: createdAtUTC,
		updatedAtUTC: updatedAtUTC,
	}
	d.entries = append(d.entries, entries...)
	return d
}

// IDDeck はデッキIDを返す。
func (d *Deck) IDDeck() uuid.UUID { return d.idDeck }

// Name はデッキ名を返す。
func (d *Deck) Name() string { return d.name }

// Format はフォーマットを返す。
func (d *Deck) Format() string { return d.format }

// Description は説明文を返す。未設定の場合はnil。
func (d *Deck) Description() *string { return d.description }

// Visibility は公開設定を返す。
func (d *Deck) Visibility() Visibility { return d.visibility }

// CreatedAtUTC は作成時刻（UTC）を返す。
func (d *Deck) CreatedAtUTC() time.Time { return d.createdAtUTC }

// UpdatedAtUTC は最終更新時刻（UTC）を返す。
func (d *Deck) UpdatedAtUTC() time.Time { return d.updatedAtUTC }

// Entries はエントリのスナップショットを返す。
// 返却されるスライスはコピーであり、変更しても集約には影響しない。
func (d *Deck) Entries() []DeckEntry {
	snapshot := make([]DeckEntry, len(d.entries))
	copy(snapshot, d.entries)
	return snapshot
}

// ChangeVisibility は公開設定を変更し、更新時刻を進める。
func (d *Deck) ChangeVisibility(visibility Visibility) {
	d.visibility = visibility
	d.touch()
}

// SetDescription は説明文を設定し、更新時刻を進める。
// 空白のみの説明文は未設定（nil）に正規化される。
func (d *Deck) SetDescription(description *string) {
	d.description = normalizeDescription(description)
	d.touch()
}

// UpsertEntry はエントリを追加、または既存エントリの枚数を上書きする。
// 同一の (CardScryfallID, Section) を持つエントリが既に存在する場合は枚数のみ更新する。
// カードIDが空白のみの場合、枚数が1未満の場合はバリデーションエラーを返し、
// 集約は変更されない。
func (d *Deck) UpsertEntry(cardScryfallID string, quantity int, section Section) error {
	normalizedID := strings.TrimSpace(cardScryfallID)
	if normalizedID == "" {
		return NewCardIDRequiredError()
	}

	idx := d.findEntry(normalizedID, section)
	if idx < 0 {
		entry, err := newDeckEntry(normalizedID, quantity, section)
		if err != nil {
			return err
		}
		d.entries = append(d.entries, entry)
	} else {
		if quantity < 1 {
			return NewInvalidQuantityError(quantity)
		}
		d.entries[idx].Quantity = quantity
	}

	d.touch()
	return nil
}

// RemoveEntry は (CardScryfallID, Section) に一致するエントリを削除する。
// 削除した場合はtrueを返し更新時刻を進める。一致するエントリが存在しない場合は
// falseを返し、更新時刻は変更しない。
// カードIDが空白のみの場合はバリデーションエラーを返す。
func (d *Deck) RemoveEntry(cardScryfallID string, section Section) (bool, error) {
	normalizedID := strings.TrimSpace(cardScryfallID)
	if normalizedID == "" {
		return false, NewCardIDRequiredError()
	}

	idx := d.findEntry(normalizedID, section)
	if idx < 0 {
		return false, nil
	}

	d.entries = append(d.entries[:idx], d.entries[idx+1:]...)
	d.touch()
	return true, nil
}

// findEntry は (cardScryfallID, section) に一致するエントリの添字を返す。
// 見つからない場合は-1を返す。
func (d *Deck) findEntry(cardScryfallID string, section Section) int {
	for i, e := range d.entries {
		if e.CardScryfallID == cardScryfallID && e.Section == section {
			return i
		}
	}
	return -1
}

// touch は更新時刻を現在のUTC時刻に進める。
func (d *Deck) touch() {
	d.updatedAtUTC = nowUTC()
}

// normalizeDescription は空白のみの説明文をnilに正規化し、それ以外はトリムする。
func normalizeDescription(description *string) *string {
	if description == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*description)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// nowUTC は現在時刻をUTCで返す。
// PostgreSQLのtimestamp精度に合わせてマイクロ秒に丸め、
// 永続化往復後も等値比較が成立するようにする。
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
