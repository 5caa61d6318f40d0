// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Kaiza42/DeckBuilder/internal/model"
)

// DeckRepository はデッキ集約の永続化インターフェース。
// 集約の読み込みと書き戻しは常にデッキ単位で行われ、
// エントリの部分更新APIは提供しない（単一書き込み手の規律を前提とする）。
type DeckRepository interface {
	// Create はデッキ集約（エントリ含む）を新規保存する。
	Create(ctx context.Context, deck *model.Deck) error

	// FindByID は指定IDのデッキをエントリ込みで取得する。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error)

	// Update はデッキ集約を上書き保存する。エントリは全置換される。
	Update(ctx context.Context, deck *model.Deck) error

	// Delete は指定IDのデッキを削除する。エントリはCASCADE削除される。
	// 削除した場合はtrue、存在しない場合はfalseを返す。
	Delete(ctx context.Context, idDeck uuid.UUID) (bool, error)
}

// CardRepository はScryfall由来カードのローカルキャッシュの永続化インターフェース。
// デッキはカードをScryfall IDの疎結合参照で指すため、
// キャッシュに存在しないカードをデッキが参照していても整合性違反ではない。
type CardRepository interface {
	// FindByScryfallID は指定Scryfall IDのキャッシュ済みカードを取得する。
	// 見つからない場合はnilを返す。
	FindByScryfallID(ctx context.Context, scryfallID string) (*model.Card, error)

	// Upsert はカードを冪等に保存する。既存の場合は全フィールドを上書きするが、
	// 取得済みの画像データ（image_data/image_mime）は維持する。
	Upsert(ctx context.Context, card *model.Card) error

	// ListStaleReferenced はいずれかのデッキエントリから参照されており、
	// fetched_atがolderThanより古いカードを最大limit件返す。
	// 古いものから順に返す。
	ListStaleReferenced(ctx context.Context, olderThan time.Time, limit int) ([]*model.Card, error)

	// UpdateImage はカードの画像データとMIMEタイプを更新する。
	UpdateImage(ctx context.Context, scryfallID string, data []byte, mimeType string) error

	// FindImage はカードのキャッシュ済み画像データを取得する。
	// 画像が未取得の場合はnilデータと空MIMEを返す。
	FindImage(ctx context.Context, scryfallID string) (data []byte, mimeType string, err error)
}

// TxBeginner はトランザクション開始用のインターフェース。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}
