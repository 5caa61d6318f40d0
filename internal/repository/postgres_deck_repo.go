package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/Kaiza42/DeckBuilder/internal/model"
)

// PostgresDeckRepo はPostgreSQLを使用したデッキリポジトリ。
type PostgresDeckRepo struct {
	db *sql.DB
}

// NewPostgresDeckRepo はPostgresDeckRepoを生成する。
func NewPostgresDeckRepo(db *sql.DB) *PostgresDeckRepo {
	return &PostgresDeckRepo{db: db}
}

// Create はデッキ集約（エントリ含む）を同一トランザクションで新規保存する。
func (r *PostgresDeckRepo) Create(ctx context.Context, deck *model.Deck) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO decks (id_deck, name, format, description, visibility, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		deck.IDDeck(), deck.Name(), deck.Format(),
		nullStringPtr(deck.Description()), string(deck.Visibility()),
		deck.CreatedAtUTC(), deck.UpdatedAtUTC(),
	)
	if err != nil {
		return fmt.Errorf("デッキの作成に失敗しました: %w", err)
	}

	if err := insertEntries(ctx, tx, deck); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// FindByID は指定IDのデッキをエントリ込みで取得する。見つからない場合はnilを返す。
func (r *PostgresDeckRepo) FindByID(ctx context.Context, idDeck uuid.UUID) (*model.Deck, error) {
	var (
		name, format, visibility string
		description              sql.NullString
		createdAt, updatedAt     sql.NullTime
	)

	err := r.db.QueryRowContext(ctx,
		`SELECT name, format, description, visibility, created_at, updated_at
		 FROM decks WHERE id_deck = $1`,
		idDeck,
	).Scan(&name, &format, &description, &visibility, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("デッキの取得に失敗しました: %w", err)
	}

	entries, err := r.loadEntries(ctx, idDeck)
	if err != nil {
		return nil, err
	}

	return model.RehydrateDeck(
		idDeck, name, format,
		stringPtrValue(description),
		model.Visibility(visibility),
		createdAt.Time.UTC(), updatedAt.Time.UTC(),
		entries,
	), nil
}

// Update はデッキ集約を上書き保存する。
// エントリは削除・再挿入による全置換とし、集約の状態と常に一致させる。
func (r *PostgresDeckRepo) Update(ctx context.Context, deck *model.Deck) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE decks SET
		    name = $2, format = $3, description = $4,
		    visibility = $5, updated_at = $6
		 WHERE id_deck = $1`,
		deck.IDDeck(), deck.Name(), deck.Format(),
		nullStringPtr(deck.Description()), string(deck.Visibility()),
		deck.UpdatedAtUTC(),
	)
	if err != nil {
		return fmt.Errorf("デッキの更新に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM deck_entries WHERE id_deck = $1`, deck.IDDeck(),
	)
	if err != nil {
		return fmt.Errorf("デッキエントリの削除に失敗しました: %w", err)
	}

	if err := insertEntries(ctx, tx, deck); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Delete は指定IDのデッキを削除する。削除した場合はtrueを返す。
func (r *PostgresDeckRepo) Delete(ctx context.Context, idDeck uuid.UUID) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM decks WHERE id_deck = $1`, idDeck,
	)
	if err != nil {
		return false, fmt.Errorf("デッキの削除に失敗しました: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return affected > 0, nil
}

// loadEntries はデッキのエントリ一覧を取得する。
func (r *PostgresDeckRepo) loadEntries(ctx context.Context, idDeck uuid.UUID) ([]model.DeckEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT card_scryfall_id, quantity, section
		 FROM deck_entries WHERE id_deck = $1
		 ORDER BY section, card_scryfall_id`,
		idDeck,
	)
	if err != nil {
		return nil, fmt.Errorf("デッキエントリの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var entries []model.DeckEntry
	for rows.Next() {
		var entry model.DeckEntry
		var section string
		if err := rows.Scan(&entry.CardScryfallID, &entry.Quantity, &section); err != nil {
			return nil, fmt.Errorf("デッキエントリの読み取りに失敗しました: %w", err)
		}
		entry.Section = model.Section(section)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("デッキエントリの走査に失敗しました: %w", err)
	}
	return entries, nil
}

// insertEntries はデッキの全エントリをトランザクション内で挿入する。
func insertEntries(ctx context.Context, tx *sql.Tx, deck *model.Deck) error {
	for _, entry := range deck.Entries() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO deck_entries (id_deck, card_scryfall_id, quantity, section)
			 VALUES ($1, $2, $3, $4)`,
			deck.IDDeck(), entry.CardScryfallID, entry.Quantity, string(entry.Section),
		)
		if err != nil {
			return fmt.Errorf("デッキエントリの挿入に失敗しました: %w", err)
		}
	}
	return nil
}

// nullStringPtr は*stringをsql.NullStringに変換する。
func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// stringPtrValue はsql.NullStringから*stringを取得する。NULLの場合はnil。
func stringPtrValue(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// compile-time interface check
var _ DeckRepository = (*PostgresDeckRepo)(nil)
