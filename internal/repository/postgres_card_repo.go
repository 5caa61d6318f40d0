package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Kaiza42/DeckBuilder/internal/model"
)

// PostgresCardRepo はPostgreSQLを使用したカードキャッシュリポジトリ。
type PostgresCardRepo struct {
	db *sql.DB
}

// NewPostgresCardRepo はPostgresCardRepoを生成する。
func NewPostgresCardRepo(db *sql.DB) *PostgresCardRepo {
	return &PostgresCardRepo{db: db}
}

// cardColumns はカード取得クエリで選択する列。
const cardColumns = `scryfall_id, arena_id, name, set_code, collector_number,
	mana_cost, cmc, colors, color_identity, type_line, oracle_text,
	power, toughness, rarity, image_url, is_token, is_double_faced, fetched_at`

// FindByScryfallID は指定Scryfall IDのキャッシュ済みカードを取得する。
// 見つからない場合はnilを返す。
func (r *PostgresCardRepo) FindByScryfallID(ctx context.Context, scryfallID string) (*model.Card, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE scryfall_id = $1`,
		scryfallID,
	)

	card, err := scanCard(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("カードの取得に失敗しました: %w", err)
	}
	return card, nil
}

// Upsert はカードを冪等に保存する。
// 既存行は全フィールドを上書きするが、取得済みの画像データは維持する。
func (r *PostgresCardRepo) Upsert(ctx context.Context, card *model.Card) error {
	var rarity sql.NullString
	if card.Rarity != nil {
		rarity = sql.NullString{String: string(*card.Rarity), Valid: true}
	}
	var arenaID sql.NullInt64
	if card.ArenaID != nil {
		arenaID = sql.NullInt64{Int64: int64(*card.ArenaID), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cards (scryfall_id, arena_id, name, set_code, collector_number,
		                    mana_cost, cmc, colors, color_identity, type_line, oracle_text,
		                    power, toughness, rarity, image_url, is_token, is_double_faced, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		 ON CONFLICT (scryfall_id) DO UPDATE SET
		    arena_id = EXCLUDED.arena_id,
		    name = EXCLUDED.name,
		    set_code = EXCLUDED.set_code,
		    collector_number = EXCLUDED.collector_number,
		    mana_cost = EXCLUDED.mana_cost,
		    cmc = EXCLUDED.cmc,
		    colors = EXCLUDED.colors,
		    color_identity = EXCLUDED.color_identity,
		    type_line = EXCLUDED.type_line,
		    oracle_text = EXCLUDED.oracle_text,
		    power = EXCLUDED.power,
		    toughness = EXCLUDED.toughness,
		    rarity = EXCLUDED.rarity,
		    image_url = EXCLUDED.image_url,
		    is_token = EXCLUDED.is_token,
		    is_double_faced = EXCLUDED.is_double_faced,
		    fetched_at = EXCLUDED.fetched_at`,
		card.ScryfallID, arenaID, card.Name, card.SetCode, card.CollectorNumber,
		nullStringPtr(card.ManaCost), card.Cmc, int(card.Colors), int(card.ColorIdentity),
		card.TypeLine, nullStringPtr(card.OracleText),
		nullStringPtr(card.Power), nullStringPtr(card.Toughness), rarity,
		nullStringPtr(card.ImageURL), card.IsToken, card.IsDoubleFaced, card.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("カードの保存に失敗しました: %w", err)
	}
	return nil
}

// ListStaleReferenced はデッキエントリから参照されておりキャッシュが
// 古いカードを、古い順に最大limit件返す。
func (r *PostgresCardRepo) ListStaleReferenced(ctx context.Context, olderThan time.Time, limit int) ([]*model.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT `+cardColumns+`
		 FROM cards c
		 INNER JOIN deck_entries e ON c.scryfall_id = e.card_scryfall_id
		 WHERE c.fetched_at < $1
		 ORDER BY c.fetched_at ASC
		 LIMIT $2`,
		olderThan, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("更新対象カードの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var cards []*model.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("更新対象カードの読み取りに失敗しました: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("更新対象カードの走査に失敗しました: %w", err)
	}
	return cards, nil
}

// UpdateImage はカードの画像データとMIMEタイプを更新する。
func (r *PostgresCardRepo) UpdateImage(ctx context.Context, scryfallID string, data []byte, mimeType string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE cards SET image_data = $2, image_mime = $3 WHERE scryfall_id = $1`,
		scryfallID, data, nullString(mimeType),
	)
	if err != nil {
		return fmt.Errorf("カード画像の更新に失敗しました: %w", err)
	}
	return nil
}

// FindImage はカードのキャッシュ済み画像データを取得する。
// 行が存在しない、または画像が未取得の場合はnilデータと空MIMEを返す。
func (r *PostgresCardRepo) FindImage(ctx context.Context, scryfallID string) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT image_data, image_mime FROM cards WHERE scryfall_id = $1`,
		scryfallID,
	).Scan(&data, &mime)

	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("カード画像の取得に失敗しました: %w", err)
	}
	return data, nullStringValue(mime), nil
}

// rowScanner はsql.Rowとsql.Rowsの共通Scanインターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCard はカード行をドメインモデルに読み取る。
func scanCard(row rowScanner) (*model.Card, error) {
	card := &model.Card{}
	var (
		arenaID               sql.NullInt64
		manaCost, oracleText  sql.NullString
		power, toughness      sql.NullString
		rarity, imageURL      sql.NullString
		colors, colorIdentity int
		fetchedAt             sql.NullTime
	)

	err := row.Scan(
		&card.ScryfallID, &arenaID, &card.Name, &card.SetCode, &card.CollectorNumber,
		&manaCost, &card.Cmc, &colors, &colorIdentity, &card.TypeLine, &oracleText,
		&power, &toughness, &rarity, &imageURL, &card.IsToken, &card.IsDoubleFaced, &fetchedAt,
	)
	if err != nil {
		return nil, err
	}

	if arenaID.Valid {
		v := int(arenaID.Int64)
		card.ArenaID = &v
	}
	card.ManaCost = stringPtrValue(manaCost)
	card.Colors = model.Color(colors)
	card.ColorIdentity = model.Color(colorIdentity)
	card.OracleText = stringPtrValue(oracleText)
	card.Power = stringPtrValue(power)
	card.Toughness = stringPtrValue(toughness)
	if rarity.Valid {
		r := model.Rarity(rarity.String)
		card.Rarity = &r
	}
	card.ImageURL = stringPtrValue(imageURL)
	card.FetchedAt = fetchedAt.Time.UTC()

	return card, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// compile-time interface check
var _ CardRepository = (*PostgresCardRepo)(nil)
