package scryfall

import (
	"strconv"
	"strings"

	"github.com/Kaiza42/DeckBuilder/internal/model"
)

// SearchCriteria はカード検索の構造化条件を表す。
// 全フィールドが任意であり、未指定の条件はクエリに含まれない。
type SearchCriteria struct {
	Name   string        // 名前の部分一致（そのままクエリに含まれる）
	Format string        // フォーマットコード（f:<format>）
	Colors *model.Color  // 色ビットセット（c:<symbols>。無色はc:c）
	MinCmc *int          // マナ総量の下限（cmc>=N）
	MaxCmc *int          // マナ総量の上限（cmc<=N）
	Rarity *model.Rarity // レアリティ（r:<rarity>)
}

// BuildQuery は構造化検索条件をScryfallの検索クエリ文字列に変換する。
// 句の出力順は Name、f:、c:、cmc>=、cmc<=、r: で固定であり、
// 同一条件に対して常にバイト単位で同一の出力を返す。
// 条件が全て未指定の場合は空文字列を返す。純粋関数であり失敗しない。
func BuildQuery(criteria SearchCriteria) string {
	var parts []string

	if name := strings.TrimSpace(criteria.Name); name != "" {
		parts = append(parts, name)
	}

	if format := strings.TrimSpace(criteria.Format); format != "" {
		parts = append(parts, "f:"+strings.ToLower(format))
	}

	if criteria.Colors != nil {
		if clause := buildColorClause(*criteria.Colors); clause != "" {
			parts = append(parts, clause)
		}
	}

	if criteria.MinCmc != nil {
		parts = append(parts, "cmc>="+strconv.Itoa(*criteria.MinCmc))
	}

	if criteria.MaxCmc != nil {
		parts = append(parts, "cmc<="+strconv.Itoa(*criteria.MaxCmc))
	}

	if criteria.Rarity != nil {
		parts = append(parts, "r:"+strings.ToLower(string(*criteria.Rarity)))
	}

	return strings.Join(parts, " ")
}

// buildColorClause は色ビットセットからc:句を構築する。
// 無色（ビットなし）は固定リテラル"c:c"となる。
func buildColorClause(colors model.Color) string {
	if colors == model.ColorColorless {
		return "c:c"
	}

	symbols := colors.Symbols()
	if symbols == "" {
		return ""
	}

	return "c:" + symbols
}
