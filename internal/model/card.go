// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Color はカードの色をビットセットで表す。
// 多色カードはビットの組み合わせで表現し、無色は0（ビットなし）とする。
type Color uint8

const (
	// ColorWhite は白。
	ColorWhite Color = 1 << iota
	// ColorBlue は青。
	ColorBlue
	// ColorBlack は黒。
	ColorBlack
	// ColorRed は赤。
	ColorRed
	// ColorGreen は緑。
	ColorGreen
)

// ColorColorless は無色（ビットなし）を表す。
const ColorColorless Color = 0

// colorSymbols はWUBRG正準順の色とシンボルの対応。
// Scryfallの色表記と一致する。
var colorSymbols = []struct {
	color  Color
	symbol string
}{
	{ColorWhite, "w"},
	{ColorBlue, "u"},
	{ColorBlack, "b"},
	{ColorRed, "r"},
	{ColorGreen, "g"},
}

// Has は指定色が全て含まれるかを返す。
func (c Color) Has(other Color) bool {
	return c&other == other
}

// Symbols はWUBRG正準順の小文字シンボル列を返す。無色の場合は空文字列。
func (c Color) Symbols() string {
	var sb strings.Builder
	for _, m := range colorSymbols {
		if c.Has(m.color) {
			sb.WriteString(m.symbol)
		}
	}
	return sb.String()
}

// ColorFromSymbols はScryfallの1文字色コード列（"W"など）をColorに変換する。
// 未知のシンボルは無視する。nil・空リストは無色を返す。
func ColorFromSymbols(symbols []string) Color {
	result := ColorColorless
	for _, s := range symbols {
		switch strings.ToUpper(strings.TrimSpace(s)) {
		case "W":
			result |= ColorWhite
		case "U":
			result |= ColorBlue
		case "B":
			result |= ColorBlack
		case "R":
			result |= ColorRed
		case "G":
			result |= ColorGreen
		}
	}
	return result
}

// ParseColors は"ur"のようなシンボル連結、または"colorless"をColorに変換する。
// 未知のシンボルを含む場合はバリデーションエラーを返す。
func ParseColors(value string) (Color, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "colorless" || normalized == "c" {
		return ColorColorless, nil
	}

	result := ColorColorless
	for _, r := range normalized {
		switch r {
		case 'w':
			result |= ColorWhite
		case 'u':
			result |= ColorBlue
		case 'b':
			result |= ColorBlack
		case 'r':
			result |= ColorRed
		case 'g':
			result |= ColorGreen
		default:
			return ColorColorless, NewInvalidColorError(value)
		}
	}
	return result, nil
}

// Rarity はカードのレアリティを表す。
type Rarity string

const (
	// RarityCommon はコモン。
	RarityCommon Rarity = "common"
	// RarityUncommon はアンコモン。
	RarityUncommon Rarity = "uncommon"
	// RarityRare はレア。
	RarityRare Rarity = "rare"
	// RarityMythic は神話レア。
	RarityMythic Rarity = "mythic"
)

// ParseRarity は文字列をRarityに変換する。
// 未定義の値の場合はバリデーションエラーを返す。
func ParseRarity(value string) (Rarity, error) {
	switch Rarity(strings.ToLower(strings.TrimSpace(value))) {
	case RarityCommon:
		return RarityCommon, nil
	case RarityUncommon:
		return RarityUncommon, nil
	case RarityRare:
		return RarityRare, nil
	case RarityMythic:
		return RarityMythic, nil
	default:
		return "", NewInvalidRarityError(value)
	}
}

// Card は外部カードカタログ（Scryfall）由来のカード情報を表す。
// 読み取り専用であり、デッキからはScryfall IDの疎結合参照のみで利用される。
// 任意フィールドはポインタで表し、未取得（nil）と空文字列を区別する。
type Card struct {
	ScryfallID      string
	ArenaID         *int
	Name            string
	SetCode         string // 大文字正規化済みのセットコード
	CollectorNumber string
	ManaCost        *string
	Cmc             float64
	Colors          Color
	ColorIdentity   Color
	TypeLine        string
	OracleText      *string
	Power           *string // "*"のような非数値表現があるため文字列
	Toughness       *string
	Rarity          *Rarity
	ImageURL        *string
	IsToken         bool
	IsDoubleFaced   bool

	// キャッシュメタデータ。Scryfallから最後に取得した時刻。
	FetchedAt time.Time
}
