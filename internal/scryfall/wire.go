package scryfall

import (
	"strings"
	"time"

	"github.com/Kaiza42/DeckBuilder/internal/model"
)

// scryfallCard はScryfallカードJSONのうちDeckBuilderが利用するサブセット。
type scryfallCard struct {
	ID              string             `json:"id"`
	ArenaID         *int               `json:"arena_id"`
	Name            string             `json:"name"`
	SetCode         string             `json:"set"`
	CollectorNumber string             `json:"collector_number"`
	ManaCost        *string            `json:"mana_cost"`
	Cmc             float64            `json:"cmc"`
	Colors          []string           `json:"colors"`
	ColorIdentity   []string           `json:"color_identity"`
	TypeLine        string             `json:"type_line"`
	OracleText      *string            `json:"oracle_text"`
	Power           *string            `json:"power"`
	Toughness       *string            `json:"toughness"`
	Rarity          *string            `json:"rarity"`
	ImageURIs       *scryfallImageURIs `json:"image_uris"`
}

// scryfallImageURIs はカード画像URLのネストオブジェクト。
type scryfallImageURIs struct {
	Normal *string `json:"normal"`
}

// scryfallListResponse はScryfallのリスト応答フォーマット。
type scryfallListResponse struct {
	Data []scryfallCard `json:"data"`
}

// mapCard はScryfallワイヤ表現をドメインのCardに変換する。
// セットコードは大文字に正規化し、未知のレアリティは未設定として扱う。
// IsToken/IsDoubleFacedはこのマッピングの対象外であり、常にfalseで初期化される。
func mapCard(wire *scryfallCard) *model.Card {
	card := &model.Card{
		ScryfallID:      wire.ID,
		ArenaID:         wire.ArenaID,
		Name:            wire.Name,
		SetCode:         strings.ToUpper(wire.SetCode),
		CollectorNumber: wire.CollectorNumber,
		ManaCost:        wire.ManaCost,
		Cmc:             wire.Cmc,
		Colors:          model.ColorFromSymbols(wire.Colors),
		ColorIdentity:   model.ColorFromSymbols(wire.ColorIdentity),
		TypeLine:        wire.TypeLine,
		OracleText:      wire.OracleText,
		Power:           wire.Power,
		Toughness:       wire.Toughness,
		IsToken:         false,
		IsDoubleFaced:   false,
		FetchedAt:       time.Now().UTC(),
	}

	if wire.Rarity != nil {
		if rarity, err := model.ParseRarity(*wire.Rarity); err == nil {
			card.Rarity = &rarity
		}
	}

	if wire.ImageURIs != nil && wire.ImageURIs.Normal != nil && *wire.ImageURIs.Normal != "" {
		card.ImageURL = wire.ImageURIs.Normal
	}

	return card
}
