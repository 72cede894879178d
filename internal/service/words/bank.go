package words

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"who-is-spy-offline/internal/service/game"

	"go.uber.org/zap"
)

//go:embed wordbank.json
var builtinBank []byte

// Bank holds the built-in word pairs keyed by category id.
type Bank struct {
	pairs map[string][]game.WordPair
}

func LoadBank() (*Bank, error) {
	return parseBank(builtinBank)
}

func parseBank(data []byte) (*Bank, error) {
	var raw map[string][]game.WordPair

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse word bank: %w", err)
	}

	pairs := make(map[string][]game.WordPair, len(raw))
	for id, list := range raw {
		pairs[id] = validPairs(list)
	}

	if len(pairs[CATEGORY_DEFAULT]) == 0 {
		return nil, fmt.Errorf("parse word bank: %q category is empty", CATEGORY_DEFAULT)
	}

	return &Bank{pairs: pairs}, nil
}

// Pairs returns the pairs of a category, or the default category when the id
// is unknown or empty.
func (b *Bank) Pairs(categoryID string) []game.WordPair {
	if list := b.pairs[categoryID]; len(list) > 0 {
		return list
	}

	return b.pairs[CATEGORY_DEFAULT]
}

func (b *Bank) Supplier(categoryID string, rng game.IntNer) *BankSupplier {
	return &BankSupplier{
		bank:       b,
		categoryID: categoryID,
		rng:        rng,
	}
}

type BankSupplier struct {
	bank       *Bank
	categoryID string
	rng        game.IntNer
}

func (bs *BankSupplier) Supply(ctx context.Context) (game.WordPair, error) {
	if _, ok := bs.bank.pairs[bs.categoryID]; !ok {
		zap.L().Debug(
			"词库分类不存在，使用默认词库",
			zap.String("category_id", bs.categoryID),
		)
	}

	return pick(bs.bank.Pairs(bs.categoryID), bs.rng), nil
}

func validPairs(list []game.WordPair) []game.WordPair {
	out := make([]game.WordPair, 0, len(list))
	for _, p := range list {
		if p.Valid() {
			out = append(out, p)
		}
	}

	return out
}
