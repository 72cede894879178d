// Package words supplies the civilian/spy word pair for each new round.
//
// A supplier is consulted once per round start. Failures are reported as
// ErrWordSourceUnavailable; falling back to a known-good pair is the
// caller's decision.
package words

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"who-is-spy-offline/internal/service/game"
)

var ErrWordSourceUnavailable = errors.New("word source unavailable")

// Supplier returns the word pair for the next round.
type Supplier interface {
	Supply(ctx context.Context) (game.WordPair, error)
}

const (
	CATEGORY_DEFAULT       = "default"
	CATEGORY_FOOD          = "food"
	CATEGORY_KIDS          = "kids"
	CATEGORY_TECH          = "tech"
	CATEGORY_ENTERTAINMENT = "entertainment"

	CATEGORY_MANUAL = "manual"
	// remote libraries get ids with this prefix
	CATEGORY_REMOTE_PREFIX = "custom_"
)

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"source_url,omitempty"`

	// only for CATEGORY_MANUAL
	Manual *game.WordPair `json:"manual,omitempty"`
}

func (c Category) IsRemote() bool {
	return strings.HasPrefix(c.ID, CATEGORY_REMOTE_PREFIX) && c.SourceURL != ""
}

var CATEGORIES = []Category{
	{ID: CATEGORY_DEFAULT, Name: "默认", Icon: "style", Description: "经典随机词库"},
	{ID: CATEGORY_FOOD, Name: "美食", Icon: "restaurant", Description: "吃货必选"},
	{ID: CATEGORY_KIDS, Name: "儿童", Icon: "smart_toy", Description: "简单有趣"},
	{ID: CATEGORY_TECH, Name: "科技", Icon: "devices", Description: "数码爱好者"},
	{ID: CATEGORY_ENTERTAINMENT, Name: "娱乐", Icon: "movie", Description: "电影明星"},
}

// DefaultCategory is what a fresh session draws from.
func DefaultCategory() Category {
	return CATEGORIES[0]
}

// DEFAULT_PAIR is the last-resort pair when nothing better is known.
var DEFAULT_PAIR = game.WordPair{Civilian: "苹果", Spy: "橙子"}

func FindCategory(id string) (Category, bool) {
	for _, c := range CATEGORIES {
		if c.ID == id {
			return c, true
		}
	}

	return Category{}, false
}

// NewSupplier picks the supplier for a category.
func NewSupplier(cat Category, bank *Bank, fetcher *Fetcher) (Supplier, error) {
	switch {
	case cat.ID == CATEGORY_MANUAL:
		if cat.Manual == nil {
			return nil, fmt.Errorf("%w: manual category without a word pair", game.ErrInvalidSettings)
		}
		ms, err := NewManualSupplier(*cat.Manual)
		if err != nil {
			return nil, err
		}
		return ms, nil

	case cat.IsRemote():
		return NewRemoteSupplier(cat.SourceURL, fetcher, nil), nil

	default:
		return bank.Supplier(cat.ID, nil), nil
	}
}

// ManualSupplier always returns the pair typed in by the facilitator.
type ManualSupplier struct {
	pair game.WordPair
}

func NewManualSupplier(pair game.WordPair) (*ManualSupplier, error) {
	pair.Civilian = strings.TrimSpace(pair.Civilian)
	pair.Spy = strings.TrimSpace(pair.Spy)

	if !pair.Valid() {
		return nil, fmt.Errorf("%w: manual words must both be set", game.ErrInvalidSettings)
	}

	return &ManualSupplier{pair: pair}, nil
}

func (ms *ManualSupplier) Supply(ctx context.Context) (game.WordPair, error) {
	return ms.pair, nil
}

func pick(pairs []game.WordPair, rng game.IntNer) game.WordPair {
	if rng == nil {
		rng = game.DefaultRand
	}

	return pairs[rng.IntN(len(pairs))]
}
