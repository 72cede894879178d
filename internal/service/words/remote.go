package words

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"who-is-spy-offline/internal/service/game"

	"go.uber.org/zap"
)

// maxBankBytes caps the size of a downloaded word library.
const maxBankBytes = 1 << 20

// Fetcher downloads remote word libraries: a JSON array of
// {"civilian": ..., "spy": ...} objects.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}

	return &Fetcher{client: client}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]game.WordPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWordSourceUnavailable, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWordSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %s", ErrWordSourceUnavailable, url, resp.Status)
	}

	var list []game.WordPair

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBankBytes)).Decode(&list); err != nil {
		return nil, fmt.Errorf("%w: library must be a JSON array of word pairs: %v", ErrWordSourceUnavailable, err)
	}

	pairs := validPairs(list)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: library has no entry with both civilian and spy words", ErrWordSourceUnavailable)
	}

	return pairs, nil
}

// RemoteSupplier draws from a remote library, downloaded once and kept for
// re-rolling on later rounds.
type RemoteSupplier struct {
	url     string
	fetcher *Fetcher
	rng     game.IntNer

	mu   sync.Mutex
	bank []game.WordPair
}

func NewRemoteSupplier(url string, fetcher *Fetcher, rng game.IntNer) *RemoteSupplier {
	if fetcher == nil {
		fetcher = NewFetcher(nil)
	}

	return &RemoteSupplier{
		url:     url,
		fetcher: fetcher,
		rng:     rng,
	}
}

// Load downloads the library now, replacing any cached copy.
func (rs *RemoteSupplier) Load(ctx context.Context) error {
	pairs, err := rs.fetcher.Fetch(ctx, rs.url)
	if err != nil {
		return err
	}

	rs.mu.Lock()
	rs.bank = pairs
	rs.mu.Unlock()

	zap.L().Info(
		"远程词库加载成功",
		zap.String("url", rs.url),
		zap.Int("pairs", len(pairs)),
	)

	return nil
}

func (rs *RemoteSupplier) Supply(ctx context.Context) (game.WordPair, error) {
	rs.mu.Lock()
	cached := len(rs.bank) > 0
	rs.mu.Unlock()

	if !cached {
		if err := rs.Load(ctx); err != nil {
			return game.WordPair{}, err
		}
	}

	rs.mu.Lock()
	defer rs.mu.Unlock()

	return pick(rs.bank, rs.rng), nil
}
