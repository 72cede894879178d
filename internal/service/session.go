package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"who-is-spy-offline/internal/service/dto"
	"who-is-spy-offline/internal/service/game"
	"who-is-spy-offline/internal/service/words"

	"go.uber.org/zap"
)

const (
	DEFAULT_TOTAL_PLAYERS = 6
	DEFAULT_SPY_COUNT     = 1
	DEFAULT_BLANK_COUNT   = 0

	subscriberBufferSize = 16
)

type SessionOptions struct {
	// 单次词源请求的超时时间
	WordFetchTimeout time.Duration
	// 会话空闲超过该时长后被清理，0 表示永不过期
	SessionTimeout  time.Duration
	CleanupInterval time.Duration

	// 需要并发安全，词库抽词在锁外进行
	Rng     game.IntNer
	Fetcher *words.Fetcher
}

type SessionService struct {
	state *sessionServiceState

	bank    *words.Bank
	fetcher *words.Fetcher
	rng     game.IntNer

	fetchTimeout   time.Duration
	sessionTimeout time.Duration
}

type sessionServiceState struct {
	mu sync.Mutex

	// 从 ID 到会话的映射
	sessions map[string]*session

	cleanUpDone chan struct{}
	closeOnce   sync.Once
}

func NewSessionService(bank *words.Bank, opts SessionOptions) *SessionService {
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = time.Minute
	}
	if opts.Rng == nil {
		opts.Rng = game.DefaultRand
	}
	if opts.Fetcher == nil {
		opts.Fetcher = words.NewFetcher(nil)
	}

	state := &sessionServiceState{
		sessions:    make(map[string]*session),
		cleanUpDone: make(chan struct{}),
	}

	// 启动一个 goroutine 定期清理过期的会话
	go startCleanupLoop(state, opts.CleanupInterval, opts.SessionTimeout)

	return &SessionService{
		state:          state,
		bank:           bank,
		fetcher:        opts.Fetcher,
		rng:            opts.Rng,
		fetchTimeout:   opts.WordFetchTimeout,
		sessionTimeout: opts.SessionTimeout,
	}
}

func startCleanupLoop(state *sessionServiceState, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-state.cleanUpDone:
			return

		case now := <-ticker.C:
			state.cleanExpired(now, timeout)
		}
	}
}

func (state *sessionServiceState) cleanExpired(now time.Time, timeout time.Duration) int {
	state.mu.Lock()
	defer state.mu.Unlock()

	cleaned := 0

	for id, s := range state.sessions {
		if !isSessionExpired(s, now, timeout) {
			continue
		}

		zap.S().Infof("会话 %s 空闲超时，开始清理", id)

		if s != nil {
			s.closeSubscribers()
		}
		delete(state.sessions, id)
		cleaned++
	}

	return cleaned
}

func (ss *SessionService) Close() {
	ss.state.closeOnce.Do(func() {
		close(ss.state.cleanUpDone)
	})
}

// lookup must be called with the lock held.
func (ss *SessionService) lookup(id string) (*session, error) {
	s, ok := ss.state.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s.touch()
	return s, nil
}

func (ss *SessionService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ss.fetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, ss.fetchTimeout)
}

func (ss *SessionService) CreateSession(ctx context.Context, req dto.CreateSessionRequest) (dto.SessionResponse, error) {
	settings := game.GameSettings{
		TotalPlayers: DEFAULT_TOTAL_PLAYERS,
		SpyCount:     DEFAULT_SPY_COUNT,
		BlankCount:   DEFAULT_BLANK_COUNT,
		WordPair:     words.DEFAULT_PAIR,
	}

	if req.Settings != nil {
		next, err := resolveSettings(settings, *req.Settings)
		if err != nil {
			return dto.SessionResponse{}, err
		}
		settings = next
	}

	category := words.DefaultCategory()
	if req.CategoryID != "" {
		c, ok := words.FindCategory(req.CategoryID)
		if !ok {
			return dto.SessionResponse{}, fmt.Errorf("%w: %s", ErrUnknownCategory, req.CategoryID)
		}
		category = c
	}

	supplier := ss.bank.Supplier(category.ID, ss.rng)

	// 内置词库不会失败，预先取一组作为备用词语
	if pair, err := supplier.Supply(ctx); err == nil {
		settings.WordPair = pair
	}

	now := time.Now()
	s := &session{
		id:          game.ShortID(),
		settings:    settings,
		category:    category,
		supplier:    supplier,
		subscribers: make(map[chan game.ResponseWrapper]struct{}),
		createdAt:   now,
		lastActive:  now,
	}

	ss.state.mu.Lock()
	for {
		if _, exists := ss.state.sessions[s.id]; !exists {
			break
		}
		s.id = game.ShortID()
	}
	ss.state.sessions[s.id] = s
	resp := s.toResponse()
	ss.state.mu.Unlock()

	zap.S().Infof("会话 %s 已创建，%d 人，分类 %s", s.id, settings.TotalPlayers, category.ID)

	return resp, nil
}

func (ss *SessionService) GetSession(id string) (dto.SessionResponse, error) {
	ss.state.mu.Lock()
	defer ss.state.mu.Unlock()

	s, err := ss.lookup(id)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	return s.toResponse(), nil
}

func resolveSettings(current game.GameSettings, req dto.UpdateSettingsRequest) (game.GameSettings, error) {
	next := current
	next.TotalPlayers = req.TotalPlayers

	if req.UseRecommended {
		next.SpyCount, next.BlankCount = game.RecommendedCounts(req.TotalPlayers)
	} else {
		next.SpyCount = req.SpyCount
		next.BlankCount = req.BlankCount
	}

	if req.Clamp {
		next = game.ClampSettings(next)
	}

	if err := next.ValidateBounds(); err != nil {
		return current, err
	}

	if err := next.Validate(); err != nil {
		return current, err
	}

	return next, nil
}

// UpdateSettings changes the counts used by the next round. A round in
// progress keeps the settings it was dealt with.
func (ss *SessionService) UpdateSettings(id string, req dto.UpdateSettingsRequest) (dto.SessionResponse, error) {
	ss.state.mu.Lock()
	defer ss.state.mu.Unlock()

	s, err := ss.lookup(id)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	next, err := resolveSettings(s.settings, req)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	s.settings = next

	zap.S().Debugf("会话 %s 更新配置：%d 人，%d 卧底，%d 白板", id, next.TotalPlayers, next.SpyCount, next.BlankCount)

	return s.toResponse(), nil
}

// SelectCategory switches the word source. Remote libraries are downloaded
// here so a broken URL is reported at setup, not at round start.
func (ss *SessionService) SelectCategory(ctx context.Context, id string, req dto.SelectCategoryRequest) (dto.SessionResponse, error) {
	ss.state.mu.Lock()
	if _, err := ss.lookup(id); err != nil {
		ss.state.mu.Unlock()
		return dto.SessionResponse{}, err
	}
	ss.state.mu.Unlock()

	category, supplier, err := ss.buildSupplier(ctx, req)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	fetchCtx, cancel := ss.withTimeout(ctx)
	pair, supplyErr := supplier.Supply(fetchCtx)
	cancel()

	ss.state.mu.Lock()
	defer ss.state.mu.Unlock()

	// 下载期间会话可能已被关闭
	s, err := ss.lookup(id)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	s.category = category
	s.supplier = supplier
	if supplyErr == nil {
		s.settings.WordPair = pair
	}

	zap.S().Infof("会话 %s 切换词库分类为 %s", id, category.ID)

	return s.toResponse(), nil
}

func (ss *SessionService) buildSupplier(ctx context.Context, req dto.SelectCategoryRequest) (words.Category, words.Supplier, error) {
	switch {
	case req.CategoryID == words.CATEGORY_MANUAL:
		pair := game.WordPair{Civilian: req.Civilian, Spy: req.Spy}
		cat := words.Category{
			ID:     words.CATEGORY_MANUAL,
			Name:   "手动输入",
			Manual: &pair,
		}

		supplier, err := words.NewSupplier(cat, ss.bank, ss.fetcher)
		if err != nil {
			return words.Category{}, nil, err
		}
		return cat, supplier, nil

	case strings.TrimSpace(req.SourceURL) != "":
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = "自定义词库"
		}

		cat := words.Category{
			ID:        words.CATEGORY_REMOTE_PREFIX + game.ShortID(),
			Name:      name,
			Icon:      "cloud_download",
			SourceURL: strings.TrimSpace(req.SourceURL),
		}

		rs := words.NewRemoteSupplier(cat.SourceURL, ss.fetcher, ss.rng)

		fetchCtx, cancel := ss.withTimeout(ctx)
		defer cancel()

		if err := rs.Load(fetchCtx); err != nil {
			zap.L().Warn("远程词库加载失败", zap.String("url", cat.SourceURL), zap.Error(err))
			return words.Category{}, nil, err
		}
		return cat, rs, nil

	default:
		cat, ok := words.FindCategory(req.CategoryID)
		if !ok {
			return words.Category{}, nil, fmt.Errorf("%w: %s", ErrUnknownCategory, req.CategoryID)
		}
		return cat, ss.bank.Supplier(cat.ID, ss.rng), nil
	}
}

// StartRound deals a new round, replacing any round in progress. When the word
// source fails the last known-good pair is used and the session is flagged.
func (ss *SessionService) StartRound(ctx context.Context, id string) (dto.SessionResponse, error) {
	ss.state.mu.Lock()
	s, err := ss.lookup(id)
	if err != nil {
		ss.state.mu.Unlock()
		return dto.SessionResponse{}, err
	}
	supplier := s.supplier
	ss.state.mu.Unlock()

	fetchCtx, cancel := ss.withTimeout(ctx)
	pair, supplyErr := supplier.Supply(fetchCtx)
	cancel()

	ss.state.mu.Lock()
	defer ss.state.mu.Unlock()

	if s, err = ss.lookup(id); err != nil {
		return dto.SessionResponse{}, err
	}

	settings := s.settings
	fallback := false

	if supplyErr != nil {
		zap.L().Warn(
			"词语来源不可用，使用备用词语",
			zap.String("session_id", id),
			zap.String("category_id", s.category.ID),
			zap.Error(supplyErr),
		)
		fallback = true
	} else {
		settings.WordPair = pair
	}

	if err := settings.ValidateBounds(); err != nil {
		return dto.SessionResponse{}, err
	}

	round, err := game.NewRound(settings, ss.rng)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	if s.round != nil && !s.round.IsFinished() {
		zap.S().Infof("会话 %s 放弃未完成的一局 %s", id, s.round.ID())
	}

	s.settings = settings
	s.wordFallback = fallback
	s.round = round

	s.broadcast(game.WrapResponse(game.RESP_SNAPSHOT, round.Snapshot()))

	return s.toResponse(), nil
}

// Act applies one facilitator action to the running round.
func (ss *SessionService) Act(id string, req game.RequestWrapper) (dto.ActionResponse, error) {
	ss.state.mu.Lock()
	defer ss.state.mu.Unlock()

	s, err := ss.lookup(id)
	if err != nil {
		return dto.ActionResponse{}, err
	}

	if s.round == nil {
		return dto.ActionResponse{}, ErrNoActiveRound
	}

	if err := s.round.Handle(req); err != nil {
		return dto.ActionResponse{}, err
	}

	snap := s.round.Snapshot()
	resp := dto.ActionResponse{Snapshot: snap}

	switch req.ReqType {
	case game.REQ_CONFIRM:
		if snap.LastOut != nil && snap.LastOutcome != nil {
			resp.Eliminated = &game.EliminateResponse{
				Eliminated: *snap.LastOut,
				Outcome:    *snap.LastOutcome,
			}
			s.broadcast(game.WrapResponse(game.RESP_ELIMINATE, *resp.Eliminated))
		}

	case game.REQ_REVEAL_WORD:
		resp.CivilianWord = s.round.Settings().WordPair.Civilian
		s.broadcast(game.WrapResponse(game.RESP_CIVILIAN_WORD, game.CivilianWordResponse{Word: resp.CivilianWord}))
	}

	if s.round.IsFinished() {
		result, err := s.round.Result()
		if err == nil {
			resp.Result = &result
			s.broadcast(game.WrapResponse(game.RESP_GAME_RESULT, result))
		}
	}

	s.broadcast(game.WrapResponse(game.RESP_SNAPSHOT, snap))

	return resp, nil
}

// CurrentCard is the face-down card for the player now holding the device.
func (ss *SessionService) CurrentCard(id string) (dto.CardResponse, error) {
	ss.state.mu.Lock()
	defer ss.state.mu.Unlock()

	s, err := ss.lookup(id)
	if err != nil {
		return dto.CardResponse{}, err
	}

	if s.round == nil {
		return dto.CardResponse{}, ErrNoActiveRound
	}

	card, err := s.round.CurrentCard()
	if err != nil {
		return dto.CardResponse{}, err
	}

	return dto.CardResponse{
		Player:       card,
		Position:     card.ID,
		TotalPlayers: s.round.Settings().TotalPlayers,
	}, nil
}

func (ss *SessionService) Result(id string) (game.Result, error) {
	ss.state.mu.Lock()
	defer ss.state.mu.Unlock()

	s, err := ss.lookup(id)
	if err != nil {
		return game.Result{}, err
	}

	if s.round == nil {
		return game.Result{}, ErrNoActiveRound
	}

	return s.round.Result()
}

// AbandonRound drops the current round. Settings and word source stay.
func (ss *SessionService) AbandonRound(id string) error {
	ss.state.mu.Lock()
	defer ss.state.mu.Unlock()

	s, err := ss.lookup(id)
	if err != nil {
		return err
	}

	if s.round == nil {
		return ErrNoActiveRound
	}

	zap.S().Infof("会话 %s 放弃当前一局 %s", id, s.round.ID())

	s.round = nil
	s.broadcast(game.WrapResponse(game.RESP_ROUND_CLOSED, nil))

	return nil
}

func (ss *SessionService) CloseSession(id string) error {
	ss.state.mu.Lock()
	defer ss.state.mu.Unlock()

	s, err := ss.lookup(id)
	if err != nil {
		return err
	}

	s.closeSubscribers()
	delete(ss.state.sessions, id)

	zap.S().Infof("会话 %s 已关闭", id)

	return nil
}

// Subscribe registers a listener for round events. The channel is closed when
// the session goes away; call the returned func to stop listening earlier.
func (ss *SessionService) Subscribe(id string) (<-chan game.ResponseWrapper, func(), error) {
	ss.state.mu.Lock()
	defer ss.state.mu.Unlock()

	s, err := ss.lookup(id)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan game.ResponseWrapper, subscriberBufferSize)
	s.subscribers[ch] = struct{}{}

	unsubscribe := func() {
		ss.state.mu.Lock()
		defer ss.state.mu.Unlock()

		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
	}

	return ch, unsubscribe, nil
}
