package service

import (
	"errors"
	"time"

	"who-is-spy-offline/internal/service/dto"
	"who-is-spy-offline/internal/service/game"
	"who-is-spy-offline/internal/service/words"

	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoActiveRound   = errors.New("no active round")
	ErrUnknownCategory = errors.New("unknown word category")
)

// session is one facilitator's setup plus at most one live round.
type session struct {
	id string

	// settings.WordPair 始终是最近一次可用的词语，供词源失败时回退
	settings     game.GameSettings
	category     words.Category
	supplier     words.Supplier
	wordFallback bool

	round *game.Round

	subscribers map[chan game.ResponseWrapper]struct{}

	createdAt  time.Time
	lastActive time.Time
}

func (s *session) touch() {
	s.lastActive = time.Now()
}

func (s *session) toResponse() dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:           s.id,
		Settings:     toSettingsDTO(s.settings),
		Category:     s.category,
		WordFallback: s.wordFallback,
		CreatedAt:    s.createdAt,
		LastActive:   s.lastActive,
	}

	// 手动词语不回传，避免在设置页泄露
	resp.Category.Manual = nil

	if s.round != nil {
		snap := s.round.Snapshot()
		resp.Round = &snap
	}

	return resp
}

func (s *session) broadcast(resp game.ResponseWrapper) {
	for ch := range s.subscribers {
		select {
		case ch <- resp:
		default:
			zap.L().Warn(
				"发送广播响应失败：订阅通道已满",
				zap.String("session_id", s.id),
				zap.String("response_type", resp.RespType),
			)
		}
	}
}

func (s *session) closeSubscribers() {
	for ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, ch)
	}
}

func isSessionExpired(s *session, now time.Time, timeout time.Duration) bool {
	if s == nil {
		return true
	}

	return timeout > 0 && now.Sub(s.lastActive) > timeout
}

func toSettingsDTO(s game.GameSettings) dto.Settings {
	return dto.Settings{
		TotalPlayers:  s.TotalPlayers,
		SpyCount:      s.SpyCount,
		BlankCount:    s.BlankCount,
		CivilianCount: s.CivilianCount(),
	}
}

// Recommended is the house-rule configuration for a table size.
func Recommended(total int) dto.RecommendedResponse {
	spies, blanks := game.RecommendedCounts(total)

	return dto.RecommendedResponse{
		Settings: toSettingsDTO(game.GameSettings{
			TotalPlayers: total,
			SpyCount:     spies,
			BlankCount:   blanks,
		}),
	}
}
