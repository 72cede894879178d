package dto

import (
	"time"

	"who-is-spy-offline/internal/service/game"
	"who-is-spy-offline/internal/service/words"
)

// 人数配置，不包含词语（词语只在翻牌时单独展示）
type Settings struct {
	TotalPlayers  int `json:"total_players"`
	SpyCount      int `json:"spy_count"`
	BlankCount    int `json:"blank_count"`
	CivilianCount int `json:"civilian_count"`
}

type CreateSessionRequest struct {
	// 可空，使用默认配置
	Settings   *UpdateSettingsRequest `json:"settings,omitempty"`
	CategoryID string                 `json:"category_id,omitempty"`
}

type UpdateSettingsRequest struct {
	TotalPlayers int `json:"total_players"`
	SpyCount     int `json:"spy_count"`
	BlankCount   int `json:"blank_count"`

	// 为 true 时忽略 SpyCount/BlankCount，按人数套用推荐配置
	UseRecommended bool `json:"use_recommended"`

	// 为 true 时把越界的卧底/白板数拉回合法范围，而不是报错
	Clamp bool `json:"clamp"`
}

// 三选一：内置分类、远程词库（source_url）、手动输入（category_id=manual）
type SelectCategoryRequest struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
	Civilian   string `json:"civilian,omitempty"`
	Spy        string `json:"spy,omitempty"`
}

type SessionResponse struct {
	ID       string         `json:"id"`
	Settings Settings       `json:"settings"`
	Category words.Category `json:"category"`
	// 上一次开局时词语来源不可用，使用了备用词语
	WordFallback bool           `json:"word_fallback"`
	Round        *game.Snapshot `json:"round,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActive   time.Time      `json:"last_active"`
}

type RecommendedResponse struct {
	Settings Settings `json:"settings"`
}

type CategoryListResponse struct {
	Categories []words.Category `json:"categories"`
}
