package dto

import "who-is-spy-offline/internal/service/game"

type ActionResponse struct {
	Snapshot game.Snapshot `json:"snapshot"`
	// 仅在确认淘汰后有值
	Eliminated *game.EliminateResponse `json:"eliminated,omitempty"`
	// 仅在白板猜词阶段请求展示后有值
	CivilianWord string `json:"civilian_word,omitempty"`
	// 仅在本局结束后有值
	Result *game.Result `json:"result,omitempty"`
}

type CardResponse struct {
	Player       game.Player `json:"player"`
	Position     int         `json:"position"`
	TotalPlayers int         `json:"total_players"`
}
