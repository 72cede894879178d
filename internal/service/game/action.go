package game

// 翻牌阶段：当前持有设备的玩家确认已看过身份
type ConfirmRevealRequest struct {
	PlayerID int `json:"player_id"`
}

// 投票阶段：主持人选中要淘汰的玩家（尚未确认）
type SelectRequest struct {
	PlayerID int `json:"player_id"`
}

type ConfirmEliminationRequest struct{}

type CancelEliminationRequest struct{}

// 白板猜词阶段：向全桌展示平民词
type RevealWordRequest struct{}

// 白板猜词阶段：主持人裁定白板是否猜中平民词
type BlankGuessRequest struct {
	Correct *bool `json:"correct"`
}

type EliminateResponse struct {
	Eliminated Player  `json:"eliminated"`
	Outcome    Outcome `json:"outcome"`
}

type CivilianWordResponse struct {
	Word string `json:"word"`
}

// Snapshot is the public view of a round. Roles and words of cards still face
// down are stripped; the civilian word only appears once it has been shown to
// the table.
type Snapshot struct {
	Stage        string   `json:"stage"`
	TotalPlayers int      `json:"total_players"`
	RevealIndex  int      `json:"reveal_index"`
	SelectedID   int      `json:"selected_id,omitempty"`
	Players      []Player `json:"players"`
	ActiveCount  int      `json:"active_count"`
	LastOutcome  *Outcome `json:"last_outcome,omitempty"`
	LastOut      *Player  `json:"last_eliminated,omitempty"`
	CivilianWord string   `json:"civilian_word,omitempty"`
	Winner       Winner   `json:"winner"`
}
