package game

import (
	"encoding/json"
	"errors"
	"testing"
)

func newTestRound(t *testing.T, roles []Role) *Round {
	t.Helper()

	spies, blanks, _ := CountActive(roster(roles))
	settings := GameSettings{
		TotalPlayers: len(roles),
		SpyCount:     spies,
		BlankCount:   blanks,
		WordPair:     testPair,
	}

	if err := settings.Validate(); err != nil {
		t.Fatalf("bad test settings: %v", err)
	}

	return newRoundFromPlayers(settings, roster(roles))
}

func revealAll(t *testing.T, r *Round) {
	t.Helper()

	for r.Stage() == STAGE_REVEALING {
		card, err := r.CurrentCard()
		if err != nil {
			t.Fatalf("current card: %v", err)
		}

		if err := r.ConfirmReveal(card.ID); err != nil {
			t.Fatalf("confirm reveal for %d: %v", card.ID, err)
		}
	}

	if r.Stage() != STAGE_VOTING {
		t.Fatalf("want voting after reveals, got %s", r.Stage())
	}
}

func idsOf(r *Round, role Role) []int {
	var ids []int
	for _, p := range r.Players() {
		if p.Role == role {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func TestRound_RevealIsSequential(t *testing.T) {
	r := newTestRound(t, []Role{C, S, C, B})

	card, err := r.CurrentCard()
	if err != nil {
		t.Fatalf("current card: %v", err)
	}

	if card.ID != 1 || card.Word != testPair.Civilian {
		t.Fatalf("first card should be player 1 with the civilian word, got %+v", card)
	}

	// 不允许提前查看后面的玩家
	if err := r.ConfirmReveal(3); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("skipping ahead should be rejected, got %v", err)
	}

	if err := r.Select(2); !errors.Is(err, ErrWrongStage) {
		t.Fatalf("voting during reveal should be rejected, got %v", err)
	}

	if r.Snapshot().RevealIndex != 0 {
		t.Fatalf("rejected requests must not advance the reveal")
	}

	revealAll(t, r)

	if _, err := r.CurrentCard(); !errors.Is(err, ErrWrongStage) {
		t.Fatalf("no card should be available after the reveal, got %v", err)
	}
}

// 6 人 2 卧底：第一个卧底出局后继续，第二个出局后平民胜
func TestRound_ScenarioA_CiviliansWin(t *testing.T) {
	r := newTestRound(t, []Role{C, S, C, C, S, C})
	revealAll(t, r)

	spies := idsOf(r, ROLE_SPY)

	winner, err := r.Eliminate(spies[1])
	if err != nil {
		t.Fatalf("first elimination: %v", err)
	}

	if winner != WINNER_NONE || r.Stage() != STAGE_VOTING {
		t.Fatalf("want none/voting after first spy, got %s/%s", winner, r.Stage())
	}

	winner, err = r.Eliminate(spies[0])
	if err != nil {
		t.Fatalf("second elimination: %v", err)
	}

	if winner != WINNER_CIVILIAN || !r.IsFinished() {
		t.Fatalf("want civilian win, got %s in %s", winner, r.Stage())
	}

	res, err := r.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}

	if res.Winner != WINNER_CIVILIAN || len(res.Players) != 6 {
		t.Fatalf("unexpected result %+v", res)
	}

	for _, p := range res.Players {
		if p.Role == "" {
			t.Fatalf("terminal roster must keep roles, player %d has none", p.ID)
		}
	}
}

// 剩 1 卧底 1 平民时淘汰平民：卧底胜
func TestRound_ScenarioB_SpyWins(t *testing.T) {
	r := newTestRound(t, []Role{S, C, C, C})
	revealAll(t, r)

	if winner, err := r.Eliminate(4); err != nil || winner != WINNER_NONE {
		t.Fatalf("want none after first civilian, got %s (%v)", winner, err)
	}

	winner, err := r.Eliminate(3)
	if err != nil {
		t.Fatalf("eliminate: %v", err)
	}

	if winner != WINNER_SPY || !r.IsFinished() {
		t.Fatalf("want spy win, got %s in %s", winner, r.Stage())
	}
}

func TestRound_ScenarioC_BlankGuess(t *testing.T) {
	for _, tc := range []struct {
		correct bool
		want    Winner
	}{
		{true, WINNER_BLANK},
		{false, WINNER_CIVILIAN},
	} {
		r := newTestRound(t, []Role{B, S, C})
		revealAll(t, r)

		winner, err := r.Eliminate(2)
		if err != nil {
			t.Fatalf("eliminate spy: %v", err)
		}

		if winner != WINNER_BLANK || r.Stage() != STAGE_BLANK_GUESS {
			t.Fatalf("want blank guess phase, got %s in %s", winner, r.Stage())
		}

		if r.IsFinished() {
			t.Fatalf("blank guess phase must not be terminal")
		}

		if snap := r.Snapshot(); snap.CivilianWord != "" {
			t.Fatalf("civilian word must stay hidden until requested")
		}

		word, err := r.RevealCivilianWord()
		if err != nil || word != testPair.Civilian {
			t.Fatalf("reveal word: %q, %v", word, err)
		}

		if snap := r.Snapshot(); snap.CivilianWord != testPair.Civilian {
			t.Fatalf("snapshot should carry the revealed civilian word")
		}

		final, err := r.ResolveBlankGuess(tc.correct)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}

		if final != tc.want || !r.IsFinished() {
			t.Fatalf("correct=%v: want %s, got %s in %s", tc.correct, tc.want, final, r.Stage())
		}
	}
}

// 8 人 2 卧底 1 白板：先淘汰一名平民，游戏继续
func TestRound_ScenarioD_ContinuesAfterCivilian(t *testing.T) {
	r := newTestRound(t, []Role{C, S, C, B, C, S, C, C})
	revealAll(t, r)

	if err := r.Select(idsOf(r, ROLE_CIVILIAN)[0]); err != nil {
		t.Fatalf("select: %v", err)
	}

	outcome, err := r.Confirm()
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if outcome.Kind != OUTCOME_ONGOING || r.Stage() != STAGE_VOTING {
		t.Fatalf("want ongoing, got %+v in %s", outcome, r.Stage())
	}
}

func TestRound_EliminatedPlayerRejected(t *testing.T) {
	r := newTestRound(t, []Role{C, S, C, C, S, C})
	revealAll(t, r)

	if _, err := r.Eliminate(1); err != nil {
		t.Fatalf("eliminate: %v", err)
	}

	before := r.Players()

	if _, err := r.Eliminate(1); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("eliminating twice should fail with ErrInvalidSelection, got %v", err)
	}

	if _, err := r.Eliminate(99); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("unknown id should fail with ErrInvalidSelection, got %v", err)
	}

	after := r.Players()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("rejected elimination changed player %d", before[i].ID)
		}
	}

	if r.Stage() != STAGE_VOTING {
		t.Fatalf("rejected selection must stay in voting, got %s", r.Stage())
	}
}

func TestRound_CancelLeavesStateUnchanged(t *testing.T) {
	r := newTestRound(t, []Role{C, S, C, C})
	revealAll(t, r)

	if err := r.Select(2); err != nil {
		t.Fatalf("select: %v", err)
	}

	if r.Stage() != STAGE_CONFIRMING || r.Snapshot().SelectedID != 2 {
		t.Fatalf("want confirming with player 2 selected, got %+v", r.Snapshot())
	}

	if err := r.Select(3); !errors.Is(err, ErrWrongStage) {
		t.Fatalf("second select before confirm should be rejected, got %v", err)
	}

	if err := r.Cancel(); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if r.Stage() != STAGE_VOTING || r.Snapshot().SelectedID != 0 {
		t.Fatalf("cancel should return to selection, got %+v", r.Snapshot())
	}

	for _, p := range r.Players() {
		if p.IsEliminated {
			t.Fatalf("cancel must not eliminate anyone, player %d is out", p.ID)
		}
	}

	if _, err := r.Confirm(); !errors.Is(err, ErrWrongStage) {
		t.Fatalf("confirm without selection should be rejected, got %v", err)
	}
}

func TestRound_FinishedIsImmutable(t *testing.T) {
	r := newTestRound(t, []Role{S, C, C})
	revealAll(t, r)

	if _, err := r.Eliminate(2); err != nil {
		t.Fatalf("eliminate: %v", err)
	}

	if !r.IsFinished() {
		t.Fatalf("round should be finished, got %s", r.Stage())
	}

	if _, err := r.Eliminate(1); !errors.Is(err, ErrWrongStage) {
		t.Fatalf("eliminate after finish should fail with ErrWrongStage, got %v", err)
	}

	if _, err := r.ResolveBlankGuess(true); !errors.Is(err, ErrRoundFinished) {
		t.Fatalf("want ErrRoundFinished, got %v", err)
	}

	res, _ := r.Result()
	if res.Winner != WINNER_SPY {
		t.Fatalf("winner changed after finish: %s", res.Winner)
	}
}

func TestRound_SnapshotHidesFaceDownCards(t *testing.T) {
	r := newTestRound(t, []Role{C, S, C, C})
	revealAll(t, r)

	if _, err := r.Eliminate(3); err != nil {
		t.Fatalf("eliminate: %v", err)
	}

	snap := r.Snapshot()

	for _, p := range snap.Players {
		if p.ID == 3 {
			if p.Role != ROLE_CIVILIAN || !p.IsEliminated {
				t.Fatalf("eliminated card should be face up, got %+v", p)
			}
			continue
		}

		if p.Role != "" || p.Word != "" {
			t.Fatalf("active card %d leaked role or word: %+v", p.ID, p)
		}
	}

	if snap.LastOut == nil || snap.LastOut.ID != 3 {
		t.Fatalf("snapshot should report the last eliminated player")
	}

	if snap.ActiveCount != 3 {
		t.Fatalf("want 3 active, got %d", snap.ActiveCount)
	}
}

func TestRound_HandleWireRequests(t *testing.T) {
	r := newTestRound(t, []Role{S, C, C, C})

	for id := 1; id <= 4; id++ {
		req, err := ParseRequest(mustMarshal(map[string]any{
			"request_type": REQ_CONFIRM_REVEAL,
			"data":         map[string]int{"player_id": id},
		}))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}

		if err := r.Handle(req); err != nil {
			t.Fatalf("handle reveal %d: %v", id, err)
		}
	}

	steps := []string{
		`{"request_type":"Select","data":{"player_id":2}}`,
		`{"request_type":"Confirm"}`,
	}

	for _, step := range steps {
		req, err := ParseRequest(json.RawMessage(step))
		if err != nil {
			t.Fatalf("parse %s: %v", step, err)
		}

		if err := r.Handle(req); err != nil {
			t.Fatalf("handle %s: %v", step, err)
		}
	}

	if r.Stage() != STAGE_VOTING || r.Snapshot().ActiveCount != 3 {
		t.Fatalf("want voting with 3 active, got %+v", r.Snapshot())
	}
}

func TestParseRequest_Rejects(t *testing.T) {
	cases := []string{
		`not json`,
		`{"request_type":"Dance"}`,
		`{"request_type":"Select","data":"oops"}`,
		`{"request_type":"BlankGuess","data":{}}`,
	}

	for _, msg := range cases {
		if _, err := ParseRequest([]byte(msg)); !errors.Is(err, ErrMalformedRequest) {
			t.Fatalf("%s: want ErrMalformedRequest, got %v", msg, err)
		}
	}
}
