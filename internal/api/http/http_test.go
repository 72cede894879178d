package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"who-is-spy-offline/internal/config"
	"who-is-spy-offline/internal/service"
	"who-is-spy-offline/internal/service/dto"
	"who-is-spy-offline/internal/service/game"
	"who-is-spy-offline/internal/service/words"
	"who-is-spy-offline/internal/state"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	bank, err := words.LoadBank()
	if err != nil {
		t.Fatalf("load bank: %v", err)
	}

	svc := service.NewSessionService(bank, service.SessionOptions{WordFetchTimeout: time.Second})
	t.Cleanup(svc.Close)

	cfg := &config.AppConfig{
		Host:             "127.0.0.1",
		Port:             8080,
		LogLevel:         "error",
		WordFetchTimeout: time.Second,
		PublicURL:        "http://spy.local",
	}

	app := newApp(state.NewAppState(cfg, bank, svc))
	if err := app.Build(); err != nil {
		t.Fatalf("build app: %v", err)
	}

	srv := httptest.NewServer(app)
	t.Cleanup(srv.Close)

	return srv
}

func do(t *testing.T, method, url string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data
}

func createSession(t *testing.T, base string, total, spies int) string {
	t.Helper()

	status, data := do(t, http.MethodPost, base+"/api/v1/sessions", dto.CreateSessionRequest{
		Settings: &dto.UpdateSettingsRequest{TotalPlayers: total, SpyCount: spies},
	})
	if status != http.StatusCreated {
		t.Fatalf("create session: %d %s", status, data)
	}

	var resp dto.SessionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode session: %v", err)
	}

	return resp.ID
}

func TestCategoriesAndRecommended(t *testing.T) {
	srv := newTestServer(t)

	status, data := do(t, http.MethodGet, srv.URL+"/api/v1/categories", nil)
	if status != http.StatusOK {
		t.Fatalf("categories: %d", status)
	}

	var list dto.CategoryListResponse
	json.Unmarshal(data, &list)
	if len(list.Categories) != len(words.CATEGORIES) {
		t.Fatalf("want %d categories, got %d", len(words.CATEGORIES), len(list.Categories))
	}

	status, data = do(t, http.MethodGet, srv.URL+"/api/v1/settings/recommended?total=8", nil)
	if status != http.StatusOK {
		t.Fatalf("recommended: %d %s", status, data)
	}

	var rec dto.RecommendedResponse
	json.Unmarshal(data, &rec)
	if rec.Settings.SpyCount != 2 || rec.Settings.BlankCount != 1 || rec.Settings.CivilianCount != 5 {
		t.Fatalf("unexpected recommendation %+v", rec.Settings)
	}

	for _, q := range []string{"total=2", "total=21", "total=abc"} {
		if status, _ := do(t, http.MethodGet, srv.URL+"/api/v1/settings/recommended?"+q, nil); status != http.StatusBadRequest {
			t.Fatalf("%s: want 400, got %d", q, status)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1/sessions/"

	status, _ := do(t, http.MethodPost, srv.URL+"/api/v1/sessions", nil)
	if status != http.StatusCreated {
		t.Fatalf("session with empty body should use defaults, got %d", status)
	}

	id := createSession(t, srv.URL, 4, 1)

	if status, _ := do(t, http.MethodGet, base+id, nil); status != http.StatusOK {
		t.Fatalf("get session: %d", status)
	}

	if status, _ := do(t, http.MethodGet, base+"missing", nil); status != http.StatusNotFound {
		t.Fatalf("unknown session: want 404, got %d", status)
	}

	status, _ = do(t, http.MethodPut, base+id+"/settings", dto.UpdateSettingsRequest{TotalPlayers: 4, SpyCount: 2, BlankCount: 2})
	if status != http.StatusBadRequest {
		t.Fatalf("invalid settings: want 400, got %d", status)
	}

	status, _ = do(t, http.MethodPut, base+id+"/category", dto.SelectCategoryRequest{CategoryID: "nope"})
	if status != http.StatusBadRequest {
		t.Fatalf("unknown category: want 400, got %d", status)
	}

	status, _ = do(t, http.MethodPut, base+id+"/category", dto.SelectCategoryRequest{CategoryID: words.CATEGORY_KIDS})
	if status != http.StatusOK {
		t.Fatalf("select category: %d", status)
	}

	if status, _ := do(t, http.MethodDelete, base+id, nil); status != http.StatusNoContent {
		t.Fatalf("close session: %d", status)
	}

	if status, _ := do(t, http.MethodGet, base+id, nil); status != http.StatusNotFound {
		t.Fatalf("closed session: want 404, got %d", status)
	}
}

func TestRoundOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv.URL, 4, 1)
	base := srv.URL + "/api/v1/sessions/" + id

	if status, _ := do(t, http.MethodGet, base+"/round/card", nil); status != http.StatusConflict {
		t.Fatalf("card without round: want 409, got %d", status)
	}

	if status, data := do(t, http.MethodPost, base+"/rounds", nil); status != http.StatusCreated {
		t.Fatalf("start round: %d %s", status, data)
	}

	// 翻牌阶段不能投票
	status, _ := do(t, http.MethodPost, base+"/round/actions", game.RequestWrapper{
		ReqType: game.REQ_SELECT,
		Data:    json.RawMessage(`{"player_id":1}`),
	})
	if status != http.StatusConflict {
		t.Fatalf("select during reveal: want 409, got %d", status)
	}

	status, _ = do(t, http.MethodPost, base+"/round/actions", game.RequestWrapper{ReqType: "Dance"})
	if status != http.StatusBadRequest {
		t.Fatalf("unknown action: want 400, got %d", status)
	}

	spyID := 0
	for i := 1; i <= 4; i++ {
		status, data := do(t, http.MethodGet, base+"/round/card", nil)
		if status != http.StatusOK {
			t.Fatalf("card %d: %d %s", i, status, data)
		}

		var card dto.CardResponse
		json.Unmarshal(data, &card)
		if card.Position != i || card.Player.Role == "" || card.Player.Word == "" {
			t.Fatalf("card %d should show the face-down role and word, got %+v", i, card)
		}
		if card.Player.Role == game.ROLE_SPY {
			spyID = card.Player.ID
		}

		status, data = do(t, http.MethodPost, base+"/round/actions", game.RequestWrapper{
			ReqType: game.REQ_CONFIRM_REVEAL,
			Data:    json.RawMessage(`{"player_id":` + strconv.Itoa(i) + `}`),
		})
		if status != http.StatusOK {
			t.Fatalf("confirm reveal %d: %d %s", i, status, data)
		}
	}

	if status, _ := do(t, http.MethodGet, base+"/round/result", nil); status != http.StatusConflict {
		t.Fatalf("result before the end: want 409, got %d", status)
	}

	do(t, http.MethodPost, base+"/round/actions", game.RequestWrapper{
		ReqType: game.REQ_SELECT,
		Data:    json.RawMessage(`{"player_id":` + strconv.Itoa(spyID) + `}`),
	})

	status, data := do(t, http.MethodPost, base+"/round/actions", game.RequestWrapper{ReqType: game.REQ_CONFIRM})
	if status != http.StatusOK {
		t.Fatalf("confirm elimination: %d %s", status, data)
	}

	var act dto.ActionResponse
	json.Unmarshal(data, &act)
	if act.Result == nil || act.Result.Winner != game.WINNER_CIVILIAN {
		t.Fatalf("voting out the only spy should end the round, got %s", data)
	}

	if status, _ := do(t, http.MethodGet, base+"/round/result", nil); status != http.StatusOK {
		t.Fatalf("result: %d", status)
	}

	if status, _ := do(t, http.MethodDelete, base+"/rounds", nil); status != http.StatusNoContent {
		t.Fatalf("abandon round: %d", status)
	}

	if status, _ := do(t, http.MethodDelete, base+"/rounds", nil); status != http.StatusConflict {
		t.Fatalf("abandon without round: want 409, got %d", status)
	}
}

func TestShareQRCode(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv.URL, 5, 1)

	resp, err := http.Get(srv.URL + "/api/v1/qr?session_id=" + id)
	if err != nil {
		t.Fatalf("get qr: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "image/png") {
		t.Fatalf("want png, got %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	data, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("body is not a png")
	}

	if status, _ := do(t, http.MethodGet, srv.URL+"/api/v1/qr?session_id=missing", nil); status != http.StatusNotFound {
		t.Fatalf("qr for unknown session: want 404, got %d", status)
	}
}

func TestWatchSession(t *testing.T) {
	srv := newTestServer(t)
	id := createSession(t, srv.URL, 5, 1)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/session?session_id=" + id

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if status, _ := do(t, http.MethodPost, srv.URL+"/api/v1/sessions/"+id+"/rounds", nil); status != http.StatusCreated {
		t.Fatalf("start round: %d", status)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var resp game.ResponseWrapper
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if resp.RespType != game.RESP_SNAPSHOT {
		t.Fatalf("want snapshot after round start, got %s", resp.RespType)
	}

	// 错误只回给发送方
	if err := conn.WriteJSON(game.RequestWrapper{ReqType: game.REQ_CONFIRM}); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read error reply: %v", err)
	}
	if resp.RespType != game.RESP_ERROR || resp.ErrMsg == "" {
		t.Fatalf("want error reply, got %+v", resp)
	}

	if err := conn.WriteJSON(game.RequestWrapper{
		ReqType: game.REQ_CONFIRM_REVEAL,
		Data:    json.RawMessage(`{"player_id":1}`),
	}); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if resp.RespType != game.RESP_SNAPSHOT {
		t.Fatalf("want snapshot after reveal, got %s", resp.RespType)
	}
}

func TestWatchSession_UnknownSession(t *testing.T) {
	srv := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws/session?session_id=missing"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatalf("dial to unknown session should fail")
	}

	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("want 404 handshake response, got %+v", resp)
	}
}
