package web

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/graceteusch/chess/internal/engine"
	"github.com/graceteusch/chess/internal/hub"
	"github.com/graceteusch/chess/internal/msgcat"
	"github.com/graceteusch/chess/internal/render"
	"github.com/graceteusch/chess/internal/session"
	"github.com/graceteusch/chess/internal/store"
	"github.com/graceteusch/chess/pkg/wire"
)

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	h := hub.New()
	deps := Deps{
		Auths:          mem,
		Users:          mem,
		Games:          mem,
		Hub:            h,
		Session:        session.NewHandler(h, mem, mem, cat, nil),
		Renderer:       render.NewSVGBoardRenderer(),
		MaxGamesListed: 100,
	}
	srv := httptest.NewServer(NewServer(deps))
	t.Cleanup(srv.Close)
	return srv, mem
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func registerUser(t *testing.T, srv *httptest.Server, username string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/user", "", credentialsRequest{Username: username, Password: "hunter2"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register %s: status %d", username, resp.StatusCode)
	}
	sess := decode[sessionResponse](t, resp)
	if sess.AuthToken == "" {
		t.Fatalf("register %s: empty token", username)
	}
	return sess.AuthToken
}

func TestRegisterLoginLogout(t *testing.T) {
	srv, _ := newTestServer(t)

	token := registerUser(t, srv, "alice")

	// duplicate registration
	resp := doJSON(t, http.MethodPost, srv.URL+"/user", "", credentialsRequest{Username: "alice", Password: "other"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate register status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// login with the right and wrong password
	resp = doJSON(t, http.MethodPost, srv.URL+"/session", "", credentialsRequest{Username: "alice", Password: "hunter2"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	sess := decode[sessionResponse](t, resp)
	if sess.Username != "alice" || sess.AuthToken == "" {
		t.Fatalf("login response = %+v", sess)
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/session", "", credentialsRequest{Username: "alice", Password: "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad password status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	// logout invalidates the token
	resp = doJSON(t, http.MethodDelete, srv.URL+"/session", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d", resp.StatusCode)
	}
	resp.Body.Close()
	resp = doJSON(t, http.MethodGet, srv.URL+"/game", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("stale token status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestGameLifecycleOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := registerUser(t, srv, "alice")
	bob := registerUser(t, srv, "bob")

	// unauthenticated create is rejected
	resp := doJSON(t, http.MethodPost, srv.URL+"/game", "", createGameRequest{GameName: "nope"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/game", alice, createGameRequest{GameName: "friday night"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	created := decode[createGameResponse](t, resp)
	if created.GameID == 0 {
		t.Fatal("create returned zero game ID")
	}

	// claim both colors
	resp = doJSON(t, http.MethodPut, srv.URL+"/game", alice, joinGameRequest{GameID: created.GameID, PlayerColor: "WHITE"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("white claim status = %d", resp.StatusCode)
	}
	resp.Body.Close()
	resp = doJSON(t, http.MethodPut, srv.URL+"/game", bob, joinGameRequest{GameID: created.GameID, PlayerColor: "white"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("stealing white status = %d", resp.StatusCode)
	}
	resp.Body.Close()
	resp = doJSON(t, http.MethodPut, srv.URL+"/game", bob, joinGameRequest{GameID: created.GameID, PlayerColor: "BLACK"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("black claim status = %d", resp.StatusCode)
	}
	rec := decode[store.GameRecord](t, resp)
	if rec.WhiteUsername != "alice" || rec.BlackUsername != "bob" {
		t.Fatalf("seats = %q/%q", rec.WhiteUsername, rec.BlackUsername)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/game", alice, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	list := decode[listGamesResponse](t, resp)
	if len(list.Games) != 1 || list.Games[0].Name != "friday night" {
		t.Fatalf("list = %+v", list.Games)
	}

	// unknown game and bad color
	resp = doJSON(t, http.MethodPut, srv.URL+"/game", alice, joinGameRequest{GameID: 999, PlayerColor: "WHITE"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown game status = %d", resp.StatusCode)
	}
	resp.Body.Close()
	resp = doJSON(t, http.MethodPut, srv.URL+"/game", alice, joinGameRequest{GameID: created.GameID, PlayerColor: "GREEN"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad color status = %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestBoardImageEndpoint(t *testing.T) {
	srv, mem := newTestServer(t)
	rec, err := mem.CreateGame(context.Background(), "img", engine.NewGame())
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	resp, err := http.Get(srv.URL + "/game/" + strconv.FormatInt(rec.ID, 10) + "/board.png")
	if err != nil {
		t.Fatalf("GET board.png: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	if _, err := png.Decode(resp.Body); err != nil {
		t.Fatalf("response is not a PNG: %v", err)
	}

	resp2, err := http.Get(srv.URL + "/game/999/board.png")
	if err != nil {
		t.Fatalf("GET missing board: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Fatalf("missing game status = %d", resp2.StatusCode)
	}
}

func TestWebsocketConnectFlow(t *testing.T) {
	srv, mem := newTestServer(t)
	token := registerUser(t, srv, "alice")
	rec, err := mem.CreateGame(context.Background(), "live", engine.NewGame())
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	sock, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer sock.Close(websocket.StatusNormalClosure, "done")

	cmd, _ := json.Marshal(wire.Command{Type: wire.CommandConnect, AuthToken: token, GameID: rec.ID})
	if err := sock.Write(ctx, websocket.MessageText, cmd); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, data, err := sock.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg wire.ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != wire.MessageLoadGame || msg.Game == nil {
		t.Fatalf("first message = %+v, want LOAD_GAME", msg)
	}
	if msg.Game.Turn() != engine.White {
		t.Fatalf("loaded game turn = %s", msg.Game.Turn())
	}
}
