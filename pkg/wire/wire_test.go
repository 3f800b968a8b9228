package wire

import (
	"encoding/json"
	"testing"

	"github.com/graceteusch/chess/internal/engine"
)

func TestParseCommandMakeMove(t *testing.T) {
	raw := []byte(`{"type":"MAKE_MOVE","authToken":"tok","gameID":7,"move":{"start":{"row":2,"col":5},"end":{"row":4,"col":5}}}`)
	cmd, err := ParseCommand(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Type != CommandMakeMove || cmd.GameID != 7 || cmd.AuthToken != "tok" {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if cmd.Move.Start != (engine.Position{Row: 2, Col: 5}) {
		t.Fatalf("unexpected move start: %+v", cmd.Move.Start)
	}
}

func TestParseCommandRejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"garbage", `{{`},
		{"unknown type", `{"type":"DANCE","authToken":"tok","gameID":1}`},
		{"missing token", `{"type":"CONNECT","gameID":1}`},
		{"move without payload", `{"type":"MAKE_MOVE","authToken":"tok","gameID":1}`},
		{"off-board move", `{"type":"MAKE_MOVE","authToken":"tok","gameID":1,"move":{"start":{"row":0,"col":5},"end":{"row":4,"col":5}}}`},
		{"king promotion", `{"type":"MAKE_MOVE","authToken":"tok","gameID":1,"move":{"start":{"row":7,"col":1},"end":{"row":8,"col":1},"promotion":"KING"}}`},
	}
	for _, tc := range cases {
		if _, err := ParseCommand([]byte(tc.raw)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestServerMessageGameRoundTrip(t *testing.T) {
	g := engine.NewGame()
	raw, err := json.Marshal(LoadGame(g))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back ServerMessage
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Type != MessageLoadGame || back.Game == nil {
		t.Fatalf("unexpected message: %+v", back)
	}
	if !back.Game.Board().Equal(g.Board()) || back.Game.Turn() != g.Turn() {
		t.Fatalf("game state lost on the wire")
	}
}
