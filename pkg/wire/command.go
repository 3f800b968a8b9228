// Package wire defines the websocket protocol DTOs exchanged between
// clients and the game server. Payloads are JSON; the engine types are
// referenced directly so a serialized game round-trips board contents,
// turn, and the game-over flag.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/graceteusch/chess/internal/engine"
)

// CommandType enumerates the client-to-server command kinds.
type CommandType string

const (
	CommandConnect  CommandType = "CONNECT"
	CommandMakeMove CommandType = "MAKE_MOVE"
	CommandLeave    CommandType = "LEAVE"
	CommandResign   CommandType = "RESIGN"
)

// Command is a client-to-server message. Move is present only for
// MAKE_MOVE.
type Command struct {
	Type      CommandType  `json:"type"`
	AuthToken string       `json:"authToken"`
	GameID    int64        `json:"gameID"`
	Move      *engine.Move `json:"move,omitempty"`
}

// ParseCommand decodes and structurally validates a raw client message.
func ParseCommand(raw []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	switch cmd.Type {
	case CommandConnect, CommandLeave, CommandResign:
	case CommandMakeMove:
		if cmd.Move == nil {
			return nil, fmt.Errorf("MAKE_MOVE requires a move")
		}
		if !cmd.Move.Start.OnBoard() || !cmd.Move.End.OnBoard() {
			return nil, fmt.Errorf("move squares must be within 1..8")
		}
		switch cmd.Move.Promotion {
		case "", engine.Queen, engine.Rook, engine.Bishop, engine.Knight:
		default:
			return nil, fmt.Errorf("invalid promotion piece %q", cmd.Move.Promotion)
		}
	default:
		return nil, fmt.Errorf("unknown command type %q", cmd.Type)
	}
	if cmd.AuthToken == "" {
		return nil, fmt.Errorf("missing auth token")
	}
	return &cmd, nil
}
