package wire

import "github.com/graceteusch/chess/internal/engine"

// MessageType enumerates the server-to-client message kinds.
type MessageType string

const (
	MessageLoadGame     MessageType = "LOAD_GAME"
	MessageNotification MessageType = "NOTIFICATION"
	MessageError        MessageType = "ERROR"
)

// ServerMessage is a server-to-client message. Exactly one of Game and
// Message is populated, depending on the type.
type ServerMessage struct {
	Type    MessageType  `json:"serverMessageType"`
	Game    *engine.Game `json:"game,omitempty"`
	Message string       `json:"message,omitempty"`
}

// LoadGame wraps the full serialized game state.
func LoadGame(game *engine.Game) ServerMessage {
	return ServerMessage{Type: MessageLoadGame, Game: game}
}

// Notification wraps an informational broadcast text.
func Notification(text string) ServerMessage {
	return ServerMessage{Type: MessageNotification, Message: text}
}

// Error wraps an error text delivered to a single connection.
func Error(text string) ServerMessage {
	return ServerMessage{Type: MessageError, Message: text}
}
