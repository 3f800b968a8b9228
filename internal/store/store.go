// Package store defines the persistence contracts the game server
// relies on: auth tokens, user credentials, and the per-game state
// blob. Implementations exist for Redis (production) and memory
// (development and tests); finished games are additionally archived to
// Postgres.
package store

import (
	"context"
	"errors"

	"github.com/graceteusch/chess/internal/engine"
)

var (
	ErrDuplicateUser = errors.New("username already taken")
	ErrUserNotFound  = errors.New("user not found")
)

// AuthRecord binds an opaque token to the username it authenticates.
type AuthRecord struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// UserRecord holds a registered user. The digest is a sha256 hex of
// the password; stronger KDFs live outside this subsystem.
type UserRecord struct {
	Username       string `json:"username"`
	PasswordDigest string `json:"passwordDigest"`
}

// GameRecord is the persisted state of one match: the identifier, a
// display name, the claimed color slots (empty string = vacant), and
// the serialized game.
type GameRecord struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	WhiteUsername string       `json:"whiteUsername,omitempty"`
	BlackUsername string       `json:"blackUsername,omitempty"`
	Game          *engine.Game `json:"game"`
}

// AuthStore maps tokens to authenticated usernames. Get returns
// (nil, nil) for unknown tokens.
type AuthStore interface {
	CreateAuth(ctx context.Context, token, username string) error
	GetAuth(ctx context.Context, token string) (*AuthRecord, error)
	DeleteAuth(ctx context.Context, token string) error
}

// UserStore persists registered users. Get returns (nil, nil) for
// unknown usernames.
type UserStore interface {
	CreateUser(ctx context.Context, user *UserRecord) error
	GetUser(ctx context.Context, username string) (*UserRecord, error)
}

// GameStore persists game records as whole blobs. Get returns
// (nil, nil) for unknown IDs; Update overwrites the stored record
// wholesale. Callers that read-modify-write serialize per game ID (see
// internal/session).
type GameStore interface {
	CreateGame(ctx context.Context, name string, game *engine.Game) (*GameRecord, error)
	GetGame(ctx context.Context, id int64) (*GameRecord, error)
	ListGames(ctx context.Context, limit int) ([]*GameRecord, error)
	UpdateGame(ctx context.Context, rec *GameRecord) error
}
