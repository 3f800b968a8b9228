package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Archive persists finished games to Postgres for history queries.
// It sits beside the live stores: the Redis/memory record stays the
// source of truth while a game runs, and the archive row is upserted
// once the game ends.
type Archive struct {
	db *sql.DB
}

func NewArchive(databaseURL string) (*Archive, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// SaveResult upserts a finished game. Result is "white", "black", or
// "draw"; method names how the game ended ("checkmate", "stalemate",
// "resignation").
func (a *Archive) SaveResult(ctx context.Context, rec *GameRecord, result, method string) error {
	if a == nil || a.db == nil || rec == nil {
		return nil
	}

	var stateRaw []byte
	if rec.Game != nil {
		var err error
		stateRaw, err = json.Marshal(rec.Game)
		if err != nil {
			return err
		}
	}

	q := `INSERT INTO finished_games (
	    game_id, name, white_username, black_username,
	    result, result_method, final_state, ended_at
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8
	  ) ON CONFLICT (game_id) DO UPDATE SET
	    name=EXCLUDED.name,
	    white_username=EXCLUDED.white_username,
	    black_username=EXCLUDED.black_username,
	    result=EXCLUDED.result,
	    result_method=EXCLUDED.result_method,
	    final_state=EXCLUDED.final_state,
	    ended_at=EXCLUDED.ended_at`

	_, err := a.db.ExecContext(ctx, q,
		rec.ID, rec.Name,
		rec.WhiteUsername, rec.BlackUsername,
		strings.TrimSpace(result), strings.TrimSpace(method),
		string(stateRaw), time.Now().UTC(),
	)
	return err
}
