// Package session implements the websocket command protocol: it
// authenticates commands, validates them against the referenced game,
// applies state changes under a per-game lock, persists the result,
// and fans notifications out through the hub.
package session

import (
	"context"
	"errors"

	"github.com/graceteusch/chess/internal/engine"
	"github.com/graceteusch/chess/internal/hub"
	"github.com/graceteusch/chess/internal/msgcat"
	"github.com/graceteusch/chess/internal/obslog"
	"github.com/graceteusch/chess/internal/store"
	"github.com/graceteusch/chess/pkg/wire"
	"go.uber.org/zap"
)

// ResultArchiver receives finished games. *store.Archive satisfies it;
// a nil archiver disables archiving.
type ResultArchiver interface {
	SaveResult(ctx context.Context, rec *store.GameRecord, result, method string) error
}

// Handler dispatches one parsed client command at a time. It holds no
// per-connection state: every command carries its auth token and game
// ID, so the handler is shared by all connections.
type Handler struct {
	hub     *hub.Hub
	auths   store.AuthStore
	games   store.GameStore
	cat     *msgcat.Catalog
	archive ResultArchiver
	locks   *gameLocks
}

func NewHandler(h *hub.Hub, auths store.AuthStore, games store.GameStore, cat *msgcat.Catalog, archive ResultArchiver) *Handler {
	return &Handler{
		hub:     h,
		auths:   auths,
		games:   games,
		cat:     cat,
		archive: archive,
		locks:   newGameLocks(),
	}
}

// HandleMessage processes one raw client message on behalf of conn.
// Failures of any kind are reported to the sender as an ERROR message;
// the connection itself stays open.
func (s *Handler) HandleMessage(ctx context.Context, conn hub.Conn, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			obslog.L().Error("session_panic", zap.Any("panic", r))
			s.sendError(ctx, conn, s.cat.Render("error.malformed", nil))
		}
	}()

	cmd, err := wire.ParseCommand(raw)
	if err != nil {
		obslog.L().Debug("session_bad_command", zap.Error(err))
		s.sendError(ctx, conn, s.cat.Render("error.malformed", nil))
		return
	}

	auth, err := s.auths.GetAuth(ctx, cmd.AuthToken)
	if err != nil {
		obslog.L().Error("session_auth_lookup_error", zap.Error(err))
		s.sendError(ctx, conn, s.cat.Render("error.unauthenticated", nil))
		return
	}
	if auth == nil {
		s.sendError(ctx, conn, s.cat.Render("error.unauthenticated", nil))
		return
	}

	rec, err := s.games.GetGame(ctx, cmd.GameID)
	if err != nil {
		obslog.L().Error("session_game_lookup_error", zap.Int64("game_id", cmd.GameID), zap.Error(err))
		s.sendError(ctx, conn, s.cat.Render("error.game_not_found", nil))
		return
	}
	if rec == nil {
		s.sendError(ctx, conn, s.cat.Render("error.game_not_found", nil))
		return
	}

	switch cmd.Type {
	case wire.CommandConnect:
		s.handleConnect(ctx, conn, auth.Username, rec)
	case wire.CommandMakeMove:
		s.handleMakeMove(ctx, conn, auth.Username, cmd.GameID, *cmd.Move)
	case wire.CommandLeave:
		s.handleLeave(ctx, conn, auth.Username, cmd.GameID)
	case wire.CommandResign:
		s.handleResign(ctx, conn, auth.Username, cmd.GameID)
	}
}

// handleConnect registers the connection as a watcher of the game,
// replies with the full game state, and tells everyone else who
// arrived and in what role.
func (s *Handler) handleConnect(ctx context.Context, conn hub.Conn, username string, rec *store.GameRecord) {
	s.hub.Add(rec.ID, conn)

	if err := s.hub.SendTo(ctx, conn, wire.LoadGame(rec.Game)); err != nil {
		obslog.L().Warn("session_send_error", zap.Int64("game_id", rec.ID), zap.Error(err))
	}

	var text string
	if color, ok := playerColor(rec, username); ok {
		text = s.cat.Render("join.player", map[string]string{"User": username, "Color": string(color)})
	} else {
		text = s.cat.Render("join.observer", map[string]string{"User": username})
	}
	s.hub.Broadcast(ctx, rec.ID, conn, wire.Notification(text))

	obslog.L().Info("session_connect",
		zap.Int64("game_id", rec.ID),
		zap.String("user", username),
		zap.Int("watchers", s.hub.Count(rec.ID)),
	)
}

// handleMakeMove re-reads the game under the per-game lock, walks the
// validation chain, applies the move, persists, and broadcasts. The
// pre-dispatch read is only used to confirm the game exists; all
// decisions here are made against the locked re-read.
func (s *Handler) handleMakeMove(ctx context.Context, conn hub.Conn, username string, gameID int64, mv engine.Move) {
	unlock := s.locks.lock(gameID)
	defer unlock()

	rec, err := s.games.GetGame(ctx, gameID)
	if err != nil || rec == nil {
		s.sendError(ctx, conn, s.cat.Render("error.game_not_found", nil))
		return
	}
	game := rec.Game

	if game.Over() {
		s.sendError(ctx, conn, s.cat.Render("error.game_over", nil))
		return
	}
	moverColor, ok := playerColor(rec, username)
	if !ok || moverColor != game.Turn() {
		s.sendError(ctx, conn, s.cat.Render("error.not_your_turn", nil))
		return
	}
	piece := game.Board().PieceAt(mv.Start)
	if piece == nil {
		s.sendError(ctx, conn, s.cat.Render("error.no_piece", nil))
		return
	}
	if piece.Color != moverColor {
		s.sendError(ctx, conn, s.cat.Render("error.wrong_color", nil))
		return
	}
	if mv.Promotion != "" && piece.Type != engine.Pawn {
		s.sendError(ctx, conn, s.cat.Render("error.promotion_non_pawn", nil))
		return
	}
	if piece.Type == engine.Pawn && mv.End.Row == farRank(piece.Color) && mv.Promotion == "" {
		s.sendError(ctx, conn, s.cat.Render("error.promotion_missing", nil))
		return
	}

	if err := game.MakeMove(mv); err != nil {
		switch {
		case errors.Is(err, engine.ErrGameOver):
			s.sendError(ctx, conn, s.cat.Render("error.game_over", nil))
		case errors.Is(err, engine.ErrWrongTurn):
			s.sendError(ctx, conn, s.cat.Render("error.not_your_turn", nil))
		case errors.Is(err, engine.ErrNoPiece):
			s.sendError(ctx, conn, s.cat.Render("error.no_piece", nil))
		default:
			s.sendError(ctx, conn, s.cat.Render("error.invalid_move", nil))
		}
		return
	}

	if err := s.games.UpdateGame(ctx, rec); err != nil {
		obslog.L().Error("session_persist_error", zap.Int64("game_id", gameID), zap.Error(err))
		s.sendError(ctx, conn, s.cat.Render("error.game_not_found", nil))
		return
	}

	obslog.L().Info("session_move",
		zap.Int64("game_id", gameID),
		zap.String("user", username),
		zap.String("move", mv.String()),
	)

	if err := s.hub.SendTo(ctx, conn, wire.LoadGame(game)); err != nil {
		obslog.L().Warn("session_send_error", zap.Int64("game_id", gameID), zap.Error(err))
	}
	s.hub.Broadcast(ctx, gameID, conn, wire.LoadGame(game))
	s.hub.Broadcast(ctx, gameID, conn, wire.Notification(s.cat.Render("move.made", map[string]string{
		"User": username,
		"From": mv.Start.String(),
		"To":   mv.End.String(),
	})))

	s.announceState(ctx, gameID, rec)
}

// announceState broadcasts checkmate/stalemate/check for the side now
// to move. Terminal states win over a bare check and trigger archival.
func (s *Handler) announceState(ctx context.Context, gameID int64, rec *store.GameRecord) {
	game := rec.Game
	side := game.Turn()
	data := map[string]string{"Color": string(side)}
	switch {
	case game.InCheckmate(side):
		s.hub.Broadcast(ctx, gameID, nil, wire.Notification(s.cat.Render("state.checkmate", data)))
		s.archiveResult(ctx, rec, string(side.Other()), "checkmate")
	case game.InStalemate(side):
		s.hub.Broadcast(ctx, gameID, nil, wire.Notification(s.cat.Render("state.stalemate", data)))
		s.archiveResult(ctx, rec, "draw", "stalemate")
	case game.InCheck(side):
		s.hub.Broadcast(ctx, gameID, nil, wire.Notification(s.cat.Render("state.check", data)))
	}
}

// handleLeave vacates the leaver's color slot (observers own none),
// unregisters the connection, and tells the remaining watchers.
func (s *Handler) handleLeave(ctx context.Context, conn hub.Conn, username string, gameID int64) {
	unlock := s.locks.lock(gameID)
	defer unlock()

	rec, err := s.games.GetGame(ctx, gameID)
	if err != nil || rec == nil {
		s.sendError(ctx, conn, s.cat.Render("error.game_not_found", nil))
		return
	}

	changed := false
	if rec.WhiteUsername == username {
		rec.WhiteUsername = ""
		changed = true
	}
	if rec.BlackUsername == username {
		rec.BlackUsername = ""
		changed = true
	}
	if changed {
		if err := s.games.UpdateGame(ctx, rec); err != nil {
			obslog.L().Error("session_persist_error", zap.Int64("game_id", gameID), zap.Error(err))
		}
	}

	s.hub.Remove(gameID, conn)
	s.hub.Broadcast(ctx, gameID, conn, wire.Notification(s.cat.Render("leave.left", map[string]string{"User": username})))

	obslog.L().Info("session_leave",
		zap.Int64("game_id", gameID),
		zap.String("user", username),
		zap.Bool("vacated_slot", changed),
	)
}

// handleResign ends the game on behalf of a seated player. Observers
// cannot resign, and a finished game cannot be resigned again. The
// notification goes to everyone, the resigner included.
func (s *Handler) handleResign(ctx context.Context, conn hub.Conn, username string, gameID int64) {
	unlock := s.locks.lock(gameID)
	defer unlock()

	rec, err := s.games.GetGame(ctx, gameID)
	if err != nil || rec == nil {
		s.sendError(ctx, conn, s.cat.Render("error.game_not_found", nil))
		return
	}

	color, seated := playerColor(rec, username)
	if !seated {
		s.sendError(ctx, conn, s.cat.Render("error.observer_resign", nil))
		return
	}
	if rec.Game.Over() {
		s.sendError(ctx, conn, s.cat.Render("error.game_over", nil))
		return
	}

	rec.Game.Resign()
	if err := s.games.UpdateGame(ctx, rec); err != nil {
		obslog.L().Error("session_persist_error", zap.Int64("game_id", gameID), zap.Error(err))
		s.sendError(ctx, conn, s.cat.Render("error.game_not_found", nil))
		return
	}

	s.hub.Broadcast(ctx, gameID, nil, wire.Notification(s.cat.Render("resign.resigned", map[string]string{"User": username})))
	s.archiveResult(ctx, rec, string(color.Other()), "resignation")

	obslog.L().Info("session_resign",
		zap.Int64("game_id", gameID),
		zap.String("user", username),
		zap.String("color", string(color)),
	)
}

func (s *Handler) archiveResult(ctx context.Context, rec *store.GameRecord, result, method string) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveResult(ctx, rec, result, method); err != nil {
		obslog.L().Error("session_archive_error",
			zap.Int64("game_id", rec.ID),
			zap.String("method", method),
			zap.Error(err),
		)
	}
}

func (s *Handler) sendError(ctx context.Context, conn hub.Conn, text string) {
	if err := s.hub.SendTo(ctx, conn, wire.Error(text)); err != nil {
		obslog.L().Debug("session_error_send_failed", zap.Error(err))
	}
}

// playerColor reports which color slot username occupies, if any.
func playerColor(rec *store.GameRecord, username string) (engine.Color, bool) {
	switch {
	case username != "" && rec.WhiteUsername == username:
		return engine.White, true
	case username != "" && rec.BlackUsername == username:
		return engine.Black, true
	default:
		return "", false
	}
}

func farRank(c engine.Color) int {
	if c == engine.White {
		return 8
	}
	return 1
}
