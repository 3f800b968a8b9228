package web

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/graceteusch/chess/internal/engine"
	"github.com/graceteusch/chess/internal/obslog"
	"github.com/graceteusch/chess/internal/render"
	"github.com/graceteusch/chess/internal/store"
)

type handlers struct {
	deps Deps
}

type errorResponse struct {
	Message string `json:"message"`
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Username  string `json:"username"`
	AuthToken string `json:"authToken"`
}

type createGameRequest struct {
	GameName string `json:"gameName"`
}

type createGameResponse struct {
	GameID int64 `json:"gameID"`
}

type joinGameRequest struct {
	GameID      int64  `json:"gameID"`
	PlayerColor string `json:"playerColor"`
}

type listGamesResponse struct {
	Games []*store.GameRecord `json:"games"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Message: msg})
}

func passwordDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// authUser resolves the Authorization header to a username, or writes
// a 401 and returns false.
func (h *handlers) authUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing auth token")
		return "", false
	}
	rec, err := h.deps.Auths.GetAuth(r.Context(), token)
	if err != nil {
		obslog.L().Error("http_auth_lookup_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "auth lookup failed")
		return "", false
	}
	if rec == nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired auth token")
		return "", false
	}
	return rec.Username, true
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user := &store.UserRecord{Username: req.Username, PasswordDigest: passwordDigest(req.Password)}
	if err := h.deps.Users.CreateUser(r.Context(), user); err != nil {
		if err == store.ErrDuplicateUser {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		obslog.L().Error("http_register_error", zap.String("user", req.Username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	token, err := h.issueToken(r, req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "registration failed")
		return
	}
	obslog.L().Info("http_user_registered", zap.String("user", req.Username))
	writeJSON(w, http.StatusOK, sessionResponse{Username: req.Username, AuthToken: token})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	user, err := h.deps.Users.GetUser(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		obslog.L().Error("http_login_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil || subtle.ConstantTimeCompare([]byte(user.PasswordDigest), []byte(passwordDigest(req.Password))) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := h.issueToken(r, user.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Username: user.Username, AuthToken: token})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if _, ok := h.authUser(w, r); !ok {
		return
	}
	if err := h.deps.Auths.DeleteAuth(r.Context(), token); err != nil {
		obslog.L().Error("http_logout_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "logout failed")
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *handlers) issueToken(r *http.Request, username string) (string, error) {
	token := uuid.NewString()
	if err := h.deps.Auths.CreateAuth(r.Context(), token, username); err != nil {
		obslog.L().Error("http_token_issue_error", zap.String("user", username), zap.Error(err))
		return "", err
	}
	return token, nil
}

func (h *handlers) listGames(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authUser(w, r); !ok {
		return
	}
	games, err := h.deps.Games.ListGames(r.Context(), h.deps.MaxGamesListed)
	if err != nil {
		obslog.L().Error("http_list_games_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "listing games failed")
		return
	}
	writeJSON(w, http.StatusOK, listGamesResponse{Games: games})
}

func (h *handlers) createGame(w http.ResponseWriter, r *http.Request) {
	username, ok := h.authUser(w, r)
	if !ok {
		return
	}
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	req.GameName = strings.TrimSpace(req.GameName)
	if req.GameName == "" {
		writeError(w, http.StatusBadRequest, "gameName is required")
		return
	}
	rec, err := h.deps.Games.CreateGame(r.Context(), req.GameName, engine.NewGame())
	if err != nil {
		obslog.L().Error("http_create_game_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "creating game failed")
		return
	}
	obslog.L().Info("http_game_created",
		zap.Int64("game_id", rec.ID),
		zap.String("user", username),
		zap.String("name", req.GameName),
	)
	writeJSON(w, http.StatusOK, createGameResponse{GameID: rec.ID})
}

func (h *handlers) joinGame(w http.ResponseWriter, r *http.Request) {
	username, ok := h.authUser(w, r)
	if !ok {
		return
	}
	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	rec, err := h.deps.Games.GetGame(r.Context(), req.GameID)
	if err != nil {
		obslog.L().Error("http_join_game_error", zap.Int64("game_id", req.GameID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "joining game failed")
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}

	switch strings.ToUpper(strings.TrimSpace(req.PlayerColor)) {
	case "WHITE":
		if rec.WhiteUsername != "" && rec.WhiteUsername != username {
			writeError(w, http.StatusForbidden, "white is already taken")
			return
		}
		rec.WhiteUsername = username
	case "BLACK":
		if rec.BlackUsername != "" && rec.BlackUsername != username {
			writeError(w, http.StatusForbidden, "black is already taken")
			return
		}
		rec.BlackUsername = username
	default:
		writeError(w, http.StatusBadRequest, "playerColor must be WHITE or BLACK")
		return
	}

	if err := h.deps.Games.UpdateGame(r.Context(), rec); err != nil {
		obslog.L().Error("http_join_game_error", zap.Int64("game_id", req.GameID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "joining game failed")
		return
	}
	obslog.L().Info("http_seat_claimed",
		zap.Int64("game_id", rec.ID),
		zap.String("user", username),
		zap.String("color", strings.ToUpper(strings.TrimSpace(req.PlayerColor))),
	)
	writeJSON(w, http.StatusOK, rec)
}

func (h *handlers) boardImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	rec, err := h.deps.Games.GetGame(r.Context(), id)
	if err != nil {
		obslog.L().Error("http_board_image_error", zap.Int64("game_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "loading game failed")
		return
	}
	if rec == nil || rec.Game == nil {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	data, err := h.deps.Renderer.RenderPNG(r.Context(), rec.Game.Board(), render.RenderOptions{})
	if err != nil {
		obslog.L().Error("http_board_image_error", zap.Int64("game_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "rendering board failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
