// Package web exposes the HTTP surface: user registration, login
// sessions, game creation and seat claiming, board snapshots as PNG,
// and the websocket endpoint the live protocol runs over.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/graceteusch/chess/internal/hub"
	"github.com/graceteusch/chess/internal/render"
	"github.com/graceteusch/chess/internal/session"
	"github.com/graceteusch/chess/internal/store"
)

// Deps collects everything the HTTP layer needs.
type Deps struct {
	Auths    store.AuthStore
	Users    store.UserStore
	Games    store.GameStore
	Hub      *hub.Hub
	Session  *session.Handler
	Renderer render.BoardRenderer

	// MaxGamesListed caps GET /game responses; zero means unlimited.
	MaxGamesListed int
}

// NewServer wires routes and returns an http.Handler.
func NewServer(deps Deps) http.Handler {
	r := chi.NewRouter()
	h := &handlers{deps: deps}
	r.Post("/user", h.register)
	r.Post("/session", h.login)
	r.Delete("/session", h.logout)
	r.Route("/game", func(r chi.Router) {
		r.Get("/", h.listGames)
		r.Post("/", h.createGame)
		r.Put("/", h.joinGame)
		r.Get("/{id}/board.png", h.boardImage)
	})
	r.Get("/ws", h.serveWS)
	return r
}
