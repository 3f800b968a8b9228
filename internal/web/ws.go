package web

import (
	"context"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/graceteusch/chess/internal/obslog"
)

// wsConn adapts an accepted websocket to the hub's Conn interface. The
// open flag flips when the read loop exits so broadcasts stop targeting
// dead connections without needing hub bookkeeping on abrupt drops.
type wsConn struct {
	conn *websocket.Conn
	open atomic.Bool
}

func newWSConn(conn *websocket.Conn) *wsConn {
	c := &wsConn{conn: conn}
	c.open.Store(true)
	return c
}

func (c *wsConn) Send(ctx context.Context, payload []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, payload)
}

func (c *wsConn) IsOpen() bool { return c.open.Load() }

func (c *wsConn) markClosed() { c.open.Store(false) }

// serveWS upgrades the request and pumps client messages into the
// session handler until the peer goes away. All authentication happens
// per command, so the upgrade itself is unauthenticated.
func (h *handlers) serveWS(w http.ResponseWriter, r *http.Request) {
	sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.Error(err))
		return
	}

	conn := newWSConn(sock)
	defer func() {
		conn.markClosed()
		_ = sock.Close(websocket.StatusNormalClosure, "bye")
	}()

	obslog.L().Debug("ws_connected", zap.String("remote", r.RemoteAddr))

	ctx := r.Context()
	for {
		typ, data, err := sock.Read(ctx)
		if err != nil {
			obslog.L().Debug("ws_closed", zap.String("remote", r.RemoteAddr), zap.Error(err))
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		h.deps.Session.HandleMessage(ctx, conn, data)
	}
}
