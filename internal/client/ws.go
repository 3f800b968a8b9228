package client

import (
	"context"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/graceteusch/chess/internal/engine"
	"github.com/graceteusch/chess/pkg/wire"
)

// SocketState tracks the websocket lifecycle for observers.
type SocketState string

const (
	SocketDisconnected SocketState = "disconnected"
	SocketConnecting   SocketState = "connecting"
	SocketConnected    SocketState = "connected"
	SocketReconnecting SocketState = "reconnecting"
	SocketFailed       SocketState = "failed"
)

// MessageCallback receives every server message, in arrival order.
type MessageCallback func(*wire.ServerMessage)

// StateCallback observes socket state transitions.
type StateCallback func(SocketState)

// GameSocket maintains one websocket to the game server, redelivering
// incoming server messages to registered callbacks and transparently
// reconnecting after transport failures.
type GameSocket struct {
	wsURL     string
	authToken string

	conn   *websocket.Conn
	state  SocketState
	stateM sync.RWMutex

	msgCbs   []MessageCallback
	stateCbs []StateCallback
	cbM      sync.RWMutex

	maxReconnectAttempts int
	pingInterval         time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

func NewGameSocket(wsURL, authToken string, maxReconnectAttempts int) *GameSocket {
	return &GameSocket{
		wsURL:                wsURL,
		authToken:            authToken,
		state:                SocketDisconnected,
		maxReconnectAttempts: maxReconnectAttempts,
		pingInterval:         30 * time.Second,
		stopCh:               make(chan struct{}),
	}
}

func (gs *GameSocket) Connect(ctx context.Context) error {
	gs.stateM.Lock()
	if gs.state == SocketConnected || gs.state == SocketConnecting {
		gs.stateM.Unlock()
		return nil
	}
	gs.stateM.Unlock()

	gs.rootCtx, gs.rootCancel = context.WithCancel(context.Background())
	gs.setState(SocketConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(dialCtx, gs.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		gs.setState(SocketFailed)
		gs.scheduleReconnect()
		return err
	}

	gs.conn = conn
	gs.setState(SocketConnected)

	gs.wg.Add(2)
	go gs.listen()
	go gs.pingLoop()
	return nil
}

// JoinGame registers this socket as a watcher of gameID; the server
// answers with a LOAD_GAME message.
func (gs *GameSocket) JoinGame(ctx context.Context, gameID int64) error {
	return gs.send(ctx, wire.Command{Type: wire.CommandConnect, AuthToken: gs.authToken, GameID: gameID})
}

func (gs *GameSocket) MakeMove(ctx context.Context, gameID int64, mv engine.Move) error {
	return gs.send(ctx, wire.Command{Type: wire.CommandMakeMove, AuthToken: gs.authToken, GameID: gameID, Move: &mv})
}

func (gs *GameSocket) Leave(ctx context.Context, gameID int64) error {
	return gs.send(ctx, wire.Command{Type: wire.CommandLeave, AuthToken: gs.authToken, GameID: gameID})
}

func (gs *GameSocket) Resign(ctx context.Context, gameID int64) error {
	return gs.send(ctx, wire.Command{Type: wire.CommandResign, AuthToken: gs.authToken, GameID: gameID})
}

func (gs *GameSocket) send(ctx context.Context, cmd wire.Command) error {
	gs.stateM.RLock()
	conn := gs.conn
	gs.stateM.RUnlock()
	if conn == nil {
		return context.Canceled
	}
	return wsjson.Write(ctx, conn, cmd)
}

func (gs *GameSocket) listen() {
	defer gs.wg.Done()
	for {
		select {
		case <-gs.stopCh:
			return
		default:
		}

		if gs.conn == nil {
			return
		}
		var msg wire.ServerMessage
		if err := wsjson.Read(gs.rootCtx, gs.conn, &msg); err != nil {
			if gs.isStopping() {
				return
			}
			gs.setState(SocketDisconnected)
			_ = gs.closeConn(websocket.StatusGoingAway, "reconnect")
			gs.scheduleReconnect()
			return
		}

		gs.cbM.RLock()
		callbacks := make([]MessageCallback, len(gs.msgCbs))
		copy(callbacks, gs.msgCbs)
		gs.cbM.RUnlock()
		for _, cb := range callbacks {
			if cb != nil {
				cb(&msg)
			}
		}
	}
}

func (gs *GameSocket) pingLoop() {
	defer gs.wg.Done()
	t := time.NewTicker(gs.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-gs.stopCh:
			return
		case <-t.C:
			if gs.conn == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(gs.rootCtx, 3*time.Second)
			err := gs.conn.Ping(ctx)
			cancel()
			if err != nil {
				failures++
				if failures >= 2 {
					if gs.isStopping() {
						return
					}
					gs.setState(SocketDisconnected)
					_ = gs.closeConn(websocket.StatusGoingAway, "ping failure")
					gs.scheduleReconnect()
					failures = 0
				}
				continue
			}
			failures = 0
		}
	}
}

func (gs *GameSocket) scheduleReconnect() {
	if gs.maxReconnectAttempts <= 0 {
		return
	}
	gs.setState(SocketReconnecting)

	go func() {
		for attempt := 1; attempt <= gs.maxReconnectAttempts; attempt++ {
			select {
			case <-gs.stopCh:
				return
			case <-time.After(backoffDuration(attempt)):
			}

			dialCtx, cancel := context.WithTimeout(gs.rootCtx, 10*time.Second)
			conn, _, err := websocket.Dial(dialCtx, gs.wsURL, &websocket.DialOptions{
				CompressionMode: websocket.CompressionNoContextTakeover,
			})
			cancel()
			if err != nil {
				continue
			}

			gs.conn = conn
			gs.setState(SocketConnected)

			gs.wg.Add(2)
			go gs.listen()
			go gs.pingLoop()
			return
		}
		gs.setState(SocketFailed)
	}()
}

func (gs *GameSocket) OnMessage(cb MessageCallback) {
	gs.cbM.Lock()
	gs.msgCbs = append(gs.msgCbs, cb)
	gs.cbM.Unlock()
}

func (gs *GameSocket) OnStateChange(cb StateCallback) {
	gs.cbM.Lock()
	gs.stateCbs = append(gs.stateCbs, cb)
	gs.cbM.Unlock()
}

func (gs *GameSocket) State() SocketState {
	gs.stateM.RLock()
	defer gs.stateM.RUnlock()
	return gs.state
}

func (gs *GameSocket) setState(state SocketState) {
	gs.stateM.Lock()
	gs.state = state
	gs.stateM.Unlock()

	gs.cbM.RLock()
	callbacks := make([]StateCallback, len(gs.stateCbs))
	copy(callbacks, gs.stateCbs)
	gs.cbM.RUnlock()
	for _, cb := range callbacks {
		if cb != nil {
			cb(state)
		}
	}
}

func (gs *GameSocket) Close(ctx context.Context) error {
	gs.stopOnce.Do(func() { close(gs.stopCh) })
	_ = gs.closeConn(websocket.StatusNormalClosure, "close")

	done := make(chan struct{})
	go func() {
		gs.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		if gs.rootCancel != nil {
			gs.rootCancel()
		}
		return nil
	}
}

func (gs *GameSocket) closeConn(code websocket.StatusCode, reason string) error {
	if gs.conn == nil {
		return nil
	}
	defer func() { gs.conn = nil }()
	return gs.conn.Close(code, reason)
}

func (gs *GameSocket) isStopping() bool {
	select {
	case <-gs.stopCh:
		return true
	default:
		return false
	}
}
