package session

import "sync"

// gameLocks hands out one mutex per game ID so read-validate-apply-
// persist cycles on the same game serialize while different games
// proceed in parallel. Entries are never reaped; the map is bounded by
// the number of games seen by this process.
type gameLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newGameLocks() *gameLocks {
	return &gameLocks{locks: make(map[int64]*sync.Mutex)}
}

func (g *gameLocks) lock(gameID int64) func() {
	g.mu.Lock()
	m, ok := g.locks[gameID]
	if !ok {
		m = &sync.Mutex{}
		g.locks[gameID] = m
	}
	g.mu.Unlock()

	m.Lock()
	return m.Unlock
}
