package tournament

import "sync"

// teamLocks serializes mutation-plus-recompute per team. Two concurrent
// writers for the same team could otherwise both read the pre-mutation record
// set and the later one would write a stale aggregate over the fresh one.
// Reads take no lock: recompute happens inside the mutating transaction, so
// readers only ever see settled totals.
type teamLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newTeamLocks() *teamLocks {
	return &teamLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire returns the mutex for a team, creating it on first use. The caller
// locks it for the duration of the mutation and its recompute.
func (l *teamLocks) acquire(teamID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[teamID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[teamID] = m
	}
	return m
}
