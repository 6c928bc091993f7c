package recipe

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/repository"
)

// counter is the global craft count of one (world, recipe) pair. Its mutex
// makes check-then-increment a single step.
type counter struct {
	mu sync.Mutex
	n  int
	// set once the counter is dropped from the ledger; writers that still
	// hold it must fetch a fresh one
	removed bool
}

type playerStat struct {
	count int
	ever  bool
}

// Ledger tracks global craft counts per (world, recipe) and informational
// per-player counts. Only the world counts are used to enforce limits.
//
// Lock order: Ledger.mu, then counter.mu, then playersMu and dirtyMu.
type Ledger struct {
	mu     sync.RWMutex
	worlds map[string]map[string]*counter

	playersMu sync.Mutex
	players   map[uuid.UUID]map[string]*playerStat

	dirtyMu sync.Mutex
	dirty   map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		worlds:  make(map[string]map[string]*counter),
		players: make(map[uuid.UUID]map[string]*playerStat),
		dirty:   make(map[string]struct{}),
	}
}

// lookup returns the counter or nil; reads never create counters
func (l *Ledger) lookup(world, recipeID string) *counter {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.worlds[world][recipeID]
}

func (l *Ledger) getOrCreate(world, recipeID string) *counter {
	if c := l.lookup(world, recipeID); c != nil {
		return c
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	byRecipe, ok := l.worlds[world]
	if !ok {
		byRecipe = make(map[string]*counter)
		l.worlds[world] = byRecipe
	}
	c, ok := byRecipe[recipeID]
	if !ok {
		c = &counter{}
		byRecipe[recipeID] = c
	}
	return c
}

// GlobalCount returns the crafts of recipeID made in world so far
func (l *Ledger) GlobalCount(world, recipeID string) int {
	c := l.lookup(world, recipeID)
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// CanCraft reports whether policy allows one more craft in world
func (l *Ledger) CanCraft(world, recipeID string, policy domain.LimitPolicy) bool {
	if policy.IsUnlimited() {
		return true
	}
	return policy.Allows(l.GlobalCount(world, recipeID))
}

// Remaining returns the crafts left in world, -1 when unlimited
func (l *Ledger) Remaining(world, recipeID string, policy domain.LimitPolicy) int {
	if policy.IsUnlimited() {
		return UnlimitedCrafts
	}
	return policy.Remaining(l.GlobalCount(world, recipeID))
}

// RecordCraft checks the limit and counts the craft in one step. It
// returns whether the craft was accepted and the world count afterwards.
// A rejected craft changes nothing.
func (l *Ledger) RecordCraft(world, recipeID string, player uuid.UUID, policy domain.LimitPolicy) (bool, int) {
	for {
		c := l.getOrCreate(world, recipeID)
		c.mu.Lock()
		if c.removed {
			// lost a race with CleanupWorld or PruneRecipe
			c.mu.Unlock()
			continue
		}
		if !policy.Allows(c.n) {
			n := c.n
			c.mu.Unlock()
			return false, n
		}
		c.n++
		n := c.n
		l.recordPlayer(player, recipeID)
		l.markDirty(world)
		c.mu.Unlock()
		return true, n
	}
}

func (l *Ledger) recordPlayer(player uuid.UUID, recipeID string) {
	l.playersMu.Lock()
	defer l.playersMu.Unlock()
	stats, ok := l.players[player]
	if !ok {
		stats = make(map[string]*playerStat)
		l.players[player] = stats
	}
	st, ok := stats[recipeID]
	if !ok {
		st = &playerStat{}
		stats[recipeID] = st
	}
	st.count++
	st.ever = true
}

func (l *Ledger) PlayerCount(player uuid.UUID, recipeID string) int {
	l.playersMu.Lock()
	defer l.playersMu.Unlock()
	if st, ok := l.players[player][recipeID]; ok {
		return st.count
	}
	return 0
}

func (l *Ledger) HasEverCrafted(player uuid.UUID, recipeID string) bool {
	l.playersMu.Lock()
	defer l.playersMu.Unlock()
	if st, ok := l.players[player][recipeID]; ok {
		return st.ever
	}
	return false
}

// CleanupWorld drops every counter of world and returns how many there were
func (l *Ledger) CleanupWorld(world string) int {
	l.mu.Lock()
	byRecipe := l.worlds[world]
	delete(l.worlds, world)
	l.mu.Unlock()

	for _, c := range byRecipe {
		c.mu.Lock()
		c.removed = true
		c.mu.Unlock()
	}

	l.dirtyMu.Lock()
	delete(l.dirty, world)
	l.dirtyMu.Unlock()
	return len(byRecipe)
}

// CleanupPlayer drops the per-player stats of player
func (l *Ledger) CleanupPlayer(player uuid.UUID) int {
	l.playersMu.Lock()
	defer l.playersMu.Unlock()
	n := len(l.players[player])
	delete(l.players, player)
	return n
}

// PruneRecipe drops every counter and player stat of a recipe that no
// longer exists. It returns the worlds that held a counter for it.
func (l *Ledger) PruneRecipe(recipeID string) []string {
	var worlds []string
	var removed []*counter

	l.mu.Lock()
	for world, byRecipe := range l.worlds {
		c, ok := byRecipe[recipeID]
		if !ok {
			continue
		}
		delete(byRecipe, recipeID)
		if len(byRecipe) == 0 {
			delete(l.worlds, world)
		}
		worlds = append(worlds, world)
		removed = append(removed, c)
	}
	l.mu.Unlock()

	for _, c := range removed {
		c.mu.Lock()
		c.removed = true
		c.mu.Unlock()
	}

	l.playersMu.Lock()
	for player, stats := range l.players {
		delete(stats, recipeID)
		if len(stats) == 0 {
			delete(l.players, player)
		}
	}
	l.playersMu.Unlock()

	for _, w := range worlds {
		l.markDirty(w)
	}
	sort.Strings(worlds)
	return worlds
}

// Worlds returns the worlds holding at least one counter, sorted
func (l *Ledger) Worlds() []string {
	l.mu.RLock()
	worlds := make([]string, 0, len(l.worlds))
	for w := range l.worlds {
		worlds = append(worlds, w)
	}
	l.mu.RUnlock()
	sort.Strings(worlds)
	return worlds
}

// Snapshot copies the counters of world
func (l *Ledger) Snapshot(world string) repository.WorldCounts {
	l.mu.RLock()
	byRecipe := l.worlds[world]
	counters := make(map[string]*counter, len(byRecipe))
	for id, c := range byRecipe {
		counters[id] = c
	}
	l.mu.RUnlock()

	out := make(repository.WorldCounts, len(counters))
	for id, c := range counters {
		c.mu.Lock()
		if !c.removed && c.n > 0 {
			out[id] = c.n
		}
		c.mu.Unlock()
	}
	return out
}

// Restore loads persisted counters of world. Counts only move up, so a
// restore racing with live crafts never loses one.
func (l *Ledger) Restore(world string, counts repository.WorldCounts) {
	for id, n := range counts {
		if n <= 0 {
			continue
		}
		for {
			c := l.getOrCreate(world, id)
			c.mu.Lock()
			if c.removed {
				c.mu.Unlock()
				continue
			}
			c.n = max(c.n, n)
			c.mu.Unlock()
			break
		}
	}
}

func (l *Ledger) markDirty(world string) {
	l.dirtyMu.Lock()
	l.dirty[world] = struct{}{}
	l.dirtyMu.Unlock()
}

// MarkDirty flags world for the next flush, e.g. after a failed save
func (l *Ledger) MarkDirty(world string) {
	l.markDirty(world)
}

// TakeDirty returns and clears the worlds changed since the last call
func (l *Ledger) TakeDirty() []string {
	l.dirtyMu.Lock()
	worlds := make([]string, 0, len(l.dirty))
	for w := range l.dirty {
		worlds = append(worlds, w)
	}
	l.dirty = make(map[string]struct{})
	l.dirtyMu.Unlock()
	sort.Strings(worlds)
	return worlds
}

// Reset drops every counter and player stat
func (l *Ledger) Reset() {
	l.mu.Lock()
	for _, byRecipe := range l.worlds {
		for _, c := range byRecipe {
			c.mu.Lock()
			c.removed = true
			c.mu.Unlock()
		}
	}
	l.worlds = make(map[string]map[string]*counter)
	l.mu.Unlock()

	l.playersMu.Lock()
	l.players = make(map[uuid.UUID]map[string]*playerStat)
	l.playersMu.Unlock()

	l.dirtyMu.Lock()
	l.dirty = make(map[string]struct{})
	l.dirtyMu.Unlock()
}
