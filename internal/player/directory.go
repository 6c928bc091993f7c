// Package player tracks which world each online player is in.
package player

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/osse101/RecipeForge_Go/internal/logger"
)

// Config sizes the directory. Presence that is not refreshed within TTL is
// dropped, so a missed leave notification cannot pin a player to a world.
type Config struct {
	Size int
	TTL  time.Duration
}

// Presence is where a player was last seen
type Presence struct {
	PlayerID uuid.UUID `json:"player_id"`
	Name     string    `json:"name,omitempty"`
	World    string    `json:"world"`
	SeenAt   time.Time `json:"seen_at"`
}

// Stats reports directory lookups
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Online int   `json:"online"`
}

// Directory is an in-memory player to world index
type Directory struct {
	lru    *expirable.LRU[uuid.UUID, Presence]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewDirectory creates a directory, filling zero config values with defaults
func NewDirectory(cfg Config) *Directory {
	if cfg.Size <= 0 {
		cfg.Size = DefaultDirectorySize
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultPresenceTTL
	}
	d := &Directory{}
	d.lru = expirable.NewLRU[uuid.UUID, Presence](cfg.Size, nil, cfg.TTL)
	return d
}

// Join records that a player is in world. It is also used for world
// changes and as a keep-alive.
func (d *Directory) Join(ctx context.Context, id uuid.UUID, name, world string) Presence {
	p := Presence{PlayerID: id, Name: name, World: world, SeenAt: time.Now().UTC()}
	d.lru.Add(id, p)
	logger.FromContext(ctx).Debug(LogMsgPlayerJoined, "player_id", id, "world", world)
	return p
}

// Leave forgets a player and reports whether it was known
func (d *Directory) Leave(ctx context.Context, id uuid.UUID) bool {
	ok := d.lru.Remove(id)
	if ok {
		logger.FromContext(ctx).Debug(LogMsgPlayerLeft, "player_id", id)
	}
	return ok
}

// CurrentWorld implements recipe.PlayerLocator
func (d *Directory) CurrentWorld(ctx context.Context, id uuid.UUID) (string, bool) {
	p, ok := d.Lookup(id)
	if !ok {
		return "", false
	}
	return p.World, true
}

func (d *Directory) Lookup(id uuid.UUID) (Presence, bool) {
	p, ok := d.lru.Get(id)
	if !ok {
		d.misses.Add(1)
		return Presence{}, false
	}
	d.hits.Add(1)
	return p, true
}

// PlayersIn lists the players currently in world, ordered by id
func (d *Directory) PlayersIn(world string) []uuid.UUID {
	var ids []uuid.UUID
	for _, p := range d.lru.Values() {
		if p.World == world {
			ids = append(ids, p.PlayerID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// EvictWorld forgets every player in world, e.g. when the world is deleted
func (d *Directory) EvictWorld(world string) int {
	n := 0
	for _, id := range d.PlayersIn(world) {
		if d.lru.Remove(id) {
			n++
		}
	}
	return n
}

func (d *Directory) Online() int {
	return d.lru.Len()
}

func (d *Directory) Stats() Stats {
	return Stats{
		Hits:   d.hits.Load(),
		Misses: d.misses.Load(),
		Online: d.lru.Len(),
	}
}
