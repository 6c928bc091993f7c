package recipe

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/osse101/RecipeForge_Go/internal/domain"
)

// Registry is the authoritative in-memory map of recipe id to recipe.
// Recipes are immutable, so queries hand out the stored pointers in fresh
// slices and never hold the lock while callers iterate.
type Registry struct {
	mu      sync.RWMutex
	recipes map[string]*domain.Recipe
}

func NewRegistry() *Registry {
	return &Registry{recipes: make(map[string]*domain.Recipe)}
}

// Register inserts r; domain.ErrDuplicateID if the id is taken
func (g *Registry) Register(r *domain.Recipe) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.recipes[r.ID()]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateID, r.ID())
	}
	g.recipes[r.ID()] = r
	return nil
}

// Update swaps in r for the recipe with the same id and returns the old one
func (g *Registry) Update(r *domain.Recipe) (*domain.Recipe, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	old, ok := g.recipes[r.ID()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecipeNotFound, r.ID())
	}
	g.recipes[r.ID()] = r
	return old, nil
}

// Unregister removes id and returns the removed recipe
func (g *Registry) Unregister(id string) (*domain.Recipe, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	r, ok := g.recipes[id]
	if ok {
		delete(g.recipes, id)
	}
	return r, ok
}

// RegisterMany registers each recipe in turn and returns how many succeeded.
// A duplicate does not stop the rest.
func (g *Registry) RegisterMany(recipes []*domain.Recipe) int {
	n := 0
	for _, r := range recipes {
		if g.Register(r) == nil {
			n++
		}
	}
	return n
}

// UnregisterMany removes each id in turn and returns how many were present
func (g *Registry) UnregisterMany(ids []string) int {
	n := 0
	for _, id := range ids {
		if _, ok := g.Unregister(id); ok {
			n++
		}
	}
	return n
}

// ReplaceAll swaps the whole registry contents in one step
func (g *Registry) ReplaceAll(recipes []*domain.Recipe) {
	next := make(map[string]*domain.Recipe, len(recipes))
	for _, r := range recipes {
		next[r.ID()] = r
	}
	g.mu.Lock()
	g.recipes = next
	g.mu.Unlock()
}

func (g *Registry) Clear() {
	g.ReplaceAll(nil)
}

func (g *Registry) Get(id string) (*domain.Recipe, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.recipes[id]
	return r, ok
}

func (g *Registry) Exists(id string) bool {
	_, ok := g.Get(id)
	return ok
}

func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.recipes)
}

// IDs returns every registered id, sorted
func (g *Registry) IDs() []string {
	g.mu.RLock()
	ids := make([]string, 0, len(g.recipes))
	for id := range g.recipes {
		ids = append(ids, id)
	}
	g.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// All returns every recipe sorted by id
func (g *Registry) All() []*domain.Recipe {
	return g.filter(func(*domain.Recipe) bool { return true })
}

// FindByResult returns recipes producing the same kind of item as result
func (g *Registry) FindByResult(result domain.ItemStack) []*domain.Recipe {
	return g.filter(func(r *domain.Recipe) bool {
		return r.Result().SameType(result)
	})
}

// FindByMaterial returns recipes whose result has the given material
func (g *Registry) FindByMaterial(material string) []*domain.Recipe {
	return g.filter(func(r *domain.Recipe) bool {
		return strings.EqualFold(r.Result().Material, material)
	})
}

// FindByCreator matches the creator name case-insensitively
func (g *Registry) FindByCreator(name string) []*domain.Recipe {
	return g.filter(func(r *domain.Recipe) bool {
		creator, ok := r.Creator()
		return ok && strings.EqualFold(creator, name)
	})
}

func (g *Registry) OneTime() []*domain.Recipe {
	return g.filter((*domain.Recipe).IsOneTime)
}

// Limited returns recipes with a craft limit above one
func (g *Registry) Limited() []*domain.Recipe {
	return g.filter((*domain.Recipe).HasCraftLimit)
}

func (g *Registry) ByAddon(addon string) []*domain.Recipe {
	return g.filter(func(r *domain.Recipe) bool {
		return r.Addon() == addon
	})
}

func (g *Registry) filter(keep func(*domain.Recipe) bool) []*domain.Recipe {
	g.mu.RLock()
	out := make([]*domain.Recipe, 0, len(g.recipes))
	for _, r := range g.recipes {
		if keep(r) {
			out = append(out, r)
		}
	}
	g.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
