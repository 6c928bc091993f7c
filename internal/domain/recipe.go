package domain

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"time"
)

// RecipeKind distinguishes grid-shaped recipes from order-free ones
type RecipeKind string

const (
	KindShaped    RecipeKind = "SHAPED"
	KindShapeless RecipeKind = "SHAPELESS"
)

// Custom field keys. The first three are owned by the limit policy and the
// creation timestamp and can never be set as custom fields.
const (
	FieldOneTime      = "one_time"
	FieldCraftLimit   = "craft_limit"
	FieldCreationTime = "creation_time"
	FieldAddon        = "addon"
)

// IsReservedField reports whether key is one of the reserved custom field keys
func IsReservedField(key string) bool {
	switch key {
	case FieldOneTime, FieldCraftLimit, FieldCreationTime:
		return true
	}
	return false
}

// LimitKind enumerates the three limit policies
type LimitKind int

const (
	LimitUnlimited LimitKind = iota
	LimitOneTime
	LimitLimited
)

func (k LimitKind) String() string {
	switch k {
	case LimitOneTime:
		return "ONE_TIME"
	case LimitLimited:
		return "LIMITED"
	default:
		return "UNLIMITED"
	}
}

// LimitPolicy caps the number of crafts of a recipe within one world.
// The zero value is unlimited.
type LimitPolicy struct {
	kind LimitKind
	max  int
}

// Unlimited returns a policy with no cap
func Unlimited() LimitPolicy { return LimitPolicy{} }

// OneTime returns a policy allowing a single craft per world
func OneTime() LimitPolicy { return LimitPolicy{kind: LimitOneTime, max: 1} }

// Limited returns a policy allowing n crafts per world.
// n == 1 is the one-time policy; n < 1 is unlimited.
func Limited(n int) LimitPolicy {
	switch {
	case n == 1:
		return OneTime()
	case n < 1:
		return Unlimited()
	}
	return LimitPolicy{kind: LimitLimited, max: n}
}

func (p LimitPolicy) Kind() LimitKind { return p.kind }

// Max returns -1 for unlimited, 1 for one-time and n for limited
func (p LimitPolicy) Max() int {
	if p.kind == LimitUnlimited {
		return -1
	}
	return p.max
}

func (p LimitPolicy) IsUnlimited() bool { return p.kind == LimitUnlimited }
func (p LimitPolicy) IsOneTime() bool   { return p.kind == LimitOneTime }

// HasCraftLimit is true only for LIMITED(n>1); one-time is reported separately
func (p LimitPolicy) HasCraftLimit() bool { return p.kind == LimitLimited }

// Allows reports whether one more craft is permitted when count crafts were already made
func (p LimitPolicy) Allows(count int) bool {
	switch p.kind {
	case LimitOneTime:
		return count == 0
	case LimitLimited:
		return count < p.max
	default:
		return true
	}
}

// Remaining returns how many crafts are left, or -1 when unlimited
func (p LimitPolicy) Remaining(count int) int {
	switch p.kind {
	case LimitOneTime:
		if count == 0 {
			return 1
		}
		return 0
	case LimitLimited:
		return max(0, p.max-count)
	default:
		return -1
	}
}

func (p LimitPolicy) String() string {
	if p.kind == LimitLimited {
		return fmt.Sprintf("%s(%d)", p.kind, p.max)
	}
	return p.kind.String()
}

// RecipeSpec is the plain field set of a recipe. It is what the builder
// assembles and what storage records are converted from.
type RecipeSpec struct {
	ID           string
	Result       ItemStack
	Kind         RecipeKind
	Pattern      []string
	Symbols      map[rune]ItemStack
	Ingredients  []ItemStack
	Limit        LimitPolicy
	Creator      string
	CreatedAt    time.Time
	CustomFields map[string]any
}

// Recipe is an immutable recipe definition. Every accessor returns a copy, so
// a *Recipe can be shared between goroutines once published.
type Recipe struct {
	spec RecipeSpec
}

// NewRecipe snapshots spec into a Recipe. It does not validate; recipes are
// normally produced by recipe.Builder.Build.
func NewRecipe(spec RecipeSpec) *Recipe {
	return &Recipe{spec: cloneSpec(spec)}
}

func (r *Recipe) ID() string          { return r.spec.ID }
func (r *Recipe) Result() ItemStack   { return r.spec.Result.Clone() }
func (r *Recipe) ResultAmount() int   { return r.spec.Result.Amount }
func (r *Recipe) Kind() RecipeKind    { return r.spec.Kind }
func (r *Recipe) IsShaped() bool      { return r.spec.Kind == KindShaped }
func (r *Recipe) IsShapeless() bool   { return r.spec.Kind == KindShapeless }
func (r *Recipe) Limit() LimitPolicy  { return r.spec.Limit }
func (r *Recipe) IsOneTime() bool     { return r.spec.Limit.IsOneTime() }
func (r *Recipe) HasCraftLimit() bool { return r.spec.Limit.HasCraftLimit() }

// CraftLimit returns n for LIMITED(n) and -1 otherwise
func (r *Recipe) CraftLimit() int {
	if r.spec.Limit.HasCraftLimit() {
		return r.spec.Limit.Max()
	}
	return -1
}

// Pattern returns the shape rows (nil for shapeless recipes)
func (r *Recipe) Pattern() []string { return slices.Clone(r.spec.Pattern) }

// Symbols returns the symbol to ingredient mapping of a shaped recipe
func (r *Recipe) Symbols() map[rune]ItemStack { return cloneSymbols(r.spec.Symbols) }

// Ingredients returns the shapeless ingredient list, or for a shaped recipe
// the pattern laid out row-major with empty stacks in blank slots.
func (r *Recipe) Ingredients() []ItemStack {
	if r.spec.Kind != KindShaped {
		return cloneStacks(r.spec.Ingredients)
	}
	width := 0
	for _, row := range r.spec.Pattern {
		width = max(width, len([]rune(row)))
	}
	grid := make([]ItemStack, 0, width*len(r.spec.Pattern))
	for _, row := range r.spec.Pattern {
		runes := []rune(row)
		for col := 0; col < width; col++ {
			if col >= len(runes) || runes[col] == ' ' {
				grid = append(grid, ItemStack{Material: MaterialAir})
				continue
			}
			grid = append(grid, r.spec.Symbols[runes[col]].Clone())
		}
	}
	return grid
}

// Creator returns the recipe author, if one was recorded
func (r *Recipe) Creator() (string, bool) {
	return r.spec.Creator, r.spec.Creator != ""
}

// CreatedAt returns the creation timestamp, if one was recorded
func (r *Recipe) CreatedAt() (time.Time, bool) {
	return r.spec.CreatedAt, !r.spec.CreatedAt.IsZero()
}

func (r *Recipe) HasCustomField(key string) bool {
	_, ok := r.spec.CustomFields[key]
	return ok
}

func (r *Recipe) CustomField(key string) (any, bool) {
	v, ok := r.spec.CustomFields[key]
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// CustomString returns a string-typed custom field
func (r *Recipe) CustomString(key string) (string, bool) {
	s, ok := r.spec.CustomFields[key].(string)
	return s, ok
}

// CustomInt returns an integer custom field. Whole float values are accepted
// since some decoders produce float64 for every number.
func (r *Recipe) CustomInt(key string) (int, bool) {
	switch v := r.spec.CustomFields[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v == float64(int(v)) {
			return int(v), true
		}
	}
	return 0, false
}

func (r *Recipe) CustomFields() map[string]any { return CloneFields(r.spec.CustomFields) }

// Addon returns the id of the addon that contributed the recipe, or ""
func (r *Recipe) Addon() string {
	s, _ := r.CustomString(FieldAddon)
	return s
}

// Spec returns a deep copy of the recipe's fields
func (r *Recipe) Spec() RecipeSpec { return cloneSpec(r.spec) }

// Equal compares every field of two recipes
func (r *Recipe) Equal(o *Recipe) bool {
	if r == nil || o == nil {
		return r == o
	}
	a, b := r.spec, o.spec
	if a.ID != b.ID || a.Kind != b.Kind || a.Limit != b.Limit || a.Creator != b.Creator {
		return false
	}
	if !a.Result.Equal(b.Result) || !a.CreatedAt.Equal(b.CreatedAt) {
		return false
	}
	if !slices.Equal(a.Pattern, b.Pattern) {
		return false
	}
	if !maps.EqualFunc(a.Symbols, b.Symbols, ItemStack.Equal) {
		return false
	}
	if !slices.EqualFunc(a.Ingredients, b.Ingredients, ItemStack.Equal) {
		return false
	}
	if len(a.CustomFields) != len(b.CustomFields) {
		return false
	}
	return len(a.CustomFields) == 0 || reflect.DeepEqual(a.CustomFields, b.CustomFields)
}

func (r *Recipe) String() string {
	return fmt.Sprintf("Recipe{id=%s, kind=%s, result=%s, limit=%s}", r.spec.ID, r.spec.Kind, r.spec.Result, r.spec.Limit)
}

func cloneSpec(s RecipeSpec) RecipeSpec {
	c := s
	c.Result = s.Result.Clone()
	c.Pattern = slices.Clone(s.Pattern)
	c.Symbols = cloneSymbols(s.Symbols)
	c.Ingredients = cloneStacks(s.Ingredients)
	c.CustomFields = CloneFields(s.CustomFields)
	return c
}

func cloneSymbols(m map[rune]ItemStack) map[rune]ItemStack {
	if m == nil {
		return nil
	}
	c := make(map[rune]ItemStack, len(m))
	for k, v := range m {
		c[k] = v.Clone()
	}
	return c
}

func cloneStacks(s []ItemStack) []ItemStack {
	if s == nil {
		return nil
	}
	c := make([]ItemStack, len(s))
	for i, v := range s {
		c[i] = v.Clone()
	}
	return c
}

// CloneFields deep-copies a custom field map
func CloneFields(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = cloneValue(v)
	}
	return c
}

// cloneValue deep-copies the container shapes a decoder can produce
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneFields(t)
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = cloneValue(e)
		}
		return c
	case []string:
		return slices.Clone(t)
	case map[string]string:
		return maps.Clone(t)
	}
	return v
}
