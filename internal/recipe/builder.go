package recipe

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/storage/record"
)

var lower = cases.Lower(language.Und)

// Builder accumulates recipe fields and produces a validated *domain.Recipe.
//
// Setters that can reject their input return an error and leave the builder
// unchanged; the others return the builder for chaining. A Builder is not
// safe for concurrent use.
type Builder struct {
	id          string
	result      domain.ItemStack
	hasResult   bool
	kind        domain.RecipeKind
	pattern     []string
	symbols     map[rune]domain.ItemStack
	ingredients []domain.ItemStack
	oneTime     bool
	craftLimit  int
	creator     string
	createdAt   time.Time
	fields      map[string]any
}

// NewBuilder returns an empty, unlimited, shaped builder
func NewBuilder() *Builder {
	b := &Builder{}
	return b.Reset()
}

// FromRecipe returns a builder holding every field of r
func FromRecipe(r *domain.Recipe) *Builder {
	spec := r.Spec()
	b := NewBuilder()
	b.id = spec.ID
	b.result, b.hasResult = spec.Result, true
	b.kind = spec.Kind
	b.pattern = spec.Pattern
	if spec.Symbols != nil {
		b.symbols = spec.Symbols
	}
	b.ingredients = spec.Ingredients
	switch {
	case spec.Limit.IsOneTime():
		b.oneTime = true
	case spec.Limit.HasCraftLimit():
		b.craftLimit = spec.Limit.Max()
	}
	b.creator = spec.Creator
	b.createdAt = spec.CreatedAt
	if spec.CustomFields != nil {
		b.fields = spec.CustomFields
	}
	return b
}

// SetID lower-cases id and checks it against [a-z0-9_-]+
func (b *Builder) SetID(id string) error {
	if id == "" {
		return domain.NewValidationError(domain.ErrInvalidID, MsgIDRequired)
	}
	normalized := lower.String(id)
	if !validID.MatchString(normalized) {
		return domain.NewValidationError(domain.ErrInvalidID, fmt.Sprintf(MsgIDCharacters, id))
	}
	b.id = normalized
	return nil
}

// SetResult sets the crafted item
func (b *Builder) SetResult(item domain.ItemStack) error {
	if item.IsEmpty() {
		return domain.NewValidationError(domain.ErrInvalidResult, MsgResultEmpty)
	}
	b.result, b.hasResult = item.Clone(), true
	return nil
}

// Shaped switches to a pattern recipe. Shapeless ingredients already added
// are kept but not used by Build.
func (b *Builder) Shaped() *Builder {
	b.kind = domain.KindShaped
	return b
}

// Shapeless switches to an order-free recipe. A pattern already set is kept
// but not used by Build.
func (b *Builder) Shapeless() *Builder {
	b.kind = domain.KindShapeless
	return b
}

// SetPattern sets 1-3 rows of 1-3 symbols each. A space is an empty slot.
func (b *Builder) SetPattern(rows ...string) error {
	if len(rows) == 0 || len(rows) > MaxPatternRows {
		return domain.NewValidationError(domain.ErrInvalidPattern, fmt.Sprintf(MsgPatternRows, len(rows)))
	}
	for i, row := range rows {
		n := utf8.RuneCountInString(row)
		if n == 0 || n > MaxPatternColumns {
			return domain.NewValidationError(domain.ErrInvalidPattern, fmt.Sprintf(MsgPatternRowWidth, i, n))
		}
	}
	b.pattern = slices.Clone(rows)
	return nil
}

// SetIngredient maps a pattern symbol to an item
func (b *Builder) SetIngredient(symbol rune, item domain.ItemStack) error {
	if symbol == BlankSymbol {
		return domain.NewValidationError(domain.ErrReservedSymbol, MsgBlankSymbol)
	}
	if item.IsEmpty() {
		return domain.NewValidationError(domain.ErrInvalidIngredient, MsgIngredientEmpty)
	}
	b.symbols[symbol] = item.Clone()
	return nil
}

// AddIngredient appends one shapeless ingredient
func (b *Builder) AddIngredient(item domain.ItemStack) error {
	return b.AddIngredients(item, 1)
}

// AddIngredients appends count copies of item, count being 1-9
func (b *Builder) AddIngredients(item domain.ItemStack, count int) error {
	if count < 1 || count > MaxIngredients {
		return domain.NewValidationError(domain.ErrInvalidAmount, fmt.Sprintf(MsgIngredientCount, count))
	}
	if item.IsEmpty() {
		return domain.NewValidationError(domain.ErrInvalidAmount, MsgIngredientEmpty)
	}
	for i := 0; i < count; i++ {
		b.ingredients = append(b.ingredients, item.Clone())
	}
	return nil
}

// AddMaterial appends count single items of material
func (b *Builder) AddMaterial(material string, count int) error {
	return b.AddIngredients(domain.NewItemStack(material, 1), count)
}

// OneTime sets or clears the one-time flag. Setting it drops any craft limit.
func (b *Builder) OneTime(oneTime bool) *Builder {
	b.oneTime = oneTime
	if oneTime {
		b.craftLimit = UnlimitedCrafts
	}
	return b
}

// CraftLimit caps crafts per world. -1 is unlimited, 1 is the same as
// OneTime(true) and any n > 1 clears the one-time flag.
func (b *Builder) CraftLimit(n int) error {
	switch {
	case n < UnlimitedCrafts:
		return domain.NewValidationError(domain.ErrInvalidLimit, fmt.Sprintf(MsgCraftLimitNegative, n))
	case n == 0:
		return domain.NewValidationError(domain.ErrInvalidLimit, MsgCraftLimitZero)
	case n == 1:
		b.OneTime(true)
		return nil
	}
	b.craftLimit = n
	if n > 1 {
		b.oneTime = false
	}
	return nil
}

// Unlimited clears both limit forms
func (b *Builder) Unlimited() *Builder {
	b.oneTime = false
	b.craftLimit = UnlimitedCrafts
	return b
}

// HasRestrictions reports whether any craft limit is set
func (b *Builder) HasRestrictions() bool {
	return b.oneTime || b.craftLimit > 1
}

// EffectiveLimit returns 1 for one-time, n for a craft limit and -1 otherwise
func (b *Builder) EffectiveLimit() int {
	if b.oneTime {
		return 1
	}
	return b.craftLimit
}

// SetCustomField stores value under key. A nil value removes the field.
// Values are normalized to the form they take after a storage round trip.
func (b *Builder) SetCustomField(key string, value any) error {
	if key == "" {
		return domain.NewValidationError(domain.ErrInvalidInput, MsgCustomFieldKeyRequired)
	}
	if domain.IsReservedField(key) {
		return domain.NewValidationError(domain.ErrReservedField, fmt.Sprintf(MsgReservedField, key))
	}
	if value == nil {
		delete(b.fields, key)
		return nil
	}
	canonical, err := record.CanonicalValue(value)
	if err != nil {
		return domain.NewValidationError(domain.ErrInvalidInput, fmt.Sprintf(MsgCustomFieldValue, key, err))
	}
	b.fields[key] = canonical
	return nil
}

func (b *Builder) RemoveCustomField(key string) *Builder {
	delete(b.fields, key)
	return b
}

func (b *Builder) HasCustomField(key string) bool {
	_, ok := b.fields[key]
	return ok
}

// SetAddon tags the recipe with the addon that contributed it
func (b *Builder) SetAddon(addon string) *Builder {
	if addon == "" {
		delete(b.fields, domain.FieldAddon)
	} else {
		b.fields[domain.FieldAddon] = addon
	}
	return b
}

func (b *Builder) SetCreator(name string) *Builder {
	b.creator = strings.TrimSpace(name)
	return b
}

// SetCreatedAt records the creation time, kept in UTC
func (b *Builder) SetCreatedAt(t time.Time) *Builder {
	if t.IsZero() {
		b.createdAt = time.Time{}
	} else {
		b.createdAt = t.UTC()
	}
	return b
}

func (b *Builder) ID() string                   { return b.id }
func (b *Builder) Kind() domain.RecipeKind      { return b.kind }
func (b *Builder) IsOneTime() bool              { return b.oneTime }
func (b *Builder) CreatedAt() time.Time         { return b.createdAt }
func (b *Builder) Pattern() []string            { return slices.Clone(b.pattern) }
func (b *Builder) IngredientCount() int         { return len(b.ingredients) }
func (b *Builder) CustomFields() map[string]any { return domain.CloneFields(b.fields) }

// checks is the single list of whole-recipe rules behind Validate,
// IsValid and ValidationErrors.
func (b *Builder) checks() []*domain.ValidationError {
	var errs []*domain.ValidationError
	if b.id == "" {
		errs = append(errs, domain.NewValidationError(domain.ErrInvalidID, MsgIDRequired))
	}
	if !b.hasResult {
		errs = append(errs, domain.NewValidationError(domain.ErrInvalidResult, MsgResultRequired))
	}

	if b.kind == domain.KindShaped {
		return append(errs, b.shapedChecks()...)
	}
	switch n := len(b.ingredients); {
	case n == 0:
		errs = append(errs, domain.NewValidationError(domain.ErrInvalidIngredient, MsgShapelessEmpty))
	case n > MaxIngredients:
		errs = append(errs, domain.NewValidationError(domain.ErrInvalidIngredient, fmt.Sprintf(MsgShapelessTooMany, n)))
	}
	return errs
}

func (b *Builder) shapedChecks() []*domain.ValidationError {
	if len(b.pattern) == 0 {
		return []*domain.ValidationError{domain.NewValidationError(domain.ErrInvalidPattern, MsgPatternRequired)}
	}

	used := patternSymbols(b.pattern)
	if len(used) == 0 {
		return []*domain.ValidationError{domain.NewValidationError(domain.ErrInvalidPattern, MsgPatternBlank)}
	}

	var unmapped []string
	for _, sym := range used {
		if _, ok := b.symbols[sym]; !ok {
			unmapped = append(unmapped, fmt.Sprintf("'%c'", sym))
		}
	}
	if len(unmapped) == 0 {
		return nil
	}
	msg := fmt.Sprintf(MsgUnmappedSymbols, "["+strings.Join(unmapped, ", ")+"]")
	return []*domain.ValidationError{domain.NewValidationError(domain.ErrMissingIngredient, msg)}
}

// patternSymbols returns the distinct non-blank symbols of rows, sorted
func patternSymbols(rows []string) []rune {
	seen := make(map[rune]struct{})
	for _, row := range rows {
		for _, r := range row {
			if r != BlankSymbol {
				seen[r] = struct{}{}
			}
		}
	}
	syms := make([]rune, 0, len(seen))
	for r := range seen {
		syms = append(syms, r)
	}
	slices.Sort(syms)
	return syms
}

// Validate returns the first failing whole-recipe rule as a
// *domain.ValidationError, or nil
func (b *Builder) Validate() error {
	if errs := b.checks(); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (b *Builder) IsValid() bool {
	return len(b.checks()) == 0
}

// ValidationErrors lists every failing rule; it is empty exactly when
// Validate returns nil.
func (b *Builder) ValidationErrors() []string {
	errs := b.checks()
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

// Build validates and snapshots the builder. Only the data of the current
// kind is copied into the recipe.
func (b *Builder) Build() (*domain.Recipe, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	spec := domain.RecipeSpec{
		ID:        b.id,
		Result:    b.result,
		Kind:      b.kind,
		Limit:     b.limit(),
		Creator:   b.creator,
		CreatedAt: b.createdAt,
	}
	if len(b.fields) > 0 {
		spec.CustomFields = b.fields
	}
	if b.kind == domain.KindShaped {
		spec.Pattern = b.pattern
		// unused mappings are dropped so equal recipes compare equal
		spec.Symbols = make(map[rune]domain.ItemStack)
		for _, sym := range patternSymbols(b.pattern) {
			spec.Symbols[sym] = b.symbols[sym]
		}
	} else {
		spec.Ingredients = b.ingredients
	}
	// NewRecipe deep-copies, so the builder stays independent of the result
	return domain.NewRecipe(spec), nil
}

func (b *Builder) limit() domain.LimitPolicy {
	if b.oneTime {
		return domain.OneTime()
	}
	return domain.Limited(b.craftLimit)
}

// Copy returns a deep copy sharing no maps, slices or item metadata
func (b *Builder) Copy() *Builder {
	c := *b
	c.result = b.result.Clone()
	c.pattern = slices.Clone(b.pattern)
	c.symbols = make(map[rune]domain.ItemStack, len(b.symbols))
	for k, v := range b.symbols {
		c.symbols[k] = v.Clone()
	}
	c.ingredients = make([]domain.ItemStack, len(b.ingredients))
	for i, v := range b.ingredients {
		c.ingredients[i] = v.Clone()
	}
	c.fields = domain.CloneFields(b.fields)
	return &c
}

// Reset returns the builder to the state of NewBuilder
func (b *Builder) Reset() *Builder {
	*b = Builder{
		kind:       domain.KindShaped,
		symbols:    make(map[rune]domain.ItemStack),
		craftLimit: UnlimitedCrafts,
		fields:     make(map[string]any),
	}
	return b
}

func (b *Builder) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Builder{id=%s, kind=%s", b.id, b.kind)
	if b.hasResult {
		fmt.Fprintf(&sb, ", result=%s", b.result)
	}
	if b.kind == domain.KindShaped {
		fmt.Fprintf(&sb, ", pattern=%q, symbols=%d", b.pattern, len(b.symbols))
	} else {
		fmt.Fprintf(&sb, ", ingredients=%d", len(b.ingredients))
	}
	fmt.Fprintf(&sb, ", limit=%s", b.limit())
	if len(b.fields) > 0 {
		fmt.Fprintf(&sb, ", fields=%d", len(b.fields))
	}
	sb.WriteString("}")
	return sb.String()
}
