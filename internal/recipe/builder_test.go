package recipe

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/osse101/RecipeForge_Go/internal/domain"
)

func item(material string) domain.ItemStack {
	return domain.NewItemStack(material, 1)
}

// torchBuilder is the shaped recipe used across the package tests
func torchBuilder(t *testing.T, id string) *Builder {
	t.Helper()
	b := NewBuilder()
	require.NoError(t, b.SetID(id))
	require.NoError(t, b.SetResult(domain.NewItemStack("TORCH", 4)))
	require.NoError(t, b.SetPattern("C", "S"))
	require.NoError(t, b.SetIngredient('C', item("COAL")))
	require.NoError(t, b.SetIngredient('S', item("STICK")))
	return b
}

func shapelessBuilder(t *testing.T, id string) *Builder {
	t.Helper()
	b := NewBuilder().Shapeless()
	require.NoError(t, b.SetID(id))
	require.NoError(t, b.SetResult(item("MUSHROOM_STEW")))
	require.NoError(t, b.AddMaterial("BOWL", 1))
	require.NoError(t, b.AddMaterial("RED_MUSHROOM", 1))
	require.NoError(t, b.AddMaterial("BROWN_MUSHROOM", 1))
	return b
}

func TestBuilder_Defaults(t *testing.T) {
	b := NewBuilder()
	assert.Equal(t, domain.KindShaped, b.Kind())
	assert.False(t, b.IsOneTime())
	assert.Equal(t, UnlimitedCrafts, b.EffectiveLimit())
	assert.False(t, b.HasRestrictions())
	assert.False(t, b.IsValid())
}

func TestBuilder_SetID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{"lowercase", "torch", "torch", false},
		{"lowered", "Magic_Torch-2", "magic_torch-2", false},
		{"empty", "", "", true},
		{"space", "magic torch", "", true},
		{"colon", "addon:torch", "", true},
		{"unicode", "fackel_ü", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			err := b.SetID(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidID)
				assert.ErrorIs(t, err, domain.ErrValidation)
				assert.Empty(t, b.ID())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, b.ID())
		})
	}
}

func TestBuilder_SetPattern(t *testing.T) {
	tests := []struct {
		name    string
		rows    []string
		wantErr bool
	}{
		{"single", []string{"A"}, false},
		{"full", []string{"AAA", "A A", "AAA"}, false},
		{"ragged", []string{"AB", "C"}, false},
		{"none", nil, true},
		{"four rows", []string{"A", "A", "A", "A"}, true},
		{"wide row", []string{"AAAA"}, true},
		{"empty row", []string{"A", ""}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBuilder().SetPattern(tt.rows...)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidPattern)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuilder_IngredientErrors(t *testing.T) {
	b := NewBuilder()
	assert.ErrorIs(t, b.SetIngredient(' ', item("STONE")), domain.ErrReservedSymbol)
	assert.ErrorIs(t, b.SetIngredient('A', domain.ItemStack{}), domain.ErrInvalidIngredient)
	assert.ErrorIs(t, b.SetResult(item("AIR")), domain.ErrInvalidResult)
	assert.ErrorIs(t, b.AddIngredients(item("STONE"), 0), domain.ErrInvalidAmount)
	assert.ErrorIs(t, b.AddIngredients(item("STONE"), 10), domain.ErrInvalidAmount)
	assert.Equal(t, 0, b.IngredientCount())

	require.NoError(t, b.AddIngredients(item("STONE"), 9))
	assert.Equal(t, 9, b.IngredientCount())
}

func TestBuilder_LimitsAreMutuallyExclusive(t *testing.T) {
	b := NewBuilder()

	require.NoError(t, b.CraftLimit(5))
	assert.Equal(t, 5, b.EffectiveLimit())
	assert.False(t, b.IsOneTime())

	b.OneTime(true)
	assert.True(t, b.IsOneTime())
	assert.Equal(t, 1, b.EffectiveLimit())

	require.NoError(t, b.CraftLimit(3))
	assert.False(t, b.IsOneTime(), "a craft limit above one clears one-time")
	assert.Equal(t, 3, b.EffectiveLimit())

	require.NoError(t, b.CraftLimit(1))
	assert.True(t, b.IsOneTime(), "a craft limit of one is one-time")

	require.NoError(t, b.CraftLimit(-1))
	assert.True(t, b.IsOneTime(), "-1 leaves the one-time flag alone")

	b.Unlimited()
	assert.False(t, b.HasRestrictions())
	assert.Equal(t, UnlimitedCrafts, b.EffectiveLimit())

	assert.ErrorIs(t, b.CraftLimit(0), domain.ErrInvalidLimit)
	assert.ErrorIs(t, b.CraftLimit(-2), domain.ErrInvalidLimit)
}

func TestBuilder_BuildLimitPolicy(t *testing.T) {
	b := torchBuilder(t, "torch")
	require.NoError(t, b.CraftLimit(3))
	r, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, domain.Limited(3), r.Limit())

	r, err = b.OneTime(true).Build()
	require.NoError(t, err)
	assert.True(t, r.IsOneTime())
	assert.Equal(t, -1, r.CraftLimit())
}

func TestBuilder_ValidateReportsEveryProblem(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.SetID("broken"))
	require.NoError(t, b.SetPattern("AB", "B A"))
	require.NoError(t, b.SetIngredient('A', item("IRON_INGOT")))

	errs := b.ValidationErrors()
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], domain.ErrMsgInvalidResult)
	assert.Contains(t, errs[1], "['B']")

	err := b.Validate()
	assert.ErrorIs(t, err, domain.ErrInvalidResult)
	assert.False(t, b.IsValid())

	_, err = b.Build()
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestBuilder_UnmappedSymbolsAreSorted(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.SetID("x"))
	require.NoError(t, b.SetResult(item("STONE")))
	require.NoError(t, b.SetPattern("ZA", "MA"))

	err := b.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingIngredient)
	assert.Contains(t, err.Error(), "['A', 'M', 'Z']")
}

func TestBuilder_BlankPatternIsRejected(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.SetID("air"))
	require.NoError(t, b.SetResult(item("STONE")))
	require.NoError(t, b.SetPattern("   ", " "))
	assert.ErrorIs(t, b.Validate(), domain.ErrInvalidPattern)
}

func TestBuilder_ShapelessLimits(t *testing.T) {
	b := NewBuilder().Shapeless()
	require.NoError(t, b.SetID("soup"))
	require.NoError(t, b.SetResult(item("STEW")))
	assert.ErrorIs(t, b.Validate(), domain.ErrInvalidIngredient)

	require.NoError(t, b.AddIngredients(item("BOWL"), 9))
	assert.NoError(t, b.Validate())

	require.NoError(t, b.AddIngredient(item("BOWL")))
	assert.ErrorIs(t, b.Validate(), domain.ErrInvalidIngredient)
}

func TestBuilder_BuildKeepsOnlyActiveKind(t *testing.T) {
	b := torchBuilder(t, "torch")
	require.NoError(t, b.SetIngredient('X', item("DIAMOND")))
	require.NoError(t, b.AddMaterial("DIRT", 2))

	shaped, err := b.Build()
	require.NoError(t, err)
	assert.Empty(t, shaped.Spec().Ingredients)
	assert.Len(t, shaped.Symbols(), 2, "unused symbol X is dropped")

	shapeless, err := b.Shapeless().Build()
	require.NoError(t, err)
	assert.True(t, shapeless.IsShapeless())
	assert.Empty(t, shapeless.Pattern())
	assert.Len(t, shapeless.Ingredients(), 2)
}

func TestBuilder_BuildIsIndependentOfBuilder(t *testing.T) {
	b := torchBuilder(t, "torch")
	r1, err := b.Build()
	require.NoError(t, err)

	require.NoError(t, b.SetIngredient('C', item("CHARCOAL")))
	require.NoError(t, b.SetPattern("C", "C", "S"))

	assert.Equal(t, "COAL", r1.Symbols()['C'].Material)
	assert.Equal(t, []string{"C", "S"}, r1.Pattern())

	r2, err := b.Build()
	require.NoError(t, err)
	assert.False(t, r1.Equal(r2))
}

func TestBuilder_CopyDoesNotAlias(t *testing.T) {
	b := torchBuilder(t, "torch")
	require.NoError(t, b.SetCustomField("tags", []string{"light"}))

	c := b.Copy()
	require.NoError(t, c.SetIngredient('C', item("CHARCOAL")))
	require.NoError(t, c.SetCustomField("tags", []string{"fire"}))
	require.NoError(t, c.SetID("other"))

	r, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "torch", r.ID())
	assert.Equal(t, "COAL", r.Symbols()['C'].Material)
	tags, _ := r.CustomField("tags")
	assert.Equal(t, []any{"light"}, tags)
}

func TestBuilder_CustomFields(t *testing.T) {
	b := torchBuilder(t, "torch")

	assert.ErrorIs(t, b.SetCustomField("one_time", true), domain.ErrReservedField)
	assert.ErrorIs(t, b.SetCustomField("", 1), domain.ErrInvalidInput)
	assert.ErrorIs(t, b.SetCustomField("bad", make(chan int)), domain.ErrInvalidInput)

	require.NoError(t, b.SetCustomField("tier", int64(2)))
	require.NoError(t, b.SetCustomField("glow", true))
	b.SetAddon("lights")
	assert.True(t, b.HasCustomField(domain.FieldAddon))

	require.NoError(t, b.SetCustomField("glow", nil))
	assert.False(t, b.HasCustomField("glow"))

	r, err := b.Build()
	require.NoError(t, err)
	tier, ok := r.CustomInt("tier")
	require.True(t, ok)
	assert.Equal(t, 2, tier)
	assert.Equal(t, "lights", r.Addon())

	b.SetAddon("")
	assert.False(t, b.HasCustomField(domain.FieldAddon))
}

func TestBuilder_CreatorAndTime(t *testing.T) {
	b := torchBuilder(t, "torch")
	local := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("CEST", 7200))
	b.SetCreator("  Steve ").SetCreatedAt(local)

	r, err := b.Build()
	require.NoError(t, err)
	name, ok := r.Creator()
	require.True(t, ok)
	assert.Equal(t, "Steve", name)
	created, ok := r.CreatedAt()
	require.True(t, ok)
	assert.Equal(t, time.UTC, created.Location())
	assert.True(t, local.Equal(created))
}

func TestFromRecipe_RoundTrip(t *testing.T) {
	b := torchBuilder(t, "torch")
	require.NoError(t, b.CraftLimit(4))
	require.NoError(t, b.SetCustomField("tier", 1))
	orig, err := b.Build()
	require.NoError(t, err)

	again, err := FromRecipe(orig).Build()
	require.NoError(t, err)
	assert.True(t, orig.Equal(again))
}

func TestFromSpec_RejectsMalformedInput(t *testing.T) {
	good, err := torchBuilder(t, "torch").Build()
	require.NoError(t, err)

	b, err := FromSpec(good.Spec())
	require.NoError(t, err)
	rebuilt, err := b.Build()
	require.NoError(t, err)
	assert.True(t, good.Equal(rebuilt))

	spec := good.Spec()
	spec.Symbols[' '] = item("STONE")
	_, err = FromSpec(spec)
	assert.ErrorIs(t, err, domain.ErrReservedSymbol)

	spec = good.Spec()
	spec.Result = domain.ItemStack{}
	_, err = FromSpec(spec)
	assert.ErrorIs(t, err, domain.ErrInvalidResult)

	spec = good.Spec()
	spec.CustomFields = map[string]any{"craft_limit": 3}
	_, err = FromSpec(spec)
	assert.ErrorIs(t, err, domain.ErrReservedField)
}

func TestBuilder_Reset(t *testing.T) {
	b := torchBuilder(t, "torch").OneTime(true)
	b.Reset()
	assert.Empty(t, b.ID())
	assert.False(t, b.IsOneTime())
	assert.Empty(t, b.Pattern())
	assert.Empty(t, b.CustomFields())
}

// Validate, IsValid and ValidationErrors must always agree
func TestBuilder_ValidationAgreesProperty(t *testing.T) {
	symbols := []rune{'A', 'B', 'C', ' '}
	rapid.Check(t, func(t *rapid.T) {
		b := NewBuilder()
		if rapid.Bool().Draw(t, "has_id") {
			_ = b.SetID(rapid.SampledFrom([]string{"a", "b_c", "x-1"}).Draw(t, "id"))
		}
		if rapid.Bool().Draw(t, "has_result") {
			_ = b.SetResult(item("STONE"))
		}
		if rapid.Bool().Draw(t, "shapeless") {
			b.Shapeless()
		}
		rows := rapid.SliceOfN(rapid.StringOfN(rapid.SampledFrom(symbols), 1, 3, -1), 0, 3).Draw(t, "rows")
		_ = b.SetPattern(rows...)
		for _, sym := range rapid.SliceOfN(rapid.SampledFrom(symbols[:3]), 0, 3).Draw(t, "mapped") {
			_ = b.SetIngredient(sym, item("IRON"))
		}
		_ = b.AddIngredients(item("DIRT"), rapid.IntRange(0, 9).Draw(t, "shapeless_count"))

		err := b.Validate()
		msgs := b.ValidationErrors()
		if (err == nil) != (len(msgs) == 0) {
			t.Fatalf("Validate=%v but ValidationErrors=%v", err, msgs)
		}
		if b.IsValid() != (err == nil) {
			t.Fatalf("IsValid=%v but Validate=%v", b.IsValid(), err)
		}
		if err != nil {
			if msgs[0] != err.Error() {
				t.Fatalf("first message %q differs from %q", msgs[0], err.Error())
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("%v is not a validation error", err)
			}
		}
	})
}
