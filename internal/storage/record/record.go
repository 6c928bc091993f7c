// Package record is the YAML form of recipes and craft counters shared by
// every storage backend.
package record

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/repository"
)

// SchemaVersion is written into every record
const SchemaVersion = 1

// RecipeRecord is the on-disk shape of one recipe
type RecipeRecord struct {
	SchemaVersion        int                         `yaml:"schema_version,omitempty"`
	ID                   string                      `yaml:"id"`
	Type                 string                      `yaml:"type"`
	Result               domain.ItemStack            `yaml:"result"`
	Shape                []string                    `yaml:"shape,omitempty"`
	Ingredients          map[string]domain.ItemStack `yaml:"ingredients,omitempty"`
	ShapelessIngredients []domain.ItemStack          `yaml:"shapeless_ingredients,omitempty"`
	OneTime              bool                        `yaml:"one_time,omitempty"`
	CraftLimit           int                         `yaml:"craft_limit,omitempty"`
	Creator              string                      `yaml:"creator,omitempty"`
	CreationTime         string                      `yaml:"creation_time,omitempty"`
	CustomFields         map[string]any              `yaml:"custom_fields,omitempty"`
}

// CountsRecord is the on-disk shape of one world's craft counters
type CountsRecord struct {
	SchemaVersion int                    `yaml:"schema_version"`
	World         string                 `yaml:"world"`
	Counts        repository.WorldCounts `yaml:"counts"`
}

// FromDomain converts a recipe to its record
func FromDomain(r *domain.Recipe) RecipeRecord {
	spec := r.Spec()
	rec := RecipeRecord{
		SchemaVersion: SchemaVersion,
		ID:            spec.ID,
		Type:          string(spec.Kind),
		Result:        spec.Result,
		Creator:       spec.Creator,
		CustomFields:  spec.CustomFields,
	}

	switch spec.Kind {
	case domain.KindShaped:
		rec.Shape = spec.Pattern
		rec.Ingredients = make(map[string]domain.ItemStack, len(spec.Symbols))
		for sym, item := range spec.Symbols {
			rec.Ingredients[string(sym)] = item
		}
	default:
		rec.ShapelessIngredients = spec.Ingredients
	}

	switch {
	case spec.Limit.IsOneTime():
		rec.OneTime = true
	case spec.Limit.HasCraftLimit():
		rec.CraftLimit = spec.Limit.Max()
	}

	if !spec.CreatedAt.IsZero() {
		rec.CreationTime = spec.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return rec
}

// Spec converts the record back to a recipe field set. Only structural
// problems are reported here; full validation belongs to the builder.
func (rec RecipeRecord) Spec() (domain.RecipeSpec, error) {
	spec := domain.RecipeSpec{
		ID:           strings.ToLower(rec.ID),
		Result:       rec.Result,
		Creator:      rec.Creator,
		CustomFields: rec.CustomFields,
	}
	if spec.ID == "" {
		return spec, fmt.Errorf("%w: record without id", domain.ErrInvalidID)
	}

	switch strings.ToUpper(rec.Type) {
	case string(domain.KindShaped):
		spec.Kind = domain.KindShaped
		spec.Pattern = rec.Shape
		spec.Symbols = make(map[rune]domain.ItemStack, len(rec.Ingredients))
		for key, item := range rec.Ingredients {
			sym, size := utf8.DecodeRuneInString(key)
			if size == 0 || size != len(key) {
				return spec, fmt.Errorf("%w: ingredient key %q is not a single symbol", domain.ErrInvalidPattern, key)
			}
			spec.Symbols[sym] = item
		}
	case string(domain.KindShapeless), "":
		spec.Kind = domain.KindShapeless
		spec.Ingredients = rec.ShapelessIngredients
	default:
		return spec, fmt.Errorf("%w: unknown recipe type %q", domain.ErrInvalidInput, rec.Type)
	}

	if rec.OneTime {
		spec.Limit = domain.OneTime()
	} else {
		spec.Limit = domain.Limited(rec.CraftLimit)
	}

	if rec.CreationTime != "" {
		t, err := time.Parse(time.RFC3339Nano, rec.CreationTime)
		if err != nil {
			return spec, fmt.Errorf("%w: creation_time: %v", domain.ErrInvalidInput, err)
		}
		spec.CreatedAt = t
	}
	return spec, nil
}

// ToDomain converts the record to a recipe without builder validation
func (rec RecipeRecord) ToDomain() (*domain.Recipe, error) {
	spec, err := rec.Spec()
	if err != nil {
		return nil, err
	}
	return domain.NewRecipe(spec), nil
}

// MarshalRecipe encodes a recipe as a YAML document
func MarshalRecipe(r *domain.Recipe) ([]byte, error) {
	return yaml.Marshal(FromDomain(r))
}

// UnmarshalRecipe decodes a YAML document produced by MarshalRecipe
func UnmarshalRecipe(data []byte) (*domain.Recipe, error) {
	var rec RecipeRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return rec.ToDomain()
}

// MarshalCounts encodes one world's counters
func MarshalCounts(world string, counts repository.WorldCounts) ([]byte, error) {
	return yaml.Marshal(CountsRecord{SchemaVersion: SchemaVersion, World: world, Counts: counts})
}

// UnmarshalCounts decodes a document produced by MarshalCounts
func UnmarshalCounts(data []byte) (string, repository.WorldCounts, error) {
	var rec CountsRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return "", nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if rec.Counts == nil {
		rec.Counts = repository.WorldCounts{}
	}
	return rec.World, rec.Counts, nil
}

// CanonicalValue returns v as it reads back from YAML, so that custom fields
// compare equal before and after a storage round trip.
func CanonicalValue(v any) (out any, err error) {
	// yaml.v3 panics on funcs and channels instead of returning an error
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: unsupported value: %v", domain.ErrInvalidInput, r)
		}
	}()

	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return out, nil
}
