package recipe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/logger"
	"github.com/osse101/RecipeForge_Go/internal/storage/record"
	"github.com/osse101/RecipeForge_Go/internal/validation"
)

// Bundle is a YAML file of recipes shipped by one addon
type Bundle struct {
	Addon   string                `yaml:"addon"`
	Recipes []record.RecipeRecord `yaml:"recipes"`
}

// ParseBundle decodes a bundle after checking it against the bundle schema.
// name is only used in error messages.
func ParseBundle(name string, data []byte) (*Bundle, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf(ErrMsgParseBundleFailed, name, err)
	}
	if doc == nil {
		return &Bundle{}, nil
	}
	if err := validation.ValidateBundle(doc); err != nil {
		return nil, fmt.Errorf(ErrMsgParseBundleFailed, name, err)
	}

	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf(ErrMsgParseBundleFailed, name, err)
	}
	return &b, nil
}

// ReadBundle reads and decodes the bundle at path
func ReadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgReadBundleFailed, path, err)
	}
	return ParseBundle(path, data)
}

// Builders converts every record of the bundle. Records that fail are
// reported in the joined error and left out of the result; the bundle's
// addon is applied to records that do not name one.
func (b *Bundle) Builders(name string) ([]*Builder, error) {
	builders := make([]*Builder, 0, len(b.Recipes))
	var errs []error
	for i, rec := range b.Recipes {
		bld, err := builderFromRecord(rec)
		if err == nil {
			err = bld.Validate()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf(ErrMsgBundleRecipe, name, i, rec.ID, err))
			continue
		}
		if b.Addon != "" && !bld.HasCustomField(domain.FieldAddon) {
			bld.SetAddon(b.Addon)
		}
		builders = append(builders, bld)
	}
	return builders, errors.Join(errs...)
}

func builderFromRecord(rec record.RecipeRecord) (*Builder, error) {
	spec, err := rec.Spec()
	if err != nil {
		return nil, err
	}
	return FromSpec(spec)
}

// FromSpec creates a builder by running every field of spec through the
// checked setters, so malformed input is reported rather than copied
func FromSpec(spec domain.RecipeSpec) (*Builder, error) {
	b := NewBuilder()
	if err := b.SetID(spec.ID); err != nil {
		return nil, err
	}
	if err := b.SetResult(spec.Result); err != nil {
		return nil, err
	}

	if spec.Kind == domain.KindShapeless {
		b.Shapeless()
		for _, item := range spec.Ingredients {
			if err := b.AddIngredient(item); err != nil {
				return nil, err
			}
		}
	} else {
		b.Shaped()
		if err := b.SetPattern(spec.Pattern...); err != nil {
			return nil, err
		}
		symbols := make([]rune, 0, len(spec.Symbols))
		for sym := range spec.Symbols {
			symbols = append(symbols, sym)
		}
		slices.Sort(symbols)
		for _, sym := range symbols {
			if err := b.SetIngredient(sym, spec.Symbols[sym]); err != nil {
				return nil, err
			}
		}
	}

	switch {
	case spec.Limit.IsOneTime():
		b.OneTime(true)
	case spec.Limit.HasCraftLimit():
		if err := b.CraftLimit(spec.Limit.Max()); err != nil {
			return nil, err
		}
	}

	keys := make([]string, 0, len(spec.CustomFields))
	for k := range spec.CustomFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := b.SetCustomField(k, spec.CustomFields[k]); err != nil {
			return nil, err
		}
	}

	if spec.Creator != "" {
		b.SetCreator(spec.Creator)
	}
	if !spec.CreatedAt.IsZero() {
		b.SetCreatedAt(spec.CreatedAt)
	}
	return b, nil
}

// Loader registers bundle files with a Service
type Loader struct {
	svc     Service
	persist bool
}

// NewLoader creates a loader. With persist set, registered recipes are also
// written to storage.
func NewLoader(svc Service, persist bool) *Loader {
	return &Loader{svc: svc, persist: persist}
}

// LoadFile registers every valid recipe of one bundle and returns how many
// were registered. Recipes already registered are reported, not replaced.
func (l *Loader) LoadFile(ctx context.Context, path string) (int, error) {
	log := logger.FromContext(ctx)

	bundle, err := ReadBundle(path)
	if err != nil {
		return 0, err
	}
	builders, buildErr := bundle.Builders(path)
	if buildErr != nil {
		log.Warn(LogMsgBundleRecipeSkipped, "path", path, "error", buildErr)
	}

	n := 0
	errs := []error{buildErr}
	for _, b := range builders {
		if err := l.register(ctx, b); err != nil {
			log.Warn(LogMsgBundleRecipeSkipped, "path", path, "recipe_id", b.ID(), "error", err)
			errs = append(errs, err)
			continue
		}
		log.Debug(LogMsgBundleRecipeRegistered, "path", path, "recipe_id", b.ID())
		n++
	}

	log.Info(LogMsgBundleLoaded, "path", path, "addon", bundle.Addon, "registered", n, "total", len(bundle.Recipes))
	return n, errors.Join(errs...)
}

func (l *Loader) register(ctx context.Context, b *Builder) error {
	if !l.persist {
		_, err := l.svc.RegisterRecipe(ctx, b)
		return err
	}
	f, err := l.svc.RegisterRecipeAsync(ctx, b)
	if err != nil {
		return err
	}
	_, err = f.Await(ctx)
	return err
}

// LoadDir loads every bundle file directly inside dir in name order
func (l *Loader) LoadDir(ctx context.Context, dir string) (int, error) {
	files, err := ListBundles(dir)
	if err != nil {
		return 0, err
	}
	total := 0
	var errs []error
	for _, path := range files {
		n, err := l.LoadFile(ctx, path)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// ListBundles returns the bundle files directly inside dir, sorted
func ListBundles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf(ErrMsgListBundlesFailed, dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(BundleExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
