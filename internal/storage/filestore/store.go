// Package filestore keeps one YAML file per recipe and one per world's craft
// counters under a root directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/logger"
	"github.com/osse101/RecipeForge_Go/internal/repository"
	"github.com/osse101/RecipeForge_Go/internal/storage/record"
)

// Store implements repository.Store on the local file system.
// Writes go to a temporary file that is renamed into place, so a crash never
// leaves a half-written record behind.
type Store struct {
	recipesDir string
	countsDir  string
}

var _ repository.Store = (*Store)(nil)

// New creates the directory layout under root if needed
func New(root string) (*Store, error) {
	s := &Store{
		recipesDir: filepath.Join(root, RecipesDirName),
		countsDir:  filepath.Join(root, CountsDirName),
	}
	for _, dir := range []string{s.recipesDir, s.countsDir} {
		if err := os.MkdirAll(dir, DirPermissions); err != nil {
			return nil, fmt.Errorf(ErrMsgCreateDirFailed, dir, err)
		}
	}
	return s, nil
}

func (s *Store) recipePath(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: "+ErrMsgInvalidRecipeFileName, domain.ErrInvalidID, id)
	}
	return filepath.Join(s.recipesDir, id+FileExtension), nil
}

func (s *Store) countsPath(world string) string {
	return filepath.Join(s.countsDir, url.PathEscape(world)+FileExtension)
}

// SaveRecipe writes (or overwrites) the recipe's file
func (s *Store) SaveRecipe(ctx context.Context, r *domain.Recipe) error {
	path, err := s.recipePath(r.ID())
	if err != nil {
		return err
	}
	data, err := record.MarshalRecipe(r)
	if err != nil {
		return fmt.Errorf("failed to encode recipe %s: %w", r.ID(), err)
	}
	return writeAtomic(ctx, path, data)
}

// LoadRecipe reads one recipe file
func (s *Store) LoadRecipe(ctx context.Context, id string) (*domain.Recipe, error) {
	path, err := s.recipePath(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecipeNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe %s: %w", id, err)
	}
	return record.UnmarshalRecipe(data)
}

// LoadAllRecipes reads every recipe file, sorted by id. Unreadable files are
// logged and skipped so one bad file cannot block startup.
func (s *Store) LoadAllRecipes(ctx context.Context) ([]*domain.Recipe, error) {
	log := logger.FromContext(ctx)

	paths, err := listFiles(s.recipesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := make([]*domain.Recipe, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn(LogMsgSkippingCorruptRecipe, "path", path, "error", err)
			continue
		}
		r, err := record.UnmarshalRecipe(data)
		if err != nil {
			log.Warn(LogMsgSkippingCorruptRecipe, "path", path, "error", err)
			continue
		}
		recipes = append(recipes, r)
	}

	sort.Slice(recipes, func(i, j int) bool { return recipes[i].ID() < recipes[j].ID() })
	return recipes, nil
}

// DeleteRecipe removes the recipe's file; a missing file is not an error
func (s *Store) DeleteRecipe(ctx context.Context, id string) error {
	path, err := s.recipePath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete recipe %s: %w", id, err)
	}
	return nil
}

// RecipeExists reports whether a file exists for id
func (s *Store) RecipeExists(ctx context.Context, id string) (bool, error) {
	path, err := s.recipePath(id)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat recipe %s: %w", id, err)
	}
}

// SaveWorldCounts replaces the counter file of one world
func (s *Store) SaveWorldCounts(ctx context.Context, world string, counts repository.WorldCounts) error {
	data, err := record.MarshalCounts(world, counts)
	if err != nil {
		return fmt.Errorf("failed to encode craft counts for %s: %w", world, err)
	}
	return writeAtomic(ctx, s.countsPath(world), data)
}

// LoadAllCounts reads every world's counters. The world name comes from the
// file content, not the escaped file name.
func (s *Store) LoadAllCounts(ctx context.Context) (map[string]repository.WorldCounts, error) {
	log := logger.FromContext(ctx)

	paths, err := listFiles(s.countsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list craft counts: %w", err)
	}

	out := make(map[string]repository.WorldCounts, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn(LogMsgSkippingCorruptCounts, "path", path, "error", err)
			continue
		}
		world, counts, err := record.UnmarshalCounts(data)
		if err != nil || world == "" {
			log.Warn(LogMsgSkippingCorruptCounts, "path", path, "error", err)
			continue
		}
		out[world] = counts
	}
	return out, nil
}

// DeleteWorldCounts removes the counter file of one world
func (s *Store) DeleteWorldCounts(ctx context.Context, world string) error {
	if err := os.Remove(s.countsPath(world)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete craft counts for %s: %w", world, err)
	}
	return nil
}

// Close is a no-op; files are closed after every operation
func (s *Store) Close() error { return nil }

// listFiles returns the record files in dir. Dotfiles are records too: worlds
// may start with "."; temp files end in TempFileSuffix plus a random
// part and so never carry a record extension.
func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(name); ext == FileExtension || ext == ".yaml" {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths, nil
}

func writeAtomic(ctx context.Context, path string, data []byte) error {
	dir, name := filepath.Split(path)
	tmp, err := os.CreateTemp(dir, "."+name+TempFileSuffix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	cleanup := func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			logger.FromContext(ctx).Warn(LogMsgTempCleanupFailed, "path", tmpPath, "error", rmErr)
		}
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, FilePermissions); err != nil {
		cleanup()
		return fmt.Errorf("failed to chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to rename %s: %w", name, err)
	}
	return nil
}
