package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/osse101/RecipeForge_Go/internal/recipe"
)

var errInvalidBundles = errors.New("invalid recipes found")

var validateCmd = &cobra.Command{
	Use:   "validate <bundle|dir>...",
	Short: "Check recipe bundles without touching storage",
	Long: `Parse each bundle and run every recipe through the builder checks.
Directories are expanded to the .yml/.yaml files directly inside them.

Exits non-zero when any recipe is invalid.

Examples:
  recipectl validate configs/recipes
  recipectl validate lights.yaml food.yml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandBundles(args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		bad := 0
		for _, path := range files {
			bundle, err := recipe.ReadBundle(path)
			if err != nil {
				fmt.Fprintf(out, "FAIL %s: %v\n", path, err)
				bad++
				continue
			}
			builders, err := bundle.Builders(path)
			if err != nil {
				fmt.Fprintf(out, "FAIL %s\n", path)
				for _, e := range unjoin(err) {
					fmt.Fprintf(out, "  - %v\n", e)
				}
				bad += len(bundle.Recipes) - len(builders)
				continue
			}
			fmt.Fprintf(out, "ok   %s (%d recipes)\n", path, len(builders))
		}

		if bad > 0 {
			return fmt.Errorf("%w: %d", errInvalidBundles, bad)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// expandBundles replaces directory arguments with the bundles they hold
func expandBundles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := recipe.ListBundles(arg)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// unjoin flattens an errors.Join result
func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
