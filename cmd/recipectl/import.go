package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osse101/RecipeForge_Go/internal/persistence"
	"github.com/osse101/RecipeForge_Go/internal/player"
	"github.com/osse101/RecipeForge_Go/internal/recipe"
)

var importCmd = &cobra.Command{
	Use:   "import <bundle|dir>...",
	Short: "Write bundle recipes into storage",
	Long: `Load the stored recipes, register every valid bundle recipe on top and
persist it. Recipes whose id is already stored are skipped and reported.

Run this against a stopped service: a running one does not see the new
recipes until it reloads.

Examples:
  recipectl import configs/recipes
  recipectl --backend postgres import addons/lights.yaml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		files, err := expandBundles(args)
		if err != nil {
			return err
		}

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		svc := recipe.NewService(persistence.NewGateway(store, persistence.Config{}), player.NewDirectory(player.Config{}), nil, nil)
		defer svc.Close(context.WithoutCancel(ctx))

		if err := svc.Start(ctx); err != nil {
			return err
		}

		loader := recipe.NewLoader(svc, true)
		total := 0
		for _, path := range files {
			n, err := loader.LoadFile(ctx, path)
			total += n
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d recipes, %d stored in total\n", total, svc.RecipeCount())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
