package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/osse101/RecipeForge_Go/internal/recipe"
)

// SyncRecipeBundles registers the addon bundles found in dir. A missing
// directory is not an error. Individual recipes that fail to register are
// logged and skipped; only an unreadable directory fails the sync.
func SyncRecipeBundles(ctx context.Context, svc recipe.Service, dir string) (int, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		slog.Info(LogMsgBundleDirMissing, "dir", dir)
		return 0, nil
	}

	slog.Info(LogMsgSyncingBundles, "dir", dir)
	if _, err := recipe.ListBundles(dir); err != nil {
		return 0, err
	}

	n, err := recipe.NewLoader(svc, false).LoadDir(ctx, dir)
	if err != nil {
		slog.Warn(LogMsgBundleSyncIncomplete, "dir", dir, "error", err)
	}
	slog.Info(LogMsgBundlesSynced, "dir", dir, "registered", n, "total", svc.RecipeCount())
	return n, nil
}
