package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/event"
	"github.com/osse101/RecipeForge_Go/internal/persistence"
	"github.com/osse101/RecipeForge_Go/internal/player"
	"github.com/osse101/RecipeForge_Go/internal/recipe"
	"github.com/osse101/RecipeForge_Go/internal/storage/filestore"
)

// harness wires real services behind a router shaped like the server's
type harness struct {
	svc    recipe.Service
	dir    *player.Directory
	router chi.Router
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store, err := filestore.New(t.TempDir())
	require.NoError(t, err)
	gw := persistence.NewGateway(store, persistence.Config{
		Workers:    2,
		QueueSize:  16,
		RetryDelay: time.Millisecond,
	})
	dir := player.NewDirectory(player.Config{Size: 100, TTL: time.Hour})
	svc := recipe.NewService(gw, dir, event.NewMemoryBus(), nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Close(ctx)
	})

	recipes := NewRecipeHandler(svc)
	crafts := NewCraftHandler(svc, dir)
	players := NewPlayerHandler(svc, dir)

	r := chi.NewRouter()
	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", recipes.HandleList)
		r.Post("/", recipes.HandleRegister)
		r.Get("/ids", recipes.HandleIDs)
		r.Post("/reload", recipes.HandleReload)
		r.Post("/unregister", recipes.HandleBulkUnregister)
		r.Get("/{recipeID}", recipes.HandleGet)
		r.Put("/{recipeID}", recipes.HandleUpdate)
		r.Delete("/{recipeID}", recipes.HandleUnregister)
		r.Post("/{recipeID}/save", recipes.HandleSave)
		r.Get("/{recipeID}/persisted", recipes.HandlePersisted)
		r.Delete("/{recipeID}/crafts", crafts.HandlePrune)
	})
	r.Post("/crafts", crafts.HandleRecordCraft)
	r.Get("/crafts/check", crafts.HandleCheck)
	r.Post("/crafts/flush", crafts.HandleFlush)
	r.Get("/worlds/{world}/crafts/{recipeID}", crafts.HandleWorldCount)
	r.Delete("/worlds/{world}/crafts", crafts.HandleCleanupWorld)
	r.Get("/worlds/{world}/players", players.HandleWorldPlayers)
	r.Put("/players/{playerID}/presence", players.HandleJoin)
	r.Delete("/players/{playerID}/presence", players.HandleLeave)
	r.Get("/players/{playerID}/presence", players.HandleGetPresence)
	r.Get("/players/{playerID}/crafts/{recipeID}", players.HandlePlayerCrafts)
	r.Delete("/players/{playerID}", players.HandleForget)

	return &harness{svc: svc, dir: dir, router: r}
}

// do sends body as JSON (nil for none) and returns the recorded response
func (h *harness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// torchRequest is a valid shaped recipe body
func torchRequest(id string) RecipeRequest {
	return RecipeRequest{
		ID:     id,
		Type:   "SHAPED",
		Result: domain.NewItemStack("TORCH", 4),
		Shape:  []string{"C", "S"},
		Ingredients: map[string]domain.ItemStack{
			"C": domain.NewItemStack("COAL", 1),
			"S": domain.NewItemStack("STICK", 1),
		},
	}
}

// register adds a recipe through the API and fails the test otherwise
func (h *harness) register(t *testing.T, req RecipeRequest) {
	t.Helper()
	w := h.do(t, http.MethodPost, "/recipes", req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
