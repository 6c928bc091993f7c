package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/logger"
	"github.com/osse101/RecipeForge_Go/internal/recipe"
	"github.com/osse101/RecipeForge_Go/internal/storage/record"
)

// RecipeHandler handles recipe registry endpoints
type RecipeHandler struct {
	service recipe.Service
}

// NewRecipeHandler creates a new recipe handler
func NewRecipeHandler(service recipe.Service) *RecipeHandler {
	return &RecipeHandler{service: service}
}

// RecipeRequest is the request body for registering or updating a recipe.
// With Persist set the change is also written to storage and the response
// waits for it.
type RecipeRequest struct {
	ID                   string                      `json:"id" validate:"required,recipe_id,max=64"`
	Type                 string                      `json:"type" validate:"required,oneof=SHAPED SHAPELESS shaped shapeless"`
	Result               domain.ItemStack            `json:"result"`
	Shape                []string                    `json:"shape,omitempty" validate:"max=3"`
	Ingredients          map[string]domain.ItemStack `json:"ingredients,omitempty"`
	ShapelessIngredients []domain.ItemStack          `json:"shapeless_ingredients,omitempty" validate:"max=9"`
	OneTime              bool                        `json:"one_time,omitempty"`
	CraftLimit           int                         `json:"craft_limit,omitempty" validate:"min=0"`
	Creator              string                      `json:"creator,omitempty" validate:"max=64"`
	Addon                string                      `json:"addon,omitempty" validate:"max=64"`
	CustomFields         map[string]any              `json:"custom_fields,omitempty"`
	Persist              bool                        `json:"persist,omitempty"`
}

// builder runs the request through the record codec and the checked setters
func (req RecipeRequest) builder() (*recipe.Builder, error) {
	rec := record.RecipeRecord{
		ID:                   req.ID,
		Type:                 req.Type,
		Result:               req.Result,
		Shape:                req.Shape,
		Ingredients:          req.Ingredients,
		ShapelessIngredients: req.ShapelessIngredients,
		OneTime:              req.OneTime,
		CraftLimit:           req.CraftLimit,
		Creator:              req.Creator,
		CustomFields:         req.CustomFields,
	}
	spec, err := rec.Spec()
	if err != nil {
		return nil, err
	}
	b, err := recipe.FromSpec(spec)
	if err != nil {
		return nil, err
	}
	if req.Addon != "" {
		b.SetAddon(req.Addon)
	}
	return b, nil
}

// RecipeResponse is the JSON form of a registered recipe
type RecipeResponse struct {
	ID                   string                      `json:"id"`
	Type                 string                      `json:"type"`
	Result               domain.ItemStack            `json:"result"`
	Shape                []string                    `json:"shape,omitempty"`
	Ingredients          map[string]domain.ItemStack `json:"ingredients,omitempty"`
	ShapelessIngredients []domain.ItemStack          `json:"shapeless_ingredients,omitempty"`
	Limit                string                      `json:"limit"`
	CraftLimit           int                         `json:"craft_limit"` // -1 when unlimited
	Creator              string                      `json:"creator,omitempty"`
	Addon                string                      `json:"addon,omitempty"`
	CreatedAt            *time.Time                  `json:"created_at,omitempty"`
	CustomFields         map[string]any              `json:"custom_fields,omitempty"`
}

func newRecipeResponse(r *domain.Recipe) RecipeResponse {
	rec := record.FromDomain(r)
	resp := RecipeResponse{
		ID:                   rec.ID,
		Type:                 rec.Type,
		Result:               rec.Result,
		Shape:                rec.Shape,
		Ingredients:          rec.Ingredients,
		ShapelessIngredients: rec.ShapelessIngredients,
		Limit:                r.Limit().String(),
		CraftLimit:           r.Limit().Max(),
		Creator:              rec.Creator,
		Addon:                r.Addon(),
		CustomFields:         rec.CustomFields,
	}
	if t, ok := r.CreatedAt(); ok {
		resp.CreatedAt = &t
	}
	return resp
}

func newRecipeList(recipes []*domain.Recipe) []RecipeResponse {
	out := make([]RecipeResponse, len(recipes))
	for i, r := range recipes {
		out[i] = newRecipeResponse(r)
	}
	return out
}

// RecipeListResponse is the response for recipe queries
type RecipeListResponse struct {
	Count   int              `json:"count"`
	Recipes []RecipeResponse `json:"recipes"`
}

// HandleList lists recipes. At most one filter applies, checked in the
// order result, creator, addon, limit.
//
//	GET /recipes?result=TORCH
//	GET /recipes?creator=steve
//	GET /recipes?addon=lights
//	GET /recipes?limit=one_time|limited
func (h *RecipeHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var recipes []*domain.Recipe
	q := r.URL.Query()
	switch {
	case q.Get("result") != "":
		recipes = h.service.FindRecipesByResult(domain.NewItemStack(q.Get("result"), 1))
	case q.Get("creator") != "":
		recipes = h.service.FindRecipesByCreator(q.Get("creator"))
	case q.Get("addon") != "":
		recipes = h.service.GetRecipesByAddon(q.Get("addon"))
	case q.Get("limit") != "":
		switch strings.ToLower(q.Get("limit")) {
		case "one_time":
			recipes = h.service.GetOneTimeRecipes()
		case "limited":
			recipes = h.service.GetLimitedRecipes()
		default:
			respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:  ErrMsgInvalidRequestSummary,
				Fields: map[string]string{"limit": "Must be one of: one_time limited"},
			})
			return
		}
	default:
		recipes = h.service.GetAllRecipes()
	}

	respondJSON(w, http.StatusOK, RecipeListResponse{Count: len(recipes), Recipes: newRecipeList(recipes)})
}

// HandleIDs returns the sorted ids of every registered recipe
func (h *RecipeHandler) HandleIDs(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, DataResponse{Data: h.service.RecipeIDs()})
}

// HandleGet returns one recipe
func (h *RecipeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recipeID")
	rec, ok := h.service.GetRecipe(id)
	if !ok {
		respondError(w, http.StatusNotFound, ErrMsgRecipeNotFoundError)
		return
	}
	respondJSON(w, http.StatusOK, newRecipeResponse(rec))
}

// HandleRegister registers a new recipe
func (h *RecipeHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RecipeRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Register recipe"); err != nil {
		return
	}
	LogRequestFields(logger.FromContext(r.Context()), "recipe_id", req.ID, "persist", req.Persist)

	b, err := req.builder()
	if err != nil {
		respondServiceError(w, r, ErrMsgRegisterRecipeFailed, err)
		return
	}

	if !req.Persist {
		registered, err := h.service.RegisterRecipe(r.Context(), b)
		if err != nil {
			respondServiceError(w, r, ErrMsgRegisterRecipeFailed, err)
			return
		}
		respondJSON(w, http.StatusCreated, DataResponse{Message: MsgRecipeRegistered, Data: newRecipeResponse(registered)})
		return
	}

	future, err := h.service.RegisterRecipeAsync(r.Context(), b)
	if err == nil {
		_, err = future.Await(r.Context())
	}
	if err != nil {
		respondServiceError(w, r, ErrMsgRegisterRecipeFailed, err)
		return
	}
	if registered, ok := h.recipeAfterSave(w, r, b.ID()); ok {
		respondJSON(w, http.StatusCreated, DataResponse{Message: MsgRecipeRegistered, Data: newRecipeResponse(registered)})
	}
}

// HandleUpdate replaces a registered recipe. The id in the path wins over
// the body.
func (h *RecipeHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req RecipeRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Update recipe"); err != nil {
		return
	}
	req.ID = chi.URLParam(r, "recipeID")

	b, err := req.builder()
	if err != nil {
		respondServiceError(w, r, ErrMsgUpdateRecipeFailed, err)
		return
	}

	if !req.Persist {
		updated, err := h.service.UpdateRecipe(r.Context(), b)
		if err != nil {
			respondServiceError(w, r, ErrMsgUpdateRecipeFailed, err)
			return
		}
		respondJSON(w, http.StatusOK, DataResponse{Message: MsgRecipeUpdated, Data: newRecipeResponse(updated)})
		return
	}

	future, err := h.service.UpdateRecipeAsync(r.Context(), b)
	if err == nil {
		_, err = future.Await(r.Context())
	}
	if err != nil {
		respondServiceError(w, r, ErrMsgUpdateRecipeFailed, err)
		return
	}
	if updated, ok := h.recipeAfterSave(w, r, b.ID()); ok {
		respondJSON(w, http.StatusOK, DataResponse{Message: MsgRecipeUpdated, Data: newRecipeResponse(updated)})
	}
}

// recipeAfterSave looks the recipe up once its save has finished. Another
// request may have unregistered it meanwhile; that answers 409 and ok is false.
func (h *RecipeHandler) recipeAfterSave(w http.ResponseWriter, r *http.Request, id string) (*domain.Recipe, bool) {
	rec, ok := h.service.GetRecipe(id)
	if !ok {
		logger.FromContext(r.Context()).Warn("Recipe unregistered before its save completed", "recipe_id", id)
		respondError(w, http.StatusConflict, ErrMsgRecipeGoneError)
		return nil, false
	}
	return rec, true
}

// HandleUnregister removes a recipe from memory, and from storage too with
// ?delete=true
func (h *RecipeHandler) HandleUnregister(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recipeID")

	if GetOptionalQueryParam(r, "delete", "false") != "true" {
		if !h.service.UnregisterRecipe(r.Context(), id) {
			respondError(w, http.StatusNotFound, ErrMsgRecipeNotFoundError)
			return
		}
		respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgRecipeUnregistered})
		return
	}

	future, err := h.service.UnregisterRecipeAndDelete(r.Context(), id)
	if err == nil {
		_, err = future.Await(r.Context())
	}
	if err != nil {
		respondServiceError(w, r, ErrMsgUnregisterRecipeFailed, err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgRecipeUnregistered})
}

// BulkUnregisterRequest is the request body for removing several recipes
type BulkUnregisterRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1,dive,required"`
	Delete bool     `json:"delete,omitempty"`
}

// CountResponse reports how many entries an operation affected
type CountResponse struct {
	Message string `json:"message,omitempty"`
	Count   int    `json:"count"`
}

// HandleBulkUnregister removes every listed recipe that is registered
func (h *RecipeHandler) HandleBulkUnregister(w http.ResponseWriter, r *http.Request) {
	var req BulkUnregisterRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Unregister recipes"); err != nil {
		return
	}

	if !req.Delete {
		n := h.service.UnregisterRecipes(r.Context(), req.IDs)
		respondJSON(w, http.StatusOK, CountResponse{Message: MsgRecipeUnregistered, Count: n})
		return
	}

	future, err := h.service.UnregisterRecipesAndDelete(r.Context(), req.IDs)
	if err != nil {
		respondServiceError(w, r, ErrMsgUnregisterRecipeFailed, err)
		return
	}
	n, err := future.Await(r.Context())
	if err != nil {
		respondServiceError(w, r, ErrMsgUnregisterRecipeFailed, err)
		return
	}
	respondJSON(w, http.StatusOK, CountResponse{Message: MsgRecipeUnregistered, Count: n})
}

// PersistedResponse reports whether storage holds a recipe
type PersistedResponse struct {
	ID        string `json:"id"`
	Persisted bool   `json:"persisted"`
}

// HandlePersisted reports whether a recipe is in storage
func (h *RecipeHandler) HandlePersisted(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recipeID")
	future, err := h.service.IsRecipePersisted(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, "Check recipe persisted", err)
		return
	}
	ok, err := future.Await(r.Context())
	if err != nil {
		respondServiceError(w, r, "Check recipe persisted", err)
		return
	}
	respondJSON(w, http.StatusOK, PersistedResponse{ID: id, Persisted: ok})
}

// HandleSave writes a registered recipe to storage
func (h *RecipeHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	future, err := h.service.SaveRecipe(r.Context(), chi.URLParam(r, "recipeID"))
	if err == nil {
		_, err = future.Await(r.Context())
	}
	if err != nil {
		respondServiceError(w, r, ErrMsgSaveRecipeFailed, err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgRecipeSaved})
}

// HandleReload replaces the registry with the recipes in storage
func (h *RecipeHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	future, err := h.service.ReloadRecipes(r.Context())
	if err != nil {
		respondServiceError(w, r, ErrMsgReloadRecipesFailed, err)
		return
	}
	n, err := future.Await(r.Context())
	if err != nil {
		respondServiceError(w, r, ErrMsgReloadRecipesFailed, err)
		return
	}
	respondJSON(w, http.StatusOK, CountResponse{Message: MsgRecipesReloaded, Count: n})
}
