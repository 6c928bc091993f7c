package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/osse101/RecipeForge_Go/internal/logger"
	"github.com/osse101/RecipeForge_Go/internal/recipe"
)

// WorldEvictor drops presence entries for a world that no longer exists
type WorldEvictor interface {
	EvictWorld(world string) int
}

// CraftHandler handles craft limit endpoints
type CraftHandler struct {
	service recipe.Service
	players WorldEvictor
}

// NewCraftHandler creates a new craft handler. players may be nil.
func NewCraftHandler(service recipe.Service, players WorldEvictor) *CraftHandler {
	return &CraftHandler{service: service, players: players}
}

// CraftRequest records one craft. Without World the player's current world
// is used.
type CraftRequest struct {
	RecipeID string `json:"recipe_id" validate:"required,recipe_id"`
	PlayerID string `json:"player_id" validate:"required,uuid"`
	World    string `json:"world,omitempty" validate:"world,max=128"`
}

// CraftResponse is the outcome of a craft attempt
type CraftResponse struct {
	Message     string `json:"message"`
	Allowed     bool   `json:"allowed"`
	World       string `json:"world"`
	Remaining   int    `json:"remaining"`
	GlobalCount int    `json:"global_count,omitempty"`
}

// HandleRecordCraft records a craft if the recipe's limit allows it
func (h *CraftHandler) HandleRecordCraft(w http.ResponseWriter, r *http.Request) {
	var req CraftRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Record craft"); err != nil {
		return
	}
	playerID := uuid.MustParse(req.PlayerID)
	ctx := logger.WithAttrs(r.Context(), "recipe_id", req.RecipeID, "player_id", playerID.String(), "world", req.World)
	LogRequestFields(logger.FromContext(ctx), "world_scoped", req.World != "")

	var (
		out recipe.CraftOutcome
		err error
	)
	if req.World != "" {
		out, err = h.service.RecordCraftOutcome(ctx, req.World, req.RecipeID, playerID)
	} else {
		out, err = h.service.RecordPlayerCraftOutcome(ctx, playerID, req.RecipeID)
	}
	if err != nil {
		respondServiceError(w, r, ErrMsgRecordCraftFailed, err)
		return
	}

	resp := CraftResponse{
		Message:     MsgCraftRecorded,
		Allowed:     out.Allowed,
		World:       out.World,
		Remaining:   out.Remaining,
		GlobalCount: out.Count,
	}
	if !out.Allowed {
		resp.Message = MsgCraftDenied
		respondJSON(w, http.StatusConflict, resp)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// CraftCheckResponse answers whether a recipe can be crafted right now
type CraftCheckResponse struct {
	RecipeID  string `json:"recipe_id"`
	World     string `json:"world,omitempty"`
	CanCraft  bool   `json:"can_craft"`
	Remaining int    `json:"remaining"`
}

// HandleCheck reports whether a recipe can be crafted, either in a world or
// in a player's current world.
//
//	GET /crafts/check?recipe_id=torch&world=overworld
//	GET /crafts/check?recipe_id=torch&player_id=<uuid>
func (h *CraftHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := GetQueryParam(r, w, "recipe_id")
	if !ok {
		return
	}
	resp := CraftCheckResponse{RecipeID: recipeID}

	if world := GetOptionalQueryParam(r, "world", ""); world != "" {
		resp.World = world
		resp.CanCraft = h.service.CanCraftInWorld(world, recipeID)
		resp.Remaining = h.service.GetRemainingCraftsInWorld(world, recipeID)
		respondJSON(w, http.StatusOK, resp)
		return
	}

	raw := GetOptionalQueryParam(r, "player_id", "")
	if raw == "" {
		respondError(w, http.StatusBadRequest, ErrMsgWorldRequired)
		return
	}
	playerID, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidPlayerID)
		return
	}
	resp.CanCraft = h.service.CanPlayerCraft(r.Context(), playerID, recipeID)
	resp.Remaining = h.service.GetRemainingCrafts(r.Context(), playerID, recipeID)
	respondJSON(w, http.StatusOK, resp)
}

// WorldCountResponse is a recipe's craft count in one world
type WorldCountResponse struct {
	World     string `json:"world"`
	RecipeID  string `json:"recipe_id"`
	Count     int    `json:"count"`
	Remaining int    `json:"remaining"`
}

// HandleWorldCount returns how often a recipe was crafted in a world
func (h *CraftHandler) HandleWorldCount(w http.ResponseWriter, r *http.Request) {
	world, recipeID := chi.URLParam(r, "world"), chi.URLParam(r, "recipeID")
	if !h.service.RecipeExists(recipeID) {
		respondError(w, http.StatusNotFound, ErrMsgRecipeNotFoundError)
		return
	}
	respondJSON(w, http.StatusOK, WorldCountResponse{
		World:     world,
		RecipeID:  recipeID,
		Count:     h.service.GetGlobalCraftCount(world, recipeID),
		Remaining: h.service.GetRemainingCraftsInWorld(world, recipeID),
	})
}

// HandleCleanupWorld drops every craft counter of a deleted world
func (h *CraftHandler) HandleCleanupWorld(w http.ResponseWriter, r *http.Request) {
	world := chi.URLParam(r, "world")
	if err := GetValidator().ValidateVar(world, "required,world"); err != nil {
		respondError(w, http.StatusBadRequest, ErrMsgInvalidRequestSummary)
		return
	}

	n := h.service.CleanupWorld(r.Context(), world)
	if h.players != nil {
		h.players.EvictWorld(world)
	}
	respondJSON(w, http.StatusOK, CountResponse{Message: MsgWorldCleaned, Count: n})
}

// HandlePrune drops the craft counters of a recipe in every world
func (h *CraftHandler) HandlePrune(w http.ResponseWriter, r *http.Request) {
	n := h.service.PruneCraftCounts(r.Context(), chi.URLParam(r, "recipeID"))
	respondJSON(w, http.StatusOK, CountResponse{Message: MsgRecipePruned, Count: n})
}

// HandleFlush writes pending craft counters to storage
func (h *CraftHandler) HandleFlush(w http.ResponseWriter, r *http.Request) {
	n, err := flush(r.Context(), h.service)
	if err != nil {
		respondServiceError(w, r, ErrMsgFlushCountsFailed, err)
		return
	}
	respondJSON(w, http.StatusOK, CountResponse{Message: MsgCountsFlushed, Count: n})
}

func flush(ctx context.Context, svc recipe.Service) (int, error) {
	future, err := svc.FlushCraftCounts(ctx)
	if err != nil {
		return 0, err
	}
	return future.Await(ctx)
}
