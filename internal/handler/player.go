package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/osse101/RecipeForge_Go/internal/player"
	"github.com/osse101/RecipeForge_Go/internal/recipe"
)

// PlayerHandler handles player presence and per-player craft history
type PlayerHandler struct {
	service   recipe.Service
	directory *player.Directory
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(service recipe.Service, directory *player.Directory) *PlayerHandler {
	return &PlayerHandler{service: service, directory: directory}
}

// JoinRequest moves a player into a world
type JoinRequest struct {
	Name  string `json:"name,omitempty" validate:"max=64"`
	World string `json:"world" validate:"required,world,max=128"`
}

// HandleJoin records that a player is online in a world
func (h *PlayerHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePlayerID(w, r)
	if !ok {
		return
	}
	var req JoinRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Player join"); err != nil {
		return
	}

	p := h.directory.Join(r.Context(), id, req.Name, req.World)
	respondJSON(w, http.StatusOK, DataResponse{Message: MsgPlayerJoined, Data: p})
}

// HandleLeave marks a player offline
func (h *PlayerHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePlayerID(w, r)
	if !ok {
		return
	}
	if !h.directory.Leave(r.Context(), id) {
		respondError(w, http.StatusNotFound, ErrMsgPlayerNotOnline)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgPlayerLeft})
}

// HandleGetPresence returns where a player is
func (h *PlayerHandler) HandleGetPresence(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePlayerID(w, r)
	if !ok {
		return
	}
	p, ok := h.directory.Lookup(id)
	if !ok {
		respondError(w, http.StatusNotFound, ErrMsgPlayerNotOnline)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// WorldPlayersResponse lists the players online in a world
type WorldPlayersResponse struct {
	World   string      `json:"world"`
	Players []uuid.UUID `json:"players"`
}

// HandleWorldPlayers lists the players currently in a world
func (h *PlayerHandler) HandleWorldPlayers(w http.ResponseWriter, r *http.Request) {
	world := chi.URLParam(r, "world")
	players := h.directory.PlayersIn(world)
	if players == nil {
		players = []uuid.UUID{}
	}
	respondJSON(w, http.StatusOK, WorldPlayersResponse{World: world, Players: players})
}

// PlayerCraftResponse is one player's history with one recipe
type PlayerCraftResponse struct {
	PlayerID    uuid.UUID `json:"player_id"`
	RecipeID    string    `json:"recipe_id"`
	Count       int       `json:"count"`
	EverCrafted bool      `json:"ever_crafted"`
	CanCraft    bool      `json:"can_craft"`
	Remaining   int       `json:"remaining"`
}

// HandlePlayerCrafts returns a player's craft statistics for a recipe
func (h *PlayerHandler) HandlePlayerCrafts(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePlayerID(w, r)
	if !ok {
		return
	}
	recipeID := chi.URLParam(r, "recipeID")
	if !h.service.RecipeExists(recipeID) {
		respondError(w, http.StatusNotFound, ErrMsgRecipeNotFoundError)
		return
	}
	respondJSON(w, http.StatusOK, PlayerCraftResponse{
		PlayerID:    id,
		RecipeID:    recipeID,
		Count:       h.service.GetPlayerCraftCount(id, recipeID),
		EverCrafted: h.service.HasPlayerEverCrafted(id, recipeID),
		CanCraft:    h.service.CanPlayerCraft(r.Context(), id, recipeID),
		Remaining:   h.service.GetRemainingCrafts(r.Context(), id, recipeID),
	})
}

// HandleForget removes a player who left the server for good: presence and
// per-player statistics go, world counters stay
func (h *PlayerHandler) HandleForget(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePlayerID(w, r)
	if !ok {
		return
	}
	h.directory.Leave(r.Context(), id)
	n := h.service.CleanupPlayer(r.Context(), id)
	respondJSON(w, http.StatusOK, CountResponse{Message: MsgPlayerForgotten, Count: n})
}

// HandleStats returns presence cache statistics
func (h *PlayerHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.directory.Stats())
}
