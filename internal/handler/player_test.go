package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/RecipeForge_Go/internal/player"
)

func TestHandleJoinAndLeave(t *testing.T) {
	h := newHarness(t)
	steve := uuid.New()
	path := "/players/" + steve.String() + "/presence"

	w := h.do(t, http.MethodPut, path, JoinRequest{Name: "Steve", World: "overworld"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), MsgPlayerJoined)

	w = h.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[player.Presence](t, w)
	assert.Equal(t, steve, p.PlayerID)
	assert.Equal(t, "overworld", p.World)

	w = h.do(t, http.MethodGet, "/worlds/overworld/players", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []uuid.UUID{steve}, decode[WorldPlayersResponse](t, w).Players)

	w = h.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = h.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodGet, "/worlds/overworld/players", nil)
	assert.JSONEq(t, `{"world":"overworld","players":[]}`, w.Body.String())
}

func TestHandleJoin_BadInput(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPut, "/players/not-a-uuid/presence", JoinRequest{World: "overworld"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), ErrMsgInvalidPlayerID)

	w = h.do(t, http.MethodPut, "/players/"+uuid.NewString()+"/presence", JoinRequest{Name: "Steve"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"world"`)
}

func TestHandlePlayerCrafts(t *testing.T) {
	h := newHarness(t)
	h.register(t, relicRequest())
	steve := uuid.New()
	h.dir.Join(t.Context(), steve, "Steve", "overworld")

	path := "/players/" + steve.String() + "/crafts/relic"
	w := h.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[PlayerCraftResponse](t, w)
	assert.False(t, resp.EverCrafted)
	assert.True(t, resp.CanCraft)
	assert.Equal(t, 1, resp.Remaining)

	_, err := h.svc.RecordPlayerCraft(t.Context(), steve, "relic")
	require.NoError(t, err)

	w = h.do(t, http.MethodGet, path, nil)
	resp = decode[PlayerCraftResponse](t, w)
	assert.Equal(t, 1, resp.Count)
	assert.True(t, resp.EverCrafted)
	assert.False(t, resp.CanCraft)
	assert.Equal(t, 0, resp.Remaining)

	w = h.do(t, http.MethodGet, "/players/"+steve.String()+"/crafts/lantern", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleForget(t *testing.T) {
	h := newHarness(t)
	h.register(t, torchRequest("torch"))
	steve := uuid.New()
	h.dir.Join(t.Context(), steve, "Steve", "overworld")
	_, err := h.svc.RecordPlayerCraft(t.Context(), steve, "torch")
	require.NoError(t, err)

	w := h.do(t, http.MethodDelete, "/players/"+steve.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[CountResponse](t, w).Count)

	assert.False(t, h.svc.HasPlayerEverCrafted(steve, "torch"))
	assert.Equal(t, 1, h.svc.GetGlobalCraftCount("overworld", "torch"), "world counters stay")
	_, online := h.dir.CurrentWorld(t.Context(), steve)
	assert.False(t, online)
}
