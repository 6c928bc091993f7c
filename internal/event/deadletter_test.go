package event

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/RecipeForge_Go/internal/domain"
)

func TestDeadLetterWriter_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dead.jsonl")
	w, err := NewDeadLetterWriter(path)
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return fixed }

	r := domain.NewRecipe(domain.RecipeSpec{
		ID:     "beacon",
		Kind:   domain.KindShaped,
		Result: domain.NewItemStack("BEACON", 1),
		Limit:  domain.OneTime(),
	})
	player := uuid.New()

	require.NoError(t, w.Write(NewRecipeCraftedEvent("skyblock", r, player, 1), 5, errors.New("bus down")))
	require.NoError(t, w.Write(NewRecipeUnregisteredEvent("beacon"), 2, nil))
	require.NoError(t, w.Write(NewRecipesReloadedEvent(12), 1, nil))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	entries, err := ReadDeadLetters(f)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	crafted := entries[0]
	assert.Equal(t, DeadLetterSchemaVersion, crafted.SchemaVersion)
	assert.True(t, fixed.Equal(crafted.Timestamp))
	assert.Equal(t, "skyblock", crafted.World)
	assert.Equal(t, "beacon", crafted.RecipeID)
	assert.Equal(t, 5, crafted.Attempts)
	assert.Equal(t, "bus down", crafted.LastError)
	assert.Equal(t, RecipeCrafted, crafted.Event.Type)

	payload, err := DecodePayload[RecipeCraftedPayloadV1](crafted.Event.Payload)
	require.NoError(t, err)
	assert.Equal(t, player, payload.PlayerID)
	assert.Equal(t, 0, payload.Remaining)

	assert.Empty(t, entries[1].World)
	assert.Equal(t, "beacon", entries[1].RecipeID)
	assert.Empty(t, entries[1].LastError)

	assert.Empty(t, entries[2].World)
	assert.Empty(t, entries[2].RecipeID)
}

func TestDeadLetterWriter_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dead.jsonl")
	for i := 0; i < 2; i++ {
		w, err := NewDeadLetterWriter(path)
		require.NoError(t, err)
		require.NoError(t, w.Write(NewWorldCleanedEvent("lobby", i), 1, nil))
		require.NoError(t, w.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	entries, err := ReadDeadLetters(strings.NewReader(string(data)))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "lobby", entries[1].World)
}

func TestReadDeadLetters_Malformed(t *testing.T) {
	log := `{"schema_version":"2","attempts":1,"event":{"type":"recipe.unregistered"}}

{"schema_version":"2",
`
	entries, err := ReadDeadLetters(strings.NewReader(log))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMsgMalformedDeadLetter+" 3")
	require.Len(t, entries, 1, "entries before the bad line are still returned")
	assert.Equal(t, RecipeUnregistered, entries[0].Event.Type)
}

func TestSubjectOf_FallsBackToMetadata(t *testing.T) {
	evt := Event{Type: RecipeCrafted, Payload: map[string]interface{}{}, Metadata: map[string]interface{}{"world": "nether"}}
	world, id := subjectOf(evt)
	assert.Equal(t, "nether", world)
	assert.Empty(t, id)
}
