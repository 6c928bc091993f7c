package recipe

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/RecipeForge_Go/internal/domain"
	"github.com/osse101/RecipeForge_Go/internal/repository"
)

func TestLedger_OneTimeGrantsOnce(t *testing.T) {
	l := NewLedger()
	steve, alex := uuid.New(), uuid.New()

	ok, n := l.RecordCraft("w1", "relic", steve, domain.OneTime())
	assert.True(t, ok)
	assert.Equal(t, 1, n)

	ok, n = l.RecordCraft("w1", "relic", alex, domain.OneTime())
	assert.False(t, ok, "the limit is per world, not per player")
	assert.Equal(t, 1, n)

	assert.False(t, l.CanCraft("w1", "relic", domain.OneTime()))
	assert.Equal(t, 0, l.Remaining("w1", "relic", domain.OneTime()))
	assert.Equal(t, 1, l.PlayerCount(steve, "relic"))
	assert.Equal(t, 0, l.PlayerCount(alex, "relic"))
}

func TestLedger_WorldsAreIndependent(t *testing.T) {
	l := NewLedger()
	p := uuid.New()
	policy := domain.Limited(2)

	for i := 0; i < 2; i++ {
		ok, _ := l.RecordCraft("w1", "lamp", p, policy)
		require.True(t, ok)
	}
	assert.False(t, l.CanCraft("w1", "lamp", policy))
	assert.True(t, l.CanCraft("w2", "lamp", policy))
	assert.Equal(t, 2, l.Remaining("w2", "lamp", policy))
	assert.Equal(t, 0, l.GlobalCount("w2", "lamp"))
}

func TestLedger_RemainingDecreasesByOne(t *testing.T) {
	l := NewLedger()
	policy := domain.Limited(5)
	p := uuid.New()

	prev := l.Remaining("w", "gem", policy)
	assert.Equal(t, 5, prev)
	for l.CanCraft("w", "gem", policy) {
		ok, _ := l.RecordCraft("w", "gem", p, policy)
		require.True(t, ok)
		cur := l.Remaining("w", "gem", policy)
		assert.Equal(t, prev-1, cur)
		prev = cur
	}
	assert.Equal(t, 0, prev)
	assert.Equal(t, 5, l.GlobalCount("w", "gem"))
}

func TestLedger_UnlimitedNeverBlocks(t *testing.T) {
	l := NewLedger()
	p := uuid.New()
	for i := 0; i < 100; i++ {
		ok, _ := l.RecordCraft("w", "stick", p, domain.Unlimited())
		require.True(t, ok)
	}
	assert.Equal(t, UnlimitedCrafts, l.Remaining("w", "stick", domain.Unlimited()))
	assert.Equal(t, 100, l.GlobalCount("w", "stick"))
}

func TestLedger_ReadsDoNotCreateCounters(t *testing.T) {
	l := NewLedger()
	l.CanCraft("w", "x", domain.OneTime())
	l.Remaining("w", "x", domain.Limited(3))
	l.GlobalCount("w", "x")

	assert.Empty(t, l.Worlds())
	assert.Empty(t, l.TakeDirty())
}

func TestLedger_ConcurrentCraftsNeverExceedLimit(t *testing.T) {
	tests := []struct {
		name   string
		policy domain.LimitPolicy
		want   int32
	}{
		{"one-time", domain.OneTime(), 1},
		{"limited", domain.Limited(7), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger()
			const goroutines = 64

			var granted atomic.Int32
			var wg sync.WaitGroup
			start := make(chan struct{})
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					if ok, _ := l.RecordCraft("arena", "crown", uuid.New(), tt.policy); ok {
						granted.Add(1)
					}
				}()
			}
			close(start)
			wg.Wait()

			assert.Equal(t, tt.want, granted.Load())
			assert.Equal(t, int(tt.want), l.GlobalCount("arena", "crown"))
		})
	}
}

func TestLedger_CleanupWorld(t *testing.T) {
	l := NewLedger()
	p := uuid.New()
	l.RecordCraft("dungeon_1", "key", p, domain.OneTime())
	l.RecordCraft("dungeon_1", "map", p, domain.Unlimited())
	l.RecordCraft("dungeon_2", "key", p, domain.OneTime())

	assert.Equal(t, 2, l.CleanupWorld("dungeon_1"))
	assert.Equal(t, 0, l.CleanupWorld("dungeon_1"))

	assert.True(t, l.CanCraft("dungeon_1", "key", domain.OneTime()), "a recreated world starts fresh")
	assert.False(t, l.CanCraft("dungeon_2", "key", domain.OneTime()))
	assert.Equal(t, []string{"dungeon_2"}, l.Worlds())
	assert.True(t, l.HasEverCrafted(p, "key"), "player history survives world cleanup")
}

func TestLedger_CleanupRacesWithCrafts(t *testing.T) {
	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				l.RecordCraft("tmp", "x", uuid.Nil, domain.Limited(1000))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.CleanupWorld("tmp")
			}
		}()
	}
	wg.Wait()

	n := l.GlobalCount("tmp", "x")
	assert.GreaterOrEqual(t, n, 0)
	assert.LessOrEqual(t, n, 1600)
}

func TestLedger_CleanupPlayer(t *testing.T) {
	l := NewLedger()
	p := uuid.New()
	l.RecordCraft("w", "a", p, domain.Unlimited())
	l.RecordCraft("w", "a", p, domain.Unlimited())
	l.RecordCraft("w", "b", p, domain.Unlimited())

	assert.Equal(t, 2, l.PlayerCount(p, "a"))
	assert.Equal(t, 2, l.CleanupPlayer(p))
	assert.Equal(t, 0, l.PlayerCount(p, "a"))
	assert.False(t, l.HasEverCrafted(p, "a"))
	assert.Equal(t, 2, l.GlobalCount("w", "a"), "world counts are unaffected")
}

func TestLedger_PruneRecipe(t *testing.T) {
	l := NewLedger()
	p := uuid.New()
	l.RecordCraft("w1", "old", p, domain.Unlimited())
	l.RecordCraft("w2", "old", p, domain.Unlimited())
	l.RecordCraft("w2", "new", p, domain.Unlimited())
	l.TakeDirty()

	worlds := l.PruneRecipe("old")
	assert.ElementsMatch(t, []string{"w1", "w2"}, worlds)
	assert.Equal(t, 0, l.GlobalCount("w1", "old"))
	assert.Equal(t, 1, l.GlobalCount("w2", "new"))
	assert.ElementsMatch(t, []string{"w1", "w2"}, l.TakeDirty())
}

func TestLedger_SnapshotRestoreAndDirty(t *testing.T) {
	l := NewLedger()
	p := uuid.New()
	l.RecordCraft("w", "a", p, domain.Unlimited())
	l.RecordCraft("w", "a", p, domain.Unlimited())
	l.RecordCraft("w", "b", p, domain.OneTime())

	assert.Equal(t, []string{"w"}, l.TakeDirty())
	assert.Empty(t, l.TakeDirty(), "taking clears the set")

	snap := l.Snapshot("w")
	assert.Equal(t, repository.WorldCounts{"a": 2, "b": 1}, snap)

	restored := NewLedger()
	restored.Restore("w", snap)
	restored.Restore("w", repository.WorldCounts{"a": 1, "c": 0})
	assert.Equal(t, snap, restored.Snapshot("w"), "restore keeps the larger count")
	assert.Empty(t, restored.TakeDirty())

	restored.MarkDirty("w")
	assert.Equal(t, []string{"w"}, restored.TakeDirty())

	restored.Reset()
	assert.Empty(t, restored.Worlds())
}

func BenchmarkLedger_RecordCraft(b *testing.B) {
	l := NewLedger()
	p := uuid.New()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.RecordCraft("w", "stick", p, domain.Unlimited())
	}
}

func BenchmarkLedger_RecordCraftParallel(b *testing.B) {
	l := NewLedger()
	var next atomic.Int64
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		world := fmt.Sprintf("w%d", next.Add(1)%4)
		p := uuid.New()
		for pb.Next() {
			l.RecordCraft(world, "stick", p, domain.Unlimited())
		}
	})
}

func BenchmarkLedger_CanCraft(b *testing.B) {
	l := NewLedger()
	l.RecordCraft("w", "relic", uuid.New(), domain.OneTime())
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.CanCraft("w", "relic", domain.OneTime())
	}
}
