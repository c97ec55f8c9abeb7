package service

import (
	"context"
	"testing"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryGroupsByCategoryAndPlatform(t *testing.T) {
	st := newTestStore(t)
	u1 := slottedUnit("Netflix", "Profile (4)", 50, 4)
	u2 := slottedUnit("Netflix", "Profile (2)", 45, 2)
	u2.Login = "second@mail.com"
	u3 := wholeUnit("Netflix", "Complete", 120)
	u4 := wholeUnit("Spotify", "Premium", 30)
	odd := wholeUnit("Mystery", "Voucher", 5)
	require.NoError(t, st.ReplaceUnits([]models.InventoryUnit{u1, u2, u3, u4, odd}))

	cs := NewCatalogService(st, nil, 0)
	summary, err := cs.Summary(context.Background())
	require.NoError(t, err)

	slotted := summary[models.CategorySlotted]["Netflix"]
	assert.Equal(t, 45.0, slotted.MinPrice)
	assert.Equal(t, []string{"Profile (2)", "Profile (4)"}, slotted.PlanLabels)

	whole := summary[models.CategoryWhole]["Netflix"]
	assert.Equal(t, 120.0, whole.MinPrice)

	assert.Contains(t, summary[models.CategoryWhole], "Spotify")

	// Unclassifiable units stay out of buyer-facing listings.
	for _, platforms := range summary {
		assert.NotContains(t, platforms, "Mystery")
	}
}

func TestCountAvailable(t *testing.T) {
	st := newTestStore(t)
	spent := slottedUnit("Netflix", "Profile (4)", 50, 2)
	spent.NextSlotIndex = 3
	require.NoError(t, st.ReplaceUnits([]models.InventoryUnit{
		slottedUnit("Netflix", "Profile (4)", 50, 4),
		spent,
		wholeUnit("Netflix", "Complete", 120),
	}))

	cs := NewCatalogService(st, nil, 0)
	ctx := context.Background()

	count, err := cs.CountAvailable(ctx, "netflix", models.CategorySlotted)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	count, err = cs.CountAvailable(ctx, "Netflix", models.CategoryWhole)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = cs.CountAvailable(ctx, "Spotify", models.CategorySlotted)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStockOverviewGroupsAndSorts(t *testing.T) {
	st := newTestStore(t)
	a := slottedUnit("Netflix", "Profile (4)", 50, 4)
	b := slottedUnit("Netflix", "Profile (4)", 50, 2)
	b.Login = "second@mail.com"
	c := wholeUnit("Disney+", "Complete", 40)
	require.NoError(t, st.ReplaceUnits([]models.InventoryUnit{a, b, c}))

	cs := NewCatalogService(st, nil, 0)
	counts, err := cs.StockOverview(context.Background())
	require.NoError(t, err)
	require.Len(t, counts, 2)

	assert.Equal(t, "Disney+", counts[0].Platform)
	assert.Equal(t, 1, counts[0].Units)
	assert.Equal(t, 1, counts[0].Slots)

	assert.Equal(t, "Netflix", counts[1].Platform)
	assert.Equal(t, 2, counts[1].Units)
	assert.Equal(t, 6, counts[1].Slots)
}

func TestAddUnitDefaultsAndValidation(t *testing.T) {
	st := newTestStore(t)
	cs := NewCatalogService(st, nil, 0)
	ctx := context.Background()

	unit := models.InventoryUnit{
		Platform:  "Netflix",
		PlanLabel: "Profile (4)",
		Login:     "fresh@mail.com",
		Secret:    "secret",
		UnitPrice: 50,
	}
	require.NoError(t, cs.AddUnit(ctx, unit, 0))

	units, err := st.LoadUnits()
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.True(t, units[0].TracksCapacity)
	assert.Equal(t, 1, units[0].CapacityRemaining)
	assert.Equal(t, 1, units[0].NextSlotIndex)

	bad := unit
	bad.UnitPrice = 0
	assert.Error(t, cs.AddUnit(ctx, bad, 1))

	bad = unit
	bad.Platform = " "
	assert.Error(t, cs.AddUnit(ctx, bad, 1))

	bad = unit
	bad.Secret = ""
	assert.Error(t, cs.AddUnit(ctx, bad, 1))
}

func TestDeleteUnit(t *testing.T) {
	st := newTestStore(t)
	keep := slottedUnit("Netflix", "Profile (4)", 50, 4)
	drop := slottedUnit("Netflix", "Profile (4)", 50, 4)
	drop.Login = "drop@mail.com"
	require.NoError(t, st.ReplaceUnits([]models.InventoryUnit{keep, drop}))

	cs := NewCatalogService(st, nil, 0)
	ctx := context.Background()

	removed, err := cs.DeleteUnit(ctx, "netflix", "profile (4)", "drop@mail.com")
	require.NoError(t, err)
	assert.True(t, removed)

	units, err := st.LoadUnits()
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "login@Netflix", units[0].Login)

	removed, err = cs.DeleteUnit(ctx, "netflix", "profile (4)", "drop@mail.com")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSummaryCacheReadThrough(t *testing.T) {
	// In real scenarios, use testcontainers or a dedicated cache instance

	t.Skip("Integration test - requires Redis")

	cache, err := redisclient.NewClient("localhost:6379", "", 0)
	require.NoError(t, err)
	defer cache.Close()

	ctx := context.Background()
	require.NoError(t, cache.InvalidateCatalog(ctx))

	st := newTestStore(t)
	require.NoError(t, st.ReplaceUnits([]models.InventoryUnit{
		slottedUnit("Netflix", "Profile (4)", 50, 4),
	}))
	cs := NewCatalogService(st, cache, 30*time.Second)

	// First call computes from the store and populates the cache.
	summary, err := cs.Summary(ctx)
	require.NoError(t, err)
	assert.Contains(t, summary[models.CategorySlotted], "Netflix")

	_, err = cache.GetCatalogSummary(ctx)
	require.NoError(t, err)

	// A store change the cache has not seen is masked until invalidation:
	// the second call must serve the cached view.
	require.NoError(t, st.ReplaceUnits(nil))
	summary, err = cs.Summary(ctx)
	require.NoError(t, err)
	assert.Contains(t, summary[models.CategorySlotted], "Netflix")

	// An unreadable payload falls back to the store instead of failing.
	require.NoError(t, cache.SetCatalogSummary(ctx, []byte("{broken"), 30*time.Second))
	summary, err = cs.Summary(ctx)
	require.NoError(t, err)
	assert.Empty(t, summary)

	// Invalidation drops the entry entirely.
	cs.InvalidateCache(ctx)
	_, err = cache.GetCatalogSummary(ctx)
	assert.True(t, redisclient.IsCacheMiss(err))
}
