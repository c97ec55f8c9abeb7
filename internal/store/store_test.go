package store

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return st
}

func TestUnitsRoundTrip(t *testing.T) {
	st := newTestStore(t)

	units := []models.InventoryUnit{
		{Platform: "Disney+", PlanLabel: "Complete", Login: "a@mail.com", Secret: "pw1", UnitPrice: 40},
		{Platform: "Netflix", PlanLabel: "Profile (4)", Login: "b@mail.com", Secret: "pw2", UnitPrice: 50,
			TracksCapacity: true, CapacityRemaining: 4, NextSlotIndex: 1},
	}
	require.NoError(t, st.ReplaceUnits(units))

	loaded, err := st.LoadUnits()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.False(t, loaded[0].TracksCapacity)
	assert.Equal(t, "Disney+", loaded[0].Platform)
	assert.Equal(t, 40.0, loaded[0].UnitPrice)

	assert.True(t, loaded[1].TracksCapacity)
	assert.Equal(t, 4, loaded[1].CapacityRemaining)
	assert.Equal(t, 1, loaded[1].NextSlotIndex)
}

func TestAppendUnitPreservesOrder(t *testing.T) {
	st := newTestStore(t)

	for _, login := range []string{"first@mail.com", "second@mail.com", "third@mail.com"} {
		require.NoError(t, st.AppendUnit(models.InventoryUnit{
			Platform: "Netflix", PlanLabel: "Complete", Login: login, Secret: "pw", UnitPrice: 30,
		}))
	}

	loaded, err := st.LoadUnits()
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, "first@mail.com", loaded[0].Login)
	assert.Equal(t, "third@mail.com", loaded[2].Login)
}

func TestLoadUnitsSkipsMalformedRows(t *testing.T) {
	st := newTestStore(t)

	f, err := os.Create(filepath.Join(st.Dir(), stockFile))
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll([][]string{
		{"Netflix", "Profile (4)", "a@mail.com", "pw", "50.00", "4", "1"},
		{"Broken", "row"},
		{"Spotify", "Complete", "b@mail.com", "pw", "not-a-price"},
		{"HBO", "Complete", "c@mail.com", "pw", "25.00", "bad-capacity", "1"},
		{"Disney+", "Complete", "d@mail.com", "pw", "40.00"},
	}))
	w.Flush()
	require.NoError(t, f.Close())

	loaded, err := st.LoadUnits()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "Netflix", loaded[0].Platform)
	assert.Equal(t, "Disney+", loaded[1].Platform)
}

func TestLoadUnitsMissingFile(t *testing.T) {
	st := newTestStore(t)
	loaded, err := st.LoadUnits()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestAccountsRoundTrip(t *testing.T) {
	st := newTestStore(t)

	accounts := []models.Account{
		{CustomerID: 100, Balance: 30},
		{CustomerID: 200, Balance: 12.5},
	}
	require.NoError(t, st.ReplaceAccounts(accounts))

	loaded, err := st.LoadAccounts()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, int64(100), loaded[0].CustomerID)
	assert.Equal(t, 30.0, loaded[0].Balance)
	assert.Equal(t, 12.5, loaded[1].Balance)
}

func TestLoadAccountsSkipsMalformedRows(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(st.Dir(), balancesFile),
		[]byte("100,30.00\nnot-an-id,5.00\n200,not-a-balance\n300,7.00\n"), 0o644))

	loaded, err := st.LoadAccounts()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, int64(100), loaded[0].CustomerID)
	assert.Equal(t, int64(300), loaded[1].CustomerID)
}

func TestAppendPurchaseWritesBothLogs(t *testing.T) {
	st := newTestStore(t)

	rec := models.PurchaseRecord{
		PurchaseID: "A1B2C3D4",
		CustomerID: 100,
		Timestamp:  time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
		PlanLabel:  "Profile (4)",
		Login:      "a@mail.com",
		Secret:     "pw",
		PricePaid:  50,
	}
	require.NoError(t, st.AppendPurchase(rec))
	require.NoError(t, st.AppendPurchase(models.PurchaseRecord{
		PurchaseID: "E5F6A7B8",
		CustomerID: 100,
		Timestamp:  rec.Timestamp,
		PlanLabel:  "Complete",
		Login:      "b@mail.com",
		Secret:     "pw",
		PricePaid:  40,
	}))

	records, err := st.LoadPurchases()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A1B2C3D4", records[0].PurchaseID)
	assert.Equal(t, int64(100), records[0].CustomerID)
	assert.Equal(t, 50.0, records[0].PricePaid)
	assert.Equal(t, rec.Timestamp, records[0].Timestamp)

	// The header must be written exactly once.
	raw, err := os.ReadFile(filepath.Join(st.Dir(), purchasesFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "purchase_id,customer_id,timestamp,plan,login,secret,price")

	fromHistory, err := st.FindCustomerPurchase(100, "A1B2C3D4")
	require.NoError(t, err)
	require.NotNil(t, fromHistory)
	assert.Equal(t, rec.Timestamp, fromHistory.Timestamp)
	assert.Equal(t, "a@mail.com", fromHistory.Login)
}

func TestFindPurchaseMatchesCustomer(t *testing.T) {
	st := newTestStore(t)

	stamp := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	require.NoError(t, st.AppendPurchase(models.PurchaseRecord{
		PurchaseID: "A1B2C3D4",
		CustomerID: 100,
		Timestamp:  stamp,
		PlanLabel:  "Complete",
		Login:      "a@mail.com",
		Secret:     "pw",
		PricePaid:  40,
	}))

	rec, err := st.FindPurchase(100, "A1B2C3D4")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, stamp, rec.Timestamp)

	rec, err = st.FindPurchase(200, "A1B2C3D4")
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = st.FindPurchase(100, "DEADBEEF")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCountCustomerPurchases(t *testing.T) {
	st := newTestStore(t)

	for i, id := range []string{"AAAA1111", "BBBB2222", "CCCC3333"} {
		customer := int64(100)
		if i == 2 {
			customer = 200
		}
		require.NoError(t, st.AppendPurchase(models.PurchaseRecord{
			PurchaseID: id,
			CustomerID: customer,
			Timestamp:  time.Now(),
			PlanLabel:  "Complete",
			Login:      "a@mail.com",
			Secret:     "pw",
			PricePaid:  40,
		}))
	}

	count, err := st.CountCustomerPurchases(100)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = st.CountCustomerPurchases(999)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCombosRoundTrip(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, st.AppendCombo(models.ComboDefinition{
		Title:     "Duo",
		Subtitle:  "Movies and music",
		Price:     80,
		Platforms: []string{"Netflix", "Spotify"},
	}))

	combos, err := st.LoadCombos()
	require.NoError(t, err)
	require.Len(t, combos, 1)
	assert.Equal(t, "Duo", combos[0].Title)
	assert.Equal(t, 80.0, combos[0].Price)
	assert.Equal(t, []string{"Netflix", "Spotify"}, combos[0].Platforms)
}

func TestLoadCombosSkipsMalformedRows(t *testing.T) {
	st := newTestStore(t)

	require.NoError(t, os.WriteFile(filepath.Join(st.Dir(), combosFile),
		[]byte("Duo,Movies,80.00,Netflix|Spotify\nBad,row,not-a-price,Netflix\nEmpty,platforms,10.00,|\n"), 0o644))

	combos, err := st.LoadCombos()
	require.NoError(t, err)
	require.Len(t, combos, 1)
	assert.Equal(t, "Duo", combos[0].Title)
}
