package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		label    string
		expected Category
	}{
		{"Profile (4)", CategorySlotted},
		{"1 profile", CategorySlotted},
		{"Complete", CategoryWhole},
		{"complete account", CategoryWhole},
		{"Premium", CategoryWhole},
		{"Basic", CategoryWhole},
		{"Standard", CategoryWhole},
		{"Full HD", CategoryWhole},
		{"Account 4K", CategoryWhole},
		{"Gift card", CategoryOther},
		{"", CategoryOther},
		{"  Profile (2)  ", CategorySlotted},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.label))
		})
	}
}

// Labels carrying both keywords fall through to the prefix fallback; the
// dual-keyword check must run before it so these resolve deterministically.
func TestClassifyAmbiguousLabels(t *testing.T) {
	// Contains both keywords: neither dual-keyword branch fires, prefix
	// fallback sees "complete..." and resolves whole.
	assert.Equal(t, CategoryWhole, Classify("Complete profile bundle"))

	// Contains both, starts with "profile": slotted prefix wins.
	assert.Equal(t, CategorySlotted, Classify("Profile of a complete account"))

	// "Premium Profile" contains "profile" only: slotted by keyword, even
	// though "premium" is a whole prefix.
	assert.Equal(t, CategorySlotted, Classify("Premium Profile"))
}

func TestUnitAvailable(t *testing.T) {
	whole := InventoryUnit{Platform: "Disney+", PlanLabel: "Complete"}
	assert.Equal(t, 1, whole.Available())

	slotted := InventoryUnit{TracksCapacity: true, CapacityRemaining: 3}
	assert.Equal(t, 3, slotted.Available())

	empty := InventoryUnit{TracksCapacity: true, CapacityRemaining: 0}
	assert.Equal(t, 0, empty.Available())
}

func TestUnitMatchesPriceTolerance(t *testing.T) {
	unit := InventoryUnit{
		Platform:          "Netflix",
		PlanLabel:         "Profile (4)",
		UnitPrice:         50,
		TracksCapacity:    true,
		CapacityRemaining: 4,
		NextSlotIndex:     1,
	}

	// Prices that drifted through a text encoding still match.
	assert.True(t, unit.Matches("Netflix", "Profile (4)", 50))
	assert.True(t, unit.Matches("netflix", "profile (4)", 50.005))
	assert.True(t, unit.Matches(" Netflix ", "Profile (4)", 49.995))

	assert.False(t, unit.Matches("Netflix", "Profile (4)", 50.02))
	assert.False(t, unit.Matches("Netflix", "Profile (2)", 50))
	assert.False(t, unit.Matches("Spotify", "Profile (4)", 50))
}

func TestUnitMatchesRequiresAvailability(t *testing.T) {
	unit := InventoryUnit{
		Platform:       "Netflix",
		PlanLabel:      "Profile (4)",
		UnitPrice:      50,
		TracksCapacity: true,
	}
	assert.False(t, unit.Matches("Netflix", "Profile (4)", 50))
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory(" Whole ")
	assert.True(t, ok)
	assert.Equal(t, CategoryWhole, c)

	_, ok = ParseCategory("bundle")
	assert.False(t, ok)
}
