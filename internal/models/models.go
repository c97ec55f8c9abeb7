package models

import (
	"strings"
	"time"
)

// PriceEpsilon is the absolute tolerance used when comparing unit prices.
// Prices round-trip through text encodings (CSV rows, routing tokens), so
// exact float comparison would reject otherwise matching units.
const PriceEpsilon = 0.01

// Category is the buyer-facing classification of an inventory unit,
// derived from its plan label and never stored.
type Category string

const (
	CategoryWhole   Category = "whole"
	CategorySlotted Category = "slotted"
	CategoryOther   Category = "other"
)

// Prefix fallbacks used when the plan label does not resolve via the
// dual-keyword check. Slotted prefixes are tried first.
var (
	slottedPrefixes = []string{"1 profile", "profile"}
	wholePrefixes   = []string{"account", "full", "premium", "basic", "standard", "complete"}
)

// Classify derives the category of a plan label.
//
// Precedence: a label containing "profile" but not "complete" is slotted; a
// label containing "complete" but not "profile" is whole; otherwise the
// prefix fallback applies. Labels carrying both or neither keyword and no
// known prefix classify as other. Historical labels are ambiguous ("Premium
// Profile"), so this order must not change.
func Classify(planLabel string) Category {
	label := strings.ToLower(strings.TrimSpace(planLabel))

	hasProfile := strings.Contains(label, "profile")
	hasComplete := strings.Contains(label, "complete")

	if hasProfile && !hasComplete {
		return CategorySlotted
	}
	if hasComplete && !hasProfile {
		return CategoryWhole
	}

	for _, p := range slottedPrefixes {
		if strings.HasPrefix(label, p) {
			return CategorySlotted
		}
	}
	for _, p := range wholePrefixes {
		if strings.HasPrefix(label, p) {
			return CategoryWhole
		}
	}
	return CategoryOther
}

// ParseCategory maps an external category string to a Category.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryWhole:
		return CategoryWhole, true
	case CategorySlotted:
		return CategorySlotted, true
	case CategoryOther:
		return CategoryOther, true
	}
	return "", false
}

// InventoryUnit is one sellable item instance. Legacy whole-account rows do
// not track capacity; slotted rows carry a remaining-capacity counter and the
// index of the next profile slot to hand out.
type InventoryUnit struct {
	Platform          string  `json:"platform"`
	PlanLabel         string  `json:"plan_label"`
	Login             string  `json:"login"`
	Secret            string  `json:"secret"`
	UnitPrice         float64 `json:"unit_price"`
	TracksCapacity    bool    `json:"tracks_capacity"`
	CapacityRemaining int     `json:"capacity_remaining,omitempty"`
	NextSlotIndex     int     `json:"next_slot_index,omitempty"`
}

// Category recomputes the unit's category from its plan label.
func (u *InventoryUnit) Category() Category {
	return Classify(u.PlanLabel)
}

// Available reports how many slots the unit can still deliver.
func (u *InventoryUnit) Available() int {
	if !u.TracksCapacity {
		return 1
	}
	return u.CapacityRemaining
}

// MatchesPlatform compares platforms case-insensitively after trimming.
func (u *InventoryUnit) MatchesPlatform(platform string) bool {
	return strings.EqualFold(strings.TrimSpace(u.Platform), strings.TrimSpace(platform))
}

// Matches reports whether the unit satisfies a purchase request. Platform and
// plan label are matched case-insensitively after trimming; the price check
// uses PriceEpsilon.
func (u *InventoryUnit) Matches(platform, planLabel string, price float64) bool {
	if !u.MatchesPlatform(platform) {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(u.PlanLabel), strings.TrimSpace(planLabel)) {
		return false
	}
	diff := u.UnitPrice - price
	if diff < 0 {
		diff = -diff
	}
	return diff < PriceEpsilon && u.Available() > 0
}

// DeliveredUnit is the outcome of one successful allocation. SlotIndex 0 is
// the sentinel for "entire account", used for whole units.
type DeliveredUnit struct {
	Platform  string  `json:"platform"`
	PlanLabel string  `json:"plan_label"`
	Login     string  `json:"login"`
	Secret    string  `json:"secret"`
	UnitPrice float64 `json:"unit_price"`
	SlotIndex int     `json:"slot_index"`
}

// Account is one per-customer balance ledger entry.
type Account struct {
	CustomerID int64   `json:"customer_id"`
	Balance    float64 `json:"balance"`
}

// PurchaseRecord is one immutable audit entry. Combo purchases produce one
// record per delivered unit, all sharing a purchase id.
type PurchaseRecord struct {
	PurchaseID string    `json:"purchase_id"`
	CustomerID int64     `json:"customer_id"`
	Timestamp  time.Time `json:"timestamp"`
	PlanLabel  string    `json:"plan_label"`
	Login      string    `json:"login"`
	Secret     string    `json:"secret"`
	PricePaid  float64   `json:"price_paid"`
}

// ComboDefinition is an administrator-authored bundle: one unit per listed
// platform, sold at a bundle price independent of the unit prices. Duplicate
// platforms mean one unit from that platform each.
type ComboDefinition struct {
	Title     string   `json:"title"`
	Subtitle  string   `json:"subtitle"`
	Price     float64  `json:"price"`
	Platforms []string `json:"platforms"`
}

// Receipt is returned to the front end after a committed purchase.
type Receipt struct {
	PurchaseID       string  `json:"purchase_id"`
	Platform         string  `json:"platform"`
	PlanLabel        string  `json:"plan_label"`
	Login            string  `json:"login"`
	Secret           string  `json:"secret"`
	SlotIndex        int     `json:"slot_index"`
	PricePaid        float64 `json:"price_paid"`
	RemainingBalance float64 `json:"remaining_balance"`
}

// PurchaseVerification is the outcome of an ownership check. InWarranty and
// PurchasedAt are meaningful only when Owned is true.
type PurchaseVerification struct {
	Owned       bool      `json:"owned"`
	InWarranty  bool      `json:"in_warranty"`
	PurchasedAt time.Time `json:"purchased_at,omitempty"`
}

// PlatformSummary is the buyer-facing view of one (category, platform) pair.
type PlatformSummary struct {
	MinPrice   float64  `json:"min_price"`
	PlanLabels []string `json:"plan_labels"`
}

// CatalogSummary maps category -> platform -> summary. Units classified
// other are excluded from listings but retained in storage.
type CatalogSummary map[Category]map[string]PlatformSummary

// StockCount is one line of the administrative inventory overview.
type StockCount struct {
	Platform  string  `json:"platform"`
	PlanLabel string  `json:"plan_label"`
	UnitPrice float64 `json:"unit_price"`
	Units     int     `json:"units"`
	Slots     int     `json:"slots"`
}
