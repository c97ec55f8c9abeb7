package models

import "time"

// Event types
const (
	EventTypePurchaseCompleted = "PURCHASE_COMPLETED"
	EventTypeComboCompleted    = "COMBO_COMPLETED"
	EventTypeBalanceCredited   = "BALANCE_CREDITED"
	EventTypeStockAdded        = "STOCK_ADDED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PurchaseCompletedEvent published after a single purchase commits
type PurchaseCompletedEvent struct {
	BaseEvent
	PurchaseID string  `json:"purchase_id"`
	CustomerID int64   `json:"customer_id"`
	Platform   string  `json:"platform"`
	PlanLabel  string  `json:"plan_label"`
	PricePaid  float64 `json:"price_paid"`
}

// ComboCompletedEvent published after a combo purchase commits
type ComboCompletedEvent struct {
	BaseEvent
	PurchaseID string          `json:"purchase_id"`
	CustomerID int64           `json:"customer_id"`
	ComboTitle string          `json:"combo_title"`
	PricePaid  float64         `json:"price_paid"`
	Items      []ComboItemData `json:"items"`
}

// BalanceCreditedEvent published after an administrative top-up
type BalanceCreditedEvent struct {
	BaseEvent
	CustomerID int64   `json:"customer_id"`
	Amount     float64 `json:"amount"`
	NewBalance float64 `json:"new_balance"`
}

// StockAddedEvent published when a unit is added to the catalog
type StockAddedEvent struct {
	BaseEvent
	Platform  string  `json:"platform"`
	PlanLabel string  `json:"plan_label"`
	UnitPrice float64 `json:"unit_price"`
	Capacity  int     `json:"capacity"`
}

// ComboItemData represents one delivered unit in a combo event
type ComboItemData struct {
	Platform  string `json:"platform"`
	PlanLabel string `json:"plan_label"`
	SlotIndex int    `json:"slot_index"`
}
