package broker

import (
	"context"
	"fmt"

	"storefront-service/internal/models"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishPurchaseCompleted publishes PurchaseCompleted event
func (ep *EventPublisher) PublishPurchaseCompleted(ctx context.Context, event *models.PurchaseCompletedEvent) error {
	key := fmt.Sprintf("purchase-%s", event.PurchaseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishComboCompleted publishes ComboCompleted event
func (ep *EventPublisher) PublishComboCompleted(ctx context.Context, event *models.ComboCompletedEvent) error {
	key := fmt.Sprintf("purchase-%s", event.PurchaseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishBalanceCredited publishes BalanceCredited event
func (ep *EventPublisher) PublishBalanceCredited(ctx context.Context, event *models.BalanceCreditedEvent) error {
	key := fmt.Sprintf("customer-%d", event.CustomerID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishStockAdded publishes StockAdded event
func (ep *EventPublisher) PublishStockAdded(ctx context.Context, event *models.StockAddedEvent) error {
	key := fmt.Sprintf("stock-%s", event.Platform)
	return ep.producer.PublishEvent(ctx, key, event)
}
