package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PurchaseService composes the affordability check, slot allocation, balance
// debit and audit logging into one all-or-nothing purchase. It is the only
// component that mutates the catalog or the ledger: every mutating operation
// runs under one mutex, so requests are served one at a time in arrival
// order, matching the single-writer model the flat record files require.
type PurchaseService struct {
	mu sync.Mutex

	store     *store.Store
	catalog   *CatalogService
	allocator *AllocationService
	ledger    *LedgerService
	publisher *broker.EventPublisher
	mirror    *store.AuditMirror
	warranty  time.Duration
	logger    *zap.Logger
}

// NewPurchaseService creates a new purchase service. publisher and mirror
// may be nil; warranty <= 0 means purchases never age out of support.
func NewPurchaseService(
	st *store.Store,
	catalog *CatalogService,
	allocator *AllocationService,
	ledger *LedgerService,
	publisher *broker.EventPublisher,
	mirror *store.AuditMirror,
	warranty time.Duration,
) *PurchaseService {
	return &PurchaseService{
		store:     st,
		catalog:   catalog,
		allocator: allocator,
		ledger:    ledger,
		publisher: publisher,
		mirror:    mirror,
		warranty:  warranty,
		logger:    util.GetLogger(),
	}
}

// Purchase exchanges balance for one inventory slot. The ordering is
// deliberate: the affordability check mutates nothing, allocation happens
// strictly before the debit, and the audit append must succeed before the
// purchase is reported as committed. A mid-flight failure therefore never
// charges the customer for an undelivered unit.
func (ps *PurchaseService) Purchase(ctx context.Context, customerID int64, platform, planLabel string, price float64) (*models.Receipt, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseService.Purchase")
	defer span.End()

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if price <= 0 {
		util.PurchasesFailedTotal.WithLabelValues("invalid_price").Inc()
		return nil, fmt.Errorf("price must be positive, got %.2f", price)
	}

	if err := ps.ledger.EnsureAccount(customerID); err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}

	affordable, err := ps.ledger.CanAfford(customerID, price)
	if err != nil {
		return nil, fmt.Errorf("failed to check balance: %w", err)
	}
	if !affordable {
		util.PurchasesFailedTotal.WithLabelValues("insufficient_funds").Inc()
		return nil, ErrInsufficientFunds
	}

	delivered, err := ps.allocator.Allocate(ctx, platform, planLabel, price)
	if errors.Is(err, ErrOutOfStock) {
		util.PurchasesFailedTotal.WithLabelValues("out_of_stock").Inc()
		return nil, ErrOutOfStock
	}
	if err != nil {
		util.PurchasesFailedTotal.WithLabelValues("allocation_error").Inc()
		return nil, err
	}

	purchaseID, err := newPurchaseID()
	if err != nil {
		util.PurchasesFailedTotal.WithLabelValues("id_generation").Inc()
		return nil, err
	}

	remaining, err := ps.ledger.Debit(customerID, price)
	if err != nil {
		util.PurchasesFailedTotal.WithLabelValues("debit_error").Inc()
		return nil, fmt.Errorf("failed to debit after allocation: %w", err)
	}

	record := models.PurchaseRecord{
		PurchaseID: purchaseID,
		CustomerID: customerID,
		Timestamp:  time.Now(),
		PlanLabel:  delivered.PlanLabel,
		Login:      delivered.Login,
		Secret:     delivered.Secret,
		PricePaid:  price,
	}
	if err := ps.store.AppendPurchase(record); err != nil {
		util.PurchasesFailedTotal.WithLabelValues("audit_error").Inc()
		return nil, fmt.Errorf("failed to write purchase record: %w", err)
	}

	ps.catalog.InvalidateCache(ctx)
	util.PurchasesTotal.Inc()
	util.UnitsDeliveredTotal.Inc()
	ps.logger.Info("Purchase committed",
		zap.String("purchase_id", purchaseID),
		zap.Int64("customer_id", customerID),
		zap.String("platform", delivered.Platform),
		zap.Float64("price", price))

	ps.publishPurchase(ctx, record, delivered.Platform)
	ps.mirrorRecords(ctx, record)

	return &models.Receipt{
		PurchaseID:       purchaseID,
		Platform:         delivered.Platform,
		PlanLabel:        delivered.PlanLabel,
		Login:            delivered.Login,
		Secret:           delivered.Secret,
		SlotIndex:        delivered.SlotIndex,
		PricePaid:        price,
		RemainingBalance: remaining,
	}, nil
}

// PurchaseCombo sells one unit per platform listed in the combo at the
// bundle price. Allocations are simulated against a snapshot first; only a
// fully satisfiable combo is replayed against the live catalog, which gives
// the multi-item purchase its all-or-nothing semantics without a rollback
// path.
func (ps *PurchaseService) PurchaseCombo(ctx context.Context, customerID int64, comboTitle string) ([]models.Receipt, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseService.PurchaseCombo")
	defer span.End()

	ps.mu.Lock()
	defer ps.mu.Unlock()

	combo, err := ps.findCombo(comboTitle)
	if err != nil {
		return nil, err
	}

	if err := ps.ledger.EnsureAccount(customerID); err != nil {
		return nil, fmt.Errorf("failed to ensure account: %w", err)
	}

	affordable, err := ps.ledger.CanAfford(customerID, combo.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to check balance: %w", err)
	}
	if !affordable {
		util.CombosFailedTotal.WithLabelValues("insufficient_funds").Inc()
		return nil, ErrInsufficientFunds
	}

	units, err := ps.store.LoadUnits()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	reservations, satisfiable := PlanComboReservations(units, combo.Platforms)
	if !satisfiable {
		util.CombosFailedTotal.WithLabelValues("out_of_stock").Inc()
		return nil, ErrOutOfStock
	}

	purchaseID, err := newPurchaseID()
	if err != nil {
		util.CombosFailedTotal.WithLabelValues("id_generation").Inc()
		return nil, err
	}

	delivered, err := ps.allocator.CommitReservations(ctx, reservations)
	if err != nil {
		// The lock makes this unreachable in-process; it would mean the
		// catalog changed underneath us between planning and replay.
		util.CombosFailedTotal.WithLabelValues("replay_error").Inc()
		ps.logger.Error("Combo replay diverged from plan",
			zap.String("combo", combo.Title),
			zap.Int("delivered", len(delivered)),
			zap.Error(err))
		return nil, fmt.Errorf("combo replay failed: %w", err)
	}

	remaining, err := ps.ledger.Debit(customerID, combo.Price)
	if err != nil {
		util.CombosFailedTotal.WithLabelValues("debit_error").Inc()
		return nil, fmt.Errorf("failed to debit after allocation: %w", err)
	}

	now := time.Now()
	receipts := make([]models.Receipt, 0, len(delivered))
	records := make([]models.PurchaseRecord, 0, len(delivered))
	for _, d := range delivered {
		record := models.PurchaseRecord{
			PurchaseID: purchaseID,
			CustomerID: customerID,
			Timestamp:  now,
			PlanLabel:  d.PlanLabel,
			Login:      d.Login,
			Secret:     d.Secret,
			PricePaid:  combo.Price,
		}
		if err := ps.store.AppendPurchase(record); err != nil {
			util.CombosFailedTotal.WithLabelValues("audit_error").Inc()
			return nil, fmt.Errorf("failed to write purchase record: %w", err)
		}
		records = append(records, record)

		receipts = append(receipts, models.Receipt{
			PurchaseID:       purchaseID,
			Platform:         d.Platform,
			PlanLabel:        d.PlanLabel,
			Login:            d.Login,
			Secret:           d.Secret,
			SlotIndex:        d.SlotIndex,
			PricePaid:        combo.Price,
			RemainingBalance: remaining,
		})
	}

	ps.catalog.InvalidateCache(ctx)
	util.CombosTotal.Inc()
	util.UnitsDeliveredTotal.Add(float64(len(delivered)))
	ps.logger.Info("Combo purchase committed",
		zap.String("purchase_id", purchaseID),
		zap.Int64("customer_id", customerID),
		zap.String("combo", combo.Title),
		zap.Int("items", len(delivered)))

	ps.publishCombo(ctx, purchaseID, customerID, combo, delivered)
	ps.mirrorRecords(ctx, records...)

	return receipts, nil
}

// VerifyPurchaseOwnership reports whether the purchase id was issued to the
// customer and whether it is still inside the support warranty, checking the
// global audit log first and the customer's own history as a fallback. The
// supplied id is tolerated with surrounding punctuation, whitespace and any
// letter case.
func (ps *PurchaseService) VerifyPurchaseOwnership(ctx context.Context, customerID int64, rawPurchaseID string) (models.PurchaseVerification, error) {
	purchaseID := NormalizePurchaseID(rawPurchaseID)
	if purchaseID == "" {
		return models.PurchaseVerification{}, nil
	}

	rec, err := ps.store.FindPurchase(customerID, purchaseID)
	if err != nil {
		return models.PurchaseVerification{}, err
	}
	if rec == nil {
		rec, err = ps.store.FindCustomerPurchase(customerID, purchaseID)
		if err != nil {
			return models.PurchaseVerification{}, err
		}
	}
	if rec == nil {
		return models.PurchaseVerification{}, nil
	}

	return models.PurchaseVerification{
		Owned:       true,
		InWarranty:  ps.warranty <= 0 || time.Since(rec.Timestamp) <= ps.warranty,
		PurchasedAt: rec.Timestamp,
	}, nil
}

// CustomerPurchaseCount reports how many purchase records the customer holds,
// preferring the reporting mirror when one is configured.
func (ps *PurchaseService) CustomerPurchaseCount(ctx context.Context, customerID int64) (int, error) {
	if ps.mirror != nil {
		return ps.mirror.CustomerPurchaseCount(ctx, customerID)
	}
	return ps.store.CountCustomerPurchases(customerID)
}

// NormalizePurchaseID strips surrounding whitespace and punctuation from a
// user-supplied purchase id and upper-cases it. Ids arrive quoted, wrapped in
// brackets or lower-cased after traveling through chat messages.
func NormalizePurchaseID(raw string) string {
	trimmed := strings.TrimFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToUpper(trimmed)
}

// Combos lists the purchasable combo definitions.
func (ps *PurchaseService) Combos(ctx context.Context) ([]models.ComboDefinition, error) {
	return ps.store.LoadCombos()
}

// AddCombo validates and persists a combo definition. Combos must not be
// offered without at least one platform.
func (ps *PurchaseService) AddCombo(ctx context.Context, combo models.ComboDefinition) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if strings.TrimSpace(combo.Title) == "" {
		return fmt.Errorf("combo title must not be empty")
	}
	if combo.Price <= 0 {
		return fmt.Errorf("combo price must be positive, got %.2f", combo.Price)
	}
	platforms := make([]string, 0, len(combo.Platforms))
	for _, p := range combo.Platforms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if strings.Contains(p, "|") {
			return fmt.Errorf("platform name %q contains the reserved separator", p)
		}
		platforms = append(platforms, p)
	}
	if len(platforms) == 0 {
		return fmt.Errorf("combo must list at least one platform")
	}
	combo.Platforms = platforms

	return ps.store.AppendCombo(combo)
}

// CreditBalance is the administrative top-up.
func (ps *PurchaseService) CreditBalance(ctx context.Context, customerID int64, amount float64) (float64, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if err := ps.ledger.EnsureAccount(customerID); err != nil {
		return 0, err
	}
	balance, err := ps.ledger.Credit(customerID, amount)
	if err != nil {
		return 0, err
	}

	util.BalanceCreditsTotal.Inc()
	ps.logger.Info("Balance credited",
		zap.Int64("customer_id", customerID),
		zap.Float64("amount", amount),
		zap.Float64("balance", balance))

	if ps.publisher != nil {
		event := &models.BalanceCreditedEvent{
			BaseEvent:  newBaseEvent(models.EventTypeBalanceCredited),
			CustomerID: customerID,
			Amount:     amount,
			NewBalance: balance,
		}
		if err := ps.publisher.PublishBalanceCredited(ctx, event); err != nil {
			ps.logger.Error("Failed to publish BalanceCredited event", zap.Error(err))
		}
	}
	return balance, nil
}

// DeductBalance is the administrative clamped deduction.
func (ps *PurchaseService) DeductBalance(ctx context.Context, customerID int64, amount float64) (float64, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if err := ps.ledger.EnsureAccount(customerID); err != nil {
		return 0, err
	}
	return ps.ledger.Deduct(customerID, amount)
}

// RemoveAccount deletes a customer's balance row.
func (ps *PurchaseService) RemoveAccount(ctx context.Context, customerID int64) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.ledger.RemoveAccount(customerID)
}

// AddStock appends one inventory unit.
func (ps *PurchaseService) AddStock(ctx context.Context, unit models.InventoryUnit, capacity int) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if err := ps.catalog.AddUnit(ctx, unit, capacity); err != nil {
		return err
	}

	if ps.publisher != nil {
		event := &models.StockAddedEvent{
			BaseEvent: newBaseEvent(models.EventTypeStockAdded),
			Platform:  unit.Platform,
			PlanLabel: unit.PlanLabel,
			UnitPrice: unit.UnitPrice,
			Capacity:  capacity,
		}
		if err := ps.publisher.PublishStockAdded(ctx, event); err != nil {
			ps.logger.Error("Failed to publish StockAdded event", zap.Error(err))
		}
	}
	return nil
}

// DeleteStock removes the first matching inventory unit.
func (ps *PurchaseService) DeleteStock(ctx context.Context, platform, planLabel, login string) (bool, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.catalog.DeleteUnit(ctx, platform, planLabel, login)
}

func (ps *PurchaseService) findCombo(title string) (*models.ComboDefinition, error) {
	combos, err := ps.store.LoadCombos()
	if err != nil {
		return nil, fmt.Errorf("failed to load combos: %w", err)
	}
	for i := range combos {
		if strings.EqualFold(strings.TrimSpace(combos[i].Title), strings.TrimSpace(title)) {
			return &combos[i], nil
		}
	}
	return nil, ErrComboNotFound
}

func (ps *PurchaseService) publishPurchase(ctx context.Context, rec models.PurchaseRecord, platform string) {
	if ps.publisher == nil {
		return
	}
	event := &models.PurchaseCompletedEvent{
		BaseEvent:  newBaseEvent(models.EventTypePurchaseCompleted),
		PurchaseID: rec.PurchaseID,
		CustomerID: rec.CustomerID,
		Platform:   platform,
		PlanLabel:  rec.PlanLabel,
		PricePaid:  rec.PricePaid,
	}
	if err := ps.publisher.PublishPurchaseCompleted(ctx, event); err != nil {
		ps.logger.Error("Failed to publish PurchaseCompleted event", zap.Error(err))
	}
}

func (ps *PurchaseService) publishCombo(ctx context.Context, purchaseID string, customerID int64, combo *models.ComboDefinition, delivered []models.DeliveredUnit) {
	if ps.publisher == nil {
		return
	}
	items := make([]models.ComboItemData, 0, len(delivered))
	for _, d := range delivered {
		items = append(items, models.ComboItemData{
			Platform:  d.Platform,
			PlanLabel: d.PlanLabel,
			SlotIndex: d.SlotIndex,
		})
	}
	event := &models.ComboCompletedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeComboCompleted),
		PurchaseID: purchaseID,
		CustomerID: customerID,
		ComboTitle: combo.Title,
		PricePaid:  combo.Price,
		Items:      items,
	}
	if err := ps.publisher.PublishComboCompleted(ctx, event); err != nil {
		ps.logger.Error("Failed to publish ComboCompleted event", zap.Error(err))
	}
}

func (ps *PurchaseService) mirrorRecords(ctx context.Context, records ...models.PurchaseRecord) {
	if ps.mirror == nil {
		return
	}
	for _, rec := range records {
		if err := ps.mirror.InsertPurchase(ctx, rec); err != nil {
			ps.logger.Error("Failed to mirror purchase record",
				zap.String("purchase_id", rec.PurchaseID),
				zap.Error(err))
		}
	}
}

// newPurchaseID returns a short opaque token: the first segment of a random
// UUID, upper-cased. A generation failure is fatal to the transaction.
func newPurchaseID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate purchase id: %w", err)
	}
	return strings.ToUpper(strings.SplitN(u.String(), "-", 2)[0]), nil
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}
