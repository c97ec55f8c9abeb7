package service

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// AllocationService finds and atomically consumes exactly one deliverable
// slot per call. Rows are scanned in storage order, so the oldest stock is
// sold first.
type AllocationService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewAllocationService creates a new allocation service
func NewAllocationService(st *store.Store) *AllocationService {
	return &AllocationService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// Allocate consumes one slot from the first unit matching platform, plan
// label (both case-insensitive, exact label) and price within the epsilon.
// Returns ErrOutOfStock when nothing matches; no write happens in that case.
// On success the full catalog is rewritten exactly once.
func (as *AllocationService) Allocate(ctx context.Context, platform, planLabel string, expectedPrice float64) (*models.DeliveredUnit, error) {
	_, span := util.StartSpan(ctx, "AllocationService.Allocate")
	defer span.End()

	start := time.Now()
	defer func() {
		util.AllocationLatency.Observe(time.Since(start).Seconds())
	}()

	units, err := as.store.LoadUnits()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	for i := range units {
		u := &units[i]
		if !u.Matches(platform, planLabel, expectedPrice) {
			continue
		}

		delivered := models.DeliveredUnit{
			Platform:  u.Platform,
			PlanLabel: u.PlanLabel,
			Login:     u.Login,
			Secret:    u.Secret,
			UnitPrice: u.UnitPrice,
		}

		slot, exhausted := takeSlot(u)
		delivered.SlotIndex = slot
		if exhausted {
			units = append(units[:i], units[i+1:]...)
		}

		if err := as.store.ReplaceUnits(units); err != nil {
			return nil, fmt.Errorf("failed to persist catalog after allocation: %w", err)
		}

		as.logger.Info("Slot allocated",
			zap.String("platform", delivered.Platform),
			zap.String("plan_label", delivered.PlanLabel),
			zap.Int("slot_index", delivered.SlotIndex))
		return &delivered, nil
	}

	return nil, ErrOutOfStock
}

// takeSlot consumes one slot from the unit. For whole-account units the slot
// index is the sentinel 0 and the unit is always exhausted. For slotted units
// the current next-slot index is delivered; the unit is exhausted when that
// was the last slot.
func takeSlot(u *models.InventoryUnit) (slot int, exhausted bool) {
	if !u.TracksCapacity {
		return 0, true
	}
	slot = u.NextSlotIndex
	if u.CapacityRemaining > 1 {
		u.CapacityRemaining--
		u.NextSlotIndex++
		return slot, false
	}
	return slot, true
}

// Reservation identifies one unit a combo simulation chose, by the matching
// key the live allocation will replay.
type Reservation struct {
	Platform  string
	PlanLabel string
	UnitPrice float64
}

// PlanComboReservations simulates one allocation per requested platform
// against a snapshot of the catalog, first matching unit of any plan label
// per platform, applying the same decrement rules as a live allocation.
// Duplicate platforms consume successive slots or units. Returns false when
// any platform cannot be satisfied; the snapshot is discarded either way and
// nothing is persisted.
func PlanComboReservations(units []models.InventoryUnit, platforms []string) ([]Reservation, bool) {
	snapshot := make([]models.InventoryUnit, len(units))
	copy(snapshot, units)

	reservations := make([]Reservation, 0, len(platforms))
	for _, platform := range platforms {
		satisfied := false
		for i := range snapshot {
			u := &snapshot[i]
			if !u.MatchesPlatform(platform) || u.Available() <= 0 {
				continue
			}
			reservations = append(reservations, Reservation{
				Platform:  u.Platform,
				PlanLabel: u.PlanLabel,
				UnitPrice: u.UnitPrice,
			})
			if _, exhausted := takeSlot(u); exhausted {
				snapshot = append(snapshot[:i], snapshot[i+1:]...)
			}
			satisfied = true
			break
		}
		if !satisfied {
			return nil, false
		}
	}
	return reservations, true
}

// CommitReservations replays planned reservations against the live catalog,
// in order. Callers must hold the coordinator lock so the catalog cannot
// change between planning and replay.
func (as *AllocationService) CommitReservations(ctx context.Context, reservations []Reservation) ([]models.DeliveredUnit, error) {
	delivered := make([]models.DeliveredUnit, 0, len(reservations))
	for _, r := range reservations {
		d, err := as.Allocate(ctx, r.Platform, r.PlanLabel, r.UnitPrice)
		if err != nil {
			return delivered, fmt.Errorf("reservation replay failed for platform %s: %w", r.Platform, err)
		}
		delivered = append(delivered, *d)
	}
	return delivered, nil
}
