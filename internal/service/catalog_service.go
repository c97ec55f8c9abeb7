package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// CatalogService builds buyer-facing and administrative views of the
// inventory without mutating persisted state, except for the administrative
// add/delete operations. A Redis cache of the summary is optional; any cache
// error falls back to recomputing from the store.
type CatalogService struct {
	store    *store.Store
	cache    *redisclient.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(st *store.Store, cache *redisclient.Client, cacheTTL time.Duration) *CatalogService {
	return &CatalogService{
		store:    st,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   util.GetLogger(),
	}
}

// Summary returns the minimum price and distinct plan labels per
// (category, platform) pair for whole and slotted units. Units classified
// other never appear in listings but stay in storage.
func (cs *CatalogService) Summary(ctx context.Context) (models.CatalogSummary, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Summary")
	defer span.End()

	if cs.cache != nil {
		payload, err := cs.cache.GetCatalogSummary(ctx)
		if err == nil {
			var cached models.CatalogSummary
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached, nil
			}
			cs.logger.Warn("Discarding unreadable cached summary", zap.Error(err))
		} else if !redisclient.IsCacheMiss(err) {
			cs.logger.Warn("Summary cache read failed, falling back to store", zap.Error(err))
		}
	}

	units, err := cs.store.LoadUnits()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	summary := buildSummary(units)

	if cs.cache != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := cs.cache.SetCatalogSummary(ctx, payload, cs.cacheTTL); err != nil {
				cs.logger.Warn("Failed to cache summary", zap.Error(err))
			}
		}
	}
	return summary, nil
}

func buildSummary(units []models.InventoryUnit) models.CatalogSummary {
	labels := make(map[models.Category]map[string]map[string]struct{})
	summary := models.CatalogSummary{}

	for _, u := range units {
		category := u.Category()
		if category == models.CategoryOther {
			continue
		}

		platform := strings.TrimSpace(u.Platform)
		if summary[category] == nil {
			summary[category] = make(map[string]models.PlatformSummary)
			labels[category] = make(map[string]map[string]struct{})
		}
		if labels[category][platform] == nil {
			labels[category][platform] = make(map[string]struct{})
		}

		entry, ok := summary[category][platform]
		if !ok || u.UnitPrice < entry.MinPrice {
			entry.MinPrice = u.UnitPrice
		}
		labels[category][platform][strings.TrimSpace(u.PlanLabel)] = struct{}{}
		summary[category][platform] = entry
	}

	for category, platforms := range labels {
		for platform, set := range platforms {
			entry := summary[category][platform]
			for label := range set {
				entry.PlanLabels = append(entry.PlanLabels, label)
			}
			sort.Strings(entry.PlanLabels)
			summary[category][platform] = entry
		}
	}
	return summary
}

// CountAvailable sums remaining capacity for units matching the platform and
// category, counting whole units as one each.
func (cs *CatalogService) CountAvailable(ctx context.Context, platform string, category models.Category) (int, error) {
	units, err := cs.store.LoadUnits()
	if err != nil {
		return 0, fmt.Errorf("failed to load catalog: %w", err)
	}

	total := 0
	for _, u := range units {
		if u.Category() != category || !u.MatchesPlatform(platform) {
			continue
		}
		total += u.Available()
	}
	return total, nil
}

// StockOverview groups units by (platform, plan label, price) for the
// administrative inventory view, sorted for stable display.
func (cs *CatalogService) StockOverview(ctx context.Context) ([]models.StockCount, error) {
	units, err := cs.store.LoadUnits()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	type key struct {
		platform string
		label    string
		price    float64
	}
	grouped := make(map[key]*models.StockCount)
	for _, u := range units {
		k := key{strings.TrimSpace(u.Platform), strings.TrimSpace(u.PlanLabel), u.UnitPrice}
		entry, ok := grouped[k]
		if !ok {
			entry = &models.StockCount{Platform: k.platform, PlanLabel: k.label, UnitPrice: k.price}
			grouped[k] = entry
		}
		entry.Units++
		entry.Slots += u.Available()
	}

	counts := make([]models.StockCount, 0, len(grouped))
	for _, entry := range grouped {
		counts = append(counts, *entry)
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Platform != counts[j].Platform {
			return counts[i].Platform < counts[j].Platform
		}
		if counts[i].PlanLabel != counts[j].PlanLabel {
			return counts[i].PlanLabel < counts[j].PlanLabel
		}
		return counts[i].UnitPrice < counts[j].UnitPrice
	})
	return counts, nil
}

// AddUnit appends one unit to the catalog. New units always track capacity;
// legacy capacity-less rows only exist in files written by older tooling.
func (cs *CatalogService) AddUnit(ctx context.Context, unit models.InventoryUnit, capacity int) error {
	if strings.TrimSpace(unit.Platform) == "" {
		return fmt.Errorf("platform must not be empty")
	}
	if strings.TrimSpace(unit.PlanLabel) == "" {
		return fmt.Errorf("plan label must not be empty")
	}
	if unit.Login == "" || unit.Secret == "" {
		return fmt.Errorf("credential must not be empty")
	}
	if unit.UnitPrice <= 0 {
		return fmt.Errorf("unit price must be positive, got %.2f", unit.UnitPrice)
	}
	if capacity < 1 {
		capacity = 1
	}

	unit.TracksCapacity = true
	unit.CapacityRemaining = capacity
	unit.NextSlotIndex = 1

	if err := cs.store.AppendUnit(unit); err != nil {
		return err
	}

	util.StockUnitsAddedTotal.Inc()
	cs.InvalidateCache(ctx)
	cs.logger.Info("Stock unit added",
		zap.String("platform", unit.Platform),
		zap.String("plan_label", unit.PlanLabel),
		zap.Int("capacity", capacity))
	return nil
}

// DeleteUnit removes the first unit matching platform, plan label and login.
// Returns false when no unit matched.
func (cs *CatalogService) DeleteUnit(ctx context.Context, platform, planLabel, login string) (bool, error) {
	units, err := cs.store.LoadUnits()
	if err != nil {
		return false, fmt.Errorf("failed to load catalog: %w", err)
	}

	for i := range units {
		u := &units[i]
		if !u.MatchesPlatform(platform) {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(u.PlanLabel), strings.TrimSpace(planLabel)) {
			continue
		}
		if u.Login != strings.TrimSpace(login) {
			continue
		}

		units = append(units[:i], units[i+1:]...)
		if err := cs.store.ReplaceUnits(units); err != nil {
			return false, err
		}
		cs.InvalidateCache(ctx)
		cs.logger.Info("Stock unit deleted",
			zap.String("platform", platform),
			zap.String("plan_label", planLabel))
		return true, nil
	}
	return false, nil
}

// InvalidateCache drops the cached summary after any stock mutation.
func (cs *CatalogService) InvalidateCache(ctx context.Context) {
	if cs.cache == nil {
		return
	}
	if err := cs.cache.InvalidateCatalog(ctx); err != nil {
		cs.logger.Warn("Failed to invalidate summary cache", zap.Error(err))
	}
}
