package store

import (
	"fmt"
	"strconv"
	"strings"

	"storefront-service/internal/models"

	"go.uber.org/zap"
)

// Inventory rows come in two shapes:
//
//	platform,planLabel,login,secret,unitPrice                      (whole-account, implicit capacity 1)
//	platform,planLabel,login,secret,unitPrice,capacity,nextSlot    (slotted)
const (
	unitFieldsLegacy  = 5
	unitFieldsSlotted = 7
)

// LoadUnits loads the inventory catalog in storage order. Malformed rows are
// skipped and logged; a bad row never aborts the load.
func (s *Store) LoadUnits() ([]models.InventoryUnit, error) {
	rows, err := s.readRows(stockFile)
	if err != nil {
		return nil, err
	}

	units := make([]models.InventoryUnit, 0, len(rows))
	for i, row := range rows {
		unit, err := parseUnitRow(row)
		if err != nil {
			s.logger.Warn("Skipping malformed inventory row",
				zap.Int("line", i+1),
				zap.Strings("row", row),
				zap.Error(err))
			continue
		}
		units = append(units, unit)
	}
	return units, nil
}

// ReplaceUnits rewrites the full inventory catalog.
func (s *Store) ReplaceUnits(units []models.InventoryUnit) error {
	rows := make([][]string, 0, len(units))
	for _, u := range units {
		rows = append(rows, unitRow(u))
	}
	return s.writeRows(stockFile, rows)
}

// AppendUnit adds one unit to the end of the catalog, preserving FIFO
// addition order.
func (s *Store) AppendUnit(unit models.InventoryUnit) error {
	return s.appendRow(stockFile, nil, unitRow(unit))
}

func parseUnitRow(row []string) (models.InventoryUnit, error) {
	for i := range row {
		row[i] = strings.TrimSpace(row[i])
	}

	if len(row) != unitFieldsLegacy && len(row) != unitFieldsSlotted {
		return models.InventoryUnit{}, fmt.Errorf("unexpected field count %d", len(row))
	}

	price, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return models.InventoryUnit{}, fmt.Errorf("invalid unit price %q: %w", row[4], err)
	}

	unit := models.InventoryUnit{
		Platform:  row[0],
		PlanLabel: row[1],
		Login:     row[2],
		Secret:    row[3],
		UnitPrice: price,
	}

	if len(row) == unitFieldsSlotted {
		capacity, err := strconv.Atoi(row[5])
		if err != nil {
			return models.InventoryUnit{}, fmt.Errorf("invalid capacity %q: %w", row[5], err)
		}
		next, err := strconv.Atoi(row[6])
		if err != nil {
			return models.InventoryUnit{}, fmt.Errorf("invalid slot index %q: %w", row[6], err)
		}
		if capacity < 0 {
			return models.InventoryUnit{}, fmt.Errorf("negative capacity %d", capacity)
		}
		unit.TracksCapacity = true
		unit.CapacityRemaining = capacity
		unit.NextSlotIndex = next
	}

	return unit, nil
}

func unitRow(u models.InventoryUnit) []string {
	row := []string{
		u.Platform,
		u.PlanLabel,
		u.Login,
		u.Secret,
		formatPrice(u.UnitPrice),
	}
	if u.TracksCapacity {
		row = append(row, strconv.Itoa(u.CapacityRemaining), strconv.Itoa(u.NextSlotIndex))
	}
	return row
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 2, 64)
}
