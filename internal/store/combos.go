package store

import (
	"strconv"
	"strings"

	"storefront-service/internal/models"

	"go.uber.org/zap"
)

// Platform lists inside a combo row are joined with this separator. It is
// reserved: platform names must not contain it.
const platformSeparator = "|"

// LoadCombos loads all combo definitions. Malformed rows are skipped and
// logged.
func (s *Store) LoadCombos() ([]models.ComboDefinition, error) {
	rows, err := s.readRows(combosFile)
	if err != nil {
		return nil, err
	}

	combos := make([]models.ComboDefinition, 0, len(rows))
	for i, row := range rows {
		if len(row) != 4 {
			s.logger.Warn("Skipping malformed combo row",
				zap.Int("line", i+1),
				zap.Strings("row", row))
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			s.logger.Warn("Skipping combo row with bad price",
				zap.Int("line", i+1),
				zap.String("price", row[2]),
				zap.Error(err))
			continue
		}

		platforms := make([]string, 0)
		for _, p := range strings.Split(row[3], platformSeparator) {
			if p = strings.TrimSpace(p); p != "" {
				platforms = append(platforms, p)
			}
		}
		if len(platforms) == 0 {
			s.logger.Warn("Skipping combo row with empty platform list",
				zap.Int("line", i+1),
				zap.String("title", row[0]))
			continue
		}

		combos = append(combos, models.ComboDefinition{
			Title:     strings.TrimSpace(row[0]),
			Subtitle:  strings.TrimSpace(row[1]),
			Price:     price,
			Platforms: platforms,
		})
	}
	return combos, nil
}

// AppendCombo adds one combo definition.
func (s *Store) AppendCombo(combo models.ComboDefinition) error {
	row := []string{
		combo.Title,
		combo.Subtitle,
		formatPrice(combo.Price),
		strings.Join(combo.Platforms, platformSeparator),
	}
	return s.appendRow(combosFile, nil, row)
}
