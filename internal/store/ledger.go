package store

import (
	"fmt"
	"strconv"

	"storefront-service/internal/models"

	"go.uber.org/zap"
)

// LoadAccounts loads all customer balances. Malformed rows are skipped and
// logged.
func (s *Store) LoadAccounts() ([]models.Account, error) {
	rows, err := s.readRows(balancesFile)
	if err != nil {
		return nil, err
	}

	accounts := make([]models.Account, 0, len(rows))
	for i, row := range rows {
		if len(row) != 2 {
			s.logger.Warn("Skipping malformed balance row",
				zap.Int("line", i+1),
				zap.Strings("row", row))
			continue
		}
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			s.logger.Warn("Skipping balance row with bad customer id",
				zap.Int("line", i+1),
				zap.String("customer_id", row[0]),
				zap.Error(err))
			continue
		}
		balance, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			s.logger.Warn("Skipping balance row with bad amount",
				zap.Int("line", i+1),
				zap.String("balance", row[1]),
				zap.Error(err))
			continue
		}
		accounts = append(accounts, models.Account{CustomerID: id, Balance: balance})
	}
	return accounts, nil
}

// ReplaceAccounts rewrites the full balance ledger.
func (s *Store) ReplaceAccounts(accounts []models.Account) error {
	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, []string{
			strconv.FormatInt(a.CustomerID, 10),
			fmt.Sprintf("%.2f", a.Balance),
		})
	}
	return s.writeRows(balancesFile, rows)
}
