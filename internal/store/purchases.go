package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront-service/internal/models"

	"go.uber.org/zap"
)

const purchaseTimeFormat = "2006-01-02 15:04:05"

var (
	globalPurchaseHeader   = []string{"purchase_id", "customer_id", "timestamp", "plan", "login", "secret", "price"}
	customerPurchaseHeader = []string{"purchase_id", "timestamp", "plan", "login", "secret", "price"}
)

func historyFile(customerID int64) string {
	return fmt.Sprintf("history_%d.csv", customerID)
}

// AppendPurchase writes one audit record to the global purchase log and to
// the customer's own history file. Records are append-only; nothing in the
// core mutates or deletes them.
func (s *Store) AppendPurchase(rec models.PurchaseRecord) error {
	ts := rec.Timestamp.Format(purchaseTimeFormat)
	price := formatPrice(rec.PricePaid)

	globalRow := []string{
		rec.PurchaseID,
		strconv.FormatInt(rec.CustomerID, 10),
		ts,
		rec.PlanLabel,
		rec.Login,
		rec.Secret,
		price,
	}
	if err := s.appendRow(purchasesFile, globalPurchaseHeader, globalRow); err != nil {
		return err
	}

	customerRow := []string{rec.PurchaseID, ts, rec.PlanLabel, rec.Login, rec.Secret, price}
	return s.appendRow(historyFile(rec.CustomerID), customerPurchaseHeader, customerRow)
}

// LoadPurchases returns every record in the global purchase log.
func (s *Store) LoadPurchases() ([]models.PurchaseRecord, error) {
	rows, err := s.readRows(purchasesFile)
	if err != nil {
		return nil, err
	}

	records := make([]models.PurchaseRecord, 0, len(rows))
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "purchase_id" {
			continue
		}
		if len(row) != len(globalPurchaseHeader) {
			s.logger.Warn("Skipping malformed purchase row",
				zap.Int("line", i+1),
				zap.Strings("row", row))
			continue
		}
		customerID, err := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 64)
		if err != nil {
			s.logger.Warn("Skipping purchase row with bad customer id",
				zap.Int("line", i+1),
				zap.Error(err))
			continue
		}
		ts, err := time.Parse(purchaseTimeFormat, strings.TrimSpace(row[2]))
		if err != nil {
			s.logger.Warn("Skipping purchase row with bad timestamp",
				zap.Int("line", i+1),
				zap.Error(err))
			continue
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
		if err != nil {
			s.logger.Warn("Skipping purchase row with bad price",
				zap.Int("line", i+1),
				zap.Error(err))
			continue
		}
		records = append(records, models.PurchaseRecord{
			PurchaseID: strings.TrimSpace(row[0]),
			CustomerID: customerID,
			Timestamp:  ts,
			PlanLabel:  row[3],
			Login:      row[4],
			Secret:     row[5],
			PricePaid:  price,
		})
	}
	return records, nil
}

// FindPurchase returns the global-log record with the given id issued to the
// given customer, or nil when no such record exists.
func (s *Store) FindPurchase(customerID int64, purchaseID string) (*models.PurchaseRecord, error) {
	records, err := s.LoadPurchases()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].CustomerID == customerID && records[i].PurchaseID == purchaseID {
			return &records[i], nil
		}
	}
	return nil, nil
}

// FindCustomerPurchase looks the purchase id up in the customer's own history
// file. Used as a fallback for records predating the global log.
func (s *Store) FindCustomerPurchase(customerID int64, purchaseID string) (*models.PurchaseRecord, error) {
	rows, err := s.readRows(historyFile(customerID))
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "purchase_id" {
			continue
		}
		if len(row) != len(customerPurchaseHeader) || strings.TrimSpace(row[0]) != purchaseID {
			continue
		}
		ts, err := time.Parse(purchaseTimeFormat, strings.TrimSpace(row[1]))
		if err != nil {
			s.logger.Warn("Skipping history row with bad timestamp",
				zap.Int64("customer_id", customerID),
				zap.Int("line", i+1),
				zap.Error(err))
			continue
		}
		price, _ := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		return &models.PurchaseRecord{
			PurchaseID: purchaseID,
			CustomerID: customerID,
			Timestamp:  ts,
			PlanLabel:  row[2],
			Login:      row[3],
			Secret:     row[4],
			PricePaid:  price,
		}, nil
	}
	return nil, nil
}

// CountCustomerPurchases counts the customer's records in the global log.
func (s *Store) CountCustomerPurchases(customerID int64) (int, error) {
	rows, err := s.readRows(purchasesFile)
	if err != nil {
		return 0, err
	}
	want := strconv.FormatInt(customerID, 10)
	count := 0
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == "purchase_id" {
			continue
		}
		if len(row) >= 2 && strings.TrimSpace(row[1]) == want {
			count++
		}
	}
	return count, nil
}
