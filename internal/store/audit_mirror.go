package store

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// AuditMirror copies committed purchase records into Postgres for reporting
// tooling. The CSV purchase log stays the commit-critical write; a mirror
// failure never fails a purchase.
type AuditMirror struct {
	db *sqlx.DB
}

// NewAuditMirror connects to the reporting database.
func NewAuditMirror(databaseURL string) (*AuditMirror, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to audit database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	return &AuditMirror{db: db}, nil
}

// Close closes the database connection.
func (m *AuditMirror) Close() error {
	return m.db.Close()
}

// InsertPurchase mirrors one purchase record.
func (m *AuditMirror) InsertPurchase(ctx context.Context, rec models.PurchaseRecord) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO purchases (purchase_id, customer_id, purchased_at, plan_label, login, price_paid)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT DO NOTHING`,
		rec.PurchaseID, rec.CustomerID, rec.Timestamp, rec.PlanLabel, rec.Login, rec.PricePaid)
	if err != nil {
		return fmt.Errorf("failed to mirror purchase %s: %w", rec.PurchaseID, err)
	}
	return nil
}

// CustomerPurchaseCount returns how many mirrored purchases a customer has.
func (m *AuditMirror) CustomerPurchaseCount(ctx context.Context, customerID int64) (int, error) {
	var count int
	err := m.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM purchases WHERE customer_id = $1", customerID)
	return count, err
}
