package service

import (
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// LedgerService guards the balance invariants: balances never go negative and
// change only through Credit, Debit and the clamped administrative Deduct.
type LedgerService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewLedgerService creates a new ledger service
func NewLedgerService(st *store.Store) *LedgerService {
	return &LedgerService{
		store:  st,
		logger: util.GetLogger(),
	}
}

// EnsureAccount creates a zero-balance account if the customer is unknown.
// Persists immediately and is idempotent.
func (ls *LedgerService) EnsureAccount(customerID int64) error {
	accounts, err := ls.store.LoadAccounts()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if a.CustomerID == customerID {
			return nil
		}
	}

	accounts = append(accounts, models.Account{CustomerID: customerID, Balance: 0})
	if err := ls.store.ReplaceAccounts(accounts); err != nil {
		return err
	}

	ls.logger.Info("New account initialized", zap.Int64("customer_id", customerID))
	return nil
}

// Balance returns the customer's current balance, zero for unknown customers.
func (ls *LedgerService) Balance(customerID int64) (float64, error) {
	accounts, err := ls.store.LoadAccounts()
	if err != nil {
		return 0, err
	}
	for _, a := range accounts {
		if a.CustomerID == customerID {
			return a.Balance, nil
		}
	}
	return 0, nil
}

// CanAfford reports whether the customer's balance covers the amount.
func (ls *LedgerService) CanAfford(customerID int64, amount float64) (bool, error) {
	balance, err := ls.Balance(customerID)
	if err != nil {
		return false, err
	}
	return balance >= amount, nil
}

// Credit increases the customer's balance. Used by the administrative top-up
// path; amount must be positive.
func (ls *LedgerService) Credit(customerID int64, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("credit amount must be positive, got %.2f", amount)
	}
	return ls.adjust(customerID, amount, false)
}

// Debit decreases the customer's balance. The coordinator must check
// CanAfford first; calling Debit with insufficient funds is a programming
// error, not a normal outcome.
func (ls *LedgerService) Debit(customerID int64, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("debit amount must be positive, got %.2f", amount)
	}

	balance, err := ls.Balance(customerID)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		return 0, fmt.Errorf("debit of %.2f exceeds balance %.2f for customer %d", amount, balance, customerID)
	}
	return ls.adjust(customerID, -amount, false)
}

// Deduct is the administrative deduction: it clamps at zero instead of
// failing when the amount exceeds the balance.
func (ls *LedgerService) Deduct(customerID int64, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("deduction amount must be positive, got %.2f", amount)
	}
	return ls.adjust(customerID, -amount, true)
}

func (ls *LedgerService) adjust(customerID int64, delta float64, clamp bool) (float64, error) {
	accounts, err := ls.store.LoadAccounts()
	if err != nil {
		return 0, err
	}

	idx := -1
	for i := range accounts {
		if accounts[i].CustomerID == customerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		accounts = append(accounts, models.Account{CustomerID: customerID})
		idx = len(accounts) - 1
	}

	next := accounts[idx].Balance + delta
	if next < 0 {
		if !clamp {
			return 0, fmt.Errorf("balance for customer %d would go negative", customerID)
		}
		next = 0
	}
	accounts[idx].Balance = next

	if err := ls.store.ReplaceAccounts(accounts); err != nil {
		return 0, err
	}
	return next, nil
}

// Accounts returns all known accounts for the administrative listing.
func (ls *LedgerService) Accounts() ([]models.Account, error) {
	return ls.store.LoadAccounts()
}

// RemoveAccount deletes a customer's balance row. Purchase history is
// untouched.
func (ls *LedgerService) RemoveAccount(customerID int64) error {
	accounts, err := ls.store.LoadAccounts()
	if err != nil {
		return err
	}
	for i := range accounts {
		if accounts[i].CustomerID == customerID {
			accounts = append(accounts[:i], accounts[i+1:]...)
			return ls.store.ReplaceAccounts(accounts)
		}
	}
	return ErrAccountNotFound
}
