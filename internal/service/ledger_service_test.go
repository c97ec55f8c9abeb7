package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureAccountIdempotent(t *testing.T) {
	st := newTestStore(t)
	ls := NewLedgerService(st)

	require.NoError(t, ls.EnsureAccount(1001))
	_, err := ls.Credit(1001, 75)
	require.NoError(t, err)

	// A second ensure must not reset the balance.
	require.NoError(t, ls.EnsureAccount(1001))
	balance, err := ls.Balance(1001)
	require.NoError(t, err)
	assert.Equal(t, 75.0, balance)

	accounts, err := ls.Accounts()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestBalanceUnknownCustomerIsZero(t *testing.T) {
	ls := NewLedgerService(newTestStore(t))

	balance, err := ls.Balance(9999)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestCreditAndDebit(t *testing.T) {
	ls := NewLedgerService(newTestStore(t))

	balance, err := ls.Credit(1001, 100)
	require.NoError(t, err)
	assert.Equal(t, 100.0, balance)

	balance, err = ls.Debit(1001, 40)
	require.NoError(t, err)
	assert.Equal(t, 60.0, balance)

	ok, err := ls.CanAfford(1001, 60)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ls.CanAfford(1001, 60.01)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	ls := NewLedgerService(newTestStore(t))

	_, err := ls.Credit(1001, 0)
	assert.Error(t, err)
	_, err = ls.Credit(1001, -5)
	assert.Error(t, err)
}

func TestDebitExceedingBalanceFails(t *testing.T) {
	ls := NewLedgerService(newTestStore(t))

	_, err := ls.Credit(1001, 30)
	require.NoError(t, err)

	_, err = ls.Debit(1001, 50)
	assert.Error(t, err)

	balance, err := ls.Balance(1001)
	require.NoError(t, err)
	assert.Equal(t, 30.0, balance)
}

func TestDeductClampsAtZero(t *testing.T) {
	ls := NewLedgerService(newTestStore(t))

	_, err := ls.Credit(1001, 20)
	require.NoError(t, err)

	balance, err := ls.Deduct(1001, 50)
	require.NoError(t, err)
	assert.Zero(t, balance)

	balance, err = ls.Balance(1001)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestRemoveAccount(t *testing.T) {
	ls := NewLedgerService(newTestStore(t))

	require.NoError(t, ls.EnsureAccount(1001))
	require.NoError(t, ls.RemoveAccount(1001))

	accounts, err := ls.Accounts()
	require.NoError(t, err)
	assert.Empty(t, accounts)

	assert.ErrorIs(t, ls.RemoveAccount(1001), ErrAccountNotFound)
}
