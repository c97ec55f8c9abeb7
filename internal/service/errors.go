package service

import "errors"

// Recoverable outcomes. These are reported to the front end verbatim and
// never leave the catalog or ledger mutated.
var (
	// ErrOutOfStock signals exhausted stock for the requested unit. Not a
	// fault: the caller presents it and the customer may retry later.
	ErrOutOfStock = errors.New("out of stock")

	// ErrInsufficientFunds signals that the customer's balance does not
	// cover the requested price.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrComboNotFound signals an unknown combo title.
	ErrComboNotFound = errors.New("combo not found")

	// ErrAccountNotFound signals an unknown customer id where lazy
	// creation does not apply.
	ErrAccountNotFound = errors.New("account not found")
)
