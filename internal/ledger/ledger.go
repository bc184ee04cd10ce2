// Package ledger owns every balance change. Deposits, withdrawals and
// transfers run asynchronously on a bounded worker pool and are serialized by
// a single lock shared across all accounts.
package ledger

import (
	"errors"

	"github.com/koraei/bank/internal/account"
)

var (
	// ErrAccountNotFound indicates a referenced account does not exist.
	ErrAccountNotFound = account.ErrNotFound
	// ErrInsufficientFunds indicates the source balance does not cover the amount.
	ErrInsufficientFunds = account.ErrInsufficientFunds
	// ErrBalanceOverflow indicates a credit would exceed the representable balance.
	ErrBalanceOverflow = account.ErrBalanceOverflow

	// ErrInvalidAmount rejects amounts that are not strictly positive.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrInvalidAccount rejects empty account identifiers or holder names.
	ErrInvalidAccount = errors.New("invalid account")
	// ErrSameAccount rejects transfers whose source and destination match.
	ErrSameAccount = errors.New("cannot transfer to the same account")
	// ErrLedgerClosed is returned for work submitted after Close.
	ErrLedgerClosed = errors.New("ledger is closed")
	// ErrOperationNotFound indicates an unknown or evicted operation id.
	ErrOperationNotFound = errors.New("operation not found")
)
