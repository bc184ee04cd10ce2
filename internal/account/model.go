package account

import (
	"errors"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/koraei/bank/internal/users"
)

var (
	// ErrNotFound indicates no account exists for the requested identifier.
	ErrNotFound = errors.New("account not found")
	// ErrInsufficientFunds indicates a debit larger than the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrBalanceOverflow indicates a credit whose result is not representable.
	ErrBalanceOverflow = errors.New("balance overflow")
)

// Account is a named balance owned by a user.
type Account struct {
	ID         string
	HolderName string
	Balance    float64
	UpdatedAt  time.Time
	UserID     int64
	Owner      users.User
}

// Credit adds amount to the balance. The account is left untouched when
// the sum does not fit in a float64.
func (a *Account) Credit(amount float64, at time.Time) error {
	sum := decimal.NewFromFloat(a.Balance).Add(decimal.NewFromFloat(amount)).InexactFloat64()
	if math.IsInf(sum, 0) || math.IsNaN(sum) {
		return ErrBalanceOverflow
	}
	a.Balance = sum
	a.UpdatedAt = at
	return nil
}

// Debit subtracts amount from the balance. The balance is left untouched
// when it does not cover amount.
func (a *Account) Debit(amount float64, at time.Time) error {
	balance := decimal.NewFromFloat(a.Balance)
	debit := decimal.NewFromFloat(amount)
	if balance.LessThan(debit) {
		return ErrInsufficientFunds
	}
	a.Balance = balance.Sub(debit).InexactFloat64()
	a.UpdatedAt = at
	return nil
}
