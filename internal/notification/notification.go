// Package notification delivers ledger transaction events to downstream sinks.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"
)

// Kind names the type of balance change.
type Kind string

const (
	KindDeposit     Kind = "Deposit"
	KindWithdrawal  Kind = "Withdrawal"
	KindTransferOut Kind = "Transfer Out"
	KindTransferIn  Kind = "Transfer In"
)

// Record describes one successful balance change on one account.
type Record struct {
	AccountID string
	Kind      Kind
	Amount    float64
	At        time.Time
}

// Line renders the record in the transaction log format.
func (r Record) Line() string {
	return fmt.Sprintf("Account: %s | Type: %s | Amount: %s", r.AccountID, r.Kind, FormatAmount(r.Amount))
}

// FormatAmount prints amount in its shortest form, keeping one decimal place
// for whole numbers (200 prints as 200.0).
func FormatAmount(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', -1, 64)
	if !math.IsInf(amount, 0) && math.Trunc(amount) == amount {
		s += ".0"
	}
	return s
}

// Notifier receives a record for every successful mutation. Implementations
// must be safe for concurrent use.
type Notifier interface {
	OnTransaction(ctx context.Context, record Record) error
}

// LoggerNotifier writes records to the structured logger only.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// OnTransaction writes the record to the structured logger.
func (n *LoggerNotifier) OnTransaction(_ context.Context, record Record) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("transaction",
		slog.String("account_id", record.AccountID),
		slog.String("type", string(record.Kind)),
		slog.Float64("amount", record.Amount),
	)
	return nil
}

// Multi fans a record out to every notifier. All notifiers are called even
// when one fails; their errors are joined.
type Multi []Notifier

// OnTransaction forwards record to each notifier in order.
func (m Multi) OnTransaction(ctx context.Context, record Record) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.OnTransaction(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
