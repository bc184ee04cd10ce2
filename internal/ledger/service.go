package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/koraei/bank/internal/account"
	"github.com/koraei/bank/internal/notification"
	"github.com/koraei/bank/internal/users"
	"github.com/koraei/bank/internal/workerpool"
)

// UserLookup resolves account owners.
type UserLookup interface {
	Get(ctx context.Context, id int64) (users.User, error)
}

// Options sizes the asynchronous machinery.
type Options struct {
	Workers          int
	QueueSize        int
	OperationHistory int
}

// Service applies balance changes. All mutations share one lock, held from
// the first read until the notifier returns.
type Service struct {
	mu sync.Mutex

	accounts account.Repository
	owners   UserLookup
	notifier notification.Notifier
	pool     *workerpool.Pool
	ops      *registry
	logger   *slog.Logger
	now      func() time.Time
	closed   atomic.Bool
}

// NewService wires the ledger and starts its worker pool.
func NewService(accounts account.Repository, owners UserLookup, notifier notification.Notifier, logger *slog.Logger, opts Options) *Service {
	logger = logger.With("component", "ledger")
	return &Service{
		accounts: accounts,
		owners:   owners,
		notifier: notifier,
		pool:     workerpool.New(opts.Workers, opts.QueueSize, logger),
		ops:      newRegistry(opts.OperationHistory),
		logger:   logger,
		now:      time.Now,
	}
}

// CreateAccount opens an account for an existing user. It runs on the
// caller's goroutine without taking the ledger lock.
func (s *Service) CreateAccount(ctx context.Context, holderName string, initialBalance float64, userID int64) (account.Account, error) {
	holderName = strings.TrimSpace(holderName)
	if holderName == "" {
		return account.Account{}, fmt.Errorf("%w: holder name is required", ErrInvalidAccount)
	}
	if err := validAmount(initialBalance); err != nil {
		return account.Account{}, err
	}

	owner, err := s.owners.Get(ctx, userID)
	if err != nil {
		return account.Account{}, fmt.Errorf("load owner %d: %w", userID, err)
	}

	acc := account.Account{
		ID:         uuid.NewString(),
		HolderName: holderName,
		Balance:    initialBalance,
		UpdatedAt:  s.now().UTC(),
		UserID:     owner.ID,
		Owner:      owner,
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return account.Account{}, err
	}
	s.logger.Info("account created", slog.String("account_id", acc.ID), slog.Int64("user_id", owner.ID))
	return acc, nil
}

// Deposit schedules amount to be added to the account.
func (s *Service) Deposit(_ context.Context, accountID string, amount float64) (*Operation, error) {
	if err := validAccountID(accountID); err != nil {
		return nil, err
	}
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	return s.submit(OperationDeposit, func(ctx context.Context) error {
		acc, err := s.accounts.Get(ctx, accountID)
		if err != nil {
			return fmt.Errorf("deposit to %s: %w", accountID, err)
		}
		at := s.now().UTC()
		if err := acc.Credit(amount, at); err != nil {
			return fmt.Errorf("deposit to %s: %w", accountID, err)
		}
		if err := s.accounts.Save(ctx, acc); err != nil {
			return fmt.Errorf("persist deposit to %s: %w", accountID, err)
		}
		s.notify(ctx, notification.Record{AccountID: acc.ID, Kind: notification.KindDeposit, Amount: amount, At: at})
		return nil
	})
}

// Withdraw schedules amount to be taken from the account. The account is
// left untouched when its balance does not cover amount.
func (s *Service) Withdraw(_ context.Context, accountID string, amount float64) (*Operation, error) {
	if err := validAccountID(accountID); err != nil {
		return nil, err
	}
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	return s.submit(OperationWithdraw, func(ctx context.Context) error {
		acc, err := s.accounts.Get(ctx, accountID)
		if err != nil {
			return fmt.Errorf("withdraw from %s: %w", accountID, err)
		}
		at := s.now().UTC()
		if err := acc.Debit(amount, at); err != nil {
			return fmt.Errorf("withdraw from %s: %w", accountID, err)
		}
		if err := s.accounts.Save(ctx, acc); err != nil {
			return fmt.Errorf("persist withdrawal from %s: %w", accountID, err)
		}
		s.notify(ctx, notification.Record{AccountID: acc.ID, Kind: notification.KindWithdrawal, Amount: amount, At: at})
		return nil
	})
}

// Transfer schedules amount to move between two accounts. Both legs are
// stored together or not at all.
func (s *Service) Transfer(_ context.Context, fromID, toID string, amount float64) (*Operation, error) {
	if err := validAccountID(fromID); err != nil {
		return nil, err
	}
	if err := validAccountID(toID); err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, ErrSameAccount
	}
	if err := validAmount(amount); err != nil {
		return nil, err
	}
	return s.submit(OperationTransfer, func(ctx context.Context) error {
		from, err := s.accounts.Get(ctx, fromID)
		if err != nil {
			return fmt.Errorf("transfer from %s: %w", fromID, err)
		}
		to, err := s.accounts.Get(ctx, toID)
		if err != nil {
			return fmt.Errorf("transfer to %s: %w", toID, err)
		}
		at := s.now().UTC()
		if err := from.Debit(amount, at); err != nil {
			return fmt.Errorf("transfer from %s: %w", fromID, err)
		}
		if err := to.Credit(amount, at); err != nil {
			return fmt.Errorf("transfer to %s: %w", toID, err)
		}
		if err := s.accounts.Save(ctx, from, to); err != nil {
			return fmt.Errorf("persist transfer %s -> %s: %w", fromID, toID, err)
		}
		s.notify(ctx, notification.Record{AccountID: from.ID, Kind: notification.KindTransferOut, Amount: amount, At: at})
		s.notify(ctx, notification.Record{AccountID: to.ID, Kind: notification.KindTransferIn, Amount: amount, At: at})
		return nil
	})
}

// Balance returns the stored balance, or zero for an unknown account. It
// does not take the ledger lock.
func (s *Service) Balance(ctx context.Context, accountID string) (float64, error) {
	acc, err := s.accounts.Get(ctx, accountID)
	if errors.Is(err, account.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// Account returns the stored account and its owner.
func (s *Service) Account(ctx context.Context, accountID string) (account.Account, error) {
	return s.accounts.Get(ctx, accountID)
}

// Operation looks up a recent operation by id.
func (s *Service) Operation(id string) (OperationView, bool) {
	op, ok := s.ops.get(id)
	if !ok {
		return OperationView{}, false
	}
	return op.View(), true
}

// Close stops accepting mutations and waits for queued ones to finish.
func (s *Service) Close(ctx context.Context) error {
	s.closed.Store(true)
	return s.pool.Close(ctx)
}

func (s *Service) submit(kind OperationKind, fn func(ctx context.Context) error) (*Operation, error) {
	if s.closed.Load() {
		return nil, ErrLedgerClosed
	}

	op := newOperation(kind, s.now().UTC())
	s.ops.add(op)

	err := s.pool.Submit(func() {
		// Queued work outlives the request that submitted it.
		err := s.locked(context.Background(), fn)
		op.complete(err, s.now().UTC())
		if err != nil {
			s.logger.Warn("operation failed",
				slog.String("operation_id", op.id),
				slog.String("kind", string(kind)),
				slog.Any("error", err),
			)
			return
		}
		s.logger.Debug("operation applied", slog.String("operation_id", op.id), slog.String("kind", string(kind)))
	})
	if err != nil {
		s.ops.remove(op.id)
		if errors.Is(err, workerpool.ErrClosed) {
			return nil, fmt.Errorf("%w: %w", ErrLedgerClosed, err)
		}
		return nil, err
	}
	return op, nil
}

func (s *Service) locked(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ledger operation panicked: %v", r)
		}
	}()
	return fn(ctx)
}

// notify reports an already persisted change. Failures are logged and never
// undo the mutation.
func (s *Service) notify(ctx context.Context, record notification.Record) {
	if s.notifier == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notifier panicked", slog.String("account_id", record.AccountID), slog.Any("panic", r))
		}
	}()
	if err := s.notifier.OnTransaction(ctx, record); err != nil {
		s.logger.Error("notify transaction",
			slog.String("account_id", record.AccountID),
			slog.String("type", string(record.Kind)),
			slog.Any("error", err),
		)
	}
}

func validAmount(amount float64) error {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return ErrInvalidAmount
	}
	return nil
}

func validAccountID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: account id is required", ErrInvalidAccount)
	}
	return nil
}
