package routes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/koraei/bank/internal/account"
	"github.com/koraei/bank/internal/config"
	"github.com/koraei/bank/internal/ledger"
	"github.com/koraei/bank/internal/middleware"
	"github.com/koraei/bank/internal/notification"
	"github.com/koraei/bank/internal/users"
	"github.com/koraei/bank/internal/web"
	"github.com/koraei/bank/internal/workerpool"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *gorm.DB
	Cache  *redis.Client
	Logger *slog.Logger
}

// Runtime holds the long-lived components created by Setup that must be
// released on shutdown.
type Runtime struct {
	Ledger *ledger.Service
	txLog  *notification.FileNotifier
}

// Close drains the ledger and then closes the transaction log.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if r.Ledger != nil {
		if err := r.Ledger.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close ledger: %w", err))
		}
	}
	if r.txLog != nil {
		if err := r.txLog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close transaction log: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ErrorHandler maps domain errors to problem details responses.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return web.NewErrorHandler(logger, []web.ErrorMapping{
		{Err: ledger.ErrInvalidAmount, Status: http.StatusBadRequest, Title: "Validation failed"},
		{Err: ledger.ErrInvalidAccount, Status: http.StatusBadRequest, Title: "Validation failed"},
		{Err: ledger.ErrSameAccount, Status: http.StatusBadRequest, Title: "Validation failed"},
		{Err: ledger.ErrAccountNotFound, Status: http.StatusNotFound, Title: "Account not found"},
		{Err: ledger.ErrOperationNotFound, Status: http.StatusNotFound, Title: "Operation not found"},
		{Err: users.ErrUserNotFound, Status: http.StatusNotFound, Title: "User not found"},
		{Err: users.ErrDuplicateIDCard, Status: http.StatusConflict, Title: "Duplicate id card"},
		{Err: ledger.ErrInsufficientFunds, Status: http.StatusUnprocessableEntity, Title: "Insufficient funds"},
		{Err: ledger.ErrBalanceOverflow, Status: http.StatusUnprocessableEntity, Title: "Balance overflow"},
		{Err: ledger.ErrLedgerClosed, Status: http.StatusServiceUnavailable, Title: "Service unavailable"},
		{Err: workerpool.ErrQueueFull, Status: http.StatusServiceUnavailable, Title: "Service busy"},
		{Err: workerpool.ErrClosed, Status: http.StatusServiceUnavailable, Title: "Service unavailable"},
	})
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) (*Runtime, error) {
	if d.DB == nil && !d.Cfg.IsDevelopment() {
		return nil, fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	app.Use(recover.New())
	if d.Cache != nil {
		app.Use(middleware.MutationRateLimit(d.Cache, d.Cfg.MutationRateLimit, d.Logger))
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	userRepo, accountRepo, err := repositories(d)
	if err != nil {
		return nil, err
	}

	txLog, err := notification.OpenFileNotifier(d.Cfg.TransactionLogPath, d.Logger.With("component", "transactions"))
	if err != nil {
		return nil, err
	}
	notifiers := notification.Multi{txLog}
	if d.Cache != nil && d.Cfg.TransactionStream != "" {
		notifiers = append(notifiers, notification.NewStreamNotifier(d.Cache, d.Cfg.TransactionStream, 0))
	}

	userSvc := users.NewService(userRepo)
	ledgerSvc := ledger.NewService(accountRepo, userSvc, notifiers, d.Logger, ledger.Options{
		Workers:          d.Cfg.WorkerPoolSize,
		QueueSize:        d.Cfg.WorkerQueueSize,
		OperationHistory: d.Cfg.OperationHistory,
	})

	api := app.Group("/api")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
	RegisterBankRoutes(api, ledger.NewHandler(ledgerSvc))
	RegisterUserRoutes(api, users.NewHandler(userSvc))

	return &Runtime{Ledger: ledgerSvc, txLog: txLog}, nil
}

func repositories(d Deps) (users.Repository, account.Repository, error) {
	if d.DB == nil {
		d.Logger.Warn("no database configured, using in-memory stores")
		return users.NewMemoryRepository(), account.NewMemoryRepository(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	userRepo := users.NewGormRepository(d.DB)
	if err := userRepo.Migrate(ctx); err != nil {
		return nil, nil, fmt.Errorf("migrate users: %w", err)
	}
	accountRepo := account.NewGormRepository(d.DB)
	if err := accountRepo.Migrate(ctx); err != nil {
		return nil, nil, fmt.Errorf("migrate accounts: %w", err)
	}
	return userRepo, accountRepo, nil
}
