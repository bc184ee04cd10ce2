package ledger

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/koraei/bank/internal/account"
	"github.com/koraei/bank/internal/users"
	"github.com/koraei/bank/internal/web"
)

// Handler exposes the bank endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a bank HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	AccountHolderName string  `json:"accountHolderName" validate:"required"`
	Balance           float64 `json:"balance" validate:"gt=0"`
	UserID            int64   `json:"userId" validate:"gt=0"`
}

type amountRequest struct {
	AccountID string  `json:"accountId" validate:"required"`
	Amount    float64 `json:"amount" validate:"gt=0"`
}

type transferRequest struct {
	FromAccount string  `json:"fromAccount" validate:"required"`
	ToAccount   string  `json:"toAccount" validate:"required"`
	Amount      float64 `json:"amount" validate:"gt=0"`
}

// AccountResponse is the JSON representation of an account.
type AccountResponse struct {
	AccountID         string         `json:"accountId"`
	AccountHolderName string         `json:"accountHolderName"`
	Balance           float64        `json:"balance"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	User              users.Response `json:"user"`
}

func newAccountResponse(a account.Account) AccountResponse {
	return AccountResponse{
		AccountID:         a.ID,
		AccountHolderName: a.HolderName,
		Balance:           a.Balance,
		UpdatedAt:         a.UpdatedAt,
		User:              users.NewResponse(a.Owner),
	}
}

type operationResponse struct {
	OperationID string `json:"operationId"`
	Status      Status `json:"status"`
}

func accepted(c *fiber.Ctx, op *Operation) error {
	return c.Status(http.StatusOK).JSON(operationResponse{OperationID: op.ID(), Status: StatusPending})
}

// Create opens a new account.
func (h *Handler) Create(c *fiber.Ctx) error {
	req, err := web.BindAndValidate[createRequest](c)
	if err != nil {
		return err
	}
	acc, err := h.service.CreateAccount(c.UserContext(), req.AccountHolderName, req.Balance, req.UserID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(newAccountResponse(acc))
}

// Deposit schedules a deposit.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	req, err := web.BindAndValidate[amountRequest](c)
	if err != nil {
		return err
	}
	op, err := h.service.Deposit(c.UserContext(), req.AccountID, req.Amount)
	if err != nil {
		return err
	}
	return accepted(c, op)
}

// Withdraw schedules a withdrawal.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	req, err := web.BindAndValidate[amountRequest](c)
	if err != nil {
		return err
	}
	op, err := h.service.Withdraw(c.UserContext(), req.AccountID, req.Amount)
	if err != nil {
		return err
	}
	return accepted(c, op)
}

// Transfer schedules a transfer between two accounts.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	req, err := web.BindAndValidate[transferRequest](c)
	if err != nil {
		return err
	}
	op, err := h.service.Transfer(c.UserContext(), req.FromAccount, req.ToAccount, req.Amount)
	if err != nil {
		return err
	}
	return accepted(c, op)
}

// Balance returns the balance as a bare number.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.service.Balance(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(balance)
}

// Account returns an account with its owner.
func (h *Handler) Account(c *fiber.Ctx) error {
	acc, err := h.service.Account(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(newAccountResponse(acc))
}

// Operation reports the progress of a scheduled mutation.
func (h *Handler) Operation(c *fiber.Ctx) error {
	view, ok := h.service.Operation(c.Params("operationId"))
	if !ok {
		return ErrOperationNotFound
	}
	return c.Status(http.StatusOK).JSON(view)
}
