package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/koraei/bank/internal/ledger"
)

// RegisterBankRoutes mounts the account and money movement endpoints.
func RegisterBankRoutes(api fiber.Router, h *ledger.Handler) {
	bank := api.Group("/bank")
	bank.Post("/create", h.Create)
	bank.Post("/deposit", h.Deposit)
	bank.Post("/withdraw", h.Withdraw)
	bank.Post("/transfer", h.Transfer)
	bank.Get("/balance/:accountId", h.Balance)
	bank.Get("/accounts/:accountId", h.Account)
	bank.Get("/operations/:operationId", h.Operation)
}
