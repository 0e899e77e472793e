package webapi

import (
	"strconv"

	"github.com/amirasaad/ledger/pkg/currency"
	"github.com/amirasaad/ledger/pkg/service/ledger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

const defaultHistoryLimit = 10

// Routes registers HTTP routes for ledger operations using the Fiber web framework.
//
// Routes:
//   - POST /accounts              : Create a new account.
//   - GET  /accounts/:id          : Retrieve the account and its balance.
//   - GET  /accounts/:id/history  : List ledger entries, most recent first.
//   - POST /accounts/:id/deposit  : Deposit funds into the account.
//   - POST /accounts/:id/withdraw : Withdraw funds from the account.
//   - POST /transfer              : Move funds between two accounts.
func Routes(app *fiber.App, svc *ledger.Service) {
	app.Post("/accounts", CreateAccount(svc))
	app.Get("/accounts/:id", GetBalance(svc))
	app.Get("/accounts/:id/history", GetHistory(svc))
	app.Post("/accounts/:id/deposit", Deposit(svc))
	app.Post("/accounts/:id/withdraw", Withdraw(svc))
	app.Post("/transfer", Transfer(svc))
}

// CreateAccount returns a Fiber handler that creates a new account with a zero
// balance in one of the supported currencies.
func CreateAccount(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[CreateAccountRequest](c)
		if input == nil {
			return err
		}
		code, err := currency.Parse(input.Currency)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Unsupported currency", err.Error())
		}
		account, err := svc.CreateAccount(c.UserContext(), input.Owner, code)
		if err != nil {
			log.Errorf("Failed to create account: %v", err)
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to create account", err.Error())
		}
		return SuccessResponseJSON(c, fiber.StatusCreated, "Account created", toAccountResponse(account))
	}
}

// GetBalance returns a Fiber handler that retrieves an account with its
// current balance. Read-only, no locks taken.
func GetBalance(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accountID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", "Account ID must be a valid UUID")
		}
		account, err := svc.GetAccount(c.UserContext(), accountID)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to get account", err.Error())
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Account retrieved", toAccountResponse(account))
	}
}

// GetHistory returns a Fiber handler that lists an account's ledger entries
// ordered by creation time descending, paginated by offset/limit query params.
func GetHistory(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accountID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", "Account ID must be a valid UUID")
		}
		offset := parseQueryInt(c, "offset", 0)
		limit := parseQueryInt(c, "limit", defaultHistoryLimit)
		entries, err := svc.GetHistory(c.UserContext(), accountID, offset, limit)
		if err != nil {
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to get history", err.Error())
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "History retrieved", toTransactionResponses(entries))
	}
}

// Deposit returns a Fiber handler that adds funds to an account.
func Deposit(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accountID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", "Account ID must be a valid UUID")
		}
		input, err := BindAndValidate[MutationRequest](c)
		if input == nil {
			return err
		}
		result, err := svc.Deposit(c.UserContext(), accountID, input.Amount, input.IdempotencyKey)
		if err != nil {
			log.Errorf("Failed to deposit: %v", err)
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to deposit", err.Error())
		}
		return mutationResponseJSON(c, "Deposit successful", result)
	}
}

// Withdraw returns a Fiber handler that removes funds from an account,
// rejecting the request when the balance cannot cover the amount.
func Withdraw(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accountID, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", "Account ID must be a valid UUID")
		}
		input, err := BindAndValidate[MutationRequest](c)
		if input == nil {
			return err
		}
		result, err := svc.Withdraw(c.UserContext(), accountID, input.Amount, input.IdempotencyKey)
		if err != nil {
			log.Errorf("Failed to withdraw: %v", err)
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to withdraw", err.Error())
		}
		return mutationResponseJSON(c, "Withdrawal successful", result)
	}
}

// Transfer returns a Fiber handler that atomically moves funds between two
// accounts. A replayed idempotency key yields a skipped response with no new
// side effects.
func Transfer(svc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := BindAndValidate[TransferRequest](c)
		if input == nil {
			return err
		}
		fromID, err := uuid.Parse(input.FromAccountID)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", err.Error())
		}
		toID, err := uuid.Parse(input.ToAccountID)
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid account ID", err.Error())
		}
		result, err := svc.Transfer(c.UserContext(), fromID, toID, input.Amount, input.IdempotencyKey)
		if err != nil {
			log.Errorf("Failed to transfer: %v", err)
			return ErrorResponseJSON(c, ErrorToStatusCode(err), "Failed to transfer", err.Error())
		}
		if result.Skipped {
			return SuccessResponseJSON(c, fiber.StatusOK, "Transaction already processed", fiber.Map{
				"status": "SKIPPED",
			})
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Transfer successful", fiber.Map{
			"status":             "success",
			"sender_new_balance": result.NewBalance,
		})
	}
}

func mutationResponseJSON(c *fiber.Ctx, message string, result *ledger.OperationResult) error {
	if result.Skipped {
		return SuccessResponseJSON(c, fiber.StatusOK, "Transaction already processed", fiber.Map{
			"status": "SKIPPED",
		})
	}
	return SuccessResponseJSON(c, fiber.StatusOK, message, fiber.Map{
		"status":      "success",
		"new_balance": result.NewBalance,
	})
}

func parseQueryInt(c *fiber.Ctx, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
