package account

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/hana-ti/home-planner/internal/ledger"
)

// Handler exposes account HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds an account HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type openRequest struct {
	ProductID string `json:"productId"`
	Type      string `json:"accountType"`
}

type movementRequest struct {
	Amount     int64  `json:"amount"`
	ClientTxID string `json:"clientTxId"`
	Memo       string `json:"memo"`
}

type transferRequest struct {
	FromAccountID   string `json:"fromAccountId"`
	ToAccountID     string `json:"toAccountId"`
	ToAccountNumber string `json:"toAccountNumber"`
	Amount          int64  `json:"amount"`
	ClientTxID      string `json:"clientTxId"`
	Memo            string `json:"memo"`
}

// Open provisions an account for the authenticated user.
func (h *Handler) Open(c *fiber.Ctx) error {
	var req openRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	acc, err := h.service.Open(c.UserContext(), OpenInput{UserID: userID, ProductID: req.ProductID, Type: req.Type})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(acc)
}

// List returns the caller's accounts, optionally filtered by ?type=.
func (h *Handler) List(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	accounts, err := h.service.ListByUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	if t := c.Query("type"); t != "" {
		filtered := accounts[:0:0]
		for _, a := range accounts {
			if a.Type == t {
				filtered = append(filtered, a)
			}
		}
		accounts = filtered
	}
	return c.JSON(accounts)
}

// Get returns one account of the caller.
func (h *Handler) Get(c *fiber.Ctx) error {
	acc, err := h.accessible(c)
	if err != nil {
		return err
	}
	return c.JSON(acc)
}

// Balance returns the account balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	acc, err := h.accessible(c)
	if err != nil {
		return err
	}
	balance, err := h.service.Balance(c.UserContext(), acc.ID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(balance)
}

// Transactions returns the account history.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	list, err := h.service.Transactions(c.UserContext(), c.Params("accountId"), userID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(list)
}

// Participants lists the users linked to the account.
func (h *Handler) Participants(c *fiber.Ctx) error {
	acc, err := h.accessible(c)
	if err != nil {
		return err
	}
	participants, err := h.service.Participants(c.UserContext(), acc.ID)
	if err != nil {
		return err
	}
	return c.JSON(participants)
}

// Deposit books cash into the account.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	return h.move(c, h.service.Deposit)
}

// Withdraw books cash out of the account.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	return h.move(c, h.service.Withdraw)
}

func (h *Handler) move(c *fiber.Ctx, op func(ctx context.Context, in MovementInput) (ledger.TransactionResult, error)) error {
	var req movementRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	clientTxID := req.ClientTxID
	if clientTxID == "" {
		clientTxID = c.Get("Idempotency-Key")
	}
	res, err := op(c.UserContext(), MovementInput{
		AccountID:       c.Params("accountId"),
		Amount:          req.Amount,
		ClientTxID:      clientTxID,
		Memo:            req.Memo,
		RequestorUserID: userID,
	})
	if err != nil {
		return mapError(err)
	}
	balance, err := h.service.Balance(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transactionId": res.TransactionID,
		"balance":       balance.Amount,
	})
}

// Transfer moves funds from one of the caller's accounts.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	clientTxID := req.ClientTxID
	if clientTxID == "" {
		clientTxID = c.Get("Idempotency-Key")
	}
	res, err := h.service.Transfer(c.UserContext(), TransferInput{
		FromAccountID:   req.FromAccountID,
		ToAccountID:     req.ToAccountID,
		ToAccountNumber: req.ToAccountNumber,
		Amount:          req.Amount,
		ClientTxID:      clientTxID,
		Memo:            req.Memo,
		RequestorUserID: userID,
	})
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(res)
}

func (h *Handler) accessible(c *fiber.Ctx) (Account, error) {
	userID, _ := c.Locals("user_id").(string)
	acc, err := h.service.Get(c.UserContext(), c.Params("accountId"))
	if err != nil {
		return Account{}, mapError(err)
	}
	ok, err := h.service.IsParticipant(c.UserContext(), acc.ID, userID)
	if err != nil {
		return Account{}, err
	}
	if !ok {
		return Account{}, mapError(ErrForbidden)
	}
	return acc, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrForbidden):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds), errors.Is(err, ledger.ErrDuplicateTransaction),
		errors.Is(err, ErrAccountInactive):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ErrSameAccount):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return err
	}
}
