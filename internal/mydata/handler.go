package mydata

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/hana-ti/home-planner/internal/format"
)

// Handler exposes the financial profile endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a mydata HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type profileRequest struct {
	AnnualIncome  decimal.Decimal `json:"annualIncome"`
	CreditGrade   string          `json:"creditGrade"`
	HousingStatus string          `json:"housingStatus"`
	Region        string          `json:"region"`
}

type loanRequest struct {
	LoanType     string          `json:"loanType"`
	Institution  string          `json:"institution"`
	Balance      decimal.Decimal `json:"balance"`
	InterestRate decimal.Decimal `json:"interestRate"`
	RepayMethod  string          `json:"repayMethod"`
	MaturityDate string          `json:"maturityDate"`
	Mortgage     bool            `json:"mortgage"`
}

// GetProfile returns the caller's profile.
func (h *Handler) GetProfile(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	p, err := h.service.Profile(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(p)
}

// PutProfile replaces the caller's profile.
func (h *Handler) PutProfile(c *fiber.Ctx) error {
	var req profileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	p, err := h.service.SaveProfile(c.UserContext(), Profile{
		UserID:        userID,
		AnnualIncome:  req.AnnualIncome,
		CreditGrade:   req.CreditGrade,
		HousingStatus: req.HousingStatus,
		Region:        req.Region,
	})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(p)
}

// ListLoans returns the caller's external loans.
func (h *Handler) ListLoans(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	loans, err := h.service.Loans(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(format.NewList(loans, "등록된 대출이 없습니다."))
}

// AddLoan registers an external loan for the caller.
func (h *Handler) AddLoan(c *fiber.Ctx) error {
	var req loanRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	loan := Loan{
		UserID:       userID,
		LoanType:     req.LoanType,
		Institution:  req.Institution,
		Balance:      req.Balance,
		InterestRate: req.InterestRate,
		RepayMethod:  req.RepayMethod,
		Mortgage:     req.Mortgage,
	}
	if req.MaturityDate != "" {
		d, err := time.Parse(time.DateOnly, req.MaturityDate)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "maturityDate must be YYYY-MM-DD")
		}
		loan.MaturityDate = &d
	}
	created, err := h.service.AddLoan(c.UserContext(), loan)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(created)
}

// DeleteLoan removes an external loan.
func (h *Handler) DeleteLoan(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if err := h.service.RemoveLoan(c.UserContext(), userID, c.Params("id")); err != nil {
		if errors.Is(err, ErrLoanNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
