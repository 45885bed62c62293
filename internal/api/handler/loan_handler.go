package handler

import (
	"credit-ledger/internal/api/handler/dto"
	"credit-ledger/internal/api/middleware"
	"credit-ledger/internal/domain/loan"
	"credit-ledger/internal/pkg/apperrors"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type LoanHandler struct {
	service loan.LedgerService
	clock   loan.Clock
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LedgerService, clock loan.Clock, l *slog.Logger) *LoanHandler {
	if clock == nil {
		clock = time.Now
	}
	return &LoanHandler{
		service: s,
		clock:   clock,
		logger:  l.With("component", "LoanHandler"),
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized."
	case errors.Is(err, apperrors.ErrAlreadyExists):
		status, message = http.StatusConflict, err.Error()
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	case errors.As(err, &appErr):
		message = appErr.Error()
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

// ownerFromContext resolves the authenticated shopkeeper for the request.
// Routes using it sit behind the auth middleware, so a missing ID means the
// route was wired incorrectly.
func ownerFromContext(r *http.Request) (int64, error) {
	ownerID, ok := middleware.ShopkeeperID(r.Context())
	if !ok {
		return 0, apperrors.ErrUnauthorized
	}
	return ownerID, nil
}

func getLoanIDFromURL(r *http.Request) (int64, error) {
	idStr := chi.URLParam(r, "loanID")
	if idStr == "" {
		return 0, fmt.Errorf("loanID not found in URL path")
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// CreateLoan records a new credit sale against one of the caller's customers.
//
// @Summary Create a new loan
// @Description This endpoint records a credit sale to a customer: the item handed over, the amount owed, and the agreed due date.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan creation request payload"
// @Success 201 {object} dto.LoanResponse "Loan successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromContext(r)
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	amount, _ := decimal.NewFromString(req.Amount)
	var loanDate time.Time
	if req.LoanDate != "" {
		loanDate, _ = time.Parse(time.RFC3339[:10], req.LoanDate)
	}
	dueDate, _ := time.Parse(time.RFC3339[:10], req.DueDate)

	createdLoan, err := h.service.CreateLoan(r.Context(), ownerID, req.CustomerID, req.ItemDescription, amount, loanDate, dueDate, req.Frequency)
	if err != nil {
		respondError(w, err)
		return
	}

	summary := loan.Account{Loan: *createdLoan}.Summarize(h.clock())
	respondJSON(w, http.StatusCreated, dto.NewLoanResponse(&summary))
}

// ListLoans lists every loan of the caller with derived status and totals.
//
// @Summary List loans
// @Description This endpoint lists all loans of the authenticated shopkeeper. Each row carries the total repaid so far and the derived settlement status (PAID, OVERDUE or PENDING).
// @Tags Loans
// @Produce json
// @Success 200 {array} dto.LoanResponse "Loans successfully listed"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromContext(r)
	if err != nil {
		respondError(w, err)
		return
	}

	summaries, err := h.service.ListLoans(r.Context(), ownerID, h.clock())
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]dto.LoanResponse, len(summaries))
	for i := range summaries {
		resp[i] = dto.NewLoanResponse(&summaries[i])
	}
	respondJSON(w, http.StatusOK, resp)
}

// GetLoan retrieves one loan with derived status and totals.
//
// @Summary Retrieve loan details
// @Description This endpoint retrieves one loan of the authenticated shopkeeper by ID, including the total repaid and the derived settlement status.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID"
// @Success 200 {object} dto.LoanResponse "Loan details successfully retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromContext(r)
	if err != nil {
		respondError(w, err)
		return
	}

	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	summary, err := h.service.GetLoan(r.Context(), ownerID, loanID, h.clock())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanResponse(summary))
}

// RecordRepayment posts a partial or full repayment against a loan.
//
// @Summary Record a repayment
// @Description This endpoint records a repayment against a loan by its ID. The amount must be positive; overpayment is accepted and the loan simply reports as PAID.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID"
// @Param request body dto.RecordRepaymentRequest true "Repayment request payload"
// @Success 201 {object} dto.RepaymentResponse "Repayment successfully recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID, request payload, or validation error"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID}/repayments [post]
// @Security BearerAuth
func (h *LoanHandler) RecordRepayment(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromContext(r)
	if err != nil {
		respondError(w, err)
		return
	}

	loanID, err := getLoanIDFromURL(r)
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	var req dto.RecordRepaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	amount, _ := decimal.NewFromString(req.Amount)
	var date time.Time
	if req.Date != "" {
		date, _ = time.Parse(time.RFC3339[:10], req.Date)
	}

	rep, err := h.service.RecordRepayment(r.Context(), ownerID, loanID, amount, date)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewRepaymentResponse(rep))
}

// GetSummary returns the caller's portfolio aggregates.
//
// @Summary Retrieve portfolio summary
// @Description This endpoint aggregates the authenticated shopkeeper's entire book: total amount loaned out, total collected, and the outstanding balance of overdue loans.
// @Tags Portfolio
// @Produce json
// @Success 200 {object} dto.PortfolioSummaryResponse "Portfolio summary successfully computed"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /summary [get]
// @Security BearerAuth
func (h *LoanHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromContext(r)
	if err != nil {
		respondError(w, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), ownerID, h.clock())
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewPortfolioSummaryResponse(summary))
}

// GetOverdue lists the caller's overdue loans, one row per loan.
//
// @Summary List overdue accounts
// @Description This endpoint lists every overdue loan of the authenticated shopkeeper with its outstanding balance. A customer with several overdue loans appears once per loan.
// @Tags Portfolio
// @Produce json
// @Success 200 {array} dto.OverdueAccountResponse "Overdue accounts successfully listed"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /overdue [get]
// @Security BearerAuth
func (h *LoanHandler) GetOverdue(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromContext(r)
	if err != nil {
		respondError(w, err)
		return
	}

	overdue, err := h.service.OverdueAccounts(r.Context(), ownerID, h.clock())
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]dto.OverdueAccountResponse, len(overdue))
	for i, acct := range overdue {
		resp[i] = dto.NewOverdueAccountResponse(acct)
	}
	respondJSON(w, http.StatusOK, resp)
}
