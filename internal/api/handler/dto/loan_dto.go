package dto

import (
	"credit-ledger/internal/domain/loan"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CreateLoanRequest struct {
	CustomerID      int64  `json:"customerId"`
	ItemDescription string `json:"itemDescription"`
	Amount          string `json:"amount"`
	LoanDate        string `json:"loanDate"`
	DueDate         string `json:"dueDate"`
	Frequency       string `json:"frequency,omitempty"`
}

func (r *CreateLoanRequest) Validate() error {
	if r.CustomerID <= 0 {
		return fmt.Errorf("customerId must be positive")
	}
	if strings.TrimSpace(r.ItemDescription) == "" {
		return fmt.Errorf("itemDescription is required")
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil || r.Amount == "" {
		return fmt.Errorf("invalid amount format: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be greater than zero")
	}
	if r.LoanDate != "" {
		if _, err := time.Parse(time.RFC3339[:10], r.LoanDate); err != nil {
			return fmt.Errorf("invalid loanDate format (use YYYY-MM-DD): %w", err)
		}
	}
	if _, err := time.Parse(time.RFC3339[:10], r.DueDate); err != nil || r.DueDate == "" {
		return fmt.Errorf("invalid dueDate format (use YYYY-MM-DD): %w", err)
	}
	return nil
}

type RecordRepaymentRequest struct {
	Amount string `json:"amount"`
	Date   string `json:"date,omitempty"`
}

func (r *RecordRepaymentRequest) Validate() error {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil || r.Amount == "" {
		return fmt.Errorf("invalid repayment amount: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be greater than zero")
	}
	if r.Date != "" {
		if _, err := time.Parse(time.RFC3339[:10], r.Date); err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}
	return nil
}

type LoanResponse struct {
	ID              string    `json:"id"`
	CustomerID      string    `json:"customerId"`
	CustomerName    string    `json:"customerName,omitempty"`
	ItemDescription string    `json:"itemDescription"`
	Amount          string    `json:"amount"`
	TotalRepaid     string    `json:"totalRepaid"`
	Outstanding     string    `json:"outstanding"`
	Status          string    `json:"status"`
	LoanDate        string    `json:"loanDate"`
	DueDate         string    `json:"dueDate"`
	Frequency       string    `json:"frequency"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type RepaymentResponse struct {
	ID     string `json:"id"`
	LoanID string `json:"loanId"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

type PortfolioSummaryResponse struct {
	TotalLoaned    string `json:"totalLoaned"`
	TotalCollected string `json:"totalCollected"`
	OverdueAmount  string `json:"overdueAmount"`
}

type OverdueAccountResponse struct {
	LoanID          string `json:"loanId"`
	CustomerID      string `json:"customerId"`
	CustomerName    string `json:"customerName,omitempty"`
	ItemDescription string `json:"itemDescription"`
	Amount          string `json:"amount"`
	Outstanding     string `json:"outstanding"`
	DueDate         string `json:"dueDate"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

func NewLoanResponse(summary *loan.LoanSummary) LoanResponse {
	l := summary.Loan
	return LoanResponse{
		ID:              strconv.FormatInt(l.ID, 10),
		CustomerID:      strconv.FormatInt(l.CustomerID, 10),
		CustomerName:    summary.CustomerName,
		ItemDescription: l.ItemDescription,
		Amount:          l.Amount.StringFixed(2),
		TotalRepaid:     summary.TotalRepaid.StringFixed(2),
		Outstanding:     l.Outstanding(summary.TotalRepaid).StringFixed(2),
		Status:          string(summary.Status),
		LoanDate:        l.LoanDate.Format(time.RFC3339[:10]),
		DueDate:         l.DueDate.Format(time.RFC3339[:10]),
		Frequency:       l.Frequency,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func NewRepaymentResponse(rep *loan.Repayment) RepaymentResponse {
	return RepaymentResponse{
		ID:     strconv.FormatInt(rep.ID, 10),
		LoanID: strconv.FormatInt(rep.LoanID, 10),
		Amount: rep.Amount.StringFixed(2),
		Date:   rep.Date.Format(time.RFC3339[:10]),
	}
}

func NewPortfolioSummaryResponse(summary *loan.PortfolioSummary) PortfolioSummaryResponse {
	return PortfolioSummaryResponse{
		TotalLoaned:    summary.TotalLoaned.StringFixed(2),
		TotalCollected: summary.TotalCollected.StringFixed(2),
		OverdueAmount:  summary.OverdueAmount.StringFixed(2),
	}
}

func NewOverdueAccountResponse(acct loan.OverdueAccount) OverdueAccountResponse {
	return OverdueAccountResponse{
		LoanID:          strconv.FormatInt(acct.Loan.ID, 10),
		CustomerID:      strconv.FormatInt(acct.Loan.CustomerID, 10),
		CustomerName:    acct.CustomerName,
		ItemDescription: acct.Loan.ItemDescription,
		Amount:          acct.Loan.Amount.StringFixed(2),
		Outstanding:     acct.Outstanding.StringFixed(2),
		DueDate:         acct.Loan.DueDate.Format(time.RFC3339[:10]),
	}
}
