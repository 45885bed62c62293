package loan

import (
	"context"
	"time"
)

// Repository is the owner-scoped persistence boundary for loans and
// repayments. Every method takes the calling shopkeeper's ID; an entity that
// exists but belongs to another shopkeeper is reported as not found, never as
// a distinct error. Ownership of referenced entities is re-verified inside
// the write transaction, not trusted from an earlier read.
type Repository interface {
	CreateLoan(ctx context.Context, newLoan *Loan) (*Loan, error)

	GetLoanByID(ctx context.Context, loanID, ownerID int64) (*Loan, error)

	ListAccounts(ctx context.Context, ownerID int64) ([]Account, error)

	GetRepaymentsByLoanID(ctx context.Context, loanID, ownerID int64) ([]Repayment, error)

	CreateRepayment(ctx context.Context, ownerID int64, newRepayment *Repayment) (*Repayment, error)
}

// Clock supplies "today" for status derivation. Production wiring uses the
// wall clock; tests pin a fixed date.
type Clock func() time.Time
