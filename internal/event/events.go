package event

import (
	"context"
	"time"
)

// RepaymentRecordedEvent is published after a repayment write commits.
type RepaymentRecordedEvent struct {
	OwnerID   int64     `json:"ownerId"`
	LoanID    int64     `json:"loanId"`
	Amount    string    `json:"amount"`
	Date      time.Time `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// LoanOverdueEvent feeds the external alerting surface; one event per
// overdue loan, not per customer.
type LoanOverdueEvent struct {
	OwnerID      int64     `json:"ownerId"`
	LoanID       int64     `json:"loanId"`
	CustomerID   int64     `json:"customerId"`
	CustomerName string    `json:"customerName"`
	Outstanding  string    `json:"outstanding"`
	DueDate      time.Time `json:"dueDate"`
	Timestamp    time.Time `json:"timestamp"`
}

type EventPublisher interface {
	PublishRepaymentRecorded(ctx context.Context, event RepaymentRecordedEvent) error
	PublishLoanOverdue(ctx context.Context, event LoanOverdueEvent) error
}
