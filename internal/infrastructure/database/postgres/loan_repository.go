package postgres

import (
	"context"
	"credit-ledger/internal/domain/loan"
	"credit-ledger/internal/infrastructure/monitoring"
	"credit-ledger/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v4"
)

type DBPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Close()
}

type LoanRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ DBPool = (*pgxpool.Pool)(nil)

var _ DBPool = (pgxmock.PgxPoolIface)(nil)

var _ loan.Repository = (*LoanRepository)(nil)

var errMsgFormat = "%w: %w"

const loanColumns = "id, owner_id, customer_id, item_description, amount, loan_date, due_date, frequency, created_at, updated_at"

func NewLoanRepository(db DBPool, logger *slog.Logger) *LoanRepository {
	return &LoanRepository{db: db, logger: logger.With("component", "LoanRepository")}
}

func (r *LoanRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *LoanRepository) CommitTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Commit(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) RollbackTx(ctx context.Context, tx pgx.Tx) error {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

// CreateLoan inserts a loan after re-verifying, inside the same transaction,
// that the referenced customer still belongs to the caller. The FOR SHARE
// lock stops a concurrent delete from racing past the check.
func (r *LoanRepository) CreateLoan(ctx context.Context, newLoan *loan.Loan) (*loan.Loan, error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer r.RollbackTx(ctx, tx)

	ownershipSQL := `SELECT id FROM customers WHERE id = $1 AND owner_id = $2 FOR SHARE`

	var customerID int64
	err = tx.QueryRow(ctx, ownershipSQL, newLoan.CustomerID, newLoan.OwnerID).Scan(&customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found or not owned by caller",
				"customer_id", newLoan.CustomerID, "owner_id", newLoan.OwnerID)
			return nil, fmt.Errorf("%w: customer %d", apperrors.ErrNotFound, newLoan.CustomerID)
		}
		r.logger.ErrorContext(ctx, "Failed to verify customer ownership", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	loanSQL := `
        INSERT INTO loans (owner_id, customer_id, item_description, amount, loan_date, due_date, frequency, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
        RETURNING ` + loanColumns

	createdLoan, err := scanLoan(tx.QueryRow(ctx, loanSQL,
		newLoan.OwnerID, newLoan.CustomerID, newLoan.ItemDescription,
		newLoan.Amount.String(), newLoan.LoanDate, newLoan.DueDate, newLoan.Frequency,
	))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert loan", "error", err)
		return nil, fmt.Errorf("%w: failed to insert loan: %w", apperrors.ErrDatabase, err)
	}

	if err := r.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Loan created in DB", "loan_id", createdLoan.ID)
	return createdLoan, nil
}

func (r *LoanRepository) GetLoanByID(ctx context.Context, loanID, ownerID int64) (*loan.Loan, error) {
	query := `
        SELECT ` + loanColumns + `
        FROM loans
        WHERE id = $1 AND owner_id = $2`
	status := "success"
	startTime := time.Now()

	l, err := scanLoan(r.db.QueryRow(ctx, query, loanID, ownerID))

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("GetLoanByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID, "owner_id", ownerID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get loan by ID", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return l, nil
}

// ListAccounts loads every loan of the shopkeeper with its customer name and
// repayments. The customer join is a LEFT JOIN so a loan whose customer row
// was deleted still appears in listings and aggregates.
func (r *LoanRepository) ListAccounts(ctx context.Context, ownerID int64) ([]loan.Account, error) {
	query := `
        SELECT l.id, l.owner_id, l.customer_id, l.item_description, l.amount, l.loan_date, l.due_date, l.frequency, l.created_at, l.updated_at,
               COALESCE(c.name, '')
        FROM loans l
        LEFT JOIN customers c ON c.id = l.customer_id AND c.owner_id = l.owner_id
        WHERE l.owner_id = $1
        ORDER BY l.id`
	status := "success"
	startTime := time.Now()

	accounts, err := r.queryAccounts(ctx, query, ownerID)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("ListAccounts", status, time.Since(startTime))

	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return accounts, nil
	}

	if err := r.attachRepayments(ctx, ownerID, accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *LoanRepository) queryAccounts(ctx context.Context, query string, ownerID int64) ([]loan.Account, error) {
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query loan accounts", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	accounts := make([]loan.Account, 0)
	for rows.Next() {
		var (
			l    loan.Loan
			amt  pgtype.Numeric
			name string
		)
		err := rows.Scan(
			&l.ID, &l.OwnerID, &l.CustomerID, &l.ItemDescription, &amt,
			&l.LoanDate, &l.DueDate, &l.Frequency, &l.CreatedAt, &l.UpdatedAt,
			&name,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan loan account row", "owner_id", ownerID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		if l.Amount, err = numericToDecimal(amt); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		accounts = append(accounts, loan.Account{Loan: l, CustomerName: name, Repayments: make([]loan.Repayment, 0)})
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating loan account rows", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return accounts, nil
}

func (r *LoanRepository) attachRepayments(ctx context.Context, ownerID int64, accounts []loan.Account) error {
	query := `
        SELECT r.id, r.loan_id, r.amount, r.repayment_date, r.created_at
        FROM repayments r
        JOIN loans l ON l.id = r.loan_id
        WHERE l.owner_id = $1
        ORDER BY r.loan_id, r.id`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query repayments for accounts", "owner_id", ownerID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	byLoanID := make(map[int64]int, len(accounts))
	for i, a := range accounts {
		byLoanID[a.Loan.ID] = i
	}

	for rows.Next() {
		rep, err := scanRepayment(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan repayment row", "owner_id", ownerID, "error", err)
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		if i, ok := byLoanID[rep.LoanID]; ok {
			accounts[i].Repayments = append(accounts[i].Repayments, *rep)
		}
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating repayment rows", "owner_id", ownerID, "error", err)
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *LoanRepository) GetRepaymentsByLoanID(ctx context.Context, loanID, ownerID int64) ([]loan.Repayment, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT id FROM loans WHERE id = $1 AND owner_id = $2`, loanID, ownerID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found", "loan_id", loanID, "owner_id", ownerID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to verify loan before listing repayments", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	query := `
        SELECT id, loan_id, amount, repayment_date, created_at
        FROM repayments
        WHERE loan_id = $1
        ORDER BY id`

	rows, err := r.db.Query(ctx, query, loanID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query repayments", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	repayments := make([]loan.Repayment, 0)
	for rows.Next() {
		rep, err := scanRepayment(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan repayment row", "loan_id", loanID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		repayments = append(repayments, *rep)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating repayment rows", "loan_id", loanID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return repayments, nil
}

// CreateRepayment inserts a repayment after re-verifying loan ownership
// inside the transaction. A loan owned by another shopkeeper is reported
// exactly like a nonexistent one.
func (r *LoanRepository) CreateRepayment(ctx context.Context, ownerID int64, newRepayment *loan.Repayment) (*loan.Repayment, error) {
	status := "success"
	startTime := time.Now()

	rep, err := r.createRepaymentTx(ctx, ownerID, newRepayment)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("CreateRepayment", status, time.Since(startTime))

	return rep, err
}

func (r *LoanRepository) createRepaymentTx(ctx context.Context, ownerID int64, newRepayment *loan.Repayment) (*loan.Repayment, error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer r.RollbackTx(ctx, tx)

	ownershipSQL := `SELECT id FROM loans WHERE id = $1 AND owner_id = $2 FOR SHARE`

	var loanID int64
	err = tx.QueryRow(ctx, ownershipSQL, newRepayment.LoanID, ownerID).Scan(&loanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Loan not found or not owned by caller",
				"loan_id", newRepayment.LoanID, "owner_id", ownerID)
			return nil, fmt.Errorf("%w: loan %d", apperrors.ErrNotFound, newRepayment.LoanID)
		}
		r.logger.ErrorContext(ctx, "Failed to verify loan ownership", "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	insertSQL := `
        INSERT INTO repayments (loan_id, amount, repayment_date, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id, loan_id, amount, repayment_date, created_at`

	created, err := scanRepayment(tx.QueryRow(ctx, insertSQL,
		newRepayment.LoanID, newRepayment.Amount.String(), newRepayment.Date,
	))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert repayment", "loan_id", newRepayment.LoanID, "error", err)
		return nil, fmt.Errorf("%w: failed to insert repayment: %w", apperrors.ErrDatabase, err)
	}

	if err := r.CommitTx(ctx, tx); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Repayment created in DB", "repayment_id", created.ID, "loan_id", created.LoanID)
	return created, nil
}

func scanLoan(row pgx.Row) (*loan.Loan, error) {
	var (
		l   loan.Loan
		amt pgtype.Numeric
	)
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.CustomerID, &l.ItemDescription, &amt,
		&l.LoanDate, &l.DueDate, &l.Frequency, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if l.Amount, err = numericToDecimal(amt); err != nil {
		return nil, err
	}
	return &l, nil
}

func scanRepayment(row pgx.Row) (*loan.Repayment, error) {
	var (
		rep loan.Repayment
		amt pgtype.Numeric
	)
	err := row.Scan(&rep.ID, &rep.LoanID, &amt, &rep.Date, &rep.CreatedAt)
	if err != nil {
		return nil, err
	}
	if rep.Amount, err = numericToDecimal(amt); err != nil {
		return nil, err
	}
	return &rep, nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {

		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
