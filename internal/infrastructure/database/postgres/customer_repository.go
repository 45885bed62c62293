package postgres

import (
	"context"
	"credit-ledger/internal/domain/customer"
	"credit-ledger/internal/infrastructure/monitoring"
	"credit-ledger/internal/pkg/apperrors"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

const customerColumns = "id, owner_id, name, phone, address, trust_score, credit_limit, created_at, updated_at"

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	return &CustomerRepository{db: db, logger: logger.With("component", "CustomerRepository")}
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	query := `
        INSERT INTO customers (owner_id, name, phone, address, trust_score, credit_limit, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING id, created_at, updated_at`
	status := "success"
	startTime := time.Now()

	err := r.db.QueryRow(ctx, query,
		cust.OwnerID, cust.Name, cust.Phone, cust.Address, cust.TrustScore, cust.CreditLimit.String(),
	).Scan(&cust.ID, &cust.CreatedAt, &cust.UpdatedAt)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("CreateCustomer", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert customer", "owner_id", cust.OwnerID, "error", err)
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Customer created in DB", "customer_id", cust.ID, "owner_id", cust.OwnerID)
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID, ownerID int64) (*customer.Customer, error) {
	query := `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE id = $1 AND owner_id = $2`
	status := "success"
	startTime := time.Now()

	cust, err := scanCustomer(r.db.QueryRow(ctx, query, customerID, ownerID))

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("FindCustomerByID", status, time.Since(startTime))

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found", "customer_id", customerID, "owner_id", ownerID)
			return nil, apperrors.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get customer by ID", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context, ownerID int64) ([]*customer.Customer, error) {
	query := `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE owner_id = $1
        ORDER BY id`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", "owner_id", ownerID, "error", err)
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		customers = append(customers, cust)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return customers, nil
}

func (r *CustomerRepository) Update(ctx context.Context, cust *customer.Customer) error {
	query := `
        UPDATE customers
        SET name = $1, phone = $2, address = $3, trust_score = $4, credit_limit = $5, updated_at = NOW()
        WHERE id = $6 AND owner_id = $7`
	status := "success"
	startTime := time.Now()

	cmdTag, err := r.db.Exec(ctx, query,
		cust.Name, cust.Phone, cust.Address, cust.TrustScore, cust.CreditLimit.String(),
		cust.ID, cust.OwnerID,
	)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("UpdateCustomer", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update customer", "customer_id", cust.ID, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Customer not found for update", "customer_id", cust.ID, "owner_id", cust.OwnerID)
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer updated in DB", "customer_id", cust.ID)
	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, customerID, ownerID int64) error {
	query := `DELETE FROM customers WHERE id = $1 AND owner_id = $2`
	status := "success"
	startTime := time.Now()

	cmdTag, err := r.db.Exec(ctx, query, customerID, ownerID)

	if err != nil {
		status = "error"
	}
	monitoring.RecordDBQuery("DeleteCustomer", status, time.Since(startTime))

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete customer", "customer_id", customerID, "error", err)
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Customer not found for delete", "customer_id", customerID, "owner_id", ownerID)
		return apperrors.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer deleted from DB", "customer_id", customerID)
	return nil
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var (
		cust  customer.Customer
		limit pgtype.Numeric
	)
	err := row.Scan(
		&cust.ID, &cust.OwnerID, &cust.Name, &cust.Phone, &cust.Address,
		&cust.TrustScore, &limit, &cust.CreatedAt, &cust.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cust.CreditLimit, err = numericToDecimal(limit); err != nil {
		return nil, err
	}
	return &cust, nil
}
