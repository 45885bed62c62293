package customer

import (
	"context"
)

// CustomerRepository persists customers, always scoped to the owning
// shopkeeper. A customer that exists under a different owner is reported
// exactly like a nonexistent one.
type CustomerRepository interface {
	Create(ctx context.Context, cust *Customer) error

	FindByID(ctx context.Context, customerID, ownerID int64) (*Customer, error)

	FindAll(ctx context.Context, ownerID int64) ([]*Customer, error)

	Update(ctx context.Context, cust *Customer) error

	Delete(ctx context.Context, customerID, ownerID int64) error
}
