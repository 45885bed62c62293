package shopkeeper

import "context"

type Repository interface {
	Create(ctx context.Context, sk *Shopkeeper) error

	FindByEmail(ctx context.Context, email string) (*Shopkeeper, error)

	FindByID(ctx context.Context, shopkeeperID int64) (*Shopkeeper, error)

	// ListIDs returns every shopkeeper ID; the overdue sweep walks these.
	ListIDs(ctx context.Context) ([]int64, error)
}
