package shopkeeper

import "time"

// Shopkeeper is the tenant identity every ledger operation is scoped to.
type Shopkeeper struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
