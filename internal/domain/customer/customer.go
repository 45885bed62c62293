package customer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer is a credit customer of exactly one shopkeeper. OwnerID scopes
// every read and write; a customer is invisible to any other shopkeeper.
type Customer struct {
	ID          int64           `json:"id"`
	OwnerID     int64           `json:"ownerId"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Address     string          `json:"address"`
	TrustScore  int             `json:"trustScore"`
	CreditLimit decimal.Decimal `json:"creditLimit"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func NewCustomer(ownerID int64, name, phone, address string, trustScore int, creditLimit decimal.Decimal) *Customer {
	now := time.Now()
	return &Customer{
		OwnerID:     ownerID,
		Name:        name,
		Phone:       phone,
		Address:     address,
		TrustScore:  trustScore,
		CreditLimit: creditLimit,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
