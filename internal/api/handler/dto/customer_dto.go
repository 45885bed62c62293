package dto

import (
	"credit-ledger/internal/domain/customer"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CreateCustomerRequest struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	TrustScore  int    `json:"trustScore"`
	CreditLimit string `json:"creditLimit"`
}

func (r *CreateCustomerRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if r.CreditLimit != "" {
		if _, err := decimal.NewFromString(r.CreditLimit); err != nil {
			return fmt.Errorf("invalid creditLimit format: %w", err)
		}
	}
	return nil
}

// CreditLimitDecimal parses the optional credit limit; an absent field means
// zero.
func (r *CreateCustomerRequest) CreditLimitDecimal() decimal.Decimal {
	if r.CreditLimit == "" {
		return decimal.Zero
	}
	d, _ := decimal.NewFromString(r.CreditLimit)
	return d
}

type UpdateCustomerRequest struct {
	Name        *string `json:"name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	TrustScore  *int    `json:"trustScore,omitempty"`
	CreditLimit *string `json:"creditLimit,omitempty"`
}

func (r *UpdateCustomerRequest) Validate() error {
	if r.Name == nil && r.Phone == nil && r.Address == nil && r.TrustScore == nil && r.CreditLimit == nil {
		return fmt.Errorf("no fields to update")
	}
	if r.CreditLimit != nil {
		if _, err := decimal.NewFromString(*r.CreditLimit); err != nil {
			return fmt.Errorf("invalid creditLimit format: %w", err)
		}
	}
	return nil
}

func (r *UpdateCustomerRequest) ToParams() customer.UpdateCustomerParams {
	params := customer.UpdateCustomerParams{
		Name:       r.Name,
		Phone:      r.Phone,
		Address:    r.Address,
		TrustScore: r.TrustScore,
	}
	if r.CreditLimit != nil {
		d, _ := decimal.NewFromString(*r.CreditLimit)
		params.CreditLimit = &d
	}
	return params
}

type CustomerResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	TrustScore  int       `json:"trustScore"`
	CreditLimit string    `json:"creditLimit"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:          strconv.FormatInt(cust.ID, 10),
		Name:        cust.Name,
		Phone:       cust.Phone,
		Address:     cust.Address,
		TrustScore:  cust.TrustScore,
		CreditLimit: cust.CreditLimit.StringFixed(2),
		CreatedAt:   cust.CreatedAt,
		UpdatedAt:   cust.UpdatedAt,
	}
}
