package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// numericToDecimal converts a scanned NUMERIC column into a decimal value.
// A SQL NULL converts to zero; money columns in the schema are NOT NULL, so
// this only happens for aggregate queries over empty sets.
func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	if n.NaN {
		return decimal.Zero, fmt.Errorf("numeric column holds NaN")
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}
