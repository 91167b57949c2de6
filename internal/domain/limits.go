package domain

import "github.com/shopspring/decimal"

// MaxItemQuantity caps one order line and the combined demand for a single
// product within an order.
const MaxItemQuantity = 1_000_000

// Money columns are decimal(12,2): two fractional digits, ten integer digits.
const moneyScale = 2

var maxMoney = decimal.New(1, 10)

// ValidateMoney reports whether amount fits a money column without rounding.
func ValidateMoney(field string, amount decimal.Decimal) error {
	switch {
	case amount.IsNegative():
		return &ValidationError{Field: field, Message: "must not be negative"}
	case !amount.Equal(amount.Truncate(moneyScale)):
		return &ValidationError{Field: field, Message: "must have at most 2 decimal places"}
	case amount.GreaterThanOrEqual(maxMoney):
		return &ValidationError{Field: field, Message: "must be less than " + maxMoney.String()}
	}
	return nil
}
