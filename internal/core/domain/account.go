package domain

import (
	"github.com/shopspring/decimal"
)

// Account represents an asset or liability the user holds.
// Amount is a magnitude; IsPositive decides the sign it contributes to net worth.
type Account struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	IsPositive bool            `json:"isPositive"` // true = asset, false = liability
}

// EntityName implements Entity.
func (a *Account) EntityName() string { return a.Name }

// Balance implements Entity.
func (a *Account) Balance() decimal.Decimal { return a.Amount }

// SetBalance implements Entity.
func (a *Account) SetBalance(amount decimal.Decimal) { a.Amount = amount }

// IsLiability implements Entity.
func (a *Account) IsLiability() bool { return !a.IsPositive }

// SignedAmount is the account's contribution to net worth.
func (a Account) SignedAmount() decimal.Decimal {
	if a.IsPositive {
		return a.Amount
	}
	return a.Amount.Neg()
}
