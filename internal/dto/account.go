package dto

import (
	"github.com/SscSPs/stack_budget/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the data needed to create a new account.
type CreateAccountRequest struct {
	Name       string          `json:"name" binding:"required" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	IsPositive bool            `json:"isPositive"` // true = asset, false = liability
}

// UpdateAccountRequest defines the fields allowed when editing an account.
// Use pointers to distinguish between zero-value updates and fields not provided.
type UpdateAccountRequest struct {
	Name       *string          `json:"name"`
	Amount     *decimal.Decimal `json:"amount"`
	IsPositive *bool            `json:"isPositive"`
}

// AccountResponse is an account as returned by the API.
type AccountResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Amount     decimal.Decimal `json:"amount"`
	IsPositive bool            `json:"isPositive"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		ID:         acc.ID,
		Name:       acc.Name,
		Amount:     acc.Amount,
		IsPositive: acc.IsPositive,
	}
}
