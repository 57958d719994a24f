package dto

import (
	"github.com/SscSPs/stack_budget/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateItemRequest defines the data needed to create a budget, bill or goal.
// Due is interpreted by section: a recurrence for budget, a day of month for
// bills, a YYYY-MM-DD date (or empty) for goals.
type CreateItemRequest struct {
	Name           string           `json:"name" binding:"required" validate:"required"`
	Amount         decimal.Decimal  `json:"amount"`
	NeededAmount   *decimal.Decimal `json:"neededAmount"`
	Due            string           `json:"due"`
	EnableSpending *bool            `json:"enableSpending"`
}

// UpdateItemRequest defines the fields allowed when editing an item.
// Amount is set directly; use UpdateAmountRequest to reset spend history.
type UpdateItemRequest struct {
	Name           *string          `json:"name"`
	Amount         *decimal.Decimal `json:"amount"`
	NeededAmount   *decimal.Decimal `json:"neededAmount"`
	Due            *string          `json:"due"`
	EnableSpending *bool            `json:"enableSpending"`
}

// UpdateAmountRequest sets a new amount. For items it clears the spend
// history, so Confirm must be set when the history is not empty.
type UpdateAmountRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	Confirm bool            `json:"confirm"`
}

// SpendRequest records a spend against an item, optionally charging an account.
type SpendRequest struct {
	Section   domain.Section  `json:"section"`
	ItemID    string          `json:"itemID"`
	Name      string          `json:"name" binding:"required" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	AccountID string          `json:"accountID"`
}

// TransferRequest moves an amount between two entities. From and To use
// the "acc:<id>" / "<section>:<id>" reference form.
type TransferRequest struct {
	From   string          `json:"from" binding:"required" validate:"required"`
	To     string          `json:"to" binding:"required" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// ItemResponse is an item as returned by the API.
type ItemResponse struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Amount         decimal.Decimal     `json:"amount"`
	NeededAmount   decimal.NullDecimal `json:"neededAmount"`
	Due            *domain.Schedule    `json:"due"`
	Spent          []domain.SpendEntry `json:"spent"`
	EnableSpending bool                `json:"enableSpending"`
}

// ToItemResponse converts a domain.BudgetItem to ItemResponse DTO.
func ToItemResponse(item *domain.BudgetItem) ItemResponse {
	spent := item.Spent
	if spent == nil {
		spent = []domain.SpendEntry{}
	}
	return ItemResponse{
		ID:             item.ID,
		Name:           item.Name,
		Amount:         item.Amount,
		NeededAmount:   item.NeededAmount,
		Due:            item.Due,
		Spent:          spent,
		EnableSpending: item.SpendingEnabled(),
	}
}
