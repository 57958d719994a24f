package services

import (
	"context"

	"github.com/SscSPs/stack_budget/internal/core/derivation"
	"github.com/SscSPs/stack_budget/internal/core/domain"
	"github.com/SscSPs/stack_budget/internal/dto"
	"github.com/shopspring/decimal"
)

// BudgetReaderSvc defines read operations over the document.
type BudgetReaderSvc interface {
	// View derives the view-model the renderer consumes.
	View(ctx context.Context) dto.ViewModel

	// Totals derives the section totals and the available figure.
	Totals(ctx context.Context) derivation.Totals

	// Snapshot returns a deep copy of the current document.
	Snapshot(ctx context.Context) *domain.Document
}

// BudgetWriterSvc defines the mutation API. Every successful mutation
// persists locally and triggers a best-effort remote sync. Unknown ids are
// silent no-ops.
type BudgetWriterSvc interface {
	AddAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error)
	AddItem(ctx context.Context, section domain.Section, req dto.CreateItemRequest) (*domain.BudgetItem, error)

	UpdateAccount(ctx context.Context, id string, req dto.UpdateAccountRequest) error
	UpdateItem(ctx context.Context, section domain.Section, id string, req dto.UpdateItemRequest) error

	// UpdateAmountAndResetSpent sets the amount directly and clears the
	// spend history of items.
	UpdateAmountAndResetSpent(ctx context.Context, section domain.Section, id string, req dto.UpdateAmountRequest) error

	// RemoveItem deletes an account or item and waits for the remote sync.
	RemoveItem(ctx context.Context, section domain.Section, id string) error

	// AddSpending appends a spend entry. It does not sync; callers pair it
	// with an account charge through RecordSpend.
	AddSpending(ctx context.Context, section domain.Section, itemID string, name string, amount decimal.Decimal) error

	// RecordSpend appends a spend entry and optionally charges an account,
	// with one local persist and one sync.
	RecordSpend(ctx context.Context, req dto.SpendRequest) error

	// RemoveSpendEntry deletes one spend entry by index and waits for the remote sync.
	RemoveSpendEntry(ctx context.Context, section domain.Section, itemID string, index int) error

	// Transfer moves an amount between two accounts or items.
	Transfer(ctx context.Context, from, to domain.EntityRef, amount decimal.Decimal) error
}

// BudgetSvcFacade combines all budget-related service interfaces.
type BudgetSvcFacade interface {
	BudgetReaderSvc
	BudgetWriterSvc
}
