package accounting

import (
	"fmt"

	"github.com/SscSPs/stack_budget/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Direction says which side of a movement an entity is on.
type Direction string

const (
	Outflow Direction = "OUTFLOW" // money leaves the entity (transfer source, spend charge)
	Inflow  Direction = "INFLOW"  // money arrives (transfer destination)
)

// CalculateSignedAmount returns the change to apply to an entity's stored
// amount when money moves in the given direction.
//
// Outflow from an asset or item -> negative (-)
// Inflow to an asset or item    -> positive (+)
// Outflow from a liability      -> positive (+), debt grows
// Inflow to a liability         -> negative (-), debt shrinks
func CalculateSignedAmount(amount decimal.Decimal, direction Direction, liability bool) (decimal.Decimal, error) {
	var signed decimal.Decimal
	switch direction {
	case Outflow:
		signed = amount.Neg()
	case Inflow:
		signed = amount
	default:
		return decimal.Zero, fmt.Errorf("unknown direction '%s'", direction)
	}
	if liability {
		signed = signed.Neg()
	}
	return signed, nil
}

// Apply moves amount in or out of an entity.
func Apply(e domain.Entity, amount decimal.Decimal, direction Direction) error {
	delta, err := CalculateSignedAmount(amount, direction, e.IsLiability())
	if err != nil {
		return err
	}
	e.SetBalance(e.Balance().Add(delta))
	return nil
}

// ApplyTransfer moves amount from one entity to another.
// Between two accounts it leaves net worth unchanged.
func ApplyTransfer(from, to domain.Entity, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("transfer amount must be positive, got %s", amount.String())
	}
	if err := Apply(from, amount, Outflow); err != nil {
		return fmt.Errorf("error applying transfer source: %w", err)
	}
	if err := Apply(to, amount, Inflow); err != nil {
		return fmt.Errorf("error applying transfer destination: %w", err)
	}
	return nil
}
