package domain

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// SpendEntry is one recorded spend against a BudgetItem.
type SpendEntry struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

// BudgetItem is an entry of the budget, bills or goals section.
// Amount is the authoritative allocated balance; Spent is tracked separately
// and is only folded into Amount by an explicit amount edit.
type BudgetItem struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Amount         decimal.Decimal     `json:"amount"`
	NeededAmount   decimal.NullDecimal `json:"neededAmount"`
	Due            *Schedule           `json:"due"`
	Spent          []SpendEntry        `json:"spent"`
	EnableSpending *bool               `json:"enableSpending,omitempty"`

	// neededNull is set when the source carried "neededAmount": null.
	neededNull bool
}

// UnmarshalJSON decodes an item, remembering an explicit null neededAmount
// so Migrate only defaults the field when the key is absent.
func (i *BudgetItem) UnmarshalJSON(data []byte) error {
	type plain BudgetItem
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*i = BudgetItem(p)
	needed, ok := keys["neededAmount"]
	i.neededNull = ok && bytes.Equal(bytes.TrimSpace(needed), []byte("null"))
	return nil
}

// EntityName implements Entity.
func (i *BudgetItem) EntityName() string { return i.Name }

// Balance implements Entity.
func (i *BudgetItem) Balance() decimal.Decimal { return i.Amount }

// SetBalance implements Entity.
func (i *BudgetItem) SetBalance(amount decimal.Decimal) { i.Amount = amount }

// IsLiability implements Entity. Items are never liabilities.
func (i *BudgetItem) IsLiability() bool { return false }

// TotalSpent sums the spend history.
func (i BudgetItem) TotalSpent() decimal.Decimal {
	total := decimal.Zero
	for _, s := range i.Spent {
		total = total.Add(s.Amount)
	}
	return total
}

// Needed returns the target amount, falling back to Amount when unset.
func (i BudgetItem) Needed() decimal.Decimal {
	if i.NeededAmount.Valid {
		return i.NeededAmount.Decimal
	}
	return i.Amount
}

// SpendingEnabled reports whether the spend affordance is offered.
// Items written before the flag existed keep offering it.
func (i BudgetItem) SpendingEnabled() bool {
	return i.EnableSpending == nil || *i.EnableSpending
}

// MostRecentSpend returns the last spend entry, if any.
func (i BudgetItem) MostRecentSpend() (SpendEntry, bool) {
	if len(i.Spent) == 0 {
		return SpendEntry{}, false
	}
	return i.Spent[len(i.Spent)-1], true
}
