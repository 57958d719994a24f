// Package derivation computes display figures from a Document. Every
// function is pure: it never mutates its input and returns the same
// result for the same input.
package derivation

import (
	"github.com/SscSPs/stack_budget/internal/core/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals holds the per-section totals and the global available figure.
type Totals struct {
	Accounts  decimal.Decimal `json:"accounts" yaml:"accounts"`
	Budget    decimal.Decimal `json:"budget" yaml:"budget"`
	Bills     decimal.Decimal `json:"bills" yaml:"bills"`
	Goals     decimal.Decimal `json:"goals" yaml:"goals"`
	Available decimal.Decimal `json:"available" yaml:"available"`
}

// Remaining is the item's amount minus everything spent against it.
func Remaining(item domain.BudgetItem) decimal.Decimal {
	return item.Amount.Sub(item.TotalSpent())
}

// SectionTotal sums the positive remainders of a section. Overspent items
// contribute zero rather than a negative amount.
func SectionTotal(items []domain.BudgetItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if r := Remaining(item); r.IsPositive() {
			total = total.Add(r)
		}
	}
	return total
}

// AccountsTotal is net worth: assets minus liabilities.
func AccountsTotal(accounts []domain.Account) decimal.Decimal {
	total := decimal.Zero
	for _, acc := range accounts {
		total = total.Add(acc.SignedAmount())
	}
	return total
}

// Compute derives every total of the document.
func Compute(doc *domain.Document) Totals {
	t := Totals{
		Accounts: AccountsTotal(doc.Accounts),
		Budget:   SectionTotal(doc.Items.Budget),
		Bills:    SectionTotal(doc.Items.Bills),
		Goals:    SectionTotal(doc.Items.Goals),
	}
	t.Available = t.Accounts.Sub(t.Budget).Sub(t.Bills).Sub(t.Goals)
	return t
}

// Available is net worth minus every committed section total.
func Available(doc *domain.Document) decimal.Decimal {
	return Compute(doc).Available
}

// Section returns the total of one section.
func (t Totals) Section(section domain.Section) decimal.Decimal {
	switch section {
	case domain.SectionAccounts:
		return t.Accounts
	case domain.SectionBudget:
		return t.Budget
	case domain.SectionBills:
		return t.Bills
	case domain.SectionGoals:
		return t.Goals
	}
	return decimal.Zero
}

// ProgressPercent is the share of the needed amount still available,
// clamped to [0, 100]. ok is false when the item has no positive target.
func ProgressPercent(item domain.BudgetItem) (percent float64, ok bool) {
	needed := item.Needed()
	if !needed.IsPositive() {
		return 0, false
	}
	p := Remaining(item).Div(needed).Mul(hundred)
	switch {
	case p.IsNegative():
		p = decimal.Zero
	case p.GreaterThan(hundred):
		p = hundred
	}
	return p.InexactFloat64(), true
}
