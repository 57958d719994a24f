package derivation

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/SscSPs/stack_budget/internal/core/domain"
)

const (
	// noDaySentinel sorts bills without a day-of-month schedule last.
	noDaySentinel = 999
	// daysAhead pushes bills already due this month behind upcoming ones.
	daysAhead = 31
)

// SortedAccounts returns a copy of the accounts ordered by name, case-insensitively.
func SortedAccounts(accounts []domain.Account) []domain.Account {
	out := slices.Clone(accounts)
	slices.SortStableFunc(out, func(a, b domain.Account) int {
		return compareNames(a.Name, b.Name)
	})
	return out
}

// SortedItems returns a copy of a section's items in display order.
// Storage order is never changed.
func SortedItems(section domain.Section, items []domain.BudgetItem, now time.Time) []domain.BudgetItem {
	out := slices.Clone(items)
	switch section {
	case domain.SectionBudget:
		slices.SortStableFunc(out, func(a, b domain.BudgetItem) int {
			return compareNames(a.Name, b.Name)
		})
	case domain.SectionBills:
		today := now.Day()
		slices.SortStableFunc(out, func(a, b domain.BudgetItem) int {
			return cmp.Compare(billSortKey(a, today), billSortKey(b, today))
		})
	case domain.SectionGoals:
		slices.SortStableFunc(out, func(a, b domain.BudgetItem) int {
			return cmp.Compare(goalSortKey(a), goalSortKey(b))
		})
	}
	return out
}

func compareNames(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// billSortKey orders bills by day of month starting from today: a day on or
// before today is treated as next month's occurrence.
func billSortKey(item domain.BudgetItem, today int) int {
	if item.Due == nil || item.Due.Kind != domain.ScheduleDay {
		return noDaySentinel
	}
	if item.Due.Day <= today {
		return item.Due.Day + daysAhead
	}
	return item.Due.Day
}

// goalSortKey orders goals by target date; goals without one go last.
func goalSortKey(item domain.BudgetItem) int64 {
	t, ok := item.Due.Time()
	if !ok {
		return math.MaxInt64
	}
	return t.Unix()
}
