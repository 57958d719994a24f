package accounting_test

import (
	"testing"

	"github.com/SscSPs/stack_budget/internal/core/domain"
	"github.com/SscSPs/stack_budget/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func netWorth(accounts ...*domain.Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.SignedAmount())
	}
	return total
}

func TestCalculateSignedAmount(t *testing.T) {
	tests := []struct {
		name      string
		direction accounting.Direction
		liability bool
		want      string
	}{
		{"outflow from asset", accounting.Outflow, false, "-10"},
		{"inflow to asset", accounting.Inflow, false, "10"},
		{"outflow from liability grows debt", accounting.Outflow, true, "10"},
		{"inflow to liability shrinks debt", accounting.Inflow, true, "-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := accounting.CalculateSignedAmount(dec("10"), tt.direction, tt.liability)
			require.NoError(t, err)
			assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
		})
	}

	_, err := accounting.CalculateSignedAmount(dec("1"), accounting.Direction("SIDEWAYS"), false)
	assert.Error(t, err)
}

func TestApplyTransfer_AssetToAsset(t *testing.T) {
	from := &domain.Account{ID: "a", Amount: dec("100"), IsPositive: true}
	to := &domain.Account{ID: "b", Amount: dec("100"), IsPositive: true}
	before := netWorth(from, to)

	require.NoError(t, accounting.ApplyTransfer(from, to, dec("30")))

	assert.True(t, from.Amount.Equal(dec("70")))
	assert.True(t, to.Amount.Equal(dec("130")))
	assert.True(t, netWorth(from, to).Equal(before))
}

func TestApplyTransfer_LiabilityToAsset(t *testing.T) {
	card := &domain.Account{ID: "c", Amount: dec("50"), IsPositive: false}
	checking := &domain.Account{ID: "k", Amount: dec("100"), IsPositive: true}
	before := netWorth(card, checking)

	require.NoError(t, accounting.ApplyTransfer(card, checking, dec("20")))

	assert.True(t, card.Amount.Equal(dec("70")), "debt increased")
	assert.True(t, checking.Amount.Equal(dec("120")))
	assert.True(t, netWorth(card, checking).Equal(before))
}

func TestApplyTransfer_AssetToLiability(t *testing.T) {
	checking := &domain.Account{ID: "k", Amount: dec("100"), IsPositive: true}
	card := &domain.Account{ID: "c", Amount: dec("50"), IsPositive: false}
	before := netWorth(card, checking)

	require.NoError(t, accounting.ApplyTransfer(checking, card, dec("50")))

	assert.True(t, card.Amount.IsZero())
	assert.True(t, checking.Amount.Equal(dec("50")))
	assert.True(t, netWorth(card, checking).Equal(before))
}

func TestApplyTransfer_ItemsBypassSpendLedger(t *testing.T) {
	from := &domain.BudgetItem{ID: "x", Amount: dec("40"), Spent: []domain.SpendEntry{{Name: "a", Amount: dec("5")}}}
	to := &domain.BudgetItem{ID: "y", Amount: dec("0"), Spent: []domain.SpendEntry{}}

	require.NoError(t, accounting.ApplyTransfer(from, to, dec("15")))

	assert.True(t, from.Amount.Equal(dec("25")))
	assert.True(t, to.Amount.Equal(dec("15")))
	assert.Len(t, from.Spent, 1)
	assert.Empty(t, to.Spent)
}

func TestApplyTransfer_RejectsNonPositive(t *testing.T) {
	a := &domain.Account{Amount: dec("10"), IsPositive: true}
	b := &domain.Account{Amount: dec("10"), IsPositive: true}

	assert.Error(t, accounting.ApplyTransfer(a, b, dec("0")))
	assert.Error(t, accounting.ApplyTransfer(a, b, dec("-1")))
	assert.True(t, a.Amount.Equal(dec("10")))
}
