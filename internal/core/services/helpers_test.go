package services_test

import (
	"context"
	"time"

	"github.com/SscSPs/stack_budget/internal/core/domain"
	portsrepo "github.com/SscSPs/stack_budget/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockRemoteStore is a mock type for the RemoteStore interface
type MockRemoteStore struct {
	mock.Mock
}

func (m *MockRemoteStore) Create(ctx context.Context, token string, description string, files map[string]string) (string, error) {
	args := m.Called(ctx, token, description, files)
	return args.String(0), args.Error(1)
}

func (m *MockRemoteStore) Replace(ctx context.Context, token string, id string, files map[string]string) error {
	args := m.Called(ctx, token, id, files)
	return args.Error(0)
}

func (m *MockRemoteStore) Fetch(ctx context.Context, token string, id string) (*portsrepo.RemoteDocument, error) {
	args := m.Called(ctx, token, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portsrepo.RemoteDocument), args.Error(1)
}

var _ portsrepo.RemoteStore = (*MockRemoteStore)(nil)

var testNow = time.Date(2025, 3, 15, 14, 4, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seedDocument has one asset, one liability and one item per section.
func seedDocument() *domain.Document {
	doc := domain.NewDocument()
	doc.Accounts = []domain.Account{
		{ID: "checking", Name: "Checking", Amount: dec("1000"), IsPositive: true},
		{ID: "card", Name: "Card", Amount: dec("200"), IsPositive: false},
	}
	doc.Items.Budget = []domain.BudgetItem{{
		ID: "groceries", Name: "Groceries", Amount: dec("300"),
		Due: domain.Recurrence(domain.EveryMonth),
		Spent: []domain.SpendEntry{
			{Name: "market", Amount: dec("20"), Date: "2025-03-01T10:00:00.000Z"},
			{Name: "bakery", Amount: dec("5"), Date: "2025-03-02T10:00:00.000Z"},
			{Name: "deli", Amount: dec("7"), Date: "2025-03-03T10:00:00.000Z"},
		},
	}}
	doc.Items.Bills = []domain.BudgetItem{{ID: "rent", Name: "Rent", Amount: dec("400"), Due: domain.DayOfMonth(1), Spent: []domain.SpendEntry{}}}
	doc.Items.Goals = []domain.BudgetItem{{ID: "trip", Name: "Trip", Amount: dec("100"), Due: domain.OnDate("2025-12-01"), Spent: []domain.SpendEntry{}}}
	domain.Migrate(doc)
	return doc
}

func mustEncode(doc *domain.Document) string {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		panic(err)
	}
	return string(data)
}
