package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/SscSPs/stack_budget/internal/adapters/localstore/memory"
	"github.com/SscSPs/stack_budget/internal/apperrors"
	"github.com/SscSPs/stack_budget/internal/core/derivation"
	"github.com/SscSPs/stack_budget/internal/core/domain"
	"github.com/SscSPs/stack_budget/internal/core/services"
	"github.com/SscSPs/stack_budget/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type BudgetServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	remote  *MockRemoteStore
	state   *services.State
	sync    *services.SyncService
	service *services.BudgetService
}

func (suite *BudgetServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.store = memory.NewStore()
	suite.remote = new(MockRemoteStore)
	local := services.NewLocalPersistence(suite.store)
	suite.state = services.NewState(seedDocument())
	suite.sync = services.NewSyncService(suite.state, local, suite.remote, services.WithSyncClock(fixedClock))
	suite.service = services.NewBudgetService(suite.state, local, suite.sync, services.WithBudgetClock(fixedClock))
}

func (suite *BudgetServiceTestSuite) TearDownTest() {
	suite.sync.Wait()
	suite.remote.AssertExpectations(suite.T())
}

func (suite *BudgetServiceTestSuite) configureSync() {
	suite.Require().NoError(suite.store.Set(suite.ctx, services.DocumentIDKey, "gist-1"))
	suite.Require().NoError(suite.store.Set(suite.ctx, services.TokenKey, "ghp_x"))
}

func (suite *BudgetServiceTestSuite) assertUnchanged(before *domain.Document) {
	suite.Equal(mustEncode(before), mustEncode(suite.state.Snapshot()))
}

func (suite *BudgetServiceTestSuite) TestAddAccount_PersistsLocally() {
	acc, err := suite.service.AddAccount(suite.ctx, dto.CreateAccountRequest{Name: "  Savings ", Amount: dec("50"), IsPositive: true})
	suite.Require().NoError(err)
	suite.NotEmpty(acc.ID)
	suite.Equal("Savings", acc.Name)

	doc := suite.state.Snapshot()
	suite.Len(doc.Accounts, 3)
	suite.Require().NotNil(doc.AccountsLastAction)
	suite.Equal(domain.ActionAdd, doc.AccountsLastAction.Type)
	suite.Equal("Savings", doc.AccountsLastAction.Name)
	suite.Equal("2025-03-15T14:04:00.000Z", doc.AccountsLastAction.Date)

	raw, found, err := suite.store.Get(suite.ctx, services.DocumentKey)
	suite.Require().NoError(err)
	suite.True(found)
	suite.Equal(mustEncode(doc), raw)
}

func (suite *BudgetServiceTestSuite) TestAddAccount_EmptyNameRejected() {
	before := suite.state.Snapshot()
	_, err := suite.service.AddAccount(suite.ctx, dto.CreateAccountRequest{Name: "   "})
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.assertUnchanged(before)
}

func (suite *BudgetServiceTestSuite) TestAddItem_DefaultsBySection() {
	budget, err := suite.service.AddItem(suite.ctx, domain.SectionBudget, dto.CreateItemRequest{Name: "Fun", Amount: dec("40")})
	suite.Require().NoError(err)
	suite.Equal(domain.Recurrence(domain.EveryMonth), budget.Due)
	suite.True(budget.NeededAmount.Decimal.Equal(dec("40")))
	suite.Empty(budget.Spent)

	goal, err := suite.service.AddItem(suite.ctx, domain.SectionGoals, dto.CreateItemRequest{Name: "Car", Amount: dec("0"), Due: ""})
	suite.Require().NoError(err)
	suite.Equal(domain.OnDate(""), goal.Due)

	bill, err := suite.service.AddItem(suite.ctx, domain.SectionBills, dto.CreateItemRequest{Name: "Phone", Amount: dec("30"), Due: "15"})
	suite.Require().NoError(err)
	suite.Equal(domain.DayOfMonth(15), bill.Due)

	doc := suite.state.Snapshot()
	suite.Len(doc.Items.Budget, 2)
	suite.Len(doc.Items.Bills, 2)
	suite.Len(doc.Items.Goals, 2)
	suite.Equal("Phone", doc.Items.BillsLastAction.Name)
}

func (suite *BudgetServiceTestSuite) TestAddItem_ValidatesDue() {
	before := suite.state.Snapshot()
	cases := []struct {
		section domain.Section
		due     string
	}{
		{domain.SectionBills, "0"},
		{domain.SectionBills, "32"},
		{domain.SectionBills, "first"},
		{domain.SectionBudget, "weekly"},
		{domain.SectionGoals, "12/01/2025"},
	}
	for _, c := range cases {
		_, err := suite.service.AddItem(suite.ctx, c.section, dto.CreateItemRequest{Name: "X", Due: c.due})
		suite.ErrorIs(err, apperrors.ErrValidation, "%s due %q", c.section, c.due)
	}
	_, err := suite.service.AddItem(suite.ctx, domain.SectionAccounts, dto.CreateItemRequest{Name: "X"})
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.assertUnchanged(before)
}

func (suite *BudgetServiceTestSuite) TestUpdateItem_UnknownIDIsNoop() {
	before := suite.state.Snapshot()
	name := "Other"
	suite.NoError(suite.service.UpdateItem(suite.ctx, domain.SectionBudget, "missing", dto.UpdateItemRequest{Name: &name}))
	suite.NoError(suite.service.UpdateAccount(suite.ctx, "missing", dto.UpdateAccountRequest{Name: &name}))
	suite.assertUnchanged(before)

	_, found, _ := suite.store.Get(suite.ctx, services.DocumentKey)
	suite.False(found, "a no-op must not persist")
}

func (suite *BudgetServiceTestSuite) TestUpdateItem_EditsFields() {
	name := "Food"
	amount := dec("350")
	due := domain.EveryCheck
	suite.Require().NoError(suite.service.UpdateItem(suite.ctx, domain.SectionBudget, "groceries", dto.UpdateItemRequest{Name: &name, Amount: &amount, Due: &due}))

	item, ok := suite.state.Snapshot().FindItem(domain.SectionBudget, "groceries")
	suite.Require().True(ok)
	suite.Equal("Food", item.Name)
	suite.True(item.Amount.Equal(amount))
	suite.Equal(domain.Recurrence(domain.EveryCheck), item.Due)
	suite.Len(item.Spent, 3, "a plain edit keeps the spend history")
}

func (suite *BudgetServiceTestSuite) TestUpdateAmount_RequiresConfirmationWhenHistoryExists() {
	before := suite.state.Snapshot()
	err := suite.service.UpdateAmountAndResetSpent(suite.ctx, domain.SectionBudget, "groceries", dto.UpdateAmountRequest{Amount: dec("250")})
	suite.ErrorIs(err, apperrors.ErrConfirmationRequired)
	suite.assertUnchanged(before)

	err = suite.service.UpdateAmountAndResetSpent(suite.ctx, domain.SectionBudget, "groceries", dto.UpdateAmountRequest{Amount: dec("250"), Confirm: true})
	suite.Require().NoError(err)

	doc := suite.state.Snapshot()
	item, _ := doc.FindItem(domain.SectionBudget, "groceries")
	suite.True(item.Amount.Equal(dec("250")))
	suite.Empty(item.Spent)
	suite.True(derivation.Remaining(*item).Equal(dec("250")))
	suite.Equal(domain.ActionEditAmount, doc.Items.BudgetLastAction.Type)
}

func (suite *BudgetServiceTestSuite) TestUpdateAmount_RejectsNegative() {
	err := suite.service.UpdateAmountAndResetSpent(suite.ctx, domain.SectionAccounts, "checking", dto.UpdateAmountRequest{Amount: dec("-1")})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *BudgetServiceTestSuite) TestAddSpending_RejectsNonPositiveAmount() {
	before := suite.state.Snapshot()
	suite.ErrorIs(suite.service.AddSpending(suite.ctx, domain.SectionBudget, "groceries", "coffee", dec("0")), apperrors.ErrValidation)
	suite.ErrorIs(suite.service.AddSpending(suite.ctx, domain.SectionBudget, "groceries", "coffee", dec("-3")), apperrors.ErrValidation)
	suite.ErrorIs(suite.service.AddSpending(suite.ctx, domain.SectionBudget, "groceries", " ", dec("3")), apperrors.ErrValidation)
	suite.assertUnchanged(before)
	suite.Nil(suite.state.Snapshot().Items.BudgetLastAction)
}

func (suite *BudgetServiceTestSuite) TestAddSpending_AppendsAndMarksItem() {
	suite.Require().NoError(suite.service.AddSpending(suite.ctx, domain.SectionBudget, "groceries", "coffee", dec("12.5")))

	doc := suite.state.Snapshot()
	item, _ := doc.FindItem(domain.SectionBudget, "groceries")
	suite.Len(item.Spent, 4)
	suite.Equal("coffee", item.Spent[3].Name)
	suite.True(item.Amount.Equal(dec("300")), "spending never changes the allocated amount")

	action := doc.Items.BudgetLastAction
	suite.Require().NotNil(action)
	suite.Equal(domain.ActionSpend, action.Type)
	suite.Equal("Groceries", action.Name)
	suite.True(action.Amount.Equal(dec("12.5")))
}

func (suite *BudgetServiceTestSuite) TestAddSpending_StampsTopLevelKeys() {
	suite.Require().NoError(suite.service.AddSpending(suite.ctx, domain.SectionBudget, "groceries", "coffee", dec("12.5")))

	doc := suite.state.Snapshot()
	item, _ := doc.FindItem(domain.SectionBudget, "groceries")
	date := item.Spent[len(item.Spent)-1].Date

	var raw map[string]json.RawMessage
	suite.Require().NoError(json.Unmarshal([]byte(mustEncode(doc)), &raw))
	suite.JSONEq(`"`+date+`"`, string(raw["_lastUpdated"]))
	suite.JSONEq(`{"section":"budget","itemId":"groceries","name":"coffee","amount":12.5,"date":"`+date+`","itemName":"Groceries"}`,
		string(raw["_lastSpend"]))
}

func (suite *BudgetServiceTestSuite) TestRecordSpend_ChargesAccount() {
	err := suite.service.RecordSpend(suite.ctx, dto.SpendRequest{
		Section: domain.SectionBudget, ItemID: "groceries", Name: "coffee", Amount: dec("12"), AccountID: "checking",
	})
	suite.Require().NoError(err)
	suite.Require().NoError(suite.service.RecordSpend(suite.ctx, dto.SpendRequest{
		Section: domain.SectionBudget, ItemID: "groceries", Name: "lunch", Amount: dec("8"), AccountID: "card",
	}))

	doc := suite.state.Snapshot()
	checking, _ := doc.FindAccount("checking")
	card, _ := doc.FindAccount("card")
	suite.True(checking.Amount.Equal(dec("988")))
	suite.True(card.Amount.Equal(dec("208")), "charging a liability grows the debt")
	item, _ := doc.FindItem(domain.SectionBudget, "groceries")
	suite.Len(item.Spent, 5)
}

func (suite *BudgetServiceTestSuite) TestRemoveSpendEntry_ByIndex() {
	suite.Require().NoError(suite.service.RemoveSpendEntry(suite.ctx, domain.SectionBudget, "groceries", 1))

	doc := suite.state.Snapshot()
	item, _ := doc.FindItem(domain.SectionBudget, "groceries")
	suite.Require().Len(item.Spent, 2)
	suite.Equal("market", item.Spent[0].Name)
	suite.Equal("deli", item.Spent[1].Name)
	suite.Nil(doc.Items.BudgetLastAction, "spend deletion writes no last action")

	before := suite.state.Snapshot()
	suite.NoError(suite.service.RemoveSpendEntry(suite.ctx, domain.SectionBudget, "groceries", 7))
	suite.assertUnchanged(before)
}

func (suite *BudgetServiceTestSuite) TestRemoveItem_AwaitsRemoteSync() {
	suite.configureSync()
	suite.remote.On("Replace", mock.Anything, "ghp_x", "gist-1", mock.MatchedBy(func(files map[string]string) bool {
		_, ok := files[services.PayloadFilename]
		return ok
	})).Return(nil).Once()

	suite.Require().NoError(suite.service.RemoveItem(suite.ctx, domain.SectionBills, "rent"))

	// The push happened before RemoveItem returned.
	suite.remote.AssertNumberOfCalls(suite.T(), "Replace", 1)
	suite.Empty(suite.state.Snapshot().Items.Bills)
}

func (suite *BudgetServiceTestSuite) TestRemoveItem_SyncFailureKeepsLocalDeletion() {
	suite.configureSync()
	suite.remote.On("Replace", mock.Anything, "ghp_x", "gist-1", mock.Anything).
		Return(&apperrors.RemoteError{Op: "replace", StatusCode: 500, Message: "Server Error"}).Once()

	suite.Require().NoError(suite.service.RemoveItem(suite.ctx, domain.SectionAccounts, "card"))
	suite.Len(suite.state.Snapshot().Accounts, 1)
}

func (suite *BudgetServiceTestSuite) TestTransfer_BetweenAccountsKeepsNetWorth() {
	before := derivation.AccountsTotal(suite.state.Snapshot().Accounts)
	from := domain.EntityRef{Section: domain.SectionAccounts, ID: "checking"}
	to := domain.EntityRef{Section: domain.SectionAccounts, ID: "card"}
	suite.Require().NoError(suite.service.Transfer(suite.ctx, from, to, dec("100")))

	doc := suite.state.Snapshot()
	checking, _ := doc.FindAccount("checking")
	card, _ := doc.FindAccount("card")
	suite.True(checking.Amount.Equal(dec("900")))
	suite.True(card.Amount.Equal(dec("100")))
	suite.True(before.Equal(derivation.AccountsTotal(doc.Accounts)))
	suite.Nil(doc.AccountsLastAction, "transfers write no last action")
}

func (suite *BudgetServiceTestSuite) TestTransfer_BetweenItemsLeavesHistory() {
	from := domain.EntityRef{Section: domain.SectionBudget, ID: "groceries"}
	to := domain.EntityRef{Section: domain.SectionGoals, ID: "trip"}
	suite.Require().NoError(suite.service.Transfer(suite.ctx, from, to, dec("50")))

	doc := suite.state.Snapshot()
	groceries, _ := doc.FindItem(domain.SectionBudget, "groceries")
	trip, _ := doc.FindItem(domain.SectionGoals, "trip")
	suite.True(groceries.Amount.Equal(dec("250")))
	suite.Len(groceries.Spent, 3)
	suite.True(trip.Amount.Equal(dec("150")))
}

func (suite *BudgetServiceTestSuite) TestTransfer_Rejections() {
	before := suite.state.Snapshot()
	checking := domain.EntityRef{Section: domain.SectionAccounts, ID: "checking"}
	trip := domain.EntityRef{Section: domain.SectionGoals, ID: "trip"}
	missing := domain.EntityRef{Section: domain.SectionBills, ID: "nope"}

	suite.ErrorIs(suite.service.Transfer(suite.ctx, checking, trip, dec("0")), apperrors.ErrValidation)
	suite.ErrorIs(suite.service.Transfer(suite.ctx, checking, checking, dec("5")), apperrors.ErrValidation)
	suite.ErrorIs(suite.service.Transfer(suite.ctx, checking, missing, dec("5")), apperrors.ErrValidation)
	suite.assertUnchanged(before)
}

func (suite *BudgetServiceTestSuite) TestAutosave_SkippedWithoutCredentials() {
	_, err := suite.service.AddAccount(suite.ctx, dto.CreateAccountRequest{Name: "Cash", Amount: dec("10"), IsPositive: true})
	suite.Require().NoError(err)
	suite.sync.Wait()
	suite.remote.AssertNotCalled(suite.T(), "Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.remote.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BudgetServiceTestSuite) TestView_UsesCurrentDocument() {
	vm := suite.service.View(suite.ctx)
	suite.Require().Len(vm.Sections, 4)
	suite.Equal(string(domain.SectionAccounts), vm.Sections[0].Section)
	suite.Len(vm.Sections[0].Entries, 2)
	suite.True(suite.service.Totals(suite.ctx).Available.Equal(derivation.Available(suite.state.Snapshot())))
}

func TestBudgetServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BudgetServiceTestSuite))
}
