package handlers_test

import (
	"context"

	"github.com/SscSPs/stack_budget/internal/core/derivation"
	"github.com/SscSPs/stack_budget/internal/core/domain"
	portssvc "github.com/SscSPs/stack_budget/internal/core/ports/services"
	"github.com/SscSPs/stack_budget/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock BudgetService ---
type MockBudgetService struct {
	mock.Mock
}

func (m *MockBudgetService) View(ctx context.Context) dto.ViewModel {
	return m.Called(ctx).Get(0).(dto.ViewModel)
}
func (m *MockBudgetService) Totals(ctx context.Context) derivation.Totals {
	return m.Called(ctx).Get(0).(derivation.Totals)
}
func (m *MockBudgetService) Snapshot(ctx context.Context) *domain.Document {
	return m.Called(ctx).Get(0).(*domain.Document)
}
func (m *MockBudgetService) AddAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockBudgetService) AddItem(ctx context.Context, section domain.Section, req dto.CreateItemRequest) (*domain.BudgetItem, error) {
	args := m.Called(ctx, section, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BudgetItem), args.Error(1)
}
func (m *MockBudgetService) UpdateAccount(ctx context.Context, id string, req dto.UpdateAccountRequest) error {
	return m.Called(ctx, id, req).Error(0)
}
func (m *MockBudgetService) UpdateItem(ctx context.Context, section domain.Section, id string, req dto.UpdateItemRequest) error {
	return m.Called(ctx, section, id, req).Error(0)
}
func (m *MockBudgetService) UpdateAmountAndResetSpent(ctx context.Context, section domain.Section, id string, req dto.UpdateAmountRequest) error {
	return m.Called(ctx, section, id, req).Error(0)
}
func (m *MockBudgetService) RemoveItem(ctx context.Context, section domain.Section, id string) error {
	return m.Called(ctx, section, id).Error(0)
}
func (m *MockBudgetService) AddSpending(ctx context.Context, section domain.Section, itemID string, name string, amount decimal.Decimal) error {
	return m.Called(ctx, section, itemID, name, amount).Error(0)
}
func (m *MockBudgetService) RecordSpend(ctx context.Context, req dto.SpendRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *MockBudgetService) RemoveSpendEntry(ctx context.Context, section domain.Section, itemID string, index int) error {
	return m.Called(ctx, section, itemID, index).Error(0)
}
func (m *MockBudgetService) Transfer(ctx context.Context, from, to domain.EntityRef, amount decimal.Decimal) error {
	return m.Called(ctx, from, to, amount).Error(0)
}

// --- Mock SyncService ---
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) Save(ctx context.Context, opts dto.SaveOptions) error {
	return m.Called(ctx, opts).Error(0)
}
func (m *MockSyncService) Autosave(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *MockSyncService) AutosaveAsync(ctx context.Context) {
	m.Called(ctx)
}
func (m *MockSyncService) Load(ctx context.Context, opts dto.LoadOptions) error {
	return m.Called(ctx, opts).Error(0)
}
func (m *MockSyncService) Status(ctx context.Context) dto.SyncStatus {
	return m.Called(ctx).Get(0).(dto.SyncStatus)
}
func (m *MockSyncService) SetCredentials(ctx context.Context, creds dto.Credentials) error {
	return m.Called(ctx, creds).Error(0)
}
func (m *MockSyncService) SaveInFlight() bool {
	return m.Called().Bool(0)
}
func (m *MockSyncService) LoadIfConfigured(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *MockSyncService) ReloadLocal(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
func (m *MockSyncService) Wait() {
	m.Called()
}

// --- Mock RefreshService ---
type MockRefreshService struct {
	mock.Mock
}

func (m *MockRefreshService) Trigger(ctx context.Context, event dto.RefreshEvent) dto.RefreshResult {
	return m.Called(ctx, event).Get(0).(dto.RefreshResult)
}

// --- Mock BackupService ---
type MockBackupService struct {
	mock.Mock
}

func (m *MockBackupService) Export(ctx context.Context) (*dto.ExportResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ExportResponse), args.Error(1)
}
func (m *MockBackupService) Import(ctx context.Context, data []byte, confirmed bool) error {
	return m.Called(ctx, data, confirmed).Error(0)
}

// Ensure mocks implement the interfaces
var (
	_ portssvc.BudgetSvcFacade = (*MockBudgetService)(nil)
	_ portssvc.SyncSvc         = (*MockSyncService)(nil)
	_ portssvc.RefreshSvc      = (*MockRefreshService)(nil)
	_ portssvc.BackupSvc       = (*MockBackupService)(nil)
)
