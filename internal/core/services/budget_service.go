package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/stack_budget/internal/apperrors"
	"github.com/SscSPs/stack_budget/internal/core/derivation"
	"github.com/SscSPs/stack_budget/internal/core/domain"
	portssvc "github.com/SscSPs/stack_budget/internal/core/ports/services"
	"github.com/SscSPs/stack_budget/internal/dto"
	"github.com/SscSPs/stack_budget/internal/metrics"
	"github.com/SscSPs/stack_budget/internal/utils/accounting"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Autosaver is the part of the sync layer mutations trigger.
type Autosaver interface {
	Autosave(ctx context.Context) error
	AutosaveAsync(ctx context.Context)
}

// BudgetService implements the mutation API over the shared State.
type BudgetService struct {
	BaseService
	state     *State
	local     *LocalPersistence
	autosaver Autosaver
	validate  *validator.Validate
}

// BudgetOption is a functional option for configuring the budget service
type BudgetOption func(*BudgetService)

// WithBudgetClock overrides the clock used for LastAction and spend dates.
func WithBudgetClock(now func() time.Time) BudgetOption {
	return func(s *BudgetService) {
		s.Clock = now
	}
}

// WithBudgetMetrics records mutations and the available figure.
func WithBudgetMetrics(m *metrics.Metrics) BudgetOption {
	return func(s *BudgetService) {
		s.Metrics = m
	}
}

// NewBudgetService creates a new budget service with the provided options
func NewBudgetService(state *State, local *LocalPersistence, autosaver Autosaver, options ...BudgetOption) *BudgetService {
	svc := &BudgetService{
		state:     state,
		local:     local,
		autosaver: autosaver,
		validate:  validator.New(),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.BudgetSvcFacade = (*BudgetService)(nil)

// View derives the view-model.
func (s *BudgetService) View(ctx context.Context) dto.ViewModel {
	var vm dto.ViewModel
	now := s.Now()
	s.state.Read(func(doc *domain.Document) {
		vm = derivation.BuildViewModel(doc, now)
	})
	return vm
}

// Totals derives the section totals.
func (s *BudgetService) Totals(ctx context.Context) derivation.Totals {
	var totals derivation.Totals
	s.state.Read(func(doc *domain.Document) {
		totals = derivation.Compute(doc)
	})
	return totals
}

// Snapshot returns a deep copy of the document.
func (s *BudgetService) Snapshot(ctx context.Context) *domain.Document {
	return s.state.Snapshot()
}

// apply runs fn as one atomic mutation and persists the result locally.
// It reports whether the document changed.
func (s *BudgetService) apply(ctx context.Context, op string, fn func(doc *domain.Document) error) (bool, error) {
	changed, err := s.state.Update(fn, func(doc *domain.Document) {
		if err := s.local.SaveDocument(ctx, doc); err != nil {
			s.LogError(ctx, err, "Failed to persist document locally", slog.String("op", op))
		}
		s.Metrics.SetAvailable(derivation.Available(doc))
	})
	if err != nil {
		s.LogDebug(ctx, "Mutation rejected", slog.String("op", op), slog.String("error", err.Error()))
		return false, err
	}
	if changed {
		s.Metrics.ObserveMutation(op)
		s.LogDebug(ctx, "Mutation applied", slog.String("op", op))
	}
	return changed, nil
}

// awaitSync runs the autosave inline. Its failure is reported through the
// sync status, not to the caller: the local mutation already succeeded.
func (s *BudgetService) awaitSync(ctx context.Context, op string) {
	if err := s.autosaver.Autosave(ctx); err != nil {
		s.LogWarn(ctx, "Autosave after mutation failed", slog.String("op", op), slog.String("error", err.Error()))
	}
}

func (s *BudgetService) action(kind domain.ActionType, name string) *domain.LastAction {
	return &domain.LastAction{Type: kind, Name: name, Date: domain.Timestamp(s.Now())}
}

// AddAccount creates an account.
func (s *BudgetService) AddAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validationf("enter a name")
	}

	account := domain.Account{
		ID:         uuid.NewString(),
		Name:       req.Name,
		Amount:     req.Amount,
		IsPositive: req.IsPositive,
	}
	_, err := s.apply(ctx, "add_account", func(doc *domain.Document) error {
		doc.Accounts = append(doc.Accounts, account)
		doc.SetLastAction(domain.SectionAccounts, s.action(domain.ActionAdd, account.Name))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.autosaver.AutosaveAsync(ctx)
	return &account, nil
}

// AddItem creates a budget, bill or goal.
func (s *BudgetService) AddItem(ctx context.Context, section domain.Section, req dto.CreateItemRequest) (*domain.BudgetItem, error) {
	if !section.IsItemSection() {
		return nil, apperrors.Validationf("section %q does not hold items", section)
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validationf("enter a name")
	}
	due, err := parseDue(section, req.Due)
	if err != nil {
		return nil, err
	}

	needed := req.Amount
	if req.NeededAmount != nil {
		needed = *req.NeededAmount
	}
	enabled := req.EnableSpending != nil && *req.EnableSpending
	item := domain.BudgetItem{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Amount:         req.Amount,
		NeededAmount:   decimal.NewNullDecimal(needed),
		Due:            due,
		Spent:          []domain.SpendEntry{},
		EnableSpending: &enabled,
	}

	_, err = s.apply(ctx, "add_item", func(doc *domain.Document) error {
		items, err := doc.Section(section)
		if err != nil {
			return err
		}
		*items = append(*items, item)
		doc.SetLastAction(section, s.action(domain.ActionAdd, item.Name))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.autosaver.AutosaveAsync(ctx)
	return &item, nil
}

// UpdateAccount edits an account. An unknown id is a no-op.
func (s *BudgetService) UpdateAccount(ctx context.Context, id string, req dto.UpdateAccountRequest) error {
	name, err := optionalName(req.Name)
	if err != nil {
		return err
	}
	changed, err := s.apply(ctx, "update_account", func(doc *domain.Document) error {
		acc, ok := doc.FindAccount(id)
		if !ok {
			return errNoChange
		}
		if name != nil {
			acc.Name = *name
		}
		if req.Amount != nil {
			acc.Amount = *req.Amount
		}
		if req.IsPositive != nil {
			acc.IsPositive = *req.IsPositive
		}
		doc.SetLastAction(domain.SectionAccounts, s.action(domain.ActionEdit, acc.Name))
		return nil
	})
	if err != nil || !changed {
		return err
	}
	s.autosaver.AutosaveAsync(ctx)
	return nil
}

// UpdateItem edits an item. An unknown id is a no-op.
func (s *BudgetService) UpdateItem(ctx context.Context, section domain.Section, id string, req dto.UpdateItemRequest) error {
	if !section.IsItemSection() {
		return apperrors.Validationf("section %q does not hold items", section)
	}
	name, err := optionalName(req.Name)
	if err != nil {
		return err
	}
	var due *domain.Schedule
	if req.Due != nil {
		if due, err = parseDue(section, *req.Due); err != nil {
			return err
		}
	}

	changed, err := s.apply(ctx, "update_item", func(doc *domain.Document) error {
		item, ok := doc.FindItem(section, id)
		if !ok {
			return errNoChange
		}
		if name != nil {
			item.Name = *name
		}
		if req.Amount != nil {
			item.Amount = *req.Amount
		}
		if req.NeededAmount != nil {
			item.NeededAmount = decimal.NewNullDecimal(*req.NeededAmount)
		}
		if due != nil {
			item.Due = due
		}
		if req.EnableSpending != nil {
			enabled := *req.EnableSpending
			item.EnableSpending = &enabled
		}
		doc.SetLastAction(section, s.action(domain.ActionEdit, item.Name))
		return nil
	})
	if err != nil || !changed {
		return err
	}
	s.autosaver.AutosaveAsync(ctx)
	return nil
}

// UpdateAmountAndResetSpent sets the amount of an account or item. For items
// the spend history is cleared, which requires confirmation when it is not
// empty.
func (s *BudgetService) UpdateAmountAndResetSpent(ctx context.Context, section domain.Section, id string, req dto.UpdateAmountRequest) error {
	if req.Amount.IsNegative() {
		return apperrors.Validationf("amount cannot be negative")
	}
	changed, err := s.apply(ctx, "update_amount", func(doc *domain.Document) error {
		if section == domain.SectionAccounts {
			acc, ok := doc.FindAccount(id)
			if !ok {
				return errNoChange
			}
			acc.Amount = req.Amount
			doc.SetLastAction(section, s.action(domain.ActionEditAmount, acc.Name))
			return nil
		}
		if !section.IsItemSection() {
			return apperrors.Validationf("unknown section %q", section)
		}
		item, ok := doc.FindItem(section, id)
		if !ok {
			return errNoChange
		}
		if len(item.Spent) > 0 && !req.Confirm {
			return fmt.Errorf("%w: this clears %d spend entries of %q", apperrors.ErrConfirmationRequired, len(item.Spent), item.Name)
		}
		item.Amount = req.Amount
		item.Spent = []domain.SpendEntry{}
		doc.SetLastAction(section, s.action(domain.ActionEditAmount, item.Name))
		return nil
	})
	if err != nil || !changed {
		return err
	}
	s.autosaver.AutosaveAsync(ctx)
	return nil
}

// RemoveItem deletes an account or item and waits for the remote sync so
// the deletion is durable before the caller moves on.
func (s *BudgetService) RemoveItem(ctx context.Context, section domain.Section, id string) error {
	changed, err := s.apply(ctx, "remove_item", func(doc *domain.Document) error {
		if section == domain.SectionAccounts {
			before := len(doc.Accounts)
			doc.Accounts = removeWhere(doc.Accounts, func(a domain.Account) bool { return a.ID == id })
			if len(doc.Accounts) == before {
				return errNoChange
			}
			return nil
		}
		items, err := doc.Section(section)
		if err != nil {
			return apperrors.Validationf("unknown section %q", section)
		}
		before := len(*items)
		*items = removeWhere(*items, func(i domain.BudgetItem) bool { return i.ID == id })
		if len(*items) == before {
			return errNoChange
		}
		return nil
	})
	if err != nil || !changed {
		return err
	}
	s.awaitSync(ctx, "remove_item")
	return nil
}

// AddSpending records a spend against an item without syncing.
func (s *BudgetService) AddSpending(ctx context.Context, section domain.Section, itemID string, name string, amount decimal.Decimal) error {
	if err := validateSpend(name, amount); err != nil {
		return err
	}
	_, err := s.apply(ctx, "add_spending", func(doc *domain.Document) error {
		return s.appendSpend(doc, section, itemID, strings.TrimSpace(name), amount)
	})
	return err
}

// RecordSpend records a spend and charges the selected account, if any,
// with a single persist and sync.
func (s *BudgetService) RecordSpend(ctx context.Context, req dto.SpendRequest) error {
	if err := validateSpend(req.Name, req.Amount); err != nil {
		return err
	}
	changed, err := s.apply(ctx, "record_spend", func(doc *domain.Document) error {
		if err := s.appendSpend(doc, req.Section, req.ItemID, strings.TrimSpace(req.Name), req.Amount); err != nil {
			return err
		}
		if req.AccountID == "" {
			return nil
		}
		acc, ok := doc.FindAccount(req.AccountID)
		if !ok {
			return nil
		}
		return accounting.Apply(acc, req.Amount, accounting.Outflow)
	})
	if err != nil || !changed {
		return err
	}
	s.autosaver.AutosaveAsync(ctx)
	return nil
}

func (s *BudgetService) appendSpend(doc *domain.Document, section domain.Section, itemID, name string, amount decimal.Decimal) error {
	if !section.IsItemSection() {
		return apperrors.Validationf("section %q does not hold items", section)
	}
	item, ok := doc.FindItem(section, itemID)
	if !ok {
		return errNoChange
	}
	now := domain.Timestamp(s.Now())
	item.Spent = append(item.Spent, domain.SpendEntry{Name: name, Amount: amount, Date: now})
	amt := amount
	doc.SetLastAction(section, &domain.LastAction{Type: domain.ActionSpend, Name: item.Name, Amount: &amt, Date: now})
	return doc.StampSpend(domain.SpendStamp{
		Section: section, ItemID: itemID, Name: name, Amount: amount, Date: now, ItemName: item.Name,
	})
}

// RemoveSpendEntry deletes the spend entry at index and waits for the
// remote sync. The remaining entries keep their order.
func (s *BudgetService) RemoveSpendEntry(ctx context.Context, section domain.Section, itemID string, index int) error {
	if !section.IsItemSection() {
		return apperrors.Validationf("section %q does not hold items", section)
	}
	changed, err := s.apply(ctx, "remove_spend", func(doc *domain.Document) error {
		item, ok := doc.FindItem(section, itemID)
		if !ok || index < 0 || index >= len(item.Spent) {
			return errNoChange
		}
		spent := make([]domain.SpendEntry, 0, len(item.Spent)-1)
		spent = append(spent, item.Spent[:index]...)
		item.Spent = append(spent, item.Spent[index+1:]...)
		return nil
	})
	if err != nil || !changed {
		return err
	}
	s.awaitSync(ctx, "remove_spend")
	return nil
}

// Transfer moves amount between two entities. Item transfers change the
// allocated amount directly and never touch the spend history.
func (s *BudgetService) Transfer(ctx context.Context, from, to domain.EntityRef, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.Validationf("enter a valid amount")
	}
	if from == to {
		return apperrors.Validationf("cannot transfer to the same item")
	}
	_, err := s.apply(ctx, "transfer", func(doc *domain.Document) error {
		src, ok := doc.Resolve(from)
		if !ok {
			return apperrors.Validationf("unknown transfer source %s", from)
		}
		dst, ok := doc.Resolve(to)
		if !ok {
			return apperrors.Validationf("unknown transfer destination %s", to)
		}
		return accounting.ApplyTransfer(src, dst, amount)
	})
	if err != nil {
		return err
	}
	s.autosaver.AutosaveAsync(ctx)
	return nil
}

func validateSpend(name string, amount decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.Validationf("enter a name for the spend")
	}
	if !amount.IsPositive() {
		return apperrors.Validationf("enter a valid amount greater than 0")
	}
	return nil
}

func optionalName(name *string) (*string, error) {
	if name == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		return nil, apperrors.Validationf("enter a name")
	}
	return &trimmed, nil
}

// parseDue builds the schedule variant of a section from its form value.
func parseDue(section domain.Section, raw string) (*domain.Schedule, error) {
	raw = strings.TrimSpace(raw)
	switch section {
	case domain.SectionBudget:
		switch raw {
		case "":
			return domain.Recurrence(domain.EveryMonth), nil
		case domain.EveryMonth, domain.EveryCheck:
			return domain.Recurrence(raw), nil
		}
		return nil, apperrors.Validationf("recurrence must be %s or %s", domain.EveryMonth, domain.EveryCheck)
	case domain.SectionBills:
		day, err := strconv.Atoi(raw)
		if err != nil || day < 1 || day > 31 {
			return nil, apperrors.Validationf("enter valid day 1-31")
		}
		return domain.DayOfMonth(day), nil
	case domain.SectionGoals:
		if raw == "" {
			return domain.OnDate(""), nil
		}
		if _, err := time.Parse(domain.DateLayout, raw); err != nil {
			return nil, apperrors.Validationf("goal date must be YYYY-MM-DD")
		}
		return domain.OnDate(raw), nil
	}
	return nil, apperrors.Validationf("section %q has no schedule", section)
}

func removeWhere[T any](in []T, match func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !match(v) {
			out = append(out, v)
		}
	}
	return out
}
