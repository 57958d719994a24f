package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ActionType is the kind of the most recent mutation in a section.
type ActionType string

const (
	ActionAdd        ActionType = "add"
	ActionEdit       ActionType = "edit"
	ActionEditAmount ActionType = "edit amount"
	ActionSpend      ActionType = "spend"
)

// LastAction is the informational marker kept per section. It is
// overwritten by every mutation and never read by totals.
type LastAction struct {
	Type   ActionType       `json:"type"`
	Name   string           `json:"name"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Date   string           `json:"date"`
}

// Items holds the three BudgetItem sections.
type Items struct {
	Budget           []BudgetItem
	BudgetLastAction *LastAction
	Bills            []BudgetItem
	BillsLastAction  *LastAction
	Goals            []BudgetItem
	GoalsLastAction  *LastAction
	// AccountsLastAction is a slot older clients kept inside items.
	AccountsLastAction *LastAction

	extra map[string]json.RawMessage
}

// Document is the root aggregate: the unit of local persistence and of
// remote synchronization.
type Document struct {
	Accounts           []Account
	AccountsLastAction *LastAction
	Items              Items

	// extra keeps top-level keys written by other clients.
	extra map[string]json.RawMessage
}

// NewDocument returns the empty built-in default.
func NewDocument() *Document {
	return &Document{
		Accounts: []Account{},
		Items: Items{
			Budget: []BudgetItem{},
			Bills:  []BudgetItem{},
			Goals:  []BudgetItem{},
		},
	}
}

// Section returns a pointer to the item slice of an item section.
func (d *Document) Section(section Section) (*[]BudgetItem, error) {
	switch section {
	case SectionBudget:
		return &d.Items.Budget, nil
	case SectionBills:
		return &d.Items.Bills, nil
	case SectionGoals:
		return &d.Items.Goals, nil
	}
	return nil, fmt.Errorf("section %q does not hold items", section)
}

// FindAccount returns the account with the given id.
func (d *Document) FindAccount(id string) (*Account, bool) {
	for i := range d.Accounts {
		if d.Accounts[i].ID == id {
			return &d.Accounts[i], true
		}
	}
	return nil, false
}

// FindItem returns the item with the given id in an item section.
func (d *Document) FindItem(section Section, id string) (*BudgetItem, bool) {
	items, err := d.Section(section)
	if err != nil {
		return nil, false
	}
	for i := range *items {
		if (*items)[i].ID == id {
			return &(*items)[i], true
		}
	}
	return nil, false
}

// Resolve looks up the entity a ref points to.
func (d *Document) Resolve(ref EntityRef) (Entity, bool) {
	if ref.Section == SectionAccounts {
		acc, ok := d.FindAccount(ref.ID)
		if !ok {
			return nil, false
		}
		return acc, true
	}
	item, ok := d.FindItem(ref.Section, ref.ID)
	if !ok {
		return nil, false
	}
	return item, true
}

// LastAction returns the marker slot of a section.
func (d *Document) LastAction(section Section) *LastAction {
	switch section {
	case SectionAccounts:
		return d.AccountsLastAction
	case SectionBudget:
		return d.Items.BudgetLastAction
	case SectionBills:
		return d.Items.BillsLastAction
	case SectionGoals:
		return d.Items.GoalsLastAction
	}
	return nil
}

// SetLastAction overwrites the marker slot of a section.
func (d *Document) SetLastAction(section Section, action *LastAction) {
	switch section {
	case SectionAccounts:
		d.AccountsLastAction = action
	case SectionBudget:
		d.Items.BudgetLastAction = action
	case SectionBills:
		d.Items.BillsLastAction = action
	case SectionGoals:
		d.Items.GoalsLastAction = action
	}
}

// SpendStamp is the top-level record of the most recent spend.
type SpendStamp struct {
	Section  Section         `json:"section"`
	ItemID   string          `json:"itemId"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date"`
	ItemName string          `json:"itemName"`
}

// StampSpend writes the _lastSpend and _lastUpdated top-level keys. They are
// carried alongside the known fields and never read back.
func (d *Document) StampSpend(stamp SpendStamp) error {
	spend, err := json.Marshal(stamp)
	if err != nil {
		return fmt.Errorf("%s: %w", keyLastSpend, err)
	}
	updated, err := json.Marshal(stamp.Date)
	if err != nil {
		return fmt.Errorf("%s: %w", keyLastUpdated, err)
	}
	if d.extra == nil {
		d.extra = make(map[string]json.RawMessage, 2)
	}
	d.extra[keyLastSpend] = spend
	d.extra[keyLastUpdated] = updated
	return nil
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	out := &Document{
		Accounts:           append([]Account(nil), d.Accounts...),
		AccountsLastAction: cloneAction(d.AccountsLastAction),
		Items: Items{
			Budget:             cloneItems(d.Items.Budget),
			BudgetLastAction:   cloneAction(d.Items.BudgetLastAction),
			Bills:              cloneItems(d.Items.Bills),
			BillsLastAction:    cloneAction(d.Items.BillsLastAction),
			Goals:              cloneItems(d.Items.Goals),
			GoalsLastAction:    cloneAction(d.Items.GoalsLastAction),
			AccountsLastAction: cloneAction(d.Items.AccountsLastAction),
			extra:              cloneRaw(d.Items.extra),
		},
		extra: cloneRaw(d.extra),
	}
	if d.Accounts != nil && out.Accounts == nil {
		out.Accounts = []Account{}
	}
	return out
}

func cloneItems(items []BudgetItem) []BudgetItem {
	if items == nil {
		return nil
	}
	out := make([]BudgetItem, len(items))
	for i, it := range items {
		c := it
		if it.Spent != nil {
			c.Spent = append([]SpendEntry{}, it.Spent...)
		}
		if it.Due != nil {
			due := *it.Due
			c.Due = &due
		}
		if it.EnableSpending != nil {
			enabled := *it.EnableSpending
			c.EnableSpending = &enabled
		}
		out[i] = c
	}
	return out
}

func cloneAction(a *LastAction) *LastAction {
	if a == nil {
		return nil
	}
	c := *a
	if a.Amount != nil {
		amt := *a.Amount
		c.Amount = &amt
	}
	return &c
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
