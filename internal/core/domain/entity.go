package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Section names one of the four buckets of the Document.
type Section string

const (
	SectionAccounts Section = "accounts"
	SectionBudget   Section = "budget"
	SectionBills    Section = "bills"
	SectionGoals    Section = "goals"
)

// Sections lists every section in display order.
var Sections = []Section{SectionAccounts, SectionBudget, SectionBills, SectionGoals}

// ItemSections lists the sections that hold BudgetItems.
var ItemSections = []Section{SectionBudget, SectionBills, SectionGoals}

// ParseSection validates a section name.
func ParseSection(s string) (Section, error) {
	switch sec := Section(s); sec {
	case SectionAccounts, SectionBudget, SectionBills, SectionGoals:
		return sec, nil
	}
	return "", fmt.Errorf("unknown section %q", s)
}

// IsItemSection reports whether the section holds BudgetItems.
func (s Section) IsItemSection() bool {
	return s == SectionBudget || s == SectionBills || s == SectionGoals
}

// Entity is the amount-bearing capability shared by accounts and items.
type Entity interface {
	EntityName() string
	Balance() decimal.Decimal
	SetBalance(decimal.Decimal)
	IsLiability() bool
}

var (
	_ Entity = (*Account)(nil)
	_ Entity = (*BudgetItem)(nil)
)

// accountRefPrefix is the section tag used for accounts in serialized refs.
const accountRefPrefix = "acc"

// EntityRef identifies an Account or a BudgetItem.
type EntityRef struct {
	Section Section
	ID      string
}

// String renders the ref as "acc:<id>" or "<section>:<id>".
func (r EntityRef) String() string {
	prefix := string(r.Section)
	if r.Section == SectionAccounts {
		prefix = accountRefPrefix
	}
	return prefix + ":" + r.ID
}

// ParseEntityRef parses the String form of an EntityRef.
func ParseEntityRef(s string) (EntityRef, error) {
	prefix, id, ok := strings.Cut(s, ":")
	if !ok || id == "" {
		return EntityRef{}, fmt.Errorf("invalid entity reference %q", s)
	}
	if prefix == accountRefPrefix {
		return EntityRef{Section: SectionAccounts, ID: id}, nil
	}
	sec, err := ParseSection(prefix)
	if err != nil {
		return EntityRef{}, fmt.Errorf("invalid entity reference %q: %w", s, err)
	}
	return EntityRef{Section: sec, ID: id}, nil
}
