package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountSign tells the renderer how to color an amount.
type AmountSign string

const (
	SignPositive AmountSign = "positive"
	SignNegative AmountSign = "negative"
	SignNeutral  AmountSign = "neutral"
)

// ProgressTone buckets the remaining-funds percentage.
type ProgressTone string

const (
	ToneGood    ProgressTone = "good"
	ToneWarning ProgressTone = "warning"
	ToneDanger  ProgressTone = "danger"
)

// SpendView is the most recent spend shown under an item.
type SpendView struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

// EntryView is one display row of a section, in display order.
type EntryView struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	DisplayAmount   string          `json:"displayAmount"`
	AmountSign      AmountSign      `json:"amountSign"`
	DueLabel        string          `json:"dueLabel,omitempty"`
	NeededLabel     string          `json:"neededLabel,omitempty"`
	ProgressPercent *float64        `json:"progressPercent,omitempty"`
	ProgressTone    ProgressTone    `json:"progressTone,omitempty"`
	MostRecentSpend *SpendView      `json:"mostRecentSpend,omitempty"`
	SpendEnabled    bool            `json:"spendEnabled"`
}

// SectionView is a section's rows, total and last-action label.
type SectionView struct {
	Section      string          `json:"section"`
	Entries      []EntryView     `json:"entries"`
	Total        decimal.Decimal `json:"total"`
	TotalDisplay string          `json:"totalDisplay"`
	LastAction   string          `json:"lastAction,omitempty"`
}

// ViewModel is everything the rendering collaborator needs.
type ViewModel struct {
	Sections         []SectionView   `json:"sections"`
	Available        decimal.Decimal `json:"available"`
	AvailableDisplay string          `json:"availableDisplay"`
	GeneratedAt      time.Time       `json:"generatedAt"`
}

// Section returns the view of a section by name.
func (v ViewModel) Section(name string) (SectionView, bool) {
	for _, s := range v.Sections {
		if s.Section == name {
			return s, true
		}
	}
	return SectionView{}, false
}
