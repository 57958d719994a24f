package derivation

import (
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/stack_budget/internal/core/domain"
	"github.com/SscSPs/stack_budget/internal/dto"
	"github.com/SscSPs/stack_budget/internal/utils"
)

const (
	dateLabelLayout   = "1/2/2006"
	actionDateLayout  = "1/2 3:04 PM"
	noScheduleLabel   = "-"
	warningPercentCap = 50
	dangerPercentCap  = 25
)

// BuildViewModel derives the complete view-model. now supplies the current
// day for bill ordering and the location for labels.
func BuildViewModel(doc *domain.Document, now time.Time) dto.ViewModel {
	totals := Compute(doc)
	vm := dto.ViewModel{
		Available:        totals.Available,
		AvailableDisplay: utils.FormatDollars(totals.Available),
		GeneratedAt:      now,
	}

	for _, section := range domain.Sections {
		sv := dto.SectionView{
			Section:      string(section),
			Total:        totals.Section(section),
			TotalDisplay: utils.FormatDollars(totals.Section(section)),
			LastAction:   LastActionLabel(doc.LastAction(section), now.Location()),
		}
		if section == domain.SectionAccounts {
			for _, acc := range SortedAccounts(doc.Accounts) {
				sv.Entries = append(sv.Entries, accountEntry(acc))
			}
		} else {
			items, _ := doc.Section(section)
			for _, item := range SortedItems(section, *items, now) {
				sv.Entries = append(sv.Entries, itemEntry(item))
			}
		}
		if sv.Entries == nil {
			sv.Entries = []dto.EntryView{}
		}
		vm.Sections = append(vm.Sections, sv)
	}
	return vm
}

func accountEntry(acc domain.Account) dto.EntryView {
	sign := dto.SignPositive
	if !acc.IsPositive {
		sign = dto.SignNegative
	}
	return dto.EntryView{
		ID:            acc.ID,
		Name:          acc.Name,
		Amount:        acc.Amount,
		DisplayAmount: utils.FormatDollars(acc.Amount),
		AmountSign:    sign,
	}
}

func itemEntry(item domain.BudgetItem) dto.EntryView {
	remaining := Remaining(item)
	sign := dto.SignNeutral
	switch {
	case remaining.IsPositive():
		sign = dto.SignPositive
	case remaining.IsNegative():
		sign = dto.SignNegative
	}

	entry := dto.EntryView{
		ID:            item.ID,
		Name:          item.Name,
		Amount:        remaining,
		DisplayAmount: utils.FormatPlainDollars(remaining),
		AmountSign:    sign,
		DueLabel:      DueLabel(item.Due),
		NeededLabel:   utils.FormatDollars(item.Needed()),
		SpendEnabled:  item.SpendingEnabled(),
	}
	if pct, ok := ProgressPercent(item); ok {
		entry.ProgressPercent = &pct
		entry.ProgressTone = toneFor(pct)
	}
	if last, ok := item.MostRecentSpend(); ok {
		entry.MostRecentSpend = &dto.SpendView{Name: last.Name, Amount: last.Amount, Date: last.Date}
	}
	return entry
}

func toneFor(pct float64) dto.ProgressTone {
	switch {
	case pct < dangerPercentCap:
		return dto.ToneDanger
	case pct < warningPercentCap:
		return dto.ToneWarning
	}
	return dto.ToneGood
}

// DueLabel renders a schedule for display.
func DueLabel(s *domain.Schedule) string {
	if s == nil {
		return noScheduleLabel
	}
	switch s.Kind {
	case domain.ScheduleRecurrence:
		if s.Value == domain.EveryCheck {
			return "Every check"
		}
		return "Every month"
	case domain.ScheduleDay:
		return Ordinal(s.Day)
	case domain.ScheduleDate:
		if t, ok := s.Time(); ok {
			return t.Format(dateLabelLayout)
		}
		if s.Value == "" {
			return noScheduleLabel
		}
		return s.Value
	case domain.ScheduleLegacy:
		if domain.IsISODate(s.Value) {
			if t, err := time.Parse(domain.DateLayout, s.Value); err == nil {
				return t.Format(dateLabelLayout)
			}
		}
		if s.Value == "" {
			return noScheduleLabel
		}
		return s.Value
	}
	return noScheduleLabel
}

// Ordinal renders 1 -> "1st", 12 -> "12th", 23 -> "23rd".
func Ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// LastActionLabel renders a section's last action, e.g.
// "spend - Groceries - $12.5 at 3/15 10:04 AM". Empty when there is none.
func LastActionLabel(a *domain.LastAction, loc *time.Location) string {
	if a == nil {
		return ""
	}
	label := fmt.Sprintf("%s - %s", a.Type, a.Name)
	if a.Type == domain.ActionSpend && a.Amount != nil {
		label += " - $" + a.Amount.String()
	}
	if t, err := domain.ParseTimestamp(a.Date); err == nil {
		if loc != nil {
			t = t.In(loc)
		}
		label += " at " + t.Format(actionDateLayout)
	}
	return label
}
