package domain

// Migrate brings a decoded document of any schema version into canonical
// form. It is idempotent.
//
//   - items without a neededAmount key get neededAmount = amount; an explicit
//     null is kept
//   - plain-string due dates (YYYY-MM-DD) become {type: date}; other strings stay
//   - missing spend histories become empty
//   - missing collections become empty; missing last actions stay null
func Migrate(doc *Document) {
	if doc.Accounts == nil {
		doc.Accounts = []Account{}
	}
	for _, section := range ItemSections {
		items, _ := doc.Section(section)
		if *items == nil {
			*items = []BudgetItem{}
		}
		for i := range *items {
			migrateItem(&(*items)[i])
		}
	}
}

func migrateItem(item *BudgetItem) {
	if !item.NeededAmount.Valid && !item.neededNull {
		item.NeededAmount.Decimal = item.Amount
		item.NeededAmount.Valid = true
	}
	if item.Due != nil && item.Due.Kind == ScheduleLegacy && IsISODate(item.Due.Value) {
		item.Due = OnDate(item.Due.Value)
	}
	if item.Spent == nil {
		item.Spent = []SpendEntry{}
	}
}
