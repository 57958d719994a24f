package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errNotObject = errors.New("document is not a JSON object")

const (
	keyAccounts           = "accounts"
	keyAccountsLastAction = "accounts_lastAction"
	keyItems              = "items"
	keyBudget             = "budget"
	keyBudgetLastAction   = "budget_lastAction"
	keyBills              = "bills"
	keyBillsLastAction    = "bills_lastAction"
	keyGoals              = "goals"
	keyGoalsLastAction    = "goals_lastAction"
	keyLastSpend          = "_lastSpend"
	keyLastUpdated        = "_lastUpdated"
)

// fieldSet maps JSON keys to the struct fields that own them.
type fieldSet map[string]any

func (f fieldSet) decode(raw map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	for key, target := range f {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, target); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		delete(raw, key)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

func (f fieldSet) encode(extra map[string]json.RawMessage) ([]byte, error) {
	out := make(map[string]json.RawMessage, len(f)+len(extra))
	for key, value := range extra {
		out[key] = value
	}
	for key, source := range f {
		b, err := json.Marshal(source)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		out[key] = b
	}
	return json.Marshal(out)
}

func (i *Items) fields() fieldSet {
	return fieldSet{
		keyBudget:             &i.Budget,
		keyBudgetLastAction:   &i.BudgetLastAction,
		keyBills:              &i.Bills,
		keyBillsLastAction:    &i.BillsLastAction,
		keyGoals:              &i.Goals,
		keyGoalsLastAction:    &i.GoalsLastAction,
		keyAccountsLastAction: &i.AccountsLastAction,
	}
}

// MarshalJSON writes the known sections plus any preserved foreign keys.
func (i Items) MarshalJSON() ([]byte, error) {
	return i.fields().encode(i.extra)
}

// UnmarshalJSON reads the known sections and keeps foreign keys aside.
func (i *Items) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	extra, err := i.fields().decode(raw)
	if err != nil {
		return err
	}
	i.extra = extra
	return nil
}

func (d *Document) fields() fieldSet {
	return fieldSet{
		keyAccounts:           &d.Accounts,
		keyAccountsLastAction: &d.AccountsLastAction,
		keyItems:              &d.Items,
	}
}

// MarshalJSON writes the document in the shape every client shares.
func (d Document) MarshalJSON() ([]byte, error) {
	return d.fields().encode(d.extra)
}

// UnmarshalJSON reads a document, keeping unknown top-level keys. A top-level
// null is rejected rather than read as an empty document.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return errNotObject
	}
	extra, err := d.fields().decode(raw)
	if err != nil {
		return err
	}
	d.extra = extra
	return nil
}

// DecodeDocument parses a serialized document of any schema version and
// returns its canonical, migrated form.
func DecodeDocument(data []byte) (*Document, error) {
	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	Migrate(doc)
	return doc, nil
}

// EncodeDocument serializes a document compactly.
func EncodeDocument(doc *Document) ([]byte, error) {
	return json.Marshal(doc)
}

// EncodeDocumentIndent serializes a document for humans (remote payloads, backups).
func EncodeDocumentIndent(doc *Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// MergeTopLevel shallow-merges the top-level keys of patch onto doc:
// keys present in patch replace doc's, absent keys are kept.
func MergeTopLevel(doc *Document, patch map[string]json.RawMessage) (*Document, error) {
	current, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(current, &merged); err != nil {
		return nil, err
	}
	for key, value := range patch {
		merged[key] = value
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	return DecodeDocument(data)
}
