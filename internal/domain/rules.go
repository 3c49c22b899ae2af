package domain

import "encoding/json"

// RuleDocument is a tagged union: Kind selects which of the variants is set.
type RuleDocument struct {
	Kind   FieldKind
	Date   *DateRule
	Time   *TimeRule
	Number *NumberRule
	Text   *TextRule
}

type DateRule struct {
	MinLeadDays      *int     `json:"minLeadDays,omitempty"`
	UnavailableDates []string `json:"unavailableDates,omitempty"`
}

// TimeRule is either a flat slot list or a generative window set, never both.
type TimeRule struct {
	AvailableTimeSlots []string `json:"availableTimeSlots,omitempty"`
	MorningStart       string   `json:"morningStart,omitempty"`
	MorningEnd         string   `json:"morningEnd,omitempty"`
	AfternoonStart     string   `json:"afternoonStart,omitempty"`
	AfternoonEnd       string   `json:"afternoonEnd,omitempty"`
	SundayStart        string   `json:"sundayStart,omitempty"`
	SundayEnd          string   `json:"sundayEnd,omitempty"`
}

func (t TimeRule) Generative() bool {
	return t.MorningStart != "" || t.MorningEnd != "" ||
		t.AfternoonStart != "" || t.AfternoonEnd != "" ||
		t.SundayStart != "" || t.SundayEnd != ""
}

type NumberRule struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

type TextRule struct {
	Rows      *int `json:"rows,omitempty"`
	MaxLength *int `json:"maxLength,omitempty"`
}

// MarshalJSON writes only the active variant, matching the stored rule grammar.
func (r RuleDocument) MarshalJSON() ([]byte, error) {
	switch {
	case r.Date != nil:
		return json.Marshal(r.Date)
	case r.Time != nil:
		return json.Marshal(r.Time)
	case r.Number != nil:
		return json.Marshal(r.Number)
	case r.Text != nil:
		return json.Marshal(r.Text)
	}
	return []byte("{}"), nil
}

func (r *RuleDocument) DateRule() *DateRule {
	if r == nil {
		return nil
	}
	return r.Date
}

func (r *RuleDocument) TimeRule() *TimeRule {
	if r == nil {
		return nil
	}
	return r.Time
}

func (r *RuleDocument) NumberRule() *NumberRule {
	if r == nil {
		return nil
	}
	return r.Number
}

func (r *RuleDocument) TextRule() *TextRule {
	if r == nil {
		return nil
	}
	return r.Text
}
