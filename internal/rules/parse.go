// Package rules parses per-kind rule documents and evaluates date and
// time-slot availability. Everything here is pure.
package rules

import (
	"bytes"
	"encoding/json"
	"fmt"

	"borgo/internal/domain"
	"borgo/internal/validate"
)

// Parse decodes raw into the rule variant of kind and rejects unknown shapes.
// Empty input, null and {} mean "no rules".
func Parse(kind domain.FieldKind, raw []byte) (*domain.RuleDocument, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) || bytes.Equal(raw, []byte("{}")) {
		return nil, nil
	}
	if !kind.RuleCapable() {
		return nil, fmt.Errorf("%w: %s fields take no rules", domain.ErrInvalidSchema, kind)
	}

	doc := &domain.RuleDocument{Kind: kind}
	var err error
	switch kind {
	case domain.KindDate:
		doc.Date = &domain.DateRule{}
		err = decodeStrict(raw, doc.Date)
	case domain.KindTime:
		doc.Time = &domain.TimeRule{}
		err = decodeStrict(raw, doc.Time)
	case domain.KindNumber:
		doc.Number = &domain.NumberRule{}
		err = decodeStrict(raw, doc.Number)
	case domain.KindText, domain.KindTextarea:
		doc.Text = &domain.TextRule{}
		err = decodeStrict(raw, doc.Text)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s rules: %v", domain.ErrInvalidSchema, kind, err)
	}
	if err := Check(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Check validates the grammar of an already decoded document.
func Check(doc *domain.RuleDocument) error {
	if doc == nil {
		return nil
	}
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidSchema, fmt.Sprintf(format, args...))
	}
	switch {
	case doc.Date != nil:
		if doc.Date.MinLeadDays != nil && *doc.Date.MinLeadDays < 0 {
			return bad("minLeadDays must be >= 0")
		}
		for _, d := range doc.Date.UnavailableDates {
			if _, ok := validate.ISODate(d); !ok {
				return bad("unavailable date %q is not YYYY-MM-DD", d)
			}
		}
	case doc.Time != nil:
		t := doc.Time
		if len(t.AvailableTimeSlots) > 0 && t.Generative() {
			return bad("time rules mix a slot list with generated windows")
		}
		for _, s := range t.AvailableTimeSlots {
			if _, ok := validate.Clock(s); !ok {
				return bad("slot %q is not HH:MM", s)
			}
		}
		pairs := [][2]string{{t.MorningStart, t.MorningEnd}, {t.AfternoonStart, t.AfternoonEnd}, {t.SundayStart, t.SundayEnd}}
		for _, p := range pairs {
			if err := checkWindow(p[0], p[1]); err != nil {
				return bad("%v", err)
			}
		}
	case doc.Number != nil:
		n := doc.Number
		if n.Min != nil && n.Max != nil && *n.Min > *n.Max {
			return bad("min %v greater than max %v", *n.Min, *n.Max)
		}
	case doc.Text != nil:
		if doc.Text.Rows != nil && *doc.Text.Rows < 1 {
			return bad("rows must be >= 1")
		}
		if doc.Text.MaxLength != nil && *doc.Text.MaxLength < 1 {
			return bad("maxLength must be >= 1")
		}
	}
	return nil
}

func checkWindow(start, end string) error {
	if start == "" && end == "" {
		return nil
	}
	s, ok := validate.Minutes(start)
	if !ok {
		return fmt.Errorf("window start %q is not HH:MM", start)
	}
	e, ok := validate.Minutes(end)
	if !ok {
		return fmt.Errorf("window end %q is not HH:MM", end)
	}
	if s > e {
		return fmt.Errorf("window %s-%s ends before it starts", start, end)
	}
	return nil
}
