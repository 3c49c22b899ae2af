package form

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"borgo/internal/domain"
	"borgo/internal/rules"
	"borgo/internal/validate"
)

func fail(key, reason string) *domain.ValidationError {
	return &domain.ValidationError{FieldKey: key, Reason: reason}
}

// validateLocked walks identity, schema fields in position order, then visible
// conditional fields, and stops at the first failure.
func (s *Session) validateLocked() error {
	s.state = StateValidating
	err := s.firstFailureLocked()
	s.lastErr = err
	if err != nil {
		s.state = StateInvalid
		return err
	}
	s.state = StateValid
	return nil
}

func (s *Session) firstFailureLocked() error {
	id := s.identity
	for _, c := range []struct{ key, v string }{
		{"customer_name", id.FirstName},
		{"customer_surname", id.LastName},
		{"customer_phone", id.Phone},
	} {
		if strings.TrimSpace(c.v) == "" {
			return fail(c.key, "required")
		}
	}

	for _, f := range s.fields {
		v := strings.TrimSpace(s.values[f.FieldKey])
		if v == "" {
			if f.IsRequired {
				return fail(f.FieldKey, "required")
			}
			continue
		}
		if err := s.checkFieldLocked(f, v); err != nil {
			return err
		}
	}

	for _, r := range reveals {
		for _, cf := range r.fields {
			if !s.visible[cf.Key] {
				continue
			}
			if err := s.uploadErr[cf.Key]; err != nil {
				return err
			}
			v := strings.TrimSpace(s.values[cf.Key])
			if v == "" {
				if cf.Required {
					return fail(cf.Key, "required")
				}
				continue
			}
			if cf.MaxLength > 0 && utf8.RuneCountInString(v) > cf.MaxLength {
				return fail(cf.Key, fmt.Sprintf("longer than %d characters", cf.MaxLength))
			}
		}
	}
	return nil
}

func (s *Session) checkFieldLocked(f domain.CategoryField, v string) error {
	switch f.Kind {
	case domain.KindNumber:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return fail(f.FieldKey, "not a number")
		}
		if r := f.Rules.NumberRule(); r != nil {
			if r.Min != nil && n < *r.Min {
				return fail(f.FieldKey, "below minimum "+strconv.FormatFloat(*r.Min, 'f', -1, 64))
			}
			if r.Max != nil && n > *r.Max {
				return fail(f.FieldKey, "above maximum "+strconv.FormatFloat(*r.Max, 'f', -1, 64))
			}
		}
	case domain.KindText, domain.KindTextarea:
		if r := f.Rules.TextRule(); r != nil && r.MaxLength != nil && utf8.RuneCountInString(v) > *r.MaxLength {
			return fail(f.FieldKey, fmt.Sprintf("longer than %d characters", *r.MaxLength))
		}
	case domain.KindSelect, domain.KindRadio:
		if len(f.Options) > 0 && !f.HasOption(v) {
			return fail(f.FieldKey, "not one of the options")
		}
	case domain.KindDate:
		d, ok := validate.ISODate(v)
		if !ok {
			return fail(f.FieldKey, "not a date")
		}
		if !rules.IsDateSelectable(d, s.now(), f.Rules.DateRule(), s.category.MinLeadDays) {
			return fail(f.FieldKey, "date not available")
		}
	case domain.KindTime:
		if _, ok := validate.Clock(v); !ok {
			return fail(f.FieldKey, "not a time")
		}
		slots, err := s.slotsLocked(f)
		if errors.Is(err, ErrPickupDateRequired) {
			return fail(f.FieldKey, ErrPickupDateRequired.Error())
		}
		if f.Rules.TimeRule() != nil && !rules.Contains(slots, v) {
			return fail(f.FieldKey, "time slot not available")
		}
	}
	return nil
}
