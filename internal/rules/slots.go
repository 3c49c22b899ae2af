package rules

import (
	"fmt"
	"time"

	"borgo/internal/domain"
	"borgo/internal/validate"
)

// AvailableSlots returns the selectable HH:MM values for pickupDate.
// A flat slot list is returned as configured.
func AvailableSlots(pickupDate time.Time, rule *domain.TimeRule) []string {
	if rule == nil {
		return nil
	}
	if !rule.Generative() {
		return append([]string(nil), rule.AvailableTimeSlots...)
	}
	if pickupDate.Weekday() == time.Sunday {
		return SlotsInRange(rule.SundayStart, rule.SundayEnd)
	}
	slots := SlotsInRange(rule.MorningStart, rule.MorningEnd)
	return append(slots, SlotsInRange(rule.AfternoonStart, rule.AfternoonEnd)...)
}

// SlotsInRange emits start and every 30-minute step after it while before end.
// A minute overflow snaps to the top of the next hour. Missing or malformed
// bounds yield no slots; start == end yields none.
func SlotsInRange(start, end string) []string {
	s, ok := validate.Minutes(start)
	if !ok {
		return nil
	}
	e, ok := validate.Minutes(end)
	if !ok {
		return nil
	}
	var out []string
	h, m := s/60, s%60
	for h*60+m < e {
		out = append(out, fmt.Sprintf("%02d:%02d", h, m))
		m += 30
		if m >= 60 {
			m = 0
			h++
		}
	}
	return out
}

// Contains reports whether slot is one of slots.
func Contains(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}
