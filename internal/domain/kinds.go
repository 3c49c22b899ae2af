package domain

// FieldKind is the discriminant of a configured field.
type FieldKind string

const (
	KindDate     FieldKind = "date"
	KindTime     FieldKind = "time"
	KindSelect   FieldKind = "select"
	KindNumber   FieldKind = "number"
	KindText     FieldKind = "text"
	KindTextarea FieldKind = "textarea"
	KindRadio    FieldKind = "radio"
)

func (k FieldKind) Valid() bool {
	switch k {
	case KindDate, KindTime, KindSelect, KindNumber, KindText, KindTextarea, KindRadio:
		return true
	}
	return false
}

// RuleCapable reports whether fields of this kind may carry a RuleDocument.
func (k FieldKind) RuleCapable() bool {
	switch k {
	case KindDate, KindTime, KindNumber, KindText, KindTextarea:
		return true
	}
	return false
}

// NeedsOptions reports whether fields of this kind require an explicit choice list.
func (k FieldKind) NeedsOptions() bool { return k == KindSelect || k == KindRadio }
