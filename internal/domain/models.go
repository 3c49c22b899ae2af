package domain

type Category struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Slug           string `db:"slug" json:"slug"`
	IsConfigurable bool   `db:"is_configurable" json:"is_configurable"`
	MinLeadDays    int    `db:"min_lead_days" json:"min_lead_days"`
	CreatedAt      string `db:"created_at" json:"created_at"`
}

// Option is one entry of a select/radio choice list.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CategoryField is one configured input of a category form.
// Options is set iff Kind.NeedsOptions(); Rules only for rule-capable kinds.
type CategoryField struct {
	ID         string        `json:"id"`
	CategoryID string        `json:"category_id"`
	FieldKey   string        `json:"field_key"`
	Label      string        `json:"field_label"`
	Kind       FieldKind     `json:"field_type"`
	IsRequired bool          `json:"is_required"`
	Position   int           `json:"position"`
	Options    []Option      `json:"options,omitempty"`
	Rules      *RuleDocument `json:"rules,omitempty"`
}

// HasOption reports whether v is one of the configured option values.
func (f CategoryField) HasOption(v string) bool {
	for _, o := range f.Options {
		if o.Value == v {
			return true
		}
	}
	return false
}

// Answer is one persisted field value of a submitted order.
// Exactly one of ScalarValue and FileReference is non-nil.
type Answer struct {
	FieldKey      string  `json:"field_key"`
	ScalarValue   *string `json:"field_value"`
	FileReference *string `json:"file_url"`
}

// Value returns whichever slot is populated.
func (a Answer) Value() string {
	if a.FileReference != nil {
		return *a.FileReference
	}
	if a.ScalarValue != nil {
		return *a.ScalarValue
	}
	return ""
}

type Order struct {
	ID              string `db:"id" json:"id"`
	CreatedAt       string `db:"created_at" json:"created_at"`
	CategoryID      string `db:"category_id" json:"category_id"`
	Status          Status `db:"status" json:"status"`
	CustomerName    string `db:"customer_name" json:"customer_name"`
	CustomerSurname string `db:"customer_surname" json:"customer_surname"`
	CustomerPhone   string `db:"customer_phone" json:"customer_phone"`
	PickupDate      string `db:"pickup_date" json:"pickup_date,omitempty"`
	PickupTime      string `db:"pickup_time" json:"pickup_time,omitempty"`
	TotalItems      int    `db:"total_items" json:"total_items"`
	ArchivedAt      string `db:"archived_at" json:"archived_at,omitempty"`
	UserID          string `db:"user_id" json:"-"`
}

func (o Order) Archived() bool { return o.ArchivedAt != "" }

// CapacityDay is the daily order counter of a category. MaxOrders 0 means unlimited.
type CapacityDay struct {
	CategoryID    string `db:"category_id" json:"category_id"`
	Date          string `db:"capacity_date" json:"date"`
	MaxOrders     int    `db:"max_orders" json:"max_orders"`
	CurrentOrders int    `db:"current_orders" json:"current_orders"`
}

func (c CapacityDay) Full() bool { return c.MaxOrders > 0 && c.CurrentOrders >= c.MaxOrders }
