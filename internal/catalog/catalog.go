// Package catalog holds the fixed vocabulary of fields staff may attach to a
// category form. It makes no decisions about orders.
package catalog

import (
	"sort"

	"borgo/internal/domain"
)

// Well-known keys the form engine reads directly.
const (
	KeyPickupDate     = "pickup_date"
	KeyPickupTime     = "pickup_time"
	KeyTiers          = "tiers"
	KeyPeopleCount    = "people_count"
	KeyAllergies      = "allergies"
	KeyPrintOption    = "print_option"
	KeyInscription    = "inscription"
	KeyNeedsTransport = "needs_transport"
	KeyIsRestaurant   = "is_restaurant"
)

type Entry struct {
	Key            string
	Label          string
	Kind           domain.FieldKind
	DefaultOptions []domain.Option
}

func (e Entry) RuleCapable() bool  { return e.Kind.RuleCapable() }
func (e Entry) NeedsOptions() bool { return e.Kind.NeedsOptions() }

var yesNo = []domain.Option{{Value: "No", Label: "No"}, {Value: "Si", Label: "Sì"}}

var entries = map[string]Entry{
	KeyPickupDate:     {Key: KeyPickupDate, Label: "Data di ritiro", Kind: domain.KindDate},
	KeyPickupTime:     {Key: KeyPickupTime, Label: "Orario di ritiro", Kind: domain.KindTime},
	KeyTiers:          {Key: KeyTiers, Label: "Piani", Kind: domain.KindSelect, DefaultOptions: []domain.Option{{Value: "1", Label: "1 Piano"}, {Value: "2", Label: "2 Piani"}}},
	"cake_type":       {Key: "cake_type", Label: "Nome torta", Kind: domain.KindSelect},
	KeyPeopleCount:    {Key: KeyPeopleCount, Label: "Persone", Kind: domain.KindNumber},
	"base":            {Key: "base", Label: "Base", Kind: domain.KindSelect},
	"filling":         {Key: "filling", Label: "Farcia", Kind: domain.KindSelect},
	"exterior":        {Key: "exterior", Label: "Esterno", Kind: domain.KindSelect},
	"decoration":      {Key: "decoration", Label: "Decorazione", Kind: domain.KindSelect},
	KeyAllergies:      {Key: KeyAllergies, Label: "Allergie", Kind: domain.KindTextarea},
	KeyPrintOption:    {Key: KeyPrintOption, Label: "Stampa", Kind: domain.KindRadio, DefaultOptions: yesNo},
	KeyInscription:    {Key: KeyInscription, Label: "Scritta", Kind: domain.KindText},
	KeyNeedsTransport: {Key: KeyNeedsTransport, Label: "La torta deve viaggiare?", Kind: domain.KindRadio, DefaultOptions: yesNo},
	KeyIsRestaurant:   {Key: KeyIsRestaurant, Label: "Devo portarla a un ristorante? (max 25 km)", Kind: domain.KindRadio, DefaultOptions: yesNo},
}

// Lookup returns the catalog entry for key. The returned options slice is a copy.
func Lookup(key string) (Entry, bool) {
	e, ok := entries[key]
	if !ok {
		return Entry{}, false
	}
	e.DefaultOptions = append([]domain.Option(nil), e.DefaultOptions...)
	return e, true
}

func Keys() []string {
	out := make([]string, 0, len(entries))
	for k := range entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func All() []Entry {
	keys := Keys()
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		e, _ := Lookup(k)
		out = append(out, e)
	}
	return out
}
