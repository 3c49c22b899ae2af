package form

import (
	"strings"

	"borgo/internal/catalog"
)

// ConditionalField is revealed by an affirmative trigger answer. It is not part
// of any category schema.
type ConditionalField struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	File      bool   `json:"file"`
	Required  bool   `json:"required"`
	MaxLength int    `json:"max_length,omitempty"`
}

type reveal struct {
	trigger string
	fields  []ConditionalField
}

var reveals = []reveal{
	{trigger: catalog.KeyPrintOption, fields: []ConditionalField{
		{Key: "print_description", Label: "Descrivi l'immagine da stampare", MaxLength: 500},
		{Key: "print_image", Label: "Carica immagine", File: true},
	}},
	{trigger: catalog.KeyIsRestaurant, fields: []ConditionalField{
		{Key: "delivery_address", Label: "Indirizzo di consegna", Required: true, MaxLength: 200},
		{Key: "restaurant_contact", Label: "Nome referente", MaxLength: 100},
	}},
}

// Affirmative reports whether a radio answer means yes.
func Affirmative(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "si", "sì", "yes", "y", "true", "1":
		return true
	}
	return false
}

func conditionalByKey(key string) (ConditionalField, string, bool) {
	for _, r := range reveals {
		for _, f := range r.fields {
			if f.Key == key {
				return f, r.trigger, true
			}
		}
	}
	return ConditionalField{}, "", false
}

// Conditionals lists every conditional field in declaration order.
func Conditionals() []ConditionalField {
	var out []ConditionalField
	for _, r := range reveals {
		out = append(out, r.fields...)
	}
	return out
}
