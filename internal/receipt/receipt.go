// Package receipt projects a stored order onto a printable view. It never
// writes anything back.
package receipt

import (
	"sort"

	"borgo/internal/domain"
	"borgo/internal/form"
)

type Line struct {
	Key   string
	Label string
	Value string
	File  bool
}

type View struct {
	Order       domain.Order
	Category    string
	StatusLabel string
	Archived    bool
	Lines       []Line
}

// Build lists answers in schema position order, then revealed conditional
// fields, then answers whose field has since been removed (labelled by key).
// Choice answers show their option label. Only upload fields render as images;
// any other link-like answer stays text.
func Build(o domain.Order, category string, list []domain.Answer, fields []domain.CategoryField) View {
	v := View{Order: o, Category: category, StatusLabel: o.Status.Label(), Archived: o.Archived()}

	byKey := make(map[string]domain.Answer, len(list))
	for _, a := range list {
		byKey[a.FieldKey] = a
	}
	fileKeys := map[string]bool{}
	for _, cf := range form.Conditionals() {
		if cf.File {
			fileKeys[cf.Key] = true
		}
	}
	add := func(key, label string, opts []domain.Option) {
		a, ok := byKey[key]
		if !ok {
			return
		}
		delete(byKey, key)
		val := a.Value()
		for _, opt := range opts {
			if opt.Value == val && opt.Label != "" {
				val = opt.Label
				break
			}
		}
		v.Lines = append(v.Lines, Line{Key: key, Label: label, Value: val, File: fileKeys[key] && a.FileReference != nil})
	}

	sorted := append([]domain.CategoryField(nil), fields...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	for _, f := range sorted {
		add(f.FieldKey, f.Label, f.Options)
	}
	for _, cf := range form.Conditionals() {
		add(cf.Key, cf.Label, nil)
	}

	rest := make([]string, 0, len(byKey))
	for k := range byKey {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	for _, k := range rest {
		add(k, k, nil)
	}
	return v
}
