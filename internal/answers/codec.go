// Package answers maps an input session's field values to generic stored
// answers and back.
package answers

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"borgo/internal/domain"
)

// StorageMarker is the path segment every object-storage reference carries.
const StorageMarker = "/order-images/"

// IsFileReference classifies a value as an uploaded file reference.
func IsFileReference(v string) bool {
	return strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") || strings.Contains(v, StorageMarker)
}

// Scalar stringifies an arbitrary answer value without losing information.
// Structured values use canonical JSON (sorted object keys).
func Scalar(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case json.Number:
		return x.String(), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("stringify answer: %w", err)
	}
	return string(b), nil
}

// Encode turns a field map into answers sorted by field key. Empty values
// are omitted.
func Encode(values map[string]string) []domain.Answer {
	keys := make([]string, 0, len(values))
	for k, v := range values {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.Answer, 0, len(keys))
	for _, k := range keys {
		v := values[k]
		a := domain.Answer{FieldKey: k}
		if IsFileReference(v) {
			a.FileReference = &v
		} else {
			a.ScalarValue = &v
		}
		out = append(out, a)
	}
	return out
}

// Decode rebuilds the field map. File references decode to the reference string.
func Decode(list []domain.Answer) map[string]string {
	out := make(map[string]string, len(list))
	for _, a := range list {
		if v := a.Value(); v != "" {
			out[a.FieldKey] = v
		}
	}
	return out
}
