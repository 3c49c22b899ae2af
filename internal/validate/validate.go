package validate

import (
	"mime"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhone = regexp.MustCompile(`^\+?[0-9 ]{6,20}$`)
	reID    = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reKey   = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)
	reClock = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 80 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a simple resource identifier (category/field/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// FieldKey validates a snake_case field key.
func FieldKey(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reKey.MatchString(s)
}

// Name validates a displayable customer name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 50 {
		return "", false
	}
	return s, true
}

func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhone.MatchString(s)
}

// ISODate parses a YYYY-MM-DD calendar date.
func ISODate(s string) (time.Time, bool) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	return d, err == nil
}

// Clock validates a zero-padded HH:MM time of day.
func Clock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reClock.MatchString(s)
}

// Minutes converts an HH:MM value to minutes after midnight.
func Minutes(s string) (int, bool) {
	if _, ok := Clock(s); !ok {
		return 0, false
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	return h*60 + m, true
}

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// Image accepts jpg, png, webp and gif uploads and returns the lower-case
// extension. A declared content type, when present, must match it.
func Image(name, contentType string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	want, ok := imageTypes[ext]
	if !ok {
		return "", false
	}
	if strings.TrimSpace(contentType) == "" {
		return ext, true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || mt != want {
		return "", false
	}
	return ext, true
}

// Position parses a field position; negatives are rejected.
func Position(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Password enforces 8-20 chars with lower, upper, digit and symbol.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
