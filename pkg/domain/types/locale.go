package types

import "fmt"

// Locale is the language of a knowledge entry or a question
type Locale string

const (
	LocaleVI Locale = "vi"
	LocaleEN Locale = "en"

	DefaultLocale = LocaleVI
)

// AllLocales returns all supported locales
func AllLocales() []Locale {
	return []Locale{LocaleVI, LocaleEN}
}

// IsValid checks if the locale is supported
func (l Locale) IsValid() bool {
	switch l {
	case LocaleVI, LocaleEN:
		return true
	default:
		return false
	}
}

// String returns the string representation of the locale
func (l Locale) String() string {
	return string(l)
}

// ParseLocale parses a string into a Locale. An empty string yields DefaultLocale.
func ParseLocale(s string) (Locale, error) {
	if s == "" {
		return DefaultLocale, nil
	}
	l := Locale(s)
	if !l.IsValid() {
		return "", fmt.Errorf("invalid locale: %s", s)
	}
	return l, nil
}
