// Package slug turns free-text identifying fields into canonical, URL-safe
// identifiers and builds the composite document keys used for gyms.
//
// Normalization lowercases the input and then drops every rune that is not an
// ASCII letter or digit. Nothing is transliterated or replaced, so
// "New York!" becomes "newyork" and "Café" becomes "caf". Two inputs that only
// differ by stripped characters normalize to the same slug; gym ids derived
// from them collide, which is what makes gym registration idempotent.
package slug

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Separator joins the normalized components of a composite id.
const Separator = "-"

// ErrEmptyComponent is returned by BuildGymID when a component normalizes to "".
var ErrEmptyComponent = errors.New("component normalizes to an empty slug")

// Normalize returns text lowercased with everything outside [a-z0-9] removed.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	// cases.Caser is stateful, so each call gets its own.
	lower := cases.Lower(language.Und).String(text)

	var b strings.Builder
	b.Grow(len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// GymID derives the document key of a gym from its slug, city and country:
// "{norm(slug)}-{norm(city)}-{norm(country)}". It never fails; see BuildGymID
// for the validating variant.
func GymID(slug, city, country string) string {
	return Normalize(slug) + Separator + Normalize(city) + Separator + Normalize(country)
}

// BuildGymID is GymID that rejects degenerate input: when any component
// normalizes to the empty string it returns ErrEmptyComponent naming the field.
func BuildGymID(slug, city, country string) (string, error) {
	parts := [...]struct{ field, value string }{
		{"slug", slug},
		{"city", city},
		{"country", country},
	}
	norm := make([]string, 0, len(parts))
	for _, p := range parts {
		n := Normalize(p.value)
		if n == "" {
			return "", fmt.Errorf("%s: %w", p.field, ErrEmptyComponent)
		}
		norm = append(norm, n)
	}
	return strings.Join(norm, Separator), nil
}
