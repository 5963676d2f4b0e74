package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds a move, type or species name into its lookup key:
// accents stripped, case folded, surrounding and repeated whitespace
// collapsed. "Lance-Flammes", " lance-flammes " and "LANCE-FLAMMES" share a key.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.Join(strings.Fields(out), " ")
	return cases.Fold().String(out)
}
