package person

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldName reduces a name to a search key: diacritics removed, lowercase,
// dashes as spaces and runs of space collapsed ("Jiří-Pavel " -> "jiri pavel").
func FoldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(strings.ReplaceAll(folded, "-", " "))
	return strings.Join(strings.Fields(folded), " ")
}

// Find returns the indexes of people whose folded name contains the folded
// query, in list order. An empty query matches everyone.
func (s *Store) Find(query string) []int {
	q := FoldName(query)
	var out []int
	for i, p := range s.people {
		if strings.Contains(FoldName(p.Name), q) {
			out = append(out, i)
		}
	}
	return out
}
