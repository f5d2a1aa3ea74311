package search

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type synonymGroup struct {
	term    string
	related []string
}

// synonyms is iterated in declaration order.
var synonyms = []synonymGroup{
	{"shirt", []string{"top", "blouse", "t-shirt", "tee"}},
	{"pant", []string{"trouser", "jean", "slacks", "bottom"}},
	{"dress", []string{"gown", "frock"}},
	{"jacket", []string{"coat", "outerwear", "blazer"}},
	{"shoe", []string{"sneaker", "boot", "footwear", "heel"}},
	{"bag", []string{"handbag", "purse", "tote"}},
}

func (g synonymGroup) covers(word string) bool {
	if word == g.term {
		return true
	}
	for _, r := range g.related {
		if word == r {
			return true
		}
	}
	return false
}

// lower is not shared between goroutines: a Caser keeps state.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// queryWords splits q on whitespace and drops single-character tokens.
func queryWords(q string) []string {
	fields := strings.Fields(q)
	words := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			words = append(words, f)
		}
	}
	return words
}
