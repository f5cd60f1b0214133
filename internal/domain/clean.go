package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// CleanLocationName trims the name and collapses internal whitespace runs to a
// single space. Case is preserved.
func CleanLocationName(name string) string {
	return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
}

// FoldName returns the case-folded NFC form of s for case-insensitive
// comparison of names.
func FoldName(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}

// NormalizeTag lowercases and trims a tag and joins its words with hyphens,
// so "  Work In Progress " becomes "work-in-progress". Returns "" for blank
// input.
func NormalizeTag(tag string) string {
	fields := strings.Fields(norm.NFC.String(tag))
	if len(fields) == 0 {
		return ""
	}
	return cases.Lower(language.Und).String(strings.Join(fields, "-"))
}

// NormalizeTags normalizes every tag, drops blanks and removes duplicates
// while keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		n := NormalizeTag(t)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// CleanStrings trims each entry and drops the ones left empty.
func CleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
