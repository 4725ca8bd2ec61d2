package processor

import (
	"regexp"
	"sort"
)

// PlaceholderPattern matches {{name}} with optional inner whitespace.
var PlaceholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_\-.]+)\s*\}\}`)

// Discover returns the distinct placeholder names in text, sorted.
func Discover(text string) []string {
	seen := make(map[string]bool)
	names := []string{}
	for _, name := range tokensIn(text) {
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// tokensIn returns every placeholder occurrence in order, duplicates kept.
func tokensIn(text string) []string {
	var names []string
	for _, m := range PlaceholderPattern.FindAllStringSubmatch(text, -1) {
		names = append(names, m[1])
	}
	return names
}
