package export

import (
	"fmt"
	"regexp"
	"strings"

	"VDP-SVG/internal/records"
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._\-]`)

// SafeName replaces every character other than letters, digits, '.', '_'
// and '-' with '_'.
func SafeName(s string) string {
	return unsafeNameChars.ReplaceAllString(s, "_")
}

// recordName picks the file stem for the record in table row n (1-based).
func recordName(rec records.Record, nameField string, n int) string {
	if nameField != "" {
		if v := strings.TrimSpace(rec.Get(nameField)); v != "" {
			return SafeName(v)
		}
	}
	return fmt.Sprintf("record_%03d", n)
}

// uniqueNamer suffixes repeated stems with _2, _3, ...
type uniqueNamer map[string]int

func (u uniqueNamer) next(stem string) string {
	u[stem]++
	if u[stem] == 1 {
		return stem
	}
	return fmt.Sprintf("%s_%d", stem, u[stem])
}
