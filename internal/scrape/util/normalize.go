package util

import "strings"

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// NormalizeLocation strips a leading label and drops repeated comma-separated parts.
func NormalizeLocation(loc string) string {
	loc = CleanText(loc)
	if loc == "" {
		return ""
	}

	if m := reLocationLabel.FindStringIndex(loc); m != nil && m[0] == 0 {
		loc = loc[m[1]:]
	}

	return JoinUnique(strings.Split(loc, ","), ", ")
}

// JoinUnique cleans each part, drops empties and case-insensitive repeats.
func JoinUnique(parts []string, sep string) string {
	seen := map[string]bool{}
	var out []string
	for _, p := range parts {
		p = CleanText(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	return strings.Join(out, sep)
}
