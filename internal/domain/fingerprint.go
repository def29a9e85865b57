package domain

import "strings"

const (
	fingerprintTitleLen   = 50
	fingerprintCompanyLen = 30
	fingerprintSep        = "_"
)

// Fingerprint is the identity key of a job: the lower-cased first 50 runes of
// the title and first 30 runes of the company with whitespace runs replaced by
// "_". Whitespace is collapsed before truncation so spacing variants collide.
func Fingerprint(title, company string) string {
	return fingerprintPart(title, fingerprintTitleLen) + fingerprintSep + fingerprintPart(company, fingerprintCompanyLen)
}

func fingerprintPart(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		s = string(r[:n])
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), fingerprintSep)
}
