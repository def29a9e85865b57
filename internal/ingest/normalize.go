package ingest

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/util"
)

// RemoteToken is the single spelling every remote synonym collapses to.
const RemoteToken = "Remote"

var remoteSynonyms = []string{
	"remote",
	"fully remote",
	"100% remote",
	"remote-first",
	"remote first",
	"zdalnie",
	"zdalna",
	"praca zdalna",
	"home office",
	"work from home",
	"wfh",
	"anywhere",
	"remote (global)",
}

// remoteRE finds a synonym as a whole word or phrase; the surrounding
// boundary characters are captured so they can be put back.
var remoteRE = func() *regexp.Regexp {
	alts := append([]string(nil), remoteSynonyms...)
	sort.Slice(alts, func(i, j int) bool { return len(alts[i]) > len(alts[j]) })
	for i, a := range alts {
		alts[i] = regexp.QuoteMeta(a)
	}
	return regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])(` + strings.Join(alts, "|") + `)($|[^\p{L}\p{N}])`)
}()

const remoteMark = "\x00"

// Normalize turns one adapter record into a job draft. Records without a
// title or company fail with domain.ErrMalformedRecord.
func Normalize(rec domain.RawRecord, source string) (domain.Job, error) {
	get := func(name string) string {
		v, _ := rec.Get(name)
		return util.CleanText(v)
	}

	j := domain.Job{
		Title:        get(domain.FieldTitle),
		Company:      get(domain.FieldCompany),
		Location:     CanonicalLocation(get(domain.FieldLocation)),
		Salary:       ParseSalary(get(domain.FieldSalary)),
		URL:          get(domain.FieldURL),
		Description:  get(domain.FieldDescription),
		Requirements: get(domain.FieldRequirements),
		PostedDate:   parseDate(get(domain.FieldPostedDate)),
		Status:       domain.StatusFound,
	}
	switch {
	case j.Title == "":
		return domain.Job{}, fmt.Errorf("%w: missing title", domain.ErrMalformedRecord)
	case j.Company == "":
		return domain.Job{}, fmt.Errorf("%w: missing company for %q", domain.ErrMalformedRecord, j.Title)
	}

	j.SourcePlatform = get(domain.FieldSource)
	if j.SourcePlatform == "" {
		j.SourcePlatform = source
	}
	j.Fingerprint = domain.Fingerprint(j.Title, j.Company)
	return j, nil
}

// CanonicalLocation rewrites remote synonyms anywhere in the text to a
// separate RemoteToken part and drops repeated comma-separated parts, so
// "Warszawa (praca zdalna)" becomes "Warszawa, Remote".
func CanonicalLocation(loc string) string {
	loc = util.NormalizeLocation(loc)
	if loc == "" {
		return ""
	}
	var out []string
	for _, p := range strings.Split(loc, ",") {
		// adjacent synonyms share a boundary character, so repeat until stable
		for {
			next := remoteRE.ReplaceAllString(p, "${1}"+remoteMark+"${3}")
			if next == p {
				break
			}
			p = next
		}
		pieces := strings.Split(p, remoteMark)
		for i, piece := range pieces {
			if piece = util.CleanText(strings.Trim(piece, " -–/|()[]·:;&+")); piece != "" {
				out = append(out, piece)
			}
			if i < len(pieces)-1 {
				out = append(out, RemoteToken)
			}
		}
	}
	return util.JoinUnique(out, ", ")
}

var (
	decimalRE   = regexp.MustCompile(`(\d)[.,]\d{2}\b`)
	thousandsRE = regexp.MustCompile(`(\d)[ ,'.\x{00a0}\x{202f}](\d{3})\b`)
	amountRE    = regexp.MustCompile(`(\d+)(?:\s?([kK])\b)?`)
)

var currencyMarkers = []struct {
	marker string
	code   string
}{
	{"pln", "PLN"}, {"zł", "PLN"}, {"zl", "PLN"},
	{"eur", "EUR"}, {"€", "EUR"},
	{"usd", "USD"}, {"$", "USD"},
	{"gbp", "GBP"}, {"£", "GBP"},
	{"chf", "CHF"},
}

// ParseSalary cleans a salary string. When a numeric amount is present the
// Raw text becomes "min-max" (or a single amount) and the bounds are set;
// otherwise the text is kept verbatim without bounds.
func ParseSalary(raw string) domain.Salary {
	raw = util.CleanText(raw)
	if raw == "" {
		return domain.Salary{}
	}
	s := domain.Salary{Raw: raw, Currency: detectCurrency(raw)}

	text := decimalRE.ReplaceAllString(raw, "$1")
	for {
		next := thousandsRE.ReplaceAllString(text, "$1$2")
		if next == text {
			break
		}
		text = next
	}

	var (
		amounts []int
		kilo    []bool
	)
	for _, m := range amountRE.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if m[2] != "" {
			n *= 1000
		}
		amounts = append(amounts, n)
		kilo = append(kilo, m[2] != "")
		if len(amounts) == 2 {
			break
		}
	}
	if len(amounts) == 0 {
		return s
	}
	// "20-30k": one suffix covers both ends of the range, as long as the
	// scaled bound still sits on its side of the other one
	if len(amounts) == 2 && kilo[0] != kilo[1] {
		lo, hi := amounts[0], amounts[1]
		switch {
		case !kilo[0] && lo < 1000 && lo*1000 <= hi:
			amounts[0] = lo * 1000
		case !kilo[1] && hi < 1000 && hi*1000 >= lo:
			amounts[1] = hi * 1000
		}
	}

	sort.Ints(amounts)
	lo, hi := amounts[0], amounts[len(amounts)-1]
	s.Min, s.Max = &lo, &hi
	if lo == hi {
		s.Raw = strconv.Itoa(lo)
	} else {
		s.Raw = strconv.Itoa(lo) + "-" + strconv.Itoa(hi)
	}
	return s
}

func detectCurrency(s string) string {
	l := strings.ToLower(s)
	for _, c := range currencyMarkers {
		if strings.Contains(l, c.marker) {
			return c.code
		}
	}
	return ""
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
