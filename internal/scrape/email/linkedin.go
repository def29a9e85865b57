package email

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"jobsearch-engine/internal/scrape/util"
)

type LinkedInJob struct {
	Title    string
	Company  string
	Location string
	Salary   string
	URL      string
	SourceID string // linkedin:<id> when the link carries /jobs/view/<id>
}

var (
	reSalary = regexp.MustCompile(`(?i)(?:[$€£]\s?\d[\d,. ]*(?:K|M)?|\d[\d,. ]*(?:K|M)?\s?(?:PLN|zł|EUR|USD|GBP))(?:\s*[-–]\s*(?:[$€£]\s?)?\d[\d,. ]*(?:K|M)?(?:\s?(?:PLN|zł|EUR|USD|GBP))?)?\s*/\s*(?:year|yr|month|mo|hour|hr)`)
	reJobID  = regexp.MustCompile(`/jobs/view/(\d+)`)
)

// ParseLinkedInJobAlertHTML extracts job cards from a LinkedIn job-alert
// e-mail. Several anchors usually point at the same job (logo, title, "view");
// they are merged by job id so the best title wins. Output follows the order
// jobs first appear in the message.
func ParseLinkedInJobAlertHTML(htmlBody string) ([]LinkedInJob, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, err
	}

	byKey := map[string]*LinkedInJob{}
	var order []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		jobURL := normalizeMaybeRedirectedURL(strings.TrimSpace(href))
		lh := strings.ToLower(jobURL)
		if !strings.Contains(lh, "linkedin.com") || !strings.Contains(lh, "/jobs/view/") {
			return
		}
		if util.IsGenericAlertURL(jobURL) {
			return
		}

		sourceID := linkedInSourceID(jobURL)
		key := sourceID
		if key == "" {
			key = util.CanonicalURL(jobURL)
		}

		j, ok := byKey[key]
		if !ok {
			j = &LinkedInJob{URL: canonicalJobURL(jobURL, sourceID), SourceID: sourceID}
			byKey[key] = j
			order = append(order, key)
		}

		if cand := stripBadTitleSuffixes(util.CleanText(a.Text())); betterTitle(cand, j.Title) {
			j.Title = cand
		}

		card := a.Closest("table")
		if card.Length() == 0 {
			card = a.Closest("tr")
		}
		if card.Length() == 0 {
			card = a.Parent()
		}

		// "Company · Location" usually sits in a <p> of the card
		card.Find("p").Each(func(_ int, p *goquery.Selection) {
			t := util.CleanText(p.Text())
			if t == "" {
				return
			}
			if j.Company == "" && j.Location == "" && strings.Contains(t, " · ") {
				parts := strings.SplitN(t, " · ", 2)
				j.Company = strings.TrimSpace(parts[0])
				j.Location = strings.TrimSpace(parts[1])
				return
			}
			if t2 := stripBadTitleSuffixes(t); betterTitle(t2, j.Title) && !strings.Contains(t2, " · ") {
				j.Title = t2
			}
		})

		if j.Salary == "" {
			if m := reSalary.FindString(util.CleanText(card.Text())); m != "" {
				j.Salary = strings.TrimSpace(m)
			}
		}
	})

	out := make([]LinkedInJob, 0, len(order))
	for _, k := range order {
		j := byKey[k]
		if strings.TrimSpace(j.Title) == "" {
			continue
		}
		out = append(out, *j)
	}
	return out, nil
}

func linkedInSourceID(jobURL string) string {
	if m := reJobID.FindStringSubmatch(jobURL); len(m) == 2 {
		return "linkedin:" + m[1]
	}
	return ""
}

// canonicalJobURL rewrites tracking variants (/comm/jobs/view/<id>?trk=...)
// to the public posting URL.
func canonicalJobURL(jobURL, sourceID string) string {
	if id := strings.TrimPrefix(sourceID, "linkedin:"); id != "" && id != sourceID {
		return "https://www.linkedin.com/jobs/view/" + id + "/"
	}
	return util.CanonicalURL(jobURL)
}

func normalizeMaybeRedirectedURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	// wrapper with url= param
	if raw := u.Query().Get("url"); raw != "" {
		if uu, err := url.Parse(raw); err == nil && uu.Host != "" {
			return uu.String()
		}
	}

	// google redirect /url?q=
	if strings.Contains(strings.ToLower(u.Host), "google.") && strings.HasPrefix(u.Path, "/url") {
		if q := u.Query().Get("q"); q != "" {
			if uu, err := url.Parse(q); err == nil && uu.Host != "" {
				return uu.String()
			}
		}
	}
	return u.String()
}

func stripBadTitleSuffixes(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, b := range []string{"Actively recruiting", "Easy Apply", "Promoted"} {
		s = strings.TrimSpace(strings.ReplaceAll(s, b, ""))
	}
	low := strings.ToLower(s)
	if strings.Contains(low, "alumni") ||
		strings.Contains(low, "connections") ||
		strings.Contains(low, "applicants") ||
		strings.Contains(low, "school") {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

func betterTitle(candidate, current string) bool {
	c := strings.TrimSpace(candidate)
	if c == "" {
		return false
	}
	cur := strings.TrimSpace(current)
	if cur == "" {
		return titleScore(c) >= 5
	}

	cs, ks := titleScore(c), titleScore(cur)
	if ks >= 8 && cs < ks {
		return false
	}
	// only replace when meaningfully better, to avoid flip-flopping
	return cs >= ks+3
}

func looksLikeLinkedInJobAlert(from, subj, body string) bool {
	if strings.Contains(strings.ToLower(from), "jobalerts-noreply") {
		return true
	}
	s := strings.ToLower(subj)
	if strings.Contains(s, "job alert") || strings.Contains(s, "linkedin") || strings.Contains(s, "jobs for you") {
		b := strings.ToLower(body)
		return strings.Contains(b, "linkedin.com/comm/jobs/view") ||
			strings.Contains(b, "linkedin.com/jobs/view")
	}
	return false
}

// titleScore rates how much s looks like a job title rather than a CTA,
// salary line or location.
func titleScore(s string) int {
	orig := strings.TrimSpace(s)
	if orig == "" {
		return -100
	}

	l := strings.ToLower(orig)
	score := 0

	if strings.Contains(l, "unsubscribe") || strings.Contains(l, "manage") && strings.Contains(l, "alert") {
		return -50
	}
	if strings.Contains(l, "http://") || strings.Contains(l, "https://") || strings.Contains(l, "www.") {
		return -30
	}

	if strings.ContainsAny(orig, "$€£") || strings.Contains(l, "pln") || strings.Contains(l, "zł") {
		score -= 8
	}
	if strings.Contains(l, "per hour") || strings.Contains(l, "/hour") || strings.Contains(l, "/hr") ||
		strings.Contains(l, "per year") || strings.Contains(l, "/year") || strings.Contains(l, "/yr") ||
		strings.Contains(l, "/month") {
		score -= 6
	}

	for _, bad := range []string{"apply", "view job", "see job", "see details", "learn more", "sign in", "see all jobs"} {
		if strings.Contains(l, bad) {
			score -= 6
		}
	}

	for _, loc := range []string{"remote", "hybrid", "on-site", "onsite", "poland", "warsaw", "united states"} {
		if strings.Contains(l, loc) {
			score -= 3
		}
	}

	if strings.Contains(orig, "|") || strings.Contains(orig, "•") {
		score -= 2
	}

	for _, w := range []string{
		"engineer", "developer", "software", "platform", "cloud", "devops", "security",
		"data", "scientist", "analyst", "architect", "consultant", "owner", "specialist",
		"manager", "director", "lead", "principal", "intern",
	} {
		if strings.Contains(l, w) {
			score += 4
			break
		}
	}

	for _, w := range []string{"sr", "senior", "jr", "junior", "mid", "ii", "iii", "principal", "staff", "lead"} {
		if containsWord(l, w) {
			score += 2
		}
	}

	switch n := len([]rune(orig)); {
	case n >= 6 && n <= 80:
		score += 2
	case n < 4 || n > 140:
		score -= 6
	}

	if strings.HasSuffix(orig, ".") || strings.Contains(l, "you will") || strings.Contains(l, "we are") {
		score -= 4
	}

	digits := 0
	for _, r := range orig {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits >= 6 {
		score -= 4
	}
	return score
}

// containsWord matches needle only at word boundaries, so "sr" does not hit
// "sre".
func containsWord(haystackLower, needleLower string) bool {
	bound := func(b byte) bool {
		switch b {
		case ' ', '\t', '\n', '\r', '-', '/', '\\', '(', ')', '[', ']', ',', '.', ':', ';', '|':
			return true
		}
		return false
	}
	for idx := strings.Index(haystackLower, needleLower); idx != -1; {
		right := idx + len(needleLower)
		if (idx == 0 || bound(haystackLower[idx-1])) && (right == len(haystackLower) || bound(haystackLower[right])) {
			return true
		}
		next := strings.Index(haystackLower[idx+1:], needleLower)
		if next == -1 {
			break
		}
		idx += 1 + next
	}
	return false
}
