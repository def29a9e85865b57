package domain

import (
	"strings"
	"time"
)

// Salary keeps the cleaned salary text alongside any bounds parsed from it.
// Min and Max are nil when the text carried no numeric token.
type Salary struct {
	Raw      string `json:"raw,omitempty"`
	Min      *int   `json:"min,omitempty"`
	Max      *int   `json:"max,omitempty"`
	Currency string `json:"currency,omitempty"`
}

func (s Salary) IsZero() bool { return s.Raw == "" && s.Min == nil && s.Max == nil }

// Job is a posting under tracking. Empty strings mean the field is absent.
type Job struct {
	ID          int64  `json:"id"`
	Fingerprint string `json:"fingerprint"`

	Title          string     `json:"title"`
	Company        string     `json:"company"`
	Location       string     `json:"location,omitempty"`
	Salary         Salary     `json:"salary_range"`
	SourcePlatform string     `json:"source_platform,omitempty"`
	URL            string     `json:"job_url,omitempty"`
	Description    string     `json:"description,omitempty"`
	Requirements   string     `json:"requirements,omitempty"`
	PostedDate     *time.Time `json:"posted_date,omitempty"`

	MatchScore int    `json:"match_score"`
	Status     Status `json:"status"`

	CVVersion       string     `json:"cv_version,omitempty"`
	CoverLetterPath string     `json:"cover_letter_path,omitempty"`
	ApplicationDate *time.Time `json:"application_date,omitempty"`
	FollowUpDate    *time.Time `json:"follow_up_date,omitempty"`
	ResponseDate    *time.Time `json:"response_date,omitempty"`
	InterviewDate   *time.Time `json:"interview_date,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Text is what the scorer matches against: title followed by description.
func (j Job) Text() string {
	return strings.TrimSpace(j.Title + " " + j.Description)
}

// ClampScore keeps a score inside [0,100].
func ClampScore(s int) int {
	switch {
	case s < 0:
		return 0
	case s > 100:
		return 100
	default:
		return s
	}
}
