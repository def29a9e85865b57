package generate

import (
	"strings"
	"text/template"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/logger"
)

const maxDescriptionRunes = 6000

var cvPrompt = template.Must(template.New("cv").Parse(`You are tailoring a CV for a specific job posting.
Rewrite the base CV below so it emphasises experience relevant to the posting.
Keep every fact truthful; do not invent employers, dates or certifications.
Return plain Markdown only.

Job title: {{.Job.Title}}
Company: {{.Job.Company}}
{{- if .Job.Location}}
Location: {{.Job.Location}}
{{- end}}
{{- if .Skills}}
Candidate skills to stress where true: {{.Skills}}
{{- end}}

Job description:
{{.Description}}

Base CV:
{{.BaseCV}}
`))

var letterPrompt = template.Must(template.New("letter").Parse(`Write a concise cover letter (under 300 words) for the posting below.
Address it to the hiring team at {{.Job.Company}}. Use a professional, direct tone.
Draw only on facts from the CV. Return plain text only.

Job title: {{.Job.Title}}
{{- if .Job.Location}}
Location: {{.Job.Location}}
{{- end}}

Job description:
{{.Description}}

CV:
{{.BaseCV}}
`))

type promptData struct {
	Job         domain.Job
	Description string
	Skills      string
	BaseCV      string
}

func render(t *template.Template, job domain.Job, profile domain.Profile, baseCV string) (string, error) {
	desc := job.Description
	if job.Requirements != "" {
		desc = strings.TrimSpace(desc + "\n\nRequirements:\n" + job.Requirements)
	}
	var b strings.Builder
	err := t.Execute(&b, promptData{
		Job:         job,
		Description: logger.Truncate(desc, maxDescriptionRunes),
		Skills:      strings.Join(profile.Skills, ", "),
		BaseCV:      baseCV,
	})
	return b.String(), err
}
