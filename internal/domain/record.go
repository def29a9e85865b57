package domain

import "strings"

// Field names understood by the normalizer.
const (
	FieldTitle        = "title"
	FieldCompany      = "company"
	FieldLocation     = "location"
	FieldSalary       = "salary"
	FieldURL          = "url"
	FieldDescription  = "description"
	FieldRequirements = "requirements"
	FieldPostedDate   = "posted_date"
	FieldSource       = "source"
)

type Field struct {
	Name  string
	Value string
}

// RawRecord is what a source adapter hands back: field/value pairs in the
// order the adapter found them. A field can be present with an empty value.
type RawRecord []Field

// Set appends a field. Later values for the same name shadow earlier ones.
func (r *RawRecord) Set(name, value string) {
	*r = append(*r, Field{Name: name, Value: value})
}

// Get returns the last value recorded for name and whether it was present at all.
func (r RawRecord) Get(name string) (string, bool) {
	for i := len(r) - 1; i >= 0; i-- {
		if strings.EqualFold(r[i].Name, name) {
			return r[i].Value, true
		}
	}
	return "", false
}

// NewRecord builds a record from alternating name/value arguments.
func NewRecord(kv ...string) RawRecord {
	rec := make(RawRecord, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		rec.Set(kv[i], kv[i+1])
	}
	return rec
}
