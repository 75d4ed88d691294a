// Package validation collects findings about a project and its parcels into
// a report before any massing is computed.
package validation

import (
	"fmt"

	cerrors "github.com/eluisluzquadros/cogniticy/internal/errors"
)

// Stage names the check that raised a finding.
type Stage string

const (
	StageSchema   Stage = "schema"
	StageGeometry Stage = "geometry"
	StageZoning   Stage = "zoning"
)

// Severity ranks a finding. Only errors make a report invalid.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Finding is one message about the project or a parcel. Field is the dotted
// path of the offending setting, e.g. "properties.max_height".
type Finding struct {
	Stage    Stage    `json:"stage"`
	Severity Severity `json:"severity"`
	Parcel   string   `json:"parcel,omitempty"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Got      any      `json:"got,omitempty"`
	Want     string   `json:"want,omitempty"`
	Hint     string   `json:"hint,omitempty"`
}

// Report holds findings in the order they were raised.
type Report struct {
	Findings []Finding `json:"findings"`
}

// Error records a finding that makes the report invalid.
func (r *Report) Error(f Finding) { r.add(SeverityError, f) }

// Warn records a finding the run can proceed with.
func (r *Report) Warn(f Finding) { r.add(SeverityWarning, f) }

// Note records an informational finding.
func (r *Report) Note(f Finding) { r.add(SeverityNote, f) }

func (r *Report) add(s Severity, f Finding) {
	f.Severity = s
	r.Findings = append(r.Findings, f)
}

// Valid reports whether no error was recorded.
func (r *Report) Valid() bool { return r.count(SeverityError) == 0 }

// Errors returns the findings that make the report invalid.
func (r *Report) Errors() []Finding   { return r.only(SeverityError) }
func (r *Report) Warnings() []Finding { return r.only(SeverityWarning) }
func (r *Report) Notes() []Finding    { return r.only(SeverityNote) }

func (r *Report) only(s Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}

func (r *Report) count(s Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}

// Merge appends the findings of other.
func (r *Report) Merge(other *Report) {
	if other != nil {
		r.Findings = append(r.Findings, other.Findings...)
	}
}

// ForParcel attributes every finding without a parcel to id.
func (r *Report) ForParcel(id string) *Report {
	for i := range r.Findings {
		if r.Findings[i].Parcel == "" {
			r.Findings[i].Parcel = id
		}
	}
	return r
}

// String summarizes the report, e.g. "1 error, 2 warnings, 0 notes".
func (r *Report) String() string {
	return fmt.Sprintf("%s, %s, %s",
		plural(r.count(SeverityError), "error"),
		plural(r.count(SeverityWarning), "warning"),
		plural(r.count(SeverityNote), "note"))
}

// Err returns a configuration error naming the first error finding, or nil
// when the report is valid.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	err := cerrors.Configuration("%s", first.Message).
		WithContext("stage", string(first.Stage)).
		WithContext("errors", len(errs))
	if first.Field != "" {
		err = err.WithContext("field", first.Field)
	}
	if first.Parcel != "" {
		err = err.WithContext("parcel", first.Parcel)
	}
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
