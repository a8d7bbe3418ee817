package engine

// Schema identifies which of the two fixed target record shapes an
// import targets.
type Schema string

const (
	SchemaApplication Schema = "application"
	SchemaInterview   Schema = "interview"
)

// Valid reports whether s is one of the two supported schemas.
func (s Schema) Valid() bool {
	return s == SchemaApplication || s == SchemaInterview
}

// ApplicationStatus is the canonical outcome tag of an application.
type ApplicationStatus string

const (
	StatusPending    ApplicationStatus = "pending"
	StatusPositive   ApplicationStatus = "positive"
	StatusNegative   ApplicationStatus = "negative"
	StatusNoResponse ApplicationStatus = "no_response"
)

// InterviewStatus is the canonical lifecycle tag of an interview.
type InterviewStatus string

const (
	InterviewPlanned   InterviewStatus = "planned"
	InterviewCompleted InterviewStatus = "completed"
	InterviewCancelled InterviewStatus = "cancelled"
)

// CanonicalApplication is a fully normalized job application.
// Optional fields use empty string for "not resolved"; AppliedAt is
// always populated (defaulting to import time).
type CanonicalApplication struct {
	Company      string               `json:"company"`
	Position     string               `json:"position"`
	ContractType string               `json:"contractType,omitempty"`
	Location     string               `json:"location,omitempty"`
	Source       string               `json:"source,omitempty"`
	AppliedAt    string               `json:"appliedAt"`
	JobURL       string               `json:"jobUrl,omitempty"`
	Note         string               `json:"note,omitempty"`
	Status       ApplicationStatus    `json:"status"`
	Interviews   []CanonicalInterview `json:"interviews,omitempty"`
}

// CanonicalInterview is a fully normalized interview, either embedded in
// an application row or imported standalone. ParentRef carries a company
// name or explicit parent id for standalone association.
type CanonicalInterview struct {
	ParentRef   string          `json:"parentRef,omitempty"`
	ScheduledAt string          `json:"scheduledAt"`
	Kind        string          `json:"kind,omitempty"`
	Format      string          `json:"format,omitempty"`
	Location    string          `json:"location,omitempty"`
	Interviewer string          `json:"interviewer,omitempty"`
	Status      InterviewStatus `json:"status"`
	Note        string          `json:"note,omitempty"`
}

// RecordSet is the full normalized output of one import, ready for a
// single commit call. Exactly one of the two slices is populated,
// matching the schema.
type RecordSet struct {
	Schema       Schema                 `json:"schema"`
	Applications []CanonicalApplication `json:"applications,omitempty"`
	Interviews   []CanonicalInterview   `json:"interviews,omitempty"`
}

// Len returns the number of records in the set.
func (rs RecordSet) Len() int {
	if rs.Schema == SchemaInterview {
		return len(rs.Interviews)
	}
	return len(rs.Applications)
}

// PreviewSampleSize is the number of records shown in a preview sample.
const PreviewSampleSize = 10

// ImportPreview is the ephemeral result of normalizing a dataset before
// the user confirms. It lives only inside a Session.
type ImportPreview struct {
	TotalRows   int       `json:"totalRows"`
	SkippedRows int       `json:"skippedRows"`
	Sample      RecordSet `json:"sample"`
	Full        RecordSet `json:"-"`
}

// ImportResult is the immutable outcome of one commit attempt.
type ImportResult struct {
	Success       bool     `json:"success"`
	ImportedCount int      `json:"importedCount"`
	SkippedCount  int      `json:"skippedCount"`
	Errors        []string `json:"errors,omitempty"`
}
