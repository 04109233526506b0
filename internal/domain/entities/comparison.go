package entities

// FindingChange classifies a finding against prior studies
type FindingChange string

const (
	FindingChangeNew     FindingChange = "new"
	FindingChangeChanged FindingChange = "changed"
	FindingChangeStable  FindingChange = "stable"
)

// PriorReport is an earlier study supplied for interval comparison
type PriorReport struct {
	Text     string `json:"text"`
	Date     string `json:"date"`
	ScanType string `json:"scan_type"`
}

// ComparisonFinding is one finding tagged against the priors
type ComparisonFinding struct {
	Finding string        `json:"finding"`
	Change  FindingChange `json:"change"`
	Detail  string        `json:"detail,omitempty"`
}

// KeyChange is an original/revised text pair with the reason for the change
type KeyChange struct {
	Original string `json:"original"`
	Revised  string `json:"revised"`
	Reason   string `json:"reason"`
}

// ComparisonResult holds the outcome of one interval-comparison workflow.
// It lives only for the duration of that workflow and is never cached.
type ComparisonResult struct {
	Summary       string              `json:"summary"`
	Findings      []ComparisonFinding `json:"findings"`
	KeyChanges    []KeyChange         `json:"key_changes"`
	RevisedReport string              `json:"revised_report,omitempty"`
}
