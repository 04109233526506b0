package entities

import "time"

// Finding is a discrete observation extracted from a report
type Finding struct {
	Finding    string `json:"finding"`
	Location   string `json:"location,omitempty"`
	Severity   string `json:"severity,omitempty"`
	Modality   string `json:"modality,omitempty"`
	Confidence string `json:"confidence,omitempty"`
}

// Guideline is a clinical guideline entry matched to a finding
type Guideline struct {
	ID                     string   `json:"id"`
	Condition              string   `json:"condition"`
	Summary                string   `json:"summary"`
	Modality               string   `json:"modality,omitempty"`
	ClassificationSystems  []string `json:"classification_systems,omitempty"`
	MeasurementProtocols   []string `json:"measurement_protocols,omitempty"`
	ImagingCharacteristics []string `json:"imaging_characteristics,omitempty"`
	DifferentialDiagnoses  []string `json:"differential_diagnoses,omitempty"`
	FollowUpRecommendation string   `json:"follow_up_recommendation,omitempty"`
	Sources                []string `json:"sources,omitempty"`
}

// SuggestedAction is a completeness-driven edit the user can apply
type SuggestedAction struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Details string `json:"details,omitempty"`
	Patch   string `json:"patch,omitempty"`
}

// CompletenessAnalysis is the structured result of the asynchronous
// completeness computation for a report.
type CompletenessAnalysis struct {
	Analysis         string            `json:"analysis"`
	Summary          string            `json:"summary,omitempty"`
	ReviewQuestions  []string          `json:"review_questions,omitempty"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
}

// ChatRole tags the author of a chat message
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of the report chat
type ChatMessage struct {
	Role         ChatRole  `json:"role"`
	Content      string    `json:"content"`
	Sources      []string  `json:"sources,omitempty"`
	EditProposal string    `json:"edit_proposal,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// EnhancementEntry is the per-report cached result of the enhancement
// pipeline. At most one entry exists per report id; while cached it is the
// sole source of truth for that report's enhancement state.
type EnhancementEntry struct {
	ReportID         string                `json:"report_id"`
	Findings         []Finding             `json:"findings"`
	Guidelines       []Guideline           `json:"guidelines"`
	Completeness     *CompletenessAnalysis `json:"completeness,omitempty"`
	Timestamp        time.Time             `json:"timestamp"`
	Pending          bool                  `json:"pending"`
	TimedOut         bool                  `json:"timed_out,omitempty"`
	Error            string                `json:"error,omitempty"`
	ChatMessages     []ChatMessage         `json:"chat_messages"`
	AppliedActionIDs map[string]struct{}   `json:"-"`
}

// Clone returns a shallow copy with its own applied-action set, so readers
// never observe a half-written entry while the cache updates it.
func (e *EnhancementEntry) Clone() *EnhancementEntry {
	if e == nil {
		return nil
	}
	cp := *e
	cp.AppliedActionIDs = make(map[string]struct{}, len(e.AppliedActionIDs))
	for id := range e.AppliedActionIDs {
		cp.AppliedActionIDs[id] = struct{}{}
	}
	cp.ChatMessages = append([]ChatMessage(nil), e.ChatMessages...)
	return &cp
}
