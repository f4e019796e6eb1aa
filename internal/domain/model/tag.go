package model

import "time"

// TagScope distinguishes repository-level from file-level tag assignments.
type TagScope string

const (
	// TagScopeRepository targets the repository itself.
	TagScopeRepository TagScope = "repository"
	// TagScopeFile targets a single file path within the repository.
	TagScopeFile TagScope = "file"
)

// Valid returns true if the TagScope is valid.
func (s TagScope) Valid() bool {
	return s == TagScopeRepository || s == TagScopeFile
}

// TagPayload is an in-flight tag carried through normalize, diff, and apply.
// Confidence is nil when the model did not supply one.
type TagPayload struct {
	Key        string   `json:"key"`
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// FileTagPayload groups in-flight tags for a single file path.
type FileTagPayload struct {
	Path string       `json:"path"`
	Tags []TagPayload `json:"tags"`
}

// TagSourceService marks tags written by this service. The diff only
// considers removing catalog tags whose source is this value or absent.
const TagSourceService = "tagging-service"

// RepositoryTag is a tag as the catalog reports it, including its provenance.
type RepositoryTag struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source,omitempty"`
}

// TagAssignment is the immutable audit record of one applied tag.
type TagAssignment struct {
	ID         int64     `json:"id"                   db:"id"`
	JobRunID   int64     `json:"job_run_id"           db:"job_run_id"`
	Scope      TagScope  `json:"scope"                db:"scope"`
	Target     string    `json:"target"               db:"target"`
	Key        string    `json:"key"                  db:"key"`
	Value      string    `json:"value"                db:"value"`
	Confidence *float64  `json:"confidence,omitempty" db:"confidence"`
	AppliedAt  time.Time `json:"applied_at"           db:"applied_at"`
}

// AssignmentInput describes one assignment to record for a run.
type AssignmentInput struct {
	Scope      TagScope
	Target     string
	Key        string
	Value      string
	Confidence *float64
}

// TagProposal is the parsed, pre-normalization output of the model service.
type TagProposal struct {
	RepositoryTags []TagPayload
	FileTags       []FileTagPayload
}

// ModelUsage carries the token accounting reported by the model service.
type ModelUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelProposal is the outcome of one model-service call: the parsed tags,
// optional usage accounting, and the raw response body for the audit record.
// Raw is populated even when the content turned out unusable, so failed runs
// keep the evidence.
type ModelProposal struct {
	Tags  TagProposal
	Usage *ModelUsage
	Raw   string
}
