package normalize

// Record is the canonical unit the pipeline operates on. It is the only
// shape downstream code (differ, builder) ever sees; the raw Jira document
// never crosses this boundary.
type Record struct {
	// Key is the sole identity: two records with the same key are the same
	// entity across runs.
	Key    string
	Title  string
	Status string

	// Owner is the current assignee display name ("" = unassigned).
	Owner string
	// Originator is the reporter display name ("" = unknown).
	Originator string

	// Weight is the effort estimate; nil when no candidate field carries
	// a usable number.
	Weight *float64

	// Bucket is the active sprint name ("" = backlog/unassigned).
	Bucket string

	// Parent is the nearest enclosing epic, if any.
	Parent *GroupRef

	// Link is the browse URL for the record.
	Link string
}

// GroupRef points at a grouping entity (epic).
type GroupRef struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Fallbacks used when the source omits a field. User-facing strings stay in
// Portuguese, matching the report language.
const (
	TitleFallback  = "Sem resumo"
	StatusFallback = "Desconhecido"
)

// GroupType is the issue type treated as a grouping entity.
const GroupType = "Epic"
