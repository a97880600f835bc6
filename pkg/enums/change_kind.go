package enums

// ChangeKind classifies what the change-notification differ observed for a
// comment id within one poll cycle.
type ChangeKind string

const (
	ChangeKindNew     ChangeKind = "new"
	ChangeKindUpdated ChangeKind = "updated"
	ChangeKindSummary ChangeKind = "summary"
)
