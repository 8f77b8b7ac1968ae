package registry

import "strings"

// Status represents the lifecycle of a registry entry.
type Status string

const (
	StatusNew            Status = "new"
	StatusPrankwebQueued Status = "prankweb_queued"
	StatusPrankwebFailed Status = "prankweb_failed"
	StatusPredicted      Status = "predicted"
	StatusConverted      Status = "converted"
	StatusEmpty          Status = "empty"
	StatusFunPDBEFailed  Status = "funpdbe_failed"
)

var allStatuses = []Status{
	StatusNew,
	StatusPrankwebQueued,
	StatusPrankwebFailed,
	StatusPredicted,
	StatusConverted,
	StatusEmpty,
	StatusFunPDBEFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// transitions lists the legal status edges. Same-status updates are always
// allowed so a poll that observes no change can still record timestamps.
// Nothing transitions back into "new".
var transitions = map[Status][]Status{
	StatusNew:            {StatusPrankwebQueued, StatusPredicted, StatusPrankwebFailed},
	StatusPrankwebQueued: {StatusPredicted, StatusPrankwebFailed},
	StatusPredicted:      {StatusConverted, StatusEmpty, StatusFunPDBEFailed},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Pollable reports whether the prediction service should be queried for an
// entry in this status.
func (s Status) Pollable() bool {
	return s == StatusNew || s == StatusPrankwebQueued
}

// Convertible reports whether an entry in this status is ready for FunPDBe
// conversion.
func (s Status) Convertible() bool {
	return s == StatusPredicted
}

// Terminal reports whether an entry in this status has finished the pipeline.
// Failed statuses are not terminal in this sense: they are merely excluded
// from the pollable and convertible sets until manually reset.
func (s Status) Terminal() bool {
	return s == StatusConverted || s == StatusEmpty
}

// ValidTransition reports whether an entry may move from one status to
// another. A status may always be re-asserted.
func ValidTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Entry is one tracked structural identifier and its pipeline state.
type Entry struct {
	// Code is the upper-cased PDB identifier and the registry key.
	Code   string `json:"-"`
	Status Status `json:"status"`

	// Provenance timestamps, set once at discovery.
	CreateDate     string `json:"createDate"`
	PDBReleaseDate string `json:"pdbReleaseDate"`

	// Last observed remote job timestamps, refreshed on every successful poll.
	PrankwebCreatedDate string `json:"prankwebCreatedDate,omitempty"`
	PrankwebCheckDate   string `json:"prankwebCheckDate,omitempty"`
}

// CanonicalCode normalizes a PDB code to the form used as registry key.
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Shard returns the two-character publication bucket for a code.
func Shard(code string) string {
	lowered := strings.ToLower(strings.TrimSpace(code))
	if len(lowered) < 2 {
		return lowered
	}
	return lowered[:2]
}
