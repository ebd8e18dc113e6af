package constants

// EntryStatus is the canonical lifecycle status for a submitted document.
type EntryStatus string

// Stable values (store these exact strings in the DB).
const (
	StatusPending           EntryStatus = "PENDING"            // queued for processing
	StatusProcessing        EntryStatus = "PROCESSING"         // in flight
	StatusSuccess           EntryStatus = "SUCCESS"            // record extracted and accepted
	StatusError             EntryStatus = "ERROR"              // terminal failure
	StatusDuplicateConflict EntryStatus = "DUPLICATE_CONFLICT" // waiting on a user decision
)

// Terminal reports whether no further pipeline transition is possible.
// DUPLICATE_CONFLICT is not terminal: a user decision moves the entry back
// to PENDING or removes it.
func (s EntryStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

var allowedTransitions = map[EntryStatus][]EntryStatus{
	StatusPending:           {StatusProcessing},
	StatusProcessing:        {StatusSuccess, StatusError, StatusDuplicateConflict},
	StatusDuplicateConflict: {StatusPending},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to EntryStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
