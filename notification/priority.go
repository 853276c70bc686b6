package notification

// Priority is the delivery priority of a notification job.
type Priority string

const (
	// PriorityDefault lets the push gateway choose the delivery priority.
	PriorityDefault Priority = "default"

	// PriorityNormal requests standard delivery priority.
	PriorityNormal Priority = "normal"

	// PriorityHigh requests immediate delivery, waking the device if
	// necessary.
	PriorityHigh Priority = "high"
)

// NormalizePriority returns p if it is a recognized priority; otherwise it
// returns PriorityDefault.
//
// An invalid priority is never an error, neither when enqueuing nor when
// decoding a queued job.
func NormalizePriority(p Priority) Priority {
	switch p {
	case PriorityDefault, PriorityNormal, PriorityHigh:
		return p
	default:
		return PriorityDefault
	}
}
