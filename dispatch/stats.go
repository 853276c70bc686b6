package dispatch

// Stats describes the outcomes of the messages processed in a single batch.
//
// Every message read from the queue is counted in Processed, and in exactly
// one of Succeeded or Failed. MovedToDLQ and Discarded further describe a
// subset of the failures.
type Stats struct {
	// Processed is the total number of messages read and settled.
	Processed int

	// Succeeded is the number of jobs delivered to every recipient.
	Succeeded int

	// Failed is the number of messages that were not delivered, including
	// malformed messages.
	Failed int

	// MovedToDLQ is the number of failed jobs escalated to the dead-letter
	// queue.
	MovedToDLQ int

	// Discarded is the number of failed jobs dropped because their failure
	// count exceeded the limit.
	Discarded int
}

// IsZero returns true if no messages were processed.
func (s Stats) IsZero() bool {
	return s == Stats{}
}

func (s *Stats) add(o Stats) {
	s.Processed += o.Processed
	s.Succeeded += o.Succeeded
	s.Failed += o.Failed
	s.MovedToDLQ += o.MovedToDLQ
	s.Discarded += o.Discarded
}
