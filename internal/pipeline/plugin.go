package pipeline

import "github.com/jaibhageria/cloudmarker/internal/model"

// The three plugin capabilities. A plugin type may implement more than one
// capability, but each worker binds to exactly one at construction time,
// and no capability method is ever called concurrently on the same
// instance by this package.

// Cloud produces raw records, typically by polling a cloud provider API.
type Cloud interface {
	// Read returns a finite, non-restartable stream of records. The
	// plugin closes the channel when the stream is exhausted.
	Read() <-chan model.Record

	// Done releases plugin resources. Called exactly once, after the
	// stream returned by Read is exhausted. Must be safe to call even if
	// zero records were produced.
	Done() error
}

// Check evaluates records into derived event records.
type Check interface {
	// Eval returns zero or more event records derived from rec. A record
	// the check does not apply to yields an empty result and no error.
	Eval(rec model.Record) ([]model.Record, error)

	// Done releases plugin resources. Called exactly once, after the
	// worker observes the end-of-stream sentinel.
	Done() error
}

// Store persists records and event records.
type Store interface {
	Write(rec model.Record) error

	// Done flushes and releases plugin resources (connections, file
	// handles). Called exactly once, after the worker observes the
	// end-of-stream sentinel.
	Done() error
}
