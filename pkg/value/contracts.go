package value

// Source is the pull-based decoding contract every format adapter
// implements for its input direction.
//
// Each call decodes and returns exactly one logical record, advancing
// the stream position. A nil Value with a nil error signals end of
// stream; once reported, every subsequent call must report it again —
// a Source never resumes producing values or starts erroring after a
// clean end of stream. After a non-nil error the Source is not
// guaranteed usable and callers must stop pulling from it.
//
// Calls are synchronous and may block on I/O; no partial record is ever
// returned.
type Source interface {
	Read() (*Value, error)
}

// Sink is the push-based encoding contract every format adapter
// implements for its output direction.
//
// Write encodes and emits one record; it may buffer internally (block
// compressed containers do). Close flushes buffered state and
// finalizes format-level trailers, returning any failure to the owner
// of the pipeline rather than aborting; it is idempotent, and a Sink
// must be closed exactly once even when the pipeline is cancelled
// mid-stream.
//
// Records are encoded in strict write order; an adapter never reorders
// or silently drops records.
type Sink interface {
	Write(v Value) error
	Close() error
}
