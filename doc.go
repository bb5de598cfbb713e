// Package sluice is a format-agnostic data interchange hub: one
// universal value representation plus streaming Source and Sink
// contracts, so any supported serialization format converts to any
// other by composing one format's Source with another format's Sink,
// without N-squared converters.
//
// # Architecture
//
// Leaves first:
//
//   - pkg/sluiceerrors: the shared failure taxonomy every adapter
//     wraps into.
//   - pkg/value: the Value tagged union and the Source/Sink contracts.
//   - pkg/formats/avro: Source/Sink over the Avro object container
//     format (schema-typed, binary, block-compressed).
//   - pkg/formats/json: Source/Sink over streaming JSON (schema-less,
//     text), with compact, indented and colorized-readable output.
//   - pkg/pipeline: the record pump connecting a Source to a Sink.
//
// # Quick start
//
// Convert an Avro container to line-delimited JSON:
//
//	src, err := avro.NewSource(in)
//	if err != nil {
//	    return err
//	}
//	sink := json.NewCompactSink(out)
//	records, err := pipeline.Run(src, sink)
//
// Conversions are lossy where the target's type system is smaller than
// the model: Avro rejects out-of-range unsigned integers and
// non-string map keys explicitly, JSON silently widens numerics and
// stringifies keys. Adapters never truncate silently; a value that
// cannot be represented is either coerced per the adapter's documented
// mapping or fails with a format-category error.
package sluice
