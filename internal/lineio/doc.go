// Package lineio turns a child's blocking output stream into cancellable
// line reads.
//
// A Reader owns one goroutine that scans the stream and hands each line over
// an unbuffered channel. Callers read with a context and an optional timeout,
// so a stalled child surfaces as errors.ErrTimeout instead of hanging the
// caller. Lines are never reordered or dropped: a read that times out leaves
// the next line for the next caller.
package lineio
