// Package session runs one complete supervised session against a child.
//
// An Orchestrator spawns the child, drains its stderr concurrently, waits for
// the readiness handshake, exchanges every request strictly one at a time and
// then combines the child's exit status with the response tally into a
// Result. The request/response flow runs on the caller's goroutine; the log
// drain runs in an errgroup and is always joined before Run returns.
package session
