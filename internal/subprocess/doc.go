// Package subprocess spawns the child executable with all three standard
// streams redirected and collects its exit status.
//
// A Supervisor resolves the executable, builds its arguments and
// environment, and starts it. The resulting Child hands out each stream
// handle exactly once and can be waited on exactly once.
package subprocess
