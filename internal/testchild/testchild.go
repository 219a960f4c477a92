// Package testchild is a scriptable pipe-protocol child used by tests.
//
// A test binary re-executes itself as the child: its TestMain calls Main when
// Enabled reports true. Behaviour is driven by environment variables so every
// scenario runs a real process with real pipes.
package testchild

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Environment variables controlling the child.
const (
	EnvEnable      = "LINEPIPE_TESTCHILD"
	EnvPreamble    = "LINEPIPE_TESTCHILD_PREAMBLE"     // lines separated by "|"
	EnvNoReady     = "LINEPIPE_TESTCHILD_NO_READY"     // exit before the sentinel
	EnvStall       = "LINEPIPE_TESTCHILD_STALL"        // sleep instead of the sentinel
	EnvFailOn      = "LINEPIPE_TESTCHILD_FAIL_ON"      // requests answered with "_fail", "|"-separated
	EnvExitCode    = "LINEPIPE_TESTCHILD_EXIT_CODE"    // exit code after stdin closes
	EnvLogLines    = "LINEPIPE_TESTCHILD_LOG_LINES"    // stderr lines at startup and per request
	EnvStopAfter   = "LINEPIPE_TESTCHILD_STOP_AFTER"   // exit after this many responses
	EnvRequireFlag = "LINEPIPE_TESTCHILD_REQUIRE_FLAG" // exit 64 unless this argument is present
	EnvSlowReply   = "LINEPIPE_TESTCHILD_SLOW_REPLY"   // delay before each response
	EnvPad         = "LINEPIPE_TESTCHILD_PAD"          // bytes of padding in one preamble line and every response
)

// Enabled reports whether the current process should act as the child.
func Enabled() bool {
	return os.Getenv(EnvEnable) == "1"
}

// Env returns the environment entries enabling the child with extra settings.
func Env(settings map[string]string) map[string]string {
	env := map[string]string{EnvEnable: "1"}
	for k, v := range settings {
		env[k] = v
	}

	return env
}

// Main runs the child protocol and exits the process.
func Main() {
	os.Exit(run())
}

func run() int {
	if flag := os.Getenv(EnvRequireFlag); flag != "" && !slices.Contains(os.Args[1:], flag) {
		fmt.Fprintf(os.Stderr, "missing required flag %s\n", flag)

		return 64
	}

	logLines, _ := strconv.Atoi(os.Getenv(EnvLogLines))
	emitLogs(logLines, "startup")

	if preamble := os.Getenv(EnvPreamble); preamble != "" {
		for _, line := range strings.Split(preamble, "|") {
			fmt.Println(line)
		}
	}

	padSize, _ := strconv.Atoi(os.Getenv(EnvPad))
	pad := strings.Repeat("x", padSize)

	if pad != "" {
		fmt.Println(pad)
	}

	if os.Getenv(EnvNoReady) == "1" {
		return 0
	}

	if os.Getenv(EnvStall) == "1" {
		time.Sleep(time.Hour)
	}

	fmt.Println("READY")

	failOn := strings.Split(os.Getenv(EnvFailOn), "|")
	stopAfter, _ := strconv.Atoi(os.Getenv(EnvStopAfter))
	slowReply, _ := time.ParseDuration(os.Getenv(EnvSlowReply))

	replies := 0
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		if stopAfter > 0 && replies >= stopAfter {
			return 0
		}

		emitLogs(logLines, "request "+strconv.Itoa(replies))

		if slowReply > 0 {
			time.Sleep(slowReply)
		}

		if slices.Contains(failOn, line) {
			fmt.Println(line + pad + "_fail")
		} else {
			fmt.Println(line + pad + "_ok")
		}

		replies++
	}

	code, _ := strconv.Atoi(os.Getenv(EnvExitCode))

	return code
}

func emitLogs(n int, phase string) {
	for i := range n {
		fmt.Fprintf(os.Stderr, "INFO %s log %d\n", phase, i)
	}
}
