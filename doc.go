// Package linepipe supervises a child executable that speaks a line-oriented
// pipe protocol.
//
// A session spawns the child with its standard streams redirected, waits for
// it to print a readiness sentinel, sends each request as one line and reads
// exactly one response line back before sending the next. The child's stderr
// is drained concurrently. The verdict is successful only when the child
// exits with status zero and every response ends with the success suffix.
//
// # Basic Usage
//
//	result, err := linepipe.Run(ctx, []string{"hello", "world"},
//	    linepipe.WithExecutable("/usr/local/bin/translate"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(result.Summary())
//
// # Observing Lines
//
// Preamble, stderr, request and response lines can be echoed through an
// Observer. WriterSink writes each line atomically with a kind prefix:
//
//	sink := linepipe.NewWriterSink(os.Stdout)
//	result, err := linepipe.Run(ctx, requests,
//	    linepipe.WithExecutable(path),
//	    linepipe.WithObserver(sink),
//	)
//
// # Session Files
//
// A TOML session file can describe the child and its requests:
//
//	executable = "./translate"
//	handshake_timeout = "10s"
//	requests = ["This is what I type", "and more"]
//
//	result, err := linepipe.RunFile(ctx, "session.toml")
//
// # Error Handling
//
// Fatal failures abort the session and are returned as typed errors:
//
//	result, err := linepipe.Run(ctx, requests, linepipe.WithExecutable(path))
//	if err != nil {
//	    if hsErr, ok := errors.AsType[*linepipe.HandshakeError](err); ok {
//	        log.Fatalf("child never became ready (%s)", hsErr.Reason)
//	    }
//	    log.Fatal(err)
//	}
//
// A response stream that closes early is not fatal: the affected items are
// counted as missing and the session still produces a verdict.
package linepipe
