// Package cli locates the child executable and builds its command line and
// environment.
//
// # Discovery
//
// The Discoverer interface resolves the executable to launch:
//
//	discoverer := cli.NewDiscoverer(&cli.Config{
//	    Executable: "",           // Optional explicit path or name
//	    Logger:     slog.Default(),
//	})
//	path, err := discoverer.Discover(ctx)
//
// Discovery searches in the following order:
//  1. Config.Executable (a bare name is looked up in PATH)
//  2. The LINEPIPE_EXECUTABLE environment variable
//  3. Config.SearchPaths, in order
//
// # Command Building
//
//	args := cli.BuildArgs(options)
//	env := cli.BuildEnvironment(options, sessionID)
package cli
