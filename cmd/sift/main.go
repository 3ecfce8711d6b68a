// Command sift compiles search queries against a field schema and runs
// them against SQLite tables.
//
// Logging:
//   - The base logger is built by the root command from --verbose
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/sift/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	if err != nil && !cli.IsReported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cli.GetExitCode(err))
}
