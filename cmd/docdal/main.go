// Command docdal translates query files into MongoDB documents and runs
// them through entity-aware data access objects.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/docdal/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := cli.NewRootCommand()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		// Commands report through the output formatter; only errors that
		// escaped it (flag parsing, PersistentPreRunE) are printed here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
