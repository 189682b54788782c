// Command pdfbatch converts a directory of PDFs to structured output with
// the MinerU toolchain.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/pdfbatch/internal/cli"
	"github.com/rshade/pdfbatch/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and returns the process exit code. Cobra
// has already printed the error by the time it returns.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version.GetVersion())
	return exitCode(root.ExecuteContext(ctx))
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}
