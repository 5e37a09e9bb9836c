// Command transactor applies the operations of a CSV file and prints the
// resulting account states to stdout.
//
//	transactor transactions.csv > accounts.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/LerianStudio/lib-transactor/transactor"
	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/stream"
	tzap "github.com/LerianStudio/lib-transactor/transactor/zap"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	logger, err := tzap.New(tzap.Config{
		Environment:     tzap.ParseEnvironment(transactor.GetenvOrDefault("ENV_NAME", "production")),
		Level:           transactor.GetenvOrDefault("LOG_LEVEL", "warn"),
		OTelLibraryName: "transactor",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(exitError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, logger)

	stop()

	_ = logger.Sync(context.Background())

	os.Exit(code)
}

// run parses args, processes the named file into stdout and returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, logger log.Logger) int {
	fs := flag.NewFlagSet("transactor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: transactor <transactions.csv>")
	}

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	path := fs.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(stderr, "transactor: %v\n", err)
		return exitError
	}
	defer f.Close()

	if _, err := stream.Process(ctx, f, stdout, stream.WithLogger(logger.With(log.String("file", path)))); err != nil {
		fmt.Fprintf(stderr, "transactor: %v\n", err)
		return exitError
	}

	return exitOK
}
