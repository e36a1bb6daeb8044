package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	exitCode := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// run is the main entry point for the CLI, separated for testing
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runContext(ctx, args, stdin, stdout, stderr)
}

// runContext executes the command tree until ctx is cancelled
func runContext(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := newApp(stdin, stdout, stderr).rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitCodeSuccess
	}

	var cliErr *cliError
	if errors.As(err, &cliErr) {
		if !cliErr.reported {
			fmt.Fprintln(stderr, cliErr.Error())
		}
		return cliErr.code
	}

	// flag parsing and unknown commands
	fmt.Fprintf(stderr, FmtErrorWithCause, CLIName, err)
	fmt.Fprintln(stderr, root.UsageString())
	return ExitCodeUsageError
}

// cliError carries the exit code of a failed command
type cliError struct {
	code     int
	msg      string
	err      error
	reported bool
}

func (e *cliError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *cliError) Unwrap() error {
	return e.err
}

func newCLIError(code int, msg string, err error) *cliError {
	return &cliError{code: code, msg: msg, err: err}
}

func usageError(msg string) *cliError {
	return newCLIError(ExitCodeUsageError, msg, nil)
}
