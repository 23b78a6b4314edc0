package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

var (
	// Version is set at build time via -ldflags "-X main.Version=...".
	Version = "dev"
	Commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()

	if err == nil {
		return
	}
	var exit *exitError
	if errors.As(err, &exit) {
		os.Exit(exit.code)
	}
	slog.Error("gqlsql error", slog.String("error", err.Error()))
	os.Exit(1)
}

func run(ctx context.Context, args []string) error {
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	defer a.close(ctx)

	root := newRootCmd(a)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// exitError ends the process with code after the command has already
// reported the failure on stdout.
type exitError struct {
	code   int
	reason string
}

func (e *exitError) Error() string { return e.reason }
