package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"filenest/internal/errors"
	"filenest/internal/log"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI and maps the outcome to an exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	defer log.Close()
	root := newRootCmd(a)
	root.SetArgs(withDefaultCommand(root, args))
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	code, silent := exitCode(err)
	if err != nil && !silent {
		fmt.Fprintln(stderr, a.theme.paint(a.theme.Error, "Error: "+err.Error()))
		if hint := errorHint(err); hint != "" {
			fmt.Fprintln(stderr, hint)
		}
	}
	return code
}

func errorHint(err error) string {
	switch {
	case errors.IsFileAccessDenied(err):
		return "Check that you can read and write the path above."
	case errors.IsDestinationExists(err):
		return "Pick another path or remove the existing file first."
	}
	return ""
}
