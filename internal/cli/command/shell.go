package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/cli/output"
	"github.com/yndnr/respkv/internal/cli/repl"
	"github.com/yndnr/respkv/internal/client"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:   "shell",
		Usage:  "Start an interactive session",
		Action: runShell,
	}
}

// runShell is also the root action: with arguments it behaves like raw,
// without them it starts the REPL.
func runShell(c *cli.Context) error {
	if c.Command == nil || c.Command.Name != "shell" {
		if c.NArg() > 0 {
			return do(c, c.Args().Slice()...)
		}
	}

	cl, err := connect(c)
	if err != nil {
		return err
	}
	flags := ParseGlobalFlags(c)
	formatter := output.NewFormatter(flags.Output)

	exec := func(ctx context.Context, args []string) error {
		reqCtx, cancel := ctx, context.CancelFunc(func() {})
		if flags.Timeout > 0 {
			reqCtx, cancel = context.WithTimeout(ctx, flags.Timeout)
		}
		defer cancel()
		f, err := cl.Do(reqCtx, args...)
		var se client.ServerError
		if err != nil && !errors.As(err, &se) {
			return err
		}
		return formatter.Format(c.App.Writer, f)
	}

	r := repl.New(c.App.Reader, c.App.Writer, exec,
		repl.WithPrompt(fmt.Sprintf("%s> ", flags.Addr)),
		repl.WithHistory(repl.NewHistory(repl.DefaultHistoryFile())),
	)
	return r.Run(c.Context)
}
