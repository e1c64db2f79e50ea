package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv/internal/cli/output"
	"github.com/yndnr/respkv/internal/client"
	"github.com/yndnr/respkv/internal/infra/buildinfo"
)

// ErrReply is returned after an error reply has been printed, so main
// can exit non-zero without printing it again.
var ErrReply = errors.New("server replied with an error")

const metaClient = "client"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "respkv-cli",
		Usage:   "respkv command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			SetCommand(),
			HGetCommand(),
			HSetCommand(),
			HGetAllCommand(),
			RawCommand(),
			BenchCommand(),
			ShellCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
		After: func(c *cli.Context) error {
			if cl, ok := c.App.Metadata[metaClient].(*client.Client); ok {
				delete(c.App.Metadata, metaClient)
				return cl.Close()
			}
			return nil
		},
		Action: runShell,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "addr",
			Aliases: []string{"a"},
			Usage:   "server address: host:port, or a unix socket path",
			EnvVars: []string{"RESPKV_ADDR"},
			Value:   "127.0.0.1:6379",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "dial and per-request timeout",
			Value:   5 * time.Second,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: text, json",
			EnvVars: []string{"RESPKV_OUTPUT"},
			Value:   string(output.FormatText),
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Addr    string
	Timeout time.Duration
	Output  output.Format
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, _ := output.ParseFormat(c.String("output"))
	return &GlobalFlags{
		Addr:    c.String("addr"),
		Timeout: c.Duration("timeout"),
		Output:  format,
	}
}

// connect returns the connection shared by the commands of one run,
// dialing it on first use.
func connect(c *cli.Context) (*client.Client, error) {
	if cl, ok := c.App.Metadata[metaClient].(*client.Client); ok {
		return cl, nil
	}
	flags := ParseGlobalFlags(c)
	cl, err := client.Dial(c.Context, flags.Addr, client.Options{DialTimeout: flags.Timeout})
	if err != nil {
		return nil, err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[metaClient] = cl
	return cl, nil
}

func requestContext(c *cli.Context) (context.Context, context.CancelFunc) {
	if d := c.Duration("timeout"); d > 0 {
		return context.WithTimeout(c.Context, d)
	}
	return context.WithCancel(c.Context)
}

// do sends args and prints the reply. Error replies are printed like any
// other reply and reported as ErrReply.
func do(c *cli.Context, args ...string) error {
	cl, err := connect(c)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	f, err := cl.Do(ctx, args...)
	var se client.ServerError
	if err != nil && !errors.As(err, &se) {
		return err
	}
	if ferr := output.NewFormatter(ParseGlobalFlags(c).Output).Format(c.App.Writer, f); ferr != nil {
		return ferr
	}
	if se != "" {
		return ErrReply
	}
	return nil
}

// exactArgs wraps an action with an argument count check.
func exactArgs(n int, action cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.NArg() != n {
			return fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
		}
		return action(c)
	}
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
