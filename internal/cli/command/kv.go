package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value of a key",
		ArgsUsage: "<key>",
		Action: exactArgs(1, func(c *cli.Context) error {
			return do(c, "get", c.Args().Get(0))
		}),
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set a key to a string value",
		ArgsUsage: "<key> <value>",
		Action: exactArgs(2, func(c *cli.Context) error {
			return do(c, "set", c.Args().Get(0), c.Args().Get(1))
		}),
	}
}

// HGetCommand returns the hget command.
func HGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "hget",
		Usage:     "Get a field of a hash",
		ArgsUsage: "<key> <field>",
		Action: exactArgs(2, func(c *cli.Context) error {
			return do(c, "hget", c.Args().Get(0), c.Args().Get(1))
		}),
	}
}

// HSetCommand returns the hset command.
func HSetCommand() *cli.Command {
	return &cli.Command{
		Name:      "hset",
		Usage:     "Set a field of a hash",
		ArgsUsage: "<key> <field> <value>",
		Action: exactArgs(3, func(c *cli.Context) error {
			return do(c, "hset", c.Args().Get(0), c.Args().Get(1), c.Args().Get(2))
		}),
	}
}

// HGetAllCommand returns the hgetall command.
func HGetAllCommand() *cli.Command {
	return &cli.Command{
		Name:      "hgetall",
		Usage:     "Get every field of a hash",
		ArgsUsage: "<key>",
		Action: exactArgs(1, func(c *cli.Context) error {
			return do(c, "hgetall", c.Args().Get(0))
		}),
	}
}

// RawCommand sends its arguments verbatim, for commands the CLI has no
// dedicated subcommand for.
func RawCommand() *cli.Command {
	return &cli.Command{
		Name:      "raw",
		Usage:     "Send arbitrary arguments as one request",
		ArgsUsage: "<name> [args...]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("usage: %s raw %s", c.App.Name, c.Command.ArgsUsage)
			}
			return do(c, c.Args().Slice()...)
		},
	}
}
