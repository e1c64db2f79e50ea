// Package command provides the respkv-cli command definitions.
//
// It uses urfave/cli/v2. Each data command sends one request and prints
// the reply with the formatter chosen by --output. Without a subcommand
// the CLI starts an interactive shell.
package command
