package main

import (
	"errors"
	"os"

	"github.com/yndnr/respkv/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		if !errors.Is(err, command.ErrReply) {
			command.PrintError("%v", err)
		}
		os.Exit(1)
	}
}
