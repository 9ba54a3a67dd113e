package main

import (
	"os"

	flags "github.com/jessevdk/go-flags"

	"github.com/baditaflorin/go_status_dashboard/internal/cli/command"
)

func main() {
	cmd := command.Commands{}
	_, err := flags.Parse(&cmd)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
