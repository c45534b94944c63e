/*
typeahead builds a completion vocabulary from a scripture corpus and drives
live completion, autocorrect and whitespace handling for an editor.

Usage:

	typeahead [command] [flags]

Commands:

	index    scan the corpus and print the ranked vocabulary
	serve    run the msgpack IPC server on stdin/stdout
	cli      interactive debug session in the terminal
	config   show, check or rebuild the config file
	version  print version info

Global flags:

	-d, --debug    toggle debug logging
	-c, --config   path to a custom typeahead.toml
*/
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "typeahead"
	gh      = "https://github.com/bastiangx/typeahead"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, "use -h or --help to see available options")
		os.Exit(1)
	}
}
