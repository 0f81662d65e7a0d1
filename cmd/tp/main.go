// Package main is the entry point for the tp command-line tool.
package main

import (
	"os"

	"github.com/tagsplorer/tagsplorer/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
