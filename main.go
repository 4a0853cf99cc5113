// Package main is the entry point for the uniq CLI.
package main

import (
	"uniq/cli/cmd"
)

func main() {
	cmd.Execute()
}
