package main

import (
	"os"
)

func main() {
	cmd := newRootCommand(newCLI(os.Stdin, os.Stdout, os.Stderr))
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
