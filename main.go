package main

import (
	"fmt"
	"os"

	"github.com/taoreta-ed/redes2-25-2/internal/cli"
)

// main - is the entry point of the application. It hands the arguments to the CLI.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
