package main

import (
	"fmt"
	"os"

	"scribe/internal/logging"
)

func main() {
	rootCmd := NewRootCommand()
	err := rootCmd.Execute()
	_ = logging.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
