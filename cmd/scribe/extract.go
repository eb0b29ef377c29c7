package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// newExtractCommand creates the extract subcommand
func newExtractCommand(cli *CLI) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "List the file operations embedded in a reply",
		Long: `Extract parses a saved assistant reply and prints the canonical
operation list: duplicates removed, full-write precedence applied, and
same-file edits merged. Reads stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			ops := cli.memo.Parse(text)
			cli.logger.Debug("extracted %d operations from %d bytes", len(ops), len(text))

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), ops)
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.printer.Plan(ops))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the operation list as JSON")
	return cmd
}

// readInput returns the reply text from the file argument, or from stdin
// when no file (or "-") is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
