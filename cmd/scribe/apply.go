package main

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"scribe/internal/diff"
	"scribe/internal/executor"
	"scribe/internal/logging"
	"scribe/internal/parser"
)

// newApplyCommand creates the apply subcommand
func newApplyCommand(cli *CLI) *cobra.Command {
	var (
		dryRun      bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "apply [file]",
		Short: "Apply the file operations embedded in a reply",
		Long: `Apply extracts the canonical operation list from a reply and
materializes it against the workspace root. Operations on different files
run concurrently; operations on the same file keep their order. Failures
are reported per operation and never stop the rest.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interactive && !isTTY() {
				return errors.New("interactive mode requires a terminal")
			}

			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			ops := cli.memo.Parse(text)
			out := cmd.OutOrStdout()
			if len(ops) == 0 {
				fmt.Fprint(out, cli.printer.Plan(nil))
				return nil
			}

			results := cli.runExecutor(cmd, ops, dryRun, interactive)
			for _, res := range results {
				fmt.Fprint(out, cli.printer.ResultLine(res))
			}
			fmt.Fprint(out, cli.printer.Summary(results))

			if n := countFailed(results); n > 0 {
				return fmt.Errorf("%d of %d operations failed", n, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute previews without writing")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "confirm each change before writing")
	return cmd
}

func (cli *CLI) runExecutor(cmd *cobra.Command, ops []parser.Operation, dryRun, interactive bool) []executor.OpResult {
	opts := []executor.Option{
		executor.WithWorkers(cli.cfg.Workers),
		executor.WithDryRun(dryRun),
		executor.WithRenderer(diff.NewRenderer(cli.cfg.Color, cli.cfg.MaxPreviewLines)),
		executor.WithLogger(logging.NewComponentLogger("executor")),
	}
	if interactive {
		opts = append(opts, executor.WithConfirm(cli.confirmPrompt(cmd)))
	}
	return executor.New(cli.cfg.Root, opts...).Run(cmd.Context(), ops)
}

// confirmPrompt shows each pending change and asks before writing.
func (cli *CLI) confirmPrompt(cmd *cobra.Command) executor.ConfirmFunc {
	out := cmd.OutOrStdout()
	return func(op parser.Operation, preview *diff.Preview) executor.Decision {
		fmt.Fprintf(out, "\n%s %s\n", op.Type, op.Path)
		if preview != nil && preview.Unified != "" {
			fmt.Fprintln(out, preview.Unified)
		}

		prompt := promptui.Select{
			Label: fmt.Sprintf("Apply this change to %s", op.Path),
			Items: []string{"apply", "skip", "abort"},
		}
		idx, _, err := prompt.Run()
		if err != nil {
			// Ctrl+C and read errors both stop the run.
			return executor.DecisionAbort
		}
		switch idx {
		case 0:
			return executor.DecisionApply
		case 1:
			return executor.DecisionSkip
		default:
			return executor.DecisionAbort
		}
	}
}

func countFailed(results []executor.OpResult) int {
	n := 0
	for _, res := range results {
		if res.Status == executor.StatusFailed {
			n++
		}
	}
	return n
}
