package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/stream"
	"scribe/internal/tokenutil"
)

const defaultChunkSize = 4096

// newStreamCommand creates the stream subcommand
func newStreamCommand(cli *CLI) *cobra.Command {
	var (
		chunkSize int
		apply     bool
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Tokenize a reply from stdin as it arrives",
		Long: `Stream consumes stdin incrementally, separating prose from file
operation blocks. Prose is echoed the moment it can no longer be part of
a marker; each completed operation is announced. With --apply, the
canonical operation list is extracted from the full reply and applied
once the stream ends.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.runStream(cmd, chunkSize, apply, dryRun)
		},
	}

	cmd.Flags().IntVar(&chunkSize, "chunk-size", defaultChunkSize, "bytes read per chunk")
	cmd.Flags().BoolVar(&apply, "apply", false, "apply extracted operations when the stream ends")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "with --apply, preview without writing")
	return cmd
}

func (cli *CLI) runStream(cmd *cobra.Command, chunkSize int, apply, dryRun bool) error {
	if chunkSize < 1 {
		chunkSize = defaultChunkSize
	}
	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()

	tok := stream.NewTokenizer()
	var meter tokenutil.Meter
	var full strings.Builder

	// On a markdown-capable terminal, prose accumulates and renders once
	// the stream ends; otherwise it echoes as it arrives.
	renderProse := cli.cfg.Markdown && stdoutIsTTY()
	var proseBuf strings.Builder
	emitProse := func(text string) {
		if renderProse {
			proseBuf.WriteString(text)
			return
		}
		fmt.Fprint(out, cli.printer.Prose(text))
	}

	buf := make([]byte, chunkSize)
	for {
		n, readErr := in.Read(buf)
		if n > 0 {
			chunk := string(buf[:n])
			full.WriteString(chunk)
			meter.Add(chunk)

			res := tok.Feed(chunk)
			emitProse(res.Text)
			for _, view := range res.Completed {
				fmt.Fprint(out, cli.printer.OperationLine(view))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read stream: %w", readErr)
		}
	}
	emitProse(tok.Finish())
	if renderProse {
		fmt.Fprint(out, cli.printer.Markdown(proseBuf.String()))
	}
	fmt.Fprint(out, cli.printer.StreamStats(&meter))
	cli.logger.Debug("stream ended: %s", meter.Summary())

	if !apply {
		return nil
	}

	// The live views are unvalidated; the authoritative list comes from
	// re-extracting the full reply.
	ops := cli.memo.Parse(full.String())
	if len(ops) == 0 {
		fmt.Fprint(out, cli.printer.Plan(nil))
		return nil
	}
	results := cli.runExecutor(cmd, ops, dryRun, false)
	for _, res := range results {
		fmt.Fprint(out, cli.printer.ResultLine(res))
	}
	fmt.Fprint(out, cli.printer.Summary(results))

	if n := countFailed(results); n > 0 {
		return fmt.Errorf("%d of %d operations failed", n, len(results))
	}
	return nil
}
