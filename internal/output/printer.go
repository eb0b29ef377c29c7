// Package output formats extraction plans, apply results, and streaming
// progress for terminal display.
package output

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"scribe/internal/executor"
	"scribe/internal/parser"
	"scribe/internal/stream"
	"scribe/internal/tokenutil"
)

// MarkdownRenderer renders markdown for terminal display.
type MarkdownRenderer interface {
	Render(string) (string, error)
}

// Options control how much a Printer emits and how it is styled.
type Options struct {
	// Verbose shows full descriptions and diff bodies instead of one-line
	// summaries.
	Verbose bool
	// Quiet keeps only failures, errors, and the final summary.
	Quiet    bool
	Color    bool
	Markdown bool
}

// Printer formats CLI output. Methods return strings so callers decide the
// destination; an empty string means "print nothing".
type Printer struct {
	opts Options
	md   MarkdownRenderer
}

const inlineDescriptionLimit = 80

// NewPrinter builds a Printer, constructing a glamour renderer when
// markdown output is requested.
func NewPrinter(opts Options) *Printer {
	p := &Printer{opts: opts}
	if opts.Markdown {
		p.md = buildMarkdownRenderer()
	}
	if opts.Color {
		lipgloss.SetColorProfile(lipgloss.NewRenderer(os.Stdout).ColorProfile())
	}
	return p
}

// NewPrinterWithMarkdown lets tests supply a lightweight markdown renderer.
func NewPrinterWithMarkdown(opts Options, md MarkdownRenderer) *Printer {
	return &Printer{opts: opts, md: md}
}

func buildMarkdownRenderer() MarkdownRenderer {
	options := []glamour.TermRendererOption{
		glamour.WithWordWrap(100),
		glamour.WithPreservedNewLines(),
	}

	if value, ok := os.LookupEnv("GLAMOUR_STYLE"); ok && value != "" {
		options = append(options, glamour.WithEnvironmentConfig())
	} else if term.IsTerminal(int(os.Stdout.Fd())) {
		options = append(options, glamour.WithAutoStyle())
	} else {
		options = append(options, glamour.WithStandardStyle("dark"))
	}

	md, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return nil
	}
	return md
}

// Prose returns streamed prose unchanged, or nothing in quiet mode.
func (p *Printer) Prose(text string) string {
	if p.opts.Quiet {
		return ""
	}
	return text
}

// Markdown renders a complete markdown document. Without a renderer, or when
// rendering fails, the raw text passes through.
func (p *Printer) Markdown(content string) string {
	if p.opts.Quiet {
		return ""
	}
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if p.md == nil {
		return content
	}
	rendered, err := p.md.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}

// OperationLine reports one operation the tokenizer completed mid-stream.
func (p *Printer) OperationLine(view *stream.OperationView) string {
	if p.opts.Quiet || view == nil {
		return ""
	}

	dotStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00")).Bold(true)
	nameStyle := lipgloss.NewStyle().Bold(true)

	line := fmt.Sprintf("%s %s %s", p.paint(dotStyle, "●"), p.paint(nameStyle, string(view.Type)), view.Path)
	if desc := strings.TrimSpace(view.Description); desc != "" {
		if !p.opts.Verbose {
			desc = truncateInline(desc, inlineDescriptionLimit)
		}
		line += p.paint(grayStyle(), "  "+desc)
	}
	return line + "\n"
}

// Plan lists extracted operations in execution order.
func (p *Printer) Plan(ops []parser.Operation) string {
	if p.opts.Quiet {
		return ""
	}
	if len(ops) == 0 {
		return p.paint(grayStyle(), "no file operations found") + "\n"
	}

	var b strings.Builder
	head := fmt.Sprintf("%d %s", len(ops), pluralize("operation", len(ops)))
	b.WriteString(p.paint(lipgloss.NewStyle().Bold(true), head))
	b.WriteString("\n")
	for i, op := range ops {
		b.WriteString(fmt.Sprintf("%2d. %s %s", i+1, op.Type, op.Path))
		if desc := strings.TrimSpace(op.Description); desc != "" {
			if !p.opts.Verbose {
				desc = truncateInline(desc, inlineDescriptionLimit)
			}
			b.WriteString(p.paint(grayStyle(), "  "+desc))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ResultLine formats one apply outcome. Quiet mode keeps only failures.
func (p *Printer) ResultLine(res executor.OpResult) string {
	if p.opts.Quiet && res.Status != executor.StatusFailed {
		return ""
	}

	var glyph string
	switch res.Status {
	case executor.StatusApplied:
		glyph = p.paint(lipgloss.NewStyle().Foreground(lipgloss.Color("10")), "✓")
	case executor.StatusFailed:
		glyph = p.paint(lipgloss.NewStyle().Foreground(lipgloss.Color("9")), "✗")
	case executor.StatusPlanned:
		glyph = p.paint(grayStyle(), "→")
	default:
		glyph = p.paint(grayStyle(), "⊘")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s %s", glyph, res.Op.Type, res.Op.Path))
	if res.Overwrote {
		b.WriteString(p.paint(grayStyle(), " (overwrote)"))
	}
	if res.Err != nil {
		b.WriteString(p.paint(lipgloss.NewStyle().Foreground(lipgloss.Color("9")), fmt.Sprintf("  %v", res.Err)))
	} else if res.Preview != nil {
		b.WriteString(p.paint(grayStyle(), "  "+res.Preview.Summary()))
	}
	b.WriteString("\n")

	if p.opts.Verbose && res.Preview != nil && res.Preview.Unified != "" {
		for _, line := range strings.Split(strings.TrimRight(res.Preview.Unified, "\n"), "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Summary reports run totals. It is emitted even in quiet mode.
func (p *Printer) Summary(results []executor.OpResult) string {
	var applied, planned, skipped, failed int
	for _, res := range results {
		switch res.Status {
		case executor.StatusApplied:
			applied++
		case executor.StatusPlanned:
			planned++
		case executor.StatusSkipped:
			skipped++
		case executor.StatusFailed:
			failed++
		}
	}

	parts := []string{fmt.Sprintf("%d applied", applied)}
	if planned > 0 {
		parts = append(parts, fmt.Sprintf("%d planned", planned))
	}
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", skipped))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	text := strings.Join(parts, " | ")

	if failed > 0 {
		return p.paint(lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true), "✗ "+text) + "\n"
	}
	return p.paint(lipgloss.NewStyle().Foreground(lipgloss.Color("10")), "✓ Done | "+text) + "\n"
}

// StreamStats reports chunk accounting after a stream run.
func (p *Printer) StreamStats(meter *tokenutil.Meter) string {
	if p.opts.Quiet || meter == nil {
		return ""
	}
	return p.paint(grayStyle(), "━━━ "+meter.Summary()) + "\n"
}

// Error formats a phase failure. It is emitted even in quiet mode.
func (p *Printer) Error(phase string, err error) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	return p.paint(style, fmt.Sprintf("✗ Error in %s: %v", phase, err)) + "\n"
}

// paint applies style only when color output is enabled.
func (p *Printer) paint(style lipgloss.Style, s string) string {
	if !p.opts.Color {
		return s
	}
	return style.Render(s)
}

func grayStyle() lipgloss.Style {
	// Brighter gray that works on both light and dark backgrounds.
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
}

func truncateInline(preview string, limit int) string {
	if limit <= 0 {
		return preview
	}
	if utf8.RuneCountInString(preview) <= limit {
		return preview
	}
	runes := []rune(preview)
	if limit == 1 {
		return string(runes[0])
	}
	return string(runes[:limit-1]) + "…"
}

func pluralize(word string, count int) string {
	if count == 1 {
		return word
	}
	return word + "s"
}
