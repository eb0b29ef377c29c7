package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/output"
	"scribe/internal/parser"
)

// CLI holds flag state and the resolved configuration shared by every
// subcommand.
type CLI struct {
	configPath string
	rootDir    string
	logLevel   string
	noColor    bool
	quiet      bool
	verbose    bool
	workers    int

	cfg     config.Config
	memo    *parser.Memo
	logger  logging.Logger
	printer *output.Printer
}

// isTTY checks if the current environment has a TTY available
func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func stdoutIsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// NewRootCommand creates the root cobra command
func NewRootCommand() *cobra.Command {
	cli := &CLI{}

	rootCmd := &cobra.Command{
		Use:   "scribe",
		Short: "Turn assistant replies into applied file edits",
		Long: `scribe reads the streaming text an AI coding assistant produces,
extracts the file operations embedded in it, and applies them to a
workspace as previewable, confirmable edits.

EXAMPLES:
  scribe extract reply.md               # List the operations in a saved reply
  scribe extract --json reply.md        # Same list as JSON
  scribe apply reply.md                 # Apply the operations
  scribe apply --dry-run reply.md       # Preview without writing
  cat reply.md | scribe stream          # Tokenize a reply as it arrives
  cat reply.md | scribe stream --apply  # ...and apply it afterwards`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.initialize()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cli.configPath, "config", "c", "", "config file (default ~/.scribe/config.yaml)")
	flags.StringVarP(&cli.rootDir, "root", "C", "", "workspace root for file operations")
	flags.StringVar(&cli.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.BoolVar(&cli.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&cli.quiet, "quiet", "q", false, "only failures, errors, and the final summary")
	flags.BoolVarP(&cli.verbose, "verbose", "v", false, "show full descriptions and diff bodies")
	flags.IntVar(&cli.workers, "workers", 0, "concurrent file groups when applying (0 = config value)")

	// Flags double as SCRIBE_* environment variables: SCRIBE_ROOT,
	// SCRIBE_LOG_LEVEL, SCRIBE_NO_COLOR, and so on.
	viper.SetEnvPrefix("SCRIBE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, name := range []string{"root", "log-level", "no-color", "quiet", "verbose", "workers"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(newExtractCommand(cli))
	rootCmd.AddCommand(newApplyCommand(cli))
	rootCmd.AddCommand(newStreamCommand(cli))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// initialize resolves configuration in precedence order: flags and SCRIBE_*
// environment variables override the config file, which overrides defaults.
func (cli *CLI) initialize() error {
	cfg, err := config.NewManager(cli.configPath).Load()
	if err != nil {
		return err
	}

	if v := viper.GetString("root"); v != "" {
		cfg.Root = v
	}
	if v := viper.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if viper.GetBool("no-color") {
		cfg.Color = false
	}
	if v := viper.GetInt("workers"); v > 0 {
		cfg.Workers = v
	}
	config.Normalize(&cfg)

	if err := logging.Configure(cfg.LogFile, logging.ParseLevel(cfg.LogLevel)); err != nil {
		return err
	}

	cli.cfg = cfg
	cli.quiet = cli.quiet || viper.GetBool("quiet")
	cli.verbose = cli.verbose || viper.GetBool("verbose")
	cli.memo = parser.NewMemo(cfg.CacheSize)
	cli.logger = logging.NewComponentLogger("cli")
	cli.printer = output.NewPrinter(output.Options{
		Verbose:  cli.verbose,
		Quiet:    cli.quiet,
		Color:    cfg.Color,
		Markdown: cfg.Markdown && stdoutIsTTY(),
	})
	return nil
}
