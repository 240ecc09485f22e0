package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"streamplot/cmd/streamplot/ui"
	"streamplot/internal/config"
	"streamplot/internal/fetch"
	"streamplot/internal/logging"
	"streamplot/internal/schema"
)

var (
	// Global flags
	cfgPath     string
	xColumn     string
	epochColumn string
	refresh     time.Duration
	watchPath   string
	themeName   string
	logFile     string
	logLevel    string
	verbose     bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "streamplot [flags] [-- command ...]",
	Short: "Live line charts in the terminal from streaming CSV",
	Long: `streamplot draws a braille line chart in the terminal and keeps it
updated as new data arrives.

Rows come from stdin, or from a command given after --, which is run
once per fetch pass. The first line of each block is the header naming
the series; -x claims one column as the x axis and -e claims one as an
epoch label. Columns are picked by title or by zero-based index.

Modes:
  stream    append rows to the chart as they arrive (default)
  batch     one dataset per blank-line-delimited block (-e selects this)
  snapshot  re-read the whole input on a timer (-r selects this)

Examples:
  tail -f metrics.csv | streamplot -x time
  streamplot -e run -- cat results.csv
  streamplot -r 2s -w data.csv -- cat data.csv`,
	Args: cobra.ArbitraryArgs,
	RunE: runPlot,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.Flags().StringVarP(&xColumn, "x-column", "x", "", "Column holding x axis labels (title or zero-based index)")
	rootCmd.Flags().StringVarP(&epochColumn, "epoch-column", "e", "", "Column holding the epoch label (selects batch mode)")
	rootCmd.Flags().DurationVarP(&refresh, "refresh", "r", 0, "Re-read the input on this interval (selects snapshot mode)")
	rootCmd.Flags().StringVarP(&watchPath, "watch", "w", "", "Run a fetch pass whenever this file changes")
	rootCmd.Flags().StringVar(&cfgPath, "config", "", "Config file (default ~/.config/streamplot/config.yaml)")
	rootCmd.Flags().StringVar(&themeName, "theme", "", "Color theme: dark, light or auto")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file, the terminal stays clean")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level debug")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// settings is everything runPlot needs once flags and the config file
// have been merged.
type settings struct {
	fetch    fetch.Options
	ui       ui.Options
	watch    string
	logLevel string
	logFile  string
}

// resolveSettings layers the config file under the command line.
// changed reports whether a flag was given explicitly; file values
// apply only when it was not.
func resolveSettings(cfg *config.Config, args []string, changed func(string) bool) settings {
	var s settings

	command := args
	if len(command) == 0 && cfg.Input.Command != "" {
		command = []string{cfg.Input.Command}
	}

	x := xColumn
	if !changed("x-column") && cfg.Input.XColumn != "" {
		x = cfg.Input.XColumn
	}
	epoch := epochColumn
	if !changed("epoch-column") && cfg.Input.EpochColumn != "" {
		epoch = cfg.Input.EpochColumn
	}
	every := refresh
	if !changed("refresh") {
		if r := cfg.GetRefresh(); r > 0 {
			every = r
		}
	}
	s.watch = watchPath
	if !changed("watch") && cfg.Input.Watch != "" {
		s.watch = cfg.Input.Watch
	}

	s.fetch = fetch.Options{
		Command: command,
		X:       schema.ParseSelector(x),
		Epoch:   schema.ParseSelector(epoch),
		Refresh: every,
	}

	theme := themeName
	if !changed("theme") && cfg.UI.Theme != "" {
		theme = cfg.UI.Theme
	}
	title := "stdin"
	if len(command) > 0 {
		title = strings.Join(command, " ")
	}
	s.ui = ui.Options{
		Title:   title,
		Theme:   ui.ThemeByName(theme),
		History: cfg.UI.History,
		Refresh: every,
	}

	s.logLevel = logLevel
	if !changed("log-level") && cfg.Logging.Level != "" {
		s.logLevel = cfg.Logging.Level
	}
	if verbose {
		s.logLevel = "debug"
	}
	s.logFile = logFile
	if !changed("log-file") && cfg.Logging.File != "" {
		s.logFile = cfg.Logging.File
	}

	return s
}

func runPlot(cmd *cobra.Command, args []string) error {
	path := cfgPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	s := resolveSettings(cfg, args, cmd.Flags().Changed)

	logger, err = logging.New(s.logLevel, s.logFile)
	if err != nil {
		return err
	}

	loop := fetch.NewLoop(s.fetch, logger)
	defer loop.Stop()
	logger.Info("starting",
		zap.Strings("command", s.fetch.Command),
		zap.Stringer("mode", loop.Mode()),
		zap.Duration("refresh", s.fetch.Refresh))

	if s.watch != "" {
		watcher, err := fetch.NewWatcher(s.watch, loop.Fetch, logger)
		if err != nil {
			return fmt.Errorf("failed to watch %s: %w", s.watch, err)
		}
		if err := watcher.Start(); err != nil {
			return fmt.Errorf("failed to watch %s: %w", s.watch, err)
		}
		defer watcher.Stop()
	}

	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if len(s.fetch.Command) == 0 {
		// Stdin carries the data, so key input must come from the
		// terminal itself.
		tty, err := openTTY()
		if err != nil {
			return fmt.Errorf("stdin carries data and no terminal is available for key input: %w", err)
		}
		defer tty.Close()
		progOpts = append(progOpts, tea.WithInput(tty))
	}

	p := tea.NewProgram(ui.NewModel(loop, s.ui), progOpts...)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}
