package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/pprof"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"corescope/internal/logging"
	"corescope/internal/session"
	"corescope/internal/target"
)

// addSessionFlags registers the flags configFromFlags reads.
func addSessionFlags(fs *pflag.FlagSet) {
	fs.StringP("catalog", "C", "", "Structure catalog (JSON or YAML)")
	fs.IntP("pid", "p", 0, "Inspect a live process")
	fs.StringP("exe", "e", "", "Executable to load symbols from")
	fs.IntP("bitness", "b", 0, "Address width: 32, 64, or 0 to detect")
	fs.Duration("timeout", target.DefaultReadTimeout, "Timeout for each live process read")
	fs.BoolP("debug", "d", false, "Debug")
}

func init() {
	addSessionFlags(rootCmd.PersistentFlags())

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("no-tui", "n", false, "Read commands line by line instead of opening the console")
	rootCmd.Flags().String("cpuprofile", "", "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")

	rootCmd.AddCommand(runCmd)
}

var rootCmd = &cobra.Command{
	Use:   "corescope [core-file]",
	Short: "Inspect runtime structures in core dumps and live processes",
	Long: `Corescope interprets raw target memory against a structure catalog.
It walks hash tables, lists structure constants and decodes structures in a
core dump or a running process without source-level debug symbols.`,
	Example: `
# Open the console on a core dump
corescope -C j9ddr.yaml core.20240101.1234

# Attach to a live process with a longer read timeout
corescope -C j9ddr.yaml --pid 4242 --timeout 5s

# Feed commands from a script
corescope -C j9ddr.yaml -n core.1234 < commands.txt
  `,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %w", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		memprofile, _ := cmd.Flags().GetString("memprofile")
		if memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

		noTUI, _ := cmd.Flags().GetBool("no-tui")
		if !term.IsTerminal(os.Stdout.Fd()) || !term.IsTerminal(os.Stdin.Fd()) {
			noTUI = true
		}
		if noTUI || !term.IsTerminal(os.Stdout.Fd()) {
			os.Setenv("CORESCOPE_NO_COLOR", "1")
		}

		s, closeLog, err := openSession(cmd, args, !noTUI)
		if err != nil {
			return err
		}
		defer closeLog()
		defer s.Close()

		if noTUI {
			return runLines(s, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), term.IsTerminal(os.Stdin.Fd()))
		}

		s.Context.Color = os.Getenv("CORESCOPE_NO_COLOR") == ""
		program := tea.NewProgram(
			newConsole(s),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	},
}

// configFromFlags builds the session config from flags, positional
// arguments and the environment. Flags win over the environment.
func configFromFlags(cmd *cobra.Command, args []string) (session.Config, error) {
	var cfg session.Config
	if len(args) > 0 {
		cfg.CorePath = args[0]
	}
	cfg.CatalogPath, _ = cmd.Flags().GetString("catalog")
	cfg.PID, _ = cmd.Flags().GetInt("pid")
	cfg.ExecutablePath, _ = cmd.Flags().GetString("exe")
	cfg.Bitness, _ = cmd.Flags().GetInt("bitness")
	cfg.Debug, _ = cmd.Flags().GetBool("debug")
	cfg.Debug = cfg.Debug || logging.IsDebug()
	if cmd.Flags().Changed("timeout") {
		cfg.ReadTimeout, _ = cmd.Flags().GetDuration("timeout")
	}

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout, _ = cmd.Flags().GetDuration("timeout")
	}
	return cfg, cfg.Validate()
}

// openSession sets up logging and opens the session. In console mode the
// logger stays off the terminal unless CORESCOPE_LOG_TO_FILE redirects it.
func openSession(cmd *cobra.Command, args []string, console bool) (*session.Session, func(), error) {
	cfg, err := configFromFlags(cmd, args)
	if err != nil {
		return nil, nil, err
	}

	opts := logging.OptionsFromEnv()
	if console && !opts.ToFile {
		opts.Writer = io.Discard
	}
	if cfg.Debug {
		opts.Level = "debug"
	}
	lg, err := logging.New(afero.NewOsFs(), opts)
	if err != nil {
		return nil, nil, err
	}
	logging.InstallDefault(lg.Logger)

	start := time.Now()
	s, err := session.Open(cfg, afero.NewOsFs(), lg.Logger)
	if err != nil {
		lg.Close()
		return nil, nil, err
	}
	lg.Debug("session ready", "elapsed", time.Since(start))
	return s, func() { lg.Close() }, nil
}

// isCommandFailure reports whether err came from a dispatched command
// rather than from the CLI itself.
func isCommandFailure(err error) bool {
	var ce *commandFailure
	return errors.As(err, &ce)
}

// commandFailure marks a run whose command failed after printing its error.
type commandFailure struct {
	err error
}

func (e *commandFailure) Error() string { return e.err.Error() }
func (e *commandFailure) Unwrap() error { return e.err }

func Execute() {
	// fang renders help as markdown; skip it when output is piped or plain
	// output was asked for.
	noTUI := false
	for _, arg := range os.Args[1:] {
		if arg == "--no-tui" || arg == "-n" {
			noTUI = true
			break
		}
	}
	if !noTUI && !term.IsTerminal(os.Stdout.Fd()) {
		noTUI = true
	}

	var err error
	if noTUI {
		err = rootCmd.Execute()
	} else {
		err = fang.Execute(
			context.Background(),
			rootCmd,
			fang.WithNotifySignal(os.Interrupt),
		)
	}
	if err != nil {
		if isCommandFailure(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
