package cmd

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"corescope/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run [--core file] <command> [args...]",
	Short: "Run a single command and exit",
	Long: `Run one command against the target in non-interactive mode and exit.
The exit status is 2 when the command itself fails.`,
	Example: `
# Look a key up in a hash table of a core dump
corescope run -C j9ddr.yaml --core core.1234 findKeyValue 0x7f3a2c001000 java.home

# List the constants of a structure; no target is needed
corescope run -C j9ddr.yaml showflags J9Class
  `,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var positional []string
		if core, _ := cmd.Flags().GetString("core"); core != "" {
			positional = []string{core}
		}

		s, closeLog, err := openSession(cmd, positional, false)
		if err != nil {
			return err
		}
		defer closeLog()
		defer s.Close()

		return runOne(s, args, cmd.OutOrStdout())
	},
}

// runOne dispatches args as the shell split them.
func runOne(s *session.Session, args []string, out io.Writer) error {
	slog.Debug("Running command", "command", args[0], "args", args[1:])
	if err := s.Run(args[0], args[1:], out); err != nil {
		return &commandFailure{err: err}
	}
	return nil
}

func init() {
	runCmd.Flags().StringP("core", "c", "", "Core file to inspect")
	runCmd.Flags().SetInterspersed(false)
}
