package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"corescope/internal/session"
)

const prompt = "> "

func isQuit(line string) bool {
	switch strings.TrimSpace(line) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

// runLines executes one command per input line until EOF or quit. Command
// failures are printed and the loop continues; the session stays usable.
func runLines(s *session.Session, in io.Reader, out, errOut io.Writer, interactive bool) error {
	if interactive {
		fmt.Fprintf(out, "corescope: %s, %s. Type help for commands.\n", s.Target, s.Context.Bitness)
		fmt.Fprint(out, prompt)
	}

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := sc.Text()
		if isQuit(line) {
			return nil
		}
		if err := s.Exec(line, out); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
		}
		if interactive {
			fmt.Fprint(out, prompt)
		}
	}
	return sc.Err()
}
