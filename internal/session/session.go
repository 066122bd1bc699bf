// Package session opens a target and a catalog and binds them to the
// command registry.
package session

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"corescope/internal/catalog"
	"corescope/internal/command"
	"corescope/internal/logging"
	"corescope/internal/pointer"
	"corescope/internal/target"
)

// Session is one open target with its catalog and commands.
type Session struct {
	Config   Config
	Context  *command.Context
	Registry *command.Registry
	Target   string // human description of the memory source

	closers []io.Closer
}

// Open validates cfg, loads the catalog from fs and opens the memory
// source. Without a core file or process the session has no target memory
// and only catalog commands are useful.
func Open(cfg Config, fs afero.Fs, logger *log.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}

	cat, err := catalog.Load(fs, cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded", "path", cfg.CatalogPath, "structures", cat.Len())

	var (
		mem     target.Memory = target.NewImage()
		bits    int
		order   binary.ByteOrder
		desc    = "no target"
		closers []io.Closer
		exePath = cfg.ExecutablePath
	)

	switch {
	case cfg.CorePath != "":
		core, err := target.OpenCore(cfg.CorePath)
		if err != nil {
			return nil, err
		}
		closers = append(closers, core)
		mem, bits, order = core, core.Bits(), core.ByteOrder()
		desc = fmt.Sprintf("core %s (%s)", cfg.CorePath, core.Machine())

	case cfg.PID != 0:
		proc, err := target.OpenProcess(cfg.PID, cfg.Timeout())
		if err != nil {
			return nil, err
		}
		closers = append(closers, proc)
		mem = proc
		desc = fmt.Sprintf("process %d", cfg.PID)
		if bits, order, err = proc.Arch(); err != nil {
			logger.Warn("cannot detect process architecture", "err", err)
		}
		if exePath == "" {
			exePath = fmt.Sprintf("/proc/%d/exe", cfg.PID)
		}
	}

	if cfg.Bitness != 0 {
		if bits != 0 && bits != cfg.Bitness {
			logger.Warn("bitness override differs from target", "target", bits, "override", cfg.Bitness)
		}
		bits = cfg.Bitness
	}
	if bits == 0 {
		bits = 64
	}

	s, err := New(cfg, cat, mem, bits, order, logger)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	s.closers = closers
	s.Target = desc

	if exePath != "" {
		syms, err := target.LoadSymbols(exePath)
		switch {
		case err != nil && cfg.ExecutablePath != "":
			s.Close()
			return nil, fmt.Errorf("load symbols: %w", err)
		case err != nil:
			logger.Debug("no executable symbols", "path", exePath, "err", err)
		default:
			s.Context.Symbols = syms
			logger.Info("symbols loaded", "path", exePath, "count", syms.Len())
		}
	}

	logger.Info("session open", "target", desc, "bitness", s.Context.Bitness)
	return s, nil
}

// New builds a session over an already open memory source.
func New(cfg Config, cat *catalog.Catalog, mem target.Memory, bits int, order binary.ByteOrder, logger *log.Logger) (*Session, error) {
	bitness, err := pointer.BitnessOf(bits)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}

	reg, err := command.NewDefaultRegistry()
	if err != nil {
		return nil, err
	}

	return &Session{
		Config: cfg,
		Context: &command.Context{
			Resolver: pointer.NewResolver(mem, bitness, order),
			Catalog:  cat,
			Bitness:  bitness,
			Logger:   logger,
		},
		Registry: reg,
		Target:   "memory image",
	}, nil
}

// SplitLine tokenizes a command line. A leading "!" on the command name is
// dropped so DDR-style input dispatches to the same command.
func SplitLine(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	return strings.TrimPrefix(fields[0], "!"), fields[1:]
}

// Exec runs one command line. Blank lines do nothing.
func (s *Session) Exec(line string, out io.Writer) error {
	name, args := SplitLine(line)
	if name == "" {
		return nil
	}
	return s.Run(name, args, out)
}

// Run dispatches an already tokenized command. Arguments pass through
// untouched, so they may contain spaces or be empty.
func (s *Session) Run(name string, args []string, out io.Writer) error {
	return s.Registry.Dispatch(s.Context, strings.TrimPrefix(name, "!"), args, out)
}

// Close releases the memory source.
func (s *Session) Close() error {
	err := closeAll(s.closers)
	s.closers = nil
	return err
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
