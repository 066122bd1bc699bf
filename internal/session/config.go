package session

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"corescope/internal/target"
)

// Config selects the target, the catalog and how memory is read.
type Config struct {
	CorePath       string        `json:"core,omitempty" jsonschema:"title=Core file,description=ELF core dump to inspect"`
	PID            int           `json:"pid,omitempty" jsonschema:"title=Process ID,description=Live process to inspect through /proc"`
	CatalogPath    string        `json:"catalog" jsonschema:"required,title=Catalog,description=Structure catalog document (JSON or YAML)"`
	ExecutablePath string        `json:"exe,omitempty" jsonschema:"title=Executable,description=Executable whose symbols name addresses"`
	Bitness        int           `json:"bitness,omitempty" jsonschema:"enum=0,enum=32,enum=64,description=Address width; 0 detects it from the target"`
	ReadTimeout    time.Duration `json:"readTimeout,omitempty" jsonschema:"description=Per-read timeout for live processes in nanoseconds"`
	Debug          bool          `json:"debug,omitempty"`
}

// Validate checks that the settings are usable together.
func (c Config) Validate() error {
	if c.CorePath != "" && c.PID != 0 {
		return fmt.Errorf("a core file and a process ID are mutually exclusive")
	}
	if c.PID < 0 {
		return fmt.Errorf("invalid process ID %d", c.PID)
	}
	if c.CatalogPath == "" {
		return fmt.Errorf("no catalog given; use --catalog or CORESCOPE_CATALOG")
	}
	switch c.Bitness {
	case 0, 32, 64:
	default:
		return fmt.Errorf("bitness must be 0, 32 or 64, got %d", c.Bitness)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("negative read timeout %s", c.ReadTimeout)
	}
	return nil
}

// Timeout returns the live read timeout, falling back to the default.
func (c Config) Timeout() time.Duration {
	if c.ReadTimeout == 0 {
		return target.DefaultReadTimeout
	}
	return c.ReadTimeout
}

// ApplyEnv fills unset fields from CORESCOPE_* variables.
func (c *Config) ApplyEnv() error {
	if c.CatalogPath == "" {
		c.CatalogPath = os.Getenv("CORESCOPE_CATALOG")
	}
	if c.ExecutablePath == "" {
		c.ExecutablePath = os.Getenv("CORESCOPE_EXE")
	}
	if v := os.Getenv("CORESCOPE_BITNESS"); v != "" && c.Bitness == 0 {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CORESCOPE_BITNESS: %w", err)
		}
		c.Bitness = n
	}
	if v := os.Getenv("CORESCOPE_TIMEOUT"); v != "" && c.ReadTimeout == 0 {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CORESCOPE_TIMEOUT: %w", err)
		}
		c.ReadTimeout = d
	}
	return nil
}
