package target

import (
	"bufio"
	"context"
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultReadTimeout bounds a single live-target read.
const DefaultReadTimeout = 2 * time.Second

// TimedReader serves ReadMemory from an io.ReaderAt and gives up after a
// fixed timeout. A read that times out keeps running in the background but
// writes only into its own buffer.
type TimedReader struct {
	r       io.ReaderAt
	timeout time.Duration
}

// NewTimedReader wraps r. A non-positive timeout selects DefaultReadTimeout.
func NewTimedReader(r io.ReaderAt, timeout time.Duration) *TimedReader {
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	return &TimedReader{r: r, timeout: timeout}
}

type readResult struct {
	n   int
	err error
}

func (t *TimedReader) ReadMemory(buf []byte, addr uint64) (int, error) {
	if addr > math.MaxInt64 {
		return 0, fmt.Errorf("%w: 0x%x", ErrUnmapped, addr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	tmp := make([]byte, len(buf))
	done := make(chan readResult, 1)
	go func() {
		n, err := t.r.ReadAt(tmp, int64(addr))
		done <- readResult{n: n, err: err}
	}()

	select {
	case res := <-done:
		n := copy(buf, tmp[:res.n])
		if res.err != nil && n < len(buf) {
			return n, fmt.Errorf("%w: 0x%x: %v", ErrUnmapped, addr+uint64(n), res.err)
		}
		return n, nil
	case <-ctx.Done():
		return 0, fmt.Errorf("%w after %s at 0x%x", ErrTimeout, t.timeout, addr)
	}
}

// Process is a live process read through /proc/<pid>/mem.
type Process struct {
	*TimedReader
	PID int
	f   *os.File
}

// OpenProcess opens the memory of a running process for reading. The caller
// needs ptrace permission on the target.
func OpenProcess(pid int, timeout time.Duration) (*Process, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/mem", pid))
	if err != nil {
		return nil, fmt.Errorf("open process memory: %w", err)
	}
	return &Process{TimedReader: NewTimedReader(f, timeout), PID: pid, f: f}, nil
}

// Close releases the memory handle.
func (p *Process) Close() error {
	return p.f.Close()
}

// Arch reads the address width and byte order from the process executable.
func (p *Process) Arch() (int, binary.ByteOrder, error) {
	f, err := elf.Open(fmt.Sprintf("/proc/%d/exe", p.PID))
	if err != nil {
		return 0, nil, fmt.Errorf("open process executable: %w", err)
	}
	defer f.Close()
	if f.Class == elf.ELFCLASS32 {
		return 32, f.ByteOrder, nil
	}
	return 64, f.ByteOrder, nil
}

// Regions parses /proc/<pid>/maps. Unreadable maps yield no regions.
func (p *Process) Regions() []Region {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", p.PID))
	if err != nil {
		return nil
	}
	defer f.Close()
	return parseMaps(f)
}

// parseMaps reads the "start-end perms offset dev inode path" lines of a maps file.
func parseMaps(r io.Reader) []Region {
	var regions []Region
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		start, end, ok := strings.Cut(fields[0], "-")
		if !ok {
			continue
		}
		lo, err1 := strconv.ParseUint(start, 16, 64)
		hi, err2 := strconv.ParseUint(end, 16, 64)
		if err1 != nil || err2 != nil || hi < lo {
			continue
		}
		region := Region{Addr: lo, Size: hi - lo, Perm: strings.TrimSuffix(fields[1], "p")}
		if len(fields) >= 6 {
			region.Name = strings.Join(fields[5:], " ")
		}
		regions = append(regions, region)
	}
	return regions
}
