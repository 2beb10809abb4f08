// Package memory reads the character position out of the running game
// process. Nothing here mutates the target: it is a pure feedback signal
// for the recorder and the playback engine.
package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/vedantwpatil/Path-Pilot/internal/path"
)

// ErrProcessNotFound is returned by Attach when no process matches the
// configured module name.
var ErrProcessNotFound = errors.New("memory: process not found")

// ReadError wraps a failed coordinate read. Reads fail transiently when the
// game is loading, minimized on some drivers, or exiting; callers treat it
// as retryable until their budget runs out.
type ReadError struct {
	Axis string
	Addr uint64
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("memory: read %s axis at %#x: %v", e.Axis, e.Addr, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Addresses holds the resolved location of each coordinate axis. Z is
// ignored when the source is built without z tracking.
type Addresses struct {
	X uint64
	Y uint64
	Z uint64
}

// Source yields the current character position. Implementations must be
// safe to call from a single goroutine at a time; the control loops never
// read concurrently.
type Source interface {
	Read() (path.Position, error)
	Close() error
}

// ProcessSource reads coordinates from another process's address space via
// procfs. The game gives no acknowledgment protocol; these reads are the
// only feedback the playback loop gets.
type ProcessSource struct {
	pid      int32
	mem      readAtCloser
	addrs    Addresses
	includeZ bool
}

type readAtCloser interface {
	io.ReaderAt
	io.Closer
}

var _ Source = (*ProcessSource)(nil)

// Attach finds the process whose image name matches moduleName and opens
// its memory for reading.
func Attach(moduleName string, addrs Addresses, includeZ bool) (*ProcessSource, error) {
	if addrs.X == 0 || addrs.Y == 0 {
		return nil, fmt.Errorf("memory: x and y addresses must be configured")
	}
	if includeZ && addrs.Z == 0 {
		return nil, fmt.Errorf("memory: include_z is set but no z address is configured")
	}
	pid, err := findPID(moduleName)
	if err != nil {
		return nil, err
	}
	mem, err := os.Open(fmt.Sprintf("/proc/%d/mem", pid))
	if err != nil {
		return nil, fmt.Errorf("memory: open process %d memory: %w", pid, err)
	}
	return &ProcessSource{pid: pid, mem: mem, addrs: addrs, includeZ: includeZ}, nil
}

func findPID(moduleName string) (int32, error) {
	procs, err := process.Processes()
	if err != nil {
		return 0, fmt.Errorf("memory: list processes: %w", err)
	}
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		if name == moduleName {
			return p.Pid, nil
		}
	}
	return 0, fmt.Errorf("memory: %q: %w", moduleName, ErrProcessNotFound)
}

// PID reports the attached process id.
func (s *ProcessSource) PID() int32 { return s.pid }

func (s *ProcessSource) Read() (path.Position, error) {
	x, err := s.readInt32("x", s.addrs.X)
	if err != nil {
		return path.Position{}, err
	}
	y, err := s.readInt32("y", s.addrs.Y)
	if err != nil {
		return path.Position{}, err
	}
	pos := path.Position{X: int(x), Y: int(y)}
	if s.includeZ {
		z, err := s.readInt32("z", s.addrs.Z)
		if err != nil {
			return path.Position{}, err
		}
		pos.Z = int(z)
		pos.HasZ = true
	}
	return pos, nil
}

func (s *ProcessSource) readInt32(axis string, addr uint64) (int32, error) {
	var buf [4]byte
	if _, err := s.mem.ReadAt(buf[:], int64(addr)); err != nil {
		return 0, &ReadError{Axis: axis, Addr: addr, Err: err}
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

func (s *ProcessSource) Close() error {
	return s.mem.Close()
}
