package memory

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// A regular file stands in for /proc/<pid>/mem: ReadAt at an offset behaves
// the same way.
func fakeMem(t *testing.T, values map[uint64]int32, size int64) *os.File {
	t.Helper()
	file := filepath.Join(t.TempDir(), "mem")
	buf := make([]byte, size)
	for addr, v := range values {
		binary.LittleEndian.PutUint32(buf[addr:], uint32(v))
	}
	if err := os.WriteFile(file, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(file)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestReadAllAxes(t *testing.T) {
	addrs := Addresses{X: 0x10, Y: 0x20, Z: 0x30}
	src := &ProcessSource{
		mem:      fakeMem(t, map[uint64]int32{0x10: 1203, 0x20: -45, 0x30: 7}, 0x100),
		addrs:    addrs,
		includeZ: true,
	}
	pos, err := src.Read()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if pos.X != 1203 || pos.Y != -45 || pos.Z != 7 || !pos.HasZ {
		t.Fatalf("unexpected position: %+v", pos)
	}
}

func TestReadWithoutZ(t *testing.T) {
	src := &ProcessSource{
		mem:   fakeMem(t, map[uint64]int32{0x10: 5, 0x20: 6}, 0x100),
		addrs: Addresses{X: 0x10, Y: 0x20},
	}
	pos, err := src.Read()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if pos.HasZ {
		t.Fatal("z should not be tracked")
	}
	if pos.X != 5 || pos.Y != 6 {
		t.Fatalf("unexpected position: %+v", pos)
	}
}

func TestReadFailureWrapsReadError(t *testing.T) {
	// Address beyond the file triggers an io error, the same shape a dead
	// process handle produces.
	src := &ProcessSource{
		mem:   fakeMem(t, nil, 8),
		addrs: Addresses{X: 0x1000, Y: 0x2000},
	}
	_, err := src.Read()
	if err == nil {
		t.Fatal("expected read failure")
	}
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("error %v is not a *ReadError", err)
	}
	if readErr.Axis != "x" {
		t.Fatalf("failed axis = %q, want x", readErr.Axis)
	}
}
