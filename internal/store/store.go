package store

import (
	"context"
	"errors"
	"time"

	"github.com/vedantwpatil/Path-Pilot/internal/path"
)

// ErrNotFound is returned when a named path or pause state does not exist.
// Every other storage failure is wrapped with enough context to show which
// operation and which name it hit.
var ErrNotFound = errors.New("store: not found")

// PathInfo is the listing entry for a stored path.
type PathInfo struct {
	Name     string
	Moves    int
	Clicks   int
	Size     int64
	Modified time.Time
}

// Store persists recorded paths and playback pause states. Paths are
// immutable once saved; pause states are overwritten on every pause and at
// most one exists per path.
type Store interface {
	SavePath(ctx context.Context, p *path.Path) error
	LoadPath(ctx context.Context, name string) (*path.Path, error)
	ListPaths(ctx context.Context) ([]PathInfo, error)
	DeletePath(ctx context.Context, name string) error
	RenamePath(ctx context.Context, oldName, newName string) error

	SavePause(ctx context.Context, st *path.PauseState) error
	LoadPause(ctx context.Context, pathName string) (*path.PauseState, error)
	DeletePause(ctx context.Context, pathName string) error

	Close() error
}
