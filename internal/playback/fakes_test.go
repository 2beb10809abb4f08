package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vedantwpatil/Path-Pilot/internal/input"
	"github.com/vedantwpatil/Path-Pilot/internal/path"
	"github.com/vedantwpatil/Path-Pilot/internal/store"
)

// fakeSource is a scripted position feed. When frozen it keeps reporting
// the same position no matter what the actuator does.
type fakeSource struct {
	mu       sync.Mutex
	pos      path.Position
	frozen   bool
	failNext int  // fail this many reads, then succeed
	failAll  bool // every read fails
	reads    int
}

func (s *fakeSource) Read() (path.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.failAll {
		return path.Position{}, fmt.Errorf("fake: process not readable")
	}
	if s.failNext > 0 {
		s.failNext--
		return path.Position{}, fmt.Errorf("fake: transient read failure")
	}
	return s.pos, nil
}

func (s *fakeSource) Close() error { return nil }

func (s *fakeSource) position() path.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// fakeActuator records everything and, unless the source is frozen, moves
// the character one grid unit per press the way the game would.
type fakeActuator struct {
	mu      sync.Mutex
	src     *fakeSource
	presses []input.Direction
	clicks  []path.Event
}

func (a *fakeActuator) Press(dir input.Direction, _ time.Duration) {
	a.mu.Lock()
	a.presses = append(a.presses, dir)
	a.mu.Unlock()

	a.src.mu.Lock()
	defer a.src.mu.Unlock()
	if a.src.frozen {
		return
	}
	switch dir {
	case input.North:
		a.src.pos.Y--
	case input.South:
		a.src.pos.Y++
	case input.East:
		a.src.pos.X++
	case input.West:
		a.src.pos.X--
	case input.Up:
		a.src.pos.Z--
	case input.Down:
		a.src.pos.Z++
	}
}

func (a *fakeActuator) Click(button path.Button, x, y int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clicks = append(a.clicks, path.Click(button, x, y, 0))
}

func (a *fakeActuator) pressCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.presses)
}

// memStore is an in-memory Store for engine tests.
type memStore struct {
	mu     sync.Mutex
	paths  map[string]*path.Path
	pauses map[string]path.PauseState

	savePauseErr error
}

func newMemStore() *memStore {
	return &memStore{paths: map[string]*path.Path{}, pauses: map[string]path.PauseState{}}
}

func (m *memStore) SavePath(_ context.Context, p *path.Path) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[p.Name] = p
	return nil
}

func (m *memStore) LoadPath(_ context.Context, name string) (*path.Path, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.paths[name]
	if !ok {
		return nil, fmt.Errorf("memstore: path %q: %w", name, store.ErrNotFound)
	}
	return p, nil
}

func (m *memStore) ListPaths(context.Context) ([]store.PathInfo, error) { return nil, nil }

func (m *memStore) DeletePath(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.paths, name)
	return nil
}

func (m *memStore) RenamePath(context.Context, string, string) error {
	return errors.New("memstore: rename not supported")
}

func (m *memStore) SavePause(_ context.Context, st *path.PauseState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.savePauseErr != nil {
		return m.savePauseErr
	}
	m.pauses[st.PathName] = *st
	return nil
}

func (m *memStore) LoadPause(_ context.Context, pathName string) (*path.PauseState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.pauses[pathName]
	if !ok {
		return nil, fmt.Errorf("memstore: pause for %q: %w", pathName, store.ErrNotFound)
	}
	return &st, nil
}

func (m *memStore) DeletePause(_ context.Context, pathName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pauses, pathName)
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) pauseFor(name string) (path.PauseState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.pauses[name]
	return st, ok
}
