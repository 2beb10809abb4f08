// Package control coordinates the recorder and the playback engine. It owns
// the rule that only one of them may touch the game at a time and routes
// operator input (hotkeys, menu commands) to whichever is active.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vedantwpatil/Path-Pilot/internal/hotkeys"
	"github.com/vedantwpatil/Path-Pilot/internal/path"
	"github.com/vedantwpatil/Path-Pilot/internal/playback"
	"github.com/vedantwpatil/Path-Pilot/internal/recording"
	"github.com/vedantwpatil/Path-Pilot/internal/store"
)

// ErrInvalidState is returned when an operation conflicts with what is
// currently running: recording while a run is active, playing while a
// recording session is open, or control signals with no target.
var ErrInvalidState = errors.New("control: operation not valid right now")

// Controller gates access to the game between the recorder and the engine.
type Controller struct {
	rec   *recording.Recorder
	eng   *playback.Engine
	store store.Store
	log   *slog.Logger

	recOpts recording.Options

	mu     sync.Mutex
	active string // path selected for hotkey-driven playback
}

func New(rec *recording.Recorder, eng *playback.Engine, st store.Store, recOpts recording.Options, log *slog.Logger) *Controller {
	return &Controller{rec: rec, eng: eng, store: st, recOpts: recOpts, log: log}
}

// SelectPath sets the path that the start/stop hotkey plays.
func (c *Controller) SelectPath(name string) {
	c.mu.Lock()
	c.active = name
	c.mu.Unlock()
}

// Record opens a recording session for a new path named name. It fails with
// ErrInvalidState while a playback run is active.
func (c *Controller) Record(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eng.State() == playback.StateRunning || c.eng.State() == playback.StatePaused {
		return fmt.Errorf("%w: playback is active", ErrInvalidState)
	}
	if err := c.rec.Start(name, c.recOpts); err != nil {
		if errors.Is(err, recording.ErrAlreadyRecording) {
			return fmt.Errorf("%w: already recording", ErrInvalidState)
		}
		return err
	}
	c.active = name
	return nil
}

// StopRecording closes the session and persists the path. The recorded path
// is returned either way so the operator can inspect what was captured.
func (c *Controller) StopRecording(ctx context.Context) (*path.Path, error) {
	p, err := c.rec.Stop()
	if err != nil {
		return nil, err
	}
	if moves, _ := p.Stats(); moves <= 1 {
		c.log.Warn("recorded path has a single waypoint, character never moved", "path", p.Name)
	}
	if err := c.store.SavePath(ctx, p); err != nil {
		return p, fmt.Errorf("save recorded path %q: %w", p.Name, err)
	}
	return p, nil
}

// PauseStateFor looks up the saved checkpoint for a path, so the caller can
// offer a resume. Nil without error when none exists.
func (c *Controller) PauseStateFor(ctx context.Context, name string) (*path.PauseState, error) {
	st, err := c.store.LoadPause(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return st, err
}

// Play loads the named path and starts a run, resuming from resume when the
// caller passes one. It fails with ErrInvalidState while recording.
func (c *Controller) Play(ctx context.Context, name string, resume *path.PauseState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rec.Recording() {
		return fmt.Errorf("%w: a recording session is open", ErrInvalidState)
	}

	p, err := c.store.LoadPath(ctx, name)
	if err != nil {
		return fmt.Errorf("load path %q: %w", name, err)
	}
	for _, g := range p.Gaps() {
		c.log.Warn("waypoints more than one step apart, playback will walk the gap",
			"path", name, "index", g.FromIndex, "from", g.From.String(), "to", g.To.String(), "distance", g.Distance)
	}

	if err := c.eng.Start(ctx, p, resume); err != nil {
		return err
	}
	c.active = name
	return nil
}

// HandleSignal routes one hotkey event. Errors that merely mean "nothing to
// act on" are logged, not returned; the dispatcher loop should keep going.
func (c *Controller) HandleSignal(ctx context.Context, sig hotkeys.Signal) {
	switch sig.Kind {
	case hotkeys.StartStop:
		c.toggleStartStop(ctx)
	case hotkeys.PauseResume:
		c.togglePause()
	case hotkeys.ToggleMouse:
		if c.rec.Recording() {
			on := c.rec.ToggleRecordMouse()
			c.log.Info("click capture toggled", "enabled", on)
		}
	case hotkeys.Escape:
		c.stopActive(ctx)
	case hotkeys.MouseClick:
		if err := c.rec.RegisterClick(sig.Button, sig.X, sig.Y); err != nil && !errors.Is(err, recording.ErrNotRecording) {
			c.log.Warn("click not recorded", "error", err)
		}
	}
}

// stopActive is the escape behavior: abandon whatever is running without
// starting anything new. A live recording is still saved; throwing away
// captured waypoints needs an explicit delete, not a panic key.
func (c *Controller) stopActive(ctx context.Context) {
	if c.rec.Recording() {
		if _, err := c.StopRecording(ctx); err != nil {
			c.log.Error("stop recording", "error", err)
		}
		return
	}
	switch c.eng.State() {
	case playback.StateRunning, playback.StatePaused:
		if err := c.eng.Stop(); err != nil {
			c.log.Error("stop playback", "error", err)
		}
	}
}

// toggleStartStop is the F8 behavior: stop whatever is active, otherwise
// start playing the selected path, resuming from its checkpoint if one
// exists.
func (c *Controller) toggleStartStop(ctx context.Context) {
	if c.rec.Recording() {
		p, err := c.StopRecording(ctx)
		if err != nil {
			c.log.Error("stop recording", "error", err)
			return
		}
		moves, clicks := p.Stats()
		c.log.Info("path saved", "path", p.Name, "waypoints", moves, "clicks", clicks)
		return
	}

	switch c.eng.State() {
	case playback.StateRunning, playback.StatePaused:
		if err := c.eng.Stop(); err != nil {
			c.log.Error("stop playback", "error", err)
		}
		return
	}

	c.mu.Lock()
	name := c.active
	c.mu.Unlock()
	if name == "" {
		c.log.Warn("start hotkey pressed with no path selected")
		return
	}
	resume, err := c.PauseStateFor(ctx, name)
	if err != nil {
		c.log.Warn("pause state unreadable, starting from the beginning", "path", name, "error", err)
		resume = nil
	}
	if err := c.Play(ctx, name, resume); err != nil {
		c.log.Error("start playback", "path", name, "error", err)
	}
}

func (c *Controller) togglePause() {
	switch c.eng.State() {
	case playback.StateRunning:
		if err := c.eng.Pause(); err != nil {
			c.log.Error("pause", "error", err)
		}
	case playback.StatePaused:
		if err := c.eng.Resume(); err != nil {
			c.log.Error("resume", "error", err)
		}
	default:
		c.log.Warn("pause hotkey pressed with no active run")
	}
}
