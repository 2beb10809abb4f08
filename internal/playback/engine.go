// Package playback reproduces a recorded path against the live game: a
// closed-loop controller that presses movement keys and verifies progress
// through memory reads, with no acknowledgment from the target process.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vedantwpatil/Path-Pilot/internal/input"
	"github.com/vedantwpatil/Path-Pilot/internal/memory"
	"github.com/vedantwpatil/Path-Pilot/internal/path"
	"github.com/vedantwpatil/Path-Pilot/internal/store"
)

// State is the engine's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateCompleted
	StateStopped
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:      "idle",
	StateRunning:   "running",
	StatePaused:    "paused",
	StateCompleted: "completed",
	StateStopped:   "stopped",
	StateFailed:    "failed",
}

func (s State) String() string { return stateNames[s] }

// active reports whether a run is in flight.
func (s State) active() bool { return s == StateRunning || s == StatePaused }

// Options are the timing and retry knobs of the control loop.
type Options struct {
	// Delay between consecutive actions, so presses and clicks never
	// overlap on the target process.
	Delay time.Duration
	// StallTimeout is how long the position may stay unchanged on a
	// waypoint before one retry is consumed.
	StallTimeout time.Duration
	// Settle is the wait after a key press before re-reading the position.
	Settle time.Duration
	// KeyHold is how long each directional key stays down.
	KeyHold time.Duration
	// ClickDelay is the wait after a replayed mouse click.
	ClickDelay time.Duration
	// MaxRetries bounds both stall retries and consecutive failed reads
	// per waypoint before the run fails.
	MaxRetries int
	// OnFailure, if set, runs after a transition to FAILED (e.g. to save
	// a screenshot for the operator). Called outside the engine lock.
	OnFailure func(Summary)
}

// Summary describes a finished (or failing) run.
type Summary struct {
	RunID     string
	PathName  string
	State     State
	Elapsed   time.Duration
	Index     int
	Total     int
	Waypoints int
	Clicks    int
	Presses   int
	LastPos   path.Position
	Err       error
}

type commandType int

const (
	cmdPause commandType = iota + 1
	cmdResume
	cmdStop
)

type command struct {
	typ  commandType
	resp chan error
}

// Engine owns the playback cursor. Control signals (pause/resume/stop) are
// delivered over a command channel and observed only at checkpoints: before
// each key press and inside every wait, never mid-press.
type Engine struct {
	source memory.Source
	act    input.Actuator
	store  store.Store
	log    *slog.Logger
	opts   Options

	mu       sync.Mutex
	state    State
	runID    string
	pathName string
	index    int
	summary  Summary
	commands chan command
	done     chan struct{}
}

func New(source memory.Source, act input.Actuator, st store.Store, log *slog.Logger, opts Options) *Engine {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &Engine{
		source: source,
		act:    act,
		store:  st,
		log:    log,
		opts:   opts,
		state:  StateIdle,
	}
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Summary returns the result of the last finished run. Zero value while a
// run is still in flight.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summary
}

// Done returns a channel closed when the current run finishes. Nil if no
// run was started.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// Start begins playing p, optionally resuming from a pause state. It
// returns ErrBusy while another run is active and never blocks on the run
// itself; callers watch Done().
func (e *Engine) Start(ctx context.Context, p *path.Path, resume *path.PauseState) error {
	if p == nil || len(p.Events) == 0 {
		return fmt.Errorf("playback: path is empty")
	}
	startIdx := 0
	if resume != nil {
		if resume.PathName != p.Name {
			return fmt.Errorf("playback: pause state belongs to path %q, not %q", resume.PathName, p.Name)
		}
		if resume.Index < 0 || resume.Index >= len(p.Events) {
			return fmt.Errorf("playback: pause state index %d out of range for %d events", resume.Index, len(p.Events))
		}
		startIdx = resume.Index
	}

	e.mu.Lock()
	if e.state.active() {
		e.mu.Unlock()
		return ErrBusy
	}
	e.state = StateRunning
	e.runID = uuid.NewString()
	e.pathName = p.Name
	e.index = startIdx
	e.summary = Summary{}
	e.commands = make(chan command)
	e.done = make(chan struct{})
	runID := e.runID
	e.mu.Unlock()

	e.log.Info("state transition",
		"from", StateIdle.String(), "to", StateRunning.String(),
		"path", p.Name, "index", startIdx, "run_id", runID, "resumed", resume != nil)

	go e.run(ctx, p, startIdx)
	return nil
}

// Pause suspends the run after the action in flight and persists a pause
// state. A storage failure is returned so the operator knows the checkpoint
// did not land; the run still pauses.
func (e *Engine) Pause() error { return e.send(cmdPause) }

// Resume continues a paused run from its cursor.
func (e *Engine) Resume() error { return e.send(cmdResume) }

// Stop abandons the run and deletes any pause state for the path.
func (e *Engine) Stop() error { return e.send(cmdStop) }

func (e *Engine) send(typ commandType) error {
	e.mu.Lock()
	if !e.state.active() {
		e.mu.Unlock()
		return ErrInvalidState
	}
	commands, done := e.commands, e.done
	e.mu.Unlock()

	cmd := command{typ: typ, resp: make(chan error, 1)}
	select {
	case commands <- cmd:
	case <-done:
		return ErrInvalidState
	}
	select {
	case err := <-cmd.resp:
		return err
	case <-done:
		return nil
	}
}

// run is the single control loop; one action in flight at a time.
func (e *Engine) run(ctx context.Context, p *path.Path, startIdx int) {
	started := time.Now()
	counters := struct{ waypoints, clicks, presses int }{}
	idx := startIdx

	var runErr error
loop:
	for idx < len(p.Events) {
		if err := e.checkpoint(ctx, p, idx); err != nil {
			runErr = err
			break loop
		}

		ev := p.Events[idx]
		switch ev.Kind {
		case path.KindMove:
			if err := e.walkTo(ctx, p, idx, ev.Pos, &counters.presses); err != nil {
				runErr = err
				break loop
			}
			counters.waypoints++
		case path.KindClick:
			// No position feedback for clicks; issue and move on.
			e.act.Click(ev.Button, ev.ScreenX, ev.ScreenY)
			counters.clicks++
			e.log.Info("click replayed",
				"path", p.Name, "index", idx, "button", string(ev.Button), "run_id", e.runID)
			if err := e.wait(ctx, p, idx, e.opts.ClickDelay); err != nil {
				runErr = err
				break loop
			}
		default:
			e.log.Warn("skipping unknown event kind",
				"path", p.Name, "index", idx, "kind", string(ev.Kind), "run_id", e.runID)
		}

		idx++
		e.setIndex(idx)

		if idx < len(p.Events) {
			if err := e.wait(ctx, p, idx, e.opts.Delay); err != nil {
				runErr = err
				break loop
			}
		}
	}

	e.finish(ctx, p, idx, started, counters.waypoints, counters.clicks, counters.presses, runErr)
}

func (e *Engine) finish(ctx context.Context, p *path.Path, idx int, started time.Time, waypoints, clicks, presses int, runErr error) {
	final := StateCompleted
	switch {
	case runErr == nil:
	case errors.Is(runErr, errStopRequested), errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		final = StateStopped
	default:
		final = StateFailed
	}

	summary := Summary{
		PathName:  p.Name,
		State:     final,
		Elapsed:   time.Since(started),
		Index:     idx,
		Total:     len(p.Events),
		Waypoints: waypoints,
		Clicks:    clicks,
		Presses:   presses,
	}

	switch final {
	case StateCompleted:
		if err := e.store.DeletePause(ctx, p.Name); err != nil {
			e.log.Warn("failed to delete pause state", "path", p.Name, "error", err)
		}
		// The game may have exited right after the last event; a failed
		// trailing read is expected there and not worth a warning.
		if pos, err := e.source.Read(); err == nil {
			summary.LastPos = pos
		} else {
			e.log.Debug("final position read failed", "path", p.Name, "error", err)
		}
	case StateStopped:
		if err := e.store.DeletePause(ctx, p.Name); err != nil {
			e.log.Warn("failed to delete pause state", "path", p.Name, "error", err)
		}
	case StateFailed:
		summary.Err = runErr
		var stall *StallError
		if errors.As(runErr, &stall) {
			summary.LastPos = stall.LastPos
		}
		// Keep a checkpoint so the operator can fix the environment and
		// resume from the failed event instead of starting over.
		st := &path.PauseState{PathName: p.Name, Index: idx, Position: summary.LastPos, SavedAt: time.Now()}
		if err := e.store.SavePause(ctx, st); err != nil {
			e.log.Error("failed to persist checkpoint after failure", "path", p.Name, "index", idx, "error", err)
		}
	}

	e.mu.Lock()
	from := e.state
	e.state = final
	e.index = idx
	summary.RunID = e.runID
	e.summary = summary
	done := e.done
	e.mu.Unlock()

	logArgs := []any{
		"from", from.String(), "to", final.String(),
		"path", p.Name, "index", idx, "run_id", summary.RunID,
		"elapsed", summary.Elapsed, "waypoints", waypoints, "clicks", clicks, "presses", presses,
	}
	if runErr != nil && final == StateFailed {
		logArgs = append(logArgs, "error", runErr, "last_position", summary.LastPos.String())
		e.log.Error("state transition", logArgs...)
	} else {
		e.log.Info("state transition", logArgs...)
	}

	if final == StateFailed && e.opts.OnFailure != nil {
		e.opts.OnFailure(summary)
	}
	close(done)
}

// walkTo drives the character to target with one key press per iteration,
// verifying progress through position reads. Failed reads and stalled
// positions share the same retry budget.
func (e *Engine) walkTo(ctx context.Context, p *path.Path, idx int, target path.Position, presses *int) error {
	var lastKnown path.Position
	haveLast := false
	attempts := 0
	readFailures := 0
	stallStart := time.Now()

	for {
		if err := e.checkpoint(ctx, p, idx); err != nil {
			return err
		}

		pos, err := e.source.Read()
		if err != nil {
			readFailures++
			e.log.Warn("position read failed",
				"path", p.Name, "index", idx, "attempt", readFailures, "max", e.opts.MaxRetries,
				"error", err, "run_id", e.runID)
			if readFailures >= e.opts.MaxRetries {
				return &StallError{PathName: p.Name, Index: idx, Target: target, LastPos: lastKnown, Retries: readFailures}
			}
			if err := e.wait(ctx, p, idx, e.opts.Settle); err != nil {
				return err
			}
			continue
		}
		readFailures = 0

		if pos.Equal(target) {
			return nil
		}

		if !haveLast || pos != lastKnown {
			// Progress: reset the stall clock and the retry budget.
			lastKnown = pos
			haveLast = true
			attempts = 0
			stallStart = time.Now()
		} else if since := time.Since(stallStart); since > e.opts.StallTimeout {
			attempts++
			e.log.Warn("waypoint stalled",
				"path", p.Name, "index", idx, "target", target.String(), "position", pos.String(),
				"stalled_for", since, "attempt", attempts, "max", e.opts.MaxRetries, "run_id", e.runID)
			if attempts >= e.opts.MaxRetries {
				return &StallError{PathName: p.Name, Index: idx, Target: target, LastPos: pos, Retries: attempts}
			}
			stallStart = time.Now()
		}

		dir, ok := stepToward(pos, target, p.IncludeZ)
		if !ok {
			// Deltas are zero on every tracked axis.
			return nil
		}
		e.act.Press(dir, e.opts.KeyHold)
		*presses++

		if err := e.wait(ctx, p, idx, e.opts.Settle); err != nil {
			return err
		}
	}
}

// checkpoint drains pending commands without blocking, except while paused,
// where it blocks until resume or stop.
func (e *Engine) checkpoint(ctx context.Context, p *path.Path, idx int) error {
	for {
		var cmd command
		if e.State() == StatePaused {
			select {
			case cmd = <-e.commands:
			case <-ctx.Done():
				return ctx.Err()
			}
		} else {
			select {
			case cmd = <-e.commands:
			case <-ctx.Done():
				return ctx.Err()
			default:
				return nil
			}
		}
		if err := e.apply(ctx, cmd, p, idx); err != nil {
			return err
		}
	}
}

func (e *Engine) apply(ctx context.Context, cmd command, p *path.Path, idx int) error {
	var respErr, ret error
	switch cmd.typ {
	case cmdPause:
		if e.State() != StateRunning {
			respErr = ErrInvalidState
			break
		}
		// Surface a failed checkpoint write: silently losing it risks
		// unrecoverable progress loss after a crash. The pause itself
		// still takes effect.
		respErr = e.persistPause(ctx, p, idx)
		e.transition(StatePaused, p.Name, idx)
	case cmdResume:
		if e.State() != StatePaused {
			respErr = ErrInvalidState
			break
		}
		e.transition(StateRunning, p.Name, idx)
	case cmdStop:
		ret = errStopRequested
	default:
		respErr = ErrInvalidState
	}
	if cmd.resp != nil {
		cmd.resp <- respErr
	}
	return ret
}

func (e *Engine) persistPause(ctx context.Context, p *path.Path, idx int) error {
	st := &path.PauseState{PathName: p.Name, Index: idx, SavedAt: time.Now()}
	if pos, err := e.source.Read(); err == nil {
		st.Position = pos
	}
	if err := e.store.SavePause(ctx, st); err != nil {
		e.log.Error("pause checkpoint not saved, progress may be lost on restart",
			"path", p.Name, "index", idx, "error", err)
		return err
	}
	e.log.Info("pause checkpoint saved", "path", p.Name, "index", idx, "run_id", e.runID)
	return nil
}

// wait sleeps for d but stays responsive to commands and cancellation;
// these waits are the run's only suspension points.
func (e *Engine) wait(ctx context.Context, p *path.Path, idx int, d time.Duration) error {
	if d <= 0 {
		return e.checkpoint(ctx, p, idx)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-timer.C:
			return nil
		case cmd := <-e.commands:
			if err := e.apply(ctx, cmd, p, idx); err != nil {
				return err
			}
			// If that was a pause, block here until resumed.
			if err := e.checkpoint(ctx, p, idx); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (e *Engine) transition(to State, pathName string, idx int) {
	e.mu.Lock()
	from := e.state
	e.state = to
	e.index = idx
	runID := e.runID
	e.mu.Unlock()
	e.log.Info("state transition",
		"from", from.String(), "to", to.String(), "path", pathName, "index", idx, "run_id", runID)
}

func (e *Engine) setIndex(idx int) {
	e.mu.Lock()
	e.index = idx
	e.mu.Unlock()
}

// Cursor reports the path and event index the engine is on.
func (e *Engine) Cursor() (pathName string, index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pathName, e.index
}
