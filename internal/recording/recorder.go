// Package recording samples the character's position from game memory on a
// fixed interval and turns it into a path: deduplicated waypoints plus the
// mouse clicks the operator made along the way.
package recording

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vedantwpatil/Path-Pilot/internal/memory"
	"github.com/vedantwpatil/Path-Pilot/internal/path"
)

// ErrNotRecording is returned by Stop and RegisterClick when no recording
// session is active.
var ErrNotRecording = errors.New("recording: no active session")

// ErrAlreadyRecording is returned by Start while a session is active.
var ErrAlreadyRecording = errors.New("recording: a session is already active")

// Options control a recording session.
type Options struct {
	// Interval between position samples.
	Interval time.Duration
	// IncludeZ records the floor axis alongside x and y.
	IncludeZ bool
	// RecordMouse starts the session with click capture on. It can be
	// toggled mid-session with SetRecordMouse.
	RecordMouse bool
	// ClickDebounce drops clicks closer together than this; double-click
	// spam would otherwise replay as a burst.
	ClickDebounce time.Duration
}

// Recorder samples positions into waypoints. One session at a time; clicks
// arrive asynchronously from the hotkey listener through RegisterClick.
type Recorder struct {
	source memory.Source
	log    *slog.Logger

	mu          sync.Mutex
	armed       bool
	name        string
	opts        Options
	events      []path.Event
	lastIdx     int // index into events of the most recent waypoint
	lastPos     path.Position
	havePos     bool
	recordMouse bool
	lastClick   time.Time
	readErrs    int

	stopChan chan struct{}
	doneChan chan struct{}
}

func New(source memory.Source, log *slog.Logger) *Recorder {
	return &Recorder{source: source, log: log}
}

// Recording reports whether a session is active.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.armed
}

// Start begins a session for a path named name. The current position is
// sampled immediately so the path always begins where the character stood.
func (r *Recorder) Start(name string, opts Options) error {
	if opts.Interval <= 0 {
		return fmt.Errorf("recording: interval must be positive, got %s", opts.Interval)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.armed {
		return ErrAlreadyRecording
	}

	pos, err := r.source.Read()
	if err != nil {
		return fmt.Errorf("recording: initial position read: %w", err)
	}
	if !opts.IncludeZ {
		pos.HasZ = false
	}

	r.armed = true
	r.name = name
	r.opts = opts
	r.events = []path.Event{path.Move(pos)}
	r.lastIdx = 0
	r.lastPos = pos
	r.havePos = true
	r.recordMouse = opts.RecordMouse
	r.lastClick = time.Time{}
	r.readErrs = 0
	r.stopChan = make(chan struct{})
	r.doneChan = make(chan struct{})

	r.log.Info("recording started",
		"path", name, "interval", opts.Interval, "include_z", opts.IncludeZ,
		"record_mouse", opts.RecordMouse, "start", pos.String())

	go r.sample(r.stopChan, r.doneChan, opts.Interval)
	return nil
}

// sample is the session loop: poll, dedup, append.
func (r *Recorder) sample(stop, done chan struct{}, every time.Duration) {
	defer close(done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.takeSample()
		}
	}
}

func (r *Recorder) takeSample() {
	pos, err := r.source.Read()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.armed {
		return
	}
	if err != nil {
		// Transient by contract: skip the sample, keep the session.
		r.readErrs++
		r.log.Warn("position read failed during recording",
			"path", r.name, "error", err, "failures", r.readErrs)
		return
	}
	if !r.opts.IncludeZ {
		pos.HasZ = false
	}
	if r.havePos && pos.Equal(r.lastPos) {
		return
	}
	r.events = append(r.events, path.Move(pos))
	r.lastIdx = len(r.events) - 1
	r.lastPos = pos
	r.havePos = true
	r.log.Debug("waypoint recorded", "path", r.name, "index", r.lastIdx, "position", pos.String())
}

// RegisterClick appends a mouse click at screen coordinates (x, y), tagged
// with the waypoint the character was on. Clicks inside the debounce window
// and clicks while capture is toggled off are dropped silently.
func (r *Recorder) RegisterClick(button path.Button, x, y int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.armed {
		return ErrNotRecording
	}
	if !r.recordMouse {
		return nil
	}
	now := time.Now()
	if !r.lastClick.IsZero() && now.Sub(r.lastClick) < r.opts.ClickDebounce {
		r.log.Debug("click debounced", "path", r.name, "since_last", now.Sub(r.lastClick))
		return nil
	}
	r.lastClick = now
	r.events = append(r.events, path.Click(button, x, y, r.lastIdx))
	r.log.Info("click recorded",
		"path", r.name, "button", string(button), "screen_x", x, "screen_y", y, "waypoint", r.lastIdx)
	return nil
}

// SetRecordMouse switches click capture mid-session. Waypoint sampling is
// unaffected.
func (r *Recorder) SetRecordMouse(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordMouse = enabled
}

// ToggleRecordMouse flips click capture and reports the new setting.
func (r *Recorder) ToggleRecordMouse() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordMouse = !r.recordMouse
	return r.recordMouse
}

// Stop ends the session and returns the recorded path. The caller decides
// where (and whether) to save it.
func (r *Recorder) Stop() (*path.Path, error) {
	r.mu.Lock()
	if !r.armed {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	stop, done := r.stopChan, r.doneChan
	r.mu.Unlock()

	close(stop)
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = false
	p := &path.Path{
		Name:     r.name,
		Interval: r.opts.Interval,
		IncludeZ: r.opts.IncludeZ,
		Events:   r.events,
	}
	r.events = nil
	moves, clicks := p.Stats()
	r.log.Info("recording stopped", "path", p.Name, "waypoints", moves, "clicks", clicks)
	return p, nil
}
