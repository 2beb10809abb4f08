// Package hotkeys turns global key presses and mouse clicks into control
// signals. The hooks are system-wide, so the operator keeps the game window
// focused while driving the bot.
package hotkeys

import (
	"log/slog"

	hook "github.com/robotn/gohook"

	"github.com/vedantwpatil/Path-Pilot/internal/path"
)

// Kind identifies a control signal.
type Kind int

const (
	// StartStop toggles recording or playback depending on what is active.
	StartStop Kind = iota + 1
	// PauseResume suspends or continues a playback run.
	PauseResume
	// ToggleMouse flips click capture during a recording session.
	ToggleMouse
	// Escape stops whatever is active immediately. Always bound to the
	// escape key, not configurable.
	Escape
	// MouseClick is a click the operator made; X and Y are screen
	// coordinates from the hook event.
	MouseClick
)

var kindNames = map[Kind]string{
	StartStop:   "start-stop",
	PauseResume: "pause-resume",
	ToggleMouse: "toggle-mouse",
	Escape:      "escape",
	MouseClick:  "mouse-click",
}

func (k Kind) String() string { return kindNames[k] }

// Signal is one hotkey or mouse event. Button, X and Y are set only for
// MouseClick.
type Signal struct {
	Kind   Kind
	Button path.Button
	X, Y   int
}

// Bindings are the key names (gohook's flat names, e.g. "f8") assigned to
// each control signal.
type Bindings struct {
	StartStop   string
	PauseResume string
	ToggleMouse string
}

// Dispatcher owns the global hook. Signals are delivered on a buffered
// channel; if the consumer falls behind, events are dropped rather than
// blocking the hook callback.
type Dispatcher struct {
	bindings Bindings
	log      *slog.Logger
	signals  chan Signal
}

func New(bindings Bindings, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		bindings: bindings,
		log:      log,
		signals:  make(chan Signal, 16),
	}
}

// Signals is the stream of operator input.
func (d *Dispatcher) Signals() <-chan Signal { return d.signals }

// Run registers the hooks and blocks processing events until Close is
// called. Call it from its own goroutine.
func (d *Dispatcher) Run() {
	register := func(key string, kind Kind) {
		if key == "" {
			return
		}
		hook.Register(hook.KeyDown, []string{key}, func(hook.Event) {
			d.emit(Signal{Kind: kind})
		})
		d.log.Info("hotkey registered", "key", key, "signal", kind.String())
	}
	register(d.bindings.StartStop, StartStop)
	register(d.bindings.PauseResume, PauseResume)
	register(d.bindings.ToggleMouse, ToggleMouse)
	register("esc", Escape)

	hook.Register(hook.MouseDown, []string{}, func(e hook.Event) {
		button, ok := buttonName(e.Button)
		if !ok {
			return
		}
		d.emit(Signal{Kind: MouseClick, Button: button, X: int(e.X), Y: int(e.Y)})
	})

	events := hook.Start()
	<-hook.Process(events)
	close(d.signals)
}

// Close stops the hook; Run returns and the signal channel closes.
func (d *Dispatcher) Close() { hook.End() }

func (d *Dispatcher) emit(s Signal) {
	select {
	case d.signals <- s:
	default:
		d.log.Warn("dropping input event, consumer too slow", "signal", s.Kind.String())
	}
}

func buttonName(code uint16) (path.Button, bool) {
	switch code {
	case hook.MouseMap["left"]:
		return path.ButtonLeft, true
	case hook.MouseMap["right"]:
		return path.ButtonRight, true
	case hook.MouseMap["center"]:
		return path.ButtonMiddle, true
	default:
		return "", false
	}
}
