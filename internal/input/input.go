// Package input issues simulated key presses and mouse clicks to the
// foreground window. Commands are fire and forget: there is no feedback
// beyond what the caller observes through position reads afterwards.
package input

import (
	"log/slog"
	"time"

	"github.com/go-vgo/robotgo"

	"github.com/vedantwpatil/Path-Pilot/internal/config"
	"github.com/vedantwpatil/Path-Pilot/internal/path"
)

// Direction is one simulated movement key.
type Direction int

const (
	North Direction = iota
	South
	East
	West
	Up
	Down
)

var directionNames = map[Direction]string{
	North: "north",
	South: "south",
	East:  "east",
	West:  "west",
	Up:    "up",
	Down:  "down",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return "unknown"
}

// Actuator is the command side of the control loop.
type Actuator interface {
	// Press holds the key bound to dir for the given duration.
	Press(dir Direction, hold time.Duration)
	// Click moves the cursor to the recorded screen spot and clicks.
	Click(button path.Button, screenX, screenY int)
}

// Keyboard drives the real keyboard and mouse through robotgo.
type Keyboard struct {
	keys config.DirectionKeys
	log  *slog.Logger
}

var _ Actuator = (*Keyboard)(nil)

func NewKeyboard(keys config.DirectionKeys, log *slog.Logger) *Keyboard {
	return &Keyboard{keys: keys, log: log}
}

func (k *Keyboard) keyFor(dir Direction) string {
	switch dir {
	case North:
		return k.keys.North
	case South:
		return k.keys.South
	case East:
		return k.keys.East
	case West:
		return k.keys.West
	case Up:
		return k.keys.Up
	case Down:
		return k.keys.Down
	}
	return ""
}

func (k *Keyboard) Press(dir Direction, hold time.Duration) {
	key := k.keyFor(dir)
	if key == "" {
		k.log.Warn("no key bound for direction", "direction", dir.String())
		return
	}
	if err := robotgo.KeyDown(key); err != nil {
		k.log.Debug("key down failed", "key", key, "error", err)
		return
	}
	time.Sleep(hold)
	if err := robotgo.KeyUp(key); err != nil {
		k.log.Debug("key up failed", "key", key, "error", err)
	}
}

func (k *Keyboard) Click(button path.Button, screenX, screenY int) {
	robotgo.Move(screenX, screenY)
	// Give the window a beat to register the cursor before the click lands.
	robotgo.MilliSleep(100)
	robotgo.Click(string(button), false)
}
