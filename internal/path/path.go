package path

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates the action types stored in a recorded path.
type Kind string

const (
	KindMove  Kind = "move"
	KindClick Kind = "click"
)

// Button identifies a mouse button on click events.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// Position is a character coordinate read from game memory. Z is only
// meaningful when HasZ is set (the bot can be configured to ignore floors).
type Position struct {
	X    int
	Y    int
	Z    int
	HasZ bool
}

func (p Position) String() string {
	if p.HasZ {
		return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
	}
	return fmt.Sprintf("(%d, %d)", p.X, p.Y)
}

// Equal reports whether two positions match exactly on every tracked axis.
// Movement is grid based, so there is no tolerance band: one unit off is
// not arrived.
func (p Position) Equal(other Position) bool {
	if p.X != other.X || p.Y != other.Y {
		return false
	}
	if p.HasZ && other.HasZ {
		return p.Z == other.Z
	}
	return true
}

// GridDistance returns the Chebyshev distance between two positions,
// which is the number of single steps (diagonals allowed) between them.
func (p Position) GridDistance(other Position) int {
	dx := abs(other.X - p.X)
	dy := abs(other.Y - p.Y)
	if dx > dy {
		return dx
	}
	return dy
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Event is a single recorded action: either a waypoint the character
// walked through or a mouse click. The Kind field selects which of the
// remaining fields are meaningful.
type Event struct {
	Kind Kind

	// Move fields.
	Pos Position

	// Click fields. AtWaypoint is the index (into Events) of the most
	// recent waypoint at the time of the click; ScreenX/ScreenY is where
	// the cursor was so the click can be replayed at the same spot.
	Button     Button
	ScreenX    int
	ScreenY    int
	AtWaypoint int
}

// Move builds a waypoint event.
func Move(pos Position) Event {
	return Event{Kind: KindMove, Pos: pos}
}

// Click builds a mouse click event tagged with the waypoint it happened at.
func Click(button Button, screenX, screenY, atWaypoint int) Event {
	return Event{
		Kind:       KindClick,
		Button:     button,
		ScreenX:    screenX,
		ScreenY:    screenY,
		AtWaypoint: atWaypoint,
	}
}

// eventJSON is the wire form of Event. Pointers keep zero coordinates
// round-tripping while still omitting fields that do not apply to the kind.
type eventJSON struct {
	Kind    Kind   `json:"type"`
	X       *int   `json:"x,omitempty"`
	Y       *int   `json:"y,omitempty"`
	Z       *int   `json:"z,omitempty"`
	Button  Button `json:"button,omitempty"`
	ScreenX *int   `json:"screen_x,omitempty"`
	ScreenY *int   `json:"screen_y,omitempty"`
	At      *int   `json:"at_waypoint,omitempty"`
}

func (e Event) MarshalJSON() ([]byte, error) {
	out := eventJSON{Kind: e.Kind}
	switch e.Kind {
	case KindMove:
		x, y := e.Pos.X, e.Pos.Y
		out.X, out.Y = &x, &y
		if e.Pos.HasZ {
			z := e.Pos.Z
			out.Z = &z
		}
	case KindClick:
		sx, sy, at := e.ScreenX, e.ScreenY, e.AtWaypoint
		out.Button = e.Button
		out.ScreenX, out.ScreenY = &sx, &sy
		out.At = &at
	default:
		return nil, fmt.Errorf("path: unknown event kind %q", e.Kind)
	}
	return json.Marshal(out)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var in eventJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case KindMove:
		if in.X == nil || in.Y == nil {
			return fmt.Errorf("path: move event without coordinates")
		}
		*e = Event{Kind: KindMove, Pos: Position{X: *in.X, Y: *in.Y}}
		if in.Z != nil {
			e.Pos.Z = *in.Z
			e.Pos.HasZ = true
		}
	case KindClick:
		*e = Event{Kind: KindClick, Button: in.Button}
		if in.ScreenX != nil {
			e.ScreenX = *in.ScreenX
		}
		if in.ScreenY != nil {
			e.ScreenY = *in.ScreenY
		}
		if in.At != nil {
			e.AtWaypoint = *in.At
		}
	default:
		return fmt.Errorf("path: unknown event kind %q", in.Kind)
	}
	return nil
}

// Path is a named, ordered sequence of recorded events plus the recording
// settings that produced it. A path is read-only once the recorder returns
// it; insertion order is the replay order.
type Path struct {
	Name     string
	Interval time.Duration
	IncludeZ bool
	Events   []Event
}

// Equal reports exact ordered-event equality, the property persisted paths
// must keep through a save/load round trip.
func (p *Path) Equal(other *Path) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.Name != other.Name || p.Interval != other.Interval || p.IncludeZ != other.IncludeZ {
		return false
	}
	if len(p.Events) != len(other.Events) {
		return false
	}
	for i := range p.Events {
		if p.Events[i] != other.Events[i] {
			return false
		}
	}
	return true
}

// Stats counts events by kind.
func (p *Path) Stats() (moves, clicks int) {
	for _, ev := range p.Events {
		switch ev.Kind {
		case KindMove:
			moves++
		case KindClick:
			clicks++
		}
	}
	return moves, clicks
}

// Gap describes two consecutive waypoints recorded more than one grid unit
// apart, usually a sign the record interval was too slow for the walk speed.
type Gap struct {
	FromIndex int
	From      Position
	To        Position
	Distance  int
}

// Gaps scans the waypoint sequence for jumps larger than a single step.
// Playback still handles them (it walks the gap one step at a time) but the
// operator should be warned before a run starts.
func (p *Path) Gaps() []Gap {
	var gaps []Gap
	lastIdx := -1
	for i, ev := range p.Events {
		if ev.Kind != KindMove {
			continue
		}
		if lastIdx >= 0 {
			prev := p.Events[lastIdx].Pos
			if d := prev.GridDistance(ev.Pos); d > 1 {
				gaps = append(gaps, Gap{FromIndex: lastIdx, From: prev, To: ev.Pos, Distance: d})
			}
		}
		lastIdx = i
	}
	return gaps
}

// PauseState is the durable checkpoint written when a run pauses or fails.
// Its absence means no pause is in progress for the path.
type PauseState struct {
	PathName string    `json:"path_name"`
	Index    int       `json:"current_index"`
	Position Position  `json:"-"`
	SavedAt  time.Time `json:"timestamp"`
}

// pauseJSON keeps the position inline without forcing HasZ into the file.
type pauseJSON struct {
	PathName string    `json:"path_name"`
	Index    int       `json:"current_index"`
	X        int       `json:"x"`
	Y        int       `json:"y"`
	Z        *int      `json:"z,omitempty"`
	SavedAt  time.Time `json:"timestamp"`
}

func (s PauseState) MarshalJSON() ([]byte, error) {
	out := pauseJSON{PathName: s.PathName, Index: s.Index, X: s.Position.X, Y: s.Position.Y, SavedAt: s.SavedAt}
	if s.Position.HasZ {
		z := s.Position.Z
		out.Z = &z
	}
	return json.Marshal(out)
}

func (s *PauseState) UnmarshalJSON(data []byte) error {
	var in pauseJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = PauseState{
		PathName: in.PathName,
		Index:    in.Index,
		Position: Position{X: in.X, Y: in.Y},
		SavedAt:  in.SavedAt,
	}
	if in.Z != nil {
		s.Position.Z = *in.Z
		s.Position.HasZ = true
	}
	return nil
}
