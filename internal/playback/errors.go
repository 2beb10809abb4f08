package playback

import (
	"errors"
	"fmt"

	"github.com/vedantwpatil/Path-Pilot/internal/path"
)

// ErrBusy is returned by Start while another run is active. Only one run
// may be in flight at a time.
var ErrBusy = errors.New("playback: a run is already active")

// ErrInvalidState is returned when a control signal does not apply to the
// engine's current state, e.g. pause while idle or resume while running.
var ErrInvalidState = errors.New("playback: operation not valid in current state")

// errStopRequested threads an operator stop through the run loop. It never
// escapes the engine.
var errStopRequested = errors.New("playback: stop requested")

// StallError reports a waypoint the character never reached: the position
// stopped changing (or stopped being readable) and the retry budget ran out.
type StallError struct {
	PathName string
	Index    int
	Target   path.Position
	LastPos  path.Position
	Retries  int
}

func (e *StallError) Error() string {
	return fmt.Sprintf("playback: path %q stalled at event %d: target %s, last known position %s after %d retries",
		e.PathName, e.Index, e.Target, e.LastPos, e.Retries)
}
