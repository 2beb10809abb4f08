package playback

import (
	"github.com/vedantwpatil/Path-Pilot/internal/input"
	"github.com/vedantwpatil/Path-Pilot/internal/path"
)

// stepToward picks the single key press that closes the most distance to
// the target: the axis with the largest remaining absolute delta wins, ties
// broken x before y before z. The screen's y axis grows southward and z
// grows downward (higher z is a lower floor), matching the game's grid.
//
// Exactly one key per control-loop iteration; the loop re-reads the
// position after every press, so diagonals resolve as alternating x/y steps.
func stepToward(cur, target path.Position, includeZ bool) (input.Direction, bool) {
	dx := target.X - cur.X
	dy := target.Y - cur.Y
	dz := 0
	if includeZ && cur.HasZ && target.HasZ {
		dz = target.Z - cur.Z
	}

	ax, ay, az := abs(dx), abs(dy), abs(dz)
	switch {
	case ax == 0 && ay == 0 && az == 0:
		return 0, false
	case ax >= ay && ax >= az:
		if dx > 0 {
			return input.East, true
		}
		return input.West, true
	case ay >= az:
		if dy > 0 {
			return input.South, true
		}
		return input.North, true
	default:
		if dz > 0 {
			return input.Down, true
		}
		return input.Up, true
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
