package playback

import (
	"testing"

	"github.com/vedantwpatil/Path-Pilot/internal/input"
	"github.com/vedantwpatil/Path-Pilot/internal/path"
)

func TestStepToward(t *testing.T) {
	at := func(x, y, z int) path.Position {
		return path.Position{X: x, Y: y, Z: z, HasZ: true}
	}

	tests := []struct {
		name     string
		cur      path.Position
		target   path.Position
		includeZ bool
		want     input.Direction
		ok       bool
	}{
		{"east", at(0, 0, 7), at(3, 0, 7), true, input.East, true},
		{"west", at(3, 0, 7), at(0, 0, 7), true, input.West, true},
		{"south is +y", at(0, 0, 7), at(0, 2, 7), true, input.South, true},
		{"north is -y", at(0, 2, 7), at(0, 0, 7), true, input.North, true},
		{"down is +z", at(0, 0, 7), at(0, 0, 8), true, input.Down, true},
		{"up is -z", at(0, 0, 8), at(0, 0, 7), true, input.Up, true},
		{"largest axis wins", at(0, 0, 7), at(1, 5, 7), true, input.South, true},
		{"x beats y on tie", at(0, 0, 7), at(2, 2, 7), true, input.East, true},
		{"x beats z on tie", at(0, 0, 7), at(1, 0, 8), true, input.East, true},
		{"y beats z on tie", at(0, 0, 7), at(0, 1, 8), true, input.South, true},
		{"z ignored when disabled", at(0, 0, 7), at(0, 0, 8), false, 0, false},
		{"z ignored without readings", path.Position{}, path.Position{Z: 8}, true, 0, false},
		{"already there", at(4, 4, 7), at(4, 4, 7), true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, ok := stepToward(tt.cur, tt.target, tt.includeZ)
			if ok != tt.ok {
				t.Fatalf("stepToward(%s, %s) ok = %v, want %v", tt.cur, tt.target, ok, tt.ok)
			}
			if ok && dir != tt.want {
				t.Fatalf("stepToward(%s, %s) = %s, want %s", tt.cur, tt.target, dir, tt.want)
			}
		})
	}
}
