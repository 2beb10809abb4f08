package path

import (
	"testing"
	"time"
)

func samplePath() *Path {
	return &Path{
		Name:     "cave-run",
		Interval: 100 * time.Millisecond,
		IncludeZ: true,
		Events: []Event{
			Move(Position{X: 100, Y: 200, Z: 7, HasZ: true}),
			Move(Position{X: 101, Y: 200, Z: 7, HasZ: true}),
			Click(ButtonRight, 640, 480, 1),
			Move(Position{X: 101, Y: 201, Z: 7, HasZ: true}),
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := samplePath()

	data, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	got, err := Decode("cave-run", data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestRoundTripWithoutZ(t *testing.T) {
	want := &Path{
		Name:     "flat",
		Interval: 250 * time.Millisecond,
		Events: []Event{
			Move(Position{X: 0, Y: 0}),
			Move(Position{X: 1, Y: 0}),
		},
	}
	data, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	got, err := Decode("flat", data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	if got.Events[0].Pos.HasZ {
		t.Fatal("z axis appeared on a path recorded without it")
	}
}

func TestDecodeLegacyArray(t *testing.T) {
	// The original bot wrote bare arrays; clicks carried screen coordinates
	// but no waypoint tag.
	data := []byte(`[
		{"type": "move", "x": 10, "y": 20, "z": 5},
		{"type": "move", "x": 11, "y": 20, "z": 5},
		{"type": "click", "screen_x": 300, "screen_y": 400, "button": "left"},
		{"type": "move", "x": 12, "y": 20, "z": 5}
	]`)

	p, err := Decode("old", data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(p.Events) != 4 {
		t.Fatalf("got %d events, want 4", len(p.Events))
	}
	if !p.IncludeZ {
		t.Fatal("IncludeZ not inferred from legacy entries")
	}
	click := p.Events[2]
	if click.Kind != KindClick || click.Button != ButtonLeft {
		t.Fatalf("unexpected click event: %+v", click)
	}
	if click.AtWaypoint != 1 {
		t.Fatalf("click tagged at waypoint %d, want 1", click.AtWaypoint)
	}
}

func TestDecodeLegacyUntypedEntries(t *testing.T) {
	data := []byte(`[{"x": 1, "y": 2}, {"x": 2, "y": 2}]`)
	p, err := Decode("ancient", data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if moves, clicks := p.Stats(); moves != 2 || clicks != 0 {
		t.Fatalf("got %d moves %d clicks, want 2 moves", moves, clicks)
	}
	if p.IncludeZ {
		t.Fatal("IncludeZ set for entries without z")
	}
}

func TestPositionEqualExactMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b Position
		want bool
	}{
		{"same", Position{X: 1, Y: 2, Z: 3, HasZ: true}, Position{X: 1, Y: 2, Z: 3, HasZ: true}, true},
		{"off by one x", Position{X: 1, Y: 2}, Position{X: 2, Y: 2}, false},
		{"z mismatch", Position{X: 1, Y: 2, Z: 3, HasZ: true}, Position{X: 1, Y: 2, Z: 4, HasZ: true}, false},
		{"z untracked on one side", Position{X: 1, Y: 2, Z: 3, HasZ: true}, Position{X: 1, Y: 2}, true},
	}
	for _, tc := range tests {
		if got := tc.a.Equal(tc.b); got != tc.want {
			t.Errorf("%s: Equal = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestGaps(t *testing.T) {
	p := &Path{
		Name: "jumpy",
		Events: []Event{
			Move(Position{X: 0, Y: 0}),
			Move(Position{X: 1, Y: 1}), // diagonal, one step
			Click(ButtonLeft, 0, 0, 1),
			Move(Position{X: 4, Y: 1}), // three units east
		},
	}
	gaps := p.Gaps()
	if len(gaps) != 1 {
		t.Fatalf("got %d gaps, want 1", len(gaps))
	}
	if gaps[0].Distance != 3 || gaps[0].FromIndex != 1 {
		t.Fatalf("unexpected gap: %+v", gaps[0])
	}
}

func TestPauseStateRoundTrip(t *testing.T) {
	st := PauseState{
		PathName: "cave-run",
		Index:    3,
		Position: Position{X: 101, Y: 201, Z: 7, HasZ: true},
		SavedAt:  time.Date(2025, 4, 12, 9, 30, 0, 0, time.UTC),
	}
	data, err := st.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON error: %v", err)
	}
	var got PauseState
	if err := got.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON error: %v", err)
	}
	if got != st {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, st)
	}
}
