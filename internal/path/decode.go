package path

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// pathJSON is the on-disk form. The record interval is stored in seconds to
// stay readable next to the config file, which uses the same unit.
type pathJSON struct {
	Name     string  `json:"name"`
	Interval float64 `json:"record_interval"`
	IncludeZ bool    `json:"include_z"`
	Events   []Event `json:"events"`
}

// Encode serializes a path to its JSON file format.
func Encode(p *Path) ([]byte, error) {
	out := pathJSON{
		Name:     p.Name,
		Interval: p.Interval.Seconds(),
		IncludeZ: p.IncludeZ,
		Events:   p.Events,
	}
	return json.MarshalIndent(out, "", "  ")
}

// Decode parses a path file. Early versions of the bot wrote a bare JSON
// array of actions with no surrounding metadata (and the very first ones had
// no "type" field at all, every entry being a move); those files are still
// accepted and upgraded on the fly.
func Decode(name string, data []byte) (*Path, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("path %q: invalid JSON", name)
	}
	root := gjson.ParseBytes(data)
	if root.IsArray() {
		return decodeLegacy(name, root)
	}

	var in pathJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("path %q: %w", name, err)
	}
	p := &Path{
		Name:     name,
		Interval: time.Duration(in.Interval * float64(time.Second)),
		IncludeZ: in.IncludeZ,
		Events:   in.Events,
	}
	if in.Name != "" {
		p.Name = in.Name
	}
	return p, nil
}

func decodeLegacy(name string, root gjson.Result) (*Path, error) {
	p := &Path{Name: name}
	var decodeErr error
	lastWaypoint := 0
	root.ForEach(func(_, item gjson.Result) bool {
		kind := Kind(item.Get("type").String())
		if kind == "" {
			kind = KindMove
		}
		switch kind {
		case KindMove:
			pos := Position{
				X: int(item.Get("x").Int()),
				Y: int(item.Get("y").Int()),
			}
			if z := item.Get("z"); z.Exists() {
				pos.Z = int(z.Int())
				pos.HasZ = true
				p.IncludeZ = true
			}
			p.Events = append(p.Events, Move(pos))
			lastWaypoint = len(p.Events) - 1
		case KindClick:
			button := Button(item.Get("button").String())
			if button == "" {
				button = ButtonLeft
			}
			p.Events = append(p.Events, Click(
				button,
				int(item.Get("screen_x").Int()),
				int(item.Get("screen_y").Int()),
				lastWaypoint,
			))
		default:
			decodeErr = fmt.Errorf("path %q: unknown action type %q", name, kind)
			return false
		}
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return p, nil
}
