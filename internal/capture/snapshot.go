// Package capture saves screenshots of the primary display. The playback
// engine calls it when a run fails so the operator can see what blocked the
// character.
package capture

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/kbinani/screenshot"
)

// Snapshot captures the primary display into dir as a timestamped PNG named
// after the failing path and returns the file written.
func Snapshot(dir, pathName string) (string, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return "", fmt.Errorf("capture: no active displays")
	}
	bounds := screenshot.GetDisplayBounds(0)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return "", fmt.Errorf("capture: grab display: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("capture: create %s: %w", dir, err)
	}
	name := fmt.Sprintf("%s-failed-%s.png", pathName, time.Now().Format("20060102-150405"))
	full := filepath.Join(dir, name)

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("capture: create %s: %w", full, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("capture: encode %s: %w", full, err)
	}
	return full, nil
}
