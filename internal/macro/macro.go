// Package macro writes the transport engine commands that register each
// active detector volume as a sensitive detector.
package macro

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"teststand/internal/geometry"
)

const registerCommand = "/RMG/Geometry/RegisterDetector"

// Source is satisfied by *geometry.Registry.
type Source interface {
	ActiveDetectors() []geometry.ActiveDetector
}

// Write emits one RegisterDetector line per channel, ordered by UID.
func Write(w io.Writer, src Source) error {
	bw := bufio.NewWriter(w)
	for _, det := range src.ActiveDetectors() {
		if _, err := fmt.Fprintf(bw, "%s %s %s %d\n", registerCommand, schemeName(det.Info.Scheme), det.Name, det.Info.UID); err != nil {
			return fmt.Errorf("writing macro: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing macro: %w", err)
	}
	return nil
}

func WriteFile(path string, src Source) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating macro file: %w", err)
	}
	if err := Write(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// schemeName turns "germanium" into "Germanium".
func schemeName(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
