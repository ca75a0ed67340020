package config

import (
	"fmt"
	"strings"
)

// Columns maps hit fields onto the header names of an ingested table.
type Columns struct {
	EventID string `yaml:"event_id"`
	Energy  string `yaml:"energy"`
	X       string `yaml:"x"`
	Y       string `yaml:"y"`
	Z       string `yaml:"z"`
	Channel string `yaml:"channel"`
}

// DefaultColumns follows the naming of the transport engine's step output.
func DefaultColumns() Columns {
	return Columns{
		EventID: "evtid",
		Energy:  "edep",
		X:       "xloc",
		Y:       "yloc",
		Z:       "zloc",
		Channel: "det_uid",
	}
}

func (c *Columns) applyDefaults() {
	def := DefaultColumns()
	setString(&c.EventID, def.EventID)
	setString(&c.Energy, def.Energy)
	setString(&c.X, def.X)
	setString(&c.Y, def.Y)
	setString(&c.Z, def.Z)
	setString(&c.Channel, def.Channel)
}

// Names returns the header names in hit field order.
func (c Columns) Names() []string {
	return []string{c.EventID, c.Energy, c.X, c.Y, c.Z, c.Channel}
}

func (c Columns) validate() error {
	seen := make(map[string]struct{})
	for _, name := range c.Names() {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return fmt.Errorf("ingest column names are required")
		}
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate ingest column: %s", name)
		}
		seen[key] = struct{}{}
	}
	return nil
}
