// Package scene writes the viewer description that sits next to a GDML
// file: camera positions plus point overlays drawn from hit tables.
package scene

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Camera is a viewpoint in mm.
type Camera struct {
	Focus  [3]float64 `yaml:"focus,flow"`
	Up     [3]float64 `yaml:"up,flow"`
	Camera [3]float64 `yaml:"camera,flow"`
}

// Points overlays the positions stored in Columns of Table.
type Points struct {
	File    string     `yaml:"file"`
	Table   string     `yaml:"table"`
	Columns []string   `yaml:"columns,flow"`
	Color   [4]float64 `yaml:"color,flow"`
}

type Scene struct {
	FineMesh bool     `yaml:"fine_mesh"`
	Default  Camera   `yaml:"default"`
	Scenes   []Camera `yaml:"scenes,omitempty"`
	Points   []Points `yaml:"points,omitempty"`
}

var overlayColors = [][4]float64{
	{0, 1, 0, 1},
	{0, 0, 1, 1},
	{1, 0, 1, 1},
	{1, 1, 0, 1},
}

// Default looks down the beam axis from distance mm away with a side view
// as a second scene, and overlays the positions of each table in hitFile.
func Default(hitFile string, distance float64, tables ...string) Scene {
	s := Scene{
		FineMesh: true,
		Default:  Camera{Up: [3]float64{1, 0, 0}, Camera: [3]float64{0, 0, distance}},
		Scenes: []Camera{
			{Up: [3]float64{0, 0, 1}, Camera: [3]float64{-distance, 0, 0}},
		},
	}
	for i, table := range tables {
		s.Points = append(s.Points, Points{
			File:    hitFile,
			Table:   table,
			Columns: []string{"xloc", "yloc", "zloc"},
			Color:   overlayColors[i%len(overlayColors)],
		})
	}
	return s
}

func Write(w io.Writer, s Scene) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding scene: %w", err)
	}
	return enc.Close()
}

func WriteFile(path string, s Scene) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating scene file: %w", err)
	}
	if err := Write(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
