package validate

import (
	"teststand/internal/geometry"
)

// Tree is the read side of a geometry registry that validation needs.
type Tree interface {
	World() (geometry.LogicalID, bool)
	Logicals() []geometry.LogicalVolume
	Physicals() []geometry.PhysicalVolume
	LogicalExtent(lv geometry.LogicalID) (geometry.Box, error)
	PlacedExtent(pv geometry.PhysicalID) (geometry.Box, error)
	ActiveDetectors() []geometry.ActiveDetector
}

var _ Tree = (*geometry.Registry)(nil)
