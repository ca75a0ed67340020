// Package assembly builds the test stand: a germanium crystal at the world
// origin, an aluminium can over it, and a source on a holder plate above.
package assembly

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"

	"teststand/internal/config"
	"teststand/internal/geometry"
	"teststand/internal/hpge"
	"teststand/internal/metadata"
	"teststand/internal/validate"
)

// Volume names used by the stand.
const (
	WorldName        = "world_logical"
	DetectorLogical  = "hpge_logical"
	HolderPhysical   = "al_physical"
	SourceHolderName = "src_holder_physical"
	SourceName       = "src_physical"
)

type Options struct {
	Log logrus.FieldLogger
}

// Stand reports where each stacked component ended up.
type Stand struct {
	Registry    *geometry.Registry
	DetectorTop float64
	HolderZ     float64
	SourceZ     float64
	Report      *validate.Report
}

// Assemble builds the full tree. On any error it returns a nil registry.
func Assemble(meta *metadata.Detector, cfg *config.ProjectConfig, opts Options) (*geometry.Registry, error) {
	stand, err := Build(meta, cfg, opts)
	if err != nil {
		return nil, err
	}
	return stand.Registry, nil
}

// Build is Assemble with the intermediate positions and the validation
// report kept.
func Build(meta *metadata.Detector, cfg *config.ProjectConfig, opts Options) (*Stand, error) {
	log := opts.Log
	if log == nil {
		log = config.NamedLogger("assembly")
	}
	if meta == nil {
		return nil, &metadata.InvalidMetadataError{Key: "(document)", Reason: "no detector metadata"}
	}
	if meta.Raw != nil {
		if err := metadata.FromMap(meta.Raw); err != nil {
			return nil, err
		}
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if _, err := hpge.Profile(meta); err != nil {
		return nil, err
	}

	b := &builder{reg: geometry.NewRegistry(), cfg: cfg, log: log}
	stand, err := b.build(meta)
	if err != nil {
		return nil, fmt.Errorf("assembling test stand: %w", err)
	}
	return stand, nil
}

type builder struct {
	reg *geometry.Registry
	cfg *config.ProjectConfig
	log logrus.FieldLogger
}

func (b *builder) build(meta *metadata.Detector) (*Stand, error) {
	layout := b.cfg.Layout

	world, err := b.world(layout.World)
	if err != nil {
		return nil, err
	}

	top, err := b.detector(meta, world)
	if err != nil {
		return nil, err
	}
	off := Offset{Top: top}
	b.log.WithField("top_mm", top).Debug("placed detector")

	holderZ, off, err := b.holder(layout.Holder, meta, world, off)
	if err != nil {
		return nil, err
	}
	b.log.WithField("z_mm", holderZ).Debug("placed holder")

	sourceZ, _, err := b.source(layout.SourceHolder, layout.Source, world, off)
	if err != nil {
		return nil, err
	}
	b.log.WithField("z_mm", sourceZ).Debug("placed source holder")

	report := validate.Run(b.reg)
	for _, issue := range report.Issues {
		b.log.WithFields(logrus.Fields{"code": issue.Code, "volume": issue.Volume}).Warn(issue.Message)
	}
	if err := report.Err(); err != nil {
		return nil, err
	}

	return &Stand{
		Registry:    b.reg,
		DetectorTop: top,
		HolderZ:     holderZ,
		SourceZ:     sourceZ,
		Report:      report,
	}, nil
}

func (b *builder) world(w config.WorldConfig) (geometry.LogicalID, error) {
	solid, err := b.reg.MakeBox("world_solid", w.Size, w.Size, w.Size, geometry.Millimeter)
	if err != nil {
		return -1, err
	}
	lv, err := b.reg.MakeLogical(solid, w.Material, WorldName)
	if err != nil {
		return -1, err
	}
	return lv, b.reg.SetWorld(lv)
}

// detector places the crystal at the origin, marks it active and returns
// the z of its top face.
func (b *builder) detector(meta *metadata.Detector, world geometry.LogicalID) (float64, error) {
	d := b.cfg.Detector
	lv, err := hpge.Build(b.reg, meta, DetectorLogical)
	if err != nil {
		return 0, err
	}
	pv, err := b.reg.Place(geometry.Transform{}, lv, d.Name, world)
	if err != nil {
		return 0, err
	}
	info := geometry.DetectorInfo{Scheme: d.Scheme, UID: d.UID, Metadata: meta.Raw}
	if err := b.reg.MarkActive(pv, info, false); err != nil {
		return 0, err
	}
	box, err := b.reg.PlacedExtent(pv)
	if err != nil {
		return 0, err
	}
	return box.Max.Z, nil
}

// HolderSolid registers the can: a disk cap with a tube wall hanging from
// its lower face. The union's origin is the centre of the cap.
func HolderSolid(reg *geometry.Registry, h config.HolderConfig) (geometry.SolidID, error) {
	capID, err := reg.MakeTube("al_cap", 0, h.Radius, h.CapThickness, geometry.Millimeter)
	if err != nil {
		return -1, err
	}
	wall, err := reg.MakeTube("al_wall", h.Radius-h.Thickness, h.Radius, h.WallHeight, geometry.Millimeter)
	if err != nil {
		return -1, err
	}
	rel := geometry.Translation(r3.Vec{Z: -(h.WallHeight + h.CapThickness) / 2})
	return reg.MakeUnion("al_solid", capID, wall, rel)
}

func (b *builder) holder(h config.HolderConfig, meta *metadata.Detector, world geometry.LogicalID, off Offset) (float64, Offset, error) {
	if inner := h.Radius - h.Thickness; inner <= meta.Geometry.RadiusInMM {
		return 0, off, fmt.Errorf("%w: holder inner radius %g mm does not clear the crystal radius %g mm",
			geometry.ErrInvalidGeometry, inner, meta.Geometry.RadiusInMM)
	}
	if h.WallHeight < h.Gap+meta.Geometry.HeightInMM {
		b.log.WithField("wall_height_mm", h.WallHeight).Warn("holder wall ends above the bottom of the crystal")
	}

	solid, err := HolderSolid(b.reg, h)
	if err != nil {
		return 0, off, err
	}
	lv, err := b.reg.MakeLogical(solid, h.Material, "al_logical")
	if err != nil {
		return 0, off, err
	}
	if err := b.reg.SetColor(lv, rgba(h.Color)); err != nil {
		return 0, off, err
	}

	half := h.CapThickness / 2
	z, next := off.Stack(h.Gap, half, half)
	if _, err := b.reg.Place(geometry.Translation(r3.Vec{Z: z}), lv, HolderPhysical, world); err != nil {
		return 0, off, err
	}
	return z, next, nil
}

// source stacks the holder plate and puts the source at its centre. The
// source is a daughter of the plate and takes no room of its own.
func (b *builder) source(sh config.SourceHolderConfig, src config.SourceConfig, world geometry.LogicalID, off Offset) (float64, Offset, error) {
	plateSolid, err := b.reg.MakeBox("src_holder_solid", sh.X, sh.Y, sh.Thickness, geometry.Millimeter)
	if err != nil {
		return 0, off, err
	}
	plate, err := b.reg.MakeLogical(plateSolid, sh.Material, "src_holder_logical")
	if err != nil {
		return 0, off, err
	}
	if err := b.reg.SetColor(plate, rgba(sh.Color)); err != nil {
		return 0, off, err
	}

	half := sh.Thickness / 2
	z, next := off.Stack(sh.Gap, half, half)
	if _, err := b.reg.Place(geometry.Translation(r3.Vec{Z: z}), plate, SourceHolderName, world); err != nil {
		return 0, off, err
	}

	srcSolid, err := b.reg.MakeBox("src_solid", src.Size, src.Size, src.Size, geometry.Millimeter)
	if err != nil {
		return 0, off, err
	}
	source, err := b.reg.MakeLogical(srcSolid, src.Material, "src_logical")
	if err != nil {
		return 0, off, err
	}
	if err := b.reg.SetColor(source, rgba(src.Color)); err != nil {
		return 0, off, err
	}
	if _, err := b.reg.Place(geometry.Transform{}, source, SourceName, plate); err != nil {
		return 0, off, err
	}
	return z, next, nil
}

func rgba(c []float64) geometry.RGBA {
	var out geometry.RGBA
	copy(out[:], c)
	return out
}
