package assembly

// Offset is the running position along +z of the top of the last stacked
// component, in mm. It is a value: each step returns the next one.
type Offset struct {
	Top float64
}

// Stack places a component gap above the current top. below and above are
// the component's extents under and over its own origin. It returns where
// the origin goes and the offset for the next component.
func (o Offset) Stack(gap, below, above float64) (float64, Offset) {
	centre := o.Top + gap + below
	return centre, Offset{Top: centre + above}
}
