package store

// HitRecord is one energy deposition. Many hits share an event.
type HitRecord struct {
	EventID int64   `json:"evtid"`
	Energy  float64 `json:"edep"` // keV
	X       float64 `json:"xloc"` // mm
	Y       float64 `json:"yloc"`
	Z       float64 `json:"zloc"`
	Channel int     `json:"det_uid"`
}

// TableInput identifies a hit table and the file it was loaded from. Path
// looks like "stp/det001".
type TableInput struct {
	Path       string
	SourceFile string
	SourceHash string
}

type TableSummary struct {
	Path       string `json:"path"`
	SourceFile string `json:"source_file"`
	Rows       int64  `json:"rows"`
	Events     int64  `json:"events"`
	Channels   []int  `json:"channels"`
}

// HitFilter narrows a hit table read. The zero value of every field other
// than Table means no restriction.
type HitFilter struct {
	Table     string
	Channels  []int
	MinEnergy float64 // keV
	Limit     int
}
