package geometry

import (
	"sort"
	"strings"
)

// Output schemes understood by the transport engine's detector registration.
const (
	SchemeGermanium    = "germanium"
	SchemeOptical      = "optical"
	SchemeScintillator = "scintillator"
)

// DetectorInfo marks a physical volume as sensitive.
type DetectorInfo struct {
	Scheme   string
	UID      int
	Metadata map[string]any
}

func (d DetectorInfo) clone() DetectorInfo {
	if d.Metadata != nil {
		meta := make(map[string]any, len(d.Metadata))
		for k, v := range d.Metadata {
			meta[k] = v
		}
		d.Metadata = meta
	}
	return d
}

// ActiveDetector pairs a sensitive volume with its annotation.
type ActiveDetector struct {
	Physical PhysicalID
	Name     string
	Info     DetectorInfo
}

func validScheme(s string) bool {
	switch s {
	case SchemeGermanium, SchemeOptical, SchemeScintillator:
		return true
	}
	return false
}

// MarkActive annotates pv as a sensitive detector. Re-annotating a volume
// with its current channel replaces the stored info. Moving an annotated
// volume to another channel needs allowReplace. A channel can only ever mark
// one volume.
func (r *Registry) MarkActive(pv PhysicalID, info DetectorInfo, allowReplace bool) error {
	if err := r.check(); err != nil {
		return err
	}
	if !r.hasPhysical(pv) {
		return r.fail(invalid("", "physical", "unknown physical volume id %d", pv))
	}
	name := r.physicals[pv].Name
	info.Scheme = strings.ToLower(strings.TrimSpace(info.Scheme))
	if !validScheme(info.Scheme) {
		return r.fail(invalid(name, "scheme", "unknown detector scheme %q", info.Scheme))
	}
	if owner, taken := r.channels[info.UID]; taken && owner != pv {
		return r.fail(&DuplicateChannelError{UID: info.UID, Existing: r.physicals[owner].Name, Volume: name})
	}

	if current := r.physicals[pv].Detector; current != nil && current.UID != info.UID {
		if !allowReplace {
			return r.fail(&AnnotationExistsError{Volume: name, CurrentUID: current.UID, NewUID: info.UID})
		}
		delete(r.channels, current.UID)
	}

	stored := info.clone()
	r.physicals[pv].Detector = &stored
	r.channels[info.UID] = pv
	return nil
}

// ActiveDetectors returns every annotated volume ordered by channel UID.
func (r *Registry) ActiveDetectors() []ActiveDetector {
	out := make([]ActiveDetector, 0, len(r.channels))
	for _, pv := range r.channels {
		p := r.physicals[pv]
		out = append(out, ActiveDetector{Physical: pv, Name: p.Name, Info: p.Detector.clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Info.UID < out[j].Info.UID })
	return out
}
