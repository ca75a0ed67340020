// Package validate checks a built volume tree before it is written out.
package validate

import (
	"fmt"
	"strings"

	"teststand/internal/geometry"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeMissingWorld      = "missing_world"
	codeWorldPlaced       = "world_placed"
	codeUnreachableVolume = "unreachable_volume"
	codeExtrudesMother    = "daughter_extrudes_mother"
	codeExtentUnknown     = "extent_unknown"
	codeEmptyMetadata     = "empty_detector_metadata"
	codeNoActiveDetector  = "no_active_detector"
)

// extentTolerance absorbs rounding in rotated bounding boxes, in mm.
const extentTolerance = 1e-7

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	Volume   string
}

type Report struct {
	Issues []Issue
}

// HasErrors reports whether any issue has error severity.
func (r *Report) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err folds the error-severity issues into a single error, or returns nil.
func (r *Report) Err() error {
	var msgs []string
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			msgs = append(msgs, fmt.Sprintf("%s: %s", issue.Code, issue.Message))
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", geometry.ErrInvalidGeometry, strings.Join(msgs, "; "))
}

func Run(tree Tree) *Report {
	world, ok := tree.World()
	if !ok {
		return &Report{Issues: []Issue{{
			Severity: SeverityError,
			Code:     codeMissingWorld,
			Message:  "no world volume has been set",
		}}}
	}

	logicals := tree.Logicals()
	physicals := tree.Physicals()
	issues := make([]Issue, 0)

	for _, pv := range physicals {
		if pv.Logical == world {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeWorldPlaced,
				Message:  fmt.Sprintf("world volume %s is placed inside %s", logicals[world].Name, logicals[pv.Mother].Name),
				Volume:   pv.Name,
			})
		}
	}

	reachable := reachableFrom(world, logicals, physicals)
	for _, lv := range logicals {
		if !reachable[lv.ID] {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeUnreachableVolume,
				Message:  fmt.Sprintf("logical volume %s is not reachable from the world", lv.Name),
				Volume:   lv.Name,
			})
		}
	}

	issues = append(issues, checkExtents(tree, physicals, reachable)...)
	issues = append(issues, checkDetectors(tree)...)

	return &Report{Issues: issues}
}

func reachableFrom(world geometry.LogicalID, logicals []geometry.LogicalVolume, physicals []geometry.PhysicalVolume) map[geometry.LogicalID]bool {
	seen := map[geometry.LogicalID]bool{world: true}
	queue := []geometry.LogicalID{world}
	for len(queue) > 0 {
		lv := queue[0]
		queue = queue[1:]
		for _, pv := range logicals[lv].Daughters {
			child := physicals[pv].Logical
			if !seen[child] {
				seen[child] = true
				queue = append(queue, child)
			}
		}
	}
	return seen
}

func checkExtents(tree Tree, physicals []geometry.PhysicalVolume, reachable map[geometry.LogicalID]bool) []Issue {
	var issues []Issue
	for _, pv := range physicals {
		if !reachable[pv.Mother] {
			continue
		}
		mother, err := tree.LogicalExtent(pv.Mother)
		if err != nil {
			issues = append(issues, Issue{Severity: SeverityError, Code: codeExtentUnknown, Message: err.Error(), Volume: pv.Name})
			continue
		}
		placed, err := tree.PlacedExtent(pv.ID)
		if err != nil {
			issues = append(issues, Issue{Severity: SeverityError, Code: codeExtentUnknown, Message: err.Error(), Volume: pv.Name})
			continue
		}
		if !mother.Contains(placed, extentTolerance) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeExtrudesMother,
				Message:  fmt.Sprintf("extent %v..%v leaves mother extent %v..%v", placed.Min, placed.Max, mother.Min, mother.Max),
				Volume:   pv.Name,
			})
		}
	}
	return issues
}

func checkDetectors(tree Tree) []Issue {
	active := tree.ActiveDetectors()
	if len(active) == 0 {
		return []Issue{{
			Severity: SeverityWarn,
			Code:     codeNoActiveDetector,
			Message:  "no volume is marked as an active detector",
		}}
	}

	var issues []Issue
	for _, det := range active {
		if len(det.Info.Metadata) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeEmptyMetadata,
				Message:  fmt.Sprintf("channel %d has no detector metadata", det.Info.UID),
				Volume:   det.Name,
			})
		}
	}
	return issues
}
