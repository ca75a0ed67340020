package geometry

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateName    = errors.New("duplicate name")
	ErrInvalidGeometry  = errors.New("invalid geometry")
	ErrCyclicPlacement  = errors.New("cyclic placement")
	ErrWorldAlreadySet  = errors.New("world already set")
	ErrDuplicateChannel = errors.New("duplicate detector channel")
	ErrAnnotationExists = errors.New("volume already annotated")

	// ErrRegistryFailed is returned by every mutation after a registry has
	// rejected an earlier construction step.
	ErrRegistryFailed = errors.New("registry is in a failed state")
)

// DuplicateNameError reports a name that is already taken within one kind
// of registry object.
type DuplicateNameError struct {
	Kind string
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("%s %q already registered", e.Kind, e.Name)
}

func (e *DuplicateNameError) Is(target error) bool { return target == ErrDuplicateName }

// InvalidGeometryError reports a shape or placement parameter that is out of range.
type InvalidGeometryError struct {
	Object  string
	Field   string
	Message string
}

func (e *InvalidGeometryError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid geometry for %q field %s: %s", e.Object, e.Field, e.Message)
	}
	return fmt.Sprintf("invalid geometry for %q: %s", e.Object, e.Message)
}

func (e *InvalidGeometryError) Is(target error) bool { return target == ErrInvalidGeometry }

type CyclicPlacementError struct {
	Child  string
	Parent string
}

func (e *CyclicPlacementError) Error() string {
	return fmt.Sprintf("placing %q inside %q would create a cycle", e.Child, e.Parent)
}

func (e *CyclicPlacementError) Is(target error) bool { return target == ErrCyclicPlacement }

type WorldAlreadySetError struct {
	Current string
}

func (e *WorldAlreadySetError) Error() string {
	return fmt.Sprintf("world volume already set to %q", e.Current)
}

func (e *WorldAlreadySetError) Is(target error) bool { return target == ErrWorldAlreadySet }

type DuplicateChannelError struct {
	UID      int
	Existing string
	Volume   string
}

func (e *DuplicateChannelError) Error() string {
	return fmt.Sprintf("channel %d already marks %q, cannot mark %q", e.UID, e.Existing, e.Volume)
}

func (e *DuplicateChannelError) Is(target error) bool { return target == ErrDuplicateChannel }

// AnnotationExistsError is returned when a volume that is already active
// would be moved to a different channel without allowReplace.
type AnnotationExistsError struct {
	Volume     string
	CurrentUID int
	NewUID     int
}

func (e *AnnotationExistsError) Error() string {
	return fmt.Sprintf("%q is already active as channel %d, refusing to re-annotate as %d", e.Volume, e.CurrentUID, e.NewUID)
}

func (e *AnnotationExistsError) Is(target error) bool { return target == ErrAnnotationExists }

// IsDuplicateName checks if an error is a duplicate name error
func IsDuplicateName(err error) bool { return errors.Is(err, ErrDuplicateName) }

// IsInvalidGeometry checks if an error is an invalid geometry error
func IsInvalidGeometry(err error) bool { return errors.Is(err, ErrInvalidGeometry) }

// IsCyclicPlacement checks if an error is a cyclic placement error
func IsCyclicPlacement(err error) bool { return errors.Is(err, ErrCyclicPlacement) }

func invalid(object, field, format string, args ...any) error {
	return &InvalidGeometryError{Object: object, Field: field, Message: fmt.Sprintf(format, args...)}
}
