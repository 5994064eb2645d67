package anonymizer

import (
	"errors"
	"fmt"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// Sentinel errors for programmatic handling with errors.Is.
var (
	// ErrConfigInvalid indicates a config field violates a constraint
	// (bad uid_root, unknown action, out-of-range hash length).
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrIncompatibleVR indicates an action was applied to an element whose
	// value representation it does not support.
	ErrIncompatibleVR = errors.New("incompatible value representation")

	// ErrInvalidDateValue indicates a date action saw a value that does not
	// start with a YYYYMMDD date.
	ErrInvalidDateValue = errors.New("invalid date value")

	// ErrMissingReferenceTag indicates a date action could not resolve the
	// PatientID element it derives its offset from.
	ErrMissingReferenceTag = errors.New("missing reference tag")
)

// ProcessingError adds element context (tag and VR) to an action error.
type ProcessingError struct {
	Tag tag.Tag
	VR  string
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing (%04X,%04X) %s: %v", e.Tag.Group, e.Tag.Element, e.VR, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
