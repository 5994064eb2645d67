package anonymizer

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-anonymizer/internal/hashing"
)

// runContext carries the per-call state: the frozen config plus the lazily
// computed date shift derived from the PatientID found before any mutation.
// It lives for one anonymize call and is not shared across runs.
type runContext struct {
	cfg *Config

	patientID    string
	hasPatientID bool

	shiftComputed bool
	shift         int
}

// newRunContext captures the PatientID value from the not-yet-mutated main
// dataset so later HashDate actions see the original bytes.
func newRunContext(cfg *Config, mainElements []*dicom.Element) *runContext {
	ctx := &runContext{cfg: cfg}
	for _, e := range mainElements {
		if e.Tag == tag.PatientID {
			if value, err := elementString(e); err == nil {
				ctx.patientID = strings.TrimRight(value, " \x00")
				ctx.hasPatientID = true
			}
			break
		}
	}
	return ctx
}

// dateShift returns the signed day offset for this run, computing and
// memoising it on first use. The offset derives from the PatientID value;
// a missing or empty PatientID is a hard error.
func (ctx *runContext) dateShift() (int, error) {
	if ctx.shiftComputed {
		return ctx.shift, nil
	}
	if !ctx.hasPatientID || ctx.patientID == "" {
		return 0, fmt.Errorf("%w: PatientID (0010,0020) is required to shift dates", ErrMissingReferenceTag)
	}
	ctx.shift = hashing.DigestDays([]byte(ctx.patientID))
	ctx.shiftComputed = true
	return ctx.shift, nil
}
