package anonymizer

import (
	"github.com/suyashkumar/dicom"
)

// DecisionKind classifies the outcome of processing one element.
type DecisionKind uint8

const (
	// DecisionKeep leaves the element as it is.
	DecisionKeep DecisionKind = iota
	// DecisionReplace swaps the element for Decision.Elem.
	DecisionReplace
	// DecisionDelete removes the element from its dataset.
	DecisionDelete
)

// Decision is the processor's verdict for a single element.
type Decision struct {
	Kind DecisionKind
	Elem *dicom.Element
}

// processElement resolves the action for one non-sequence element and runs
// it. Descent into sequences is the walker's responsibility. Action errors
// come back as a *ProcessingError carrying tag and VR.
func processElement(e *dicom.Element, ctx *runContext) (Decision, error) {
	action, found := ctx.cfg.ActionFor(e.Tag)
	if !found {
		return Decision{Kind: DecisionKeep}, nil
	}

	var replacement *dicom.Element
	var err error
	switch action.Kind {
	case ActionKeep, ActionNone:
		return Decision{Kind: DecisionKeep}, nil
	case ActionRemove:
		return Decision{Kind: DecisionDelete}, nil
	case ActionEmpty:
		replacement, err = applyEmpty(e)
	case ActionReplace:
		replacement, err = applyReplace(e, action.Value)
	case ActionHash:
		replacement, err = applyHash(e, action.Length)
	case ActionHashDate:
		var shift int
		shift, err = ctx.dateShift()
		if err == nil {
			replacement, err = applyHashDate(e, shift)
		}
	case ActionHashUID:
		replacement, err = applyHashUID(e, ctx.cfg.UIDRoot())
	}
	if err != nil {
		return Decision{}, &ProcessingError{Tag: e.Tag, VR: e.RawValueRepresentation, Err: err}
	}
	if replacement == e {
		// Zero-length passthrough from the hash actions.
		return Decision{Kind: DecisionKeep}, nil
	}
	return Decision{Kind: DecisionReplace, Elem: replacement}, nil
}
