package anonymizer

import (
	"fmt"
	"sort"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// anonymizeDataset rewrites ds in place: the main dataset is walked in tag
// order (recursing into sequence items), group length elements are stripped,
// and the file meta group is reconciled with the post-anonymization SOP
// Instance UID. Any element error aborts the run; no partial dataset is kept.
func anonymizeDataset(ds *dicom.Dataset, cfg *Config) error {
	var meta, main []*dicom.Element
	for _, e := range ds.Elements {
		if isFileMeta(e.Tag) {
			if !isGroupLength(e.Tag) {
				meta = append(meta, e)
			}
			continue
		}
		main = append(main, e)
	}

	// The PatientID must be captured before any mutation can remove or
	// overwrite it.
	ctx := newRunContext(cfg, main)

	walked, err := walkElements(main, ctx)
	if err != nil {
		return err
	}

	reconcileFileMeta(meta, walked)

	sortByTag(meta)
	ds.Elements = append(meta, walked...)
	return nil
}

// walkElements applies the rule set to one dataset level and returns the
// surviving elements in ascending tag order. Sequence elements recurse into
// their item datasets with the same resolver, so bulk policies hold at any
// depth.
func walkElements(elems []*dicom.Element, ctx *runContext) ([]*dicom.Element, error) {
	sorted := make([]*dicom.Element, len(elems))
	copy(sorted, elems)
	sortByTag(sorted)

	out := make([]*dicom.Element, 0, len(sorted))
	for _, e := range sorted {
		if isGroupLength(e.Tag) {
			continue
		}
		if isSequenceVR(e.RawValueRepresentation) {
			kept, err := walkSequence(e, ctx)
			if err != nil {
				return nil, err
			}
			if kept != nil {
				out = append(out, kept)
			}
			continue
		}
		decision, err := processElement(e, ctx)
		if err != nil {
			return nil, err
		}
		switch decision.Kind {
		case DecisionKeep:
			out = append(out, e)
		case DecisionReplace:
			out = append(out, decision.Elem)
		case DecisionDelete:
		}
	}
	return out, nil
}

// walkSequence handles an SQ element. An explicit rule may remove, keep or
// empty the sequence as a whole; any other configured action is incompatible
// with SQ. Without a rule the element stays and each item dataset is walked.
func walkSequence(e *dicom.Element, ctx *runContext) (*dicom.Element, error) {
	action, found := ctx.cfg.ActionFor(e.Tag)
	if found {
		switch action.Kind {
		case ActionRemove:
			return nil, nil
		case ActionKeep, ActionNone:
			return e, nil
		case ActionEmpty:
			emptied, err := applyEmpty(e)
			if err != nil {
				return nil, &ProcessingError{Tag: e.Tag, VR: e.RawValueRepresentation, Err: err}
			}
			return emptied, nil
		default:
			err := fmt.Errorf("%w: action not applicable to a sequence", ErrIncompatibleVR)
			return nil, &ProcessingError{Tag: e.Tag, VR: e.RawValueRepresentation, Err: err}
		}
	}

	if e.Value == nil {
		return e, nil
	}
	items, ok := e.Value.GetValue().([]*dicom.SequenceItemValue)
	if !ok {
		return e, nil
	}
	walkedItems := make([][]*dicom.Element, 0, len(items))
	for _, item := range items {
		itemElems, ok := item.GetValue().([]*dicom.Element)
		if !ok {
			continue
		}
		walked, err := walkElements(itemElems, ctx)
		if err != nil {
			return nil, err
		}
		walkedItems = append(walkedItems, walked)
	}
	rebuilt, err := newElement(e.Tag, e.RawValueRepresentation, walkedItems)
	if err != nil {
		return nil, &ProcessingError{Tag: e.Tag, VR: e.RawValueRepresentation, Err: err}
	}
	return rebuilt, nil
}

// reconcileFileMeta keeps (0002,0003) MediaStorageSOPInstanceUID equal to the
// post-anonymization (0008,0018) SOPInstanceUID. Other meta attributes are
// the codec's business and are left alone.
func reconcileFileMeta(meta, main []*dicom.Element) {
	var sopInstanceUID string
	for _, e := range main {
		if e.Tag == tag.SOPInstanceUID {
			if value, err := elementString(e); err == nil {
				sopInstanceUID = value
			}
			break
		}
	}
	if sopInstanceUID == "" {
		return
	}
	for _, e := range meta {
		if e.Tag == tag.MediaStorageSOPInstanceUID {
			if updated, err := newElement(e.Tag, e.RawValueRepresentation, []string{sopInstanceUID}); err == nil {
				*e = *updated
			}
			return
		}
	}
}

func sortByTag(elems []*dicom.Element) {
	sort.SliceStable(elems, func(i, j int) bool {
		return compareTags(elems[i].Tag, elems[j].Tag) < 0
	})
}
