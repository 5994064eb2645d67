package anonymizer

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-anonymizer/internal/hashing"
)

// ActionKind identifies one of the eight element transforms.
type ActionKind uint8

const (
	// ActionNone leaves the element untouched. It exists so a serialized
	// config can explicitly disable a default-profile entry.
	ActionNone ActionKind = iota
	// ActionEmpty replaces the value with the zero-length value for the VR.
	ActionEmpty
	// ActionRemove deletes the element from the dataset.
	ActionRemove
	// ActionKeep leaves the element untouched; used to override a bulk
	// removal policy for a specific tag.
	ActionKeep
	// ActionReplace writes a fixed string value.
	ActionReplace
	// ActionHash replaces a string value with a truncated hex digest.
	ActionHash
	// ActionHashDate shifts a date by a per-run offset derived from PatientID.
	ActionHashDate
	// ActionHashUID re-mints a UID under the configured UID root.
	ActionHashUID
)

// Hash length bounds for ActionHash (characters of the hex digest).
const (
	MinHashLength = 8
	MaxHashLength = 64
)

// Action is the per-tag rule resolved by the config. The variant set is
// closed; the processor matches it exhaustively.
type Action struct {
	Kind ActionKind

	// Value is the replacement string for ActionReplace.
	Value string

	// Length is the digest length for ActionHash; 0 selects the default (16).
	Length int
}

// NoAction, Empty, Remove, Keep, Replace, Hash, HashDate and HashUID are the
// Action constructors used by the builder and the default profile.
func NoAction() Action { return Action{Kind: ActionNone} }

func Empty() Action { return Action{Kind: ActionEmpty} }

func Remove() Action { return Action{Kind: ActionRemove} }

func Keep() Action { return Action{Kind: ActionKeep} }

func Replace(value string) Action { return Action{Kind: ActionReplace, Value: value} }

func Hash(length int) Action { return Action{Kind: ActionHash, Length: length} }

func HashDate() Action { return Action{Kind: ActionHashDate} }

func HashUID() Action { return Action{Kind: ActionHashUID} }

func (a Action) validate() error {
	switch a.Kind {
	case ActionHash:
		if a.Length != 0 && (a.Length < MinHashLength || a.Length > MaxHashLength) {
			return fmt.Errorf("%w: hash length must be in [%d, %d], got %d",
				ErrConfigInvalid, MinHashLength, MaxHashLength, a.Length)
		}
	case ActionNone, ActionEmpty, ActionRemove, ActionKeep, ActionReplace,
		ActionHashDate, ActionHashUID:
	default:
		return fmt.Errorf("%w: unknown action kind %d", ErrConfigInvalid, a.Kind)
	}
	return nil
}

// newElement builds a replacement element preserving tag and VR.
func newElement(t tag.Tag, vr string, data interface{}) (*dicom.Element, error) {
	value, err := dicom.NewValue(data)
	if err != nil {
		return nil, err
	}
	return &dicom.Element{
		Tag:                    t,
		ValueRepresentation:    tag.GetVRKind(t, vr),
		RawValueRepresentation: vr,
		Value:                  value,
	}, nil
}

// elementString serializes a string-valued element the way it appears on the
// wire: values joined by the DICOM multiplicity separator.
func elementString(e *dicom.Element) (string, error) {
	if e.Value == nil {
		return "", nil
	}
	if e.Value.ValueType() != dicom.Strings {
		return "", fmt.Errorf("%w: %s does not hold a string value", ErrIncompatibleVR, e.RawValueRepresentation)
	}
	vals, ok := e.Value.GetValue().([]string)
	if !ok {
		return "", fmt.Errorf("%w: %s does not hold a string value", ErrIncompatibleVR, e.RawValueRepresentation)
	}
	return strings.Join(vals, `\`), nil
}

// applyEmpty replaces the value with the zero-length value for the element's
// value type. It never fails on values the codec can produce.
func applyEmpty(e *dicom.Element) (*dicom.Element, error) {
	vr := e.RawValueRepresentation
	if e.Value == nil {
		return newElement(e.Tag, vr, []string{})
	}
	switch e.Value.ValueType() {
	case dicom.Strings:
		return newElement(e.Tag, vr, []string{})
	case dicom.Bytes:
		return newElement(e.Tag, vr, []byte{})
	case dicom.Ints:
		return newElement(e.Tag, vr, []int{})
	case dicom.Floats:
		return newElement(e.Tag, vr, []float64{})
	case dicom.Sequences:
		return newElement(e.Tag, vr, [][]*dicom.Element{})
	case dicom.PixelData:
		return newElement(e.Tag, vr, dicom.PixelDataInfo{})
	default:
		return newElement(e.Tag, vr, []byte{})
	}
}

// applyReplace writes value verbatim. Only string-like VRs are supported.
func applyReplace(e *dicom.Element, value string) (*dicom.Element, error) {
	vr := e.RawValueRepresentation
	if !isStringLike(vr) {
		return nil, fmt.Errorf("%w: cannot replace value of VR %s", ErrIncompatibleVR, vr)
	}
	return newElement(e.Tag, vr, []string{value})
}

// applyHash replaces the serialized value with its truncated hex digest. The
// whole value (all multiplicities) is hashed once; a zero-length value is
// passed through unchanged.
func applyHash(e *dicom.Element, length int) (*dicom.Element, error) {
	vr := e.RawValueRepresentation
	if !isStringLike(vr) {
		return nil, fmt.Errorf("%w: cannot hash value of VR %s", ErrIncompatibleVR, vr)
	}
	original, err := elementString(e)
	if err != nil {
		return nil, err
	}
	if original == "" {
		return e, nil
	}
	hashed := hashing.HashString([]byte(original), length)
	return newElement(e.Tag, vr, []string{hashed})
}

// applyHashUID re-mints every value of a UID element as uidRoot followed by
// the decimal rendering of the value's digest, truncated to the 64-character
// UID maximum. A zero-length value is passed through unchanged.
func applyHashUID(e *dicom.Element, uidRoot string) (*dicom.Element, error) {
	vr := e.RawValueRepresentation
	if !isUIDVR(vr) {
		return nil, fmt.Errorf("%w: cannot mint UID for VR %s", ErrIncompatibleVR, vr)
	}
	original, err := elementString(e)
	if err != nil {
		return nil, err
	}
	if original == "" {
		return e, nil
	}
	vals := e.Value.GetValue().([]string)
	minted := make([]string, len(vals))
	for i, v := range vals {
		minted[i] = MintUID(uidRoot, v)
	}
	return newElement(e.Tag, vr, minted)
}

// MintUID derives a new UID from uid under root. The result is root, a dot
// (unless root is empty or already ends with one), and the base-10 digest of
// uid, truncated on the right to 64 characters.
func MintUID(root, uid string) string {
	prefix := root
	if prefix != "" && !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	minted := prefix + hashing.HashBigInt([]byte(uid)).String()
	if len(minted) > maxUIDLength {
		minted = minted[:maxUIDLength]
	}
	return minted
}

const maxUIDLength = 64

// applyHashDate shifts the leading YYYYMMDD of the value by shift days,
// preserving any trailing content (date-time values keep their time part).
// A zero-length value is passed through unchanged.
func applyHashDate(e *dicom.Element, shift int) (*dicom.Element, error) {
	vr := e.RawValueRepresentation
	if !isDateVR(vr) {
		return nil, fmt.Errorf("%w: cannot shift date of VR %s", ErrIncompatibleVR, vr)
	}
	original, err := elementString(e)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimRight(original, " \x00")
	if trimmed == "" {
		return e, nil
	}
	shifted, err := shiftDate(trimmed, shift)
	if err != nil {
		return nil, err
	}
	return newElement(e.Tag, vr, []string{shifted})
}
