package anonymizer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom/pkg/tag"
)

// isPrivate reports whether t belongs to a private group (odd group number).
func isPrivate(t tag.Tag) bool {
	return t.Group%2 == 1
}

// isCurve reports whether t is curve data (groups 0x5000-0x50FF).
func isCurve(t tag.Tag) bool {
	return t.Group&0xFF00 == 0x5000
}

// isOverlay reports whether t is overlay data (groups 0x6000-0x60FF).
func isOverlay(t tag.Tag) bool {
	return t.Group&0xFF00 == 0x6000
}

// isGroupLength reports whether t is a group length element (element 0x0000).
// These are stripped during anonymization and rebuilt by the codec on write.
func isGroupLength(t tag.Tag) bool {
	return t.Element == 0x0000
}

// isFileMeta reports whether t belongs to the file meta information group.
func isFileMeta(t tag.Tag) bool {
	return t.Group == 0x0002
}

func compareTags(a, b tag.Tag) int {
	if a.Group != b.Group {
		if a.Group < b.Group {
			return -1
		}
		return 1
	}
	if a.Element != b.Element {
		if a.Element < b.Element {
			return -1
		}
		return 1
	}
	return 0
}

// FormatTag renders t in the 8-hex-digit form used as a tag_actions key.
func FormatTag(t tag.Tag) string {
	return fmt.Sprintf("%04X%04X", t.Group, t.Element)
}

// ParseTag parses a tag key in either the "GGGGEEEE" or the "(GGGG,EEEE)"
// form, upper or lower case hex digits.
func ParseTag(s string) (tag.Tag, error) {
	hexDigits := s
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		inner := s[1 : len(s)-1]
		parts := strings.Split(inner, ",")
		if len(parts) != 2 {
			return tag.Tag{}, fmt.Errorf("%w: tag must be (GGGG,EEEE) or GGGGEEEE, got %q", ErrConfigInvalid, s)
		}
		hexDigits = strings.TrimSpace(parts[0]) + strings.TrimSpace(parts[1])
	}
	if len(hexDigits) != 8 {
		return tag.Tag{}, fmt.Errorf("%w: tag must have 8 hex digits, got %q", ErrConfigInvalid, s)
	}
	group, err := strconv.ParseUint(hexDigits[:4], 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("%w: tag must have 8 hex digits, got %q", ErrConfigInvalid, s)
	}
	element, err := strconv.ParseUint(hexDigits[4:], 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("%w: tag must have 8 hex digits, got %q", ErrConfigInvalid, s)
	}
	return tag.Tag{Group: uint16(group), Element: uint16(element)}, nil
}
