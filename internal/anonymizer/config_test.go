package anonymizer

import (
	"errors"
	"testing"

	"github.com/suyashkumar/dicom/pkg/tag"
)

func TestActionForPrecedence(t *testing.T) {
	cfg, err := NewConfigBuilder().
		TagAction(tag.Tag{Group: 0x0033, Element: 0x1010}, Keep()).
		TagAction(tag.Tag{Group: 0x5000, Element: 0x0010}, NoAction()).
		TagAction(tag.Tag{Group: 0x6000, Element: 0x3000}, Hash(8)).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	tests := []struct {
		name      string
		tag       tag.Tag
		wantKind  ActionKind
		wantFound bool
	}{
		{"explicit keep beats private removal", tag.Tag{Group: 0x0033, Element: 0x1010}, ActionKeep, true},
		{"explicit none beats curve removal", tag.Tag{Group: 0x5000, Element: 0x0010}, ActionNone, true},
		{"explicit hash beats overlay removal", tag.Tag{Group: 0x6000, Element: 0x3000}, ActionHash, true},
		{"unmapped private removed", tag.Tag{Group: 0x0033, Element: 0x1020}, ActionRemove, true},
		{"unmapped curve removed", tag.Tag{Group: 0x50FE, Element: 0x0020}, ActionRemove, true},
		{"unmapped overlay removed", tag.Tag{Group: 0x60FF, Element: 0x0040}, ActionRemove, true},
		{"group length always removed", tag.Tag{Group: 0x0008, Element: 0x0000}, ActionRemove, true},
		{"profile entry applies", tag.PatientName, ActionEmpty, true},
		{"profile hash applies", tag.PatientID, ActionHash, true},
		{"unmapped public tag untouched", tag.Tag{Group: 0x0018, Element: 0x5100}, ActionNone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := cfg.ActionFor(tt.tag)
			if got.Kind != tt.wantKind || found != tt.wantFound {
				t.Errorf("ActionFor(%04X,%04X) = (%d, %v), want (%d, %v)",
					tt.tag.Group, tt.tag.Element, got.Kind, found, tt.wantKind, tt.wantFound)
			}
		})
	}
}

func TestActionForDisabledBulkPolicies(t *testing.T) {
	cfg, err := NewConfigBuilder().
		RemovePrivateTags(false).
		RemoveCurves(false).
		RemoveOverlays(false).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, tg := range []tag.Tag{
		{Group: 0x0033, Element: 0x1010},
		{Group: 0x5000, Element: 0x0010},
		{Group: 0x6000, Element: 0x3000},
	} {
		if _, found := cfg.ActionFor(tg); found {
			t.Errorf("ActionFor(%04X,%04X) found a rule with bulk policies disabled", tg.Group, tg.Element)
		}
	}
}

func TestValidateUIDRoot(t *testing.T) {
	tests := []struct {
		root    string
		wantErr bool
	}{
		{"9999", false},
		{"0", false},
		{"1.2.840.123", false},
		{"1.0.25", false},
		{"123456789012345678901234", false}, // exactly 24
		{"", true},
		{"1234567890123456789012345", true}, // 25 characters
		{"01", true},
		{"1.01.2", true},
		{"1..2", true},
		{"1.2.", true},
		{".1.2", true},
		{"abc", true},
		{"1.2a", true},
	}

	for _, tt := range tests {
		t.Run(tt.root, func(t *testing.T) {
			_, err := NewConfigBuilder().UIDRoot(tt.root).Build()
			if tt.wantErr && !errors.Is(err, ErrConfigInvalid) {
				t.Errorf("UIDRoot(%q) error = %v, want ErrConfigInvalid", tt.root, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("UIDRoot(%q) unexpected error: %v", tt.root, err)
			}
		})
	}
}

func TestHashLengthValidation(t *testing.T) {
	tests := []struct {
		length  int
		wantErr bool
	}{
		{0, false}, // default
		{8, false},
		{16, false},
		{64, false},
		{7, true},
		{65, true},
	}

	for _, tt := range tests {
		_, err := NewConfigBuilder().
			TagAction(tag.PatientID, Hash(tt.length)).
			Build()
		if tt.wantErr && !errors.Is(err, ErrConfigInvalid) {
			t.Errorf("Hash(%d) error = %v, want ErrConfigInvalid", tt.length, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("Hash(%d) unexpected error: %v", tt.length, err)
		}
	}
}

func TestBuilderSeededFromConfig(t *testing.T) {
	base, err := NewConfigBuilder().UIDRoot("1.2.840").Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	derived, err := base.Builder().
		TagAction(tag.Tag{Group: 0x0033, Element: 0x1010}, Keep()).
		Build()
	if err != nil {
		t.Fatalf("derived Build failed: %v", err)
	}

	if derived.UIDRoot() != "1.2.840" {
		t.Errorf("derived UIDRoot = %q, want 1.2.840", derived.UIDRoot())
	}
	if a, found := derived.ActionFor(tag.Tag{Group: 0x0033, Element: 0x1010}); !found || a.Kind != ActionKeep {
		t.Error("derived config lost the added tag action")
	}
	if _, found := base.ActionFor(tag.Tag{Group: 0x0033, Element: 0x1010}); found {
		if a, _ := base.ActionFor(tag.Tag{Group: 0x0033, Element: 0x1010}); a.Kind == ActionKeep {
			t.Error("base config was mutated through the derived builder")
		}
	}
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		input   string
		want    tag.Tag
		wantErr bool
	}{
		{"00100020", tag.Tag{Group: 0x0010, Element: 0x0020}, false},
		{"7fe00010", tag.Tag{Group: 0x7FE0, Element: 0x0010}, false},
		{"(0010,0020)", tag.Tag{Group: 0x0010, Element: 0x0020}, false},
		{"(7FE0,0010)", tag.Tag{Group: 0x7FE0, Element: 0x0010}, false},
		{"0010", tag.Tag{}, true},
		{"(0010-0020)", tag.Tag{}, true},
		{"0010002G", tag.Tag{}, true},
		{"", tag.Tag{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTag(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrConfigInvalid) {
					t.Errorf("ParseTag(%q) error = %v, want ErrConfigInvalid", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTag(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTag(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
