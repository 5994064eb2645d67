package anonymizer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicom-anonymizer/internal/hashing"
)

func findElement(elems []*dicom.Element, tg tag.Tag) *dicom.Element {
	for _, e := range elems {
		if e.Tag == tg {
			return e
		}
	}
	return nil
}

func firstString(t *testing.T, elems []*dicom.Element, tg tag.Tag) string {
	t.Helper()
	e := findElement(elems, tg)
	if e == nil {
		t.Fatalf("element (%04X,%04X) not found", tg.Group, tg.Element)
	}
	vals := stringValues(t, e)
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// minimalDataset mirrors the S1 scenario: name, ID, SOP instance UID, date.
func minimalDataset(t *testing.T) dicom.Dataset {
	t.Helper()
	return dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.PatientName, "PN", []string{"DOE^JOHN"}),
		mustElement(t, tag.PatientID, "LO", []string{"ABC123"}),
		mustElement(t, tag.SOPInstanceUID, "UI", []string{"1.2.3.4.5"}),
		mustElement(t, tag.StudyDate, "DA", []string{"20200115"}),
	}}
}

func TestDefaultAnonymizationMinimalDataset(t *testing.T) {
	ds := minimalDataset(t)
	if err := anonymizeDataset(&ds, DefaultConfig()); err != nil {
		t.Fatalf("anonymizeDataset failed: %v", err)
	}

	name := findElement(ds.Elements, tag.PatientName)
	if name == nil {
		t.Fatal("PatientName removed, want emptied")
	}
	if vals := stringValues(t, name); len(vals) != 0 {
		t.Errorf("PatientName = %v, want empty", vals)
	}

	id := firstString(t, ds.Elements, tag.PatientID)
	if len(id) != 16 {
		t.Errorf("PatientID hash length = %d, want 16", len(id))
	}
	for _, r := range id {
		if !strings.ContainsRune("0123456789abcdef", r) {
			t.Errorf("PatientID hash contains %q", r)
		}
	}

	uid := firstString(t, ds.Elements, tag.SOPInstanceUID)
	if !strings.HasPrefix(uid, "9999.") {
		t.Errorf("SOPInstanceUID = %q, want prefix 9999.", uid)
	}

	shift := hashing.DigestDays([]byte("ABC123"))
	base, _ := time.Parse("20060102", "20200115")
	want := base.AddDate(0, 0, shift).Format("20060102")
	if got := firstString(t, ds.Elements, tag.StudyDate); got != want {
		t.Errorf("StudyDate = %q, want %q (shift %d)", got, want, shift)
	}
}

func TestDateShiftConsistentWithinRun(t *testing.T) {
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.PatientID, "LO", []string{"ABC123"}),
		mustElement(t, tag.StudyDate, "DA", []string{"20200115"}),
		mustElement(t, tag.InstanceCreationDate, "DA", []string{"20190301"}),
		mustElement(t, tag.ContentDate, "DA", []string{"20200116"}),
	}}
	if err := anonymizeDataset(&ds, DefaultConfig()); err != nil {
		t.Fatalf("anonymizeDataset failed: %v", err)
	}

	offset := func(original, shifted string) int {
		a, _ := time.Parse("20060102", original)
		b, err := time.Parse("20060102", shifted)
		if err != nil {
			t.Fatalf("shifted date %q is not YYYYMMDD", shifted)
		}
		return int(b.Sub(a).Hours() / 24)
	}

	study := offset("20200115", firstString(t, ds.Elements, tag.StudyDate))
	creation := offset("20190301", firstString(t, ds.Elements, tag.InstanceCreationDate))
	content := offset("20200116", firstString(t, ds.Elements, tag.ContentDate))

	if study != creation || study != content {
		t.Errorf("offsets differ within one run: %d, %d, %d", study, creation, content)
	}
	if study < -hashing.MaxDateShiftDays || study > hashing.MaxDateShiftDays {
		t.Errorf("offset %d outside [-3650, 3650]", study)
	}
}

func TestKeepOverridesPrivateRemoval(t *testing.T) {
	cfg, err := NewConfigBuilder().
		TagAction(tag.Tag{Group: 0x0033, Element: 0x1010}, Keep()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.Tag{Group: 0x0033, Element: 0x1010}, "LO", []string{"X"}),
		mustElement(t, tag.Tag{Group: 0x0033, Element: 0x1020}, "LO", []string{"Y"}),
	}}
	if err := anonymizeDataset(&ds, cfg); err != nil {
		t.Fatalf("anonymizeDataset failed: %v", err)
	}

	if got := firstString(t, ds.Elements, tag.Tag{Group: 0x0033, Element: 0x1010}); got != "X" {
		t.Errorf("kept private tag = %q, want X", got)
	}
	if findElement(ds.Elements, tag.Tag{Group: 0x0033, Element: 0x1020}) != nil {
		t.Error("private tag (0033,1020) should have been removed")
	}
}

func TestHashDateWithoutPatientIDFails(t *testing.T) {
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.StudyDate, "DA", []string{"20200115"}),
	}}
	err := anonymizeDataset(&ds, DefaultConfig())
	if !errors.Is(err, ErrMissingReferenceTag) {
		t.Errorf("anonymizeDataset = %v, want ErrMissingReferenceTag", err)
	}
}

func TestHashDateWithEmptyPatientIDFails(t *testing.T) {
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.PatientID, "LO", []string{}),
		mustElement(t, tag.StudyDate, "DA", []string{"20200115"}),
	}}
	err := anonymizeDataset(&ds, DefaultConfig())
	if !errors.Is(err, ErrMissingReferenceTag) {
		t.Errorf("anonymizeDataset = %v, want ErrMissingReferenceTag", err)
	}
}

func TestReplaceOnIncompatibleVRFailsRun(t *testing.T) {
	cfg, err := NewConfigBuilder().
		TagAction(tag.PixelData, Replace("X")).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.PatientID, "LO", []string{"ABC123"}),
		mustElement(t, tag.PixelData, "OB", []byte{0x00, 0x01}),
	}}
	err = anonymizeDataset(&ds, cfg)
	if !errors.Is(err, ErrIncompatibleVR) {
		t.Fatalf("anonymizeDataset = %v, want ErrIncompatibleVR", err)
	}

	var procErr *ProcessingError
	if !errors.As(err, &procErr) {
		t.Fatal("error should carry element context")
	}
	if procErr.Tag != tag.PixelData || procErr.VR != "OB" {
		t.Errorf("ProcessingError context = (%v, %s)", procErr.Tag, procErr.VR)
	}
}

func TestSequenceRecursion(t *testing.T) {
	nested := mustElement(t, tag.PatientName, "PN", []string{"NESTED"})
	seq := mustElement(t, tag.RequestAttributesSequence, "SQ",
		[][]*dicom.Element{{nested}})

	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.PatientID, "LO", []string{"ABC123"}),
		seq,
	}}
	if err := anonymizeDataset(&ds, DefaultConfig()); err != nil {
		t.Fatalf("anonymizeDataset failed: %v", err)
	}

	walked := findElement(ds.Elements, tag.RequestAttributesSequence)
	if walked == nil {
		t.Fatal("sequence element removed, want kept")
	}
	items := walked.Value.GetValue().([]*dicom.SequenceItemValue)
	if len(items) != 1 {
		t.Fatalf("sequence has %d items, want 1", len(items))
	}
	itemElems := items[0].GetValue().([]*dicom.Element)
	name := findElement(itemElems, tag.PatientName)
	if name == nil {
		t.Fatal("nested PatientName missing")
	}
	if vals := stringValues(t, name); len(vals) != 0 {
		t.Errorf("nested PatientName = %v, want empty", vals)
	}
}

func TestBulkPoliciesRecurseIntoSequences(t *testing.T) {
	private := mustElement(t, tag.Tag{Group: 0x0033, Element: 0x1010}, "LO", []string{"secret"})
	kept := mustElement(t, tag.Tag{Group: 0x0018, Element: 0x5100}, "CS", []string{"HFS"})
	inner := mustElement(t, tag.RequestAttributesSequence, "SQ",
		[][]*dicom.Element{{private, kept}})
	outer := mustElement(t, tag.Tag{Group: 0x0040, Element: 0x0100}, "SQ",
		[][]*dicom.Element{{inner}})

	ds := dicom.Dataset{Elements: []*dicom.Element{outer}}
	if err := anonymizeDataset(&ds, DefaultConfig()); err != nil {
		t.Fatalf("anonymizeDataset failed: %v", err)
	}

	level1 := findElement(ds.Elements, tag.Tag{Group: 0x0040, Element: 0x0100})
	if level1 == nil {
		t.Fatal("outer sequence removed")
	}
	items1 := level1.Value.GetValue().([]*dicom.SequenceItemValue)
	level2 := findElement(items1[0].GetValue().([]*dicom.Element), tag.RequestAttributesSequence)
	if level2 == nil {
		t.Fatal("inner sequence removed")
	}
	items2 := level2.Value.GetValue().([]*dicom.SequenceItemValue)
	leafElems := items2[0].GetValue().([]*dicom.Element)

	if findElement(leafElems, tag.Tag{Group: 0x0033, Element: 0x1010}) != nil {
		t.Error("private tag survived inside a nested sequence item")
	}
	if findElement(leafElems, tag.Tag{Group: 0x0018, Element: 0x5100}) == nil {
		t.Error("unmapped public tag removed from a nested sequence item")
	}
}

func TestExplicitSequenceRemoval(t *testing.T) {
	cfg, err := NewConfigBuilder().
		TagAction(tag.RequestAttributesSequence, Remove()).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	seq := mustElement(t, tag.RequestAttributesSequence, "SQ",
		[][]*dicom.Element{{mustElement(t, tag.PatientName, "PN", []string{"X"})}})
	ds := dicom.Dataset{Elements: []*dicom.Element{seq}}
	if err := anonymizeDataset(&ds, cfg); err != nil {
		t.Fatalf("anonymizeDataset failed: %v", err)
	}
	if findElement(ds.Elements, tag.RequestAttributesSequence) != nil {
		t.Error("explicitly removed sequence still present")
	}
}

func TestGroupLengthElementsStripped(t *testing.T) {
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.Tag{Group: 0x0008, Element: 0x0000}, "UL", []int{42}),
		mustElement(t, tag.PatientID, "LO", []string{"ABC123"}),
	}}
	if err := anonymizeDataset(&ds, DefaultConfig()); err != nil {
		t.Fatalf("anonymizeDataset failed: %v", err)
	}
	if findElement(ds.Elements, tag.Tag{Group: 0x0008, Element: 0x0000}) != nil {
		t.Error("group length element survived")
	}
}

func TestFileMetaReconciliation(t *testing.T) {
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.MediaStorageSOPClassUID, "UI", []string{"1.2.840.10008.5.1.4.1.1.2"}),
		mustElement(t, tag.MediaStorageSOPInstanceUID, "UI", []string{"1.2.3"}),
		mustElement(t, tag.TransferSyntaxUID, "UI", []string{"1.2.840.10008.1.2.1"}),
		mustElement(t, tag.PatientID, "LO", []string{"ABC123"}),
		mustElement(t, tag.SOPInstanceUID, "UI", []string{"1.2.3"}),
	}}
	if err := anonymizeDataset(&ds, DefaultConfig()); err != nil {
		t.Fatalf("anonymizeDataset failed: %v", err)
	}

	mainUID := firstString(t, ds.Elements, tag.SOPInstanceUID)
	metaUID := firstString(t, ds.Elements, tag.MediaStorageSOPInstanceUID)
	if mainUID != metaUID {
		t.Errorf("(0002,0003) = %q, (0008,0018) = %q, want equal", metaUID, mainUID)
	}
	if !strings.HasPrefix(mainUID, "9999.") {
		t.Errorf("new UID = %q, want prefix 9999.", mainUID)
	}

	if got := firstString(t, ds.Elements, tag.MediaStorageSOPClassUID); got != "1.2.840.10008.5.1.4.1.1.2" {
		t.Errorf("(0002,0002) = %q, should never be rewritten", got)
	}
	if got := firstString(t, ds.Elements, tag.TransferSyntaxUID); got != "1.2.840.10008.1.2.1" {
		t.Errorf("(0002,0010) = %q, should be left to the codec", got)
	}
}

func TestWalkDeterministic(t *testing.T) {
	run := func() []*dicom.Element {
		ds := minimalDataset(t)
		if err := anonymizeDataset(&ds, DefaultConfig()); err != nil {
			t.Fatalf("anonymizeDataset failed: %v", err)
		}
		return ds.Elements
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("runs produced %d vs %d elements", len(first), len(second))
	}
	for i := range first {
		a, _ := elementString(first[i])
		b, _ := elementString(second[i])
		if first[i].Tag != second[i].Tag || a != b {
			t.Errorf("element %d differs across runs: %v=%q vs %v=%q",
				i, first[i].Tag, a, second[i].Tag, b)
		}
	}
}

func TestElementsSortedByTag(t *testing.T) {
	ds := dicom.Dataset{Elements: []*dicom.Element{
		mustElement(t, tag.PatientID, "LO", []string{"ABC123"}),
		mustElement(t, tag.Tag{Group: 0x0008, Element: 0x0060}, "CS", []string{"CT"}),
	}}
	if err := anonymizeDataset(&ds, DefaultConfig()); err != nil {
		t.Fatalf("anonymizeDataset failed: %v", err)
	}
	for i := 1; i < len(ds.Elements); i++ {
		if compareTags(ds.Elements[i-1].Tag, ds.Elements[i].Tag) >= 0 {
			t.Errorf("elements out of tag order at %d: %v >= %v",
				i, ds.Elements[i-1].Tag, ds.Elements[i].Tag)
		}
	}
}
