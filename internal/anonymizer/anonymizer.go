// Package anonymizer implements the DICOM de-identification engine: a
// compiled rule set, the element transforms, and the dataset walker that
// applies them to a parsed DICOM object.
package anonymizer

import (
	"io"

	"github.com/suyashkumar/dicom"

	dcm "dicom-anonymizer/internal/dicom"
)

// Anonymizer is the entry point. It holds a frozen Config and is safe for
// concurrent use; each Anonymize call owns its dataset exclusively.
type Anonymizer struct {
	cfg *Config
}

// New returns an Anonymizer using the given frozen config.
func New(cfg *Config) *Anonymizer {
	return &Anonymizer{cfg: cfg}
}

// Default returns an Anonymizer with the built-in default profile.
func Default() *Anonymizer {
	return New(DefaultConfig())
}

// Config returns the frozen rule set this Anonymizer applies.
func (a *Anonymizer) Config() *Config {
	return a.cfg
}

// Artifact is an anonymized dataset held in memory, ready to be serialized.
type Artifact struct {
	Dataset dicom.Dataset
}

// Write serializes the artifact as a conformant DICOM stream.
func (ar *Artifact) Write(w io.Writer) error {
	return dcm.Write(w, ar.Dataset)
}

// Anonymize parses a DICOM stream, applies the rule set, and returns the
// resulting dataset. The run is deterministic in the input bytes and the
// config; errors abort the run without emitting a partial dataset.
func (a *Anonymizer) Anonymize(r io.Reader) (*Artifact, error) {
	ds, err := dcm.Read(r)
	if err != nil {
		return nil, err
	}
	if err := anonymizeDataset(&ds, a.cfg); err != nil {
		return nil, err
	}
	return &Artifact{Dataset: ds}, nil
}

// AnonymizeDataset applies the rule set to an already parsed dataset.
func (a *Anonymizer) AnonymizeDataset(ds *dicom.Dataset) error {
	return anonymizeDataset(ds, a.cfg)
}
