package dicom

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/suyashkumar/dicom"
)

// ErrWrite indicates the dataset could not be serialized.
var ErrWrite = errors.New("could not write DICOM output")

// Write serializes the dataset with relaxed verification; many real-world
// DICOM files don't strictly follow VR specifications.
func Write(w io.Writer, ds dicom.Dataset) error {
	if err := dicom.Write(w, ds,
		dicom.SkipVRVerification(),
		dicom.SkipValueTypeVerification(),
		dicom.DefaultMissingTransferSyntax(),
	); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// WriteFile serializes the dataset to path, creating parent directories.
func WriteFile(path string, ds dicom.Dataset) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer file.Close()

	return Write(file, ds)
}
