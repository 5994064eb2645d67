// Package dicom adapts the suyashkumar/dicom codec for the engine: parsing,
// serialization with relaxed verification, and DICOM file discovery.
package dicom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/suyashkumar/dicom"
)

// ErrRead indicates the input could not be parsed as DICOM.
var ErrRead = errors.New("could not read DICOM input")

// Read parses a DICOM stream into a dataset. The stream is buffered in
// memory first because the codec needs to know its size.
func Read(r io.Reader) (dicom.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return dicom.Dataset{}, fmt.Errorf("%w: %v", ErrRead, err)
	}
	ds, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return dicom.Dataset{}, fmt.Errorf("%w: %v", ErrRead, err)
	}
	return ds, nil
}

// ReadFile parses the DICOM file at path.
func ReadFile(path string) (dicom.Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return dicom.Dataset{}, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return dicom.Dataset{}, fmt.Errorf("could not stat file: %w", err)
	}

	ds, err := dicom.Parse(file, info.Size(), nil)
	if err != nil {
		return dicom.Dataset{}, fmt.Errorf("%w: %v", ErrRead, err)
	}
	return ds, nil
}
