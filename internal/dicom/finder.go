package dicom

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DicomExtensions are common DICOM file extensions.
var DicomExtensions = []string{".dcm", ".dicom"}

// ExcludedNames are filenames to skip during discovery.
var ExcludedNames = map[string]bool{
	"DICOMDIR":       true,
	".progress.json": true,
	".DS_Store":      true,
	"Thumbs.db":      true,
	"desktop.ini":    true,
}

// ExcludedDirs are directory names to skip entirely.
var ExcludedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
}

// FindDicomFiles finds DICOM files under inputPath, by extension or by the
// DICM magic bytes. skipDir, when non-empty, names a directory subtree to
// leave out (the output tree, so re-runs don't re-anonymize their own
// output).
func FindDicomFiles(inputPath string, recursive bool, skipDir string) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}

		if info.IsDir() {
			if ExcludedDirs[info.Name()] {
				return filepath.SkipDir
			}
			if skipDir != "" && path == skipDir {
				return filepath.SkipDir
			}
			if !recursive && path != inputPath {
				return filepath.SkipDir
			}
			return nil
		}

		if ExcludedNames[info.Name()] {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		isDicom := false
		for _, de := range DicomExtensions {
			if ext == de {
				isDicom = true
				break
			}
		}

		// Files without a recognized extension still count when they carry
		// the DICM magic bytes.
		if !isDicom && hasDicomMagicBytes(path) {
			isDicom = true
		}

		if isDicom {
			files = append(files, path)
		}

		return nil
	}

	if err := filepath.Walk(inputPath, walkFn); err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// hasDicomMagicBytes checks for "DICM" at byte offset 128.
func hasDicomMagicBytes(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	header := make([]byte, 132)
	n, err := io.ReadFull(file, header)
	if err != nil || n < 132 {
		return false
	}

	return string(header[128:132]) == "DICM"
}
