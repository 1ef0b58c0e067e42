package fixturesql

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// validator handles input validation for the loader and the dumper
type validator struct{}

// newValidator creates a new validator instance
func newValidator() *validator {
	return &validator{}
}

// validatePath validates a fixture file path before it is opened
func (v *validator) validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("failed to stat path %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory: %s", path)
	}
	if !isSupportedFile(path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// validateReader validates a reader input
func (v *validator) validateReader(reader io.Reader, fileType FileType) error {
	if reader == nil {
		return errors.New("reader cannot be nil")
	}
	if fileType == FileTypeUnsupported {
		return fmt.Errorf("%w: file type must be specified for reader input", ErrUnsupportedFormat)
	}

	// Peek only where it does not consume the reader
	if stringReader, ok := reader.(*strings.Reader); ok && stringReader.Len() == 0 {
		return &MalformedFixtureError{Source: fileType.String(), Reason: "reader contains no data"}
	}
	return nil
}

// validateOutputDirectory validates that the directory of a dump target exists
func (v *validator) validateOutputDirectory(outputDir string) error {
	if outputDir == "" {
		return nil
	}

	info, err := os.Stat(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", outputDir)
		}
		return fmt.Errorf("failed to check output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path exists but is not a directory: %s", outputDir)
	}
	return nil
}
