package fixturesql

import (
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// CompressionType represents the compression wrapped around a fixture file
type CompressionType int

const (
	// CompressionNone represents no compression
	CompressionNone CompressionType = iota
	// CompressionGZ represents gzip compression
	CompressionGZ
	// CompressionBZ2 represents bzip2 compression (read only)
	CompressionBZ2
	// CompressionXZ represents xz compression
	CompressionXZ
	// CompressionZSTD represents zstd compression
	CompressionZSTD
)

// Compression extensions
const (
	extGZ   = ".gz"
	extBZ2  = ".bz2"
	extXZ   = ".xz"
	extZSTD = ".zst"
)

// String returns the string representation of CompressionType
func (c CompressionType) String() string {
	switch c {
	case CompressionGZ:
		return "gz"
	case CompressionBZ2:
		return "bz2"
	case CompressionXZ:
		return "xz"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// Extension returns the file extension for the compression type
func (c CompressionType) Extension() string {
	switch c {
	case CompressionGZ:
		return extGZ
	case CompressionBZ2:
		return extBZ2
	case CompressionXZ:
		return extXZ
	case CompressionZSTD:
		return extZSTD
	default:
		return ""
	}
}

// CompressionHandler wraps streams with (de)compression
type CompressionHandler interface {
	// CreateReader wraps r with a decompressing reader; cleanup releases decoder resources
	CreateReader(r io.Reader) (io.Reader, func() error, error)
	// CreateWriter wraps w with a compressing writer; cleanup flushes and closes the encoder
	CreateWriter(w io.Writer) (io.Writer, func() error, error)
	// Extension returns the file extension for this compression type (e.g., ".gz")
	Extension() string
}

type compressionHandler struct {
	compressionType CompressionType
}

// NewCompressionHandler creates a new compression handler for the given compression type
func NewCompressionHandler(compressionType CompressionType) CompressionHandler {
	return &compressionHandler{compressionType: compressionType}
}

func noopCleanup() error { return nil }

// CreateReader creates a decompression reader based on the compression type
func (h *compressionHandler) CreateReader(r io.Reader) (io.Reader, func() error, error) {
	switch h.compressionType {
	case CompressionNone:
		return r, noopCleanup, nil
	case CompressionGZ:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, gz.Close, nil
	case CompressionBZ2:
		return bzip2.NewReader(r), noopCleanup, nil
	case CompressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xr, noopCleanup, nil
	case CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec, func() error {
			dec.Close()
			return nil
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression type for reading: %v", h.compressionType)
	}
}

// CreateWriter creates a compression writer based on the compression type
func (h *compressionHandler) CreateWriter(w io.Writer) (io.Writer, func() error, error) {
	switch h.compressionType {
	case CompressionNone:
		return w, noopCleanup, nil
	case CompressionGZ:
		gz := gzip.NewWriter(w)
		return gz, gz.Close, nil
	case CompressionBZ2:
		// the standard library only decodes bzip2
		return nil, nil, errors.New("bzip2 compression is not supported for writing")
	case CompressionXZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return xw, xw.Close, nil
	case CompressionZSTD:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return zw, zw.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression type for writing: %v", h.compressionType)
	}
}

// Extension returns the file extension for this compression type
func (h *compressionHandler) Extension() string {
	return h.compressionType.Extension()
}

// DetectCompression detects the compression type from a file path
func DetectCompression(path string) CompressionType {
	path = strings.ToLower(path)
	switch {
	case strings.HasSuffix(path, extGZ):
		return CompressionGZ
	case strings.HasSuffix(path, extBZ2):
		return CompressionBZ2
	case strings.HasSuffix(path, extXZ):
		return CompressionXZ
	case strings.HasSuffix(path, extZSTD):
		return CompressionZSTD
	default:
		return CompressionNone
	}
}

// trimCompressionExtension removes the compression extension from a file path if present
func trimCompressionExtension(path string) string {
	ext := DetectCompression(path).Extension()
	return path[:len(path)-len(ext)]
}

// openDecompressed opens path and returns a reader that handles decompression
func openDecompressed(path string) (io.Reader, func() error, error) {
	file, err := os.Open(path) //nolint:gosec // Fixture paths are authored by the test writer
	if err != nil {
		return nil, nil, err
	}

	reader, cleanup, err := NewCompressionHandler(DetectCompression(path)).CreateReader(file)
	if err != nil {
		_ = file.Close() // Ignore close error during error handling
		return nil, nil, err
	}

	return reader, func() error {
		cleanupErr := cleanup()
		if closeErr := file.Close(); closeErr != nil && cleanupErr == nil {
			cleanupErr = closeErr
		}
		return cleanupErr
	}, nil
}

// createCompressed creates path and returns a writer that compresses with compressionType.
// The returned cleanup must be called to flush the encoder and close the file.
func createCompressed(path string, compressionType CompressionType) (io.Writer, func() error, error) {
	file, err := os.Create(path) //nolint:gosec // Output paths are chosen by the caller
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create file: %w", err)
	}

	writer, cleanup, err := NewCompressionHandler(compressionType).CreateWriter(file)
	if err != nil {
		_ = file.Close()    // Ignore close error during error handling
		_ = os.Remove(path) // Ignore remove error, the writer error is reported
		return nil, nil, err
	}

	return writer, func() error {
		cleanupErr := cleanup()
		if syncErr := file.Sync(); syncErr != nil && cleanupErr == nil {
			cleanupErr = syncErr
		}
		if closeErr := file.Close(); closeErr != nil && cleanupErr == nil {
			cleanupErr = closeErr
		}
		return cleanupErr
	}, nil
}
