package fixturesql

import (
	"path/filepath"
	"strings"
)

// FileType represents a supported fixture file format, independent of compression
type FileType int

const (
	// FileTypeCSV represents CSV file type
	FileTypeCSV FileType = iota
	// FileTypeTSV represents TSV file type
	FileTypeTSV
	// FileTypeLTSV represents LTSV file type
	FileTypeLTSV
	// FileTypeParquet represents Parquet file type
	FileTypeParquet
	// FileTypeXLSX represents Excel XLSX file type
	FileTypeXLSX
	// FileTypeUnsupported represents unsupported file type
	FileTypeUnsupported
)

// File extensions
const (
	extCSV     = ".csv"
	extTSV     = ".tsv"
	extLTSV    = ".ltsv"
	extParquet = ".parquet"
	extXLSX    = ".xlsx"
)

// String returns the format name
func (ft FileType) String() string {
	switch ft {
	case FileTypeCSV:
		return "csv"
	case FileTypeTSV:
		return "tsv"
	case FileTypeLTSV:
		return "ltsv"
	case FileTypeParquet:
		return "parquet"
	case FileTypeXLSX:
		return "xlsx"
	default:
		return "unsupported"
	}
}

// Extension returns the file extension for the FileType
func (ft FileType) Extension() string {
	switch ft {
	case FileTypeCSV:
		return extCSV
	case FileTypeTSV:
		return extTSV
	case FileTypeLTSV:
		return extLTSV
	case FileTypeParquet:
		return extParquet
	case FileTypeXLSX:
		return extXLSX
	default:
		return ""
	}
}

// DetectFileType determines the fixture format and compression from a file path,
// e.g. "todos.csv.gz" is (FileTypeCSV, CompressionGZ).
func DetectFileType(path string) (FileType, CompressionType) {
	compression := DetectCompression(path)
	base := strings.ToLower(trimCompressionExtension(path))

	switch filepath.Ext(base) {
	case extCSV:
		return FileTypeCSV, compression
	case extTSV:
		return FileTypeTSV, compression
	case extLTSV:
		return FileTypeLTSV, compression
	case extParquet:
		return FileTypeParquet, compression
	case extXLSX:
		return FileTypeXLSX, compression
	default:
		return FileTypeUnsupported, compression
	}
}

// isSupportedFile checks if the file has a supported extension
func isSupportedFile(path string) bool {
	ft, _ := DetectFileType(path)
	return ft != FileTypeUnsupported
}
