package fixturesql

// OutputFormat represents the output file format
type OutputFormat int

const (
	// OutputFormatCSV represents CSV output format
	OutputFormatCSV OutputFormat = iota
	// OutputFormatTSV represents TSV output format
	OutputFormatTSV
	// OutputFormatLTSV represents LTSV output format
	OutputFormatLTSV
	// OutputFormatParquet represents Parquet output format
	OutputFormatParquet
	// OutputFormatXLSX represents Excel XLSX output format
	OutputFormatXLSX
)

// String returns the string representation of OutputFormat
func (f OutputFormat) String() string {
	return f.fileType().String()
}

// Extension returns the file extension for the format
func (f OutputFormat) Extension() string {
	return f.fileType().Extension()
}

// fileType returns the fixture file type the format writes, so dumps load back unchanged
func (f OutputFormat) fileType() FileType {
	switch f {
	case OutputFormatTSV:
		return FileTypeTSV
	case OutputFormatLTSV:
		return FileTypeLTSV
	case OutputFormatParquet:
		return FileTypeParquet
	case OutputFormatXLSX:
		return FileTypeXLSX
	default:
		return FileTypeCSV
	}
}

// outputFormatFor maps a detected fixture file type to its output format
func outputFormatFor(ft FileType) (OutputFormat, bool) {
	switch ft {
	case FileTypeCSV:
		return OutputFormatCSV, true
	case FileTypeTSV:
		return OutputFormatTSV, true
	case FileTypeLTSV:
		return OutputFormatLTSV, true
	case FileTypeParquet:
		return OutputFormatParquet, true
	case FileTypeXLSX:
		return OutputFormatXLSX, true
	default:
		return OutputFormatCSV, false
	}
}

// DumpOptions configures how row sets are written to files.
//
// Example:
//
//	options := NewDumpOptions().
//		WithFormat(OutputFormatTSV).
//		WithCompression(CompressionGZ)
//
//	err := DumpFile("./testdata/todos.tsv.gz", rs, options)
type DumpOptions struct {
	// Format specifies the output file format
	Format OutputFormat
	// Compression specifies the compression type
	Compression CompressionType
}

// NewDumpOptions creates default export options (CSV, no compression).
//
// Modify with:
//   - WithFormat(): Change file format (CSV, TSV, LTSV, Parquet, XLSX)
//   - WithCompression(): Add compression (GZ, XZ, ZSTD)
func NewDumpOptions() DumpOptions {
	return DumpOptions{
		Format:      OutputFormatCSV,
		Compression: CompressionNone,
	}
}

// DumpOptionsForPath derives format and compression from a file name such as "todos.parquet.zst".
// ok is false when the extension names no supported format.
func DumpOptionsForPath(path string) (DumpOptions, bool) {
	ft, compression := DetectFileType(path)
	format, ok := outputFormatFor(ft)
	return DumpOptions{Format: format, Compression: compression}, ok
}

// WithFormat sets the output file format.
func (o DumpOptions) WithFormat(format OutputFormat) DumpOptions {
	o.Format = format
	return o
}

// WithCompression adds compression to output files.
//
// Options:
//   - CompressionNone: No compression (default)
//   - CompressionGZ: Gzip compression (.gz)
//   - CompressionXZ: XZ compression (.xz)
//   - CompressionZSTD: Zstandard compression (.zst)
//
// Bzip2 can be read but not written.
func (o DumpOptions) WithCompression(compression CompressionType) DumpOptions {
	o.Compression = compression
	return o
}

// FileExtension returns the complete file extension including compression
func (o DumpOptions) FileExtension() string {
	return o.Format.Extension() + o.Compression.Extension()
}
