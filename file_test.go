package fixturesql

import (
	"testing"
)

func TestDetectFileType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		path        string
		fileType    FileType
		compression CompressionType
	}{
		{name: "CSV file", path: "test.csv", fileType: FileTypeCSV, compression: CompressionNone},
		{name: "TSV file", path: "test.tsv", fileType: FileTypeTSV, compression: CompressionNone},
		{name: "LTSV file", path: "test.ltsv", fileType: FileTypeLTSV, compression: CompressionNone},
		{name: "Parquet file", path: "test.parquet", fileType: FileTypeParquet, compression: CompressionNone},
		{name: "XLSX file", path: "test.xlsx", fileType: FileTypeXLSX, compression: CompressionNone},
		{name: "Upper case extension", path: "TODOS.CSV", fileType: FileTypeCSV, compression: CompressionNone},
		{name: "Compressed CSV file", path: "test.csv.gz", fileType: FileTypeCSV, compression: CompressionGZ},
		{name: "Compressed TSV file", path: "test.tsv.bz2", fileType: FileTypeTSV, compression: CompressionBZ2},
		{name: "Compressed LTSV file", path: "test.ltsv.xz", fileType: FileTypeLTSV, compression: CompressionXZ},
		{name: "Zstd compressed Parquet file", path: "dir/test.parquet.zst", fileType: FileTypeParquet, compression: CompressionZSTD},
		{name: "Unsupported file", path: "test.txt", fileType: FileTypeUnsupported, compression: CompressionNone},
		{name: "Compressed unsupported file", path: "test.json.gz", fileType: FileTypeUnsupported, compression: CompressionGZ},
		{name: "No extension", path: "Makefile", fileType: FileTypeUnsupported, compression: CompressionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fileType, compression := DetectFileType(tt.path)
			if fileType != tt.fileType {
				t.Errorf("expected file type %v, got %v", tt.fileType, fileType)
			}
			if compression != tt.compression {
				t.Errorf("expected compression %v, got %v", tt.compression, compression)
			}
			if got, want := isSupportedFile(tt.path), tt.fileType != FileTypeUnsupported; got != want {
				t.Errorf("isSupportedFile(%q) = %v, want %v", tt.path, got, want)
			}
		})
	}
}

func TestFileTypeNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fileType  FileType
		name      string
		extension string
	}{
		{FileTypeCSV, "csv", ".csv"},
		{FileTypeTSV, "tsv", ".tsv"},
		{FileTypeLTSV, "ltsv", ".ltsv"},
		{FileTypeParquet, "parquet", ".parquet"},
		{FileTypeXLSX, "xlsx", ".xlsx"},
		{FileTypeUnsupported, "unsupported", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.fileType.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.fileType.Extension(); got != tt.extension {
				t.Errorf("Extension() = %q, want %q", got, tt.extension)
			}
		})
	}
}
