package fixturesql

import (
	"testing"
)

func TestOutputFormat_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		format    OutputFormat
		want      string
		extension string
	}{
		{name: "CSV format", format: OutputFormatCSV, want: "csv", extension: ".csv"},
		{name: "TSV format", format: OutputFormatTSV, want: "tsv", extension: ".tsv"},
		{name: "LTSV format", format: OutputFormatLTSV, want: "ltsv", extension: ".ltsv"},
		{name: "Parquet format", format: OutputFormatParquet, want: "parquet", extension: ".parquet"},
		{name: "XLSX format", format: OutputFormatXLSX, want: "xlsx", extension: ".xlsx"},
		{name: "Unknown format defaults to csv", format: OutputFormat(999), want: "csv", extension: ".csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.format.String(); got != tt.want {
				t.Errorf("OutputFormat.String() = %v, want %v", got, tt.want)
			}
			if got := tt.format.Extension(); got != tt.extension {
				t.Errorf("OutputFormat.Extension() = %v, want %v", got, tt.extension)
			}
		})
	}
}

func TestNewDumpOptions(t *testing.T) {
	t.Parallel()

	options := NewDumpOptions()
	if options.Format != OutputFormatCSV {
		t.Errorf("NewDumpOptions().Format = %v, want %v", options.Format, OutputFormatCSV)
	}
	if options.Compression != CompressionNone {
		t.Errorf("NewDumpOptions().Compression = %v, want %v", options.Compression, CompressionNone)
	}
}

func TestDumpOptions_FileExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		format      OutputFormat
		compression CompressionType
		want        string
	}{
		{name: "CSV with no compression", format: OutputFormatCSV, compression: CompressionNone, want: ".csv"},
		{name: "CSV with gzip compression", format: OutputFormatCSV, compression: CompressionGZ, want: ".csv.gz"},
		{name: "LTSV with xz compression", format: OutputFormatLTSV, compression: CompressionXZ, want: ".ltsv.xz"},
		{name: "Parquet with zstd compression", format: OutputFormatParquet, compression: CompressionZSTD, want: ".parquet.zst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			options := DumpOptions{
				Format:      tt.format,
				Compression: tt.compression,
			}
			if got := options.FileExtension(); got != tt.want {
				t.Errorf("DumpOptions.FileExtension() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDumpOptions_ChainedMethods(t *testing.T) {
	t.Parallel()

	options := NewDumpOptions().
		WithFormat(OutputFormatLTSV).
		WithCompression(CompressionZSTD)

	if options.Format != OutputFormatLTSV {
		t.Errorf("Chained WithFormat().Format = %v, want %v", options.Format, OutputFormatLTSV)
	}
	if options.Compression != CompressionZSTD {
		t.Errorf("Chained WithCompression().Compression = %v, want %v", options.Compression, CompressionZSTD)
	}

	expectedExt := ".ltsv.zst"
	if got := options.FileExtension(); got != expectedExt {
		t.Errorf("Chained options FileExtension() = %v, want %v", got, expectedExt)
	}
}

func TestDumpOptionsForPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path   string
		want   DumpOptions
		wantOK bool
	}{
		{path: "out/todos.csv", want: DumpOptions{Format: OutputFormatCSV}, wantOK: true},
		{path: "todos.tsv.gz", want: DumpOptions{Format: OutputFormatTSV, Compression: CompressionGZ}, wantOK: true},
		{path: "todos.parquet.zst", want: DumpOptions{Format: OutputFormatParquet, Compression: CompressionZSTD}, wantOK: true},
		{path: "todos.xlsx", want: DumpOptions{Format: OutputFormatXLSX}, wantOK: true},
		{path: "todos.json", want: DumpOptions{Format: OutputFormatCSV}, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			got, ok := DumpOptionsForPath(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("DumpOptionsForPath(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("DumpOptionsForPath(%q) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}
