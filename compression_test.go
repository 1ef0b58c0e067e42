package fixturesql

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionHandlerRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		compressionType CompressionType
		extension       string
	}{
		{name: "No compression", compressionType: CompressionNone, extension: ""},
		{name: "Gzip compression", compressionType: CompressionGZ, extension: ".gz"},
		{name: "XZ compression", compressionType: CompressionXZ, extension: ".xz"},
		{name: "ZSTD compression", compressionType: CompressionZSTD, extension: ".zst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := NewCompressionHandler(tt.compressionType)
			assert.Equal(t, tt.extension, handler.Extension())

			payload := []byte("Id,Title\n1,Buy milk\n")
			var compressed bytes.Buffer
			w, closeWriter, err := handler.CreateWriter(&compressed)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, closeWriter())

			r, closeReader, err := handler.CreateReader(&compressed)
			require.NoError(t, err)
			defer func() { _ = closeReader() }()

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestCompressionHandlerBZ2WriteUnsupported(t *testing.T) {
	t.Parallel()

	_, _, err := NewCompressionHandler(CompressionBZ2).CreateWriter(io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bzip2")
}

func TestDetectCompression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want CompressionType
		base string
	}{
		{path: "todos.csv", want: CompressionNone, base: "todos.csv"},
		{path: "todos.csv.gz", want: CompressionGZ, base: "todos.csv"},
		{path: "todos.csv.GZ", want: CompressionGZ, base: "todos.csv"},
		{path: "todos.gz.csv", want: CompressionNone, base: "todos.gz.csv"},
		{path: "TODOS.TSV.BZ2", want: CompressionBZ2, base: "TODOS.TSV"},
		{path: "logs.ltsv.xz", want: CompressionXZ, base: "logs.ltsv"},
		{path: "data.parquet.zst", want: CompressionZSTD, base: "data.parquet"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, DetectCompression(tt.path))
			assert.Equal(t, tt.base, trimCompressionExtension(tt.path))
		})
	}
}

func TestCreateCompressedAndOpenDecompressed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixture.csv.gz")
	w, closeWriter, err := createCompressed(path, DetectCompression(path))
	require.NoError(t, err)
	_, err = io.WriteString(w, "a,b\n1,2\n")
	require.NoError(t, err)
	require.NoError(t, closeWriter())

	r, closeReader, err := openDecompressed(path)
	require.NoError(t, err)
	defer func() { _ = closeReader() }()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(got))
}
