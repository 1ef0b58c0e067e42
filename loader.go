package fixturesql

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
)

// Loader parses fixture files into row sets. Relative paths resolve against the project root.
type Loader struct {
	root      string
	validator *validator
}

// NewLoader creates a loader for fixtures under root. An empty root means the working directory.
func NewLoader(root string) *Loader {
	return &Loader{root: root, validator: newValidator()}
}

// Load parses an uncompressed fixture stream of the given format.
func (l *Loader) Load(r io.Reader, format FileType) (*RowSet, error) {
	return l.LoadCompressed(r, format, CompressionNone)
}

// LoadCompressed parses a fixture stream wrapped in compression.
func (l *Loader) LoadCompressed(r io.Reader, format FileType, compression CompressionType) (*RowSet, error) {
	if err := l.validator.validateReader(r, format); err != nil {
		return nil, err
	}

	reader, cleanup, err := NewCompressionHandler(compression).CreateReader(r)
	if err != nil {
		return nil, &MalformedFixtureError{Source: format.String(), Err: err}
	}
	defer func() {
		_ = cleanup() // Ignore cleanup error, the stream is fully read
	}()

	return newFixtureParser(format, "").parse(reader)
}

// LoadFile parses the fixture at path. Format and compression come from the extension,
// e.g. "todos.csv", "todos.tsv.gz" or "todos.parquet.zst".
func (l *Loader) LoadFile(path string) (*RowSet, error) {
	fullPath := ResolvePath(l.root, path)
	ec := NewErrorContext("load fixture", fullPath)
	if err := l.validator.validatePath(fullPath); err != nil {
		return nil, ec.Error(err)
	}

	format, _ := DetectFileType(fullPath)
	reader, cleanup, err := openDecompressed(fullPath)
	if err != nil {
		return nil, ec.Error(err)
	}
	defer func() {
		_ = cleanup() // Ignore close error after a complete read
	}()

	rs, err := newFixtureParser(format, fullPath).parse(reader)
	if err != nil {
		var mf *MalformedFixtureError
		if errors.As(err, &mf) {
			return nil, err
		}
		return nil, ec.Error(err)
	}
	return rs, nil
}

// LoadFS parses the fixture name from fsys, such as an embed.FS. Format and compression
// come from the extension as in LoadFile; the project root is not consulted.
func (l *Loader) LoadFS(fsys fs.FS, name string) (*RowSet, error) {
	ec := NewErrorContext("load fixture", name)
	if fsys == nil {
		return nil, ec.Error(errors.New("filesystem cannot be nil"))
	}
	if !isSupportedFile(name) {
		return nil, ec.Error(fmt.Errorf("%w: %s", ErrUnsupportedFormat, name))
	}

	f, err := fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ec.Error(ErrFileNotFound)
		}
		return nil, ec.Error(err)
	}
	defer f.Close()

	format, compression := DetectFileType(name)
	reader, cleanup, err := NewCompressionHandler(compression).CreateReader(f)
	if err != nil {
		return nil, ec.Error(err)
	}
	defer func() {
		_ = cleanup() // Ignore cleanup error after a complete read
	}()

	return newFixtureParser(format, name).parse(reader)
}

// LoadCSV parses CSV text with a header record. Empty cells become null.
func LoadCSV(r io.Reader) (*RowSet, error) {
	return NewLoader("").Load(r, FileTypeCSV)
}
