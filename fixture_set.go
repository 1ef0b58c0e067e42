package fixturesql

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// FixtureFile is a fixture found by CollectFixtures and the table it loads into.
type FixtureFile struct {
	Path  string
	Table string
}

// fixtureCollector gathers fixture files from files and directories
type fixtureCollector struct {
	validator *validator
	seen      map[string]bool
	files     []string
}

// CollectFixtures expands paths, relative to root, into fixture files. Directories are
// walked recursively and unsupported files in them are skipped; an unsupported file named
// directly is an error. When a table has both a plain and a compressed fixture the plain
// one wins. Two fixtures of the same kind for one table are reported as ErrDuplicateFixture.
// Paths in the result are absolute and sorted.
func CollectFixtures(root string, paths ...string) ([]FixtureFile, error) {
	c := &fixtureCollector{validator: newValidator(), seen: make(map[string]bool)}
	for _, path := range paths {
		if err := c.collect(ResolvePath(root, path)); err != nil {
			return nil, err
		}
	}
	return deduplicateFixtures(c.files)
}

func (c *fixtureCollector) collect(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewErrorContext("collect fixtures", path).Error(ErrFileNotFound)
		}
		return fmt.Errorf("failed to stat path %s: %w", path, err)
	}

	if !info.IsDir() {
		if err := c.validator.validatePath(path); err != nil {
			return NewErrorContext("collect fixtures", path).Error(err)
		}
		c.add(path)
		return nil
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isSupportedFile(p) {
			return nil
		}
		c.add(p)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk directory %s: %w", path, err)
	}
	return nil
}

func (c *fixtureCollector) add(path string) {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.files = append(c.files, key)
}

// deduplicateFixtures keeps one fixture per table, preferring the uncompressed file
func deduplicateFixtures(files []string) ([]FixtureFile, error) {
	byTable := make(map[string]string, len(files))
	for _, plain := range []bool{true, false} {
		claimed := make(map[string]string)
		for _, file := range files {
			if (DetectCompression(file) == CompressionNone) != plain {
				continue
			}
			table := TableNameFromPath(file)
			if other, ok := claimed[table]; ok {
				return nil, fmt.Errorf("%w: %s and %s both load table %s", ErrDuplicateFixture, other, file, table)
			}
			claimed[table] = file
			if _, ok := byTable[table]; !ok {
				byTable[table] = file
			}
		}
	}

	fixtures := make([]FixtureFile, 0, len(byTable))
	for table, path := range byTable {
		fixtures = append(fixtures, FixtureFile{Path: path, Table: table})
	}
	sort.Slice(fixtures, func(i, j int) bool { return fixtures[i].Path < fixtures[j].Path })
	return fixtures, nil
}
