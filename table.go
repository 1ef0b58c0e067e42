package fixturesql

import (
	"path/filepath"
	"strings"
)

// TableNameFromPath derives a table name from a fixture file path.
// Compression and format extensions are removed: "testdata/Todos.csv.gz" becomes "Todos".
func TableNameFromPath(path string) string {
	fileName := filepath.Base(trimCompressionExtension(path))
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

