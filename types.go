package fixturesql

import (
	"fmt"
	"strconv"
	"strings"
)

// Processing constants (rows-based)
const (
	// DefaultRowsPerChunk is the default number of rows per multi-row INSERT
	DefaultRowsPerChunk = 1000
	// MinChunkSize is the minimum allowed rows per chunk
	MinChunkSize = 1
)

// File format delimiters
const (
	// csvDelimiter is the delimiter for CSV files
	csvDelimiter = ','
	// tsvDelimiter is the delimiter for TSV files
	tsvDelimiter = '\t'
)

// columnType represents the SQL column type inferred from fixture values
type columnType int

const (
	// columnTypeText represents TEXT column type
	columnTypeText columnType = iota
	// columnTypeInteger represents INTEGER column type
	columnTypeInteger
	// columnTypeReal represents REAL column type
	columnTypeReal
	// columnTypeDatetime represents datetime stored as TEXT in ISO8601 format
	columnTypeDatetime
)

const (
	sqlTypeText    = "TEXT"
	sqlTypeInteger = "INTEGER"
	sqlTypeReal    = "REAL"
)

// String returns the SQL column type string
func (ct columnType) String() string {
	switch ct {
	case columnTypeInteger:
		return sqlTypeInteger
	case columnTypeReal:
		return sqlTypeReal
	default:
		return sqlTypeText
	}
}

// validateColumnNames checks for duplicate column names and returns error if found.
// Names are compared after trimming and case folding, matching row lookups.
func validateColumnNames(columns []string) error {
	columnsSeen := make(map[string]bool, len(columns))
	for _, col := range columns {
		key := columnKey(col)
		if columnsSeen[key] {
			return fmt.Errorf("%w: %s", errDuplicateColumnName, strings.TrimSpace(col))
		}
		columnsSeen[key] = true
	}
	return nil
}

// ChunkSize represents a chunk size with validation
type ChunkSize int

// NewChunkSize creates a new ChunkSize, falling back to DefaultRowsPerChunk when size is too small
func NewChunkSize(size int) ChunkSize {
	if size < MinChunkSize {
		return ChunkSize(DefaultRowsPerChunk)
	}
	return ChunkSize(size)
}

// Int returns the int value of ChunkSize
func (cs ChunkSize) Int() int {
	return int(cs)
}

// String returns the string representation of ChunkSize
func (cs ChunkSize) String() string {
	return strconv.Itoa(int(cs))
}

// IsValid checks if the chunk size is valid
func (cs ChunkSize) IsValid() bool {
	return int(cs) >= MinChunkSize
}

// columnInfo represents column information with name and inferred type
type columnInfo struct {
	Name string
	Type columnType
}
