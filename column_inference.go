package fixturesql

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Common datetime patterns to detect
var datetimePatterns = []struct {
	pattern *regexp.Regexp
	formats []string // Multiple formats for the same pattern
}{
	// ISO8601 formats with timezone
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`),
		[]string{time.RFC3339, time.RFC3339Nano},
	},
	// ISO8601 formats without timezone
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.999999999"},
	},
	// ISO8601 date and time with space, the layout fetched times are rendered in
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999"},
	},
	// ISO8601 date only
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		[]string{"2006-01-02"},
	},
	// US formats
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
		[]string{"1/2/2006", "01/02/2006"},
	},
	// Time only
	{
		regexp.MustCompile(`^\d{1,2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"15:04:05", "15:04:05.999999999"},
	},
}

// isDatetime checks if a string value represents a datetime
func isDatetime(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}

	for _, dp := range datetimePatterns {
		if !dp.pattern.MatchString(value) {
			continue
		}
		for _, format := range dp.formats {
			if _, err := time.Parse(format, value); err == nil {
				return true
			}
		}
	}
	return false
}

// inferColumnType infers the column type from a column's values.
// Null and blank cells carry no type information and are skipped.
func inferColumnType(values []Value) columnType {
	hasDatetime := false
	hasReal := false
	hasInteger := false

	for _, v := range values {
		if v.IsNull() {
			continue
		}
		value := strings.TrimSpace(v.Text())
		if value == "" {
			continue
		}

		if isDatetime(value) {
			hasDatetime = true
			continue
		}
		if _, err := strconv.ParseInt(value, 10, 64); err == nil {
			hasInteger = true
			continue
		}
		if _, err := strconv.ParseFloat(value, 64); err == nil {
			hasReal = true
			continue
		}

		// If any value is text, the whole column is text
		return columnTypeText
	}

	// Priority: DATETIME > REAL > INTEGER, mixed date and number columns stay text
	switch {
	case hasDatetime && (hasReal || hasInteger):
		return columnTypeText
	case hasDatetime:
		return columnTypeDatetime
	case hasReal:
		return columnTypeReal
	case hasInteger:
		return columnTypeInteger
	default:
		return columnTypeText
	}
}

// inferColumnsInfo infers column information for every column of a row set
func inferColumnsInfo(rs *RowSet) []columnInfo {
	columns := rs.Columns()
	if len(columns) == 0 {
		return nil
	}

	infos := make([]columnInfo, len(columns))
	for i, name := range columns {
		values, _ := rs.Column(name)
		infos[i] = columnInfo{Name: name, Type: inferColumnType(values)}
	}
	return infos
}
