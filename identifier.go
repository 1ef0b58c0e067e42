package fixturesql

import "strings"

// identifierDelimiters are stripped from both ends of each identifier segment before re-quoting.
const identifierDelimiters = "[]\"`"

// Escape quotes a possibly schema-qualified identifier in SQL Server bracket form.
//
//	Escape("dbo.Todos")     // [dbo].[Todos]
//	Escape("[dbo].[Todos]") // [dbo].[Todos]
//
// Escaping guards against accidental special characters only. Raw scripts and
// WHERE predicates are embedded as given and must come from trusted test authors.
func Escape(identifier string) string {
	return DialectSQLServer.Escape(identifier)
}

// splitIdentifier splits on '.' and strips surrounding whitespace and delimiters from each segment.
func splitIdentifier(identifier string) []string {
	parts := strings.Split(identifier, ".")
	for i, p := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(p), identifierDelimiters)
	}
	return parts
}

// quoteSegment wraps one segment, doubling any embedded closing delimiter.
func quoteSegment(segment, open, closing string) string {
	return open + strings.ReplaceAll(segment, closing, closing+closing) + closing
}
