// Package sqlutil provides SQL quoting and escaping primitives shared by the
// filter and window compilers.
package sqlutil

import (
	"regexp"
	"strings"
)

var plainIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsPlainIdentifier reports whether name needs no quoting in any dialect:
// a letter or underscore followed by letters, digits or underscores.
func IsPlainIdentifier(name string) bool {
	return plainIdentifier.MatchString(name)
}

// QuoteIdentifier quotes a SQL identifier (table name, column name, etc.)
// with backticks and escapes any backticks within the identifier.
func QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, "`", "``")
	return "`" + escaped + "`"
}

// QuoteDoubleIdentifier quotes an identifier with ANSI double quotes.
func QuoteDoubleIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteBracketIdentifier quotes an identifier with SQL Server brackets.
func QuoteBracketIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// QuoteString quotes a SQL string literal with single quotes and escapes
// any single quotes within the string by doubling them.
func QuoteString(s string) string {
	return "'" + EscapeString(s) + "'"
}

// EscapeString doubles single quotes so s can sit between two quotes.
func EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// QuoteStringBackslash quotes a literal for engines that also treat the
// backslash as an escape character inside string literals (MySQL default
// sql_mode). Backslashes are doubled before quotes are.
func QuoteStringBackslash(s string) string {
	escaped := strings.ReplaceAll(s, `\`, `\\`)
	return "'" + EscapeString(escaped) + "'"
}

// EscapePlaceholderMarks doubles every '?' so that a placeholder rewriter
// which treats "??" as a literal question mark leaves the text intact.
func EscapePlaceholderMarks(s string) string {
	return strings.ReplaceAll(s, "?", "??")
}

// JSONPath renders path segments as a SQL/JSON path expression such as
// $.user.role. Segments that are not plain identifiers are emitted as quoted
// member names ($."first name").
func JSONPath(segments []string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, segment := range segments {
		b.WriteString(".")
		if IsPlainIdentifier(segment) {
			b.WriteString(segment)
			continue
		}
		b.WriteString(`"`)
		b.WriteString(strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(segment))
		b.WriteString(`"`)
	}
	return b.String()
}

// PostgresTextArray renders segments as the body of a PostgreSQL text[]
// literal ({a,b}). Elements with array syntax characters are double-quoted.
func PostgresTextArray(segments []string) string {
	parts := make([]string, len(segments))
	for i, segment := range segments {
		if IsPlainIdentifier(segment) && !strings.EqualFold(segment, "null") {
			parts[i] = segment
			continue
		}
		parts[i] = `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(segment) + `"`
	}
	return "{" + strings.Join(parts, ",") + "}"
}
