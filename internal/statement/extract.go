// Package statement pulls SQL statements out of free-form model output and
// tells reads from writes.
package statement

import "strings"

const selectKeyword = "select"

// Extract returns every SELECT statement in raw, in order of appearance.
// A statement runs from a case-insensitive SELECT to the next semicolon
// outside quotes and comments, both inclusive, and is trimmed. When the
// quote-aware scan finds no terminator the first raw semicolon is used.
// A SELECT without any semicolon after it is dropped.
func Extract(raw string) []string {
	statements := make([]string, 0)
	for offset := 0; offset < len(raw); {
		start := indexFold(raw, selectKeyword, offset)
		if start < 0 {
			break
		}
		end := terminator(raw, start+len(selectKeyword))
		if end < 0 {
			break
		}
		statements = append(statements, strings.TrimSpace(raw[start:end+1]))
		offset = end + 1
	}
	return statements
}

func terminator(s string, from int) int {
	if end := scanTerminator(s, from); end >= 0 {
		return end
	}
	if end := strings.IndexByte(s[from:], ';'); end >= 0 {
		return from + end
	}
	return -1
}

// scanTerminator skips semicolons inside quoted strings, quoted
// identifiers, line comments and block comments.
func scanTerminator(s string, from int) int {
	for i := from; i < len(s); i++ {
		switch c := s[i]; c {
		case ';':
			return i
		case '\'', '"', '`':
			closing := closingQuote(s, i+1, c)
			if closing < 0 {
				return -1
			}
			i = closing
		case '-':
			if i+1 < len(s) && s[i+1] == '-' {
				newline := strings.IndexByte(s[i:], '\n')
				if newline < 0 {
					return -1
				}
				i += newline
			}
		case '/':
			if i+1 < len(s) && s[i+1] == '*' {
				end := strings.Index(s[i+2:], "*/")
				if end < 0 {
					return -1
				}
				i += 2 + end + 1
			}
		}
	}
	return -1
}

func closingQuote(s string, from int, quote byte) int {
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if quote != '`' {
				i++
			}
		case quote:
			return i
		}
	}
	return -1
}

// indexFold is an ASCII case-insensitive strings.Index starting at from.
func indexFold(s, substr string, from int) int {
	for i := from; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

// IsRead reports whether the trimmed statement starts with SELECT.
func IsRead(stmt string) bool {
	trimmed := strings.TrimSpace(stmt)
	return len(trimmed) >= len(selectKeyword) && strings.EqualFold(trimmed[:len(selectKeyword)], selectKeyword)
}
