package nlsearch

import (
	"strings"

	"github.com/moviemind/moviemind/internal/domain"
)

// Rejection reasons.
const (
	reasonEmpty        = "empty statement"
	reasonNotSelect    = "statement does not start with SELECT"
	reasonMultiple     = "more than one statement"
	reasonUnterminated = "unterminated literal or comment"
)

// ValidateStatement allow-lists a single SELECT. It returns the statement
// trimmed and without one trailing semicolon, or a *domain.RejectedStatementError.
func ValidateStatement(sql string) (string, error) {
	stmt := strings.TrimSpace(sql)
	if stmt == "" {
		return "", domain.NewRejectedStatement(sql, reasonEmpty)
	}
	if !hasSelectPrefix(stmt) {
		return "", domain.NewRejectedStatement(sql, reasonNotSelect)
	}

	stmt = strings.TrimSpace(strings.TrimSuffix(stmt, ";"))

	switch scanSeparators(stmt) {
	case scanMultiple:
		return "", domain.NewRejectedStatement(sql, reasonMultiple)
	case scanUnterminated:
		return "", domain.NewRejectedStatement(sql, reasonUnterminated)
	}
	return stmt, nil
}

type scanResult int

const (
	scanSingle scanResult = iota
	scanMultiple
	scanUnterminated
)

// scanSeparators looks for a ';' outside string literals, quoted identifiers,
// dollar-quoted bodies and comments, following PostgreSQL lexing rules.
func scanSeparators(s string) scanResult {
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ';':
			return scanMultiple

		case c == '\'':
			end := skipQuoted(s, i+1, '\'', isEscapeString(s, i))
			if end < 0 {
				return scanUnterminated
			}
			i = end

		case c == '"':
			end := skipQuoted(s, i+1, '"', false)
			if end < 0 {
				return scanUnterminated
			}
			i = end

		case c == '-' && strings.HasPrefix(s[i:], "--"):
			nl := strings.IndexByte(s[i:], '\n')
			if nl < 0 {
				return scanSingle
			}
			i += nl + 1

		case c == '/' && strings.HasPrefix(s[i:], "/*"):
			end := skipBlockComment(s, i)
			if end < 0 {
				return scanUnterminated
			}
			i = end

		case c == '$':
			tag, ok := dollarTag(s, i)
			if !ok {
				i++
				continue
			}
			closing := strings.Index(s[i+len(tag):], tag)
			if closing < 0 {
				return scanUnterminated
			}
			i += len(tag) + closing + len(tag)

		default:
			i++
		}
	}
	return scanSingle
}

// skipQuoted returns the index after the closing quote. A doubled quote is an
// escaped quote; backslash escapes apply only to E'' strings.
func skipQuoted(s string, i int, quote byte, backslash bool) int {
	for i < len(s) {
		switch {
		case backslash && s[i] == '\\':
			i += 2
		case s[i] == quote:
			if i+1 < len(s) && s[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		default:
			i++
		}
	}
	return -1
}

// isEscapeString reports whether the quote at i opens an E'...' literal.
func isEscapeString(s string, i int) bool {
	if i == 0 || (s[i-1] != 'E' && s[i-1] != 'e') {
		return false
	}
	return i < 2 || !isIdentByte(s[i-2])
}

// skipBlockComment returns the index after the matching "*/". Block comments nest.
func skipBlockComment(s string, i int) int {
	depth := 0
	for i < len(s)-1 {
		switch {
		case s[i] == '/' && s[i+1] == '*':
			depth++
			i += 2
		case s[i] == '*' && s[i+1] == '/':
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return -1
}

// dollarTag returns "$tag$" starting at i. Positional parameters ($1) are not tags.
func dollarTag(s string, i int) (string, bool) {
	if i > 0 && isIdentByte(s[i-1]) {
		return "", false
	}
	j := i + 1
	for j < len(s) && s[j] != '$' {
		if !isIdentByte(s[j]) || (j == i+1 && '0' <= s[j] && s[j] <= '9') {
			return "", false
		}
		j++
	}
	if j >= len(s) {
		return "", false
	}
	return s[i : j+1], true
}

func isIdentByte(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') || c >= 0x80
}
