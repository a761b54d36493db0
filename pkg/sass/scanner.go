package sass

import (
	"strings"
)

// importStmt is one @import statement found in a stylesheet
type importStmt struct {
	start int
	end   int
	args  []importArg
}

// importArg is one comma separated argument of an @import
type importArg struct {
	raw   string
	uri   string
	plain bool
}

// scanImports finds @import statements outside comments and strings
func scanImports(src string) []importStmt {
	var stmts []importStmt
	for i := 0; i < len(src); {
		switch {
		case strings.HasPrefix(src[i:], "//"):
			i = skipLine(src, i)
		case strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return stmts
			}
			i += end + 4
		case src[i] == '"' || src[i] == '\'':
			i = skipString(src, i)
		case strings.HasPrefix(src[i:], "@import") && isDelimiter(src, i+len("@import")):
			stmt := parseImport(src, i)
			stmts = append(stmts, stmt)
			i = stmt.end
		default:
			i++
		}
	}
	return stmts
}

func isDelimiter(src string, i int) bool {
	if i >= len(src) {
		return false
	}
	switch src[i] {
	case ' ', '\t', '\n', '\r', '"', '\'':
		return true
	}
	return false
}

func skipLine(src string, i int) int {
	end := strings.IndexByte(src[i:], '\n')
	if end < 0 {
		return len(src)
	}
	return i + end
}

func skipString(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		case '\n':
			return j
		}
	}
	return len(src)
}

// parseImport reads the statement starting at i. It ends at ';' or at a
// newline that does not follow a comma.
func parseImport(src string, i int) importStmt {
	bodyStart := i + len("@import")
	j := bodyStart
	end := len(src)
	bodyEnd := len(src)
	depth := 0
loop:
	for j < len(src) {
		switch c := src[j]; {
		case c == '"' || c == '\'':
			j = skipString(src, j)
			continue
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ';' && depth == 0:
			bodyEnd, end = j, j+1
			break loop
		case c == '\n' && depth == 0:
			if !strings.HasSuffix(strings.TrimSpace(src[bodyStart:j]), ",") {
				bodyEnd, end = j, j
				break loop
			}
		}
		j++
	}

	stmt := importStmt{start: i, end: end}
	for _, raw := range splitArgs(src[bodyStart:bodyEnd]) {
		stmt.args = append(stmt.args, parseArg(raw))
	}
	return stmt
}

func splitArgs(body string) []string {
	var args []string
	depth := 0
	last := 0
	for j := 0; j < len(body); j++ {
		switch body[j] {
		case '"', '\'':
			j = skipString(body, j) - 1
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				args = append(args, body[last:j])
				last = j + 1
			}
		}
	}
	args = append(args, body[last:])

	out := args[:0]
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// parseArg classifies an argument. Plain arguments stay as CSS imports:
// url(...), .css files, remote URLs and anything followed by a media query.
func parseArg(raw string) importArg {
	arg := importArg{raw: raw}
	if strings.HasPrefix(raw, "url(") {
		arg.plain = true
		return arg
	}

	if raw[0] == '"' || raw[0] == '\'' {
		end := skipString(raw, 0)
		arg.uri = unquote(raw[:end])
		if strings.TrimSpace(raw[end:]) != "" {
			arg.plain = true
		}
	} else {
		arg.uri = raw
	}

	if strings.HasSuffix(arg.uri, ".css") ||
		strings.HasPrefix(arg.uri, "http://") ||
		strings.HasPrefix(arg.uri, "https://") ||
		strings.HasPrefix(arg.uri, "//") {
		arg.plain = true
	}
	return arg
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return strings.ReplaceAll(s, "\\", "")
}
