package msbuild

import (
	"fmt"
	"path/filepath"
	"strings"
)

// expander substitutes $(...) references in attribute and property values
// for one file of an evaluation.
type expander struct {
	props *properties
	file  string
}

func (x expander) dir() string {
	return filepath.Dir(x.file)
}

// expand replaces every $(Name) and $([Class]::Method(...)) reference in s.
// Item lists (@(...)) and metadata (%(...)) are not evaluated in pass one and
// are rejected.
func (x expander) expand(s string) (string, error) {
	if !strings.ContainsAny(s, "$@%") {
		return s, nil
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c == '@' || c == '%') && i+1 < len(s) && s[i+1] == '(' {
			return "", fmt.Errorf("%w: %c(...) in %q", ErrUnsupportedExpression, c, s)
		}
		if c != '$' || i+1 >= len(s) || s[i+1] != '(' {
			b.WriteByte(c)
			continue
		}

		end := matchParen(s, i+1)
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated $( in %q", ErrInvalidImport, s)
		}
		value, err := x.reference(s[i+2 : end])
		if err != nil {
			return "", err
		}
		b.WriteString(value)
		i = end
	}
	return b.String(), nil
}

func (x expander) reference(body string) (string, error) {
	body = strings.TrimSpace(body)
	if strings.HasPrefix(body, "[") {
		return x.propertyFunction(body)
	}
	if !isPropertyName(body) {
		return "", fmt.Errorf("%w: $(%s)", ErrUnsupportedExpression, body)
	}
	return x.props.lookup(body, x.file), nil
}

func (x expander) propertyFunction(body string) (string, error) {
	closeBracket := strings.IndexByte(body, ']')
	if closeBracket < 0 || !strings.HasPrefix(body[closeBracket+1:], "::") {
		return "", fmt.Errorf("%w: $(%s)", ErrUnsupportedExpression, body)
	}
	class := strings.ToLower(body[1:closeBracket])
	call := body[closeBracket+3:]

	open := strings.IndexByte(call, '(')
	if open < 0 || !strings.HasSuffix(call, ")") {
		return "", fmt.Errorf("%w: $(%s)", ErrUnsupportedExpression, body)
	}
	method := strings.ToLower(strings.TrimSpace(call[:open]))

	args, err := x.arguments(call[open+1 : len(call)-1])
	if err != nil {
		return "", err
	}

	switch class + "::" + method {
	case "msbuild::getdirectorynameoffileabove":
		if len(args) != 2 {
			break
		}
		dir, _ := findFileAbove(resolvePath(x.dir(), args[0]), args[1])
		return dir, nil
	case "msbuild::getpathoffileabove":
		start := x.dir()
		switch len(args) {
		case 2:
			start = resolvePath(x.dir(), args[1])
		case 1:
		default:
			return "", fmt.Errorf("%w: $(%s)", ErrUnsupportedExpression, body)
		}
		dir, ok := findFileAbove(start, args[0])
		if !ok {
			return "", nil
		}
		return filepath.Join(dir, args[0]), nil
	case "msbuild::normalizedirectory":
		return withTrailingSeparator(resolvePath(x.dir(), joinArgs(args))), nil
	case "msbuild::normalizepath":
		return resolvePath(x.dir(), joinArgs(args)), nil
	case "msbuild::ensuretrailingslash":
		if len(args) == 1 && args[0] != "" {
			return withTrailingSeparator(nativePath(args[0])), nil
		}
		return "", nil
	case "system.io.path::combine":
		return joinArgs(args), nil
	case "system.io.path::getdirectoryname":
		if len(args) == 1 {
			return filepath.Dir(nativePath(args[0])), nil
		}
	case "system.io.path::getfilename":
		if len(args) == 1 {
			return filepath.Base(nativePath(args[0])), nil
		}
	}

	return "", fmt.Errorf("%w: $(%s)", ErrUnsupportedExpression, body)
}

// arguments splits a property-function argument list on top-level commas,
// strips quoting and expands each argument.
func (x expander) arguments(list string) ([]string, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}

	var (
		raw   []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(list); i++ {
		c := list[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			raw = append(raw, list[start:i])
			start = i + 1
		}
	}
	raw = append(raw, list[start:])

	args := make([]string, 0, len(raw))
	for _, a := range raw {
		a = unquote(strings.TrimSpace(a))
		v, err := x.expand(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func joinArgs(args []string) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		a = nativePath(a)
		if filepath.IsAbs(a) {
			parts = parts[:0]
		}
		parts = append(parts, a)
	}
	return filepath.Join(parts...)
}

// findFileAbove walks from start towards the filesystem root and returns the
// first directory containing name.
func findFileAbove(start, name string) (string, bool) {
	dir := filepath.Clean(start)
	for {
		if fileExists(filepath.Join(dir, nativePath(name))) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func unquote(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '\'' || first == '"' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// matchParen returns the index of the parenthesis closing the one at open.
// Quotes only delimit strings inside a function call's argument list.
func matchParen(s string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			if depth >= 2 {
				quote = c
			}
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isPropertyName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && (r == '-' || (r >= '0' && r <= '9')):
		default:
			return false
		}
	}
	return true
}
