package router

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/vyrodovalexey/mfrouter/internal/util"
)

// Path expression errors.
var (
	ErrEmptyExpression   = errors.New("empty path expression")
	ErrInvalidParam      = errors.New("invalid parameter")
	ErrUnclosedPattern   = errors.New("unclosed parameter pattern")
	ErrInvalidConstraint = errors.New("invalid parameter pattern")
)

// paramName matches the identifier after ':'.
var paramName = regexp.MustCompile(`^:([A-Za-z0-9_]+)`)

// trailingWildcard matches a final ":name*" or ":name+" segment.
var trailingWildcard = regexp.MustCompile(`^:([A-Za-z0-9_]+)([*+])$`)

// PathMatcher is a compiled path expression.
type PathMatcher struct {
	expr        string
	re          *regexp.Regexp
	static      bool
	specificity int
}

// CompilePath compiles a path expression. The expression is trimmed
// and normalized before compilation.
func CompilePath(raw string) (*PathMatcher, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyExpression
	}
	expr := util.NormalizePath(raw)

	pm := &PathMatcher{
		expr:        expr,
		static:      isStaticExpr(expr),
		specificity: baseSpecificity(expr),
	}

	var pattern string
	if pm.static {
		pattern = `^(` + regexp.QuoteMeta(expr) + `)(?:/.*)?$`
	} else {
		var err error
		pattern, err = dynamicPattern(expr)
		if err != nil {
			return nil, err
		}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w in %q: %w", ErrInvalidConstraint, expr, err)
	}
	pm.re = re

	return pm, nil
}

// MustCompilePath is like CompilePath but panics on error.
func MustCompilePath(raw string) *PathMatcher {
	pm, err := CompilePath(raw)
	if err != nil {
		panic(err)
	}
	return pm
}

// Match reports whether path matches and returns the concrete mount.
// The mount is a literal prefix of path apart from a dropped trailing
// slash, so stripping it from path is always exact.
func (p *PathMatcher) Match(path string) (string, bool) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	mount := m[1]
	if len(mount) > 1 {
		mount = strings.TrimSuffix(mount, "/")
	}
	if mount == "" {
		mount = "/"
	}
	return mount, true
}

// Expr returns the normalized expression.
func (p *PathMatcher) Expr() string { return p.expr }

// IsStatic reports whether the expression is a plain literal path.
func (p *PathMatcher) IsStatic() bool { return p.static }

// BaseSpecificity is the length of the expression before its first ':'.
func (p *PathMatcher) BaseSpecificity() int { return p.specificity }

// String returns the compiled regular expression.
func (p *PathMatcher) String() string { return p.re.String() }

func isStaticExpr(expr string) bool {
	return !strings.ContainsAny(expr, `:()\`)
}

func baseSpecificity(expr string) int {
	if i := strings.IndexByte(expr, ':'); i >= 0 {
		return i
	}
	return len(expr)
}

func dynamicPattern(expr string) (string, error) {
	parts := strings.FieldsFunc(expr, func(r rune) bool { return r == '/' })

	wildcard := ""
	if n := len(parts); n > 0 {
		if m := trailingWildcard.FindStringSubmatch(parts[n-1]); m != nil {
			wildcard = m[2]
			parts = parts[:n-1]
		}
	}

	segs := make([]string, 0, len(parts))
	for _, part := range parts {
		seg, err := segmentPattern(part)
		if err != nil {
			return "", err
		}
		segs = append(segs, seg)
	}

	mount := ""
	if len(segs) > 0 {
		mount = "/" + strings.Join(segs, "/")
	}

	if wildcard == "+" {
		return `^(` + mount + `)/.+$`, nil
	}
	return `^(` + mount + `)(?:/.*)?$`, nil
}

// segmentPattern converts one segment to a regular expression. Only
// the mount group captures; parameters are emitted non-capturing.
func segmentPattern(seg string) (string, error) {
	var sb strings.Builder

	for i := 0; i < len(seg); {
		switch seg[i] {
		case '\\':
			if i+1 < len(seg) {
				sb.WriteString(regexp.QuoteMeta(seg[i+1 : i+2]))
			}
			i += 2

		case ':':
			m := paramName.FindStringSubmatch(seg[i:])
			if m == nil {
				return "", fmt.Errorf("%w in segment %q", ErrInvalidParam, seg)
			}
			i += 1 + len(m[1])

			if i >= len(seg) || seg[i] != '(' {
				sb.WriteString(`[^/]+`)
				continue
			}

			end, err := closingParen(seg, i)
			if err != nil {
				return "", err
			}
			inner := unescapeLiterals(seg[i+1 : end])
			if _, err := regexp.Compile(inner); err != nil {
				return "", fmt.Errorf("%w %q in segment %q: %w", ErrInvalidConstraint, inner, seg, err)
			}
			sb.WriteString(`(?:` + inner + `)`)
			i = end + 1

		default:
			sb.WriteString(regexp.QuoteMeta(seg[i : i+1]))
			i++
		}
	}

	return sb.String(), nil
}

// closingParen returns the index of the ')' balancing the '(' at open.
// Escaped characters do not count towards the depth.
func closingParen(seg string, open int) (int, error) {
	depth := 0
	for j := open; j < len(seg); j++ {
		switch seg[j] {
		case '\\':
			j++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return j, nil
			}
		}
	}
	return 0, fmt.Errorf("%w in segment %q", ErrUnclosedPattern, seg)
}

func unescapeLiterals(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
