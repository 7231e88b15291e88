package model

import "strings"

// Pattern matches a single tag key or value.
type Pattern interface {
	Match(s string) bool
	String() string
}

// Exact matches a string case-insensitively.
type Exact string

func (p Exact) Match(s string) bool {
	return strings.EqualFold(string(p), s)
}

func (p Exact) String() string {
	return string(p)
}

// Wildcard matches a glob with '*' (any run) and '?' (one character),
// case-insensitively.
type Wildcard struct {
	glob  string
	lower []rune
}

func NewWildcard(glob string) Wildcard {
	return Wildcard{glob: glob, lower: []rune(strings.ToLower(glob))}
}

func (p Wildcard) String() string {
	return p.glob
}

func (p Wildcard) Match(s string) bool {
	text := []rune(strings.ToLower(s))
	pat := p.lower

	ti, pi := 0, 0
	star, mark := -1, 0
	for ti < len(text) {
		switch {
		case pi < len(pat) && (pat[pi] == '?' || pat[pi] == text[ti]):
			ti++
			pi++
		case pi < len(pat) && pat[pi] == '*':
			star, mark = pi, ti
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			ti = mark
		default:
			return false
		}
	}
	for pi < len(pat) && pat[pi] == '*' {
		pi++
	}
	return pi == len(pat)
}

// CompilePattern returns Wildcard if s contains '*' or '?', else Exact.
func CompilePattern(s string) Pattern {
	if strings.ContainsAny(s, "*?") {
		return NewWildcard(s)
	}
	return Exact(s)
}

// Patterns is an OR of patterns.
type Patterns []Pattern

// CompilePatterns splits s at '|' and compiles each alternative.
// An empty string yields no patterns.
func CompilePatterns(s string) Patterns {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	ps := make(Patterns, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		ps = append(ps, CompilePattern(part))
	}
	return ps
}

func (ps Patterns) Match(s string) bool {
	for _, p := range ps {
		if p.Match(s) {
			return true
		}
	}
	return false
}

func (ps Patterns) String() string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, "|")
}

// Matcher tests a TagList against key and value alternatives.
type Matcher struct {
	Keys   Patterns
	Values Patterns
}

// NewMatcher compiles "k1|k2" and "v1|v2*" style expressions.
func NewMatcher(keys, values string) Matcher {
	return Matcher{Keys: CompilePatterns(keys), Values: CompilePatterns(values)}
}
