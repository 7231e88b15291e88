// Package model defines the map elements decoded from a map file.
package model

import (
	"slices"
	"strings"
)

// Tag is a key=value attribute of a node or a way.
type Tag struct {
	Key   string
	Value string
}

// ParseTag splits s at the first '='. A string without '=' is a key with an
// empty value.
func ParseTag(s string) Tag {
	key, value, _ := strings.Cut(s, "=")
	return Tag{Key: key, Value: value}
}

func (t Tag) String() string {
	return t.Key + "=" + t.Value
}

// TagList is a multimap from keys to their distinct values, kept in
// insertion order.
type TagList struct {
	tags []Tag
}

func NewTagList(tags ...Tag) TagList {
	var l TagList
	for _, t := range tags {
		l.Add(t)
	}
	return l
}

// Add appends t unless the same key and value are already present.
func (l *TagList) Add(t Tag) {
	if slices.Contains(l.tags, t) {
		return
	}
	l.tags = append(l.tags, t)
}

// Get returns all values stored under key.
func (l TagList) Get(key string) []string {
	var values []string
	for _, t := range l.tags {
		if t.Key == key {
			values = append(values, t.Value)
		}
	}
	return values
}

// Value returns the first value under key.
func (l TagList) Value(key string) (string, bool) {
	for _, t := range l.tags {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}

func (l TagList) Has(key string) bool {
	_, ok := l.Value(key)
	return ok
}

func (l TagList) Len() int {
	return len(l.tags)
}

// Tags returns a copy of the tags.
func (l TagList) Tags() []Tag {
	return slices.Clone(l.tags)
}

// Match reports whether any key matching m's key patterns carries a value
// matching its value patterns.
func (l TagList) Match(m Matcher) bool {
	for _, t := range l.tags {
		if !m.Keys.Match(t.Key) {
			continue
		}
		if len(m.Values) == 0 || m.Values.Match(t.Value) {
			return true
		}
	}
	return false
}

func (l TagList) String() string {
	parts := make([]string, len(l.tags))
	for i, t := range l.tags {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}
