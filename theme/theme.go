// Package theme matches map elements against style rules.
package theme

import (
	"log/slog"

	"github.com/eak1mov/go-mapsforge/cache"
	"github.com/eak1mov/go-mapsforge/model"
)

// DefaultMatchCacheCapacity is the number of match results kept by a Theme.
const DefaultMatchCacheCapacity = 1024

// Element selects the kind of map element a rule applies to.
type Element uint8

const (
	AnyElement Element = iota
	NodeElement
	WayElement
)

// Closed selects ways by whether their outer ring is closed.
type Closed uint8

const (
	AnyClosed Closed = iota
	ClosedWay
	OpenWay
)

// Rule is a node of the style tree. A rule matches when its element,
// closed and zoom conditions hold and the tags satisfy Match. A rule
// without key patterns matches any tags. Instructions of all matching
// rules on the path from the root are collected in tree order.
type Rule struct {
	Element Element
	Closed  Closed
	ZoomMin uint8
	ZoomMax uint8 // zero means no upper bound
	Match   model.Matcher

	Instructions []Instruction
	Children     []*Rule
}

func (r *Rule) matches(e Element, tags model.TagList, zoom uint8, closed bool) bool {
	if r.Element != AnyElement && r.Element != e {
		return false
	}
	if e == WayElement {
		if r.Closed == ClosedWay && !closed || r.Closed == OpenWay && closed {
			return false
		}
	}
	if zoom < r.ZoomMin || r.ZoomMax != 0 && zoom > r.ZoomMax {
		return false
	}
	return len(r.Match.Keys) == 0 || tags.Match(r.Match)
}

func (r *Rule) collect(e Element, tags model.TagList, zoom uint8, closed bool, out []Instruction) []Instruction {
	if !r.matches(e, tags, zoom, closed) {
		return out
	}
	out = append(out, r.Instructions...)
	for _, child := range r.Children {
		out = child.collect(e, tags, zoom, closed, out)
	}
	return out
}

type matchKey struct {
	element Element
	zoom    uint8
	closed  bool
	tags    string
}

type config struct {
	MatchCacheCapacity int
	Logger             *slog.Logger
}

type Option func(*config)

// WithMatchCacheCapacity sets the number of cached match results. A
// capacity below one keeps the default.
func WithMatchCacheCapacity(capacity int) Option {
	return func(c *config) {
		if capacity > 0 {
			c.MatchCacheCapacity = capacity
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.Logger = logger }
}

// Theme is a compiled set of rules.
//
// A Theme caches match results and is not safe for concurrent use.
type Theme struct {
	rules  []*Rule
	levels int
	cache  *cache.LRU[matchKey, []Instruction]
	logger *slog.Logger
}

// New compiles rules into a theme and numbers its shape instructions.
func New(rules []*Rule, opts ...Option) *Theme {
	config := config{
		MatchCacheCapacity: DefaultMatchCacheCapacity,
		Logger:             slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	t := &Theme{
		rules:  rules,
		cache:  cache.New[matchKey, []Instruction](config.MatchCacheCapacity),
		logger: config.Logger,
	}
	var walk func(r *Rule)
	walk = func(r *Rule) {
		for _, in := range r.Instructions {
			if s, ok := in.(Shape); ok {
				s.setLevel(t.levels)
				t.levels++
			}
		}
		for _, child := range r.Children {
			walk(child)
		}
	}
	for _, r := range rules {
		walk(r)
	}
	return t
}

// Levels returns the number of drawing levels used by shape instructions.
func (t *Theme) Levels() int {
	return t.levels
}

// MatchNode returns the instructions for a node at zoom.
func (t *Theme) MatchNode(tags model.TagList, zoom uint8) []Instruction {
	return t.match(NodeElement, tags, zoom, false)
}

// MatchWay returns the instructions for a way at zoom.
func (t *Theme) MatchWay(tags model.TagList, zoom uint8, closed bool) []Instruction {
	return t.match(WayElement, tags, zoom, closed)
}

func (t *Theme) match(e Element, tags model.TagList, zoom uint8, closed bool) []Instruction {
	key := matchKey{element: e, zoom: zoom, closed: closed, tags: tags.String()}
	if cached, ok := t.cache.Get(key); ok {
		return cached
	}
	var out []Instruction
	for _, r := range t.rules {
		out = r.collect(e, tags, zoom, closed, out)
	}
	if evicted, ok := t.cache.Add(key, out); ok {
		t.logger.Debug("mapsforge: match cache eviction", "tags", evicted.tags)
	}
	return out
}

// ClearCache drops all cached match results.
func (t *Theme) ClearCache() {
	t.cache.Clear()
}
