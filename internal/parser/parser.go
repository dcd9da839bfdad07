// Package parser defines the HTML link extraction contract and a registry
// of named parser implementations. Parsers are stateful per page, so each
// worker owns its own instance.
package parser

import (
	"fmt"
	"sort"
	"sync"
)

// Link is a hyperlink extracted from a page: the raw (possibly relative)
// URL, the anchor text, and an optional priority hint.
type Link struct {
	URL      string
	Text     *string
	Priority *int
}

// Parser extracts the title and outgoing links from HTML text.
// A nil title together with no links means the document forbids following
// (robots meta noindex/nofollow).
type Parser interface {
	Parse(text string) (title *string, links []Link)
}

// Factory builds a parser instance for one worker. Keywords are the
// crawl's relevancy keywords; implementations may ignore them.
type Factory func(keywords []string) Parser

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a parser constructor available under name. Intended to
// be called from init functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New builds a parser registered under name.
func New(name string, keywords []string) (Parser, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown parser %q (registered: %v)", name, Names())
	}

	return factory(keywords), nil
}

// Names lists the registered parser names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
