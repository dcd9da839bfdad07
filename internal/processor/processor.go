// Package processor defines the document scoring contract and a registry
// of named processor implementations. A processor turns fetched document
// bytes into a relevancy score and extracted metadata.
package processor

import (
	"fmt"
	"sort"
	"sync"
)

// Reserved metadata keys a processor may populate.
const (
	MetaNumPages  = "_num_pages"
	MetaRelevancy = "_relevancy"
	MetaTitle     = "/Title"
	MetaAuthor    = "/Author"
	MetaSubject   = "/Subject"
	MetaKeywords  = "/Keywords"
)

// Processor scores a fetched document against the crawl's keywords.
// Processing failures are terminal for the URL: the content was fetched,
// so the dispatcher logs the error and treats the item as done.
type Processor interface {
	Process(body []byte, mime string) (relevancy float64, metadata map[string]any, err error)
}

// Factory builds a processor instance for one worker.
type Factory func(keywords []string) Processor

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a processor constructor available under name. Intended
// to be called from init functions.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// New builds a processor registered under name.
func New(name string, keywords []string) (Processor, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown processor %q (registered: %v)", name, Names())
	}

	return factory(keywords), nil
}

// Names lists the registered processor names, sorted.
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
