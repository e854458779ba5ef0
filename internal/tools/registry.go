package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/pubsheet/internal/source"
)

// Fetcher downloads the CSV text of a sheet tab. *source.Fetcher implements it.
type Fetcher interface {
	FetchText(ctx context.Context, src source.Source) (string, error)
}

// Handler runs one tool. Errors are returned as is; Service.Call turns them
// into the result string. A Result returned alongside an error may carry the
// resolved source for logging.
type Handler func(ctx context.Context, f Fetcher, args Args) (Result, error)

// Result is a tool's successful output.
type Result struct {
	Text   string
	Rows   int  // records in the output
	JSON   bool // Text is a JSON document
	Source source.Source
}

// Param documents one argument of a tool.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description"`
}

// Definition describes a callable tool.
type Definition struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`

	// ErrorContext completes "Error <context>: <message>" in failed results.
	ErrorContext string `json:"-"`

	Run Handler `json:"-"`
}

var (
	registry   = make(map[string]Definition)
	registryMu sync.RWMutex
)

// Register adds a tool definition to the registry.
// Panics if a tool with the same name is already registered.
func Register(def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if def.Name == "" || def.Run == nil {
		panic("tool definition needs a name and a handler")
	}
	if _, exists := registry[def.Name]; exists {
		panic(fmt.Sprintf("tool already registered: %s", def.Name))
	}
	registry[def.Name] = def
}

// Get returns a tool definition by name.
func Get(name string) (Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[name]
	return def, ok
}

// All returns all registered tools sorted by name.
func All() []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Definition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Names returns the registered tool names, sorted.
func Names() []string {
	defs := All()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}
