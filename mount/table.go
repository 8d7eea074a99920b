package mount

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dashmesh/dashctl/core/stream"
)

type mountEntry struct {
	Prefix   string `json:"prefix"`
	Location struct {
		Kind string `json:"kind"`
		IP   string `json:"ip"`
	} `json:"location"`
}

type configFile struct {
	Mounts []mountEntry `json:"mounts"`
}

// Table resolves a file path to the Location that owns it, by longest
// matching configured prefix. It is safe for concurrent use: Reload
// atomically swaps the active prefix list.
type Table struct {
	mu       sync.RWMutex
	prefixes []mountEntry
	schema   *jsonschema.Schema
}

// NewTable compiles the embedded JSON Schema and loads path from disk.
func NewTable(path string) (*Table, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("mount-table.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("mount: compile schema: %w", err)
	}
	schema, err := compiler.Compile("mount-table.json")
	if err != nil {
		return nil, fmt.Errorf("mount: compile schema: %w", err)
	}
	t := &Table{schema: schema}
	if err := t.Reload(path); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload re-reads and re-validates the config at path, atomically
// swapping the active mount table on success. A failed reload leaves
// the previously loaded table untouched.
func (t *Table) Reload(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("mount: read %s: %w", path, err)
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return fmt.Errorf("mount: invalid json in %s: %w", path, err)
	}
	if err := t.schema.Validate(generic); err != nil {
		return fmt.Errorf("mount: %s failed schema validation: %w", path, err)
	}

	var cfg configFile
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&cfg); err != nil {
		return fmt.Errorf("mount: decode %s: %w", path, err)
	}

	entries := make([]mountEntry, len(cfg.Mounts))
	copy(entries, cfg.Mounts)
	sort.Slice(entries, func(i, j int) bool {
		return len(entries[i].Prefix) > len(entries[j].Prefix)
	})

	t.mu.Lock()
	t.prefixes = entries
	t.mu.Unlock()
	return nil
}

// LocationOf returns the Location owning path: the longest configured
// prefix path has, or an error if no prefix matches.
func (t *Table) LocationOf(path string) (stream.Location, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, entry := range t.prefixes {
		if strings.HasPrefix(path, entry.Prefix) {
			if entry.Location.Kind == "server" {
				return stream.Server(entry.Location.IP), nil
			}
			return stream.Client(), nil
		}
	}
	return stream.Location{}, fmt.Errorf("mount: no prefix configured for %q", path)
}

// Prefixes returns every configured mount prefix, used to build a
// fuzzy suggestion when LocationOf fails to match.
func (t *Table) Prefixes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.prefixes))
	for i, e := range t.prefixes {
		out[i] = e.Prefix
	}
	return out
}
