// snapdump prints an escape-core snapshot in a readable form: one line
// per entity with its pool and tags, followed by its component trees,
// then validates the document against the stock codec.
//
// Usage:
//
//	go run ./cmd/snapdump [snapshot.json]
package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rangzgamez/escape-core/internal/core/ecs"
	"github.com/rangzgamez/escape-core/internal/core/event"
	"github.com/rangzgamez/escape-core/internal/snapshot"
)

func main() {
	path := "escape-world.snap.json"
	if len(os.Args) >= 2 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error reading %s: %v\n", path, err)
		os.Exit(1)
	}

	// ---- Parse the document ----
	doc, err := snapshot.Unmarshal(data)
	if err != nil {
		var derr *snapshot.DecodeError
		if errors.As(err, &derr) {
			fmt.Fprintf(os.Stderr, "error parsing %s at byte %d: %s\n", path, derr.Offset, derr.Msg)
		} else {
			fmt.Fprintf(os.Stderr, "error parsing %s: %v\n", path, err)
		}
		os.Exit(1)
	}

	root, ok := doc.(map[string]any)
	if !ok {
		fmt.Fprintf(os.Stderr, "error: %s is not a snapshot document\n", path)
		os.Exit(1)
	}
	version, _ := root["version"].(float64)
	entities, _ := root["entities"].([]any)
	fmt.Printf("%s: version %d, %d entities\n\n", path, int(version), len(entities))

	// ---- Per-entity dump ----
	for i, raw := range entities {
		ent, ok := raw.(map[string]any)
		if !ok {
			fmt.Printf("#%d <malformed entry>\n", i)
			continue
		}
		line := fmt.Sprintf("#%d", i)
		if pool, ok := ent["pool"].(string); ok && pool != "" {
			line += " pool=" + pool
		}
		if tags, ok := ent["tags"].([]any); ok && len(tags) > 0 {
			parts := make([]string, 0, len(tags))
			for _, t := range tags {
				if s, ok := t.(string); ok {
					parts = append(parts, s)
				}
			}
			line += " tags=" + strings.Join(parts, ",")
		}
		fmt.Println(line)

		comps, _ := ent["components"].(map[string]any)
		kinds := make([]string, 0, len(comps))
		for k := range comps {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			fmt.Printf("  %-10s %s\n", k, renderTree(comps[k]))
		}
	}

	// ---- Validate against the stock codec ----
	reg := ecs.NewRegistry(event.NewBus())
	if err := snapshot.NewCodec().Decode(data, reg); err != nil {
		fmt.Fprintf(os.Stderr, "error decoding with stock codec: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDecoded %d entities with the stock codec\n", reg.ActiveCount())
}

// renderTree renders a component tree compactly by re-encoding it with
// the snapshot writer.
func renderTree(v any) string {
	b, err := snapshot.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
