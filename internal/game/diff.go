package game

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/jianghu-duel/duel-server-go/internal/game/state"
)

// Patch is one change between two state versions. A nil Value at a path
// that existed before means the key was removed.
type Patch struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// rootPath is used when the whole document changes type; "/" is never
// emitted.
const rootPath = "/state"

// appendOnlyKeys name arrays that are sent as appended elements or a clear
// instead of being replaced.
var appendOnlyKeys = map[string]bool{
	"deck":    true,
	"discard": true,
	"events":  true,
}

// Diff returns the patches that turn prev into next, in the JSON shape the
// state is sent to clients in. Object keys are visited in sorted order so the
// output is deterministic.
func Diff(prev, next *state.GameState) ([]Patch, error) {
	a, err := toTree(prev)
	if err != nil {
		return nil, err
	}
	b, err := toTree(next)
	if err != nil {
		return nil, err
	}
	return diffValue(a, b, ""), nil
}

func toTree(s *state.GameState) (any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return tree, nil
}

func diffValue(prev, next any, path string) []Patch {
	at := path
	if at == "" {
		at = rootPath
	}

	switch n := next.(type) {
	case map[string]any:
		p, ok := prev.(map[string]any)
		if !ok {
			return []Patch{{Path: at, Value: next}}
		}
		return diffObject(p, n, path)
	case []any:
		p, ok := prev.([]any)
		if !ok {
			return []Patch{{Path: at, Value: next}}
		}
		return diffArray(p, n, at)
	default:
		if !reflect.DeepEqual(prev, next) {
			return []Patch{{Path: at, Value: next}}
		}
		return nil
	}
}

func diffObject(prev, next map[string]any, path string) []Patch {
	keys := make([]string, 0, len(prev)+len(next))
	for k := range prev {
		keys = append(keys, k)
	}
	for k := range next {
		if _, ok := prev[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var patches []Patch
	for _, k := range keys {
		child := path + "/" + k
		pv, inPrev := prev[k]
		nv, inNext := next[k]
		switch {
		case !inNext:
			patches = append(patches, Patch{Path: child, Value: nil})
		case !inPrev:
			patches = append(patches, Patch{Path: child, Value: nv})
		default:
			patches = append(patches, diffValue(pv, nv, child)...)
		}
	}
	return patches
}

func diffArray(prev, next []any, path string) []Patch {
	if !appendOnlyKeys[lastSegment(path)] {
		if reflect.DeepEqual(prev, next) {
			return nil
		}
		return []Patch{{Path: path, Value: next}}
	}

	if len(next) == 0 {
		if len(prev) == 0 {
			return nil
		}
		return []Patch{{Path: path, Value: []any{}}}
	}
	if len(next) >= len(prev) && reflect.DeepEqual(prev, next[:len(prev)]) {
		patches := make([]Patch, 0, len(next)-len(prev))
		for i := len(prev); i < len(next); i++ {
			patches = append(patches, Patch{Path: path + "/" + strconv.Itoa(i), Value: next[i]})
		}
		return patches
	}
	// Drawn or pruned from the front: no longer a pure append.
	return []Patch{{Path: path, Value: next}}
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
