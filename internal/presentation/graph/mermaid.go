package graph

import (
	"fmt"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/aretw0/few/pkg/datadef"
	"github.com/aretw0/few/pkg/domain"
	"github.com/aretw0/few/pkg/expr"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	// ChangedPaths are store references written by the last dispatch ("data.value").
	ChangedPaths []string
	// LastAction is the most recently invoked action.
	LastAction string
}

// GenerateMermaid produces a Mermaid flowchart of a component's data flow.
// It applies semantic styling:
// - Store path: [/Parallelogram/]
// - Simple action: [[Subroutine]]
// - Structured action: [Rectangle]
// Structured actions get an edge from every store path their inputs read and an edge to
// every store path their outputs write. Simple actions are opaque and have no edges.
func GenerateMermaid(def domain.ComponentDefinition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	names := make([]string, 0, len(def.Actions))
	for name := range def.Actions {
		names = append(names, name)
	}
	sort.Strings(names)

	paths := map[string]bool{}
	var edges []string

	for _, name := range names {
		a := def.Actions[name]
		safeID := "action_" + sanitizeMermaidID(name)

		opener, closer := "[", "]"
		if a.Kind == domain.ActionSimple {
			opener, closer = "[[", "]]"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, name, closer))

		if a.Kind != domain.ActionStructured {
			continue
		}
		for _, ref := range inputRefs(a.Input) {
			paths[ref] = true
			edges = append(edges, fmt.Sprintf("    %s -.-> %s\n", pathID(ref), safeID))
		}
		if a.Output != nil {
			for pair := a.Output.Oldest(); pair != nil; pair = pair.Next() {
				paths[pair.Key] = true
				label := pair.Value
				if label == "" {
					label = "result"
				}
				safeLabel := strings.ReplaceAll(label, "\"", "'")
				edges = append(edges, fmt.Sprintf("    %s -- \"%s\" --> %s\n", safeID, safeLabel, pathID(pair.Key)))
			}
		}
	}

	sortedPaths := make([]string, 0, len(paths))
	for p := range paths {
		sortedPaths = append(sortedPaths, p)
	}
	sort.Strings(sortedPaths)
	for _, p := range sortedPaths {
		sb.WriteString(fmt.Sprintf("    %s[/\"%s\"/]\n", pathID(p), p))
	}
	for _, e := range edges {
		sb.WriteString(e)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef changed fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, p := range overlay.ChangedPaths {
			id := pathID(p)
			if !seen[id] && paths[p] {
				seen[id] = true
				sb.WriteString(fmt.Sprintf("    class %s changed;\n", id))
			}
		}
		if overlay.LastAction != "" {
			sb.WriteString(fmt.Sprintf("    class action_%s current;\n", sanitizeMermaidID(overlay.LastAction)))
		}
	}

	return sb.String()
}

// inputRefs collects the data paths read by placeholder inputs.
func inputRefs(input *orderedmap.OrderedMap[string, any]) []string {
	if input == nil {
		return nil
	}
	var refs []string
	seen := map[string]bool{}
	var visit func(v any)
	visit = func(v any) {
		switch d := v.(type) {
		case string:
			src, ok := datadef.Placeholder(d)
			if !ok {
				return
			}
			found, err := expr.References(src)
			if err != nil {
				return
			}
			for _, r := range found {
				if (r == "data" || strings.HasPrefix(r, "data.")) && !seen[r] {
					seen[r] = true
					refs = append(refs, r)
				}
			}
		case map[string]any:
			keys := make([]string, 0, len(d))
			for k := range d {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				visit(d[k])
			}
		case []any:
			for _, el := range d {
				visit(el)
			}
		case *orderedmap.OrderedMap[string, any]:
			for pair := d.Oldest(); pair != nil; pair = pair.Next() {
				visit(pair.Value)
			}
		}
	}
	visit(input)
	return refs
}

func pathID(p string) string {
	return "path_" + sanitizeMermaidID(p)
}

func sanitizeMermaidID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", "[", "_", "]", "_", "\"", "_", "'", "_", " ", "_")
	return r.Replace(id)
}
