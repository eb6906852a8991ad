package vdom

import (
	"maps"
	"slices"
	"sort"

	"github.com/maruel/natural"

	"vdomkit/utils/debug"
)

// Dump returns indented text representation of element trees. Props are
// listed in natural order so output is stable.
func Dump(roots []*Elem) string {
	tw := debug.NewTreeWriter()
	for _, root := range roots {
		dumpElem(tw, 0, root)
	}
	return tw.String()
}

func sortedKeys(m map[string]any) []string {
	keys := slices.Collect(maps.Keys(m))
	sort.Sort(natural.StringSlice(keys))
	return keys
}

func dumpElem(tw *debug.TreeWriter, depth int, e *Elem) {
	if e.IsText() {
		tw.TextBlock(depth, TextTag, e.Text)
		return
	}
	if e.ID != "" {
		tw.Line(depth, "<%s> waveid=%s", e.Tag, e.ID)
	} else {
		tw.Line(depth, "<%s>", e.Tag)
	}
	for _, k := range sortedKeys(e.Props) {
		dumpProp(tw, depth+1, k, e.Props[k])
	}
	for _, child := range e.Children {
		dumpElem(tw, depth+1, child)
	}
}

func dumpProp(tw *debug.TreeWriter, depth int, key string, value any) {
	m, ok := value.(map[string]any)
	if !ok {
		tw.Value(depth, "@"+key, value)
		return
	}
	tw.Line(depth, "@%s:", key)
	for _, k := range sortedKeys(m) {
		tw.Value(depth+1, k, m[k])
	}
}
