package vdom

// Reconstruct links flat snapshot into element trees and returns roots in
// the order they appear in elems.
//
// Elements without WaveID cannot be referenced and are skipped. Child
// references which cannot be resolved are dropped and text nodes never get
// children. Two parents listing the same child share the same *Elem.
// Snapshot is expected to be acyclic, this is not verified.
func Reconstruct(elems []TransferElem) []*Elem {
	byID := make(map[string]*Elem, len(elems))
	var roots []*Elem

	for _, te := range elems {
		if te.WaveID == "" {
			continue
		}
		elem := &Elem{
			Tag:      te.Tag,
			Props:    te.Props,
			Text:     te.Text,
			Children: []*Elem{},
		}
		if te.Tag != TextTag {
			elem.ID = te.WaveID
		}
		byID[te.WaveID] = elem

		if te.Root {
			roots = append(roots, elem)
		}
	}

	for _, te := range elems {
		if te.WaveID == "" || len(te.Children) == 0 {
			continue
		}
		elem := byID[te.WaveID]
		if elem.IsText() {
			continue
		}
		children := make([]*Elem, 0, len(te.Children))
		for _, id := range te.Children {
			if child, ok := byID[id]; ok {
				children = append(children, child)
			}
		}
		elem.Children = children
	}
	return roots
}
