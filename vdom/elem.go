// Package vdom defines virtual DOM delivered by blocks and rebuilds element
// trees from their flat transfer form.
package vdom

import (
	"strings"

	"vdomkit/scope"
)

// TextTag is the tag of text nodes.
const TextTag = "#text"

// Elem is a node of virtual DOM tree. Text nodes (Tag == TextTag) carry Text
// and never have ID or children.
type Elem struct {
	ID       string         `json:"waveid,omitempty"`
	Tag      string         `json:"tag"`
	Props    map[string]any `json:"props,omitempty"`
	Children []*Elem        `json:"children,omitempty"`
	Text     string         `json:"text,omitempty"`
}

// TransferElem is a flat wire form of Elem. Children reference other
// elements of the same snapshot by WaveID.
type TransferElem struct {
	Root     bool           `json:"root,omitempty"`
	WaveID   string         `json:"waveid,omitempty"`
	Tag      string         `json:"tag"`
	Props    map[string]any `json:"props,omitempty"`
	Children []string       `json:"children,omitempty"`
	Text     string         `json:"text,omitempty"`
}

// IsText checks if element is a text node.
func (e *Elem) IsText() bool {
	return e.Tag == TextTag
}

// ScopedID returns element id scoped to the block namespace, empty for
// text nodes.
func (e *Elem) ScopedID(namespace string) string {
	if e.ID == "" {
		return ""
	}
	return scope.ID(namespace, e.ID)
}

// TextContent returns concatenated text of all text nodes in the subtree.
func (e *Elem) TextContent() string {
	if e.IsText() {
		return e.Text
	}
	if len(e.Children) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, child := range e.Children {
		sb.WriteString(child.TextContent())
	}
	return sb.String()
}
