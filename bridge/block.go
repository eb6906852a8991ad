// Package bridge ties sanitizers and tree reconstruction to a single block
// instance as host rendering code sees it.
package bridge

import (
	"go.uber.org/zap"

	"vdomkit/css"
	"vdomkit/scope"
	"vdomkit/vdom"
)

// StyleProp is the element property holding inline style map.
const StyleProp = "style"

// Block is host side view of a block instance. All content coming from block
// goes through it so ids, URLs and styles are scoped to block namespace.
type Block struct {
	id  string
	s   *css.Sanitizer
	log *zap.Logger
}

// NewBlock creates block view for namespace id. When s is nil sanitizer with
// default rules is used.
func NewBlock(id string, s *css.Sanitizer, log *zap.Logger) *Block {
	if log == nil {
		log = zap.NewNop()
	}
	if s == nil {
		s = css.NewSanitizer(log)
	}
	return &Block{
		id:  id,
		s:   s,
		log: log.Named("block").With(zap.String("block", id)),
	}
}

// ID returns block namespace.
func (b *Block) ID() string {
	return b.id
}

// ScopedID returns element id scoped to this block.
func (b *Block) ScopedID(local string) string {
	if err := scope.CheckLocalID(local); err != nil {
		b.log.Warn("Ambiguous element id", zap.Error(err))
	}
	return scope.ID(b.id, local)
}

// ScopeClass returns class name wrapping all block styles.
func (b *Block) ScopeClass() string {
	return scope.ClassName(b.id)
}

// Stylesheet sanitizes block stylesheet. When false is returned stylesheet
// could not be made safe and block content should be rendered unstyled.
func (b *Block) Stylesheet(cssText string) (string, bool) {
	out, err := b.s.SanitizeStylesheet(b.id, cssText, b.ScopeClass())
	if err != nil {
		return "", false
	}
	return out, true
}

// Style sanitizes inline style map. Values which could not be processed are
// kept as is and reported to the log.
func (b *Block) Style(style map[string]any) map[string]any {
	out, err := b.s.SanitizeStyleMap(b.id, style)
	if err != nil {
		b.log.Warn("Inline style was not fully sanitized", zap.Error(err))
	}
	return out
}

// Snapshot decodes flat snapshot, rebuilds element trees and sanitizes inline
// styles of every element.
func (b *Block) Snapshot(data []byte) ([]*vdom.Elem, error) {
	elems, err := vdom.DecodeTransfer(data)
	if err != nil {
		return nil, err
	}
	roots := vdom.Reconstruct(elems)

	seen := make(map[*vdom.Elem]struct{})
	for _, root := range roots {
		b.sanitizeTree(root, seen)
	}
	b.log.Debug("Snapshot reconstructed", zap.Int("elements", len(elems)), zap.Int("roots", len(roots)))
	return roots, nil
}

func (b *Block) sanitizeTree(e *vdom.Elem, seen map[*vdom.Elem]struct{}) {
	if _, ok := seen[e]; ok {
		return
	}
	seen[e] = struct{}{}

	if style, ok := e.Props[StyleProp].(map[string]any); ok {
		e.Props[StyleProp] = b.Style(style)
	}
	for _, child := range e.Children {
		b.sanitizeTree(child, seen)
	}
}
