package css

import (
	"io"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// Token is a single lexical CSS token. Data is kept verbatim.
type Token struct {
	Type css.TokenType
	Data string
}

// Selector is one complex selector from a selector list (part between
// top-level commas).
type Selector struct {
	Tokens []Token
}

// HasRootPseudoClass returns true if :root is one of the selector's own
// components. Occurrences nested in functional pseudo-classes such as
// :not(:root) do not count.
func (s Selector) HasRootPseudoClass() bool {
	depth := 0
	for i, t := range s.Tokens {
		switch t.Type {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		case css.ColonToken:
			if depth != 0 || i+1 >= len(s.Tokens) || (i > 0 && s.Tokens[i-1].Type == css.ColonToken) {
				continue
			}
			next := s.Tokens[i+1]
			if next.Type == css.IdentToken && strings.EqualFold(next.Data, "root") {
				return true
			}
		}
	}
	return false
}

// String returns selector text with collapsed white space.
func (s Selector) String() string {
	var sb strings.Builder
	writeTokens(&sb, s.Tokens)
	return sb.String()
}

// Declaration is a "property: value" pair. Custom properties (--name) keep
// their value re-tokenized so it could be inspected as well.
type Declaration struct {
	Property string
	Value    []Token
	Custom   bool
}

// Rule is a qualified rule: selector list with a block. Block normally
// contains declarations, but nested rules are preserved as well.
type Rule struct {
	Selectors []Selector
	Body      []Item
}

// AtRule is an @-rule. Name does not include "@". Block-less at-rules (like
// @import) have HasBlock false. Bodies of at-rules the parser does not know
// the grammar for are kept as raw tokens in Raw.
type AtRule struct {
	Name     string
	Prelude  []Token
	HasBlock bool
	Body     []Item
	Raw      []Token
}

// Item is a single node of the stylesheet.
// Exactly one of Rule, AtRule or Declaration is non-nil.
type Item struct {
	Rule        *Rule
	AtRule      *AtRule
	Declaration *Declaration
}

// Stylesheet is a parsed CSS stylesheet.
type Stylesheet struct {
	Items []Item
}

// WriteTo writes compact CSS text of the stylesheet to w, implementing
// io.WriterTo.
func (s *Stylesheet) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	writeItems(cw, s.Items)
	return cw.n, cw.err
}

// String returns CSS text of the stylesheet.
func (s *Stylesheet) String() string {
	var sb strings.Builder
	s.WriteTo(&sb) //nolint:errcheck
	return sb.String()
}

// countingWriter remembers first error, so serialization code does not have
// to check every write.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (cw *countingWriter) WriteString(s string) (int, error) {
	if cw.err != nil {
		return 0, cw.err
	}
	n, err := io.WriteString(cw.w, s)
	cw.n += int64(n)
	cw.err = err
	return n, err
}

type stringWriter interface {
	WriteString(string) (int, error)
}

func writeItems(w stringWriter, items []Item) {
	for i, item := range items {
		switch {
		case item.Declaration != nil:
			writeDeclaration(w, item.Declaration)
			if i < len(items)-1 {
				w.WriteString(";")
			}
		case item.Rule != nil:
			writeRule(w, item.Rule)
		case item.AtRule != nil:
			writeAtRule(w, item.AtRule)
		}
	}
}

func writeDeclaration(w stringWriter, d *Declaration) {
	w.WriteString(d.Property)
	w.WriteString(":")
	writeTokens(w, d.Value)
}

func writeRule(w stringWriter, r *Rule) {
	for i, sel := range r.Selectors {
		if i > 0 {
			w.WriteString(",")
		}
		writeTokens(w, sel.Tokens)
	}
	w.WriteString("{")
	writeItems(w, r.Body)
	w.WriteString("}")
}

func writeAtRule(w stringWriter, a *AtRule) {
	w.WriteString("@")
	w.WriteString(a.Name)
	if hasContent(a.Prelude) {
		w.WriteString(" ")
		writeTokens(w, a.Prelude)
	}
	if !a.HasBlock {
		w.WriteString(";")
		return
	}
	w.WriteString("{")
	if a.Raw != nil {
		writeRawTokens(w, a.Raw)
	} else {
		writeItems(w, a.Body)
	}
	w.WriteString("}")
}

// writeTokens writes tokens collapsing white space runs into a single space
// and dropping leading and trailing white space.
func writeTokens(w stringWriter, tokens []Token) {
	pendingSpace, started := false, false
	for _, t := range tokens {
		switch t.Type {
		case css.WhitespaceToken:
			pendingSpace = started
			continue
		case css.CommentToken:
			continue
		}
		if pendingSpace {
			w.WriteString(" ")
			pendingSpace = false
		}
		w.WriteString(t.Data)
		started = true
	}
}

// writeRawTokens writes tokens exactly as they were lexed.
func writeRawTokens(w stringWriter, tokens []Token) {
	for _, t := range tokens {
		w.WriteString(t.Data)
	}
}

func hasContent(tokens []Token) bool {
	for _, t := range tokens {
		if t.Type != css.WhitespaceToken && t.Type != css.CommentToken {
			return true
		}
	}
	return false
}
