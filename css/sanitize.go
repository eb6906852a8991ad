package css

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	"vdomkit/scope"
)

var (
	// DefaultBlockedAtRules lists at-rules which have global effect and cannot
	// be contained by wrapper class.
	DefaultBlockedAtRules = []string{"import", "font-face", "keyframes", "namespace", "supports"}
	// DefaultFragmentProperties lists properties where url(#id) references
	// point to elements (SVG filters and masks) inside block content.
	DefaultFragmentProperties = []string{"filter", "mask"}

	// urlFunctions take string arguments as resource references.
	urlFunctions = map[string]bool{
		"url(":               true,
		"image(":             true,
		"image-set(":         true,
		"-webkit-image-set(": true,
	}
)

// Sanitizer makes untrusted block CSS safe to embed into host document.
// Sanitizer keeps no state between calls and could be used concurrently.
type Sanitizer struct {
	log           *zap.Logger
	parser        *Parser
	blocked       map[string]struct{}
	fragmentProps map[string]struct{}
}

// Option configures Sanitizer.
type Option func(*Sanitizer)

// WithBlockedAtRules replaces set of at-rules (names without "@") which are
// removed from stylesheets.
func WithBlockedAtRules(names ...string) Option {
	return func(s *Sanitizer) {
		s.blocked = nameSet(names)
	}
}

// WithFragmentProperties replaces set of properties in which url(#id)
// references are scoped.
func WithFragmentProperties(names ...string) Option {
	return func(s *Sanitizer) {
		s.fragmentProps = nameSet(names)
	}
}

// NewSanitizer creates sanitizer with default rules modified by options.
func NewSanitizer(log *zap.Logger, opts ...Option) *Sanitizer {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Sanitizer{
		log:           log.Named("css-sanitizer"),
		parser:        NewParser(log),
		blocked:       nameSet(DefaultBlockedAtRules),
		fragmentProps: nameSet(DefaultFragmentProperties),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func nameSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimPrefix(n, "@"))] = struct{}{}
	}
	return set
}

// SanitizeStylesheet parses cssText, removes global and cross-block
// constructs, scopes ids and block URLs with namespace and returns result
// wrapped into a single ".scopeClassName { ... }" block.
//
// Returned error is *Error. On error no styling should be applied.
func (s *Sanitizer) SanitizeStylesheet(namespace, cssText, scopeClassName string) (string, error) {
	var sb strings.Builder
	if _, err := s.SanitizeStylesheetTo(&sb, namespace, cssText, scopeClassName); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// SanitizeStylesheetTo is SanitizeStylesheet writing result to w. Result is
// written at once, nothing is written when stylesheet could not be
// sanitized. Failures to write are reported as processing errors.
func (s *Sanitizer) SanitizeStylesheetTo(w io.Writer, namespace, cssText, scopeClassName string) (n int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, processingError(fmt.Errorf("%v", r))
			s.log.Error("Unable to process stylesheet, ignoring", zap.String("block", namespace), zap.Error(err))
		}
	}()

	sheet, err := s.parser.Parse([]byte(cssText))
	if err != nil {
		s.log.Warn("Unable to parse stylesheet, ignoring", zap.String("block", namespace), zap.Error(err))
		return 0, err
	}

	wk := &walker{s: s, namespace: namespace}
	sheet.Items = wk.items(sheet.Items)

	var sb strings.Builder
	sb.WriteString(".")
	sb.WriteString(escapeIdent(scopeClassName))
	sb.WriteString(" { ")
	sheet.WriteTo(&sb) //nolint:errcheck
	sb.WriteString(" }")

	s.log.Debug("Stylesheet sanitized",
		zap.String("block", namespace),
		zap.Int("in", len(cssText)),
		zap.Int("out", sb.Len()),
		zap.Int("removed", wk.removed))

	written, err := io.WriteString(w, sb.String())
	if err != nil {
		err = processingError(err)
		s.log.Error("Unable to write stylesheet", zap.String("block", namespace), zap.Error(err))
		return int64(written), err
	}
	return int64(written), nil
}

// walker decides fate of every node and materializes lists from survivors.
type walker struct {
	s         *Sanitizer
	namespace string
	removed   int
}

func (w *walker) items(items []Item) []Item {
	kept := make([]Item, 0, len(items))
	for _, item := range items {
		var keep bool
		switch {
		case item.AtRule != nil:
			keep = w.atRule(item.AtRule)
		case item.Rule != nil:
			keep = w.rule(item.Rule)
		case item.Declaration != nil:
			keep = w.declaration(item.Declaration)
		}
		if keep {
			kept = append(kept, item)
		} else {
			w.removed++
		}
	}
	return kept
}

func (w *walker) atRule(a *AtRule) bool {
	if _, blocked := w.s.blocked[baseAtRuleName(a.Name)]; blocked {
		w.s.log.Debug("Removing at-rule", zap.String("rule", a.Name))
		return false
	}

	var ok bool
	// @import "x.css" references stylesheet with plain string
	if a.Prelude, ok = w.urls(a.Prelude, false, baseAtRuleName(a.Name) == "import"); !ok {
		w.s.log.Debug("Removing at-rule with invalid URL", zap.String("rule", a.Name))
		return false
	}
	if a.Raw != nil {
		if a.Raw, ok = w.urls(a.Raw, false, false); !ok || !balanced(a.Raw) {
			w.s.log.Debug("Removing at-rule with invalid body", zap.String("rule", a.Name))
			return false
		}
	}
	a.Body = w.items(a.Body)
	return true
}

func (w *walker) rule(r *Rule) bool {
	selectors := make([]Selector, 0, len(r.Selectors))
	for _, sel := range r.Selectors {
		if sel.HasRootPseudoClass() {
			w.s.log.Debug("Removing :root selector", zap.Stringer("selector", sel))
			continue
		}
		selectors = append(selectors, w.selector(sel))
	}
	if len(selectors) == 0 {
		return false
	}
	r.Selectors = selectors
	r.Body = w.items(r.Body)
	return true
}

// selector scopes all id selectors.
func (w *walker) selector(sel Selector) Selector {
	tokens := make([]Token, len(sel.Tokens))
	for i, t := range sel.Tokens {
		if t.Type == css.HashToken && len(t.Data) > 1 {
			t.Data = "#" + escapeIdent(scope.ID(w.namespace, unescapeIdent(t.Data[1:])))
		}
		tokens[i] = t
	}
	return Selector{Tokens: tokens}
}

func (w *walker) declaration(d *Declaration) bool {
	fragment := false
	if !d.Custom {
		_, fragment = w.s.fragmentProps[strings.ToLower(d.Property)]
	}
	var ok bool
	if d.Value, ok = w.urls(d.Value, fragment, false); !ok {
		w.s.log.Debug("Removing declaration with invalid URL", zap.String("property", d.Property))
		return false
	}
	return true
}

// urls rewrites URL references in tokens. When fragment is set url(#id)
// references are scoped as well. Strings are references only inside url()
// and image functions, or at top level when bare is set. False is returned
// when tokens reference resources of other blocks or are malformed.
// Original tokens are never modified.
func (w *walker) urls(tokens []Token, fragment, bare bool) ([]Token, bool) {
	out, cloned := tokens, false
	set := func(i int, t Token) {
		if !cloned {
			out, cloned = slices.Clone(tokens), true
		}
		out[i] = t
	}

	// enclosing functions, "(" for plain parentheses
	var funcs []string
	for i, t := range tokens {
		switch t.Type {
		case css.BadURLToken, css.BadStringToken:
			return nil, false

		case css.URLToken:
			target, q := urlValue(t.Data)
			rewritten, ok := w.url(target, fragment)
			if !ok {
				return nil, false
			}
			if rewritten != target {
				set(i, Token{Type: css.URLToken, Data: urlToken(rewritten, q)})
			}

		case css.StringToken:
			var fn string
			if len(funcs) > 0 {
				fn = funcs[len(funcs)-1]
			}
			if len(t.Data) < 2 || !urlFunctions[fn] && !(bare && len(funcs) == 0) {
				continue
			}
			q := t.Data[0]
			target := unescapeIdent(t.Data[1 : len(t.Data)-1])
			rewritten, ok := w.url(target, fragment && fn == "url(")
			if !ok {
				return nil, false
			}
			if rewritten != target {
				set(i, Token{Type: css.StringToken, Data: string(q) + escapeString(rewritten, q) + string(q)})
			}

		case css.FunctionToken:
			funcs = append(funcs, strings.ToLower(t.Data))
		case css.LeftParenthesisToken:
			funcs = append(funcs, "(")
		case css.RightParenthesisToken:
			if len(funcs) > 0 {
				funcs = funcs[:len(funcs)-1]
			}
		}
	}
	return out, true
}

func (w *walker) url(target string, fragment bool) (string, bool) {
	switch {
	case fragment && strings.HasPrefix(target, "#"):
		return scope.Fragment(w.namespace, target), true
	case scope.IsBlockURL(target):
		return scope.URL(w.namespace, target)
	}
	return target, true
}

// baseAtRuleName normalizes at-rule name dropping vendor prefix:
// "-webkit-keyframes" is "keyframes".
func baseAtRuleName(name string) string {
	name = strings.ToLower(name)
	if strings.HasPrefix(name, "-") {
		if i := strings.IndexByte(name[1:], '-'); i >= 0 {
			return name[i+2:]
		}
	}
	return name
}

func balanced(tokens []Token) bool {
	depth := 0
	for _, t := range tokens {
		switch t.Type {
		case css.LeftBraceToken:
			depth++
		case css.RightBraceToken:
			if depth--; depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
