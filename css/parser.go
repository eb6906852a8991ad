package css

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser parses CSS stylesheets into a Stylesheet tree.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Stylesheet. Returned error is always *Error
// of kind FailureKindParse.
func (p *Parser) Parse(data []byte) (*Stylesheet, error) {
	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)

	items, _, err := p.parseItems(parser, false)
	if err != nil {
		p.log.Debug("CSS parse error", zap.Error(err))
		return nil, parseError(err)
	}
	return &Stylesheet{Items: items}, nil
}

// parseItems consumes grammar up to the end of the current block (or end of
// input for top level). Tokens of at-rule blocks with unknown grammar are
// returned separately as raw.
func (p *Parser) parseItems(parser *css.Parser, nested bool) (items []Item, raw []Token, err error) {
	// selectors reported before the ruleset block starts (comma separated lists)
	var pending []Token

	for {
		gt, tt, data := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			perr := parser.Err()
			if perr == nil || perr == io.EOF {
				if nested {
					p.log.Debug("Unterminated block at the end of stylesheet")
				}
				return items, raw, nil
			}
			// declaration grammar rejects nested rules with selectors
			// starting with "#", ":" or "[", tokens are still available
			if !nested || blockEnd(parser.Values()) < 0 {
				return nil, nil, perr
			}
			recovered, err := p.nestedRules(parser.Values())
			if err != nil {
				return nil, nil, err
			}
			items = append(items, recovered...)

		case css.EndRulesetGrammar, css.EndAtRuleGrammar:
			if nested {
				return items, raw, nil
			}
			p.log.Debug("Ignoring unbalanced block end")

		case css.CommentGrammar:
			// comments are not preserved

		case css.AtRuleGrammar:
			items = append(items, Item{AtRule: &AtRule{
				Name:    atRuleName(data),
				Prelude: copyTokens(parser.Values()),
			}})

		case css.BeginAtRuleGrammar:
			// values must be copied before parser moves on
			rule := &AtRule{
				Name:     atRuleName(data),
				Prelude:  copyTokens(parser.Values()),
				HasBlock: true,
			}
			if rule.Body, rule.Raw, err = p.parseItems(parser, true); err != nil {
				return nil, nil, err
			}
			items = append(items, Item{AtRule: rule})

		case css.QualifiedRuleGrammar:
			pending = append(pending, selectorTokens(data, parser.Values())...)
			pending = append(pending, Token{Type: css.CommaToken, Data: ","})

		case css.BeginRulesetGrammar:
			sel := append(pending, selectorTokens(data, parser.Values())...)
			pending = nil

			rule := &Rule{Selectors: splitSelectors(sel)}
			if rule.Body, _, err = p.parseItems(parser, true); err != nil {
				return nil, nil, err
			}
			items = append(items, Item{Rule: rule})

		case css.DeclarationGrammar:
			items = append(items, Item{Declaration: &Declaration{
				Property: string(data),
				Value:    copyTokens(parser.Values()),
			}})

		case css.CustomPropertyGrammar:
			var sb strings.Builder
			for _, v := range parser.Values() {
				sb.Write(v.Data)
			}
			value, err := tokenize(sb.String())
			if err != nil {
				return nil, nil, fmt.Errorf("custom property %s: %w", data, err)
			}
			items = append(items, Item{Declaration: &Declaration{
				Property: string(data),
				Value:    value,
				Custom:   true,
			}})

		case css.TokenGrammar:
			raw = append(raw, Token{Type: tt, Data: string(data)})
		}
	}
}

// nestedRules parses part of a rule body rejected by the declaration
// grammar. It starts with a nested rule, which is parsed on its own, the rest
// is parsed as rule body again.
func (p *Parser) nestedRules(values []css.Token) ([]Item, error) {
	end := blockEnd(values)

	var rule, rest strings.Builder
	for i, v := range values {
		if i <= end {
			rule.Write(v.Data)
		} else {
			rest.Write(v.Data)
		}
	}
	p.log.Debug("Reparsing nested rule", zap.String("rule", rule.String()))

	items, _, err := p.parseItems(css.NewParser(parse.NewInputString(rule.String()), false), false)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest.String()) == "" {
		return items, nil
	}

	more, _, err := p.parseItems(css.NewParser(parse.NewInputString("&{"+rest.String()+"}"), false), false)
	if err != nil {
		return nil, err
	}
	for _, item := range more {
		if item.Rule != nil {
			items = append(items, item.Rule.Body...)
		}
	}
	return items, nil
}

// blockEnd returns index of the token closing the first {} block, last
// index when block is not terminated, or -1 when there is no block.
func blockEnd(values []css.Token) int {
	depth, opened := 0, false
	for i, v := range values {
		switch v.TokenType {
		case css.LeftBraceToken:
			depth, opened = depth+1, true
		case css.RightBraceToken:
			if depth--; opened && depth == 0 {
				return i
			}
		}
	}
	if opened {
		return len(values) - 1
	}
	return -1
}

func atRuleName(data []byte) string {
	return strings.TrimPrefix(string(data), "@")
}

func copyTokens(values []css.Token) []Token {
	if len(values) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(values))
	for _, v := range values {
		tokens = append(tokens, Token{Type: v.TokenType, Data: string(v.Data)})
	}
	return tokens
}

// selectorTokens builds selector tokens from grammar data and values. Data
// may carry the first selector token, block and list punctuation is
// dropped.
func selectorTokens(data []byte, values []css.Token) []Token {
	var tokens []Token
	if len(bytes.TrimSpace(data)) > 0 {
		lead, _ := tokenize(string(data))
		for _, t := range lead {
			if t.Type != css.LeftBraceToken {
				tokens = append(tokens, t)
			}
		}
	}
	return append(tokens, copyTokens(values)...)
}

// splitSelectors splits selector list on top-level commas. Empty selectors
// are dropped.
func splitSelectors(tokens []Token) []Selector {
	var (
		selectors []Selector
		current   []Token
		depth     int
	)
	flush := func() {
		if hasContent(current) {
			selectors = append(selectors, Selector{Tokens: current})
		}
		current = nil
	}
	for _, t := range tokens {
		switch t.Type {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		case css.CommaToken:
			if depth == 0 {
				flush()
				continue
			}
		}
		current = append(current, t)
	}
	flush()
	return selectors
}

// tokenize lexes s as a sequence of CSS tokens.
func tokenize(s string) ([]Token, error) {
	l := css.NewLexer(parse.NewInputString(s))

	var tokens []Token
	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			return tokens, nil
		case css.BadStringToken, css.BadURLToken:
			return nil, fmt.Errorf("malformed token %q", data)
		}
		tokens = append(tokens, Token{Type: tt, Data: string(data)})
	}
}
