package query

import (
	"fmt"
	"strconv"
	"strings"
)

// AlgKind names which Algorithm constructor a pending test should use once
// its pattern literal arrives.
type AlgKind int

const (
	AlgDefault AlgKind = iota // exact, unless overridden
	AlgExact
	AlgBegin
	AlgEndsWith
	AlgSubstring
	AlgPattern
	AlgRegex
	AlgFuzzy
)

// Compiled is the result of compiling a token stream: the match tree plus
// whether a pipe token was seen (spec §4.H pipe mode).
type Compiled struct {
	Tree    Node
	HasPipe bool
}

// pendingTest accumulates field/algorithm/option tokens between pattern
// literals or structural tokens.
type pendingTest struct {
	started  bool
	field    Field
	algKind  AlgKind
	foldCase bool
	filter   Filter
	invert   bool
}

func (p *pendingTest) touch() {
	if !p.started {
		p.started = true
		p.field = FieldName
		p.algKind = AlgDefault
	}
}

// Compile builds a match tree from a pre-lexed Token stream (spec §4.H:
// "the first option/field/algorithm/pattern after a logical operator opens
// a new test; pattern tokens finalize the current test").
type compiler struct {
	toks    []Token
	pos     int
	hasPipe bool
}

// Compile parses toks into a Compiled match tree.
func Compile(toks []Token) (*Compiled, error) {
	c := &compiler{toks: toks}
	node, err := c.parseOr()
	if err != nil {
		return nil, err
	}
	if c.pos != len(c.toks) {
		return nil, fmt.Errorf("query: unexpected token %q at position %d", tokenName(c.toks[c.pos]), c.pos)
	}
	return &Compiled{Tree: node, HasPipe: c.hasPipe}, nil
}

func (c *compiler) peek() (Token, bool) {
	if c.pos >= len(c.toks) {
		return Token{}, false
	}
	return c.toks[c.pos], true
}

func (c *compiler) parseOr() (Node, error) {
	left, err := c.parseAnd()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := c.peek()
		if !ok || tok.Kind != TokOr {
			return left, nil
		}
		c.pos++
		right, err := c.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
}

func (c *compiler) parseAnd() (Node, error) {
	left, err := c.parseNot()
	if err != nil {
		return nil, err
	}
	for {
		tok, ok := c.peek()
		if !ok || tok.Kind != TokAnd {
			return left, nil
		}
		c.pos++
		right, err := c.parseNot()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
}

func (c *compiler) parseNot() (Node, error) {
	tok, ok := c.peek()
	if ok && tok.Kind == TokNot {
		c.pos++
		child, err := c.parseNot()
		if err != nil {
			return nil, err
		}
		if leaf, isLeaf := child.(Leaf); isLeaf {
			leaf.Test.Invert = !leaf.Test.Invert
			return leaf, nil
		}
		return Not{Child: child}, nil
	}
	return c.parseTerm()
}

func (c *compiler) parseTerm() (Node, error) {
	tok, ok := c.peek()
	if !ok {
		return nil, fmt.Errorf("query: unexpected end of input")
	}
	if tok.Kind == TokLParen {
		c.pos++
		node, err := c.parseOr()
		if err != nil {
			return nil, err
		}
		closeTok, ok := c.peek()
		if !ok || closeTok.Kind != TokRParen {
			return nil, fmt.Errorf("query: missing closing parenthesis")
		}
		c.pos++
		return node, nil
	}
	return c.parseTest()
}

// parseTest consumes option/field/algorithm tokens, then an optional
// literal pattern, producing one Leaf.
func (c *compiler) parseTest() (Node, error) {
	var p pendingTest
	var pattern string
	havePattern := false

loop:
	for {
		tok, ok := c.peek()
		if !ok {
			break loop
		}
		switch tok.Kind {
		case TokPipe:
			c.hasPipe = true
			c.pos++
			p.touch()
		case TokOptionInstalled:
			p.touch()
			p.filter.InstalledOnly = true
			c.pos++
		case TokOptionOverlay:
			p.touch()
			p.filter.OverlayOnly = true
			c.pos++
		case TokOptionObsolete:
			p.touch()
			p.filter.ObsoleteOnly = true
			c.pos++
		case TokOptionIgnoreCase:
			p.touch()
			p.foldCase = true
			c.pos++
		case TokFieldName:
			p.touch()
			p.field = FieldName
			c.pos++
		case TokFieldCategory:
			p.touch()
			p.field = FieldCategory
			c.pos++
		case TokFieldCategoryName:
			p.touch()
			p.field = FieldCategoryName
			c.pos++
		case TokFieldDescription:
			p.touch()
			p.field = FieldDescription
			c.pos++
		case TokFieldHomepage:
			p.touch()
			p.field = FieldHomepage
			c.pos++
		case TokFieldLicense:
			p.touch()
			p.field = FieldLicense
			c.pos++
		case TokFieldIUse:
			p.touch()
			p.field = FieldIUse
			c.pos++
		case TokFieldSlot:
			p.touch()
			p.field = FieldSlot
			c.pos++
		case TokFieldDepend:
			p.touch()
			p.field = FieldDepend
			c.pos++
		case TokFieldDeps:
			p.touch()
			p.field = FieldDeps
			c.pos++
		case TokFieldSet:
			p.touch()
			p.field = FieldSet
			c.pos++
		case TokAlgExact:
			p.touch()
			p.algKind = AlgExact
			c.pos++
		case TokAlgBegin:
			p.touch()
			p.algKind = AlgBegin
			c.pos++
		case TokAlgEnd:
			p.touch()
			p.algKind = AlgEndsWith
			c.pos++
		case TokAlgSubstring:
			p.touch()
			p.algKind = AlgSubstring
			c.pos++
		case TokAlgPattern:
			p.touch()
			p.algKind = AlgPattern
			c.pos++
		case TokAlgRegex:
			p.touch()
			p.algKind = AlgRegex
			c.pos++
		case TokAlgFuzzy:
			p.touch()
			p.algKind = AlgFuzzy
			c.pos++
		case TokLiteral:
			p.touch()
			pattern = tok.Literal
			havePattern = true
			c.pos++
			break loop
		default:
			break loop
		}
	}

	if !p.started {
		return nil, fmt.Errorf("query: expected a test but found %s", tokenNameAt(c))
	}

	test := &PackageTest{Field: p.field, Invert: p.invert, FoldCase: p.foldCase, Filter: p.filter}
	if havePattern {
		alg, err := buildAlgorithm(p.algKind, pattern)
		if err != nil {
			return nil, err
		}
		test.Algorithm = alg
	}
	return Leaf{Test: test}, nil
}

func buildAlgorithm(kind AlgKind, pattern string) (Algorithm, error) {
	switch kind {
	case AlgDefault, AlgExact:
		return NewExact(pattern), nil
	case AlgBegin:
		return NewBegin(pattern), nil
	case AlgEndsWith:
		return NewEnd(pattern), nil
	case AlgSubstring:
		return NewSubstring(pattern), nil
	case AlgPattern:
		return NewPattern(pattern)
	case AlgRegex:
		return NewRegex(pattern)
	case AlgFuzzy:
		dist, body, ok := splitFuzzySpec(pattern)
		if !ok {
			return nil, fmt.Errorf("query: fuzzy pattern %q must be formatted maxdist:pattern", pattern)
		}
		return NewFuzzy(body, dist), nil
	default:
		return NewExact(pattern), nil
	}
}

// splitFuzzySpec parses the "N:pattern" spelling of a fuzzy argument.
func splitFuzzySpec(s string) (dist int, body string, ok bool) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return 0, "", false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, "", false
	}
	return n, s[i+1:], true
}

func tokenName(t Token) string {
	if t.Kind == TokLiteral {
		return t.Literal
	}
	return fmt.Sprintf("kind:%d", t.Kind)
}

func tokenNameAt(c *compiler) string {
	if tok, ok := c.peek(); ok {
		return tokenName(tok)
	}
	return "<eof>"
}
