package parser

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-pack/wai/internal/token"
)

// Use is a `use { a, b } from iface` declaration. Names is nil for `*`.
type Use struct {
	From  string
	Names []string
}

type Param struct {
	Name string
	Type wit.Type
}

type Func struct {
	Name    string
	Docs    string
	Params  []Param
	Results []Param
}

// Document is everything declared in one interface file, in source order.
type Document struct {
	Docs     string
	Uses     []Use
	TypeDefs []*wit.TypeDef
	Funcs    []Func
}

type Parser struct {
	doc     *Document
	named   map[string]*wit.TypeDef
	pending map[string]int
	defined map[string]bool
	funcs   map[string]bool
	tokens  []token.Token
	pos     int
}

func New(tokens []token.Token) *Parser {
	return &Parser{
		tokens:  tokens,
		named:   make(map[string]*wit.TypeDef),
		pending: make(map[string]int),
		defined: make(map[string]bool),
		funcs:   make(map[string]bool),
	}
}

func (p *Parser) Parse() (*Document, error) {
	p.doc = &Document{}

	for p.peek() != nil {
		docs := p.docs()
		t := p.peek()
		if t == nil {
			break
		}

		var err error
		switch {
		case t.Type == token.Ident && t.Value == "use":
			err = p.parseUse()
		case t.Type == token.Ident && t.Value == "record":
			err = p.parseRecord()
		case t.Type == token.Ident && t.Value == "variant":
			err = p.parseVariant()
		case t.Type == token.Ident && t.Value == "enum":
			err = p.parseEnum()
		case t.Type == token.Ident && t.Value == "flags":
			err = p.parseFlags()
		case t.Type == token.Ident && t.Value == "union":
			err = p.parseUnion()
		case t.Type == token.Ident && t.Value == "type":
			err = p.parseAlias()
		case t.Type == token.Ident && t.Value == "resource":
			err = p.parseResource()
		case t.IsName():
			err = p.parseFuncItem(docs)
		default:
			err = fmt.Errorf("line %d: unexpected %v %q", t.Line, t.Type, t.Value)
		}
		if err != nil {
			return nil, err
		}
		p.skip(token.Semicolon)
	}

	if len(p.pending) > 0 {
		name, line := "", 0
		for n, l := range p.pending {
			if line == 0 || l < line || (l == line && n < name) {
				name, line = n, l
			}
		}
		return nil, fmt.Errorf("line %d: undefined type %q", line, name)
	}
	return p.doc, nil
}

func (p *Parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *Parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

func (p *Parser) expect(typ token.Type) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of input, expected %v", typ)
	}
	if t.Type != typ {
		return nil, fmt.Errorf("line %d: expected %v, got %q", t.Line, typ, t.Value)
	}
	return t, nil
}

func (p *Parser) expectKeyword(kw string) error {
	t := p.next()
	if t == nil {
		return fmt.Errorf("unexpected end of input, expected %q", kw)
	}
	if t.Type != token.Ident || t.Value != kw {
		return fmt.Errorf("line %d: expected %q, got %q", t.Line, kw, t.Value)
	}
	return nil
}

func (p *Parser) expectName() (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of input, expected identifier")
	}
	if !t.IsName() {
		return nil, fmt.Errorf("line %d: expected identifier, got %q", t.Line, t.Value)
	}
	return t, nil
}

// skip consumes the next token if it has the given type.
func (p *Parser) skip(typ token.Type) bool {
	if t := p.peek(); t != nil && t.Type == typ {
		p.pos++
		return true
	}
	return false
}

func (p *Parser) peekKeyword(kw string) bool {
	t := p.peek()
	return t != nil && t.Type == token.Ident && t.Value == kw
}

// docs collects doc comments preceding an item. Inner doc comments
// document the interface itself.
func (p *Parser) docs() string {
	var lines []string
	for t := p.peek(); t != nil; t = p.peek() {
		switch t.Type {
		case token.Doc:
			lines = append(lines, t.Value)
		case token.InnerDoc:
			if p.doc.Docs != "" {
				p.doc.Docs += "\n"
			}
			p.doc.Docs += t.Value
		default:
			return strings.Join(lines, "\n")
		}
		p.pos++
	}
	return strings.Join(lines, "\n")
}

// define records a named type. A forward reference created earlier by ref
// is filled in place so existing users see the definition.
func (p *Parser) define(name *token.Token, kind wit.TypeDefKind) (*wit.TypeDef, error) {
	if p.defined[name.Value] {
		return nil, fmt.Errorf("line %d: type %q defined more than once", name.Line, name.Value)
	}
	def, ok := p.named[name.Value]
	if !ok {
		n := name.Value
		def = &wit.TypeDef{Name: &n}
		p.named[n] = def
	}
	delete(p.pending, name.Value)
	def.Kind = kind
	p.defined[name.Value] = true
	p.doc.TypeDefs = append(p.doc.TypeDefs, def)
	return def, nil
}

func (p *Parser) ref(name *token.Token) *wit.TypeDef {
	if def, ok := p.named[name.Value]; ok {
		return def
	}
	n := name.Value
	def := &wit.TypeDef{Name: &n}
	p.named[n] = def
	p.pending[n] = name.Line
	return def
}

func (p *Parser) parseUse() error {
	p.next()
	u := Use{}

	if !p.skip(token.Star) {
		if _, err := p.expect(token.LBrace); err != nil {
			return err
		}
		for !p.skip(token.RBrace) {
			name, err := p.expectName()
			if err != nil {
				return err
			}
			u.Names = append(u.Names, name.Value)
			if !p.skip(token.Comma) {
				if _, err := p.expect(token.RBrace); err != nil {
					return err
				}
				break
			}
		}
	}

	if err := p.expectKeyword("from"); err != nil {
		return err
	}
	from, err := p.expectName()
	if err != nil {
		return err
	}
	u.From = from.Value
	p.doc.Uses = append(p.doc.Uses, u)
	return nil
}

// braced parses `{ item, item, ... }` with an optional trailing comma.
func (p *Parser) braced(item func() error) error {
	if _, err := p.expect(token.LBrace); err != nil {
		return err
	}
	for {
		p.docs()
		if p.skip(token.RBrace) {
			return nil
		}
		if err := item(); err != nil {
			return err
		}
		p.docs()
		if !p.skip(token.Comma) {
			_, err := p.expect(token.RBrace)
			return err
		}
	}
}

func (p *Parser) parseRecord() error {
	p.next()
	name, err := p.expectName()
	if err != nil {
		return err
	}

	var fields []wit.Field
	seen := map[string]bool{}
	err = p.braced(func() error {
		field, err := p.expectName()
		if err != nil {
			return err
		}
		if seen[field.Value] {
			return fmt.Errorf("line %d: duplicate field %q in record %q", field.Line, field.Value, name.Value)
		}
		seen[field.Value] = true
		if _, err := p.expect(token.Colon); err != nil {
			return err
		}
		typ, err := p.parseType()
		if err != nil {
			return err
		}
		fields = append(fields, wit.Field{Name: field.Value, Type: typ})
		return nil
	})
	if err != nil {
		return err
	}

	_, err = p.define(name, &wit.Record{Fields: fields})
	return err
}

func (p *Parser) parseVariant() error {
	p.next()
	name, err := p.expectName()
	if err != nil {
		return err
	}

	var cases []wit.Case
	err = p.braced(func() error {
		c, err := p.expectName()
		if err != nil {
			return err
		}
		var typ wit.Type
		if p.skip(token.LParen) {
			if typ, err = p.parseType(); err != nil {
				return err
			}
			if _, err := p.expect(token.RParen); err != nil {
				return err
			}
		}
		cases = append(cases, wit.Case{Name: c.Value, Type: typ})
		return nil
	})
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("line %d: variant %q has no cases", name.Line, name.Value)
	}

	_, err = p.define(name, &wit.Variant{Cases: cases})
	return err
}

func (p *Parser) parseNames() (*token.Token, []string, error) {
	p.next()
	name, err := p.expectName()
	if err != nil {
		return nil, nil, err
	}
	var names []string
	err = p.braced(func() error {
		t, err := p.expectName()
		if err != nil {
			return err
		}
		names = append(names, t.Value)
		return nil
	})
	return name, names, err
}

func (p *Parser) parseEnum() error {
	name, names, err := p.parseNames()
	if err != nil {
		return err
	}
	cases := make([]wit.EnumCase, len(names))
	for i, n := range names {
		cases[i] = wit.EnumCase{Name: n}
	}
	_, err = p.define(name, &wit.Enum{Cases: cases})
	return err
}

func (p *Parser) parseFlags() error {
	name, names, err := p.parseNames()
	if err != nil {
		return err
	}
	flags := make([]wit.Flag, len(names))
	for i, n := range names {
		flags[i] = wit.Flag{Name: n}
	}
	_, err = p.define(name, &wit.Flags{Flags: flags})
	return err
}

// parseUnion lowers a union to a variant whose cases are named by position.
func (p *Parser) parseUnion() error {
	p.next()
	name, err := p.expectName()
	if err != nil {
		return err
	}

	var cases []wit.Case
	err = p.braced(func() error {
		typ, err := p.parseType()
		if err != nil {
			return err
		}
		cases = append(cases, wit.Case{Name: fmt.Sprint(len(cases)), Type: typ})
		return nil
	})
	if err != nil {
		return err
	}

	_, err = p.define(name, &wit.Variant{Cases: cases})
	return err
}

func (p *Parser) parseAlias() error {
	p.next()
	name, err := p.expectName()
	if err != nil {
		return err
	}
	if _, err := p.expect(token.Equals); err != nil {
		return err
	}
	typ, err := p.parseType()
	if err != nil {
		return err
	}
	_, err = p.define(name, typ)
	return err
}

func (p *Parser) parseResource() error {
	p.next()
	name, err := p.expectName()
	if err != nil {
		return err
	}
	def, err := p.define(name, &wit.Resource{})
	if err != nil {
		return err
	}
	if !p.skip(token.LBrace) {
		return nil
	}

	self := &wit.TypeDef{Kind: &wit.Borrow{Type: def}}
	for {
		methodDocs := p.docs()
		if p.skip(token.RBrace) {
			return nil
		}

		static := false
		if t := p.peek(); t != nil && t.Type == token.Ident && t.Value == "static" {
			static = true
			p.next()
		}

		method, err := p.expectName()
		if err != nil {
			return err
		}
		if _, err := p.expect(token.Colon); err != nil {
			return err
		}
		fn, err := p.parseFuncSig(name.Value+"::"+method.Value, methodDocs)
		if err != nil {
			return err
		}
		if !static {
			fn.Params = append([]Param{{Name: "self", Type: self}}, fn.Params...)
		}
		if err := p.addFunc(method, fn); err != nil {
			return err
		}

		if !p.skip(token.Comma) {
			p.skip(token.Semicolon)
		}
	}
}

func (p *Parser) parseFuncItem(docs string) error {
	name := p.next()
	if _, err := p.expect(token.Colon); err != nil {
		return err
	}
	fn, err := p.parseFuncSig(name.Value, docs)
	if err != nil {
		return err
	}
	return p.addFunc(name, fn)
}

func (p *Parser) addFunc(at *token.Token, fn Func) error {
	if p.funcs[fn.Name] {
		return fmt.Errorf("line %d: function %q defined more than once", at.Line, fn.Name)
	}
	p.funcs[fn.Name] = true
	p.doc.Funcs = append(p.doc.Funcs, fn)
	return nil
}

// parseFuncSig parses `[async] func(params) [-> results]`.
func (p *Parser) parseFuncSig(name, docs string) (Func, error) {
	fn := Func{Name: name, Docs: docs}
	if p.peekKeyword("async") {
		p.next()
	}
	if err := p.expectKeyword("func"); err != nil {
		return fn, err
	}

	params, err := p.parseParams()
	if err != nil {
		return fn, err
	}
	fn.Params = params

	if !p.skip(token.Arrow) {
		return fn, nil
	}
	if t := p.peek(); t != nil && t.Type == token.LParen {
		fn.Results, err = p.parseParams()
		return fn, err
	}
	typ, err := p.parseType()
	if err != nil {
		return fn, err
	}
	fn.Results = []Param{{Type: typ}}
	return fn, nil
}

func (p *Parser) parseParams() ([]Param, error) {
	if _, err := p.expect(token.LParen); err != nil {
		return nil, err
	}

	var params []Param
	seen := map[string]bool{}
	for !p.skip(token.RParen) {
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		if seen[name.Value] {
			return nil, fmt.Errorf("line %d: duplicate parameter %q", name.Line, name.Value)
		}
		seen[name.Value] = true
		if _, err := p.expect(token.Colon); err != nil {
			return nil, err
		}
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: name.Value, Type: typ})

		if !p.skip(token.Comma) {
			if _, err := p.expect(token.RParen); err != nil {
				return nil, err
			}
			break
		}
	}
	return params, nil
}
