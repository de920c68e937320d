package parser

import (
	"fmt"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-pack/wai/internal/token"
)

// legacy primitive spellings accepted by older WAI files
var primitiveAliases = map[string]string{
	"float32": "f32",
	"float64": "f64",
}

var primitives = map[string]bool{
	"bool": true, "char": true, "string": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"s8": true, "s16": true, "s32": true, "s64": true,
	"f32": true, "f64": true,
}

func (p *Parser) parseType() (wit.Type, error) {
	t := p.next()
	if t == nil {
		return nil, fmt.Errorf("unexpected end of input, expected type")
	}
	if t.Type == token.Explicit {
		return p.ref(t), nil
	}
	if t.Type != token.Ident {
		return nil, fmt.Errorf("line %d: expected type, got %q", t.Line, t.Value)
	}

	switch t.Value {
	case "list":
		inner, err := p.parseAngleType()
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.List{Type: inner}}, nil

	case "option":
		inner, err := p.parseAngleType()
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Option{Type: inner}}, nil

	case "expected":
		ok, errType, err := p.parseResultParams(true)
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Result{OK: ok, Err: errType}}, nil

	case "result":
		if t := p.peek(); t == nil || t.Type != token.LAngle {
			return &wit.TypeDef{Kind: &wit.Result{}}, nil
		}
		ok, errType, err := p.parseResultParams(false)
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Result{OK: ok, Err: errType}}, nil

	case "tuple":
		types, err := p.parseAngleTypes()
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}, nil

	case "handle":
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Own{Type: p.ref(name)}}, nil

	case "own", "borrow":
		if _, err := p.expect(token.LAngle); err != nil {
			return nil, err
		}
		name, err := p.expectName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RAngle); err != nil {
			return nil, err
		}
		if t.Value == "own" {
			return &wit.TypeDef{Kind: &wit.Own{Type: p.ref(name)}}, nil
		}
		return &wit.TypeDef{Kind: &wit.Borrow{Type: p.ref(name)}}, nil
	}

	name := t.Value
	if alias, ok := primitiveAliases[name]; ok {
		name = alias
	}
	if primitives[name] {
		typ, err := wit.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", t.Line, err)
		}
		return typ, nil
	}
	return p.ref(t), nil
}

// parseOptionalType parses a type or `_` for an absent one.
func (p *Parser) parseOptionalType() (wit.Type, error) {
	if t := p.peek(); t != nil && t.Type == token.Ident && t.Value == "_" {
		p.next()
		return nil, nil
	}
	return p.parseType()
}

func (p *Parser) parseAngleType() (wit.Type, error) {
	if _, err := p.expect(token.LAngle); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RAngle); err != nil {
		return nil, err
	}
	return typ, nil
}

func (p *Parser) parseAngleTypes() ([]wit.Type, error) {
	if _, err := p.expect(token.LAngle); err != nil {
		return nil, err
	}
	var types []wit.Type
	for !p.skip(token.RAngle) {
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		types = append(types, typ)
		if !p.skip(token.Comma) {
			if _, err := p.expect(token.RAngle); err != nil {
				return nil, err
			}
			break
		}
	}
	return types, nil
}

// parseResultParams parses `<ok, err>`. With both set, expected<T, E>
// syntax requires two parameters; result<T> alone means no error type.
func (p *Parser) parseResultParams(both bool) (ok, errType wit.Type, err error) {
	if _, err := p.expect(token.LAngle); err != nil {
		return nil, nil, err
	}
	if ok, err = p.parseOptionalType(); err != nil {
		return nil, nil, err
	}
	if p.skip(token.Comma) {
		if errType, err = p.parseOptionalType(); err != nil {
			return nil, nil, err
		}
	} else if both {
		t := p.peek()
		if t == nil {
			return nil, nil, fmt.Errorf("unexpected end of input, expected ','")
		}
		return nil, nil, fmt.Errorf("line %d: expected ',', got %q", t.Line, t.Value)
	}
	if _, err := p.expect(token.RAngle); err != nil {
		return nil, nil, err
	}
	return ok, errType, nil
}
