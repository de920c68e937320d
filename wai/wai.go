package wai

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-pack/wai/internal/parser"
	"github.com/wippyai/wasm-pack/wai/internal/token"
)

// Interface is a parsed interface definition.
type Interface struct {
	Name      string
	Docs      string
	Uses      []Use
	TypeDefs  []*wit.TypeDef
	Functions []*Function
}

// Use imports names from another interface. Names is nil for a glob import.
type Use struct {
	From  string
	Names []string
}

// Function is a free function or a resource method ("resource::method").
type Function struct {
	Name    string
	Docs    string
	Params  []Param
	Results []Param
}

// Param is a named parameter or result. Single unnamed results have an empty Name.
type Param struct {
	Name string
	Type wit.Type
}

// Parse parses WAI source text into an Interface named name.
func Parse(name, source string) (*Interface, error) {
	tokens, err := token.Tokenize(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	doc, err := parser.New(tokens).Parse()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	iface := &Interface{
		Name:     name,
		Docs:     doc.Docs,
		TypeDefs: doc.TypeDefs,
	}
	for _, u := range doc.Uses {
		iface.Uses = append(iface.Uses, Use{From: u.From, Names: u.Names})
	}
	for _, f := range doc.Funcs {
		iface.Functions = append(iface.Functions, &Function{
			Name:    f.Name,
			Docs:    f.Docs,
			Params:  convertParams(f.Params),
			Results: convertParams(f.Results),
		})
	}
	return iface, nil
}

func convertParams(in []parser.Param) []Param {
	if len(in) == 0 {
		return nil
	}
	out := make([]Param, len(in))
	for i, p := range in {
		out[i] = Param{Name: p.Name, Type: p.Type}
	}
	return out
}

// Function returns the function with the given name, or nil.
func (i *Interface) Function(name string) *Function {
	for _, f := range i.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// TypeDef returns the named type definition, or nil.
func (i *Interface) TypeDef(name string) *wit.TypeDef {
	for _, def := range i.TypeDefs {
		if def.Name != nil && *def.Name == name {
			return def
		}
	}
	return nil
}

// Signature renders the function as WAI source, e.g. "add: func(a: u32) -> u32".
func (f *Function) Signature() string {
	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteString(": func(")
	writeParams(&b, f.Params)
	b.WriteByte(')')

	switch {
	case len(f.Results) == 1 && f.Results[0].Name == "":
		b.WriteString(" -> ")
		b.WriteString(TypeString(f.Results[0].Type))
	case len(f.Results) > 0:
		b.WriteString(" -> (")
		writeParams(&b, f.Results)
		b.WriteByte(')')
	}
	return b.String()
}

func writeParams(b *strings.Builder, params []Param) {
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(TypeString(p.Type))
	}
}

// TypeString renders a type reference in WAI syntax. Named types render as
// their name.
func TypeString(t wit.Type) string {
	switch v := t.(type) {
	case nil:
		return "_"
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if v.Name != nil {
			return *v.Name
		}
		return kindString(v.Kind)
	default:
		return fmt.Sprintf("%T", t)
	}
}

func kindString(k wit.TypeDefKind) string {
	switch v := k.(type) {
	case *wit.List:
		return "list<" + TypeString(v.Type) + ">"
	case *wit.Option:
		return "option<" + TypeString(v.Type) + ">"
	case *wit.Result:
		switch {
		case v.OK == nil && v.Err == nil:
			return "result"
		case v.Err == nil:
			return "result<" + TypeString(v.OK) + ">"
		default:
			return "result<" + TypeString(v.OK) + ", " + TypeString(v.Err) + ">"
		}
	case *wit.Tuple:
		parts := make([]string, len(v.Types))
		for i, t := range v.Types {
			parts[i] = TypeString(t)
		}
		return "tuple<" + strings.Join(parts, ", ") + ">"
	case *wit.Own:
		return "own<" + TypeString(v.Type) + ">"
	case *wit.Borrow:
		return "borrow<" + TypeString(v.Type) + ">"
	case wit.Type:
		return TypeString(v)
	default:
		return fmt.Sprintf("%T", k)
	}
}
