package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"reflect"
	"strconv"
	"strings"
)

// fieldKind classifies a struct field by its roomforge tag (or the
// absence of one) into the shape the emitter knows how to derive a
// delta operation for.
type fieldKind int

const (
	kindScalar fieldKind = iota
	kindArray
	kindNullable
	kindName
	kindDisconnected
	kindPrivate
	kindHost
	kindPlayers
)

type field struct {
	Name     string
	Type     string
	Kind     fieldKind
	ElemType string // array/nullable element type
	ArrayLen int    // array length, from the "array:N" tag
	WireKind string // wire.Writer/Reader method suffix: U8, U32, Bool, String, Name, ...
}

// wireKinds maps the Go basic types roomgen understands directly onto
// the wire package's Write*/Read* method suffixes. A named type whose
// wire representation isn't one of these (e.g. a `type Mark uint8`)
// needs an explicit `wire=KIND` tag option.
var wireKinds = map[string]string{
	"bool":    "Bool",
	"uint8":   "U8",
	"uint32":  "U32",
	"uint64":  "U64",
	"int32":   "I32",
	"int64":   "I64",
	"float32": "F32",
	"float64": "F64",
	"string":  "String",
}

func wireKindOf(goType string) (string, bool) {
	k, ok := wireKinds[goType]
	return k, ok
}

// resolveWireKind prefers an explicit wire=KIND tag option (for named
// types whose underlying representation isn't one of wireKinds) over
// inferring from the Go type text.
func resolveWireKind(goType string, opts map[string]string) (string, bool) {
	if kind, ok := opts["wire"]; ok {
		return strings.ToUpper(kind[:1]) + kind[1:], true
	}
	return wireKindOf(goType)
}

// parseTag splits a roomforge tag into its directive (the part before
// any comma) and its key=value options.
func parseTag(tag string) (directive string, opts map[string]string) {
	parts := strings.Split(tag, ",")
	opts = make(map[string]string)
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) == 2 {
			opts[kv[0]] = kv[1]
		}
	}
	return parts[0], opts
}

// schema is everything discover needs from a source file to emit a
// companion. PlayerType/RoomType name the two tagged structs found in
// the file; MaxPlayers comes from a package-level constant of the same
// name, the convention tictactoe.go itself follows.
type schema struct {
	Package      string
	PlayerType   string
	RoomType     string
	PlayerFields []field
	RoomFields   []field
	MaxPlayers   int
}

// discover parses path and extracts the tagged Player/Room structs plus
// the MaxPlayers constant roomgen needs to derive fixed-length sequence
// operations.
func discover(path string) (*schema, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	sc := &schema{Package: f.Name.Name}

	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		switch gd.Tok {
		case token.TYPE:
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				st, ok := ts.Type.(*ast.StructType)
				if !ok {
					continue
				}
				fields, role, err := classifyStruct(st)
				if err != nil {
					return nil, fmt.Errorf("struct %s: %w", ts.Name.Name, err)
				}
				switch role {
				case "player":
					sc.PlayerType = ts.Name.Name
					sc.PlayerFields = fields
				case "room":
					sc.RoomType = ts.Name.Name
					sc.RoomFields = fields
				}
			}
		case token.CONST:
			for _, spec := range gd.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for i, name := range vs.Names {
					if name.Name != "MaxPlayers" || i >= len(vs.Values) {
						continue
					}
					lit, ok := vs.Values[i].(*ast.BasicLit)
					if !ok || lit.Kind != token.INT {
						continue
					}
					n, err := strconv.Atoi(lit.Value)
					if err != nil {
						return nil, fmt.Errorf("MaxPlayers: %w", err)
					}
					sc.MaxPlayers = n
				}
			}
		}
	}

	if sc.PlayerType == "" {
		return nil, fmt.Errorf("no struct with a roomforge:\"name\" field found")
	}
	if sc.RoomType == "" {
		return nil, fmt.Errorf("no struct with roomforge:\"host\"/\"players\" fields found")
	}
	if sc.MaxPlayers == 0 {
		return nil, fmt.Errorf("no package-level MaxPlayers constant found")
	}
	return sc, nil
}

// classifyStruct inspects one struct's fields and reports which of
// "player" or "room" it is, based on which roomforge tags it carries.
func classifyStruct(st *ast.StructType) ([]field, string, error) {
	var fields []field
	role := ""

	for _, f := range st.Fields.List {
		if len(f.Names) != 1 {
			return nil, "", fmt.Errorf("embedded or multi-name fields are not supported")
		}
		name := f.Names[0].Name
		typeStr := exprString(f.Type)
		tag := ""
		if f.Tag != nil {
			unquoted, err := strconv.Unquote(f.Tag.Value)
			if err != nil {
				return nil, "", fmt.Errorf("field %s: bad tag: %w", name, err)
			}
			tag = reflect.StructTag(unquoted).Get("roomforge")
		}
		directive, opts := parseTag(tag)

		fl := field{Name: name, Type: typeStr}

		switch {
		case directive == "name":
			if typeStr != "protocol.Name" {
				return nil, "", fmt.Errorf("field %s: name must be protocol.Name, got %s", name, typeStr)
			}
			fl.Kind = kindName
			role = "player"
		case directive == "disconnected":
			if typeStr != "bool" {
				return nil, "", fmt.Errorf("field %s: disconnected must be bool, got %s", name, typeStr)
			}
			fl.Kind = kindDisconnected
			fl.WireKind = "Bool"
		case directive == "private":
			fl.Kind = kindPrivate
			if wk, ok := resolveWireKind(typeStr, opts); ok {
				fl.WireKind = wk
			} else {
				return nil, "", fmt.Errorf("field %s: cannot infer wire encoding for %s, add wire=KIND", name, typeStr)
			}
		case directive == "host":
			if typeStr != "uint8" {
				return nil, "", fmt.Errorf("field %s: host must be uint8, got %s", name, typeStr)
			}
			fl.Kind = kindHost
			role = "room"
		case directive == "players":
			elem, ok := sliceOfPointerElem(f.Type)
			if !ok {
				return nil, "", fmt.Errorf("field %s: players must be a []*T", name)
			}
			fl.Kind = kindPlayers
			fl.ElemType = elem
			role = "room"
		case strings.HasPrefix(directive, "array:"):
			n, err := strconv.Atoi(strings.TrimPrefix(directive, "array:"))
			if err != nil || n <= 0 {
				return nil, "", fmt.Errorf("field %s: bad array length in tag %q", name, tag)
			}
			elem, ok := sliceElem(f.Type)
			if !ok {
				return nil, "", fmt.Errorf("field %s: array fields must be a slice type", name)
			}
			fl.Kind = kindArray
			fl.ArrayLen = n
			fl.ElemType = elem
			if wk, ok := resolveWireKind(elem, opts); ok {
				fl.WireKind = wk
			} else {
				return nil, "", fmt.Errorf("field %s: cannot infer wire encoding for %s, add wire=KIND", name, elem)
			}
		case directive == "nullable":
			elem, ok := pointerElem(f.Type)
			if !ok {
				return nil, "", fmt.Errorf("field %s: nullable fields must be a pointer type", name)
			}
			fl.Kind = kindNullable
			fl.ElemType = elem
			if wk, ok := resolveWireKind(elem, opts); ok {
				fl.WireKind = wk
			} else {
				return nil, "", fmt.Errorf("field %s: cannot infer wire encoding for %s, add wire=KIND", name, elem)
			}
		case directive == "scalar" || directive == "":
			fl.Kind = kindScalar
			if wk, ok := resolveWireKind(typeStr, opts); ok {
				fl.WireKind = wk
			} else {
				return nil, "", fmt.Errorf("field %s: cannot infer wire encoding for %s, tag it roomforge:\"scalar,wire=KIND\"", name, typeStr)
			}
		default:
			return nil, "", fmt.Errorf("field %s: unrecognized roomforge tag %q", name, tag)
		}

		fields = append(fields, fl)
	}

	return fields, role, nil
}

func exprString(e ast.Expr) string {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.SelectorExpr:
		return exprString(t.X) + "." + t.Sel.Name
	case *ast.StarExpr:
		return "*" + exprString(t.X)
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + exprString(t.Elt)
		}
		return "[" + exprString(t.Len) + "]" + exprString(t.Elt)
	case *ast.BasicLit:
		return t.Value
	default:
		return fmt.Sprintf("%T", e)
	}
}

func sliceElem(e ast.Expr) (string, bool) {
	at, ok := e.(*ast.ArrayType)
	if !ok || at.Len != nil {
		return "", false
	}
	return exprString(at.Elt), true
}

func sliceOfPointerElem(e ast.Expr) (string, bool) {
	at, ok := e.(*ast.ArrayType)
	if !ok || at.Len != nil {
		return "", false
	}
	return pointerElem(at.Elt)
}

func pointerElem(e ast.Expr) (string, bool) {
	st, ok := e.(*ast.StarExpr)
	if !ok {
		return "", false
	}
	return exprString(st.X), true
}
