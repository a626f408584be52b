// Package astjson decodes the JSON wire form of an internal/ast.Node tree
// and an internal/schema.Registry, the shape cmd/celsql reads from disk.
//
// The translation kernel takes its AST as a pre-built tree (spec.md §4.1:
// "The AST is produced upstream... this matches CEL's canonical macro
// expansion"); a CEL-text parser is explicitly not part of this module. The
// CLI therefore accepts the already-lowered AST as JSON rather than raw CEL
// source — see DESIGN.md's "internal/astjson" entry for why pulling
// in a full CEL-to-native-AST adapter was rejected in favor of this
// narrower, fully-grounded boundary.
package astjson

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/policyql/celsql/internal/ast"
	"github.com/policyql/celsql/internal/schema"
)

// Document is the top-level file shape cmd/celsql reads: an AST under
// "expr" and, optionally, a schema registry under "schema".
type Document struct {
	Expr   json.RawMessage `json:"expr"`
	Schema *schemaDoc      `json:"schema"`
}

type schemaDoc struct {
	Tables   []tableDoc `json:"tables"`
	FoldCase bool       `json:"foldCase"`
}

type tableDoc struct {
	Name   string     `json:"name"`
	Fields []fieldDoc `json:"fields"`
}

type fieldDoc struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	JSONBinary  bool   `json:"jsonBinary"`
	ElementType string `json:"elementType"`
	Computed    bool   `json:"computed"`
}

// Decode parses raw into an AST root and a schema Registry (nil if the
// document carries no "schema" key).
func Decode(raw []byte) (ast.Node, *schema.Registry, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("astjson: invalid document: %w", err)
	}
	root, err := decodeNode(doc.Expr)
	if err != nil {
		return nil, nil, err
	}
	registry, err := decodeSchema(doc.Schema)
	if err != nil {
		return nil, nil, err
	}
	return root, registry, nil
}

func decodeSchema(doc *schemaDoc) (*schema.Registry, error) {
	if doc == nil {
		return nil, nil
	}
	tables := make([]schema.Table, 0, len(doc.Tables))
	for _, td := range doc.Tables {
		fields := make([]schema.Field, 0, len(td.Fields))
		for _, fd := range td.Fields {
			kind, err := parseFieldKind(fd.Kind)
			if err != nil {
				return nil, fmt.Errorf("astjson: table %q field %q: %w", td.Name, fd.Name, err)
			}
			fields = append(fields, schema.Field{
				Name:        fd.Name,
				Kind:        kind,
				JSONBinary:  fd.JSONBinary,
				ElementType: fd.ElementType,
				Computed:    fd.Computed,
			})
		}
		tables = append(tables, schema.Table{Name: td.Name, Fields: fields})
	}
	if doc.FoldCase {
		return schema.NewRegistryFoldCase(tables...), nil
	}
	return schema.NewRegistry(tables...), nil
}

func parseFieldKind(s string) (schema.FieldKind, error) {
	switch s {
	case "scalar", "":
		return schema.KindScalar, nil
	case "json":
		return schema.KindJSON, nil
	case "array":
		return schema.KindArray, nil
	default:
		return 0, fmt.Errorf("unknown field kind %q", s)
	}
}

// wireNode is the discriminated-union JSON shape every AST node decodes
// from; fields not relevant to node.Type are simply left zero.
type wireNode struct {
	Type string `json:"type"`

	// Literal
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`

	// Identifier
	Name string `json:"name"`

	// FieldSelect
	Receiver json.RawMessage `json:"receiver"`
	Field    string          `json:"field"`

	// Index
	Key       json.RawMessage `json:"key"`
	IndexKind string          `json:"indexKind"`

	// Call
	CallReceiver json.RawMessage   `json:"callReceiver"`
	Function     string            `json:"function"`
	Args         []json.RawMessage `json:"args"`

	// Unary / Binary
	Op      string          `json:"op"`
	Left    json.RawMessage `json:"left"`
	Right   json.RawMessage `json:"right"`
	Operand json.RawMessage `json:"operand"`

	// Conditional
	Cond json.RawMessage `json:"cond"`
	Then json.RawMessage `json:"then"`
	Else json.RawMessage `json:"else"`

	// ListLiteral
	Elements []json.RawMessage `json:"elements"`

	// Comprehension
	Macro     string          `json:"macro"`
	IterRange json.RawMessage `json:"iterRange"`
	IterVar   string          `json:"iterVar"`
	AccuVar   string          `json:"accuVar"`
	AccuInit  json.RawMessage `json:"accuInit"`
	LoopCond  json.RawMessage `json:"loopCond"`
	LoopStep  json.RawMessage `json:"loopStep"`
	Result    json.RawMessage `json:"result"`
}

func decodeNode(raw json.RawMessage) (ast.Node, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var w wireNode
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("astjson: %w", err)
	}
	switch w.Type {
	case "literal":
		return decodeLiteral(w)
	case "identifier":
		return &ast.Identifier{Name: w.Name}, nil
	case "fieldSelect":
		recv, err := decodeNode(w.Receiver)
		if err != nil {
			return nil, err
		}
		return &ast.FieldSelect{Receiver: recv, Field: w.Field}, nil
	case "index":
		recv, err := decodeNode(w.Receiver)
		if err != nil {
			return nil, err
		}
		key, err := decodeNode(w.Key)
		if err != nil {
			return nil, err
		}
		kind := ast.IndexList
		if w.IndexKind == "key" {
			kind = ast.IndexKey
		}
		return &ast.Index{Receiver: recv, Key: key, Kind: kind}, nil
	case "call":
		recv, err := decodeNode(w.CallReceiver)
		if err != nil {
			return nil, err
		}
		args, err := decodeNodes(w.Args)
		if err != nil {
			return nil, err
		}
		return &ast.Call{Receiver: recv, Name: w.Function, Args: args}, nil
	case "unary":
		operand, err := decodeNode(w.Operand)
		if err != nil {
			return nil, err
		}
		op := ast.OpNot
		if w.Op == "-" {
			op = ast.OpNeg
		}
		return &ast.Unary{Op: op, Operand: operand}, nil
	case "binary":
		return decodeBinary(w)
	case "conditional":
		cond, err := decodeNode(w.Cond)
		if err != nil {
			return nil, err
		}
		then, err := decodeNode(w.Then)
		if err != nil {
			return nil, err
		}
		els, err := decodeNode(w.Else)
		if err != nil {
			return nil, err
		}
		return &ast.Conditional{Cond: cond, Then: then, Else: els}, nil
	case "list":
		elems, err := decodeNodes(w.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.ListLiteral{Elements: elems}, nil
	case "comprehension":
		return decodeComprehension(w)
	default:
		return nil, fmt.Errorf("astjson: unknown node type %q", w.Type)
	}
}

func decodeNodes(raws []json.RawMessage) ([]ast.Node, error) {
	out := make([]ast.Node, 0, len(raws))
	for _, r := range raws {
		n, err := decodeNode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func decodeLiteral(w wireNode) (*ast.Literal, error) {
	kind, err := parseLiteralKind(w.Kind)
	if err != nil {
		return nil, err
	}
	if kind == ast.KindNull {
		return &ast.Literal{Kind: ast.KindNull, Value: nil}, nil
	}
	var raw interface{}
	if err := json.Unmarshal(w.Value, &raw); err != nil {
		return nil, fmt.Errorf("astjson: literal value: %w", err)
	}
	value, err := coerceLiteralValue(kind, raw)
	if err != nil {
		return nil, err
	}
	return &ast.Literal{Kind: kind, Value: value}, nil
}

func parseLiteralKind(s string) (ast.LiteralKind, error) {
	switch s {
	case "null":
		return ast.KindNull, nil
	case "bool":
		return ast.KindBool, nil
	case "int":
		return ast.KindInt, nil
	case "uint":
		return ast.KindUint, nil
	case "double":
		return ast.KindDouble, nil
	case "string":
		return ast.KindString, nil
	case "bytes":
		return ast.KindBytes, nil
	case "duration":
		return ast.KindDuration, nil
	case "timestamp":
		return ast.KindTimestamp, nil
	default:
		return 0, fmt.Errorf("astjson: unknown literal kind %q", s)
	}
}

func coerceLiteralValue(kind ast.LiteralKind, raw interface{}) (interface{}, error) {
	switch kind {
	case ast.KindBool:
		v, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("astjson: literal kind bool expects a JSON boolean")
		}
		return v, nil
	case ast.KindInt:
		v, ok := raw.(float64)
		if !ok {
			return nil, fmt.Errorf("astjson: literal kind int expects a JSON number")
		}
		return int64(v), nil
	case ast.KindUint:
		v, ok := raw.(float64)
		if !ok {
			return nil, fmt.Errorf("astjson: literal kind uint expects a JSON number")
		}
		return uint64(v), nil
	case ast.KindDouble:
		v, ok := raw.(float64)
		if !ok {
			return nil, fmt.Errorf("astjson: literal kind double expects a JSON number")
		}
		return v, nil
	case ast.KindString, ast.KindDuration, ast.KindTimestamp:
		v, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("astjson: literal kind %s expects a JSON string", kind)
		}
		return v, nil
	case ast.KindBytes:
		v, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("astjson: literal kind bytes expects a base64 JSON string")
		}
		decoded, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("astjson: literal kind bytes: %w", err)
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("astjson: unsupported literal kind %v", kind)
	}
}

func decodeBinary(w wireNode) (*ast.Binary, error) {
	left, err := decodeNode(w.Left)
	if err != nil {
		return nil, err
	}
	right, err := decodeNode(w.Right)
	if err != nil {
		return nil, err
	}
	op, err := parseBinaryOp(w.Op)
	if err != nil {
		return nil, err
	}
	return &ast.Binary{Op: op, Left: left, Right: right}, nil
}

func parseBinaryOp(s string) (ast.BinaryOp, error) {
	switch s {
	case "==":
		return ast.OpEq, nil
	case "!=":
		return ast.OpNe, nil
	case "<":
		return ast.OpLt, nil
	case "<=":
		return ast.OpLe, nil
	case ">":
		return ast.OpGt, nil
	case ">=":
		return ast.OpGe, nil
	case "&&":
		return ast.OpAnd, nil
	case "||":
		return ast.OpOr, nil
	case "+":
		return ast.OpAdd, nil
	case "-":
		return ast.OpSub, nil
	case "*":
		return ast.OpMul, nil
	case "/":
		return ast.OpDiv, nil
	case "%":
		return ast.OpMod, nil
	case "in":
		return ast.OpIn, nil
	default:
		return 0, fmt.Errorf("astjson: unknown binary op %q", s)
	}
}

func decodeComprehension(w wireNode) (*ast.Comprehension, error) {
	iterRange, err := decodeNode(w.IterRange)
	if err != nil {
		return nil, err
	}
	accuInit, err := decodeNode(w.AccuInit)
	if err != nil {
		return nil, err
	}
	loopCond, err := decodeNode(w.LoopCond)
	if err != nil {
		return nil, err
	}
	loopStep, err := decodeNode(w.LoopStep)
	if err != nil {
		return nil, err
	}
	result, err := decodeNode(w.Result)
	if err != nil {
		return nil, err
	}
	macro, err := parseMacroKind(w.Macro)
	if err != nil {
		return nil, err
	}
	return &ast.Comprehension{
		Macro:     macro,
		IterRange: iterRange,
		IterVar:   w.IterVar,
		AccuVar:   w.AccuVar,
		AccuInit:  accuInit,
		LoopCond:  loopCond,
		LoopStep:  loopStep,
		Result:    result,
	}, nil
}

func parseMacroKind(s string) (ast.MacroKind, error) {
	switch s {
	case "exists":
		return ast.MacroExists, nil
	case "all":
		return ast.MacroAll, nil
	case "exists_one":
		return ast.MacroExistsOne, nil
	case "map":
		return ast.MacroMap, nil
	case "filter":
		return ast.MacroFilter, nil
	default:
		return 0, fmt.Errorf("astjson: unknown macro kind %q", s)
	}
}
