package validate

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// TypeKind is the shape of a parsed type string.
type TypeKind int

const (
	TypeAny TypeKind = iota
	TypeString
	TypeNumber
	TypeBoolean
	TypeNull
	TypeUndefined
	TypeObject
	TypeArray
	TypeRecord
	TypeUnion
	TypeLiteral
	TypePromise
	TypeNamed
	TypeNever
)

// Field is a member of an object literal type.
type Field struct {
	Name     string
	Optional bool
	Type     *Type
}

// Type is a parsed declared type such as "string[]" or "Record<string, number>".
type Type struct {
	Kind    TypeKind
	Elem    *Type   // element of arrays, value of records, result of promises
	Options []*Type // members of unions
	Fields  []Field // members of object literal types; nil means any object
	Name    string  // named types
	Literal any     // literal types
}

var primitiveTypes = map[string]TypeKind{
	"any":       TypeAny,
	"unknown":   TypeAny,
	"string":    TypeString,
	"number":    TypeNumber,
	"bigint":    TypeNumber,
	"boolean":   TypeBoolean,
	"null":      TypeNull,
	"undefined": TypeUndefined,
	"void":      TypeUndefined,
	"object":    TypeObject,
	"Object":    TypeObject,
	"never":     TypeNever,
}

// ParseType parses a TypeScript-style type string.
func ParseType(s string) (*Type, error) {
	p := &typeParser{src: s}
	p.skipSpace()
	if p.eof() {
		return nil, fmt.Errorf("type is empty")
	}
	t, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, fmt.Errorf("unexpected %q at position %d", string(p.peek()), p.pos+1)
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) eof() bool { return p.pos >= len(p.src) }

func (p *typeParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *typeParser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *typeParser) consume(c byte) bool {
	p.skipSpace()
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) expect(c byte) error {
	if !p.consume(c) {
		if p.eof() {
			return fmt.Errorf("expected %q but type ended", string(c))
		}
		return fmt.Errorf("expected %q at position %d", string(c), p.pos+1)
	}
	return nil
}

func (p *typeParser) parseUnion() (*Type, error) {
	p.consume('|') // leading bar is allowed: "| a | b"
	first, err := p.parseArray()
	if err != nil {
		return nil, err
	}
	options := []*Type{first}
	for p.consume('|') {
		next, err := p.parseArray()
		if err != nil {
			return nil, err
		}
		options = append(options, next)
	}
	if len(options) == 1 {
		return first, nil
	}
	return &Type{Kind: TypeUnion, Options: options}, nil
}

func (p *typeParser) parseArray() (*Type, error) {
	t, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		p.skipSpace()
		if !strings.HasPrefix(p.src[p.pos:], "[") {
			return t, nil
		}
		p.pos++
		if err := p.expect(']'); err != nil {
			return nil, err
		}
		t = &Type{Kind: TypeArray, Elem: t}
	}
}

func (p *typeParser) parsePrimary() (*Type, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == 0:
		return nil, fmt.Errorf("type ended unexpectedly")
	case c == '(':
		p.pos++
		t, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		return t, p.expect(')')
	case c == '{':
		return p.parseObject()
	case c == '"' || c == '\'':
		return p.parseStringLiteral(c)
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumberLiteral()
	case isIdentStart(c):
		return p.parseNamed()
	default:
		return nil, fmt.Errorf("unexpected %q at position %d", string(c), p.pos+1)
	}
}

func (p *typeParser) parseIdent() string {
	start := p.pos
	for !p.eof() && (isIdentPart(p.peek()) || p.peek() == '.') {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) parseNamed() (*Type, error) {
	name := p.parseIdent()
	switch name {
	case "true":
		return &Type{Kind: TypeLiteral, Literal: true}, nil
	case "false":
		return &Type{Kind: TypeLiteral, Literal: false}, nil
	}

	var args []*Type
	if p.consume('<') {
		for {
			arg, err := p.parseUnion()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.consume(',') {
				continue
			}
			if err := p.expect('>'); err != nil {
				return nil, err
			}
			break
		}
	}

	if kind, ok := primitiveTypes[name]; ok {
		if len(args) > 0 {
			return nil, fmt.Errorf("type %s does not take type arguments", name)
		}
		return &Type{Kind: kind, Name: name}, nil
	}

	switch name {
	case "Array", "ReadonlyArray":
		if len(args) != 1 {
			return nil, fmt.Errorf("%s requires exactly one type argument", name)
		}
		return &Type{Kind: TypeArray, Elem: args[0]}, nil
	case "Promise":
		if len(args) > 1 {
			return nil, fmt.Errorf("Promise takes one type argument")
		}
		elem := &Type{Kind: TypeAny}
		if len(args) == 1 {
			elem = args[0]
		}
		return &Type{Kind: TypePromise, Elem: elem}, nil
	case "Record":
		if len(args) != 2 {
			return nil, fmt.Errorf("Record requires two type arguments")
		}
		return &Type{Kind: TypeRecord, Elem: args[1]}, nil
	}
	return &Type{Kind: TypeNamed, Name: name}, nil
}

func (p *typeParser) parseObject() (*Type, error) {
	p.pos++ // '{'
	fields := []Field{}
	for {
		p.skipSpace()
		if p.consume('}') {
			return &Type{Kind: TypeObject, Fields: fields}, nil
		}
		if !isIdentStart(p.peek()) {
			return nil, fmt.Errorf("expected property name at position %d", p.pos+1)
		}
		name := p.parseIdent()
		optional := p.consume('?')
		if err := p.expect(':'); err != nil {
			return nil, err
		}
		t, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: name, Optional: optional, Type: t})
		if !p.consume(';') {
			p.consume(',')
		}
	}
}

func (p *typeParser) parseStringLiteral(quote byte) (*Type, error) {
	p.pos++
	start := p.pos
	for !p.eof() && p.peek() != quote {
		p.pos++
	}
	if p.eof() {
		return nil, fmt.Errorf("unterminated string literal type")
	}
	lit := p.src[start:p.pos]
	p.pos++
	return &Type{Kind: TypeLiteral, Literal: lit}, nil
}

func (p *typeParser) parseNumberLiteral() (*Type, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for !p.eof() && (p.peek() == '.' || (p.peek() >= '0' && p.peek() <= '9')) {
		p.pos++
	}
	n, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number literal type %q", p.src[start:p.pos])
	}
	return &Type{Kind: TypeLiteral, Literal: n}, nil
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// String renders the type back into type-string form.
func (t *Type) String() string {
	switch t.Kind {
	case TypeArray:
		inner := t.Elem.String()
		if t.Elem.Kind == TypeUnion {
			inner = "(" + inner + ")"
		}
		return inner + "[]"
	case TypeRecord:
		return "Record<string, " + t.Elem.String() + ">"
	case TypePromise:
		return "Promise<" + t.Elem.String() + ">"
	case TypeUnion:
		parts := make([]string, len(t.Options))
		for i, o := range t.Options {
			parts[i] = o.String()
		}
		return strings.Join(parts, " | ")
	case TypeLiteral:
		if s, ok := t.Literal.(string); ok {
			return strconv.Quote(s)
		}
		return fmt.Sprint(t.Literal)
	case TypeObject:
		if t.Fields == nil {
			return "object"
		}
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			opt := ""
			if f.Optional {
				opt = "?"
			}
			parts[i] = f.Name + opt + ": " + f.Type.String()
		}
		return "{ " + strings.Join(parts, "; ") + " }"
	case TypeAny:
		if t.Name != "" {
			return t.Name
		}
		return "any"
	}
	if t.Name != "" {
		return t.Name
	}
	return [...]string{"any", "string", "number", "boolean", "null", "undefined", "object", "array", "record", "union", "literal", "promise", "named", "never"}[t.Kind]
}

// Matches reports whether a Go value, as decoded from JSON or passed by a
// host caller, conforms to the type.
func (t *Type) Matches(v any) bool {
	switch t.Kind {
	case TypeAny:
		return true
	case TypeNever:
		return false
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		return isNumber(v)
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeNull, TypeUndefined:
		return v == nil
	case TypeLiteral:
		if isNumber(v) {
			f, _ := toFloat(v)
			lit, ok := t.Literal.(float64)
			return ok && f == lit
		}
		return v == t.Literal
	case TypeUnion:
		for _, o := range t.Options {
			if o.Matches(v) {
				return true
			}
		}
		return false
	case TypePromise:
		return t.Elem.Matches(v)
	case TypeArray:
		rv := reflect.ValueOf(v)
		if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if !t.Elem.Matches(rv.Index(i).Interface()) {
				return false
			}
		}
		return true
	case TypeRecord:
		m, ok := asObject(v)
		if !ok {
			return false
		}
		for _, val := range m {
			if !t.Elem.Matches(val) {
				return false
			}
		}
		return true
	case TypeObject:
		m, ok := asObject(v)
		if !ok {
			return false
		}
		for _, f := range t.Fields {
			val, present := m[f.Name]
			if !present || val == nil {
				if f.Optional {
					continue
				}
				return false
			}
			if !f.Type.Matches(val) {
				return false
			}
		}
		return true
	case TypeNamed:
		_, ok := asObject(v)
		return ok
	}
	return false
}

// TypeOf describes the runtime type of a value using type-string vocabulary.
func TypeOf(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	if isNumber(v) {
		return "number"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct, reflect.Ptr:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

func isNumber(v any) bool {
	_, ok := toFloat(v)
	return ok
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// asObject views maps with string keys as objects. Struct values count as
// objects too but expose no fields to object-literal checks.
func asObject(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return m, true
	case reflect.Struct:
		return map[string]any{}, true
	}
	return nil, false
}
