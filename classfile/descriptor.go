/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * Field/method descriptor parsing.
 */

package classfile

import (
	"strings"

	"github.com/daviddrysdale/jnm/config"
)

// DescKind distinguishes the three descriptor shapes.
type DescKind int

const (
	// KindBase is one of the eight primitive type codes.
	KindBase DescKind = iota
	// KindClass is an "L...;"-encoded object type.
	KindClass
	// KindArray is a "[..."-encoded array type.
	KindArray
)

// Descriptor is one node of the type tree produced by parsing a field or
// method descriptor, as a {Base(char) | Class(name) | Array(Descriptor)} tree.
type Descriptor struct {
	Kind DescKind

	// Base holds the primitive type code (one of B C D F I J S Z) when
	// Kind == KindBase.
	Base byte

	// ClassName holds the internal (slash-separated) class name when
	// Kind == KindClass.
	ClassName string

	// Elem holds the component type when Kind == KindArray.
	Elem *Descriptor
}

var baseTypeCodes = map[byte]bool{
	'B': true, 'C': true, 'D': true, 'F': true,
	'I': true, 'J': true, 'S': true, 'Z': true,
}

// MethodDescriptor is the parsed form of a "(...)..." method type string.
type MethodDescriptor struct {
	Params []*Descriptor
	Return *Descriptor // nil for void
}

type descScanner struct {
	s   string
	pos int
}

func (d *descScanner) peek() (byte, bool) {
	if d.pos >= len(d.s) {
		return 0, false
	}
	return d.s[d.pos], true
}

func (d *descScanner) advance() {
	d.pos++
}

// ParseFieldDescriptor parses a single field-type descriptor, e.g. "I",
// "Ljava/lang/String;", "[[I".
func ParseFieldDescriptor(s string) (*Descriptor, error) {
	sc := &descScanner{s: s}
	d, err := parseFieldType(sc)
	if err != nil {
		return nil, err
	}
	if sc.pos != len(s) {
		return nil, &BadDescriptor{Descriptor: s, Reason: "trailing characters"}
	}
	return d, nil
}

// ParseMethodDescriptor parses a "(paramDesc*)returnDesc" method
// descriptor, returning the parameter list and the return type (nil for
// "V").
func ParseMethodDescriptor(s string) (*MethodDescriptor, error) {
	sc := &descScanner{s: s}
	c, ok := sc.peek()
	if !ok || c != '(' {
		return nil, &BadDescriptor{Descriptor: s, Reason: "missing '('"}
	}
	sc.advance()

	var params []*Descriptor
	for {
		c, ok := sc.peek()
		if !ok {
			return nil, &BadDescriptor{Descriptor: s, Reason: "unterminated parameter list"}
		}
		if c == ')' {
			sc.advance()
			break
		}
		p, err := parseFieldType(sc)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}

	c, ok = sc.peek()
	if !ok {
		return nil, &BadDescriptor{Descriptor: s, Reason: "missing return type"}
	}
	var ret *Descriptor
	if c == 'V' {
		sc.advance()
	} else {
		r, err := parseFieldType(sc)
		if err != nil {
			return nil, err
		}
		ret = r
	}
	if sc.pos != len(s) {
		return nil, &BadDescriptor{Descriptor: s, Reason: "trailing characters"}
	}
	return &MethodDescriptor{Params: params, Return: ret}, nil
}

func parseFieldType(sc *descScanner) (*Descriptor, error) {
	c, ok := sc.peek()
	if !ok {
		return nil, &BadDescriptor{Descriptor: sc.s, Reason: "unexpected end of descriptor"}
	}
	switch {
	case c == '[':
		sc.advance()
		elem, err := parseFieldType(sc)
		if err != nil {
			return nil, err
		}
		return &Descriptor{Kind: KindArray, Elem: elem}, nil
	case c == 'L':
		sc.advance()
		end := strings.IndexByte(sc.s[sc.pos:], ';')
		if end < 0 {
			return nil, &BadDescriptor{Descriptor: sc.s, Reason: "unterminated class name"}
		}
		name := sc.s[sc.pos : sc.pos+end]
		sc.pos += end + 1
		return &Descriptor{Kind: KindClass, ClassName: name}, nil
	case baseTypeCodes[c]:
		sc.advance()
		return &Descriptor{Kind: KindBase, Base: c}, nil
	default:
		return nil, &BadDescriptor{Descriptor: sc.s, Reason: "unrecognized type code"}
	}
}

// String reconstructs the original descriptor text; parsing and
// re-serializing a descriptor is lossless.
func (d *Descriptor) String() string {
	switch d.Kind {
	case KindBase:
		return string(d.Base)
	case KindClass:
		return "L" + d.ClassName + ";"
	case KindArray:
		return "[" + d.Elem.String()
	}
	return ""
}

// String reconstructs the original method descriptor text.
func (m *MethodDescriptor) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range m.Params {
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	if m.Return == nil {
		b.WriteByte('V')
	} else {
		b.WriteString(m.Return.String())
	}
	return b.String()
}

// Size returns the JVM storage size of d in bytes: 1 for boolean/byte, 2
// for char/short, 4 for int/float, 8 for long/double, and cfg.PointerSize
// for a class reference or an array (arrays are always reference-sized;
// the element type only matters once the array is dereferenced).
func (d *Descriptor) Size(cfg config.Config) int {
	switch d.Kind {
	case KindArray, KindClass:
		return cfg.PointerSize
	case KindBase:
		switch d.Base {
		case 'B', 'Z':
			return 1
		case 'C', 'S':
			return 2
		case 'I', 'F':
			return 4
		case 'J', 'D':
			return 8
		}
	}
	return cfg.PointerSize
}

// IsWide reports whether a value of this type occupies two local-variable
// slots / two constant-pool slots (long and double only).
func (d *Descriptor) IsWide() bool {
	return d.Kind == KindBase && (d.Base == 'J' || d.Base == 'D')
}
