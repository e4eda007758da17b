/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * Top-level class-file container: magic, versions, constant pool,
 * access flags, this/super, interfaces, fields, methods, attributes.
 */

package classfile

import (
	"github.com/daviddrysdale/jnm/config"
	"github.com/daviddrysdale/jnm/trace"
)

// Magic is the fixed four-byte signature every class file begins with.
const Magic uint32 = 0xCAFEBABE

// FieldInfo is one field_info entry: access flags, a name/descriptor pair
// resolved through the owning ClassFile's constant pool, and its
// attributes (typically just ConstantValue).
type FieldInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []*Attribute
}

// MethodInfo is one method_info entry. Its Code attribute, if present, is
// reachable via Attributes; CodeAttr is a convenience accessor.
type MethodInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []*Attribute
}

// CodeAttr returns the method's Code attribute payload, or nil if the
// method is abstract or native and carries no code.
func (m *MethodInfo) CodeAttr() *CodeAttr {
	for _, a := range m.Attributes {
		if a.Kind == AttrCode {
			return a.Code
		}
	}
	return nil
}

// ClassFile is the fully decoded contents of one .class file.
// Serialize reproduces the original byte stream exactly.
type ClassFile struct {
	Minor uint16
	Major uint16

	Constants *ConstantPool

	AccessFlags uint16
	ThisClass   uint16
	SuperClass  uint16

	Interfaces []uint16
	Fields     []*FieldInfo
	Methods    []*MethodInfo
	Attributes []*Attribute

	cfg config.Config
}

// Access flag bits, per the JVM class file format.
const (
	AccPublic     = 0x0001
	AccPrivate    = 0x0002
	AccProtected  = 0x0004
	AccStatic     = 0x0008
	AccFinal      = 0x0010
	AccSuper      = 0x0020 // also SYNCHRONIZED on methods
	AccVolatile   = 0x0040
	AccTransient  = 0x0080
	AccNative     = 0x0100
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccStrict     = 0x0800
)

// HasFlag reports whether flags has every bit in mask set.
func HasFlag(flags uint16, mask uint16) bool { return flags&mask == mask }

// Parse decodes a complete class file from buf under cfg. The decoder
// fails fast: an unrecognised constant-pool tag, or (under
// cfg.StrictAttributes) an unrecognised attribute name, fails the whole
// parse rather than being skipped.
func Parse(buf []byte, cfg config.Config) (*ClassFile, error) {
	r := NewReader(buf)

	magic, err := r.U4()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, &BadMagic{Got: magic}
	}

	cf := &ClassFile{cfg: cfg}
	if cf.Minor, err = r.U2(); err != nil {
		return nil, err
	}
	if cf.Major, err = r.U2(); err != nil {
		return nil, err
	}

	cf.Constants, err = ParseConstantPool(r)
	if err != nil {
		return nil, err
	}

	if cf.AccessFlags, err = r.U2(); err != nil {
		return nil, err
	}
	if cf.ThisClass, err = r.U2(); err != nil {
		return nil, err
	}
	if cf.SuperClass, err = r.U2(); err != nil {
		return nil, err
	}

	ifaceCount, err := r.U2()
	if err != nil {
		return nil, err
	}
	cf.Interfaces = make([]uint16, ifaceCount)
	for i := range cf.Interfaces {
		if cf.Interfaces[i], err = r.U2(); err != nil {
			return nil, err
		}
	}

	fieldCount, err := r.U2()
	if err != nil {
		return nil, err
	}
	cf.Fields = make([]*FieldInfo, fieldCount)
	for i := range cf.Fields {
		if cf.Fields[i], err = parseFieldOrMethod(r, cf.Constants, cfg); err != nil {
			return nil, err
		}
	}

	methodCount, err := r.U2()
	if err != nil {
		return nil, err
	}
	cf.Methods = make([]*MethodInfo, methodCount)
	for i := range cf.Methods {
		fi, err := parseFieldOrMethod(r, cf.Constants, cfg)
		if err != nil {
			return nil, err
		}
		cf.Methods[i] = &MethodInfo{
			AccessFlags:     fi.AccessFlags,
			NameIndex:       fi.NameIndex,
			DescriptorIndex: fi.DescriptorIndex,
			Attributes:      fi.Attributes,
		}
	}

	cf.Attributes, err = ParseAttributes(r, cf.Constants, cfg)
	if err != nil {
		return nil, err
	}

	if name, nerr := cf.Name(); nerr == nil {
		trace.Trace("parsed class " + name)
	}
	return cf, nil
}

func parseFieldOrMethod(r *Reader, cp *ConstantPool, cfg config.Config) (*FieldInfo, error) {
	fi := &FieldInfo{}
	var err error
	if fi.AccessFlags, err = r.U2(); err != nil {
		return nil, err
	}
	if fi.NameIndex, err = r.U2(); err != nil {
		return nil, err
	}
	if fi.DescriptorIndex, err = r.U2(); err != nil {
		return nil, err
	}
	fi.Attributes, err = ParseAttributes(r, cp, cfg)
	if err != nil {
		return nil, err
	}
	return fi, nil
}

// Config returns the configuration this ClassFile was parsed with.
func (cf *ClassFile) Config() config.Config { return cf.cfg }

// Name returns the class's own internal (slash-separated) name.
func (cf *ClassFile) Name() (string, error) {
	return cf.Constants.ClassName(int(cf.ThisClass))
}

// SuperName returns the superclass's internal name, or "" if SuperClass
// is 0 (only true for java/lang/Object itself).
func (cf *ClassFile) SuperName() (string, error) {
	if cf.SuperClass == 0 {
		return "", nil
	}
	return cf.Constants.ClassName(int(cf.SuperClass))
}

// MethodName resolves a MethodInfo's unqualified Java name.
func (cf *ClassFile) MethodName(m *MethodInfo) (string, error) {
	return cf.Constants.Utf8At(int(m.NameIndex))
}

// MethodDescriptor resolves and parses a MethodInfo's descriptor string.
func (cf *ClassFile) MethodDescriptor(m *MethodInfo) (*MethodDescriptor, error) {
	s, err := cf.Constants.Utf8At(int(m.DescriptorIndex))
	if err != nil {
		return nil, err
	}
	return ParseMethodDescriptor(s)
}

// SourceFile returns the class's SourceFile attribute text, or "" if
// absent (debug-stripped class files omit it).
func (cf *ClassFile) SourceFile() (string, error) {
	for _, a := range cf.Attributes {
		if a.Kind == AttrSourceFile {
			return cf.Constants.Utf8At(int(a.SourceFile.SourceFileIndex))
		}
	}
	return "", nil
}

// Serialize re-encodes the class file. serialize(parse(b)) must equal b
// for every well-formed input.
func (cf *ClassFile) Serialize() []byte {
	w := NewWriter()
	w.U4(Magic)
	w.U2(cf.Minor)
	w.U2(cf.Major)
	cf.Constants.Serialize(w)
	w.U2(cf.AccessFlags)
	w.U2(cf.ThisClass)
	w.U2(cf.SuperClass)

	w.U2(uint16(len(cf.Interfaces)))
	for _, idx := range cf.Interfaces {
		w.U2(idx)
	}

	w.U2(uint16(len(cf.Fields)))
	for _, f := range cf.Fields {
		w.U2(f.AccessFlags)
		w.U2(f.NameIndex)
		w.U2(f.DescriptorIndex)
		w.U2(uint16(len(f.Attributes)))
		for _, a := range f.Attributes {
			a.Serialize(w)
		}
	}

	w.U2(uint16(len(cf.Methods)))
	for _, m := range cf.Methods {
		w.U2(m.AccessFlags)
		w.U2(m.NameIndex)
		w.U2(m.DescriptorIndex)
		w.U2(uint16(len(m.Attributes)))
		for _, a := range m.Attributes {
			a.Serialize(w)
		}
	}

	w.U2(uint16(len(cf.Attributes)))
	for _, a := range cf.Attributes {
		a.Serialize(w)
	}

	return w.Bytes()
}
