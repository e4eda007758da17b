/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * Attribute decoding: name-keyed dispatch over the recognised
 * attribute kinds, including the nested Code, StackMapTable, and
 * annotation structures.
 */

package classfile

import "github.com/daviddrysdale/jnm/config"

// AttrKind identifies which of the recognised attribute shapes an
// Attribute holds.
type AttrKind int

const (
	AttrSourceFile AttrKind = iota
	AttrConstantValue
	AttrCode
	AttrExceptions
	AttrInnerClasses
	AttrSynthetic
	AttrLineNumberTable
	AttrLocalVariableTable
	AttrLocalVariableTypeTable
	AttrDeprecated
	AttrStackMapTable
	AttrEnclosingMethod
	AttrSignature
	AttrSourceDebugExtension
	AttrRuntimeVisibleAnnotations
	AttrRuntimeInvisibleAnnotations
	AttrRuntimeVisibleParameterAnnotations
	AttrRuntimeInvisibleParameterAnnotations
	AttrAnnotationDefault

	// AttrUnknown holds an attribute whose name is not in the recognised
	// set, kept only when cfg.StrictAttributes is false. Its raw payload
	// is round-tripped verbatim since this decoder has no shape to parse
	// it into.
	AttrUnknown
)

var attrNameToKind = map[string]AttrKind{
	"SourceFile":                            AttrSourceFile,
	"ConstantValue":                         AttrConstantValue,
	"Code":                                  AttrCode,
	"Exceptions":                            AttrExceptions,
	"InnerClasses":                          AttrInnerClasses,
	"Synthetic":                             AttrSynthetic,
	"LineNumberTable":                       AttrLineNumberTable,
	"LocalVariableTable":                    AttrLocalVariableTable,
	"LocalVariableTypeTable":                AttrLocalVariableTypeTable,
	"Deprecated":                            AttrDeprecated,
	"StackMapTable":                         AttrStackMapTable,
	"EnclosingMethod":                       AttrEnclosingMethod,
	"Signature":                             AttrSignature,
	"SourceDebugExtension":                  AttrSourceDebugExtension,
	"RuntimeVisibleAnnotations":             AttrRuntimeVisibleAnnotations,
	"RuntimeInvisibleAnnotations":           AttrRuntimeInvisibleAnnotations,
	"RuntimeVisibleParameterAnnotations":    AttrRuntimeVisibleParameterAnnotations,
	"RuntimeInvisibleParameterAnnotations":  AttrRuntimeInvisibleParameterAnnotations,
	"AnnotationDefault":                     AttrAnnotationDefault,
}

var attrKindToName = func() map[AttrKind]string {
	m := make(map[AttrKind]string, len(attrNameToKind))
	for name, kind := range attrNameToKind {
		m[kind] = name
	}
	return m
}()

// ExceptionTableRow is one row of a Code attribute's exception table.
type ExceptionTableRow struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16 // 0 means "any" (a finally handler)
}

// CodeAttr is the payload of a Code attribute.
type CodeAttr struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableRow
	Attributes     []*Attribute
}

// ExceptionsAttr is the payload of an Exceptions attribute.
type ExceptionsAttr struct {
	ExceptionIndexTable []uint16
}

// InnerClassInfo is one entry of an InnerClasses attribute.
type InnerClassInfo struct {
	InnerClassInfoIndex   uint16
	OuterClassInfoIndex   uint16
	InnerNameIndex        uint16
	InnerClassAccessFlags uint16
}

// InnerClassesAttr is the payload of an InnerClasses attribute.
type InnerClassesAttr struct {
	Classes []InnerClassInfo
}

// LineNumberEntry is one row of a LineNumberTable attribute.
type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

// LineNumberTableAttr is the payload of a LineNumberTable attribute.
type LineNumberTableAttr struct {
	Entries []LineNumberEntry
}

// LocalVariableEntry is one row of a LocalVariableTable or
// LocalVariableTypeTable attribute (the two share a wire shape).
type LocalVariableEntry struct {
	StartPC         uint16
	Length          uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Index           uint16
}

// LocalVariableTableAttr is the payload of a LocalVariableTable or
// LocalVariableTypeTable attribute.
type LocalVariableTableAttr struct {
	Entries []LocalVariableEntry
}

// SourceFileAttr is the payload of a SourceFile attribute.
type SourceFileAttr struct {
	SourceFileIndex uint16
}

// ConstantValueAttr is the payload of a ConstantValue attribute.
type ConstantValueAttr struct {
	ConstantValueIndex uint16
}

// EnclosingMethodAttr is the payload of an EnclosingMethod attribute.
type EnclosingMethodAttr struct {
	ClassIndex  uint16
	MethodIndex uint16
}

// SignatureAttr is the payload of a Signature attribute.
type SignatureAttr struct {
	SignatureIndex uint16
}

// SourceDebugExtensionAttr is the payload of a SourceDebugExtension
// attribute: raw bytes with no further structure.
type SourceDebugExtensionAttr struct {
	DebugExtension []byte
}

// VerificationType is one entry of a StackMapTable frame's locals or
// stack list.
type VerificationType struct {
	Tag        byte
	CPoolIndex uint16 // populated only when Tag == 7 (Object)
	Offset     uint16 // populated only when Tag == 8 (Uninitialized)
}

const (
	vtiTop               = 0
	vtiInteger           = 1
	vtiFloat             = 2
	vtiDouble            = 3
	vtiLong              = 4
	vtiNull              = 5
	vtiUninitializedThis = 6
	vtiObject            = 7
	vtiUninitialized     = 8
)

// StackMapFrame is one entry of a StackMapTable attribute. Which of
// OffsetDelta/Locals/Stack are meaningful depends on FrameType's range;
// see parseStackMapFrame.
type StackMapFrame struct {
	FrameType   byte
	OffsetDelta uint16
	Locals      []VerificationType
	Stack       []VerificationType
}

// StackMapTableAttr is the payload of a StackMapTable attribute.
type StackMapTableAttr struct {
	Entries []StackMapFrame
}

// ElementValue is a tag-dispatched annotation element value (B C D F I J S
// Z s e c @ [).
type ElementValue struct {
	Tag byte

	ConstValueIndex    uint16 // B C D F I J S Z s
	EnumTypeNameIndex  uint16 // e
	EnumConstNameIndex uint16 // e
	ClassInfoIndex     uint16 // c
	Annotation         *Annotation
	Values             []*ElementValue // [
}

// ElementValuePair is one (name, value) pair inside an Annotation.
type ElementValuePair struct {
	ElementNameIndex uint16
	Value            *ElementValue
}

// Annotation is a single @Annotation occurrence.
type Annotation struct {
	TypeIndex uint16
	Pairs     []ElementValuePair
}

// AnnotationsAttr is the payload of a RuntimeVisible/InvisibleAnnotations
// attribute.
type AnnotationsAttr struct {
	Annotations []Annotation
}

// ParameterAnnotationsAttr is the payload of a
// RuntimeVisible/InvisibleParameterAnnotations attribute.
type ParameterAnnotationsAttr struct {
	ParameterAnnotations [][]Annotation
}

// AnnotationDefaultAttr is the payload of an AnnotationDefault attribute.
type AnnotationDefaultAttr struct {
	DefaultValue *ElementValue
}

// Attribute is a single decoded attribute_info entry. Exactly one of the
// typed payload fields is populated, selected by Kind; Synthetic and
// Deprecated carry no payload at all.
type Attribute struct {
	NameIndex uint16
	Kind      AttrKind

	// UnknownName and UnknownPayload are populated only when Kind ==
	// AttrUnknown (lenient decoding of an unrecognised attribute name).
	UnknownName    string
	UnknownPayload []byte

	SourceFile             *SourceFileAttr
	ConstantValue          *ConstantValueAttr
	Code                   *CodeAttr
	Exceptions             *ExceptionsAttr
	InnerClasses           *InnerClassesAttr
	LineNumberTable        *LineNumberTableAttr
	LocalVariableTable     *LocalVariableTableAttr
	LocalVariableTypeTable *LocalVariableTableAttr
	StackMapTable          *StackMapTableAttr
	EnclosingMethod        *EnclosingMethodAttr
	Signature              *SignatureAttr
	SourceDebugExtension   *SourceDebugExtensionAttr
	Annotations            *AnnotationsAttr
	ParameterAnnotations   *ParameterAnnotationsAttr
	AnnotationDefault      *AnnotationDefaultAttr
}

// Name returns the attribute's name as recognised by the decoder.
func (a *Attribute) Name() string {
	if a.Kind == AttrUnknown {
		return a.UnknownName
	}
	return attrKindToName[a.Kind]
}

// ParseAttributes reads a u2 count followed by that many attribute_info
// structures. Under cfg.StrictAttributes (the default) an unrecognised
// name fails the parse with UnknownAttribute; otherwise it is kept as an
// AttrUnknown with its payload preserved verbatim for round-tripping.
func ParseAttributes(r *Reader, cp *ConstantPool, cfg config.Config) ([]*Attribute, error) {
	count, err := r.U2()
	if err != nil {
		return nil, err
	}
	attrs := make([]*Attribute, 0, count)
	for i := 0; i < int(count); i++ {
		a, err := parseAttribute(r, cp, cfg)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, a)
	}
	return attrs, nil
}

// withLengthPrefixedPayload reads a u4 attribute_length, slices exactly
// that many bytes, and hands a fresh Reader over just those bytes to
// decode. It fails with AttributeLengthMismatch if decode does not
// consume the payload exactly.
func withLengthPrefixedPayload(r *Reader, name string, decode func(sub *Reader) error) error {
	length, err := r.U4()
	if err != nil {
		return err
	}
	raw, err := r.Bytes(int(length))
	if err != nil {
		return err
	}
	sub := NewReader(raw)
	if err := decode(sub); err != nil {
		return err
	}
	if sub.Remaining() != 0 {
		return &AttributeLengthMismatch{
			Name:     name,
			Declared: length,
			Consumed: uint32(len(raw) - sub.Remaining()),
		}
	}
	return nil
}

func parseAttribute(r *Reader, cp *ConstantPool, cfg config.Config) (*Attribute, error) {
	nameIndex, err := r.U2()
	if err != nil {
		return nil, err
	}
	name, err := cp.Utf8At(int(nameIndex))
	if err != nil {
		return nil, err
	}
	kind, ok := attrNameToKind[name]
	if !ok {
		if cfg.StrictAttributes {
			return nil, &UnknownAttribute{Name: name}
		}
		a := &Attribute{NameIndex: nameIndex, Kind: AttrUnknown, UnknownName: name}
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			b, e := sub.Bytes(sub.Remaining())
			if e != nil {
				return e
			}
			a.UnknownPayload = append([]byte(nil), b...)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	}

	a := &Attribute{NameIndex: nameIndex, Kind: kind}

	switch kind {
	case AttrSourceFile:
		a.SourceFile = &SourceFileAttr{}
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			a.SourceFile.SourceFileIndex, err = sub.U2()
			return err
		})

	case AttrConstantValue:
		a.ConstantValue = &ConstantValueAttr{}
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			a.ConstantValue.ConstantValueIndex, err = sub.U2()
			return err
		})

	case AttrCode:
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			code, e := parseCodeAttr(sub, cp, cfg)
			a.Code = code
			return e
		})

	case AttrExceptions:
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			n, e := sub.U2()
			if e != nil {
				return e
			}
			table := make([]uint16, n)
			for i := range table {
				if table[i], e = sub.U2(); e != nil {
					return e
				}
			}
			a.Exceptions = &ExceptionsAttr{ExceptionIndexTable: table}
			return nil
		})

	case AttrInnerClasses:
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			n, e := sub.U2()
			if e != nil {
				return e
			}
			classes := make([]InnerClassInfo, n)
			for i := range classes {
				if classes[i].InnerClassInfoIndex, e = sub.U2(); e != nil {
					return e
				}
				if classes[i].OuterClassInfoIndex, e = sub.U2(); e != nil {
					return e
				}
				if classes[i].InnerNameIndex, e = sub.U2(); e != nil {
					return e
				}
				if classes[i].InnerClassAccessFlags, e = sub.U2(); e != nil {
					return e
				}
			}
			a.InnerClasses = &InnerClassesAttr{Classes: classes}
			return nil
		})

	case AttrSynthetic, AttrDeprecated:
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error { return nil })

	case AttrLineNumberTable:
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			n, e := sub.U2()
			if e != nil {
				return e
			}
			entries := make([]LineNumberEntry, n)
			for i := range entries {
				if entries[i].StartPC, e = sub.U2(); e != nil {
					return e
				}
				if entries[i].LineNumber, e = sub.U2(); e != nil {
					return e
				}
			}
			a.LineNumberTable = &LineNumberTableAttr{Entries: entries}
			return nil
		})

	case AttrLocalVariableTable, AttrLocalVariableTypeTable:
		var target **LocalVariableTableAttr
		if kind == AttrLocalVariableTable {
			target = &a.LocalVariableTable
		} else {
			target = &a.LocalVariableTypeTable
		}
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			n, e := sub.U2()
			if e != nil {
				return e
			}
			entries := make([]LocalVariableEntry, n)
			for i := range entries {
				if entries[i].StartPC, e = sub.U2(); e != nil {
					return e
				}
				if entries[i].Length, e = sub.U2(); e != nil {
					return e
				}
				if entries[i].NameIndex, e = sub.U2(); e != nil {
					return e
				}
				if entries[i].DescriptorIndex, e = sub.U2(); e != nil {
					return e
				}
				if entries[i].Index, e = sub.U2(); e != nil {
					return e
				}
			}
			*target = &LocalVariableTableAttr{Entries: entries}
			return nil
		})

	case AttrStackMapTable:
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			n, e := sub.U2()
			if e != nil {
				return e
			}
			entries := make([]StackMapFrame, n)
			for i := range entries {
				frame, e := parseStackMapFrame(sub)
				if e != nil {
					return e
				}
				entries[i] = frame
			}
			a.StackMapTable = &StackMapTableAttr{Entries: entries}
			return nil
		})

	case AttrEnclosingMethod:
		a.EnclosingMethod = &EnclosingMethodAttr{}
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			if a.EnclosingMethod.ClassIndex, err = sub.U2(); err != nil {
				return err
			}
			a.EnclosingMethod.MethodIndex, err = sub.U2()
			return err
		})

	case AttrSignature:
		a.Signature = &SignatureAttr{}
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			a.Signature.SignatureIndex, err = sub.U2()
			return err
		})

	case AttrSourceDebugExtension:
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			b, e := sub.Bytes(sub.Remaining())
			if e != nil {
				return e
			}
			a.SourceDebugExtension = &SourceDebugExtensionAttr{DebugExtension: append([]byte(nil), b...)}
			return nil
		})

	case AttrRuntimeVisibleAnnotations, AttrRuntimeInvisibleAnnotations:
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			n, e := sub.U2()
			if e != nil {
				return e
			}
			anns := make([]Annotation, n)
			for i := range anns {
				ann, e := parseAnnotation(sub)
				if e != nil {
					return e
				}
				anns[i] = ann
			}
			a.Annotations = &AnnotationsAttr{Annotations: anns}
			return nil
		})

	case AttrRuntimeVisibleParameterAnnotations, AttrRuntimeInvisibleParameterAnnotations:
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			numParams, e := sub.U1()
			if e != nil {
				return e
			}
			params := make([][]Annotation, numParams)
			for p := range params {
				n, e := sub.U2()
				if e != nil {
					return e
				}
				anns := make([]Annotation, n)
				for i := range anns {
					ann, e := parseAnnotation(sub)
					if e != nil {
						return e
					}
					anns[i] = ann
				}
				params[p] = anns
			}
			a.ParameterAnnotations = &ParameterAnnotationsAttr{ParameterAnnotations: params}
			return nil
		})

	case AttrAnnotationDefault:
		err = withLengthPrefixedPayload(r, name, func(sub *Reader) error {
			ev, e := parseElementValue(sub)
			if e != nil {
				return e
			}
			a.AnnotationDefault = &AnnotationDefaultAttr{DefaultValue: ev}
			return nil
		})
	}

	if err != nil {
		return nil, err
	}
	return a, nil
}

func parseCodeAttr(r *Reader, cp *ConstantPool, cfg config.Config) (*CodeAttr, error) {
	c := &CodeAttr{}
	var err error
	if c.MaxStack, err = r.U2(); err != nil {
		return nil, err
	}
	if c.MaxLocals, err = r.U2(); err != nil {
		return nil, err
	}
	codeLength, err := r.U4()
	if err != nil {
		return nil, err
	}
	if c.Code, err = r.Bytes(int(codeLength)); err != nil {
		return nil, err
	}
	excCount, err := r.U2()
	if err != nil {
		return nil, err
	}
	c.ExceptionTable = make([]ExceptionTableRow, excCount)
	for i := range c.ExceptionTable {
		if c.ExceptionTable[i].StartPC, err = r.U2(); err != nil {
			return nil, err
		}
		if c.ExceptionTable[i].EndPC, err = r.U2(); err != nil {
			return nil, err
		}
		if c.ExceptionTable[i].HandlerPC, err = r.U2(); err != nil {
			return nil, err
		}
		if c.ExceptionTable[i].CatchType, err = r.U2(); err != nil {
			return nil, err
		}
	}
	c.Attributes, err = ParseAttributes(r, cp, cfg)
	return c, err
}

func parseVerificationType(r *Reader) (VerificationType, error) {
	tag, err := r.U1()
	if err != nil {
		return VerificationType{}, err
	}
	v := VerificationType{Tag: tag}
	switch tag {
	case vtiObject:
		v.CPoolIndex, err = r.U2()
	case vtiUninitialized:
		v.Offset, err = r.U2()
	case vtiTop, vtiInteger, vtiFloat, vtiDouble, vtiLong, vtiNull, vtiUninitializedThis:
		// no further payload
	default:
		return VerificationType{}, &UnknownVariableInfo{Tag: tag}
	}
	return v, err
}

func parseStackMapFrame(r *Reader) (StackMapFrame, error) {
	frameType, err := r.U1()
	if err != nil {
		return StackMapFrame{}, err
	}
	f := StackMapFrame{FrameType: frameType}
	switch {
	case frameType <= 63: // SameFrame
		// offset_delta == frame_type, not separately encoded
	case frameType <= 127: // SameLocals1StackItemFrame
		f.OffsetDelta = uint16(frameType) - 64
		item, e := parseVerificationType(r)
		if e != nil {
			return StackMapFrame{}, e
		}
		f.Stack = []VerificationType{item}
	case frameType == 247: // SameLocals1StackItemFrameExtended
		if f.OffsetDelta, err = r.U2(); err != nil {
			return StackMapFrame{}, err
		}
		item, e := parseVerificationType(r)
		if e != nil {
			return StackMapFrame{}, e
		}
		f.Stack = []VerificationType{item}
	case frameType >= 248 && frameType <= 250: // ChopFrame
		if f.OffsetDelta, err = r.U2(); err != nil {
			return StackMapFrame{}, err
		}
	case frameType == 251: // SameFrameExtended
		if f.OffsetDelta, err = r.U2(); err != nil {
			return StackMapFrame{}, err
		}
	case frameType >= 252 && frameType <= 254: // AppendFrame
		if f.OffsetDelta, err = r.U2(); err != nil {
			return StackMapFrame{}, err
		}
		numLocals := int(frameType) - 251
		f.Locals = make([]VerificationType, numLocals)
		for i := range f.Locals {
			if f.Locals[i], err = parseVerificationType(r); err != nil {
				return StackMapFrame{}, err
			}
		}
	case frameType == 255: // FullFrame
		if f.OffsetDelta, err = r.U2(); err != nil {
			return StackMapFrame{}, err
		}
		numLocals, err := r.U2()
		if err != nil {
			return StackMapFrame{}, err
		}
		f.Locals = make([]VerificationType, numLocals)
		for i := range f.Locals {
			if f.Locals[i], err = parseVerificationType(r); err != nil {
				return StackMapFrame{}, err
			}
		}
		numStack, err := r.U2()
		if err != nil {
			return StackMapFrame{}, err
		}
		f.Stack = make([]VerificationType, numStack)
		for i := range f.Stack {
			if f.Stack[i], err = parseVerificationType(r); err != nil {
				return StackMapFrame{}, err
			}
		}
	default:
		return StackMapFrame{}, &UnknownStackFrame{FrameType: frameType}
	}
	return f, nil
}

func parseElementValue(r *Reader) (*ElementValue, error) {
	tagByte, err := r.U1()
	if err != nil {
		return nil, err
	}
	ev := &ElementValue{Tag: tagByte}
	switch tagByte {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		ev.ConstValueIndex, err = r.U2()
	case 'e':
		if ev.EnumTypeNameIndex, err = r.U2(); err != nil {
			return nil, err
		}
		ev.EnumConstNameIndex, err = r.U2()
	case 'c':
		ev.ClassInfoIndex, err = r.U2()
	case '@':
		ann, e := parseAnnotation(r)
		if e != nil {
			return nil, e
		}
		ev.Annotation = &ann
	case '[':
		n, e := r.U2()
		if e != nil {
			return nil, e
		}
		ev.Values = make([]*ElementValue, n)
		for i := range ev.Values {
			ev.Values[i], err = parseElementValue(r)
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, &UnknownElementValue{Tag: tagByte}
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func parseAnnotation(r *Reader) (Annotation, error) {
	ann := Annotation{}
	var err error
	if ann.TypeIndex, err = r.U2(); err != nil {
		return ann, err
	}
	n, err := r.U2()
	if err != nil {
		return ann, err
	}
	ann.Pairs = make([]ElementValuePair, n)
	for i := range ann.Pairs {
		if ann.Pairs[i].ElementNameIndex, err = r.U2(); err != nil {
			return ann, err
		}
		ann.Pairs[i].Value, err = parseElementValue(r)
		if err != nil {
			return ann, err
		}
	}
	return ann, nil
}

// Serialize writes an attribute_info record (name_index, length, payload)
// back out. Length is recomputed from the re-encoded payload rather than
// trusted from the decode, so a round trip is exact even if a future
// caller mutates the in-memory structure.
func (a *Attribute) Serialize(w *Writer) {
	w.U2(a.NameIndex)
	payload := NewWriter()
	serializeAttrPayload(a, payload)
	b := payload.Bytes()
	w.U4(uint32(len(b)))
	w.Raw(b)
}

func serializeAttrPayload(a *Attribute, w *Writer) {
	switch a.Kind {
	case AttrSourceFile:
		w.U2(a.SourceFile.SourceFileIndex)
	case AttrConstantValue:
		w.U2(a.ConstantValue.ConstantValueIndex)
	case AttrCode:
		serializeCodeAttr(a.Code, w)
	case AttrExceptions:
		w.U2(uint16(len(a.Exceptions.ExceptionIndexTable)))
		for _, idx := range a.Exceptions.ExceptionIndexTable {
			w.U2(idx)
		}
	case AttrInnerClasses:
		w.U2(uint16(len(a.InnerClasses.Classes)))
		for _, c := range a.InnerClasses.Classes {
			w.U2(c.InnerClassInfoIndex)
			w.U2(c.OuterClassInfoIndex)
			w.U2(c.InnerNameIndex)
			w.U2(c.InnerClassAccessFlags)
		}
	case AttrSynthetic, AttrDeprecated:
		// no payload
	case AttrLineNumberTable:
		w.U2(uint16(len(a.LineNumberTable.Entries)))
		for _, e := range a.LineNumberTable.Entries {
			w.U2(e.StartPC)
			w.U2(e.LineNumber)
		}
	case AttrLocalVariableTable:
		serializeLocalVariableTable(a.LocalVariableTable, w)
	case AttrLocalVariableTypeTable:
		serializeLocalVariableTable(a.LocalVariableTypeTable, w)
	case AttrStackMapTable:
		w.U2(uint16(len(a.StackMapTable.Entries)))
		for _, f := range a.StackMapTable.Entries {
			serializeStackMapFrame(f, w)
		}
	case AttrEnclosingMethod:
		w.U2(a.EnclosingMethod.ClassIndex)
		w.U2(a.EnclosingMethod.MethodIndex)
	case AttrSignature:
		w.U2(a.Signature.SignatureIndex)
	case AttrSourceDebugExtension:
		w.Raw(a.SourceDebugExtension.DebugExtension)
	case AttrRuntimeVisibleAnnotations, AttrRuntimeInvisibleAnnotations:
		w.U2(uint16(len(a.Annotations.Annotations)))
		for _, ann := range a.Annotations.Annotations {
			serializeAnnotation(ann, w)
		}
	case AttrRuntimeVisibleParameterAnnotations, AttrRuntimeInvisibleParameterAnnotations:
		w.U1(byte(len(a.ParameterAnnotations.ParameterAnnotations)))
		for _, anns := range a.ParameterAnnotations.ParameterAnnotations {
			w.U2(uint16(len(anns)))
			for _, ann := range anns {
				serializeAnnotation(ann, w)
			}
		}
	case AttrAnnotationDefault:
		serializeElementValue(a.AnnotationDefault.DefaultValue, w)
	case AttrUnknown:
		w.Raw(a.UnknownPayload)
	}
}

func serializeCodeAttr(c *CodeAttr, w *Writer) {
	w.U2(c.MaxStack)
	w.U2(c.MaxLocals)
	w.U4(uint32(len(c.Code)))
	w.Raw(c.Code)
	w.U2(uint16(len(c.ExceptionTable)))
	for _, e := range c.ExceptionTable {
		w.U2(e.StartPC)
		w.U2(e.EndPC)
		w.U2(e.HandlerPC)
		w.U2(e.CatchType)
	}
	w.U2(uint16(len(c.Attributes)))
	for _, sub := range c.Attributes {
		sub.Serialize(w)
	}
}

func serializeLocalVariableTable(t *LocalVariableTableAttr, w *Writer) {
	w.U2(uint16(len(t.Entries)))
	for _, e := range t.Entries {
		w.U2(e.StartPC)
		w.U2(e.Length)
		w.U2(e.NameIndex)
		w.U2(e.DescriptorIndex)
		w.U2(e.Index)
	}
}

func serializeVerificationType(v VerificationType, w *Writer) {
	w.U1(v.Tag)
	switch v.Tag {
	case vtiObject:
		w.U2(v.CPoolIndex)
	case vtiUninitialized:
		w.U2(v.Offset)
	}
}

func serializeStackMapFrame(f StackMapFrame, w *Writer) {
	w.U1(f.FrameType)
	switch {
	case f.FrameType <= 63:
	case f.FrameType <= 127:
		serializeVerificationType(f.Stack[0], w)
	case f.FrameType == 247:
		w.U2(f.OffsetDelta)
		serializeVerificationType(f.Stack[0], w)
	case f.FrameType >= 248 && f.FrameType <= 251:
		w.U2(f.OffsetDelta)
	case f.FrameType >= 252 && f.FrameType <= 254:
		w.U2(f.OffsetDelta)
		for _, l := range f.Locals {
			serializeVerificationType(l, w)
		}
	case f.FrameType == 255:
		w.U2(f.OffsetDelta)
		w.U2(uint16(len(f.Locals)))
		for _, l := range f.Locals {
			serializeVerificationType(l, w)
		}
		w.U2(uint16(len(f.Stack)))
		for _, s := range f.Stack {
			serializeVerificationType(s, w)
		}
	}
}

func serializeElementValue(ev *ElementValue, w *Writer) {
	w.U1(ev.Tag)
	switch ev.Tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's':
		w.U2(ev.ConstValueIndex)
	case 'e':
		w.U2(ev.EnumTypeNameIndex)
		w.U2(ev.EnumConstNameIndex)
	case 'c':
		w.U2(ev.ClassInfoIndex)
	case '@':
		serializeAnnotation(*ev.Annotation, w)
	case '[':
		w.U2(uint16(len(ev.Values)))
		for _, v := range ev.Values {
			serializeElementValue(v, w)
		}
	}
}

func serializeAnnotation(ann Annotation, w *Writer) {
	w.U2(ann.TypeIndex)
	w.U2(uint16(len(ann.Pairs)))
	for _, p := range ann.Pairs {
		w.U2(p.ElementNameIndex)
		serializeElementValue(p.Value, w)
	}
}
