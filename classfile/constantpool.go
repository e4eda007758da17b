/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * Constant pool decode/encode: an arena of tagged slots resolved by
 * 1-based index, with the two-slot gap after Long and Double entries
 * preserved.
 */

package classfile

// Tag identifies a constant pool entry's kind, per JVM spec table 4.3.
type Tag byte

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldRef           Tag = 9
	TagMethodRef          Tag = 10
	TagInterfaceMethodRef Tag = 11
	TagNameAndType        Tag = 12

	// tagSentinel marks the unused slot following a Long or Double entry.
	// It is never assigned a Tag constant above 0 and must never be
	// referenced by any index in the file.
	tagSentinel Tag = 0
)

func knownTag(t byte) bool {
	switch Tag(t) {
	case TagUtf8, TagInteger, TagFloat, TagLong, TagDouble, TagClass, TagString,
		TagFieldRef, TagMethodRef, TagInterfaceMethodRef, TagNameAndType:
		return true
	}
	return false
}

// RefEntry is the shared shape of FieldRef/MethodRef/InterfaceMethodRef:
// an index to a Class entry and an index to a NameAndType entry.
type RefEntry struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

// NameAndTypeEntry pairs a name index with a descriptor index.
type NameAndTypeEntry struct {
	NameIndex uint16
	DescIndex uint16
}

type cpSlot struct {
	tag  Tag
	slot int
}

// ConstantPool is the arena of constant-pool entries for one class file.
// It never builds an object graph with embedded pointers: every reference
// is a 1-based integer index resolved through Tag/Utf8At/ClassName/... at
// use time.
type ConstantPool struct {
	slots []cpSlot // slots[0] unused; slots[i] describes 1-based entry i

	Utf8s               []string
	Integers            []int32
	Floats              []float32
	Longs               []int64
	Doubles             []float64
	Classes             []uint16 // name_index
	Strings             []uint16 // utf8_index
	FieldRefs           []RefEntry
	MethodRefs          []RefEntry
	InterfaceMethodRefs []RefEntry
	NameAndTypes        []NameAndTypeEntry
}

// Count returns the class file's constant_pool_count (one more than the
// highest valid index).
func (cp *ConstantPool) Count() int { return len(cp.slots) }

// ParseConstantPool reads the constant_pool_count followed by exactly
// count-1 entries.
func ParseConstantPool(r *Reader) (*ConstantPool, error) {
	count, err := r.U2()
	if err != nil {
		return nil, err
	}

	cp := &ConstantPool{slots: make([]cpSlot, count)}

	i := 1
	for i < int(count) {
		tagByte, err := r.U1()
		if err != nil {
			return nil, err
		}
		if !knownTag(tagByte) {
			return nil, &UnknownTag{Tag: tagByte}
		}
		tag := Tag(tagByte)

		switch tag {
		case TagUtf8:
			length, err := r.U2()
			if err != nil {
				return nil, err
			}
			b, err := r.Bytes(int(length))
			if err != nil {
				return nil, err
			}
			cp.slots[i] = cpSlot{tag, len(cp.Utf8s)}
			cp.Utf8s = append(cp.Utf8s, string(b))

		case TagInteger:
			v, err := r.S4()
			if err != nil {
				return nil, err
			}
			cp.slots[i] = cpSlot{tag, len(cp.Integers)}
			cp.Integers = append(cp.Integers, v)

		case TagFloat:
			v, err := r.F4()
			if err != nil {
				return nil, err
			}
			cp.slots[i] = cpSlot{tag, len(cp.Floats)}
			cp.Floats = append(cp.Floats, v)

		case TagLong:
			v, err := r.S8()
			if err != nil {
				return nil, err
			}
			cp.slots[i] = cpSlot{tag, len(cp.Longs)}
			cp.Longs = append(cp.Longs, v)

		case TagDouble:
			v, err := r.F8()
			if err != nil {
				return nil, err
			}
			cp.slots[i] = cpSlot{tag, len(cp.Doubles)}
			cp.Doubles = append(cp.Doubles, v)

		case TagClass:
			nameIdx, err := r.U2()
			if err != nil {
				return nil, err
			}
			cp.slots[i] = cpSlot{tag, len(cp.Classes)}
			cp.Classes = append(cp.Classes, nameIdx)

		case TagString:
			utf8Idx, err := r.U2()
			if err != nil {
				return nil, err
			}
			cp.slots[i] = cpSlot{tag, len(cp.Strings)}
			cp.Strings = append(cp.Strings, utf8Idx)

		case TagFieldRef, TagMethodRef, TagInterfaceMethodRef:
			classIdx, err := r.U2()
			if err != nil {
				return nil, err
			}
			natIdx, err := r.U2()
			if err != nil {
				return nil, err
			}
			entry := RefEntry{ClassIndex: classIdx, NameAndTypeIndex: natIdx}
			switch tag {
			case TagFieldRef:
				cp.slots[i] = cpSlot{tag, len(cp.FieldRefs)}
				cp.FieldRefs = append(cp.FieldRefs, entry)
			case TagMethodRef:
				cp.slots[i] = cpSlot{tag, len(cp.MethodRefs)}
				cp.MethodRefs = append(cp.MethodRefs, entry)
			case TagInterfaceMethodRef:
				cp.slots[i] = cpSlot{tag, len(cp.InterfaceMethodRefs)}
				cp.InterfaceMethodRefs = append(cp.InterfaceMethodRefs, entry)
			}

		case TagNameAndType:
			nameIdx, err := r.U2()
			if err != nil {
				return nil, err
			}
			descIdx, err := r.U2()
			if err != nil {
				return nil, err
			}
			cp.slots[i] = cpSlot{tag, len(cp.NameAndTypes)}
			cp.NameAndTypes = append(cp.NameAndTypes, NameAndTypeEntry{NameIndex: nameIdx, DescIndex: descIdx})
		}

		if tag == TagLong || tag == TagDouble {
			// slots[i+1] stays the zero value {tagSentinel, 0} and must
			// never be referenced.
			i += 2
		} else {
			i++
		}
	}

	return cp, nil
}

// Serialize re-encodes the pool in original order, writing the sentinel
// slots' owning entry but not the slots themselves, so the byte stream
// equals what ParseConstantPool consumed.
func (cp *ConstantPool) Serialize(w *Writer) {
	w.U2(uint16(len(cp.slots)))
	for i := 1; i < len(cp.slots); i++ {
		s := cp.slots[i]
		if s.tag == tagSentinel {
			continue
		}
		w.U1(byte(s.tag))
		switch s.tag {
		case TagUtf8:
			b := []byte(cp.Utf8s[s.slot])
			w.U2(uint16(len(b)))
			w.Raw(b)
		case TagInteger:
			w.S4(cp.Integers[s.slot])
		case TagFloat:
			w.F4(cp.Floats[s.slot])
		case TagLong:
			w.S8(cp.Longs[s.slot])
		case TagDouble:
			w.F8(cp.Doubles[s.slot])
		case TagClass:
			w.U2(cp.Classes[s.slot])
		case TagString:
			w.U2(cp.Strings[s.slot])
		case TagFieldRef:
			e := cp.FieldRefs[s.slot]
			w.U2(e.ClassIndex)
			w.U2(e.NameAndTypeIndex)
		case TagMethodRef:
			e := cp.MethodRefs[s.slot]
			w.U2(e.ClassIndex)
			w.U2(e.NameAndTypeIndex)
		case TagInterfaceMethodRef:
			e := cp.InterfaceMethodRefs[s.slot]
			w.U2(e.ClassIndex)
			w.U2(e.NameAndTypeIndex)
		case TagNameAndType:
			e := cp.NameAndTypes[s.slot]
			w.U2(e.NameIndex)
			w.U2(e.DescIndex)
		}
	}
}

// Tag returns the tag of 1-based entry i, or tagSentinel (0) if i is out
// of range or falls on a Long/Double's dead slot.
func (cp *ConstantPool) Tag(i int) Tag {
	if i < 1 || i >= len(cp.slots) {
		return tagSentinel
	}
	return cp.slots[i].tag
}

// Utf8At resolves entry i, which must be a Utf8 entry, to its string
// value.
func (cp *ConstantPool) Utf8At(i int) (string, error) {
	if cp.Tag(i) != TagUtf8 {
		return "", &BadDescriptor{Descriptor: "", Reason: "expected Utf8 constant pool entry"}
	}
	return cp.Utf8s[cp.slots[i].slot], nil
}

// ClassName resolves a Class entry's index to its display name: the UTF-8
// bytes pointed to by the Class entry's name_index.
func (cp *ConstantPool) ClassName(classIndex int) (string, error) {
	if cp.Tag(classIndex) != TagClass {
		return "", &BadDescriptor{Descriptor: "", Reason: "expected Class constant pool entry"}
	}
	nameIdx := cp.Classes[cp.slots[classIndex].slot]
	return cp.Utf8At(int(nameIdx))
}

// NameAndTypeOf resolves a NameAndType entry to its (name, descriptor)
// strings.
func (cp *ConstantPool) NameAndTypeOf(natIndex int) (name string, desc string, err error) {
	if cp.Tag(natIndex) != TagNameAndType {
		return "", "", &BadDescriptor{Descriptor: "", Reason: "expected NameAndType constant pool entry"}
	}
	e := cp.NameAndTypes[cp.slots[natIndex].slot]
	name, err = cp.Utf8At(int(e.NameIndex))
	if err != nil {
		return "", "", err
	}
	desc, err = cp.Utf8At(int(e.DescIndex))
	return name, desc, err
}

// MethodRefInfo resolves a MethodRef (or InterfaceMethodRef) entry to the
// owning class name, the method name, and its descriptor.
func (cp *ConstantPool) MethodRefInfo(methodRefIndex int) (className, methodName, descriptor string, err error) {
	var ref RefEntry
	switch cp.Tag(methodRefIndex) {
	case TagMethodRef:
		ref = cp.MethodRefs[cp.slots[methodRefIndex].slot]
	case TagInterfaceMethodRef:
		ref = cp.InterfaceMethodRefs[cp.slots[methodRefIndex].slot]
	default:
		return "", "", "", &BadDescriptor{Descriptor: "", Reason: "expected MethodRef constant pool entry"}
	}
	className, err = cp.ClassName(int(ref.ClassIndex))
	if err != nil {
		return "", "", "", err
	}
	methodName, descriptor, err = cp.NameAndTypeOf(int(ref.NameAndTypeIndex))
	return className, methodName, descriptor, err
}

// FieldRefInfo resolves a FieldRef entry to the owning class name, the
// field name, and its descriptor.
func (cp *ConstantPool) FieldRefInfo(fieldRefIndex int) (className, fieldName, descriptor string, err error) {
	if cp.Tag(fieldRefIndex) != TagFieldRef {
		return "", "", "", &BadDescriptor{Descriptor: "", Reason: "expected FieldRef constant pool entry"}
	}
	ref := cp.FieldRefs[cp.slots[fieldRefIndex].slot]
	className, err = cp.ClassName(int(ref.ClassIndex))
	if err != nil {
		return "", "", "", err
	}
	fieldName, descriptor, err = cp.NameAndTypeOf(int(ref.NameAndTypeIndex))
	return className, fieldName, descriptor, err
}

// StringValue resolves a String entry to its underlying UTF-8 text.
func (cp *ConstantPool) StringValue(stringIndex int) (string, error) {
	if cp.Tag(stringIndex) != TagString {
		return "", &BadDescriptor{Descriptor: "", Reason: "expected String constant pool entry"}
	}
	utf8Idx := cp.Strings[cp.slots[stringIndex].slot]
	return cp.Utf8At(int(utf8Idx))
}

// LoadableConstant resolves any of the constant kinds valid as an ldc,
// ldc_w, or ldc2_w operand (Integer, Float, Long, Double, String, or
// Class) to a Go value suitable for embedding directly in translated
// Target-VM code. Class entries resolve to their internal name string,
// since the target side represents a class literal as the name used to
// look it up through the host import API.
func (cp *ConstantPool) LoadableConstant(index int) (interface{}, error) {
	switch cp.Tag(index) {
	case TagInteger:
		return cp.Integers[cp.slots[index].slot], nil
	case TagFloat:
		return cp.Floats[cp.slots[index].slot], nil
	case TagLong:
		return cp.Longs[cp.slots[index].slot], nil
	case TagDouble:
		return cp.Doubles[cp.slots[index].slot], nil
	case TagString:
		return cp.StringValue(index)
	case TagClass:
		return cp.ClassName(index)
	default:
		return nil, &BadDescriptor{Descriptor: "", Reason: "index is not a loadable constant"}
	}
}
