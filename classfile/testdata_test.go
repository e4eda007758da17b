/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * Hand-built class-file fixture shared by this package's tests: a
 * minimal class with one default constructor whose Code is aload_0;
 * invokespecial Object.<init>; return.
 */

package classfile

// utf8 appends a CONSTANT_Utf8_info entry.
func utf8(w *Writer, s string) {
	w.U1(byte(TagUtf8))
	w.U2(uint16(len(s)))
	w.Raw([]byte(s))
}

func classEntry(w *Writer, nameIdx uint16) {
	w.U1(byte(TagClass))
	w.U2(nameIdx)
}

func methodRefEntry(w *Writer, classIdx, natIdx uint16) {
	w.U1(byte(TagMethodRef))
	w.U2(classIdx)
	w.U2(natIdx)
}

func nameAndTypeEntry(w *Writer, nameIdx, descIdx uint16) {
	w.U1(byte(TagNameAndType))
	w.U2(nameIdx)
	w.U2(descIdx)
}

// buildMinimalClass returns the raw bytes of a class "Test" extending
// java/lang/Object with one public no-arg constructor, built by hand
// (not through ConstantPool.Serialize/Attribute.Serialize) so that
// Parse is exercised against an independently constructed ground truth.
//
// Constant pool:
//
//	1  Utf8    "Code"
//	2  Utf8    "<init>"
//	3  Utf8    "()V"
//	4  Class   -> 5
//	5  Utf8    "Test"
//	6  Class   -> 7
//	7  Utf8    "java/lang/Object"
//	8  MethodRef class=6 nat=9
//	9  NameAndType name=2 desc=3
func buildMinimalClass() []byte {
	w := NewWriter()
	w.U4(Magic)
	w.U2(0)  // minor
	w.U2(52) // major

	w.U2(10) // constant_pool_count = count+1
	utf8(w, "Code")             // 1
	utf8(w, "<init>")           // 2
	utf8(w, "()V")              // 3
	classEntry(w, 5)            // 4
	utf8(w, "Test")             // 5
	classEntry(w, 7)            // 6
	utf8(w, "java/lang/Object") // 7
	methodRefEntry(w, 6, 9)     // 8
	nameAndTypeEntry(w, 2, 3)   // 9

	w.U2(0x0021) // access_flags: PUBLIC | SUPER
	w.U2(4)      // this_class
	w.U2(6)      // super_class

	w.U2(0) // interfaces_count
	w.U2(0) // fields_count

	w.U2(1)      // methods_count
	w.U2(0x0001) // access_flags: PUBLIC
	w.U2(2)      // name_index: <init>
	w.U2(3)      // descriptor_index: ()V
	w.U2(1)      // attributes_count

	code := []byte{0x2a, 0xb7, 0x00, 0x08, 0xb1} // aload_0; invokespecial #8; return
	w.U2(1)                                      // attribute_name_index: Code
	codeBody := NewWriter()
	codeBody.U2(1) // max_stack
	codeBody.U2(1) // max_locals
	codeBody.U4(uint32(len(code)))
	codeBody.Raw(code)
	codeBody.U2(0) // exception_table_count
	codeBody.U2(0) // attributes_count
	body := codeBody.Bytes()
	w.U4(uint32(len(body)))
	w.Raw(body)

	w.U2(0) // class attributes_count

	return w.Bytes()
}

// buildMinimalClassWithUnknownAttr is buildMinimalClass plus one
// class-level attribute under a name this decoder does not recognise, to
// exercise the strict/lenient AttrUnknown path.
func buildMinimalClassWithUnknownAttr() []byte {
	w := NewWriter()
	w.U4(Magic)
	w.U2(0)
	w.U2(52)

	w.U2(11)
	utf8(w, "Code")             // 1
	utf8(w, "<init>")           // 2
	utf8(w, "()V")              // 3
	classEntry(w, 5)            // 4
	utf8(w, "Test")             // 5
	classEntry(w, 7)            // 6
	utf8(w, "java/lang/Object") // 7
	methodRefEntry(w, 6, 9)     // 8
	nameAndTypeEntry(w, 2, 3)   // 9
	utf8(w, "Fnord")            // 10

	w.U2(0x0021)
	w.U2(4)
	w.U2(6)

	w.U2(0)
	w.U2(0)

	w.U2(1)
	w.U2(0x0001)
	w.U2(2)
	w.U2(3)
	w.U2(1)

	code := []byte{0x2a, 0xb7, 0x00, 0x08, 0xb1}
	w.U2(1)
	codeBody := NewWriter()
	codeBody.U2(1)
	codeBody.U2(1)
	codeBody.U4(uint32(len(code)))
	codeBody.Raw(code)
	codeBody.U2(0)
	codeBody.U2(0)
	body := codeBody.Bytes()
	w.U4(uint32(len(body)))
	w.Raw(body)

	w.U2(1)                       // class attributes_count
	w.U2(10)                      // attribute_name_index: Fnord
	payload := []byte{0x01, 0x02} // opaque payload this decoder cannot parse
	w.U4(uint32(len(payload)))
	w.Raw(payload)

	return w.Bytes()
}
