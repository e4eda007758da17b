/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * Per-instruction translation: each JVM instruction maps onto one or a
 * short sequence of Target-VM writer primitives, following the JVM
 * spec's operand encodings for branch offsets, switch tables, and
 * constant-pool indices.
 */

package translate

import (
	"fmt"

	"github.com/daviddrysdale/jnm/classfile"
	"github.com/daviddrysdale/jnm/target"
)

// translateOne reads op's operand (if fixed-size; tableswitch and
// lookupswitch read their own variable-length operand directly from r)
// and emits the corresponding Target-VM instruction(s).
func (tr *methodTranslator) translateOne(r *classfile.Reader, jvmPos int, op Opcode, info OpInfo) error {
	w := tr.w

	switch info.Mnemonic {

	// --- constants ---
	case "nop":
		return nil
	case "aconst_null":
		return w.LoadConst(nil)
	case "iconst_m1":
		return w.LoadConst(int32(-1))
	case "iconst_0", "iconst_1", "iconst_2", "iconst_3", "iconst_4", "iconst_5":
		return w.LoadConst(int32(op - 0x03))
	case "lconst_0", "lconst_1":
		return w.LoadConst(int64(op - 0x09))
	case "fconst_0", "fconst_1", "fconst_2":
		return w.LoadConst(float32(op - 0x0b))
	case "dconst_0", "dconst_1":
		return w.LoadConst(float64(op - 0x0e))
	case "bipush":
		v, err := r.U1()
		if err != nil {
			return err
		}
		return w.LoadConst(int32(int8(v)))
	case "sipush":
		v, err := r.S2()
		if err != nil {
			return err
		}
		return w.LoadConst(int32(v))
	case "ldc":
		idx, err := r.U1()
		if err != nil {
			return err
		}
		return tr.loadConstantPoolValue(int(idx))
	case "ldc_w", "ldc2_w":
		idx, err := r.U2()
		if err != nil {
			return err
		}
		return tr.loadConstantPoolValue(int(idx))

	// --- local loads ---
	case "iload", "lload", "fload", "dload", "aload":
		idx, err := r.U1()
		if err != nil {
			return err
		}
		return w.LoadFast(int(idx))
	case "iload_0", "iload_1", "iload_2", "iload_3":
		return w.LoadFast(int(op - 0x1a))
	case "lload_0", "lload_1", "lload_2", "lload_3":
		return w.LoadFast(int(op - 0x1e))
	case "fload_0", "fload_1", "fload_2", "fload_3":
		return w.LoadFast(int(op - 0x22))
	case "dload_0", "dload_1", "dload_2", "dload_3":
		return w.LoadFast(int(op - 0x26))
	case "aload_0", "aload_1", "aload_2", "aload_3":
		return w.LoadFast(int(op - 0x2a))

	// --- array loads (JVM stack: arrayref, index -> value) ---
	case "iaload", "laload", "faload", "daload", "aaload", "baload", "caload", "saload":
		w.BinarySubscr()
		return nil

	// --- local stores ---
	case "istore", "lstore", "fstore", "dstore", "astore":
		idx, err := r.U1()
		if err != nil {
			return err
		}
		return w.StoreFast(int(idx))
	case "istore_0", "istore_1", "istore_2", "istore_3":
		return w.StoreFast(int(op - 0x3b))
	case "lstore_0", "lstore_1", "lstore_2", "lstore_3":
		return w.StoreFast(int(op - 0x3f))
	case "fstore_0", "fstore_1", "fstore_2", "fstore_3":
		return w.StoreFast(int(op - 0x43))
	case "dstore_0", "dstore_1", "dstore_2", "dstore_3":
		return w.StoreFast(int(op - 0x47))
	case "astore_0", "astore_1", "astore_2", "astore_3":
		return w.StoreFast(int(op - 0x4b))

	// --- array stores (JVM stack: arrayref, index, value -> ) ---
	case "iastore", "lastore", "fastore", "dastore", "aastore", "bastore", "castore", "sastore":
		w.StoreSubscr()
		return nil

	// --- stack manipulation. The Target VM's stack values are uniformly
	// single-slot (unlike the JVM's category-2 long/double). pop2 emits
	// two pops; dup_x2 is emitted as dup_x1, and dup2_x1/dup2_x2 as
	// dup2. ---
	case "pop":
		w.PopTop()
		return nil
	case "pop2":
		w.PopTop()
		w.PopTop()
		return nil
	case "dup":
		w.DupTop()
		return nil
	case "dup_x1", "dup_x2":
		return w.DupTopX(1)
	case "dup2", "dup2_x1", "dup2_x2":
		return w.DupTopX(2)
	case "swap":
		w.RotTwo()
		return nil

	// --- arithmetic ---
	case "iadd", "ladd", "fadd", "dadd":
		w.BinaryAdd()
		return nil
	case "isub", "lsub", "fsub", "dsub":
		w.BinarySubtract()
		return nil
	case "imul", "lmul", "fmul", "dmul":
		w.BinaryMultiply()
		return nil
	case "idiv", "ldiv", "fdiv", "ddiv":
		w.BinaryDivide()
		return nil
	case "irem", "lrem", "frem", "drem":
		w.BinaryModulo()
		return nil
	case "ineg", "lneg", "fneg", "dneg":
		w.UnaryNegative()
		return nil
	case "ishl", "lshl":
		w.BinaryLshift()
		return nil
	case "ishr", "lshr":
		w.BinaryRshift()
		return nil
	case "iushr", "lushr":
		w.BinaryURshift()
		return nil
	case "iand", "land":
		w.BinaryAnd()
		return nil
	case "ior", "lor":
		w.BinaryOr()
		return nil
	case "ixor", "lxor":
		w.BinaryXor()
		return nil
	case "iinc":
		return tr.translateIinc(r)

	// --- conversions: the Target VM's values are dynamically typed, so
	// widening/narrowing numeric conversions are no-ops on the stack
	// shape; precision is a host-runtime concern. ---
	case "i2l", "i2f", "i2d", "l2i", "l2f", "l2d", "f2i", "f2l", "f2d",
		"d2i", "d2l", "d2f", "i2b", "i2c", "i2s":
		return nil

	// --- three-way comparisons: no single Target-VM opcode computes
	// sign(a-b) directly, so these call a host "cmp" builtin. ---
	case "lcmp", "fcmpl", "fcmpg", "dcmpl", "dcmpg":
		return tr.translateThreeWayCompare()

	// --- conditional/unconditional branches ---
	case "ifeq", "ifne", "iflt", "ifge", "ifgt", "ifle":
		return tr.translateUnaryIf(r, jvmPos, info.Mnemonic)
	case "if_icmpeq", "if_icmpne", "if_icmplt", "if_icmpge", "if_icmpgt", "if_icmple":
		return tr.translateBinaryIf(r, jvmPos, info.Mnemonic)
	case "if_acmpeq":
		return tr.translateBranch(r, jvmPos, target.CmpEq)
	case "if_acmpne":
		return tr.translateBranch(r, jvmPos, target.CmpNe)
	case "ifnull":
		if err := w.LoadConst(nil); err != nil {
			return err
		}
		return tr.translateBranch(r, jvmPos, target.CmpEq)
	case "ifnonnull":
		if err := w.LoadConst(nil); err != nil {
			return err
		}
		return tr.translateBranch(r, jvmPos, target.CmpNe)
	case "goto":
		off, err := r.S2()
		if err != nil {
			return err
		}
		return tr.jumpTo(jvmPos + int(off))
	case "goto_w":
		off, err := r.S4()
		if err != nil {
			return err
		}
		return tr.jumpTo(jvmPos + int(off))

	// --- jsr/ret ---
	case "jsr":
		off, err := r.S2()
		if err != nil {
			return err
		}
		return tr.translateJsr(r.Pos(), jvmPos+int(off))
	case "jsr_w":
		off, err := r.S4()
		if err != nil {
			return err
		}
		return tr.translateJsr(r.Pos(), jvmPos+int(off))
	case "ret":
		idx, err := r.U1()
		if err != nil {
			return err
		}
		return tr.translateRet(int(idx))

	case "tableswitch":
		return tr.translateTableSwitch(r, jvmPos)
	case "lookupswitch":
		return tr.translateLookupSwitch(r, jvmPos)

	// --- returns ---
	case "ireturn", "lreturn", "freturn", "dreturn", "areturn":
		w.ReturnValue()
		return nil
	case "return":
		if err := w.LoadConst(nil); err != nil {
			return err
		}
		w.ReturnValue()
		return nil

	// --- field access ---
	case "getstatic":
		return tr.translateGetStatic(r)
	case "putstatic":
		return tr.translatePutStatic(r)
	case "getfield":
		return tr.translateGetField(r)
	case "putfield":
		return tr.translatePutField(r)

	// --- invocation ---
	case "invokevirtual", "invokespecial", "invokeinterface":
		return tr.translateInvoke(r, info.Mnemonic == "invokeinterface")
	case "invokestatic":
		return tr.translateInvokeStatic(r)

	// --- object/array creation and type tests ---
	case "new":
		return tr.translateNew(r)
	case "newarray":
		return tr.translateNewarray(r)
	case "anewarray":
		return tr.translateAnewarray(r)
	case "multianewarray":
		return tr.translateMultianewarray(r)
	case "arraylength":
		if err := w.LoadGlobal("len"); err != nil {
			return err
		}
		w.RotTwo()
		return w.CallFunction(1)
	case "checkcast":
		idx, err := r.U2()
		if err != nil {
			return err
		}
		name, err := tr.cp.ClassName(int(idx))
		if err != nil {
			return err
		}
		return tr.translateCheckcast(name, jvmPos)
	case "instanceof":
		idx, err := r.U2()
		if err != nil {
			return err
		}
		name, err := tr.cp.ClassName(int(idx))
		if err != nil {
			return err
		}
		w.UseExternalName(name)
		if err := w.LoadGlobal(name); err != nil {
			return err
		}
		return w.CompareOp(target.CmpExceptionMatch)

	case "athrow":
		// A throw reached inside a finally body is the compiled re-raise
		// of the suspended exception, which the Target VM expresses as
		// end_finally rather than a fresh raise.
		if tr.inFinally {
			w.EndFinally()
			return nil
		}
		return tr.translateThrow()

	case "monitorenter", "monitorexit":
		w.PopTop()
		return nil

	case "wide":
		return &NotImplemented{Mnemonic: "wide"}

	default:
		return &NotImplemented{Mnemonic: info.Mnemonic}
	}
}

func (tr *methodTranslator) loadConstantPoolValue(idx int) error {
	v, err := tr.cp.LoadableConstant(idx)
	if err != nil {
		return err
	}
	if name, ok := v.(string); ok && tr.cp.Tag(idx) == classfile.TagClass {
		tr.w.UseExternalName(name)
	}
	return tr.w.LoadConst(v)
}

func (tr *methodTranslator) translateIinc(r *classfile.Reader) error {
	idx, err := r.U1()
	if err != nil {
		return err
	}
	delta, err := r.U1()
	if err != nil {
		return err
	}
	w := tr.w
	if err := w.LoadFast(int(idx)); err != nil {
		return err
	}
	if err := w.LoadConst(int32(int8(delta))); err != nil {
		return err
	}
	w.BinaryAdd()
	return w.StoreFast(int(idx))
}

// translateThreeWayCompare emits a call to the host's sign-of-difference
// builtin cmp(a, b). The JVM stack holds [a, b] (b on top); rot_three
// lifts the freshly loaded callable below both operands so
// CallFunction(2) can invoke it as cmp(a, b).
func (tr *methodTranslator) translateThreeWayCompare() error {
	w := tr.w
	if err := w.LoadGlobal("cmp"); err != nil {
		return err
	}
	w.RotThree()
	return w.CallFunction(2)
}

func (tr *methodTranslator) jumpTo(targetPC int) error {
	return tr.w.JumpToLabel(target.JumpAlways, label(targetPC))
}

func (tr *methodTranslator) translateUnaryIf(r *classfile.Reader, jvmPos int, mnemonic string) error {
	if err := tr.w.LoadConst(int32(0)); err != nil {
		return err
	}
	return tr.translateBranch(r, jvmPos, unaryCompareOp(mnemonic))
}

func (tr *methodTranslator) translateBinaryIf(r *classfile.Reader, jvmPos int, mnemonic string) error {
	return tr.translateBranch(r, jvmPos, binaryCompareOp(mnemonic))
}

// translateBranch reads the branch's 2-byte signed offset, emits the
// comparison against whatever is already on the stack, and jumps to the
// resolved label on a true result.
func (tr *methodTranslator) translateBranch(r *classfile.Reader, jvmPos int, cmp target.CompareOp) error {
	off, err := r.S2()
	if err != nil {
		return err
	}
	if err := tr.w.CompareOp(cmp); err != nil {
		return err
	}
	return tr.w.JumpToLabel(target.JumpIfTrue, label(jvmPos+int(off)))
}

func unaryCompareOp(mnemonic string) target.CompareOp {
	switch mnemonic {
	case "ifeq":
		return target.CmpEq
	case "ifne":
		return target.CmpNe
	case "iflt":
		return target.CmpLt
	case "ifge":
		return target.CmpGe
	case "ifgt":
		return target.CmpGt
	case "ifle":
		return target.CmpLe
	}
	return target.CmpEq
}

func binaryCompareOp(mnemonic string) target.CompareOp {
	switch mnemonic {
	case "if_icmpeq":
		return target.CmpEq
	case "if_icmpne":
		return target.CmpNe
	case "if_icmplt":
		return target.CmpLt
	case "if_icmpge":
		return target.CmpGe
	case "if_icmpgt":
		return target.CmpGt
	case "if_icmple":
		return target.CmpLe
	}
	return target.CmpEq
}

// translateJsr emits a jsr call site: push a marker identifying this
// call site (the JVM position the subroutine should return to), then
// jump to the subroutine's entry. The subroutine's own leading astore
// (already present in its bytecode, translated like any other astore)
// consumes the marker into a local variable; a later ret instruction
// dispatches back here via translateRet's comparison chain.
func (tr *methodTranslator) translateJsr(retJVMPos, targetPC int) error {
	tr.retIDs = append(tr.retIDs, retJVMPos)
	if err := tr.w.LoadConst(int32(retJVMPos)); err != nil {
		return err
	}
	return tr.w.JumpToLabel(target.JumpAlways, label(targetPC))
}

// translateRet dispatches a ret instruction to whichever jsr call site
// actually reached this subroutine, by comparing the value jsr stored in
// slot against every marker recorded so far. Real JVM bytecode pairs
// each ret with a statically-determinable set of call sites; this
// over-approximates by checking against every jsr seen up to this point
// in the method, which is simpler and behaviourally correct (the wrong
// markers simply never match at runtime) at the cost of a few unused
// comparisons.
func (tr *methodTranslator) translateRet(slot int) error {
	// ret ends a compiled finally body (the jsr subroutine returns), so
	// the walk is back in ordinary code.
	tr.inFinally = false
	w := tr.w
	// Label names embed the chain's own position so two ret instructions
	// over the same slot never share a label.
	site := w.Position()
	matchLabels := make([]string, len(tr.retIDs))
	for i, id := range tr.retIDs {
		matchLabels[i] = fmt.Sprintf("retmatch_%d_%d_%d", site, slot, id)
		if err := w.LoadFast(slot); err != nil {
			return err
		}
		if err := w.LoadConst(int32(id)); err != nil {
			return err
		}
		if err := w.CompareOp(target.CmpEq); err != nil {
			return err
		}
		if err := w.JumpToLabel(target.JumpIfTrue, matchLabels[i]); err != nil {
			return err
		}
	}
	// No recorded call site matched; well-formed input never reaches this.
	if err := w.RaiseVarargs(0); err != nil {
		return err
	}
	for i, id := range tr.retIDs {
		if err := w.StartLabel(matchLabels[i]); err != nil {
			return err
		}
		if err := tr.jumpTo(id); err != nil {
			return err
		}
	}
	return nil
}
