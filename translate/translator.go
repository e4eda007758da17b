/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * Per-method bytecode translator: walks a Code attribute's raw bytes
 * and emits Target-VM instructions through a target.Writer. A few
 * operational details the JVM spec leaves to a host runtime are settled
 * here; each such decision is called out at its point of use and
 * recorded in DESIGN.md.
 */

package translate

import (
	"fmt"

	"github.com/daviddrysdale/jnm/classfile"
	"github.com/daviddrysdale/jnm/target"
	"github.com/daviddrysdale/jnm/trace"
)

// Method is one translated method: its mangled target-side name plus the
// writer state needed to serialize it into the emitted class.
type Method struct {
	Name          string
	Code          []byte
	Constants     []interface{}
	Names         []string
	MaxStackDepth int
	MaxLocals     int
	ExternalNames []string
	IsStatic      bool

	// JavaName and Params are the original (unmangled) Java method name
	// and parsed parameter descriptors, kept alongside the translated
	// body so TranslateClass can group overloads for the dispatcher
	// emitter without re-parsing every descriptor.
	JavaName string
	Params   []*classfile.Descriptor
}

// Translator translates every concrete method of one class file.
type Translator struct {
	cf *classfile.ClassFile
}

// New returns a Translator for cf.
func New(cf *classfile.ClassFile) *Translator {
	return &Translator{cf: cf}
}

// TranslateClass translates every method with a Code attribute, skipping
// abstract and native methods (they have no body to translate), then
// appends one dispatcher trampoline per Java-visible method name so
// external callers that only know the plain name can resolve the right
// overload at runtime.
func (t *Translator) TranslateClass() ([]*Method, error) {
	var methods []*Method
	for _, m := range t.cf.Methods {
		if m.CodeAttr() == nil {
			continue
		}
		tm, err := t.TranslateMethod(m)
		if err != nil {
			return nil, err
		}
		methods = append(methods, tm)
	}

	dispatchers, err := emitDispatchers(methods)
	if err != nil {
		return nil, err
	}
	return append(methods, dispatchers...), nil
}

// TranslateMethod translates one method. It returns nil, nil for
// abstract/native methods, which carry no Code attribute.
func (t *Translator) TranslateMethod(m *classfile.MethodInfo) (*Method, error) {
	code := m.CodeAttr()
	if code == nil {
		return nil, nil
	}

	className, err := t.cf.Name()
	if err != nil {
		return nil, err
	}
	methodName, err := t.cf.MethodName(m)
	if err != nil {
		return nil, wrapTranslation(className, "?", err)
	}
	desc, err := t.cf.MethodDescriptor(m)
	if err != nil {
		return nil, wrapTranslation(className, methodName, err)
	}

	paramDescs := make([]string, len(desc.Params))
	for i, p := range desc.Params {
		paramDescs[i] = p.String()
	}
	mangled := MangleMethodName(methodName, paramDescs)

	w := target.New()
	tr := &methodTranslator{
		t:         t,
		w:         w,
		className: className,
		method:    methodName,
		cp:        t.cf.Constants,
		code:      code,
		tempSlot:  int(code.MaxLocals),
	}
	if err := tr.run(); err != nil {
		return nil, wrapTranslation(className, methodName, err)
	}
	trace.Trace("translated method " + className + "." + mangled)

	return &Method{
		Name:          mangled,
		Code:          w.Bytes(),
		Constants:     w.Constants(),
		Names:         w.Names(),
		MaxStackDepth: w.MaxStackDepth(),
		MaxLocals:     w.MaxLocals(),
		ExternalNames: w.ExternalNames,
		IsStatic:      classfile.HasFlag(m.AccessFlags, classfile.AccStatic),
		JavaName:      methodName,
		Params:        desc.Params,
	}, nil
}

// pendingHandler is a handler-entry rewrite not yet resolved: the Writer
// gave us a *int to fill with its final Target-VM position once the JVM
// walk reaches the handler's declared handler_pc.
type pendingHandler struct {
	target *int
	catch  Catch
}

// methodTranslator holds the per-method state threaded through the
// instruction walk.
type methodTranslator struct {
	t         *Translator
	w         *target.Writer
	className string
	method    string
	cp        *classfile.ConstantPool
	code      *classfile.CodeAttr

	// tempSlot is a local-variable index guaranteed unused by the
	// original method (one past its declared locals), reserved for
	// switch-statement temporaries.
	tempSlot int

	// retIDs collects a synthetic marker for every jsr call site seen so
	// far, so a later ret instruction can dispatch to the right one. See
	// translateRet for the matching algorithm and its documented
	// over-approximation.
	retIDs []int

	// inFinally is set while the walk is inside the handler of a
	// catch-all (catch_type == 0) row and cleared by ret, the
	// subroutine-return that ends a compiled finally body. It changes
	// what athrow emits: re-raising inside a finally is end_finally, not
	// a fresh raise.
	inFinally bool
}

func label(pc int) string { return fmt.Sprintf("L%d", pc) }

func (tr *methodTranslator) run() error {
	regions, err := BuildRegions(tr.code.ExceptionTable, tr.cp)
	if err != nil {
		return err
	}

	opens := map[int][]*Region{}
	closes := map[int][]*Region{}
	for _, r := range regions {
		opens[int(r.StartPC)] = append(opens[int(r.StartPC)], r)
		closes[int(r.EndPC)] = append(closes[int(r.EndPC)], r)
	}

	pendingByHandler := map[int][]pendingHandler{}

	r := classfile.NewReader(tr.code.Code)
	for r.Remaining() > 0 {
		jvmPos := r.Pos()

		if hs, ok := pendingByHandler[jvmPos]; ok {
			for _, h := range hs {
				*h.target = tr.w.Position()
				if h.catch.IsFinally() {
					tr.inFinally = true
				} else if err := tr.emitCatchPrologue(h.catch); err != nil {
					return err
				}
			}
			delete(pendingByHandler, jvmPos)
		}

		for _, reg := range closes[jvmPos] {
			for range reg.Catches {
				tr.w.PopBlock()
				tr.w.EndException()
			}
		}

		for _, reg := range opens[jvmPos] {
			for _, c := range reg.Catches {
				var tgt *int
				if c.IsFinally() {
					tgt = tr.w.SetupFinally()
				} else {
					tgt = tr.w.SetupExcept()
				}
				pendingByHandler[int(c.HandlerPC)] = append(pendingByHandler[int(c.HandlerPC)], pendingHandler{target: tgt, catch: c})
			}
		}

		if err := tr.startLabelIfTarget(jvmPos); err != nil {
			return err
		}

		opcodeByte, err := r.U1()
		if err != nil {
			return err
		}
		op := Opcode(opcodeByte)
		info, known := Opcodes[op]
		if !known {
			return &NotImplemented{Mnemonic: fmt.Sprintf("0x%02x", opcodeByte)}
		}

		if err := tr.translateOne(r, jvmPos, op, info); err != nil {
			return err
		}
	}

	return tr.w.EndExceptions()
}

// startLabelIfTarget resolves the label for jvmPos unconditionally. This
// is a harmless no-op for positions nothing ever branches to, and it
// also records jvmPos's Target-VM address in the writer's label table so
// any branch seen later (forward or backward) can resolve against it
// without a separate prescan of the method body.
func (tr *methodTranslator) startLabelIfTarget(jvmPos int) error {
	return tr.w.StartLabel(label(jvmPos))
}

// emitCatchPrologue emits the two-step type check a typed catch handler
// begins with. At handler entry the stack is [raised_exception,
// exception]. First the raised value is tested against the generic host
// Exception wrapper every translated throw constructs; anything else is
// not ours and re-raises via EndFinally. Then the thrown object is
// unwrapped from the wrapper's args[0] and isinstance-checked against
// the declared catch class, re-raising again on a mismatch. On a match,
// execution falls into the handler body with the unwrapped exception
// object on top of the stack for its leading astore to consume.
func (tr *methodTranslator) emitCatchPrologue(c Catch) error {
	w := tr.w
	w.UseExternalName(c.ClassName)

	w.DupTop()
	if err := w.LoadGlobal("Exception"); err != nil {
		return err
	}
	if err := w.CompareOp(target.CmpExceptionMatch); err != nil {
		return err
	}
	wrapped := fmt.Sprintf("catchwrapped_%d", c.HandlerPC)
	if err := w.JumpToLabel(target.JumpIfTrue, wrapped); err != nil {
		return err
	}
	w.EndFinally()
	if err := w.StartLabel(wrapped); err != nil {
		return err
	}

	if err := w.LoadAttr("args"); err != nil {
		return err
	}
	if err := w.LoadConst(int32(0)); err != nil {
		return err
	}
	w.BinarySubscr()

	w.DupTop()
	if err := w.LoadGlobal(c.ClassName); err != nil {
		return err
	}
	if err := w.CompareOp(target.CmpExceptionMatch); err != nil {
		return err
	}
	matched := fmt.Sprintf("catchmatch_%d", c.HandlerPC)
	if err := w.JumpToLabel(target.JumpIfTrue, matched); err != nil {
		return err
	}
	w.EndFinally()
	return w.StartLabel(matched)
}
