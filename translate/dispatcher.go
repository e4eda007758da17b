/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * Dispatcher emitter. The translator's own call sites
 * always resolve directly to a mangled overload (the constant-pool
 * method descriptor at each invoke instruction already pins the exact
 * overload javac chose), so they never need this. It exists for
 * external or reflective callers that only know a method's plain,
 * unmangled Java name and a tuple of actual arguments.
 */

package translate

import (
	"fmt"

	"github.com/daviddrysdale/jnm/classfile"
	"github.com/daviddrysdale/jnm/excnames"
	"github.com/daviddrysdale/jnm/target"
)

// emitDispatchers groups translated methods by their original Java name
// and builds one trampoline Method per name. Constructors and the static
// initializer are never invoked by plain name at the host-runtime level
// and are skipped.
func emitDispatchers(methods []*Method) ([]*Method, error) {
	var order []string
	byName := map[string][]*Method{}
	for _, m := range methods {
		if m.JavaName == "<init>" || m.JavaName == "<clinit>" {
			continue
		}
		if _, ok := byName[m.JavaName]; !ok {
			order = append(order, m.JavaName)
		}
		byName[m.JavaName] = append(byName[m.JavaName], m)
	}

	var dispatchers []*Method
	for _, name := range order {
		d, err := buildDispatcher(name, byName[name])
		if err != nil {
			return nil, err
		}
		dispatchers = append(dispatchers, d)
	}
	return dispatchers, nil
}

// buildDispatcher emits the trampoline for one Java-visible name. A
// single-overload name gets a thin forwarding alias; multiple overloads
// get an isinstance chain tried in declaration order.
//
// The trampoline's own calling convention differs from an ordinary
// translated method: since its accepted arity varies by which overload
// ends up matching, it does not get its parameters unpacked into
// individual local slots the way a fixed-descriptor method does.
// Instead it takes the incoming argument tuple whole, in local slot 0
// (or slot 1 for an instance method, with slot 0 holding the receiver),
// exactly the shape call_function_var already hands a callee.
func buildDispatcher(name string, candidates []*Method) (*Method, error) {
	isStatic := candidates[0].IsStatic
	selfSlot, argsSlot := 0, 0
	if !isStatic {
		argsSlot = 1
	}

	w := target.New()
	multi := len(candidates) > 1

	for i, c := range candidates {
		nextLabel := fmt.Sprintf("dispatch_next_%s_%d", name, i)

		if multi {
			if err := emitArityCheck(w, argsSlot, len(c.Params), nextLabel); err != nil {
				return nil, err
			}
			if err := emitParamTypeChecks(w, argsSlot, c.Params, nextLabel); err != nil {
				return nil, err
			}
		}

		if err := emitForwardCall(w, c, isStatic, selfSlot, argsSlot); err != nil {
			return nil, err
		}
		w.ReturnValue()

		if multi {
			if err := w.StartLabel(nextLabel); err != nil {
				return nil, err
			}
		}
	}

	if multi {
		if err := w.LoadGlobal(excnames.RuntimeException); err != nil {
			return nil, err
		}
		if err := w.CallFunction(0); err != nil {
			return nil, err
		}
		if err := w.RaiseVarargs(1); err != nil {
			return nil, err
		}
	}

	return &Method{
		Name:          name,
		Code:          w.Bytes(),
		Constants:     w.Constants(),
		Names:         w.Names(),
		MaxStackDepth: w.MaxStackDepth(),
		MaxLocals:     w.MaxLocals(),
		ExternalNames: w.ExternalNames,
		IsStatic:      isStatic,
		JavaName:      name,
	}, nil
}

// emitArityCheck jumps to nextLabel unless the incoming argument tuple's
// length matches want. The last candidate is checked too: its nextLabel
// leads to the RuntimeException raised when no overload matches.
func emitArityCheck(w *target.Writer, argsSlot, want int, nextLabel string) error {
	if err := w.LoadFast(argsSlot); err != nil {
		return err
	}
	if err := w.LoadGlobal("len"); err != nil {
		return err
	}
	w.RotTwo()
	if err := w.CallFunction(1); err != nil {
		return err
	}
	if err := w.LoadConst(int32(want)); err != nil {
		return err
	}
	if err := w.CompareOp(target.CmpEq); err != nil {
		return err
	}
	return w.JumpToLabel(target.JumpIfFalse, nextLabel)
}

// emitParamTypeChecks jumps to nextLabel unless every reference-typed
// parameter in params has a matching argument, by the same isinstance
// comparator checkcast/instanceof use. Primitive parameters are not
// type-checked here: once arity matches, a primitive slot cannot hold
// the wrong reference type, so there is nothing to distinguish.
func emitParamTypeChecks(w *target.Writer, argsSlot int, params []*classfile.Descriptor, nextLabel string) error {
	for i, p := range params {
		if p.Kind != classfile.KindClass {
			continue
		}
		if err := w.LoadFast(argsSlot); err != nil {
			return err
		}
		if err := w.LoadConst(int32(i)); err != nil {
			return err
		}
		w.BinarySubscr()
		if err := w.LoadGlobal(p.ClassName); err != nil {
			return err
		}
		w.UseExternalName(p.ClassName)
		if err := w.CompareOp(target.CmpExceptionMatch); err != nil {
			return err
		}
		if err := w.JumpToLabel(target.JumpIfFalse, nextLabel); err != nil {
			return err
		}
	}
	return nil
}

// emitForwardCall resolves the matched candidate and calls it with the
// incoming argument tuple forwarded verbatim, leaving its return value
// as the only stack entry.
func emitForwardCall(w *target.Writer, c *Method, isStatic bool, selfSlot, argsSlot int) error {
	if isStatic {
		if err := w.LoadGlobal(c.Name); err != nil {
			return err
		}
	} else {
		if err := w.LoadFast(selfSlot); err != nil {
			return err
		}
		if err := w.LoadAttr(c.Name); err != nil {
			return err
		}
	}
	if err := w.LoadFast(argsSlot); err != nil {
		return err
	}
	w.RotTwo()
	return w.CallFunctionVar(0)
}
