/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * Translation error taxonomy.
 */

package translate

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/daviddrysdale/jnm/trace"
)

// NotImplemented is returned when the translator meets a JVM instruction
// it does not (yet) know how to translate.
type NotImplemented struct {
	Mnemonic string
}

func (e *NotImplemented) Error() string {
	return fmt.Sprintf("translate: opcode %q is not implemented", e.Mnemonic)
}

// TranslationError wraps any error encountered while translating one
// method, attributing it to the owning class and method for diagnostics.
type TranslationError struct {
	ClassName  string
	MethodName string
	Underlying error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translate: %s.%s: %s", e.ClassName, e.MethodName, e.Underlying)
}

func (e *TranslationError) Unwrap() error { return e.Underlying }

func wrapTranslation(className, methodName string, err error) error {
	if err == nil {
		return nil
	}
	trace.Error(fmt.Sprintf("translation of %s.%s failed: %s", className, methodName, err))
	return &TranslationError{ClassName: className, MethodName: methodName, Underlying: errors.WithStack(err)}
}
