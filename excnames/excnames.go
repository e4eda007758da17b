/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package excnames holds the well-known Java exception class names used by
// the translator when it emits handler prologues and synthetic throws.
package excnames

const (
	Exception                      = "java/lang/Exception"
	RuntimeException               = "java/lang/RuntimeException"
	ClassCastException             = "java/lang/ClassCastException"
	ClassNotFoundException         = "java/lang/ClassNotFoundException"
	NullPointerException           = "java/lang/NullPointerException"
	ArrayIndexOutOfBoundsException = "java/lang/ArrayIndexOutOfBoundsException"
	NegativeArraySizeException     = "java/lang/NegativeArraySizeException"
	ArithmeticException            = "java/lang/ArithmeticException"
)
