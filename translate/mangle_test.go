/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMangleMethodNameNoArgs(t *testing.T) {
	assert.Equal(t, "run", MangleMethodName("run", nil))
}

func TestMangleMethodNameConstructorsAndInitializers(t *testing.T) {
	assert.Equal(t, "__init__", MangleMethodName("<init>", nil))
	assert.Equal(t, "__clinit__", MangleMethodName("<clinit>", nil))
}

func TestMangleMethodNameDistinguishesOverloads(t *testing.T) {
	intArg := MangleMethodName("add", []string{"I"})
	stringArg := MangleMethodName("add", []string{"Ljava/lang/String;"})
	assert.NotEqual(t, intArg, stringArg)
}

func TestMangleMethodNameClassDescriptor(t *testing.T) {
	// Class names stay bare, matching equals___java__lang__Object in the
	// host-side skeleton library.
	got := MangleMethodName("set", []string{"Ljava/lang/Object;"})
	assert.Equal(t, "set___"+"java__lang__Object", got)
}

func TestMangleMethodNameArrayDescriptor(t *testing.T) {
	// Primitive bracketed first, then one _array_ per dimension, matching
	// getChars____I_____I_____C__array_____I_ in the skeleton library.
	got := MangleMethodName("fill", []string{"[C"})
	assert.Equal(t, "fill___"+"_C__array_", got)
}

func TestMangleMethodNameMultiDimensionalArray(t *testing.T) {
	got := MangleMethodName("fill2d", []string{"[[I"})
	assert.Equal(t, "fill2d___"+"_I__array__array_", got)
}

func TestMangleMethodNameMultipleParams(t *testing.T) {
	got := MangleMethodName("put", []string{"Ljava/lang/String;", "I"})
	assert.Equal(t, "put___"+"java__lang__String"+"___"+"_I_", got)
}
