/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddrysdale/jnm/config"
)

func TestFieldDescriptorRoundTrip(t *testing.T) {
	for _, d := range []string{
		"I", "J", "Z", "[I", "[[I",
		"Ljava/lang/String;", "[Ljava/lang/String;",
	} {
		desc, err := ParseFieldDescriptor(d)
		require.NoError(t, err, d)
		assert.Equal(t, d, desc.String(), d)
	}
}

func TestMethodDescriptorRoundTrip(t *testing.T) {
	for _, d := range []string{
		"()V", "(I)I", "(Ljava/lang/String;I)Z", "([I)V", "()Ljava/lang/Object;",
	} {
		desc, err := ParseMethodDescriptor(d)
		require.NoError(t, err, d)
		assert.Equal(t, d, desc.String(), d)
	}
}

func TestBadFieldDescriptorFails(t *testing.T) {
	_, err := ParseFieldDescriptor("Q")
	var bad *BadDescriptor
	assert.ErrorAs(t, err, &bad)
}

func TestBadMethodDescriptorFails(t *testing.T) {
	_, err := ParseMethodDescriptor("(I")
	var bad *BadDescriptor
	assert.ErrorAs(t, err, &bad)
}

func TestDescriptorSize(t *testing.T) {
	cfg := config.Default()

	intDesc, err := ParseFieldDescriptor("I")
	require.NoError(t, err)
	assert.Equal(t, 4, intDesc.Size(cfg))

	longDesc, err := ParseFieldDescriptor("J")
	require.NoError(t, err)
	assert.Equal(t, 8, longDesc.Size(cfg))

	boolDesc, err := ParseFieldDescriptor("Z")
	require.NoError(t, err)
	assert.Equal(t, 1, boolDesc.Size(cfg))

	classDesc, err := ParseFieldDescriptor("Ljava/lang/Object;")
	require.NoError(t, err)
	assert.Equal(t, 8, classDesc.Size(cfg))

	arrayDesc, err := ParseFieldDescriptor("[I")
	require.NoError(t, err)
	assert.Equal(t, 8, arrayDesc.Size(cfg))
}
