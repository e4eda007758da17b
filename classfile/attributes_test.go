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

func TestParseRejectsUnknownAttributeWhenStrict(t *testing.T) {
	raw := buildMinimalClassWithUnknownAttr()
	_, err := Parse(raw, config.Default())
	var unknown *UnknownAttribute
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Fnord", unknown.Name)
}

func TestParseKeepsUnknownAttributeWhenLenient(t *testing.T) {
	raw := buildMinimalClassWithUnknownAttr()
	cfg := config.Default()
	cfg.StrictAttributes = false

	cf, err := Parse(raw, cfg)
	require.NoError(t, err)
	require.Len(t, cf.Attributes, 1)

	a := cf.Attributes[0]
	assert.Equal(t, AttrUnknown, a.Kind)
	assert.Equal(t, "Fnord", a.Name())
	assert.Equal(t, []byte{0x01, 0x02}, a.UnknownPayload)

	// Round trip: re-serializing must reproduce the exact input bytes,
	// including the preserved unknown payload.
	assert.Equal(t, raw, cf.Serialize())
}
