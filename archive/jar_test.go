/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * JAR enumeration tests, including the end-to-end check that every
 * .class member of an archive survives a decode/encode round trip
 * byte-for-byte.
 */

package archive

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddrysdale/jnm/classfile"
	"github.com/daviddrysdale/jnm/config"
)

// minimalClass returns the raw bytes of a class named className with one
// public default constructor, enough for Parse to accept.
func minimalClass(className string) []byte {
	w := classfile.NewWriter()
	w.U4(classfile.Magic)
	w.U2(0)
	w.U2(52)

	w.U2(10)
	for _, s := range []string{"Code", "<init>", "()V"} { // 1..3
		w.U1(byte(classfile.TagUtf8))
		w.U2(uint16(len(s)))
		w.Raw([]byte(s))
	}
	w.U1(byte(classfile.TagClass)) // 4
	w.U2(5)
	w.U1(byte(classfile.TagUtf8)) // 5
	w.U2(uint16(len(className)))
	w.Raw([]byte(className))
	w.U1(byte(classfile.TagClass)) // 6
	w.U2(7)
	w.U1(byte(classfile.TagUtf8)) // 7
	w.U2(16)
	w.Raw([]byte("java/lang/Object"))
	w.U1(byte(classfile.TagMethodRef)) // 8
	w.U2(6)
	w.U2(9)
	w.U1(byte(classfile.TagNameAndType)) // 9
	w.U2(2)
	w.U2(3)

	w.U2(classfile.AccPublic | classfile.AccSuper)
	w.U2(4)
	w.U2(6)
	w.U2(0)
	w.U2(0)

	w.U2(1)
	w.U2(classfile.AccPublic)
	w.U2(2)
	w.U2(3)
	w.U2(1)

	code := []byte{0x2a, 0xb7, 0x00, 0x08, 0xb1}
	body := classfile.NewWriter()
	body.U2(1)
	body.U2(1)
	body.U4(uint32(len(code)))
	body.Raw(code)
	body.U2(0)
	body.U2(0)
	w.U2(1)
	w.U4(uint32(len(body.Bytes())))
	w.Raw(body.Bytes())

	w.U2(0)
	return w.Bytes()
}

// writeTestJar writes a jar containing the given members plus one
// non-class member and one directory entry, returning its path.
func writeTestJar(t *testing.T, members map[string][]byte) string {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range members {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	meta, err := zw.Create("META-INF/MANIFEST.MF")
	require.NoError(t, err)
	_, err = meta.Write([]byte("Manifest-Version: 1.0\n"))
	require.NoError(t, err)
	_, err = zw.Create("com/example/")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "test.jar")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestClassesEnumeratesOnlyClassMembers(t *testing.T) {
	members := map[string][]byte{
		"com/example/A.class": minimalClass("com/example/A"),
		"com/example/B.class": minimalClass("com/example/B"),
	}
	path := writeTestJar(t, members)

	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Classes()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, members[e.Name], e.Data)
	}
}

// TestJarEntriesRoundTrip decodes and re-encodes every class member and
// requires byte-identical output.
func TestJarEntriesRoundTrip(t *testing.T) {
	members := map[string][]byte{
		"com/example/A.class": minimalClass("com/example/A"),
		"com/example/B.class": minimalClass("com/example/B"),
	}
	path := writeTestJar(t, members)

	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Classes()
	require.NoError(t, err)
	for _, e := range entries {
		cf, err := classfile.Parse(e.Data, config.Default())
		require.NoError(t, err, e.Name)
		assert.Equal(t, e.Data, cf.Serialize(), e.Name)
	}
}

func TestOpenRejectsNonZipInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.jar")
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}
