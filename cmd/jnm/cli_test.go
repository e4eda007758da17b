/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * CLI tests: run each subcommand against a minimal class file written
 * to a temp directory and check the captured output.
 */

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/daviddrysdale/jnm/classfile"
)

// writeTestClass writes a minimal class "Test" with one static method
// "add()I" (iconst_2; iconst_3; iadd; ireturn) and returns its path.
func writeTestClass(t *testing.T) string {
	t.Helper()

	pool := classfile.NewWriter()
	for _, s := range []string{"Code", "add", "()I"} { // 1..3
		pool.U1(byte(classfile.TagUtf8))
		pool.U2(uint16(len(s)))
		pool.Raw([]byte(s))
	}
	pool.U1(byte(classfile.TagClass)) // 4
	pool.U2(5)
	pool.U1(byte(classfile.TagUtf8)) // 5
	pool.U2(4)
	pool.Raw([]byte("Test"))
	pool.U1(byte(classfile.TagClass)) // 6
	pool.U2(7)
	pool.U1(byte(classfile.TagUtf8)) // 7
	pool.U2(16)
	pool.Raw([]byte("java/lang/Object"))

	code := []byte{0x05, 0x06, 0x60, 0xac}
	body := classfile.NewWriter()
	body.U2(2) // max_stack
	body.U2(0) // max_locals
	body.U4(uint32(len(code)))
	body.Raw(code)
	body.U2(0) // exception_table_length
	body.U2(0) // code attributes_count

	w := classfile.NewWriter()
	w.U4(classfile.Magic)
	w.U2(0)
	w.U2(52)
	w.U2(8) // constant_pool_count
	w.Raw(pool.Bytes())
	w.U2(classfile.AccPublic | classfile.AccSuper)
	w.U2(4) // this_class
	w.U2(6) // super_class
	w.U2(0) // interfaces
	w.U2(0) // fields
	w.U2(1) // methods_count
	w.U2(classfile.AccPublic | classfile.AccStatic)
	w.U2(2) // name_index
	w.U2(3) // descriptor_index
	w.U2(1) // attributes_count
	w.U2(1) // Code name index
	w.U4(uint32(len(body.Bytes())))
	w.Raw(body.Bytes())
	w.U2(0) // class attributes_count

	path := filepath.Join(t.TempDir(), "Test.class")
	if err := os.WriteFile(path, w.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runCommand executes the root command with args, returning its combined
// output.
func runCommand(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("jnm %s failed: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestDecodeCommandPrintsSummary(t *testing.T) {
	path := writeTestClass(t)

	msg := runCommand(t, "decode", path)
	if !strings.Contains(msg, "class:      Test") {
		t.Error("jnm decode did not print the class name. msg was: " + msg)
	}
	if !strings.Contains(msg, "add()I") {
		t.Error("jnm decode did not list the add()I method. msg was: " + msg)
	}
}

func TestRoundtripCommandReportsOK(t *testing.T) {
	path := writeTestClass(t)

	msg := runCommand(t, "roundtrip", path)
	if !strings.Contains(msg, ": ok") {
		t.Error("jnm roundtrip did not report byte-identical output. msg was: " + msg)
	}
}

func TestTranslateCommandPrintsMethods(t *testing.T) {
	path := writeTestClass(t)

	msg := runCommand(t, "translate", path)
	if !strings.Contains(msg, "add (static)") {
		t.Error("jnm translate did not print the translated method. msg was: " + msg)
	}
	if !strings.Contains(msg, "max stack:    2") {
		t.Error("jnm translate did not report the stack bound. msg was: " + msg)
	}
}

func TestDecodeCommandRejectsMissingFile(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"decode", filepath.Join(t.TempDir(), "absent.class")})
	if err := root.Execute(); err == nil {
		t.Error("jnm decode of a missing file should have failed")
	}
}
