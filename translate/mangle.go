/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * Target-VM name mangling: overloaded Java methods all
 * share one unqualified name on the target side, so the translator
 * encodes each overload's parameter descriptor list into the emitted
 * name to keep them distinct.
 */

package translate

import "strings"

// MangleMethodName builds the unique target-side name for a Java method
// overload: name, then "___", then each parameter descriptor (mangled via
// mangleDescriptor) joined by "___".
func MangleMethodName(name string, paramDescs []string) string {
	switch name {
	case "<init>":
		name = "__init__"
	case "<clinit>":
		name = "__clinit__"
	}
	if len(paramDescs) == 0 {
		return name
	}
	parts := make([]string, len(paramDescs))
	for i, d := range paramDescs {
		parts[i] = mangleDescriptor(d)
	}
	return name + "___" + strings.Join(parts, "___")
}

// mangleDescriptor rewrites one field-descriptor string into an
// identifier-safe fragment: a class name is stripped of its "L...;"
// frame with '/' becoming "__", a primitive code is bracketed with
// underscores, and "_array_" is appended once per array dimension.
func mangleDescriptor(d string) string {
	arrayDepth := 0
	i := 0
	for i < len(d) && d[i] == '[' {
		arrayDepth++
		i++
	}
	rest := d[i:]

	var b strings.Builder
	if strings.HasPrefix(rest, "L") && strings.HasSuffix(rest, ";") {
		b.WriteString(strings.ReplaceAll(rest[1:len(rest)-1], "/", "__"))
	} else {
		b.WriteByte('_')
		b.WriteString(rest)
		b.WriteByte('_')
	}
	for j := 0; j < arrayDepth; j++ {
		b.WriteString("_array_")
	}
	return b.String()
}
