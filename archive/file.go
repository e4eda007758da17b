/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * Thin os.File wrapper so Jar doesn't depend on *os.File directly.
 */

package archive

import "os"

type fileHandle struct {
	f *os.File
}

func openFile(path string) (*fileHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &fileHandle{f: f}, nil
}

func (h *fileHandle) File() *os.File { return h.f }

func (h *fileHandle) Close() error { return h.f.Close() }
