//go:build !unix

package chunk

import (
	"fmt"
	"os"
)

// Mmap is unavailable off unix; Map always fails so callers fall back to
// the pread mode.
type Mmap struct {
	f *os.File
}

func NewMmap(f *os.File) *Mmap {
	return &Mmap{f: f}
}

func (m *Mmap) Map(off int64, size int) (Chunk, error) {
	return Chunk{}, fmt.Errorf("mmap %s: unsupported on this platform, use -mode pread", m.f.Name())
}
