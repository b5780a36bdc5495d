//go:build unix

package chunk

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Mmap maps chunks read-only straight from the page cache.
type Mmap struct {
	f *os.File
}

func NewMmap(f *os.File) *Mmap {
	return &Mmap{f: f}
}

func (m *Mmap) Map(off int64, size int) (Chunk, error) {
	if size == 0 {
		return Chunk{Offset: off}, nil
	}

	// mmap offsets must be page aligned
	page := int64(unix.Getpagesize())
	aligned := off &^ (page - 1)
	skip := int(off - aligned)

	data, err := unix.Mmap(int(m.f.Fd()), aligned, skip+size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return Chunk{}, fmt.Errorf("mmap %s at %d (%d bytes): %w", m.f.Name(), off, size, err)
	}

	return Chunk{
		Data:   data[skip : skip+size],
		Offset: off,
		release: func() error {
			if err := unix.Munmap(data); err != nil {
				return fmt.Errorf("munmap %s at %d: %w", m.f.Name(), off, err)
			}
			return nil
		},
	}, nil
}
