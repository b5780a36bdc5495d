package chunk

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aeolyus/brcsections/internal/config"
)

var ErrUnknownMode = errors.New("unknown mapping mode")

// NewBackend returns the backend for a config mode.
func NewBackend(mode string, f *os.File) (Backend, error) {
	switch mode {
	case config.ModeMmap:
		return NewMmap(f), nil
	case config.ModePread:
		return NewPread(f), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// Pread emulates a mapping by reading the range into a fresh buffer.
type Pread struct {
	r io.ReaderAt
}

func NewPread(r io.ReaderAt) *Pread {
	return &Pread{r: r}
}

func (p *Pread) Map(off int64, size int) (Chunk, error) {
	buf := make([]byte, size)
	n, err := p.r.ReadAt(buf, off)
	if n < size {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Chunk{}, fmt.Errorf("read %d bytes at %d: %w", size, off, err)
	}
	return Chunk{Data: buf, Offset: off}, nil
}
