// Package chunk maps a section of a file as a sequence of line-aligned
// chunks, none larger than a configured mapping limit.
package chunk

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aeolyus/brcsections/internal/partition"
)

// Chunk is a read-only view of [Offset, Offset+len(Data)) of the file.
type Chunk struct {
	Data    []byte
	Offset  int64
	release func() error
}

// Release unmaps the chunk. Data must not be used afterwards. Calling it
// more than once is a no-op.
func (c *Chunk) Release() error {
	if c.release == nil {
		return nil
	}
	err := c.release()
	c.release = nil
	c.Data = nil
	return err
}

// Backend produces a view of size bytes starting at off.
type Backend interface {
	Map(off int64, size int) (Chunk, error)
}

// Mapper splits sections into chunks. The ReaderAt is used only for the
// short backward probes that place chunk ends on line boundaries.
type Mapper struct {
	r       io.ReaderAt
	backend Backend
	maxSize int64
	window  int
}

func NewMapper(r io.ReaderAt, backend Backend, maxSize int64, window int) *Mapper {
	return &Mapper{
		r:       r,
		backend: backend,
		maxSize: max(maxSize, 1),
		window:  max(window, 1),
	}
}

// Chunks returns a one-shot iterator over the chunks of s.
func (m *Mapper) Chunks(s partition.Section) *Iterator {
	return &Iterator{m: m, pos: s.Start, end: s.End}
}

// Iterator yields the chunks of one section in file order.
type Iterator struct {
	m   *Mapper
	pos int64
	end int64
	buf []byte
}

// Next maps the next chunk. It returns false once the section is consumed.
// The caller owns the chunk and must Release it before calling Next again.
func (it *Iterator) Next() (Chunk, bool, error) {
	if it.pos >= it.end {
		return Chunk{}, false, nil
	}

	size, err := it.nextSize()
	if err != nil {
		return Chunk{}, false, err
	}

	c, err := it.m.backend.Map(it.pos, int(size))
	if err != nil {
		return Chunk{}, false, err
	}
	it.pos += size
	return c, true, nil
}

// nextSize picks the length of the chunk starting at it.pos. When the rest
// of the section does not fit in one mapping the chunk is shrunk to end
// after the last '\n' it contains. The search starts with the trailing
// window and doubles it until a terminator turns up.
func (it *Iterator) nextSize() (int64, error) {
	remaining := it.end - it.pos
	size := min(remaining, it.m.maxSize)
	if size == remaining {
		return size, nil
	}

	window := int64(it.m.window)
	hi := it.pos + size
	for {
		lo := max(it.pos, hi-window)
		i, err := it.lastNewline(lo, hi)
		if err != nil {
			return 0, err
		}
		if i >= 0 {
			return i + 1 - it.pos, nil
		}
		if lo == it.pos {
			break
		}
		hi = lo
		window *= 2
	}

	slog.Warn("no line boundary within mapping limit, splitting mid-line",
		"offset", it.pos, "size", size)
	return size, nil
}

// lastNewline returns the file offset of the last '\n' in [lo, hi), or -1.
func (it *Iterator) lastNewline(lo, hi int64) (int64, error) {
	n := int(hi - lo)
	if cap(it.buf) < n {
		it.buf = make([]byte, n)
	}
	buf := it.buf[:n]

	read, err := it.m.r.ReadAt(buf, lo)
	if read < n {
		if err == nil || errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, fmt.Errorf("probe chunk boundary at %d: %w", lo, err)
	}

	if i := bytes.LastIndexByte(buf, '\n'); i >= 0 {
		return lo + int64(i), nil
	}
	return -1, nil
}
