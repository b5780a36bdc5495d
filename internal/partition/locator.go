package partition

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Locator finds line starts by probing a file forward in small windows.
// It only issues ReadAt calls, so one Locator may be shared by goroutines.
type Locator struct {
	r      io.ReaderAt
	size   int64
	window int
}

func NewLocator(r io.ReaderAt, size int64, window int) *Locator {
	return &Locator{r: r, size: size, window: max(window, 1)}
}

// FindLineStart returns the smallest offset >= approx that is either the
// file size or directly follows a '\n'.
func (l *Locator) FindLineStart(approx int64) (int64, error) {
	if approx <= 0 {
		return 0, nil
	}
	if approx >= l.size {
		return l.size, nil
	}

	buf := make([]byte, l.window)
	// start one byte early: approx is itself a line start when the byte
	// before it is a terminator
	pos := approx - 1
	for pos < l.size {
		n, err := l.r.ReadAt(buf, pos)
		if i := bytes.IndexByte(buf[:n], '\n'); i >= 0 {
			return pos + int64(i) + 1, nil
		}
		pos += int64(n)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, fmt.Errorf("probe line boundary at %d: %w", pos, err)
		}
	}
	return l.size, nil
}
