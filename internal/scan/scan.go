// Package scan turns a mapped byte range of "key;value" lines into folds on
// an aggregate, without building a string per line.
package scan

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"unsafe"
)

const (
	separator  = ';'
	terminator = '\n'
	carriage   = '\r'
	comment    = '#'
)

var (
	errNoSeparator = errors.New("missing separator")
	errEmptyKey    = errors.New("empty key")
	errNotFinite   = errors.New("not a finite number")
)

// Folder receives one measurement per valid record. key is only valid for
// the duration of the call.
type Folder interface {
	Fold(key []byte, value float64)
}

// Malformed describes a dropped record.
type Malformed struct {
	Offset int64
	Key    string
	Value  string
	Err    error
}

// Reporter is told about each dropped record. Workers scan concurrently, so
// a Reporter shared between them must be safe for concurrent use.
type Reporter func(Malformed)

// LogReporter reports dropped records as warnings on logger.
func LogReporter(logger *slog.Logger) Reporter {
	return func(m Malformed) {
		logger.Warn("skipping malformed record",
			"key", m.Key, "value", m.Value, "offset", m.Offset, "error", m.Err)
	}
}

// Counts tallies what a scan saw.
type Counts struct {
	Records   uint64
	Skipped   uint64
	Malformed uint64
}

func (c *Counts) Add(o Counts) {
	c.Records += o.Records
	c.Skipped += o.Skipped
	c.Malformed += o.Malformed
}

// Scanner parses records. It keeps scratch space between calls, so each
// worker needs its own.
type Scanner struct {
	report Reporter
	keyBuf []byte
	valBuf []byte
}

func New(report Reporter) *Scanner {
	if report == nil {
		report = LogReporter(slog.Default())
	}
	return &Scanner{report: report}
}

type state int

const (
	inKey state = iota
	inValue
)

// Scan walks data once and folds every valid record into agg. base is the
// file offset of data[0] and only feeds diagnostics. A value cut off by the
// end of data is treated as the last record of the file.
func (s *Scanner) Scan(data []byte, base int64, agg Folder) Counts {
	var c Counts
	st := inKey
	mark, line := 0, 0
	var key []byte

	for i := 0; i < len(data); i++ {
		switch data[i] {
		case comment:
			if st != inKey || i != line {
				continue
			}
			nl := bytes.IndexByte(data[i:], terminator)
			if nl < 0 {
				i = len(data) - 1
			} else {
				i += nl
			}
			mark, line = i+1, i+1
			c.Skipped++

		case separator:
			if st != inKey {
				continue
			}
			key = data[mark:i]
			mark = i + 1
			st = inValue

		case terminator:
			if st == inValue {
				s.emit(agg, key, data[mark:i], base+int64(line), &c)
			} else {
				s.noSeparator(data[mark:i], base+int64(line), &c)
			}
			mark, line = i+1, i+1
			st = inKey
		}
	}

	switch {
	case st == inValue:
		if val := stripCR(data[mark:], &s.valBuf); len(val) > 0 {
			s.emit(agg, key, val, base+int64(line), &c)
		}
	case mark < len(data):
		s.noSeparator(data[mark:], base+int64(line), &c)
	}
	return c
}

// noSeparator handles a line that ended before any ';'. Blank lines are
// skipped quietly.
func (s *Scanner) noSeparator(text []byte, off int64, c *Counts) {
	if len(bytes.TrimSpace(text)) == 0 {
		c.Skipped++
		return
	}
	s.drop(off, stripCR(text, &s.keyBuf), nil, errNoSeparator, c)
}

func (s *Scanner) emit(agg Folder, key, val []byte, off int64, c *Counts) {
	key = stripCR(key, &s.keyBuf)
	val = stripCR(val, &s.valBuf)
	if len(key) == 0 {
		s.drop(off, key, val, errEmptyKey, c)
		return
	}

	v, err := parseValue(val)
	if err != nil {
		s.drop(off, key, val, err, c)
		return
	}
	agg.Fold(key, v)
	c.Records++
}

func (s *Scanner) drop(off int64, key, val []byte, err error, c *Counts) {
	c.Malformed++
	s.report(Malformed{Offset: off, Key: string(key), Value: string(val), Err: err})
}

// parseValue parses b without copying it into a string first.
func parseValue(b []byte) (float64, error) {
	v, err := strconv.ParseFloat(unsafe.String(unsafe.SliceData(b), len(b)), 64)
	if err != nil {
		// the error would keep a reference to b's backing memory
		return 0, fmt.Errorf("invalid number %q", string(b))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotFinite
	}
	return v, nil
}

// stripCR returns b without '\r' bytes, copying into *scratch only when b
// holds any.
func stripCR(b []byte, scratch *[]byte) []byte {
	if bytes.IndexByte(b, carriage) < 0 {
		return b
	}
	out := (*scratch)[:0]
	for _, ch := range b {
		if ch != carriage {
			out = append(out, ch)
		}
	}
	*scratch = out
	return out
}
