// Package partition divides a file into line-aligned byte ranges, one per
// worker.
package partition

import "fmt"

// Section is the half-open byte range [Start, End) handed to one worker.
type Section struct {
	Start int64
	End   int64
	Index int
}

func (s Section) Len() int64 { return s.End - s.Start }

func (s Section) Empty() bool { return s.Start == s.End }

func (s Section) String() string {
	return fmt.Sprintf("section %d [%d, %d)", s.Index, s.Start, s.End)
}

// BoundaryFinder snaps an offset forward to the next line start.
type BoundaryFinder interface {
	FindLineStart(approx int64) (int64, error)
}

// Split cuts [0, fileSize) into workers contiguous sections. Naive cuts are
// equal to within one byte, the remainder going to the earliest sections,
// and every inner cut is moved forward to a line start. Sections may come
// out empty when there are fewer lines than workers.
func Split(fileSize int64, workers int, bf BoundaryFinder) ([]Section, error) {
	if workers < 1 {
		return nil, fmt.Errorf("split into %d sections: need at least one", workers)
	}

	base := fileSize / int64(workers)
	rem := fileSize % int64(workers)

	sections := make([]Section, workers)
	var start, naive int64
	for i := range sections {
		naive += base
		if int64(i) < rem {
			naive++
		}

		end := fileSize
		if i < workers-1 {
			var err error
			end, err = bf.FindLineStart(max(naive, start))
			if err != nil {
				return nil, fmt.Errorf("split section %d: %w", i, err)
			}
		}

		sections[i] = Section{Start: start, End: end, Index: i}
		start = end
	}
	return sections, nil
}
