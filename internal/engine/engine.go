// Package engine runs one worker per line-aligned section of a file and
// merges their aggregates.
package engine

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/aeolyus/brcsections/internal/chunk"
	"github.com/aeolyus/brcsections/internal/config"
	"github.com/aeolyus/brcsections/internal/partition"
	"github.com/aeolyus/brcsections/internal/scan"
	"github.com/aeolyus/brcsections/internal/stats"
)

// Result is the outcome of a complete run.
type Result struct {
	Summary  stats.Summary
	Counts   scan.Counts
	Sections []partition.Section
}

// Run aggregates the file at path. Any I/O failure aborts the whole run and
// no partial result is returned. Malformed records go to report; a nil
// report logs them through slog's default logger.
func Run(ctx context.Context, path string, cfg config.Config, report scan.Reporter) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat %s: %w", path, err)
	}

	loc := partition.NewLocator(f, fi.Size(), cfg.WindowSize)
	sections, err := partition.Split(fi.Size(), cfg.Workers, loc)
	if err != nil {
		return nil, fmt.Errorf("could not partition %s: %w", path, err)
	}

	backend, err := chunk.NewBackend(cfg.Mode, f)
	if err != nil {
		return nil, err
	}
	mapper := chunk.NewMapper(f, backend, cfg.MaxMappingSize, cfg.WindowSize)

	tables := make([]*stats.Table, len(sections))
	counts := make([]scan.Counts, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sections {
		i, s := i, s
		g.Go(func() error {
			w := worker{mapper: mapper, scanner: scan.New(report), table: stats.NewTable()}
			if err := w.run(gctx, s); err != nil {
				return fmt.Errorf("%s of %s: %w", s, path, err)
			}
			tables[i], counts[i] = w.table, w.counts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Summary: stats.Merge(tables...), Sections: sections}
	for _, c := range counts {
		res.Counts.Add(c)
	}
	return res, nil
}

// worker owns everything it touches while scanning one section.
type worker struct {
	mapper  *chunk.Mapper
	scanner *scan.Scanner
	table   *stats.Table
	counts  scan.Counts
}

func (w *worker) run(ctx context.Context, s partition.Section) error {
	it := w.mapper.Chunks(s)
	for {
		// another worker failed; the run is lost anyway
		if err := ctx.Err(); err != nil {
			return err
		}
		more, err := w.next(it)
		if err != nil || !more {
			return err
		}
	}
}

// next maps, scans and releases one chunk.
func (w *worker) next(it *chunk.Iterator) (more bool, err error) {
	c, ok, err := it.Next()
	if err != nil || !ok {
		return false, err
	}
	defer func() {
		if rerr := c.Release(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	w.counts.Add(w.scanner.Scan(c.Data, c.Offset, w.table))
	return true, nil
}
