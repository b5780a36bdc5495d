// Command mtread reads a file through the same sections and chunks as the
// aggregator, counting lines only. It measures how fast the partitioning
// and mapping layers alone can go.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aeolyus/brcsections/internal/chunk"
	"github.com/aeolyus/brcsections/internal/config"
	"github.com/aeolyus/brcsections/internal/partition"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	input := flag.String("input", "", "file to read")
	cpuprofile := flag.String("cpuprofile", "", "file to write cpu profile to")
	flag.IntVar(&cfg.Workers, "jobs", cfg.Workers, "number of concurrent jobs")
	flag.Int64Var(&cfg.MaxMappingSize, "max-mapping", cfg.MaxMappingSize, "largest single mapping in bytes")
	flag.IntVar(&cfg.WindowSize, "window", cfg.WindowSize, "boundary search window in bytes")
	flag.StringVar(&cfg.Mode, "mode", cfg.Mode, "chunk access: mmap or pread")
	flag.Parse()

	// Profiling
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	start := time.Now()
	if err := probe(context.Background(), *input, cfg, os.Stdout); err != nil {
		log.Fatal(err)
	}
	fmt.Fprintf(os.Stderr, "took %v\n", time.Since(start))
}

type sectionReport struct {
	chunks int
	lines  int
}

// probe writes one line per section: its range, chunk count and line count.
func probe(ctx context.Context, path string, cfg config.Config, w io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return fmt.Errorf("error getting file info: %w", err)
	}
	fileSize := fileInfo.Size()

	loc := partition.NewLocator(file, fileSize, cfg.WindowSize)
	sections, err := partition.Split(fileSize, cfg.Workers, loc)
	if err != nil {
		return err
	}

	backend, err := chunk.NewBackend(cfg.Mode, file)
	if err != nil {
		return err
	}
	mapper := chunk.NewMapper(file, backend, cfg.MaxMappingSize, cfg.WindowSize)

	reports := make([]sectionReport, len(sections))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sections {
		i, s := i, s
		g.Go(func() error {
			it := mapper.Chunks(s)
			for gctx.Err() == nil {
				c, ok, err := it.Next()
				if err != nil || !ok {
					return err
				}
				reports[i].chunks++
				reports[i].lines += bytes.Count(c.Data, []byte{'\n'})
				if err := c.Release(); err != nil {
					return err
				}
			}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var total int
	for i, s := range sections {
		fmt.Fprintf(w, "%v chunks=%d lines=%d\n", s, reports[i].chunks, reports[i].lines)
		total += reports[i].lines
	}
	fmt.Fprintf(w, "total lines=%d\n", total)
	return nil
}
