package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/aeolyus/brcsections/internal/config"
	"github.com/aeolyus/brcsections/internal/engine"
	"github.com/aeolyus/brcsections/internal/stats"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	input := flag.String("input", "", "input file path")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")
	timing := flag.Bool("timing", false, "print elapsed time to stderr")
	flag.IntVar(&cfg.Workers, "jobs", cfg.Workers, "number of concurrent jobs")
	flag.Int64Var(&cfg.MaxMappingSize, "max-mapping", cfg.MaxMappingSize, "largest single mapping in bytes")
	flag.IntVar(&cfg.WindowSize, "window", cfg.WindowSize, "boundary search window in bytes")
	flag.StringVar(&cfg.Mode, "mode", cfg.Mode, "chunk access: mmap or pread")
	flag.Parse()

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
	res, err := eval(*input, cfg, os.Stdout)
	if err != nil {
		log.Fatal(err)
	}
	if *timing {
		fmt.Fprintf(os.Stderr, "took %v: %d records, %d malformed, %d sections\n",
			time.Since(start), res.Counts.Records, res.Counts.Malformed, len(res.Sections))
	}
}

// eval aggregates the file at fpath and writes the per-key report to w
func eval(fpath string, cfg config.Config, w io.Writer) (*engine.Result, error) {
	res, err := engine.Run(context.Background(), fpath, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("error parsing statistics: %w", err)
	}
	if err := stats.Format(w, res.Summary); err != nil {
		return nil, fmt.Errorf("error writing report: %w", err)
	}
	return res, nil
}
