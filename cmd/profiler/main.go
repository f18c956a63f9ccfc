package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand" //nolint:gosec // intentional use for reproducible benchmarks
	"net/http"
	_ "net/http/pprof" //nolint:gosec // intentional profiling endpoint
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/felixge/fgprof"

	"github.com/meigma/collate"
)

type config struct {
	mode       string
	files      int
	fileSize   int
	dirCount   int
	pageSize   int64
	readSize   int
	pattern    string
	fgProfile  string
	duration   time.Duration
	iterations int
	pprofAddr  string
	cpuProfile string
	memProfile string
	traceFile  string
	readRandom bool
	seekReads  int
	tempDir    string
	keepTemp   bool
	randomSeed int64
}

//nolint:unused // sink variables prevent compiler optimizations in profiling
var (
	sinkBytes    []byte
	sinkLocation collate.ResourceLocation
	sinkCount    int
)

//nolint:gocognit,gocyclo // main function complexity is acceptable for CLI tool
func main() {
	cfg := parseFlags()

	if cfg.pprofAddr != "" {
		go func() {
			log.Printf("pprof listening on %s", cfg.pprofAddr)
			//nolint:gosec // intentional pprof server without timeouts for profiling
			if err := http.ListenAndServe(cfg.pprofAddr, nil); err != nil {
				log.Printf("pprof server error: %v", err)
			}
		}()
	}

	dir, cleanup, err := setupTempDir(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if cleanup != nil {
		defer cleanup() //nolint:errcheck // cleanup errors are non-fatal in profiler
	}

	paths, err := makeFiles(dir, cfg.files, cfg.fileSize, cfg.dirCount, cfg.pattern, cfg.randomSeed)
	if err != nil {
		log.Fatal(err) //nolint:gocritic // exitAfterDefer is intentional - cleanup is best-effort
	}

	acc, err := buildCollation(dir, paths, cfg)
	if err != nil {
		log.Fatal(err)
	}

	var stopFG func() error
	if cfg.fgProfile != "" {
		fgFile, fgErr := os.Create(cfg.fgProfile)
		if fgErr != nil {
			log.Fatal(fgErr)
		}
		stopFG = fgprof.Start(fgFile, fgprof.FormatPprof)
		defer func() {
			if err := stopFG(); err != nil {
				log.Printf("fgprof stop error: %v", err)
			}
			_ = fgFile.Close()
		}()
	}

	if cfg.cpuProfile != "" {
		cpuFile, cpuErr := os.Create(cfg.cpuProfile)
		if cpuErr != nil {
			log.Fatal(cpuErr)
		}
		if cpuErr = pprof.StartCPUProfile(cpuFile); cpuErr != nil {
			log.Fatal(cpuErr)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = cpuFile.Close()
		}()
	}

	if cfg.traceFile != "" {
		traceFile, traceErr := os.Create(cfg.traceFile)
		if traceErr != nil {
			log.Fatal(traceErr)
		}
		if traceErr = trace.Start(traceFile); traceErr != nil {
			log.Fatal(traceErr)
		}
		defer func() {
			trace.Stop()
			_ = traceFile.Close()
		}()
	}

	stats, err := runProfile(cfg, acc, paths, dir)
	if err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile != "" {
		runtime.GC()
		f, err := os.Create(cfg.memProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
		_ = f.Close()
	}

	fmt.Printf("mode=%s ops=%d bytes=%s elapsed=%s throughput=%s/s\n",
		cfg.mode,
		stats.ops,
		humanize.IBytes(uint64(stats.bytes)),
		stats.elapsed,
		humanize.IBytes(uint64(float64(stats.bytes)/stats.elapsed.Seconds())),
	)
}

type profileStats struct {
	ops     int
	bytes   int64
	elapsed time.Duration
}

//nolint:gocognit,gocyclo,gocritic // complexity is inherent to multi-mode profiler dispatch; hugeParam acceptable for profiler
func runProfile(cfg config, acc *collate.Accessor, paths []string, rootDir string) (profileStats, error) {
	start := time.Now()
	ops := 0
	var byteCount int64

	shouldContinue := func() bool {
		if cfg.iterations > 0 {
			return ops < cfg.iterations
		}
		return time.Since(start) < cfg.duration
	}
	rng := rand.New(rand.NewSource(cfg.randomSeed)) //nolint:gosec // intentional for reproducible benchmarks

	switch cfg.mode {
	case "readresource":
		for shouldContinue() {
			path := pickPath(paths, ops, rng, cfg.readRandom)
			content, err := collate.ReadResource(path, acc)
			if err != nil {
				return profileStats{}, err
			}
			sinkBytes = content
			byteCount += int64(len(content))
			ops++
		}

	case "readfile-direct":
		for shouldContinue() {
			path := pickPath(paths, ops, rng, cfg.readRandom)
			content, err := collate.ReadResource(path, nil)
			if err != nil {
				return profileStats{}, err
			}
			sinkBytes = content
			byteCount += int64(len(content))
			ops++
		}

	case "seek":
		buf := make([]byte, 64)
		for shouldContinue() {
			path := pickPath(paths, ops, rng, cfg.readRandom)
			r, err := collate.OpenReader(path, acc)
			if err != nil {
				return profileStats{}, err
			}
			size, err := r.Size()
			if err != nil {
				_ = r.Close()
				return profileStats{}, err
			}
			for range cfg.seekReads {
				if _, err := r.Seek(rng.Int63n(size+1), io.SeekStart); err != nil {
					_ = r.Close()
					return profileStats{}, err
				}
				n, err := r.Read(buf)
				if err != nil && err != io.EOF {
					_ = r.Close()
					return profileStats{}, err
				}
				byteCount += int64(n)
			}
			if err := r.Close(); err != nil {
				return profileStats{}, err
			}
			ops++
		}

	case "lookup":
		for shouldContinue() {
			path := pickPath(paths, ops, rng, cfg.readRandom)
			loc, err := acc.Resource(path)
			if err != nil {
				return profileStats{}, err
			}
			sinkLocation = loc
			ops++
		}

	case "list":
		for shouldContinue() {
			listed, err := acc.ListRecursive(rootDir)
			if err != nil {
				return profileStats{}, err
			}
			if len(listed) == 0 {
				return profileStats{}, fmt.Errorf("expected resources below %q", rootDir)
			}
			sinkCount = len(listed)
			ops++
		}

	case "load":
		for shouldContinue() {
			if err := acc.Reload(); err != nil {
				return profileStats{}, err
			}
			sinkCount = acc.Len()
			ops++
		}

	case "pack":
		outDir := filepath.Join(rootDir, "pack")
		if err := os.MkdirAll(outDir, 0o750); err != nil {
			return profileStats{}, err
		}
		for shouldContinue() {
			toc := collate.NewTableOfContents(filepath.Join(outDir, "res.toc"))
			c, err := newCollator(toc, filepath.Join(outDir, "res.col"), paths, cfg)
			if err != nil {
				return profileStats{}, err
			}
			if err := c.Execute(context.Background()); err != nil {
				c.Revert()
				return profileStats{}, err
			}
			for _, e := range toc.Entries() {
				byteCount += e.Size
			}
			c.Revert()
			ops++
		}

	case "verify":
		for shouldContinue() {
			report, err := acc.Verify(context.Background())
			if err != nil {
				return profileStats{}, err
			}
			if !report.OK() {
				return profileStats{}, fmt.Errorf("%d resources failed verification", len(report.Failed))
			}
			sinkCount = report.Checked
			byteCount += int64(cfg.fileSize) * int64(report.Checked) * 2
			ops++
		}

	default:
		return profileStats{}, fmt.Errorf("unknown mode: %s", cfg.mode)
	}

	return profileStats{
		ops:     ops,
		bytes:   byteCount,
		elapsed: time.Since(start),
	}, nil
}

func parseFlags() config {
	var cfg config
	var pageSize, readSize string
	flag.StringVar(&cfg.mode, "mode", "readresource", "mode: readresource, readfile-direct, seek, lookup, list, load, pack, verify")
	flag.IntVar(&cfg.files, "files", 512, "number of files")
	flag.IntVar(&cfg.fileSize, "file-size", 16<<10, "file size in bytes")
	flag.IntVar(&cfg.dirCount, "dir-count", 16, "number of directories")
	flag.StringVar(&pageSize, "page-size", "1MiB", "collated page size (0 for a single page)")
	flag.StringVar(&readSize, "read-size", "4MiB", "collator copy buffer size")
	flag.StringVar(&cfg.pattern, "pattern", "compressible", "pattern: compressible or random")
	flag.StringVar(&cfg.fgProfile, "fgprofile", "", "write fgprof (wall clock) profile to file")
	flag.DurationVar(&cfg.duration, "duration", 10*time.Second, "duration to run (ignored if iterations > 0)")
	flag.IntVar(&cfg.iterations, "iterations", 0, "number of iterations to run")
	flag.StringVar(&cfg.pprofAddr, "pprof-addr", "", "pprof listen address (e.g. :6060)")
	flag.StringVar(&cfg.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	flag.StringVar(&cfg.memProfile, "memprofile", "", "write heap profile to file")
	flag.StringVar(&cfg.traceFile, "trace", "", "write trace to file")
	flag.BoolVar(&cfg.readRandom, "read-random", true, "randomize path selection")
	flag.IntVar(&cfg.seekReads, "seek-reads", 16, "random seek+read pairs per reader in seek mode")
	flag.StringVar(&cfg.tempDir, "temp-dir", "", "directory to use for dataset")
	flag.BoolVar(&cfg.keepTemp, "keep-temp", false, "keep temp dir after run")
	flag.Int64Var(&cfg.randomSeed, "seed", 1, "random seed")
	flag.Parse()

	ps, err := humanize.ParseBytes(pageSize)
	if err != nil {
		log.Fatalf("page-size: %v", err)
	}
	rs, err := humanize.ParseBytes(readSize)
	if err != nil || rs == 0 {
		log.Fatalf("read-size: invalid value %q", readSize)
	}
	cfg.pageSize = int64(ps) //nolint:gosec // profiler input
	cfg.readSize = int(rs)   //nolint:gosec // profiler input
	return cfg
}

func pickPath(paths []string, idx int, rng *rand.Rand, random bool) string {
	if random {
		return paths[rng.Intn(len(paths))]
	}
	return paths[idx%len(paths)]
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func setupTempDir(cfg config) (string, func() error, error) {
	if cfg.tempDir != "" {
		return cfg.tempDir, nil, os.MkdirAll(cfg.tempDir, 0o755) //nolint:gosec // 0o755 is intentional for profiler temp dirs
	}
	dir, err := os.MkdirTemp("", "collate-profiler-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() error {
		if cfg.keepTemp {
			return nil
		}
		return os.RemoveAll(dir)
	}
	return dir, cleanup, nil
}

// makeFiles writes the dataset and returns the native paths of its files.
func makeFiles(dir string, fileCount, fileSize, dirCount int, pattern string, seed int64) ([]string, error) {
	if dirCount <= 0 {
		dirCount = 1
	}
	paths := make([]string, 0, fileCount)
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // intentional use for reproducible benchmarks
	for i := range fileCount {
		fullPath := filepath.Join(dir, "data", fmt.Sprintf("dir%02d", i%dirCount), fmt.Sprintf("file%05d.dat", i))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil { //nolint:gosec // 0o755 is intentional for profiler
			return nil, err
		}

		content := make([]byte, fileSize)
		switch pattern {
		case "random":
			if _, err := rng.Read(content); err != nil {
				return nil, err
			}
		default:
			fillByte := byte('a' + (i % 26))
			for j := range content {
				content[j] = fillByte
			}
			if len(content) > 0 {
				content[0] = byte(i)
			}
		}

		if err := os.WriteFile(fullPath, content, 0o644); err != nil { //nolint:gosec // 0o644 is intentional for profiler test files
			return nil, err
		}
		paths = append(paths, fullPath)
	}
	return paths, nil
}

//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func newCollator(toc *collate.TableOfContents, base string, paths []string, cfg config) (*collate.Collator, error) {
	c, err := collate.NewCollator(toc, base,
		collate.WithPageSize(cfg.pageSize),
		collate.WithReadSize(cfg.readSize),
	)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		c.AddResource(p)
	}
	return c, nil
}

// buildCollation packs the dataset once and returns an Accessor over it.
//
//nolint:gocritic // hugeParam acceptable for config struct in CLI tool
func buildCollation(root string, paths []string, cfg config) (*collate.Accessor, error) {
	toc := collate.NewTableOfContents(filepath.Join(root, "dataset.toc"))
	c, err := newCollator(toc, filepath.Join(root, "dataset.col"), paths, cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Execute(context.Background()); err != nil {
		c.Revert()
		return nil, err
	}
	if err := toc.Write(); err != nil {
		c.Revert()
		return nil, err
	}
	log.Printf("packed %d files into %d pages", toc.Len(), len(c.Created()))
	return collate.NewAccessor(toc.Path())
}
