package collate

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"
)

// ErrMismatch is recorded for resources whose packed bytes differ from their source.
var ErrMismatch = errors.New("collate: packed content does not match source")

// VerifyResult is the outcome of checking one resource.
type VerifyResult struct {
	// Path is the resource path in slash form.
	Path string
	// Packed is the digest of the bytes read from the collated pages.
	Packed digest.Digest
	// Source is the digest of the resource's real file, if it could be read.
	Source digest.Digest
	// Err is nil when the digests match. It wraps ErrMismatch, ErrIO or
	// fs.ErrNotExist otherwise.
	Err error
}

// VerifyReport summarizes a verification run.
type VerifyReport struct {
	// Checked is the number of resources examined.
	Checked int
	// Failed holds every resource that did not verify, sorted by path.
	Failed []VerifyResult
}

// OK reports whether every resource verified.
func (r VerifyReport) OK() bool {
	return len(r.Failed) == 0
}

// VerifyOption configures Verify.
type VerifyOption func(*verifyConfig)

type verifyConfig struct {
	concurrency int
	progress    ProgressFunc
}

// VerifyWithConcurrency sets how many resources are checked at once.
// Values <= 0 use GOMAXPROCS.
func VerifyWithConcurrency(n int) VerifyOption {
	return func(cfg *verifyConfig) {
		cfg.concurrency = n
	}
}

// VerifyWithProgress sets a callback that receives a StageVerifying event
// after each resource.
func VerifyWithProgress(fn ProgressFunc) VerifyOption {
	return func(cfg *verifyConfig) {
		cfg.progress = fn
	}
}

// Verify reads every indexed resource through a collated Reader and compares
// its SHA-256 digest with the real file at the resource's path.
//
// Per-resource failures, including missing source files or unreadable pages,
// are collected in the report. Verify itself only fails when ctx is canceled.
func (a *Accessor) Verify(ctx context.Context, opts ...VerifyOption) (VerifyReport, error) {
	cfg := verifyConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.concurrency <= 0 {
		cfg.concurrency = runtime.GOMAXPROCS(0)
	}

	var paths []string
	for key := range a.Resources() {
		paths = append(paths, key)
	}
	results := make([]VerifyResult, len(paths))

	var done atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.concurrency)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = a.verifyResource(p)
			n := done.Add(1)
			if cfg.progress != nil {
				cfg.progress(ProgressEvent{
					Stage:      StageVerifying,
					Path:       p,
					FilesDone:  int(n),
					FilesTotal: len(paths),
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return VerifyReport{}, err
	}

	report := VerifyReport{Checked: len(results)}
	for _, res := range results {
		if res.Err != nil {
			report.Failed = append(report.Failed, res)
		}
	}
	a.log().Debug("verification complete", "checked", report.Checked, "failed", len(report.Failed))
	return report, nil
}

// verifyResource digests one resource from its pages and from its source.
func (a *Accessor) verifyResource(key string) VerifyResult {
	native := FromUnix(key)
	res := VerifyResult{Path: key}

	packed, err := digestOf(func() (io.ReadCloser, error) { return OpenReader(native, a) })
	if err != nil {
		res.Err = err
		return res
	}
	res.Packed = packed

	source, err := digestOf(func() (io.ReadCloser, error) { return os.Open(native) })
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.Err = &fs.PathError{Op: "verify", Path: native, Err: fs.ErrNotExist}
		} else {
			res.Err = errors.Join(ErrIO, err)
		}
		return res
	}
	res.Source = source

	if packed != source {
		res.Err = &fs.PathError{Op: "verify", Path: native, Err: ErrMismatch}
	}
	return res
}

func digestOf(open func() (io.ReadCloser, error)) (digest.Digest, error) {
	rc, err := open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return digest.FromReader(rc)
}
