package tree

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/boypt/folderwatch/fs"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

const DefaultConcurrency = 4

// ListingError is a failed listing of a single folder. The builder recovers
// from it by leaving that folder's children unknown.
type ListingError struct {
	FolderID string
	Name     string
	Err      error
}

func (e *ListingError) Error() string {
	return fmt.Sprintf("listing %q (%s): %s", e.Name, e.FolderID, e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

type BuildStats struct {
	Folders  int
	Files    int
	Failures int
	Errors   []*ListingError
	Started  time.Time
	Duration time.Duration
}

// Builder materializes a snapshot by walking a Lister. Sibling folders are
// walked concurrently; at most the configured number of List calls run at
// once, optionally throttled by a rate limiter.
type Builder struct {
	lister fs.Lister
	sem    *semaphore.Weighted
	//Logf receives recovered listing failures
	Logf func(format string, args ...interface{})

	mu      sync.Mutex
	limiter *rate.Limiter
	stats   BuildStats
}

func NewBuilder(l fs.Lister, concurrency int) *Builder {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Builder{
		lister: l,
		sem:    semaphore.NewWeighted(int64(concurrency)),
		Logf: func(format string, args ...interface{}) {
			log.Printf("[tree] "+format, args...)
		},
	}
}

// SetLimiter throttles List calls; nil removes the throttle.
func (b *Builder) SetLimiter(l *rate.Limiter) {
	b.mu.Lock()
	b.limiter = l
	b.mu.Unlock()
}

func (b *Builder) LastStats() BuildStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

type walk struct {
	folders, files atomic.Int64

	mu   sync.Mutex
	errs []*ListingError
}

func (w *walk) fail(err *ListingError) {
	w.mu.Lock()
	w.errs = append(w.errs, err)
	w.mu.Unlock()
}

// Build always returns a node, even when some or all listings failed.
func (b *Builder) Build(ctx context.Context, folderID, folderName string) *Node {
	started := time.Now()
	w := &walk{}
	root := b.build(ctx, w, folderID, folderName)
	b.mu.Lock()
	b.stats = BuildStats{
		Folders:  int(w.folders.Load()),
		Files:    int(w.files.Load()),
		Failures: len(w.errs),
		Errors:   w.errs,
		Started:  started,
		Duration: time.Since(started),
	}
	b.mu.Unlock()
	return root
}

func (b *Builder) build(ctx context.Context, w *walk, id, name string) *Node {
	n := NewNode(id, name)
	w.folders.Add(1)
	entries, err := b.list(ctx, id)
	if err != nil {
		w.fail(&ListingError{FolderID: id, Name: name, Err: err})
		b.Logf("listing %s (%s) failed: %s", name, id, err)
		return n
	}
	var folders []fs.Entry
	for _, e := range entries {
		if e.IsFolder {
			folders = append(folders, e)
		} else {
			n.AddFile(e.Name)
		}
	}
	w.files.Add(int64(len(n.Files)))
	if len(folders) > 0 {
		//indexed so children keep source order
		n.Subfolders = make([]*Node, len(folders))
		var g errgroup.Group
		for i, e := range folders {
			i, e := i, e
			g.Go(func() error {
				n.Subfolders[i] = b.build(ctx, w, e.ID, e.Name)
				return nil
			})
		}
		g.Wait()
	}
	n.normalize()
	return n
}

func (b *Builder) list(ctx context.Context, id string) ([]fs.Entry, error) {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer b.sem.Release(1)
	b.mu.Lock()
	l := b.limiter
	b.mu.Unlock()
	if l != nil {
		if err := l.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return b.lister.List(ctx, id)
}
