package repo

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/imgrepo/imgrepo/internal/objects"
)

// AsyncWriter runs a single synchronous write on a worker goroutine and
// reports completion through the returned Future: the thin shell
// spec.md §5 describes ("An asynchronous facade may offer write_content/
// write_metadata variants that run a single synchronous call on a worker
// thread and post completion") and explicitly disclaims any extra ordering
// guarantee beyond what the synchronous call already provides. It carries
// no state of its own; every call is independent.
type AsyncWriter struct {
	Repo *Repo
}

// Future is the handle returned by an async write: Wait blocks until the
// worker goroutine finishes and returns its result.
type Future struct {
	done chan struct{}
	csum objects.Checksum
	err  error
}

// Wait blocks until the write completes, or ctx is done first.
func (f *Future) Wait(ctx context.Context) (objects.Checksum, error) {
	select {
	case <-f.done:
		return f.csum, f.err
	case <-ctx.Done():
		return objects.Checksum{}, ctx.Err()
	}
}

// WriteContent schedules an untrusted FILE write on a worker goroutine.
// The caller must not reuse input until the returned Future completes.
func (w *AsyncWriter) WriteContent(input io.Reader, declaredLength int64) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.csum, f.err = w.Repo.WriteContent(input, declaredLength)
	}()
	return f
}

// WriteMetadata schedules an untrusted DIR_META/DIR_TREE write on a worker
// goroutine.
func (w *AsyncWriter) WriteMetadata(kind objects.Kind, input io.Reader, length int64) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.csum, f.err = w.Repo.Txn.WriteMetadata(kind, input, length)
	}()
	return f
}

// WriteContentBatch runs several content writes concurrently and waits for
// all of them, returning the first error encountered (if any) via
// errgroup — useful for a caller ingesting many already-buffered blobs at
// once without hand-rolling its own WaitGroup/error-collection.
func (w *AsyncWriter) WriteContentBatch(ctx context.Context, items []io.Reader, lengths []int64) ([]objects.Checksum, error) {
	results := make([]objects.Checksum, len(items))
	g, _ := errgroup.WithContext(ctx)
	for i := range items {
		i := i
		g.Go(func() error {
			csum, err := w.Repo.WriteContent(items[i], lengths[i])
			if err != nil {
				return err
			}
			results[i] = csum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
