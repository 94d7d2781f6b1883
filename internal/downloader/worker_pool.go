package downloader

import (
	"context"
	"io"
	"sync"
)

// runPool calls fn for 0..n-1 on at most workers goroutines. Indices not yet
// handed out when ctx is cancelled are skipped.
func runPool(ctx context.Context, n, workers int, fn func(i int)) {
	if n == 0 {
		return
	}
	workers = max(1, min(workers, n))

	jobs := make(chan int)
	var wg sync.WaitGroup

	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for i := range jobs {
				fn(i)
			}
		}()
	}

	defer func() {
		close(jobs)
		wg.Wait()
	}()

	for i := range n {
		select {
		case <-ctx.Done():
			return
		case jobs <- i:
		}
	}
}

// progressWriter reports every successful write as a byte delta.
type progressWriter struct {
	w      io.Writer
	report func(delta int64)
}

func (pw *progressWriter) Write(b []byte) (int, error) {
	n, err := pw.w.Write(b)
	if n > 0 && pw.report != nil {
		pw.report(int64(n))
	}

	return n, err
}
