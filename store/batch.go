package store

import (
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultBatchWorkers bounds the goroutines stamping a batch.
	DefaultBatchWorkers = 8
	// sequentialBatchSize is the largest batch stamped on the caller goroutine.
	sequentialBatchSize = 64
)

// workerPool returns the pool shared by every batch of the collection. It
// is created on first use; nil means batches are stamped sequentially.
func (c *Collection[T]) workerPool() *ants.Pool {
	c.poolOnce.Do(func() {
		pool, err := ants.NewPool(c.workers)
		if err != nil {
			c.logger.Error("go-records: batch pool unavailable", err, "collection", c.name)
			return
		}
		c.pool = pool
	})
	return c.pool
}

// Close releases the batch worker pool. Batches inserted afterwards are
// stamped on the caller goroutine.
func (c *Collection[T]) Close() {
	c.poolOnce.Do(func() {})
	if c.pool != nil {
		c.pool.Release()
	}
}

// stampAll assigns identifiers and creation times to recs. Large batches fan
// out over the collection pool. recs must hold distinct records. A panic in
// any task is returned as an error once the batch has settled.
func (c *Collection[T]) stampAll(recs []T) error {
	var pool *ants.Pool
	if len(recs) > sequentialBatchSize && c.workers > 1 {
		pool = c.workerPool()
	}
	if pool == nil {
		for _, rec := range recs {
			if err := c.stampSafely(rec); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		mu    sync.Mutex
		first error
		wg    sync.WaitGroup
	)
	for _, rec := range recs {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := c.stampSafely(rec); err != nil {
				mu.Lock()
				if first == nil {
					first = err
				}
				mu.Unlock()
			}
		}
		if err := pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()
	return first
}

func (c *Collection[T]) stampSafely(rec T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("go-records: batch stamping panicked: %v", r)
			c.logger.Error("go-records: batch worker panicked", err, "collection", c.name)
		}
	}()
	c.stamp(rec)
	return nil
}
