package palmares

import (
	"context"
	"sync"
)

// DefaultPoolSize caps in-flight detail fetches per provider.
const DefaultPoolSize = 3

// poolMap applies fn to every item with at most size calls in flight. A
// worker takes the next pending item as soon as it is done; results keep
// the order of items whatever the completion order.
func poolMap[T, R any](ctx context.Context, items []T, size int, fn func(context.Context, T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}
	if size <= 0 {
		size = DefaultPoolSize
	}
	if size > len(items) {
		size = len(items)
	}

	indexChan := make(chan int, len(items))
	for i := range items {
		indexChan <- i
	}
	close(indexChan)

	var wg sync.WaitGroup
	for w := 0; w < size; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexChan {
				results[i] = fn(ctx, items[i])
			}
		}()
	}
	wg.Wait()
	return results
}
