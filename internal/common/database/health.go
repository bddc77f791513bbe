package database

import (
	"context"
	"sync"
)

// Pinger is a backing service that can report its reachability.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// PingAll pings every service concurrently and returns the failures keyed by
// service name. An empty map means everything is reachable.
func PingAll(ctx context.Context, pingers ...Pinger) map[string]error {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		failures = map[string]error{}
	)

	for _, p := range pingers {
		if p == nil {
			continue
		}
		wg.Add(1)
		go func(p Pinger) {
			defer wg.Done()
			if err := p.Ping(ctx); err != nil {
				mu.Lock()
				failures[p.Name()] = err
				mu.Unlock()
			}
		}(p)
	}
	wg.Wait()

	return failures
}
