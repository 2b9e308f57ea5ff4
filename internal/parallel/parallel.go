// Package parallel splits per-instance work across goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled bool // Whether parallel execution is enabled
	Workers int  // Upper bound on goroutines
	MinRows int  // Minimum rows per goroutine
}

// DefaultConfig returns defaults based on the CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled: n > 1,
		Workers: n,
		MinRows: 32,
	}
}

// Rows calls f over contiguous row ranges [lo, hi) that together cover
// [0, m). Ranges never overlap, so f may write per-row output without
// locking. With parallelism disabled, or when m is too small to split, f is
// called once with [0, m).
func Rows(m int, f func(lo, hi int), cfg Config) {
	if !cfg.Enabled || cfg.Workers < 2 || m < 2*cfg.MinRows {
		f(0, m)
		return
	}

	chunk := max((m+cfg.Workers-1)/cfg.Workers, cfg.MinRows)
	var wg sync.WaitGroup
	for lo := 0; lo < m; lo += chunk {
		hi := min(lo+chunk, m)
		wg.Add(1)
		go func() {
			defer wg.Done()
			f(lo, hi)
		}()
	}
	wg.Wait()
}
