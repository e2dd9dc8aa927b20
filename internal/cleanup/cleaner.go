package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Purger drops state that is no longer needed
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// Cleaner periodically purges expired revocations and idle rate limiters
type Cleaner struct {
	purgers  map[string]Purger
	interval time.Duration
}

// NewCleaner creates a new cleanup worker
func NewCleaner(interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		purgers:  make(map[string]Purger),
		interval: interval,
	}
}

// Register adds a purger under name. Must be called before Start.
func (c *Cleaner) Register(name string, p Purger) {
	c.purgers[name] = p
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval, "purgers", len(c.purgers))

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce runs every purger a single time
func (c *Cleaner) RunOnce(ctx context.Context) {
	slog.Debug("running cleanup cycle")

	for name, p := range c.purgers {
		n, err := p.PurgeExpired(ctx)
		if err != nil {
			slog.Error("cleanup failed", "purger", name, "error", err)
			continue
		}
		if n > 0 {
			slog.Info("purged expired entries", "purger", name, "count", n)
		}
	}
}
