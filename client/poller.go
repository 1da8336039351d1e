package client

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultPollInterval is used when UnreadPoller.Interval is not positive.
const DefaultPollInterval = 30 * time.Second

// UnreadPoller polls the unread count on a fixed interval. A tick firing
// while the previous poll is still running is skipped.
type UnreadPoller struct {
	Fetch    func(ctx context.Context) (int, error)
	Interval time.Duration
	OnCount  func(n int)
	OnError  func(err error)

	inFlight int32
	skipped  int64
}

func NewUnreadPoller(c *Client, interval time.Duration, onCount func(int)) *UnreadPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &UnreadPoller{Fetch: c.UnreadCount, Interval: interval, OnCount: onCount}
}

// Skipped returns the number of ticks dropped because a poll was in flight.
func (p *UnreadPoller) Skipped() int64 {
	return atomic.LoadInt64(&p.skipped)
}

// Run polls right away then on every tick until ctx is done.
func (p *UnreadPoller) Run(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *UnreadPoller) tick(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&p.inFlight, 0, 1) {
		atomic.AddInt64(&p.skipped, 1)
		return
	}
	go func() {
		defer atomic.StoreInt32(&p.inFlight, 0)
		n, err := p.Fetch(ctx)
		if err != nil {
			if p.OnError != nil && ctx.Err() == nil {
				p.OnError(err)
			}
			return
		}
		if p.OnCount != nil {
			p.OnCount(n)
		}
	}()
}
