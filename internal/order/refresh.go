package order

import (
	"context"
	"log"
	"time"
)

// Subscribers reports how many UI clients are currently connected.
// Satisfied by *ws.Hub.
type Subscribers interface {
	SubscriberCount() int
}

// Refresher reloads the listing on a timer so connected clients see other
// operators' changes. With nobody connected the reload is skipped, the
// same way the browser app paused its refresh while the tab was hidden.
type Refresher struct {
	svc      *Service
	subs     Subscribers
	interval time.Duration
}

func NewRefresher(svc *Service, subs Subscribers, interval time.Duration) *Refresher {
	return &Refresher{svc: svc, subs: subs, interval: interval}
}

// Run ticks until the context is cancelled. The service's in-flight guard
// makes an overlap with a manual reload a harmless no-op.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.subs.SubscriberCount() == 0 {
				continue
			}
			if _, err := r.svc.LoadAll(ctx); err != nil {
				log.Printf("WARN: periodic order refresh failed: %v", err)
			}
		}
	}
}
