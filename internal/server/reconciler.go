package server

import (
	"context"
	"time"
)

const reconcileInterval = time.Second

// ExpireStaleOrders expires orders that were created but never verified once
// they are older than the configured TTL. One poller feeds a bounded channel
// drained by a fixed set of workers.
func (srv *Server) ExpireStaleOrders(ctx context.Context) {
	workerCount := 5

	ch := make(chan string, 10*workerCount)
	go srv.pollStaleOrders(ctx, ch, reconcileInterval)

	for i := 0; i < workerCount; i++ {
		go srv.expireOrders(ctx, ch)
	}
}

func (srv *Server) pollStaleOrders(ctx context.Context, ch chan<- string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		orders, err := srv.storage.GetStalePendingOrders(ctx, srv.config.OrderTTL)
		if err != nil && ctx.Err() == nil {
			srv.deps.Logger.Errorf("poll stale orders: %v", err)
		}

		skipped := 0
		for _, orderID := range orders {
			select {
			case ch <- orderID:
			default:
				skipped++
			}
		}
		if skipped > 0 {
			srv.deps.Logger.Warnf("channel full, skipped %d stale orders", skipped)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (srv *Server) expireOrders(ctx context.Context, ch <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case orderID := <-ch:
			expired, err := srv.storage.ExpireOrder(ctx, orderID)
			if err != nil {
				srv.deps.Logger.Errorf("expire order %s: %v", orderID, err)
				continue
			}
			if expired {
				srv.deps.Logger.Infof("order %s expired unverified", orderID)
			}
		}
	}
}
