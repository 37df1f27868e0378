package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/nimbushost/vps-portal/internal/portal/store"
)

// Housekeeper periodically deletes sessions past their refresh expiry.
// Expired sessions are already unusable (expiry is checked on every refresh);
// this keeps the table from growing without bound.
type Housekeeper struct {
	Store    store.Store
	Interval time.Duration
	Logger   *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// Start launches the sweep loop. Call Stop to shut it down.
func (h *Housekeeper) Start() {
	if h.Interval <= 0 {
		h.Interval = time.Hour
	}
	h.stopCh = make(chan struct{})
	h.doneCh = make(chan struct{})

	go func() {
		defer close(h.doneCh)

		ticker := time.NewTicker(h.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				h.sweep()
			case <-h.stopCh:
				return
			}
		}
	}()
}

// Stop signals the loop to exit and waits for it.
func (h *Housekeeper) Stop() {
	if h.stopCh == nil {
		return
	}
	close(h.stopCh)
	<-h.doneCh
}

func (h *Housekeeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := h.Store.Sessions().DeleteExpiredSessions(ctx); err != nil {
		h.Logger.Error("session sweep failed", "err", err)
		return
	}
	h.Logger.Debug("session sweep complete")
}
