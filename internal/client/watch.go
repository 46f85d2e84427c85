package client

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/example/storefront/internal/models"
)

// StatusChange is one observation from WatchOrder. Err is set when a poll
// failed; the watch keeps going unless the order is gone.
type StatusChange struct {
	Order    models.Order
	Previous models.OrderStatus
	Err      error
}

// WatchOrder polls the order every interval (DefaultPollInterval when zero)
// and sends the order whenever its status changes, starting with the current
// status. The channel is closed once the order reaches a terminal status, the
// order disappears, or ctx is cancelled.
func (c *Client) WatchOrder(ctx context.Context, ref string, interval time.Duration) <-chan StatusChange {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	out := make(chan StatusChange)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last models.OrderStatus
		for {
			order, err := c.Order(ctx, ref)
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				log.Debug().Err(err).Str("order", ref).Msg("order poll failed")
				if !send(ctx, out, StatusChange{Previous: last, Err: err}) || IsNotFound(err) {
					return
				}
			case order.Status != last:
				if !send(ctx, out, StatusChange{Order: order, Previous: last}) {
					return
				}
				last = order.Status
				if last.IsTerminal() {
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}

func send(ctx context.Context, out chan<- StatusChange, change StatusChange) bool {
	select {
	case out <- change:
		return true
	case <-ctx.Done():
		return false
	}
}
