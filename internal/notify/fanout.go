package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"

	"golang.org/x/sync/errgroup"
)

// Fanout publishes to every configured transport. A failing transport does
// not stop the others; the joined error lists every failure.
type Fanout struct {
	publishers []Publisher
	timeout    time.Duration
}

func NewFanout(timeout time.Duration, publishers ...Publisher) *Fanout {
	return &Fanout{publishers: publishers, timeout: timeout}
}

func (f *Fanout) Name() string { return "fanout" }

func (f *Fanout) Publish(ctx context.Context, n *domain.Notification) error {
	if len(f.publishers) == 0 {
		return nil
	}
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	for _, p := range f.publishers {
		g.Go(func() error {
			if err := p.Publish(ctx, n); err != nil {
				logger.Warn("Live push failed", "transport", p.Name(), "recipientID", n.RecipientID, "notificationID", n.ID, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
