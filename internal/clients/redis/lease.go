package redis

import (
	"context"
	"sync"
	"time"

	"github.com/yungbote/perspective-backend/internal/platform/logger"
)

const minRenewInterval = 10 * time.Millisecond

// keepAlive calls renew every interval until stop is called or renew reports the
// lease gone. stop blocks until the loop has exited and is safe to call twice.
func keepAlive(every time.Duration, renew func(context.Context) (bool, error), log *logger.Logger) (stop func()) {
	if every < minRenewInterval {
		every = minRenewInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			rctx, rcancel := context.WithTimeout(ctx, every)
			held, err := renew(rctx)
			rcancel()
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				log.Warn("Lease renewal failed", "error", err)
			case !held:
				log.Warn("Lease lost before release")
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-exited
		})
	}
}
