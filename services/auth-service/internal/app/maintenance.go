package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"BizBooksPlatform/pkg/logger"
)

// StartMaintenance purges expired verification codes on a fixed interval.
// The returned stop func waits for a running purge to finish.
func (a *App) StartMaintenance(ctx context.Context, every time.Duration) (func(), error) {
	if every < time.Second {
		return nil, fmt.Errorf("maintenance interval must be at least 1s, got %s", every)
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(fmt.Sprintf("@every %s", every), func() {
		n, err := a.PurgeExpiredCodes(ctx)
		if err != nil {
			a.Log.Warn("Failed to purge expired codes", logger.Error(err))
			return
		}
		if n > 0 {
			a.Log.Debug("Purged expired codes", logger.Int64("count", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to schedule code purge: %w", err)
	}

	scheduler.Start()
	return func() {
		<-scheduler.Stop().Done()
	}, nil
}
