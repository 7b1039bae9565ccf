package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Start runs Tick on the standard five-field cron schedule, evaluated in
// the scheduler's timezone, until the returned stop function is called. stop
// waits for a running tick to finish.
func (s *Scheduler) Start(ctx context.Context, schedule string) (stop func(), err error) {
	c := cron.New(cron.WithLocation(s.location))

	_, err = c.AddFunc(schedule, func() {
		warmed, err := s.Tick(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Scheduled tick finished with errors", "warmed", warmed, "error", err)
			return
		}
		slog.InfoContext(ctx, "Scheduled tick finished", "warmed", warmed)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	c.Start()
	slog.Info("Cache warmer scheduled", "schedule", schedule, "timezone", s.location.String())

	return func() { <-c.Stop().Done() }, nil
}
