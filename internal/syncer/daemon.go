package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "datestack/internal/log"
)

// Runner is the unit of work the daemon repeats.
type Runner interface {
	Run(ctx context.Context, force bool) (Result, error)
}

// Daemon repeats a sync on a fixed interval until its context ends.
type Daemon struct {
	runner   Runner
	interval time.Duration
	// OnResult, if set, sees the outcome of every run.
	OnResult func(Result, error)
}

func NewDaemon(runner Runner, interval time.Duration) (*Daemon, error) {
	if interval <= 0 {
		return nil, errors.New("sync interval must be positive")
	}
	return &Daemon{runner: runner, interval: interval}, nil
}

// Run syncs immediately with force, then every interval without it. Errors
// from individual runs are logged and do not stop the loop. Run returns
// when ctx is canceled, after any in-flight run completes.
func (d *Daemon) Run(ctx context.Context, force bool) error {
	d.runOnce(ctx, force)
	if ctx.Err() != nil {
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.PrintfLogger(appLog.Logger())),
	))
	schedule := fmt.Sprintf("@every %s", d.interval)
	if _, err := c.AddFunc(schedule, func() { d.runOnce(ctx, false) }); err != nil {
		return fmt.Errorf("scheduling %q: %w", schedule, err)
	}

	appLog.Info("sync daemon started", "interval", d.interval.String())
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	appLog.Info("sync daemon stopped")
	return nil
}

func (d *Daemon) runOnce(ctx context.Context, force bool) {
	if ctx.Err() != nil {
		return
	}
	res, err := d.runner.Run(ctx, force)
	if err != nil && ctx.Err() == nil {
		appLog.Error("sync failed", err)
	}
	if d.OnResult != nil {
		d.OnResult(res, err)
	}
}
