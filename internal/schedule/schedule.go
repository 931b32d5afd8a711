// Package schedule runs jobs on cron specs with a seconds field.
package schedule

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner wraps a cron scheduler whose jobs receive a shared base context.
type Runner struct {
	cron    *cron.Cron
	log     *zap.Logger
	baseCtx context.Context
}

// New creates a runner. Jobs that are still running when the next tick
// arrives are skipped rather than overlapped.
func New(baseCtx context.Context, log *zap.Logger) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log:     log,
		baseCtx: baseCtx,
	}
}

// Add registers job on spec.
func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	id, err := r.cron.AddFunc(spec, func() { job(r.baseCtx) })
	if err != nil {
		return 0, fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return id, nil
}

// Next returns the next activation of entry id.
func (r *Runner) Next(id cron.EntryID) string {
	e := r.cron.Entry(id)
	if e.ID == 0 {
		return ""
	}
	return e.Next.Format("2006-01-02 15:04:05 MST")
}

// Start begins scheduling and logs each entry's next activation.
func (r *Runner) Start() {
	r.cron.Start()
	for _, e := range r.cron.Entries() {
		r.log.Info("cron started", zap.Int("entry", int(e.ID)), zap.String("next", r.Next(e.ID)))
	}
}

// Stop stops scheduling and waits for running jobs to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.log.Info("cron stopped")
}

// Run starts the runner and blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	r.Start()
	<-ctx.Done()
	r.Stop()
}
