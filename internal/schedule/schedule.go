// Package schedule runs a job now and then again at a constant delay
// until its context is cancelled.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one cycle. Its error is logged and never stops the schedule.
type Job func(ctx context.Context, cycle int) error

// Every runs job immediately and then every interval. Cycles never overlap:
// a cycle still running when the next tick fires causes that tick to be
// skipped. Every returns once ctx is done and the running cycle has
// finished.
func Every(ctx context.Context, interval time.Duration, log *zap.Logger, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("schedule: interval must be positive, got %s", interval)
	}
	if log == nil {
		log = zap.NewNop()
	}

	r := &runner{ctx: ctx, log: log, job: job}
	r.run()
	if ctx.Err() != nil {
		return nil
	}

	c := cron.New(
		cron.WithLogger(cronLogger{log: log}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{log: log})),
	)
	c.Schedule(cron.Every(interval), cron.FuncJob(r.run))
	c.Start()
	log.Info("schedule started", zap.Duration("interval", interval))

	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("schedule stopped", zap.Int("cycles", r.count()))
	return nil
}

type runner struct {
	ctx context.Context
	log *zap.Logger
	job Job

	mu     sync.Mutex
	cycles int
}

func (r *runner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cycles
}

func (r *runner) run() {
	if r.ctx.Err() != nil {
		return
	}
	r.mu.Lock()
	r.cycles++
	cycle := r.cycles
	r.mu.Unlock()

	start := time.Now()
	err := r.job(r.ctx, cycle)
	switch {
	case err == nil:
		r.log.Info("cycle finished", zap.Int("cycle", cycle), zap.Duration("took", time.Since(start)))
	case errors.Is(err, context.Canceled):
		r.log.Info("cycle interrupted", zap.Int("cycle", cycle))
	default:
		r.log.Warn("cycle failed", zap.Int("cycle", cycle), zap.Error(err))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
