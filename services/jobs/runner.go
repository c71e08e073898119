package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/ratiba/core"
)

// Digester is what the daily digest job needs; notification.Service satisfies it.
type Digester interface {
	SendDailyDigest(ctx context.Context, now time.Time) (int, error)
}

type Runner struct {
	cron   *cron.Cron
	loc    *time.Location
	logger core.Logger
	now    func() time.Time
}

func NewRunner(conf core.JobsConfig, logger core.Logger) (*Runner, error) {
	loc := time.Local
	if conf.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(conf.Timezone); err != nil {
			return nil, errors.Wrapf(err, "loading timezone %q", conf.Timezone)
		}
	}
	cl := cronLogger{logger}
	return &Runner{
		cron:   cron.New(cron.WithLocation(loc), cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}, nil
}

// ScheduleDigest registers the daily digest; an empty expression leaves it disabled.
func (r *Runner) ScheduleDigest(expr string, d Digester) error {
	if expr == "" {
		return nil
	}
	if _, err := r.cron.AddFunc(expr, func() { r.runDigest(context.Background(), d) }); err != nil {
		return errors.Wrapf(err, "scheduling digest %q", expr)
	}
	return nil
}

func (r *Runner) runDigest(ctx context.Context, d Digester) {
	sent, err := d.SendDailyDigest(ctx, r.now().In(r.loc))
	if err != nil {
		r.logger.Error(fmt.Sprintf("daily digest: %v", err), err)
		return
	}
	r.logger.Info(fmt.Sprintf("daily digest sent to %d instructors", sent))
}

func (r *Runner) Start() { r.cron.Start() }

// Stop prevents new runs and waits up to ctx for running jobs to finish.
func (r *Runner) Stop(ctx context.Context) error {
	select {
	case <-r.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of scheduled jobs.
func (r *Runner) Len() int { return len(r.cron.Entries()) }

type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvMap(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(fmt.Sprintf("cron: %s: %v", msg, err), err, kvMap(keysAndValues))
}

func kvMap(keysAndValues []interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		m[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return m
}
