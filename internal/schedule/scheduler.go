package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/unclebandit/linkedin-outreach/internal/logging"
)

// Task is an armed periodic job.
type Task interface {
	Cancel()
}

// Ticker arms periodic jobs. *Scheduler is the production implementation.
type Ticker interface {
	Every(d time.Duration, fn func()) Task
}

// Scheduler runs periodic jobs on a cron instance. A run that is still going
// when its next tick fires is skipped, so jobs never overlap themselves.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

func NewScheduler() *Scheduler {
	logger := logging.WithModule("scheduler")
	cl := logging.CronLogger{Logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) Every(d time.Duration, fn func()) Task {
	id := s.cron.Schedule(cron.Every(d), cron.FuncJob(fn))
	s.logger.Debug("task armed", "every", d.String(), "entry", id)
	return &cronTask{cron: s.cron, id: id}
}

// Cron arms fn on a standard cron spec or a descriptor such as "@every 15m".
func (s *Scheduler) Cron(spec string, fn func()) (Task, error) {
	id, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	s.logger.Debug("task armed", "spec", spec, "entry", id)
	return &cronTask{cron: s.cron, id: id}, nil
}

// Len reports the number of armed tasks.
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

type cronTask struct {
	cron *cron.Cron
	id   cron.EntryID
}

func (t *cronTask) Cancel() {
	t.cron.Remove(t.id)
}
