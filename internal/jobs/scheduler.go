// Package jobs runs the periodic background work of the service.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Job is a unit of scheduled work. An empty Schedule registers the job for
// on-demand runs only.
type Job interface {
	Name() string
	Schedule() string
	Execute(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	jobs []Job
	ctx  context.Context
}

func NewScheduler(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		ctx:  ctx,
	}
}

func (s *Scheduler) Register(job Job) error {
	s.jobs = append(s.jobs, job)

	spec := job.Schedule()
	if spec == "" {
		log.WithField("job", job.Name()).Info("registered on-demand job")
		return nil
	}

	if _, err := s.cron.AddFunc(spec, func() { s.run(s.ctx, job) }); err != nil {
		return fmt.Errorf("schedule %s: %w", job.Name(), err)
	}
	log.WithFields(log.Fields{"job": job.Name(), "schedule": spec}).Info("scheduled job")
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.WithField("jobs", len(s.jobs)).Info("scheduler started")
}

// Stop prevents new runs and waits for running ones to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("scheduler stopped")
}

// RunByName runs a registered job immediately, outside its schedule.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return s.run(ctx, job)
		}
	}
	return fmt.Errorf("job %q not registered", name)
}

func (s *Scheduler) run(ctx context.Context, job Job) error {
	start := time.Now()
	entry := log.WithField("job", job.Name())

	if err := job.Execute(ctx); err != nil {
		entry.WithError(err).Error("job failed")
		return err
	}
	entry.WithField("took", time.Since(start).String()).Debug("job completed")
	return nil
}
