package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"f1picks/ingestion/internal/lock"
	"f1picks/ingestion/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Job names
const (
	JobSync  = "sync"
	JobScore = "score"
)

// ErrUnknownJob is returned by RunNow for an unregistered job name
var ErrUnknownJob = errors.New("unknown job")

// JobFunc is the body of a scheduled job
type JobFunc func(ctx context.Context) error

type job struct {
	name string
	spec string
	run  JobFunc
}

// Scheduler runs named jobs on cron schedules. Each run holds the job's lock,
// so a run that overlaps another (in this process or another replica) is
// skipped rather than queued.
type Scheduler struct {
	cron    *cron.Cron
	locker  lock.Locker
	lockTTL time.Duration

	mu   sync.RWMutex
	jobs map[string]*job
	ctx  context.Context
}

// NewScheduler creates a new scheduler instance
func NewScheduler(locker lock.Locker, lockTTL time.Duration) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		locker:  locker,
		lockTTL: lockTTL,
		jobs:    make(map[string]*job),
		ctx:     context.Background(),
	}
}

// Register schedules run under name on a standard five-field cron spec
func (s *Scheduler) Register(name, spec string, run JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %q already registered", name)
	}

	j := &job{name: name, spec: spec, run: run}
	if _, err := s.cron.AddFunc(spec, func() { _ = s.execute(s.jobContext(), j) }); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	s.jobs[name] = j

	log.Info().Str("job", name).Str("schedule", spec).Msg("Job scheduled")
	return nil
}

// Start starts the scheduler; ctx is handed to every scheduled run
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	log.Info().Strs("jobs", s.Jobs()).Msg("Scheduler started")
}

// Stop stops scheduling and waits for running jobs to finish
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")
	<-s.cron.Stop().Done()
	log.Info().Msg("Scheduler stopped")
}

// RunNow runs a job immediately under the same lock as its scheduled runs
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.execute(ctx, j)
}

// Jobs returns the registered job names in order
func (s *Scheduler) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}

func (s *Scheduler) execute(ctx context.Context, j *job) error {
	release, err := s.locker.Acquire(ctx, j.name, s.lockTTL)
	if errors.Is(err, lock.ErrLocked) {
		metrics.RecordJob(j.name, "skipped", 0)
		log.Info().Str("job", j.name).Msg("Job already running elsewhere, skipping")
		return err
	}
	if err != nil {
		metrics.RecordError("scheduler", "lock")
		log.Error().Err(err).Str("job", j.name).Msg("Failed to acquire job lock")
		return err
	}
	defer release()

	start := time.Now()
	log.Info().Str("job", j.name).Msg("Job starting")

	err = j.run(ctx)
	duration := time.Since(start)

	if err != nil {
		metrics.RecordJob(j.name, "error", duration.Seconds())
		log.Error().Err(err).Str("job", j.name).Dur("duration", duration).Msg("Job failed")
		return err
	}

	metrics.RecordJob(j.name, "success", duration.Seconds())
	log.Info().Str("job", j.name).Dur("duration", duration).Msg("Job complete")
	return nil
}

// cronLogger routes cron's internal logging through zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
