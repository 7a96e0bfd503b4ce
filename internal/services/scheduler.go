package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/courtedge/prop-engine/pkg/config"
)

// JobInfo tracks the lifecycle of one scheduled job.
type JobInfo struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Schedule   string        `json:"schedule"`
	LastRun    time.Time     `json:"last_run"`
	NextRun    time.Time     `json:"next_run"`
	Status     string        `json:"status"`
	RunCount   int           `json:"run_count"`
	ErrorCount int           `json:"error_count"`
	LastError  string        `json:"last_error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// SchedulerService owns the daily cron cycle: ingest yesterday's box scores,
// verify yesterday's picks, predict and notify on today's slate.
type SchedulerService struct {
	cron      *cron.Cron
	ingest    *IngestService
	predictor *PredictionService
	verifier  *VerifierService
	notifier  *NotifierService
	logger    *logrus.Logger

	mu        sync.Mutex
	jobs      map[string]JobInfo
	isRunning bool
}

func NewSchedulerService(
	ingest *IngestService,
	predictor *PredictionService,
	verifier *VerifierService,
	notifier *NotifierService,
	logger *logrus.Logger,
) *SchedulerService {
	return &SchedulerService{
		cron:      cron.New(cron.WithLogger(cron.VerbosePrintfLogger(logger))),
		ingest:    ingest,
		predictor: predictor,
		verifier:  verifier,
		notifier:  notifier,
		logger:    logger,
		jobs:      make(map[string]JobInfo),
	}
}

// Start registers the configured jobs and starts the cron scheduler.
func (s *SchedulerService) Start(cfg *config.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}

	if err := s.addJob("ingest", cfg.IngestSchedule, "Box score ingest", s.runIngest); err != nil {
		return err
	}
	if err := s.addJob("verify", cfg.VerifySchedule, "Result verification", s.runVerify); err != nil {
		return err
	}
	if err := s.addJob("predict", cfg.PredictSchedule, "Prediction run", s.runPredict); err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.WithField("component", "scheduler").Info("Scheduler started")
	return nil
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false
	s.logger.WithField("component", "scheduler").Info("Scheduler stopped")
}

// Jobs returns a snapshot of the registered jobs keyed by job ID.
func (s *SchedulerService) Jobs() map[string]JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make(map[string]JobInfo, len(s.jobs))
	for id, job := range s.jobs {
		snapshot[id] = job
	}
	return snapshot
}

func (s *SchedulerService) addJob(id, schedule, name string, jobFunc func(context.Context) error) error {
	entryID, err := s.cron.AddFunc(schedule, func() {
		s.runJob(id, name, jobFunc)
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s: %w", id, err)
	}

	var nextRun time.Time
	for _, entry := range s.cron.Entries() {
		if entry.ID == entryID {
			nextRun = entry.Next
			break
		}
	}

	s.jobs[id] = JobInfo{
		ID:       id,
		Name:     name,
		Schedule: schedule,
		NextRun:  nextRun,
		Status:   "scheduled",
	}

	s.logger.WithFields(logrus.Fields{
		"component": "scheduler",
		"job_id":    id,
		"schedule":  schedule,
		"next_run":  nextRun,
	}).Info("Scheduled job added")
	return nil
}

func (s *SchedulerService) runJob(id, name string, jobFunc func(context.Context) error) {
	s.mu.Lock()
	job := s.jobs[id]
	job.Status = "running"
	job.LastRun = time.Now()
	job.RunCount++
	s.jobs[id] = job
	s.mu.Unlock()

	logger := s.logger.WithFields(logrus.Fields{
		"component": "scheduler",
		"job_id":    id,
		"run_count": job.RunCount,
	})
	logger.Info("Starting scheduled job")
	startTime := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Error("Job panicked")
			s.updateJobStatus(id, "failed", fmt.Sprintf("panic: %v", r), time.Since(startTime))
		}
	}()

	if err := jobFunc(context.Background()); err != nil {
		logger.WithError(err).Error("Job failed")
		s.updateJobStatus(id, "failed", err.Error(), time.Since(startTime))
		return
	}

	duration := time.Since(startTime)
	logger.WithField("duration", duration).Info("Job completed successfully")
	s.updateJobStatus(id, "completed", "", duration)
}

func (s *SchedulerService) updateJobStatus(id, status, errorMsg string, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return
	}
	job.Status = status
	job.Duration = duration
	if errorMsg != "" {
		job.ErrorCount++
		job.LastError = errorMsg
	}
	s.jobs[id] = job
}

// runIngest stores yesterday's completed box scores.
func (s *SchedulerService) runIngest(ctx context.Context) error {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	_, err := s.ingest.IngestDate(ctx, startOfDayUTC(yesterday))
	return err
}

// runVerify grades yesterday's picks against the ingested box scores.
func (s *SchedulerService) runVerify(ctx context.Context) error {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	_, err := s.verifier.VerifyDate(ctx, startOfDayUTC(yesterday))
	return err
}

// runPredict produces today's slate and posts the picks.
func (s *SchedulerService) runPredict(ctx context.Context) error {
	today := startOfDayUTC(time.Now().UTC())
	if _, err := s.predictor.RunDaily(ctx, today); err != nil {
		return err
	}
	if err := s.notifier.NotifyPicks(ctx, today); err != nil {
		s.logger.WithError(err).Warn("Pick notification failed")
	}
	return nil
}

func startOfDayUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
