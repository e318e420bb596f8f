package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/legal-case-api/config"
	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/models"
)

var (
	// ErrRunInProgress is returned when a job is triggered while another one is processing
	ErrRunInProgress = errors.New("a scheduler run is already in progress")
	// ErrCaseNotFound is returned by AnalyzeCase when the case does not exist
	ErrCaseNotFound = errors.New("case not found")
)

// RunState is the run-level state of the scheduler
type RunState string

// Run states
const (
	StateIdle       RunState = "idle"
	StateProcessing RunState = "processing"
)

const (
	jobHourly = "hourly_analysis"
	jobDaily  = "daily_maintenance"
)

// Scorer produces a priority assessment for one case
type Scorer interface {
	Score(ctx context.Context, c models.Case, lawyer *models.User) (models.AnalysisResult, error)
}

// Scheduler drives periodic case priority analysis and workload maintenance.
// Only one instance may run per deployment: the run lock is held in memory.
type Scheduler struct {
	cron     *cron.Cron
	CaseDB   databases.CaseDatabase
	UserDB   databases.UserDatabase
	Scorer   Scorer
	settings config.SchedulerSettings
	metrics  *Metrics

	mu               sync.Mutex
	state            RunState
	currentJob       string
	lastRunTime      time.Time
	lastDailyRunTime time.Time
	lastStatistics   *CaseStatistics

	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
	observe func(RunState)
}

// NewScheduler creates a new scheduler instance
func NewScheduler(
	caseDB databases.CaseDatabase,
	userDB databases.UserDatabase,
	scorer Scorer,
	settings config.SchedulerSettings,
) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		CaseDB:   caseDB,
		UserDB:   userDB,
		Scorer:   scorer,
		settings: settings,
		metrics:  &Metrics{},
		state:    StateIdle,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Start registers the hourly and daily jobs and starts the cron runner
func (s *Scheduler) Start() {
	// Score due cases every hour
	_, err := s.cron.AddFunc(s.settings.HourlySpec, s.hourlyJob)
	if err != nil {
		zap.S().Errorw("failed to register hourly analysis job", "spec", s.settings.HourlySpec, "error", err)
	}

	// Statistics and workload rebalance once a day, off-peak
	_, err = s.cron.AddFunc(s.settings.DailySpec, s.dailyJob)
	if err != nil {
		zap.S().Errorw("failed to register daily maintenance job", "spec", s.settings.DailySpec, "error", err)
	}

	s.cron.Start()
	zap.S().Infow("Case priority scheduler started",
		"hourlySpec", s.settings.HourlySpec,
		"dailySpec", s.settings.DailySpec,
	)
}

// Stop gracefully stops the scheduler, waiting for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Case priority scheduler stopped")
}

// TriggerHourly starts an hourly run in the background and returns immediately
func (s *Scheduler) TriggerHourly() {
	go s.hourlyJob()
}

func (s *Scheduler) hourlyJob() {
	_, err := s.RunHourly(context.Background())
	if err != nil && !errors.Is(err, ErrRunInProgress) {
		zap.S().Errorw("hourly case analysis failed", "error", err)
	}
}

func (s *Scheduler) dailyJob() {
	_, err := s.RunDaily(context.Background())
	if err != nil && !errors.Is(err, ErrRunInProgress) {
		zap.S().Errorw("daily maintenance failed", "error", err)
	}
}

// RunHourly selects the cases due for analysis and scores them in batches.
// It returns ErrRunInProgress without doing anything when another run holds
// the lock. Per-case failures are reported in the RunReport, not as an error.
func (s *Scheduler) RunHourly(ctx context.Context) (*RunReport, error) {
	if !s.begin(jobHourly) {
		s.metrics.runSkipped()
		zap.S().Infow("Case analysis already in progress, skipping hourly run")
		return nil, ErrRunInProgress
	}
	defer s.finish()

	s.metrics.runStarted()
	started := s.now()

	cases, err := s.SelectCandidates(ctx, started)
	if err != nil {
		s.metrics.runFailed()
		return nil, fmt.Errorf("failed to select cases for analysis: %w", err)
	}

	zap.S().Infow("Running hourly case analysis", "candidates", len(cases))
	report := s.ProcessCases(ctx, cases)

	s.mu.Lock()
	s.lastRunTime = report.FinishedAt
	s.mu.Unlock()
	s.metrics.runCompleted(report)

	zap.S().Infow("Hourly case analysis complete",
		"runId", report.RunID,
		"batches", report.Batches,
		"succeeded", report.Succeeded(),
		"failed", report.Failed(),
		"duration", report.FinishedAt.Sub(report.StartedAt).String(),
	)
	return report, nil
}

// DailyReport summarizes one daily maintenance run
type DailyReport struct {
	Statistics *CaseStatistics  `json:"statistics,omitempty"`
	Rebalance  *RebalanceReport `json:"rebalance,omitempty"`
}

// RunDaily recomputes case statistics and rebalances lawyer workloads. It
// shares the run lock with RunHourly.
func (s *Scheduler) RunDaily(ctx context.Context) (*DailyReport, error) {
	if !s.begin(jobDaily) {
		s.metrics.runSkipped()
		zap.S().Infow("Scheduler busy, skipping daily maintenance")
		return nil, ErrRunInProgress
	}
	defer s.finish()

	zap.S().Info("Running daily maintenance")
	report := &DailyReport{}

	stats, err := s.ComputeStatistics(ctx)
	if err != nil {
		zap.S().Errorw("failed to compute case statistics", "error", err)
	} else {
		report.Statistics = stats
		s.mu.Lock()
		s.lastStatistics = stats
		s.mu.Unlock()
	}

	rebalance, err := s.RebalanceWorkload(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to rebalance workload: %w", err)
	}
	report.Rebalance = rebalance

	s.mu.Lock()
	s.lastDailyRunTime = s.now()
	s.mu.Unlock()
	return report, nil
}

// AnalyzedCase is a case returned together with the users it references
type AnalyzedCase struct {
	models.Case
	Lawyer *models.User `json:"assignedLawyerDetails,omitempty"`
	Client *models.User `json:"clientDetails,omitempty"`
}

// AnalyzeCase scores a single case immediately, bypassing selection and
// batching, and persists the result. The client is loaded for the caller
// only; scoring uses the lawyer alone.
func (s *Scheduler) AnalyzeCase(ctx context.Context, caseID primitive.ObjectID) (*AnalyzedCase, error) {
	legalCase, err := s.CaseDB.FindOne(ctx, bson.M{"_id": caseID})
	if err != nil {
		if errors.Is(err, databases.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID.Hex())
		}
		return nil, fmt.Errorf("failed to load case %s: %w", caseID.Hex(), err)
	}

	lawyer := s.lawyerFor(ctx, *legalCase)
	client := s.clientFor(ctx, *legalCase)

	result, err := s.Scorer.Score(ctx, *legalCase, lawyer)
	if err != nil {
		return nil, err
	}

	update := legalCase.Details.ApplyAnalysis(result, s.now())
	if err := s.CaseDB.SaveAnalysis(ctx, legalCase, update); err != nil {
		return nil, err
	}

	zap.S().Infow("Case analyzed on demand",
		"caseId", legalCase.ID.Hex(),
		"caseNumber", legalCase.Details.CaseNumber,
		"priorityScore", legalCase.Details.PriorityScore,
	)
	return &AnalyzedCase{Case: *legalCase, Lawyer: lawyer, Client: client}, nil
}

// State returns the current run state
func (s *Scheduler) State() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status is a point-in-time view of the scheduler
type Status struct {
	State            RunState        `json:"state"`
	CurrentJob       string          `json:"currentJob,omitempty"`
	LastRunTime      *time.Time      `json:"lastRunTime,omitempty"`
	LastDailyRunTime *time.Time      `json:"lastDailyRunTime,omitempty"`
	Metrics          MetricsSnapshot `json:"metrics"`
	Statistics       *CaseStatistics `json:"statistics,omitempty"`
}

// Status returns the scheduler state, run times, metrics and the last statistics
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		State:      s.state,
		CurrentJob: s.currentJob,
		Metrics:    s.metrics.Snapshot(),
		Statistics: s.lastStatistics,
	}
	if !s.lastRunTime.IsZero() {
		t := s.lastRunTime
		st.LastRunTime = &t
	}
	if !s.lastDailyRunTime.IsZero() {
		t := s.lastDailyRunTime
		st.LastDailyRunTime = &t
	}
	return st
}

func (s *Scheduler) begin(job string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateProcessing {
		return false
	}
	s.state = StateProcessing
	s.currentJob = job
	if s.observe != nil {
		s.observe(StateProcessing)
	}
	return true
}

func (s *Scheduler) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.currentJob = ""
	if s.observe != nil {
		s.observe(StateIdle)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
