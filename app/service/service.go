// Package service provides the monitor mode scheduler. It runs the e2e suite on a cron schedule,
// checks host conditions before scheduled runs, accepts manual triggers and trims run history.
package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/robfig/cron/v3"

	"github.com/umputun/jenkins-e2e/app/conditions"
	"github.com/umputun/jenkins-e2e/app/scenario"
	"github.com/umputun/jenkins-e2e/app/web"
)

//go:generate moq -out mocks/cron.go -pkg mocks -skip-ensure -fmt goimports . Cron
//go:generate moq -out mocks/runner.go -pkg mocks -skip-ensure -fmt goimports . Runner
//go:generate moq -out mocks/condition_checker.go -pkg mocks -skip-ensure -fmt goimports . ConditionChecker
//go:generate moq -out mocks/retention.go -pkg mocks -skip-ensure -fmt goimports . Retention

// Scheduler is a top-level service wiring cron, condition checks, manual triggers and history retention.
// Do is the blocking entry point.
type Scheduler struct {
	Cron
	Spec             string   // standard 5-field cron spec
	Scenarios        []string // ids for scheduled runs, empty for all
	Runner           Runner
	ConditionChecker ConditionChecker // nil disables host checks
	Conditions       conditions.Config
	MaxPostpone      time.Duration // 0 skips a run right away when conditions are not met
	CheckInterval    time.Duration // conditions re-check interval while postponed, 30s if not set
	Jitter           time.Duration // random delay before a scheduled run, up to this value
	ManualTrigger    <-chan web.TriggerRequest
	Retention        Retention // nil keeps all runs
	Keep             int       // number of runs kept by retention

	running atomic.Bool
}

// Cron interface defines basic robfig/cron methods used by service
type Cron interface {
	Start()
	Stop() context.Context
	Schedule(schedule cron.Schedule, cmd cron.Job) cron.EntryID
}

// Runner executes selected scenarios, empty ids run all of them
type Runner interface {
	Run(ctx context.Context, ids []string) (scenario.Report, error)
}

// ConditionChecker checks the host before a scheduled run
type ConditionChecker interface {
	Check(ctx context.Context, cond conditions.Config) (bool, string)
}

// Retention removes old runs, keeping the most recent ones
type Retention interface {
	Cleanup(keep int) (int64, error)
}

// Do runs blocking scheduler until ctx is canceled
func (s *Scheduler) Do(ctx context.Context) error {
	sched, err := cron.ParseStandard(s.Spec)
	if err != nil {
		return fmt.Errorf("can't parse schedule %q: %w", s.Spec, err)
	}

	id := s.Schedule(sched, cron.FuncJob(func() { s.scheduled(ctx) }))
	log.Printf("[INFO] scheduled %q, first run: %s (%v)", s.Spec, sched.Next(time.Now()).Format(time.RFC3339), id)

	if s.ManualTrigger != nil {
		go s.listenForManualTriggers(ctx)
	}

	s.Start()
	<-ctx.Done()
	log.Print("[DEBUG] terminate")
	<-s.Stop().Done()
	return nil
}

// scheduled is the cron job: jitter, host conditions, then the run
func (s *Scheduler) scheduled(ctx context.Context) {
	if s.Jitter > 0 {
		delay := rand.N(s.Jitter) //nolint:gosec // not security sensitive
		log.Printf("[DEBUG] jitter %v", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}
	if !s.waitForConditions(ctx) {
		return
	}
	s.execute(ctx, s.Scenarios, "scheduled")
}

// execute runs scenarios unless another run is in progress, then applies retention
func (s *Scheduler) execute(ctx context.Context, ids []string, kind string) {
	if !s.running.CompareAndSwap(false, true) {
		log.Printf("[WARN] %s run skipped, previous run is still in progress", kind)
		return
	}
	defer s.running.Store(false)

	log.Printf("[INFO] %s run started", kind)
	rep, err := s.Runner.Run(ctx, ids)
	if err != nil {
		log.Printf("[WARN] %s run failed: %v", kind, err)
	}
	if rep.ID != "" {
		log.Printf("[INFO] %s run %s completed, %s", kind, rep.ID, rep.Summary())
	}

	if s.Retention != nil && s.Keep > 0 {
		n, err := s.Retention.Cleanup(s.Keep)
		if err != nil {
			log.Printf("[WARN] history cleanup failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("[DEBUG] history cleanup removed %d runs", n)
		}
	}
}

// listenForManualTriggers runs requested scenarios one request at a time, conditions are not checked
func (s *Scheduler) listenForManualTriggers(ctx context.Context) {
	log.Printf("[INFO] manual trigger listener started")
	for {
		select {
		case <-ctx.Done():
			log.Printf("[INFO] manual trigger listener stopped: %v", ctx.Err())
			return
		case req, ok := <-s.ManualTrigger:
			if !ok {
				log.Printf("[INFO] manual trigger channel closed")
				return
			}
			log.Printf("[INFO] manual run requested, scenarios: %v", req.Scenarios)
			s.execute(ctx, req.Scenarios, "manual")
		}
	}
}

// waitForConditions checks if conditions are met and optionally waits for them.
// Returns true if the run should start, false if it should be skipped.
func (s *Scheduler) waitForConditions(ctx context.Context) bool {
	if s.ConditionChecker == nil || s.Conditions.Empty() {
		return true
	}

	met, reason := s.ConditionChecker.Check(ctx, s.Conditions)
	if met {
		return true
	}

	if s.MaxPostpone <= 0 {
		log.Printf("[INFO] run skipped, reason: %s", reason)
		return false
	}

	deadline := time.Now().Add(s.MaxPostpone)
	log.Printf("[INFO] run postponed, reason: %s, deadline: %s", reason, deadline.Format(time.RFC3339))

	checkInterval := s.CheckInterval
	if checkInterval <= 0 {
		checkInterval = 30 * time.Second
	}
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()
	deadlineTimer := time.NewTimer(s.MaxPostpone)
	defer deadlineTimer.Stop()

	for {
		select {
		case <-ticker.C:
			met, reason = s.ConditionChecker.Check(ctx, s.Conditions)
			if met {
				log.Printf("[INFO] conditions met, starting postponed run")
				return true
			}
			log.Printf("[DEBUG] conditions not met yet, reason: %s", reason)
		case <-deadlineTimer.C:
			log.Printf("[WARN] max postpone reached, starting run anyway")
			return true
		case <-ctx.Done():
			log.Printf("[INFO] postponed run canceled")
			return false
		}
	}
}
