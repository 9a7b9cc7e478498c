package scenario

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"
	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/umputun/jenkins-e2e/app/fixtures"
)

//go:generate moq -out mocks/session.go -pkg mocks -skip-ensure -fmt goimports . Session
//go:generate moq -out mocks/recorder.go -pkg mocks -skip-ensure -fmt goimports . Recorder
//go:generate moq -out mocks/notifier.go -pkg mocks -skip-ensure -fmt goimports . Notifier
//go:generate moq -out mocks/repeater.go -pkg mocks -skip-ensure -fmt goimports . Repeater

// Runner executes scenarios, each attempt in a fresh browser session
type Runner struct {
	NewSession     SessionMaker
	BaseURL        string
	Data           fixtures.Data
	Generator      *fixtures.Generator // makes projects, time-seeded if nil
	Setup          Preparer            // runs before each attempt, nil skips setup
	Repeater       Repeater            // retries failed attempts, nil means a single attempt
	Concurrency    int
	ExpectTimeout  time.Duration
	ScreenshotsDir string // empty disables screenshots of failed attempts
	Recorder       Recorder
	Notifier       Notifier
	NotifyTimeout  time.Duration
	Now            func() time.Time
}

// Session is an isolated browser session
type Session interface {
	Page() playwright.Page
	Request() playwright.APIRequestContext
	Screenshot(path string) error
	Close() error
}

// SessionMaker opens a new session bound to baseURL
type SessionMaker func(baseURL string) (Session, error)

// Preparer brings the application to the starting state of a scenario
type Preparer interface {
	Prepare(ctx context.Context, env *Env) error
}

// Repeater repeats failed function
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// Recorder keeps reports
type Recorder interface {
	SaveReport(r Report) error
}

// Notifier delivers reports
type Notifier interface {
	Send(ctx context.Context, subj, text string) error
	IsOnError() bool
	IsOnCompletion() bool
	MakeReportHTML(r Report) (string, error)
}

// Run executes scenarios and returns the report. Failed scenarios are reported in the result,
// the error is returned for invalid input or if ctx is canceled before all scenarios finished.
func (r *Runner) Run(ctx context.Context, scenarios []Scenario) (Report, error) {
	if len(scenarios) == 0 {
		return Report{}, errors.New("no scenarios to run")
	}
	if r.NewSession == nil {
		return Report{}, errors.New("no session maker")
	}
	if r.Generator == nil {
		r.Generator = fixtures.NewGenerator(0)
	}

	rep := Report{ID: uuid.NewString(), BaseURL: r.BaseURL, Seed: r.Generator.Seed(), StartedAt: r.now()}
	log.Printf("[INFO] run %s started, %d scenarios, seed %d", rep.ID, len(scenarios), rep.Seed)

	rep.Results = make([]Result, len(scenarios))
	for i, sc := range scenarios {
		rep.Results[i] = Result{ID: sc.ID, Name: sc.Name, Status: StatusSkipped}
	}

	wg := syncs.NewSizedGroup(max(r.Concurrency, 1), syncs.Context(ctx))
	for i, sc := range scenarios {
		wg.Go(func(ctx context.Context) {
			rep.Results[i] = r.runScenario(ctx, rep.ID, sc)
		})
	}
	wg.Wait()
	rep.FinishedAt = r.now()
	log.Printf("[INFO] run %s finished, %s", rep.ID, rep.Summary())

	if r.Recorder != nil {
		if err := r.Recorder.SaveReport(rep); err != nil {
			log.Printf("[WARN] can't save report %s: %v", rep.ID, err)
		}
	}
	r.notify(ctx, rep)

	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("run %s interrupted: %w", rep.ID, err)
	}
	return rep, nil
}

// runScenario makes attempts until one passes or the repeater gives up
func (r *Runner) runScenario(ctx context.Context, runID string, sc Scenario) Result {
	res := Result{ID: sc.ID, Name: sc.Name, StartedAt: r.now()}
	attempt := func() error {
		res.Attempts++
		project := r.Generator.NewProject()
		res.Project = project.Name
		screenshot, err := r.attempt(ctx, sc, project, r.screenshotPath(runID, sc.ID, res.Attempts))
		res.Screenshot = screenshot
		if err != nil {
			log.Printf("[WARN] %s attempt %d failed: %v", sc.ID, res.Attempts, err)
		}
		return err
	}

	var err error
	if r.Repeater != nil {
		err = r.Repeater.Do(ctx, attempt)
	} else {
		err = attempt()
	}
	res.FinishedAt = r.now()

	if err != nil {
		res.Status, res.Error = StatusFailed, err.Error()
		log.Printf("[WARN] %s failed after %d attempt(s) in %v", sc, res.Attempts, res.Duration())
		return res
	}
	res.Status, res.Screenshot = StatusPassed, ""
	log.Printf("[INFO] %s passed in %v", sc, res.Duration())
	return res
}

// attempt runs setup and scenario body in a new session, returns screenshot path if taken on failure
func (r *Runner) attempt(ctx context.Context, sc Scenario, project fixtures.Project, screenshotPath string) (string, error) {
	sess, err := r.NewSession(r.BaseURL)
	if err != nil {
		return "", fmt.Errorf("can't open session: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Printf("[WARN] can't close session: %v", err)
		}
	}()

	env := &Env{
		Ctx:     ctx,
		Page:    sess.Page(),
		Request: sess.Request(),
		BaseURL: r.BaseURL,
		Data:    r.Data,
		Project: project,
		Expect:  r.assertions(),
		Now:     r.now,
	}

	err = r.runBody(ctx, sc, env)
	if err == nil {
		return "", nil
	}
	if screenshotPath == "" {
		return "", err
	}
	if serr := sess.Screenshot(screenshotPath); serr != nil {
		log.Printf("[WARN] %v", serr)
		return "", err
	}
	log.Printf("[DEBUG] screenshot of %s saved to %s", sc.ID, screenshotPath)
	return screenshotPath, err
}

func (r *Runner) runBody(ctx context.Context, sc Scenario, env *Env) error {
	if r.Setup != nil {
		if err := r.Setup.Prepare(ctx, env); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return sc.Run(env)
}

func (r *Runner) notify(ctx context.Context, rep Report) {
	if r.Notifier == nil {
		return
	}
	if rep.OK() && !r.Notifier.IsOnCompletion() || !rep.OK() && !r.Notifier.IsOnError() {
		return
	}

	html, err := r.Notifier.MakeReportHTML(rep)
	if err != nil {
		log.Printf("[WARN] can't make report html, %v", err)
		return
	}

	timeout := r.NotifyTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctxTimeout, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := r.Notifier.Send(ctxTimeout, "jenkins-e2e: "+rep.Summary(), html); err != nil {
		log.Printf("[WARN] can't send notification for run %s, %v", rep.ID, err)
	}
}

func (r *Runner) screenshotPath(runID, scenarioID string, attempt int) string {
	if r.ScreenshotsDir == "" {
		return ""
	}
	name := fmt.Sprintf("%s-%s-%d.png", runID, strings.ReplaceAll(scenarioID, ".", "_"), attempt)
	return filepath.Join(r.ScreenshotsDir, name)
}

func (r *Runner) assertions() playwright.PlaywrightAssertions {
	if r.ExpectTimeout <= 0 {
		return playwright.NewPlaywrightAssertions()
	}
	return playwright.NewPlaywrightAssertions(float64(r.ExpectTimeout.Milliseconds()))
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}
