// Package scenario defines the delete-project scenarios and the runner executing them.
// Every scenario starts in a fresh browser session on the dashboard with a newly created
// freestyle project (see Setup) and drives the application through page objects.
package scenario

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/umputun/jenkins-e2e/app/fixtures"
)

// Env is everything a scenario body can use
type Env struct {
	Ctx     context.Context
	Page    playwright.Page
	Request playwright.APIRequestContext // shares cookies with Page
	BaseURL string
	Data    fixtures.Data
	Project fixtures.Project // created by setup before the scenario body
	Expect  playwright.PlaywrightAssertions
	Now     func() time.Time
}

// Scenario is a single named check
type Scenario struct {
	ID        string
	Name      string
	Run       func(env *Env) error
	Exclusive bool // expects the listing to hold only its own project
}

// String returns id and name as shown in listings
func (s Scenario) String() string { return s.ID + " | " + s.Name }

// All returns all known scenarios in declaration order
func All() []Scenario {
	return []Scenario{
		{ID: "TC_01.004.01", Name: "Created project is listed on Dashboard once", Run: projectListedOnce},
		{ID: "TC_01.004.03", Name: "Saved description is shown on project page", Run: descriptionSaved},
		{ID: "TC_01.004.05", Name: "Cancel project deletion from project page", Run: cancelDeletionFromProjectPage, Exclusive: true},
		{ID: "TC_01.004.10", Name: "Delete project via dropdown menu", Run: deleteViaItemDropdown, Exclusive: true},
		{ID: "TC_01.004.11", Name: "Cancel project deletion via dropdown menu", Run: cancelDeletionViaItemDropdown},
		{ID: "TC_01.004.14", Name: "Delete project from project page", Run: deleteFromProjectPage, Exclusive: true},
		{ID: "TC_01.004.15", Name: "Cancel project deletion via table chevron", Run: cancelDeletionViaTableChevron},
		{ID: "TC_01.004.04", Name: "Delete project created from fixtures", Run: deleteFixtureProject},
		{ID: "TC_01.004.17", Name: "Dashboard shows welcome after the only project is deleted", Run: deleteOnlyProject, Exclusive: true},
		{ID: "TC_01.004.07", Name: "Delete dialog from dropdown has question and buttons", Run: dropdownDialogContent},
		{ID: "TC_01.004.12", Name: "Delete dialog from project page has title and question", Run: projectDialogContent},
		{ID: "TC_01.004.02", Name: "Deleted project is gone and endpoints answer 200", Run: deleteAndProbe},
	}
}

// Select returns scenarios with given ids, in the order of ids. Empty ids select all scenarios.
func Select(ids []string) ([]Scenario, error) {
	all := All()
	if len(ids) == 0 {
		return all, nil
	}
	byID := make(map[string]Scenario, len(all))
	for _, s := range all {
		byID[s.ID] = s
	}
	res := make([]Scenario, 0, len(ids))
	var unknown []string
	for _, id := range ids {
		s, ok := byID[strings.TrimSpace(id)]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		res = append(res, s)
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown scenarios: %s", strings.Join(unknown, ", "))
	}
	return res, nil
}

// CheckConcurrency reports scenarios which can't share the application with parallel ones.
// With cleanup any parallel scenario loses its project to the cleanup of another one,
// without cleanup exclusive scenarios see projects of the others.
func CheckConcurrency(scenarios []Scenario, concurrency int, cleanup bool) error {
	if concurrency <= 1 || len(scenarios) <= 1 {
		return nil
	}
	if cleanup {
		return fmt.Errorf("concurrency %d can't be used with cleanup, it deletes projects of running scenarios", concurrency)
	}
	var ids []string
	for _, s := range scenarios {
		if s.Exclusive {
			ids = append(ids, s.ID)
		}
	}
	if len(ids) > 0 {
		return fmt.Errorf("concurrency %d can't be used with %s, they expect no other projects listed",
			concurrency, strings.Join(ids, ", "))
	}
	return nil
}

func (e *Env) ctx() context.Context {
	if e.Ctx == nil {
		return context.Background()
	}
	return e.Ctx
}

// status makes GET request to path with query through the browser request context
func (e *Env) status(path, query string) (int, error) {
	u := strings.TrimSuffix(e.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
	if query != "" {
		u += "?" + query
	}
	ctx := e.ctx()
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("request %s: %w", u, err)
	}
	var opts playwright.APIRequestContextGetOptions
	if deadline, ok := ctx.Deadline(); ok {
		opts.Timeout = playwright.Float(float64(time.Until(deadline).Milliseconds()))
	}
	resp, err := e.Request.Get(u, opts)
	if err != nil {
		return 0, fmt.Errorf("request %s: %w", u, err)
	}
	defer func() { _ = resp.Dispose() }()
	return resp.Status(), nil
}

// expectOK fails unless path answers with 200
func (e *Env) expectOK(path, query string) error {
	code, err := e.status(path, query)
	if err != nil {
		return err
	}
	if code != http.StatusOK {
		return fmt.Errorf("expected status 200 for %s, got %d", path, code)
	}
	return nil
}
