//go:build e2e

package e2e

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/jenkins-e2e/app/fixtures"
	"github.com/umputun/jenkins-e2e/app/scenario"
	"github.com/umputun/jenkins-e2e/app/store"
)

func newRunner(t *testing.T, st *store.Store) *scenario.Runner {
	t.Helper()
	r := &scenario.Runner{
		NewSession: func(u string) (scenario.Session, error) {
			sess, err := launcher.NewSession(u)
			if err != nil {
				return nil, err
			}
			return sess, nil
		},
		BaseURL:        baseURL,
		Data:           data,
		Generator:      fixtures.NewGenerator(20241224),
		Setup:          scenario.Setup{Cleaner: client, User: user, Password: password},
		ExpectTimeout:  expectTimeout,
		ScreenshotsDir: t.TempDir(),
	}
	if st != nil {
		r.Recorder = st
	}
	return r
}

func TestRunner_AllScenarios(t *testing.T) {
	resetJobs(t)
	st, err := store.New(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer st.Close()

	r := newRunner(t, st)
	r.Repeater = repeater.New(&strategy.FixedDelay{Repeats: 2, Delay: 100 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	rep, err := r.Run(ctx, scenario.All())
	require.NoError(t, err)

	for _, res := range rep.Results {
		assert.Equal(t, scenario.StatusPassed, res.Status, "%s | %s: %s (screenshot %s)", res.ID, res.Name, res.Error, res.Screenshot)
		assert.NotEmpty(t, res.Project)
	}
	assert.True(t, rep.OK(), rep.Summary())
	assert.Equal(t, uint64(20241224), rep.Seed)

	saved, err := st.Run(rep.ID)
	require.NoError(t, err)
	assert.Equal(t, rep.Passed(), saved.Passed())
	require.Len(t, saved.Results, len(scenario.All()))
	assert.Equal(t, "TC_01.004.01", saved.Results[0].ID)
	assert.Equal(t, "TC_01.004.02", saved.Results[len(saved.Results)-1].ID)
}

func TestRunner_LeftoverProjects(t *testing.T) {
	resetJobs(t)
	sess := newSession(t)
	leftover := fixtures.NewGenerator(99).NewProject()
	createProject(t, openDashboard(t, sess.Page()), leftover)

	exclusive, err := scenario.Select([]string{"TC_01.004.05", "TC_01.004.10", "TC_01.004.14", "TC_01.004.17"})
	require.NoError(t, err)

	t.Run("without cleanup", func(t *testing.T) {
		r := newRunner(t, nil)
		r.Setup = scenario.Setup{User: user, Password: password}
		rep, err := r.Run(context.Background(), exclusive[1:2])
		require.NoError(t, err)
		require.Len(t, rep.Results, 1)
		assert.Equal(t, scenario.StatusFailed, rep.Results[0].Status)
		assert.Contains(t, rep.Results[0].Error, "welcome headline")
	})

	t.Run("with cleanup", func(t *testing.T) {
		rep, err := newRunner(t, nil).Run(context.Background(), exclusive)
		require.NoError(t, err)
		assert.True(t, rep.OK(), "%+v", rep.Results)
		for _, res := range rep.Results {
			assert.Equal(t, 1, res.Attempts, res.ID)
		}
	})
}

func TestRunner_Selected(t *testing.T) {
	selected, err := scenario.Select([]string{"TC_01.004.12", "TC_01.004.07"})
	require.NoError(t, err)

	rep, err := newRunner(t, nil).Run(context.Background(), selected)
	require.NoError(t, err)
	require.Len(t, rep.Results, 2)
	assert.Equal(t, "TC_01.004.12", rep.Results[0].ID)
	assert.Equal(t, "TC_01.004.07", rep.Results[1].ID)
	assert.True(t, rep.OK(), "%+v", rep.Results)
}

func TestRunner_FailureScreenshot(t *testing.T) {
	failing := scenario.Scenario{ID: "TC_99.000.01", Name: "always fails", Run: func(env *scenario.Env) error {
		return errors.New("forced failure of " + env.Project.Name)
	}}

	r := newRunner(t, nil)
	r.Repeater = repeater.New(&strategy.FixedDelay{Repeats: 2, Delay: 10 * time.Millisecond})
	rep, err := r.Run(context.Background(), []scenario.Scenario{failing})
	require.NoError(t, err)

	require.Len(t, rep.Results, 1)
	res := rep.Results[0]
	assert.Equal(t, scenario.StatusFailed, res.Status)
	assert.Equal(t, 2, res.Attempts)
	assert.Contains(t, res.Error, "forced failure of "+res.Project)
	require.NotEmpty(t, res.Screenshot)
	assert.Equal(t, rep.ID+"-TC_99_000_01-2.png", filepath.Base(res.Screenshot))
	st, err := os.Stat(res.Screenshot)
	require.NoError(t, err)
	assert.Positive(t, st.Size())
	assert.False(t, rep.OK())
	assert.Equal(t, 1, rep.Failed())
}
