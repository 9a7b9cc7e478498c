package scenario

import (
	"context"
	"fmt"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/jenkins-e2e/app/pages"
)

//go:generate moq -out mocks/cleaner.go -pkg mocks -skip-ensure -fmt goimports . Cleaner

// Cleaner removes all jobs of the application
type Cleaner interface {
	DeleteAllJobs(ctx context.Context) (int, error)
}

// Setup prepares the application before each scenario: optional cleanup and login,
// then creates env.Project with a description and returns to the dashboard via the logo.
type Setup struct {
	Cleaner  Cleaner // nil disables cleanup
	User     string  // empty user skips login
	Password string
}

// Prepare runs the setup steps in the session of env
func (s Setup) Prepare(ctx context.Context, env *Env) error {
	if s.Cleaner != nil {
		n, err := s.Cleaner.DeleteAllJobs(ctx)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		if n > 0 {
			log.Printf("[DEBUG] cleanup removed %d jobs", n)
		}
	}

	var d *pages.Dashboard
	if s.User != "" {
		d = pages.OpenLogin(env.Page, env.BaseURL).Login(s.User, s.Password)
	} else {
		d = pages.Open(env.Page, env.BaseURL)
	}

	project := d.ClickNewItemMenuLink().
		TypeNewItemName(env.Project.Name).
		SelectFreestyleProject().
		ClickOKButton().
		TypeJobDescription(env.Project.Description).
		ClickSaveButton()
	if err := project.Err(); err != nil {
		return fmt.Errorf("can't create project %q: %w", env.Project.Name, err)
	}

	if err := pages.NewHeader(env.Page).ClickJenkinsLogo().Err(); err != nil {
		return fmt.Errorf("can't return to dashboard: %w", err)
	}
	return nil
}
