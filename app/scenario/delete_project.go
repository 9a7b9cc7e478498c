package scenario

import (
	"fmt"

	"github.com/playwright-community/playwright-go"

	"github.com/umputun/jenkins-e2e/app/pages"
)

// check is a named assertion, evaluated lazily by verify
type check struct {
	what string
	fn   func() error
}

// verify runs checks in order and returns the first failure, stops once the run is canceled
func (e *Env) verify(checks ...check) error {
	for _, c := range checks {
		if err := e.ctx().Err(); err != nil {
			return fmt.Errorf("%s: %w", c.what, err)
		}
		if err := c.fn(); err != nil {
			return fmt.Errorf("%s: %w", c.what, err)
		}
	}
	return nil
}

func projectListedOnce(env *Env) error {
	d := pages.NewDashboard(env.Page)
	return env.verify(
		check{"project listed once", func() error { return env.Expect.Locator(d.JobName(env.Project.Name)).ToHaveCount(1) }},
	)
}

func descriptionSaved(env *Env) error {
	project := pages.NewDashboard(env.Page).ClickJobName(env.Project.Name)
	if err := project.Err(); err != nil {
		return err
	}
	return env.verify(
		check{"headline", func() error { return env.Expect.Locator(project.JobHeadline()).ToContainText(env.Project.Name) }},
		check{"description", func() error {
			return env.Expect.Locator(project.JobDescription()).ToHaveText(env.Project.Description)
		}},
	)
}

func cancelDeletionFromProjectPage(env *Env) error {
	d := pages.NewDashboard(env.Page).
		ClickJobName(env.Project.Name).
		ClickDeleteMenuItem().
		ClickCancelButton().
		ClickDashboardBreadcrumbsLink()
	if err := d.Err(); err != nil {
		return err
	}
	return env.verify(
		check{"only project listed", func() error { return env.Expect.Locator(d.AllJobNames()).ToHaveText(env.Project.Name) }},
	)
}

func deleteViaItemDropdown(env *Env) error {
	d := pages.NewDashboard(env.Page).
		HoverJobTitleLink().
		ClickJobTableDropdownChevron().
		ClickDeleteProjectDropdownMenuItem().
		ClickYesButton()
	if err := d.Err(); err != nil {
		return err
	}
	return env.verify(
		check{"project gone", func() error {
			return env.Expect.Locator(d.MainPanel().GetByText(env.Project.Name, playwright.LocatorGetByTextOptions{
				Exact: playwright.Bool(true),
			})).ToHaveCount(0)
		}},
		check{"welcome headline", func() error { return env.Expect.Locator(d.WelcomeToJenkinsHeadline()).ToBeVisible() }},
	)
}

func cancelDeletionViaItemDropdown(env *Env) error {
	d := pages.NewDashboard(env.Page).
		HoverJobTitleLink().
		ClickProjectChevronIcon(env.Project.Name).
		ClickDeleteProjectDropdownMenuItem()
	if err := d.Err(); err != nil {
		return err
	}
	if err := env.verify(
		check{"cancel button", func() error { return env.Expect.Locator(d.CancelButton()).ToBeVisible() }},
	); err != nil {
		return err
	}

	if err := d.ClickCancelButton().Err(); err != nil {
		return err
	}
	return env.verify(
		check{"item name", func() error { return env.Expect.Locator(d.JobName(env.Project.Name)).ToHaveCount(1) }},
		check{"item visible", func() error { return env.Expect.Locator(d.JobName(env.Project.Name)).ToBeVisible() }},
	)
}

func deleteFromProjectPage(env *Env) error {
	project := pages.NewDashboard(env.Page).ClickJobTitleLink()
	if err := project.Err(); err != nil {
		return err
	}
	if err := env.verify(
		check{"headline visible", func() error { return env.Expect.Locator(project.JobHeadline()).ToBeVisible() }},
		check{"headline text", func() error {
			return env.Expect.Locator(project.JobHeadline()).ToContainText(env.Project.Name)
		}},
	); err != nil {
		return err
	}

	d := project.ClickDeleteMenuItem().ClickYesButton()
	if err := d.Err(); err != nil {
		return err
	}
	return env.verify(
		check{"project gone", func() error { return env.Expect.Locator(d.JobName(env.Project.Name)).ToHaveCount(0) }},
		check{"welcome headline", func() error { return env.Expect.Locator(d.WelcomeToJenkinsHeadline()).ToBeVisible() }},
	)
}

func cancelDeletionViaTableChevron(env *Env) error {
	d := pages.NewDashboard(env.Page).
		HoverJobTitleLink().
		ClickJobTableDropdownChevron().
		ClickDeleteProjectDropdownMenuItem().
		ClickCancelButton()
	if err := d.Err(); err != nil {
		return err
	}
	return env.verify(
		check{"table lists project", func() error { return env.Expect.Locator(d.JobTable()).ToContainText(env.Project.Name) }},
		check{"table visible", func() error { return env.Expect.Locator(d.JobTable()).ToBeVisible() }},
	)
}

func deleteFixtureProject(env *Env) error {
	name := env.Data.ProjectName
	d := pages.NewDashboard(env.Page).
		ClickNewItemMenuLink().
		TypeNewItemName(name).
		SelectFreestyleProject().
		ClickOKButton().
		TypeJobDescription(env.Data.ProjectDescription).
		ClickSaveButton().
		ClickDeleteMenuItem().
		ClickYesButton()
	if err := d.Err(); err != nil {
		return err
	}
	return env.verify(
		check{"fixture project gone", func() error { return env.Expect.Locator(d.JobName(name)).ToHaveCount(0) }},
		check{"setup project kept", func() error { return env.Expect.Locator(d.JobName(env.Project.Name)).ToHaveCount(1) }},
	)
}

func deleteOnlyProject(env *Env) error {
	d := pages.NewDashboard(env.Page).
		ClickJobName(env.Project.Name).
		ClickDeleteMenuItem().
		ClickYesButton()
	if err := d.Err(); err != nil {
		return err
	}
	return env.verify(
		check{"welcome headline", func() error { return env.Expect.Locator(d.WelcomeToJenkinsHeadline()).ToBeVisible() }},
	)
}

func dropdownDialogContent(env *Env) error {
	d := pages.NewDashboard(env.Page).
		OpenDropdownForItem(env.Project.Name).
		ClickDeleteProjectDropdownMenuItem()
	if err := d.Err(); err != nil {
		return err
	}
	question := env.Data.DeleteQuestion(env.Project.Name)
	return env.verify(
		check{"dialog exists", func() error { return env.Expect.Locator(d.DeleteProjectDialogBox()).ToHaveCount(1) }},
		check{"dialog question", func() error {
			return env.Expect.Locator(d.DeleteProjectDialogBox()).ToContainText(question)
		}},
		check{"yes button exists", func() error { return env.Expect.Locator(d.YesButton()).ToHaveCount(1) }},
		check{"yes button enabled", func() error { return env.Expect.Locator(d.YesButton()).ToBeEnabled() }},
		check{"cancel button exists", func() error { return env.Expect.Locator(d.CancelButton()).ToHaveCount(1) }},
		check{"cancel button enabled", func() error { return env.Expect.Locator(d.CancelButton()).ToBeEnabled() }},
	)
}

func projectDialogContent(env *Env) error {
	project := pages.NewDashboard(env.Page).
		ClickJobName(env.Project.Name).
		ClickDeleteMenuItem()
	if err := project.Err(); err != nil {
		return err
	}
	return env.verify(
		check{"dialog visible", func() error { return env.Expect.Locator(project.ConfirmationMessageDialog()).ToBeVisible() }},
		check{"dialog title", func() error {
			return env.Expect.Locator(project.ConfirmationMessageTitle()).ToHaveText(env.Data.ConfirmationMessage.Title)
		}},
		check{"dialog question", func() error {
			return env.Expect.Locator(project.ConfirmationMessageQuestion()).
				ToHaveText(env.Data.DeleteQuestion(env.Project.Name))
		}},
	)
}

func deleteAndProbe(env *Env) error {
	project := pages.NewDashboard(env.Page).ClickJobName(env.Project.Name)
	if err := project.Err(); err != nil {
		return err
	}
	if err := env.verify(
		check{"delete menu option", func() error { return env.Expect.Locator(project.DeleteProjectMenuOption()).ToBeVisible() }},
	); err != nil {
		return err
	}

	project = project.ClickDeleteMenuItem()
	if err := project.Err(); err != nil {
		return err
	}
	if err := env.verify(
		check{"dialog visible", func() error { return env.Expect.Locator(project.ConfirmationMessageDialog()).ToBeVisible() }},
		check{"dialog title", func() error {
			return env.Expect.Locator(project.ConfirmationMessageTitle()).ToHaveText(env.Data.ConfirmationMessage.Title)
		}},
		check{"yes button enabled", func() error {
			return env.Expect.Locator(pages.NewDashboard(env.Page).YesButton()).ToBeEnabled()
		}},
	); err != nil {
		return err
	}

	d := project.ClickYesButton()
	if err := d.Err(); err != nil {
		return err
	}

	query, err := env.Data.StatusQuery(env.Now())
	if err != nil {
		return err
	}
	return env.verify(
		check{"status endpoint", func() error { return env.expectOK(env.Data.UserStatusEndpoint, query.Encode()) }},
		check{"dashboard", func() error { return env.expectOK("/", "") }},
		check{"no span with project name", func() error {
			return env.Expect.Locator(env.Page.Locator("span").Filter(playwright.LocatorFilterOptions{
				HasText: env.Project.Name,
			})).ToHaveCount(0)
		}},
	)
}
