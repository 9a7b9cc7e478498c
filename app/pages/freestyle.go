package pages

import (
	"github.com/playwright-community/playwright-go"
)

const (
	saveButton            = `button[name="Submit"]`
	jobHeadline           = "#main-panel h1"
	jobDescription        = "#description"
	jobDescriptionField   = `textarea[name="description"]`
	breadcrumbsDashboard  = `#breadcrumbs a[href="/"]`
	addDescriptionButton  = `[href="editDescription"]`
	moveMenuItem          = `a[href$="/move"]`
	projectDestination    = `select[name="destination"]`
	moveButton            = `button[name="Submit"]`
	deleteProjectMenuItem = `a[data-url$="doDelete"]`
)

// FreestyleProject is the configuration and status screen of a freestyle project
type FreestyleProject struct {
	base
}

// NewFreestyleProject wraps a page already showing a project
func NewFreestyleProject(page playwright.Page) *FreestyleProject {
	return &FreestyleProject{base: base{page: page}}
}

// Name of the screen
func (f *FreestyleProject) Name() string { return "freestyle project" }

// JobHeadline locates the project headline
func (f *FreestyleProject) JobHeadline() playwright.Locator { return f.page.Locator(jobHeadline) }

// JobDescription locates the saved description
func (f *FreestyleProject) JobDescription() playwright.Locator { return f.page.Locator(jobDescription) }

// ProjectInfoSection locates the main content area
func (f *FreestyleProject) ProjectInfoSection() playwright.Locator { return f.page.Locator(mainPanel) }

// DeleteProjectMenuOption locates the delete item of the side panel
func (f *FreestyleProject) DeleteProjectMenuOption() playwright.Locator {
	return f.page.Locator(deleteProjectMenuItem)
}

// ConfirmationMessageDialog locates the delete confirmation dialog
func (f *FreestyleProject) ConfirmationMessageDialog() playwright.Locator {
	return f.page.Locator(dialogBox)
}

// ConfirmationMessageTitle locates the dialog title
func (f *FreestyleProject) ConfirmationMessageTitle() playwright.Locator {
	return f.page.Locator(dialogTitle)
}

// ConfirmationMessageQuestion locates the dialog question
func (f *FreestyleProject) ConfirmationMessageQuestion() playwright.Locator {
	return f.page.Locator(dialogQuestion)
}

// TypeJobDescription fills the description field
func (f *FreestyleProject) TypeJobDescription(text string) *FreestyleProject {
	f.do("type description", func() error { return f.page.Locator(jobDescriptionField).Fill(text) })
	return f
}

// ClickSaveButton saves the form and waits for the project page
func (f *FreestyleProject) ClickSaveButton() *FreestyleProject {
	f.click("click save", saveButton)
	f.waitVisible("wait for project page", jobHeadline)
	return f
}

// ClickAddDescriptionButton opens inline description editor
func (f *FreestyleProject) ClickAddDescriptionButton() *FreestyleProject {
	f.click("click add description", addDescriptionButton)
	f.waitVisible("wait for description field", jobDescriptionField)
	return f
}

// ClickMoveMenuItem opens the move form
func (f *FreestyleProject) ClickMoveMenuItem() *FreestyleProject {
	f.click("click move", moveMenuItem)
	f.waitVisible("wait for destination", projectDestination)
	return f
}

// SelectNewProjectDestination picks the destination folder in the move form
func (f *FreestyleProject) SelectNewProjectDestination(dest string) *FreestyleProject {
	f.do("select destination "+dest, func() error {
		_, err := f.page.Locator(projectDestination).SelectOption(playwright.SelectOptionValues{
			ValuesOrLabels: &[]string{dest},
		})
		return err
	})
	return f
}

// ClickMoveButton submits the move form
func (f *FreestyleProject) ClickMoveButton() *FreestyleProject {
	f.click("click move button", moveButton)
	f.waitVisible("wait for project page", jobHeadline)
	return f
}

// ClickDeleteMenuItem opens the delete confirmation dialog
func (f *FreestyleProject) ClickDeleteMenuItem() *FreestyleProject {
	f.click("click delete project", deleteProjectMenuItem)
	f.waitVisible("wait for delete dialog", dialogBox)
	return f
}

// ClickYesButton confirms deletion, the application returns to the dashboard
func (f *FreestyleProject) ClickYesButton() *Dashboard {
	f.click("click yes", dialogYesButton)
	f.waitDashboard("wait for dashboard")
	return f.toDashboard()
}

// ClickCancelButton dismisses the dialog and stays on the project
func (f *FreestyleProject) ClickCancelButton() *FreestyleProject {
	f.click("click cancel", dialogCancelBttn)
	f.waitHidden("wait for dialog to close", dialogBox)
	return f
}

// ClickDashboardBreadcrumbsLink goes back to the dashboard
func (f *FreestyleProject) ClickDashboardBreadcrumbsLink() *Dashboard {
	f.click("click dashboard breadcrumb", breadcrumbsDashboard)
	f.waitDashboard("wait for dashboard")
	return f.toDashboard()
}
