package pages

import (
	"github.com/playwright-community/playwright-go"
)

const (
	newItemMenuLink        = `a[href$="/newJob"]`
	jobTable               = "#projectstatus"
	jobTitleLink           = "#projectstatus a.jenkins-table__link"
	jobNames               = "#projectstatus a.jenkins-table__link span"
	jobDropdownChevron     = "#projectstatus a.jenkins-table__link .jenkins-menu-dropdown-chevron"
	dropdownItem           = ".jenkins-dropdown__item"
	deleteProjectItemText  = "Delete Project"
	welcomeToJenkinsHeader = ".empty-state-block h1"
)

// Dashboard is the landing screen listing all projects
type Dashboard struct {
	base
}

// NewDashboard wraps a page already showing the dashboard
func NewDashboard(page playwright.Page) *Dashboard { return &Dashboard{base: base{page: page}} }

// Name of the screen
func (d *Dashboard) Name() string { return "dashboard" }

// AllJobNames locates names of all listed projects
func (d *Dashboard) AllJobNames() playwright.Locator { return d.page.Locator(jobNames) }

// JobName locates listed project names equal to name
func (d *Dashboard) JobName(name string) playwright.Locator {
	return d.page.Locator(jobNames).Filter(playwright.LocatorFilterOptions{HasText: exactText(name)})
}

// ItemName locates the name of the first listed project
func (d *Dashboard) ItemName() playwright.Locator { return d.page.Locator(jobNames).First() }

// JobTable locates the projects table
func (d *Dashboard) JobTable() playwright.Locator { return d.page.Locator(jobTable) }

// JobTitleLink locates links to listed projects
func (d *Dashboard) JobTitleLink() playwright.Locator { return d.page.Locator(jobTitleLink) }

// MainPanel locates the main content area
func (d *Dashboard) MainPanel() playwright.Locator { return d.page.Locator(mainPanel) }

// WelcomeToJenkinsHeadline locates the empty-state headline shown when no project exists
func (d *Dashboard) WelcomeToJenkinsHeadline() playwright.Locator {
	return d.page.Locator(welcomeToJenkinsHeader)
}

// DeleteProjectDialogBox locates the delete confirmation dialog
func (d *Dashboard) DeleteProjectDialogBox() playwright.Locator { return d.page.Locator(dialogBox) }

// YesButton locates the confirm button of the dialog
func (d *Dashboard) YesButton() playwright.Locator { return d.page.Locator(dialogYesButton) }

// CancelButton locates the cancel button of the dialog
func (d *Dashboard) CancelButton() playwright.Locator { return d.page.Locator(dialogCancelBttn) }

// ClickNewItemMenuLink opens the project creation form
func (d *Dashboard) ClickNewItemMenuLink() *NewJob {
	d.click("click new item", newItemMenuLink)
	d.waitVisible("wait for new item form", newItemName)
	return d.toNewJob()
}

// ClickJobName opens the project whose listed name is exactly name
func (d *Dashboard) ClickJobName(name string) *FreestyleProject {
	d.do("click job "+name, func() error {
		return d.jobLink(name).Click()
	})
	d.waitVisible("wait for project page", jobHeadline)
	return d.toProject()
}

// ClickJobTitleLink opens the first listed project
func (d *Dashboard) ClickJobTitleLink() *FreestyleProject {
	d.click("click job title", jobTitleLink)
	d.waitVisible("wait for project page", jobHeadline)
	return d.toProject()
}

// HoverJobTitleLink hovers over the first listed project, revealing its dropdown chevron
func (d *Dashboard) HoverJobTitleLink() *Dashboard {
	d.do("hover job title", func() error { return d.page.Locator(jobTitleLink).First().Hover() })
	return d
}

// ClickJobTableDropdownChevron opens the dropdown of the first listed project
func (d *Dashboard) ClickJobTableDropdownChevron() *Dashboard {
	d.click("click dropdown chevron", jobDropdownChevron)
	d.waitVisible("wait for dropdown", dropdownItem)
	return d
}

// ClickProjectChevronIcon opens the dropdown of the project name
func (d *Dashboard) ClickProjectChevronIcon(name string) *Dashboard {
	d.do("click chevron of "+name, func() error {
		return d.jobLink(name).Locator(".jenkins-menu-dropdown-chevron").Click()
	})
	d.waitVisible("wait for dropdown", dropdownItem)
	return d
}

// OpenDropdownForItem hovers over the project name and opens its dropdown
func (d *Dashboard) OpenDropdownForItem(name string) *Dashboard {
	d.do("hover "+name, func() error { return d.jobLink(name).Hover() })
	return d.ClickProjectChevronIcon(name)
}

// ClickDeleteProjectDropdownMenuItem picks delete in an opened dropdown and waits for the dialog
func (d *Dashboard) ClickDeleteProjectDropdownMenuItem() *Dashboard {
	d.do("click delete project item", func() error {
		return d.page.Locator(dropdownItem).Filter(playwright.LocatorFilterOptions{
			HasText: deleteProjectItemText,
		}).First().Click()
	})
	d.waitVisible("wait for delete dialog", dialogBox)
	return d
}

// ClickYesButton confirms deletion and waits for the reloaded dashboard
func (d *Dashboard) ClickYesButton() *Dashboard {
	d.click("click yes", dialogYesButton)
	d.waitHidden("wait for dialog to close", dialogBox)
	d.waitDashboard("wait for dashboard")
	return d
}

// ClickCancelButton dismisses the dialog, nothing is deleted
func (d *Dashboard) ClickCancelButton() *Dashboard {
	d.click("click cancel", dialogCancelBttn)
	d.waitHidden("wait for dialog to close", dialogBox)
	return d
}

func (d *Dashboard) jobLink(name string) playwright.Locator {
	return d.page.Locator(jobTitleLink).Filter(playwright.LocatorFilterOptions{HasText: exactText(name)})
}
