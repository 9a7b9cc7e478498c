package pages

import (
	"github.com/playwright-community/playwright-go"
)

const (
	newItemName       = "#name"
	freestyleItemType = "li.hudson_model_FreeStyleProject"
	okButton          = "#ok-button"
)

// NewJob is the project creation form
type NewJob struct {
	base
}

// NewJobForm wraps a page already showing the creation form
func NewJobForm(page playwright.Page) *NewJob { return &NewJob{base: base{page: page}} }

// Name of the screen
func (n *NewJob) Name() string { return "new job" }

// TypeNewItemName fills the item name field
func (n *NewJob) TypeNewItemName(name string) *NewJob {
	n.do("type item name", func() error { return n.page.Locator(newItemName).Fill(name) })
	return n
}

// SelectFreestyleProject picks the freestyle project type
func (n *NewJob) SelectFreestyleProject() *NewJob {
	n.click("select freestyle project", freestyleItemType)
	return n
}

// ClickOKButton submits the form and waits for the configuration screen
func (n *NewJob) ClickOKButton() *FreestyleProject {
	n.do("click ok", func() error {
		btn := n.page.Locator(okButton)
		expect := playwright.NewPlaywrightAssertions()
		if err := expect.Locator(btn).ToBeEnabled(); err != nil {
			return err
		}
		return btn.Click()
	})
	n.waitVisible("wait for configuration", jobDescriptionField)
	return n.toProject()
}
