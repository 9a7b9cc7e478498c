// Package pages implements page objects for the job dashboard. Each type wraps the locators
// and actions of one screen. Actions return the page object of the screen the browser is on
// after the action, so a chain of calls follows the navigation of the application.
//
// Page objects keep the first error (sticky error); after a failure all further actions
// are skipped, the error travels through the returned page objects and is reported by Err.
package pages

import (
	"fmt"
	"regexp"

	"github.com/playwright-community/playwright-go"
)

// Screen is a page object bound to one screen of the application
type Screen interface {
	Name() string
	Err() error
}

const (
	mainPanel        = "#main-panel"
	dashboardMarker  = "#projectstatus, .empty-state-block"
	dialogBox        = "dialog.jenkins-dialog"
	dialogTitle      = "dialog.jenkins-dialog .jenkins-dialog__title"
	dialogQuestion   = "dialog.jenkins-dialog .jenkins-dialog__contents"
	dialogYesButton  = `dialog.jenkins-dialog button[data-id="ok"]`
	dialogCancelBttn = `dialog.jenkins-dialog button[data-id="cancel"]`
)

type base struct {
	page playwright.Page
	err  error
}

// Err returns the first failed action, if any
func (b *base) Err() error { return b.err }

// Page returns underlying playwright page
func (b *base) Page() playwright.Page { return b.page }

// do runs fn unless an earlier action failed
func (b *base) do(action string, fn func() error) {
	if b.err != nil {
		return
	}
	if err := fn(); err != nil {
		b.err = fmt.Errorf("%s: %w", action, err)
	}
}

func (b *base) click(action, selector string) {
	b.do(action, func() error { return b.page.Locator(selector).First().Click() })
}

func (b *base) waitVisible(action, selector string) {
	b.do(action, func() error {
		return b.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
			State: playwright.WaitForSelectorStateVisible,
		})
	})
}

func (b *base) waitHidden(action, selector string) {
	b.do(action, func() error {
		return b.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
			State: playwright.WaitForSelectorStateHidden,
		})
	})
}

// waitDashboard blocks until the dashboard shows either the job table or the empty state
func (b *base) waitDashboard(action string) {
	b.waitVisible(action, dashboardMarker)
}

func (b *base) toDashboard() *Dashboard { return &Dashboard{base: *b} }

func (b *base) toProject() *FreestyleProject { return &FreestyleProject{base: *b} }

func (b *base) toNewJob() *NewJob { return &NewJob{base: *b} }

// exactText matches an element whose whole text equals s, ignoring surrounding spaces
func exactText(s string) *regexp.Regexp {
	return regexp.MustCompile(`^\s*` + regexp.QuoteMeta(s) + `\s*$`)
}

// Open navigates to the dashboard of the application at baseURL
func Open(page playwright.Page, baseURL string) *Dashboard {
	d := &Dashboard{base: base{page: page}}
	d.do("open dashboard", func() error {
		_, err := page.Goto(baseURL)
		return err
	})
	d.waitDashboard("wait for dashboard")
	return d
}
