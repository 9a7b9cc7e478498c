package pages

import (
	"github.com/playwright-community/playwright-go"
)

const (
	jenkinsLogo   = "#jenkins-home-link"
	loginUser     = `input[name="j_username"]`
	loginPassword = `input[name="j_password"]`
	loginSubmit   = `button[name="Submit"]`
)

// Header is the navigation chrome shown on every screen
type Header struct {
	base
}

// NewHeader wraps header of the current page
func NewHeader(page playwright.Page) *Header { return &Header{base: base{page: page}} }

// Name of the screen
func (h *Header) Name() string { return "header" }

// ClickJenkinsLogo returns to the dashboard
func (h *Header) ClickJenkinsLogo() *Dashboard {
	h.click("click logo", jenkinsLogo)
	h.waitDashboard("wait for dashboard")
	return h.toDashboard()
}

// Login is the sign-in form of instances with security enabled
type Login struct {
	base
}

// OpenLogin navigates to the login form of the application at baseURL
func OpenLogin(page playwright.Page, baseURL string) *Login {
	l := &Login{base: base{page: page}}
	l.do("open login", func() error {
		_, err := page.Goto(baseURL + "/login")
		return err
	})
	l.waitVisible("wait for login form", loginUser)
	return l
}

// Name of the screen
func (l *Login) Name() string { return "login" }

// Login signs in and waits for the dashboard
func (l *Login) Login(user, password string) *Dashboard {
	l.do("type user", func() error { return l.page.Locator(loginUser).Fill(user) })
	l.do("type password", func() error { return l.page.Locator(loginPassword).Fill(password) })
	l.click("submit login", loginSubmit)
	l.waitDashboard("wait for dashboard")
	return l.toDashboard()
}
