// Package browser starts playwright with a chromium instance and hands out isolated sessions.
// Each session is a fresh browser context (incognito-like) with a single page,
// so no cookies or storage leak from one scenario into another.
package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/playwright-community/playwright-go"
)

// Params defines launcher options
type Params struct {
	Headless bool
	SlowMo   time.Duration
	Timeout  time.Duration // default timeout for page actions and assertions
	Install  bool          // install chromium and driver before start
	Width    int
	Height   int
}

// Launcher owns playwright and the browser process
type Launcher struct {
	Params
	pw      *playwright.Playwright
	browser playwright.Browser
}

// Session is an isolated browser context with one page
type Session struct {
	ctx     playwright.BrowserContext
	page    playwright.Page
	baseURL string
}

// New installs (optionally) and starts playwright, then launches chromium
func New(p Params) (*Launcher, error) {
	if p.Width == 0 || p.Height == 0 {
		p.Width, p.Height = 1280, 720
	}
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}

	if p.Install {
		if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	brow, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(p.Headless),
		SlowMo:   playwright.Float(float64(p.SlowMo.Milliseconds())),
	})
	if err != nil {
		if stopErr := pw.Stop(); stopErr != nil {
			log.Printf("[WARN] failed to stop playwright: %v", stopErr)
		}
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	log.Printf("[DEBUG] chromium %s launched, headless=%v", brow.Version(), p.Headless)

	return &Launcher{Params: p, pw: pw, browser: brow}, nil
}

// NewSession creates a new isolated context and page bound to baseURL
func (l *Launcher) NewSession(baseURL string) (*Session, error) {
	ctx, err := l.browser.NewContext(playwright.BrowserNewContextOptions{
		BaseURL:           playwright.String(baseURL),
		Viewport:          &playwright.Size{Width: l.Width, Height: l.Height},
		IgnoreHttpsErrors: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create context: %w", err)
	}
	ctx.SetDefaultTimeout(float64(l.Timeout.Milliseconds()))

	page, err := ctx.NewPage()
	if err != nil {
		if closeErr := ctx.Close(); closeErr != nil {
			log.Printf("[WARN] failed to close context: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return &Session{ctx: ctx, page: page, baseURL: baseURL}, nil
}

// Close closes the browser and stops playwright
func (l *Launcher) Close() error {
	var errs []error
	if l.browser != nil {
		if err := l.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if l.pw != nil {
		if err := l.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Page returns the session page
func (s *Session) Page() playwright.Page { return s.page }

// Request returns api request context sharing cookies with the page
func (s *Session) Request() playwright.APIRequestContext { return s.ctx.Request() }

// BaseURL returns the url relative navigation is resolved against
func (s *Session) BaseURL() string { return s.baseURL }

// Screenshot saves a full-page png to path, creating parent directories
func (s *Session) Screenshot(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to make screenshots dir: %w", err)
	}
	if _, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		return fmt.Errorf("failed to take screenshot: %w", err)
	}
	return nil
}

// Close closes the session context and its page
func (s *Session) Close() error {
	if err := s.ctx.Close(); err != nil {
		return fmt.Errorf("failed to close context: %w", err)
	}
	return nil
}
