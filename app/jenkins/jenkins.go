// Package jenkins implements a small HTTP client to the application under test.
// It is used out of the browser: readiness checks, status probes and resetting the
// environment by deleting existing jobs before a scenario.
package jenkins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
)

// Params defines client options
type Params struct {
	BaseURL string
	User    string
	Token   string // api token or password, used with User for basic auth
	Timeout time.Duration
}

// Client talks to the application HTTP API
type Client struct {
	Params
	http *http.Client
}

// Job is an entry of the jobs list
type Job struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type crumb struct {
	Crumb             string `json:"crumb"`
	CrumbRequestField string `json:"crumbRequestField"`
}

// New makes a client, cookies are kept between calls as crumbs are bound to the session
func New(p Params) *Client {
	if p.Timeout == 0 {
		p.Timeout = 10 * time.Second
	}
	p.BaseURL = strings.TrimSuffix(p.BaseURL, "/")
	jar, _ := cookiejar.New(nil) // never fails without options
	return &Client{Params: p, http: &http.Client{Timeout: p.Timeout, Jar: jar}}
}

// Status makes GET request to path with query and returns response status code
func (c *Client) Status(ctx context.Context, path string, query url.Values) (int, error) {
	resp, err := c.do(ctx, http.MethodGet, c.url(path, query), nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

// WaitReady polls the login page until it responds with 200, up to attempts times
func (c *Client) WaitReady(ctx context.Context, attempts int, delay time.Duration) error {
	rptr := repeater.New(&strategy.FixedDelay{Repeats: attempts, Delay: delay})
	err := rptr.Do(ctx, func() error {
		code, err := c.Status(ctx, "/login", nil)
		if err != nil {
			return err
		}
		if code != http.StatusOK {
			return fmt.Errorf("unexpected status %d", code)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s is not ready: %w", c.BaseURL, err)
	}
	log.Printf("[DEBUG] %s is ready", c.BaseURL)
	return nil
}

// Jobs lists top level jobs
func (c *Client) Jobs(ctx context.Context) ([]Job, error) {
	resp, err := c.do(ctx, http.MethodGet, c.url("/api/json", url.Values{"tree": {"jobs[name,url]"}}), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("can't list jobs, status %d", resp.StatusCode)
	}

	var res struct {
		Jobs []Job `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("can't decode jobs: %w", err)
	}
	return res.Jobs, nil
}

// DeleteJob removes a job by name
func (c *Client) DeleteJob(ctx context.Context, name string) error {
	headers, err := c.crumbHeaders(ctx)
	if err != nil {
		return err
	}

	resp, err := c.do(ctx, http.MethodPost, c.url("/job/"+url.PathEscape(name)+"/doDelete", nil), headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	// the application redirects to the dashboard after deletion
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("can't delete job %q, status %d", name, resp.StatusCode)
	}
	return nil
}

// DeleteAllJobs removes every top level job and returns the number of removed jobs
func (c *Client) DeleteAllJobs(ctx context.Context) (int, error) {
	jobs, err := c.Jobs(ctx)
	if err != nil {
		return 0, err
	}
	var errs []error
	deleted := 0
	for _, j := range jobs {
		if err := c.DeleteJob(ctx, j.Name); err != nil {
			errs = append(errs, err)
			continue
		}
		deleted++
	}
	if deleted > 0 {
		log.Printf("[DEBUG] deleted %d jobs", deleted)
	}
	return deleted, errors.Join(errs...)
}

// crumbHeaders returns csrf crumb header, empty if crumbs are disabled on the server
func (c *Client) crumbHeaders(ctx context.Context) (http.Header, error) {
	resp, err := c.do(ctx, http.MethodGet, c.url("/crumbIssuer/api/json", nil), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return http.Header{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("can't get crumb, status %d", resp.StatusCode)
	}

	var cr crumb
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("can't decode crumb: %w", err)
	}
	h := http.Header{}
	h.Set(cr.CrumbRequestField, cr.Crumb)
	return h, nil
}

func (c *Client) url(path string, query url.Values) string {
	res := c.BaseURL + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		res += "?" + query.Encode()
	}
	return res
}

func (c *Client) do(ctx context.Context, method, u string, headers http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("can't make request %s %s: %w", method, u, err)
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	if c.User != "" {
		req.SetBasicAuth(c.User, c.Token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, u, err)
	}
	return resp, nil
}
