// Package notify delivers run reports via email
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"

	"github.com/umputun/jenkins-e2e/app/scenario"
)

// Params for the service
type Params struct {
	EnabledError      bool   // notify on runs with failed scenarios
	EnabledCompletion bool   // notify on runs with all scenarios passed
	ReportTemplate    string // path to custom html template, built-in template used if empty or broken
	HostName          string
}

// SendersParams defines email destination
type SendersParams struct {
	notify.SMTPParams
	FromEmail string
	ToEmails  []string
}

// Service sends reports to all destinations
type Service struct {
	Params
	destinations []notify.Notifier
	fromEmail    string
	toEmail      []string
}

// NewService makes service, returns nil if no destinations set
func NewService(p Params, sp SendersParams) *Service {
	if len(sp.ToEmails) == 0 {
		return nil
	}
	res := &Service{Params: p, fromEmail: sp.FromEmail, toEmail: sp.ToEmails}
	if res.fromEmail == "" {
		res.fromEmail = "jenkins-e2e@" + res.host()
	}
	res.destinations = append(res.destinations, notify.NewEmail(sp.SMTPParams))
	log.Printf("[INFO] notifications to %v, on error: %v, on completion: %v",
		sp.ToEmails, p.EnabledError, p.EnabledCompletion)
	return res
}

// Send message with subject to all destinations
func (s *Service) Send(ctx context.Context, subj, text string) error {
	var errs []error
	for _, dest := range s.destinations {
		if dest.Schema() != "mailto" {
			continue
		}
		to := fmt.Sprintf("mailto:%s?from=%s&subject=%s", strings.Join(s.toEmail, ","), s.fromEmail, url.QueryEscape(subj))
		if err := dest.Send(ctx, to, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsOnError returns true if service enabled for runs with failures
func (s *Service) IsOnError() bool { return s.EnabledError }

// IsOnCompletion returns true if service enabled for successful runs
func (s *Service) IsOnCompletion() bool { return s.EnabledCompletion }

// MakeReportHTML renders report with custom template, falling back to the built-in one
func (s *Service) MakeReportHTML(r scenario.Report) (string, error) {
	data := struct {
		scenario.Report
		Host string
	}{Report: r, Host: s.host()}

	if s.ReportTemplate != "" {
		res, err := s.execute(s.ReportTemplate, data)
		if err == nil {
			return res, nil
		}
		log.Printf("[WARN] can't use report template %s, fallback to default: %v", s.ReportTemplate, err)
	}

	t, err := template.New("report").Parse(defaultReportTemplate)
	if err != nil {
		return "", fmt.Errorf("can't parse default template: %w", err)
	}
	buf := bytes.Buffer{}
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}

func (s *Service) execute(file string, data any) (string, error) {
	body, err := os.ReadFile(file) //nolint:gosec // template path set by the operator
	if err != nil {
		return "", fmt.Errorf("can't read template: %w", err)
	}
	t, err := template.New("custom").Parse(string(body))
	if err != nil {
		return "", fmt.Errorf("can't parse template: %w", err)
	}
	buf := bytes.Buffer{}
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}

func (s *Service) host() string {
	if s.HostName != "" {
		return s.HostName
	}
	if h, err := os.Hostname(); err == nil {
		return h
	}
	return "unknown"
}

const defaultReportTemplate = `<!DOCTYPE html>
<html>
	<head>
		<meta name="viewport" content="width=device-width" />
		<meta http-equiv="Content-Type" content="text/html; charset=UTF-8" />
		<style type="text/css">
			body {
				font-family: "Arial";
				font-size: 1.0em;
			}
			td, th {
				padding: 0.2em 0.6em;
				text-align: left;
			}
			pre {
				padding: 0.6em;
				font-size: 0.7em;
				background-color: #E8E2A0;
				font-family: "Menlo";
				white-space: pre-wrap;
				word-wrap: break-word;
			}
			.bold {
				color: #882828;
				font-weight: 900;
			}
			.passed {
				color: #287728;
			}
			.failed {
				color: #882828;
			}
		</style>
	</head>

	<body>
		<p>Run <span class="bold">{{.ID}}</span> on {{.Host}} against {{.BaseURL}}: {{.Summary}}</p>
		<ul>
			<li>Started: {{.StartedAt.Format "2006-01-02T15:04:05Z07:00"}}</li>
			<li>Seed: {{.Seed}}</li>
		</ul>
		<table>
			<tr><th>Scenario</th><th>Project</th><th>Status</th><th>Attempts</th></tr>
			{{range .Results}}
			<tr>
				<td>{{.ID}} | {{.Name}}</td>
				<td>{{.Project}}</td>
				<td class="{{.Status}}">{{.Status}}</td>
				<td>{{.Attempts}}</td>
			</tr>
			{{if .Error}}<tr><td colspan="4"><pre>{{.Error}}</pre></td></tr>{{end}}
			{{end}}
		</table>
	</body>
</html>
`
