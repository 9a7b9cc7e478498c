package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-pkgz/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/jenkins-e2e/app/notify/mocks"
	"github.com/umputun/jenkins-e2e/app/scenario"
)

func testReport() scenario.Report {
	ts := time.Date(2024, 12, 24, 11, 25, 32, 0, time.UTC)
	return scenario.Report{
		ID:         "8c1b0b6e",
		BaseURL:    "http://localhost:8080",
		Seed:       42,
		StartedAt:  ts,
		FinishedAt: ts.Add(time.Minute),
		Results: []scenario.Result{
			{ID: "TC_01.004.05", Name: "Cancel project deletion", Project: "sunt", Status: scenario.StatusPassed, Attempts: 1},
			{ID: "TC_01.004.10", Name: "Delete project via dropdown", Project: "quia <b>dolor</b>",
				Status: scenario.StatusFailed, Attempts: 2, Error: "click yes: timeout 10000ms exceeded"},
		},
	}
}

func TestService_EmptyDestinations(t *testing.T) {
	svc := NewService(Params{}, SendersParams{})
	require.Nil(t, svc)
}

func TestService_FromEmailDefault(t *testing.T) {
	svc := NewService(Params{HostName: "ci"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	assert.Equal(t, "jenkins-e2e@ci", svc.fromEmail)
	require.Len(t, svc.destinations, 1)
	assert.Equal(t, "mailto", svc.destinations[0].Schema())

	svc = NewService(Params{}, SendersParams{ToEmails: []string{"test@example.com"}, FromEmail: "qa@example.com"})
	assert.Equal(t, "qa@example.com", svc.fromEmail)
}

func TestMakeReportHTMLDefault(t *testing.T) {
	svc := NewService(Params{HostName: "ci"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	res, err := svc.MakeReportHTML(testReport())
	require.NoError(t, err)
	assert.Contains(t, res, `Run <span class="bold">8c1b0b6e</span> on ci against http://localhost:8080: 1 of 2 scenarios failed`)
	assert.Contains(t, res, "<td>TC_01.004.05 | Cancel project deletion</td>")
	assert.Contains(t, res, `<td class="failed">failed</td>`)
	assert.Contains(t, res, "<pre>click yes: timeout 10000ms exceeded</pre>")
	assert.Contains(t, res, "quia &lt;b&gt;dolor&lt;/b&gt;", "project names are escaped")
	assert.Contains(t, res, "<li>Seed: 42</li>")
}

func TestMakeReportHTMLCustom(t *testing.T) {
	svc := NewService(Params{ReportTemplate: "testfiles/report.tmpl"}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	res, err := svc.MakeReportHTML(testReport())
	require.NoError(t, err)
	assert.Contains(t, res, "Run 8c1b0b6e: 1 of 2 scenarios failed")
	assert.Contains(t, res, "TC_01.004.10 failed")

	for _, tmpl := range []string{"testfiles/report-bad.tmpl", "testfiles/not-found.tmpl"} {
		svc = NewService(Params{ReportTemplate: tmpl}, SendersParams{ToEmails: []string{"test@example.com"}})
		require.NotNil(t, svc)
		res, err = svc.MakeReportHTML(testReport())
		require.NoError(t, err)
		assert.Contains(t, res, "<td>TC_01.004.05 | Cancel project deletion</td>", "fallback to default for %s", tmpl)
	}
}

func TestService_IsOnCompletion(t *testing.T) {
	svc := NewService(Params{EnabledCompletion: true}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	assert.True(t, svc.IsOnCompletion())

	svc = NewService(Params{EnabledCompletion: false}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	assert.False(t, svc.IsOnCompletion())
}

func TestService_IsOnError(t *testing.T) {
	svc := NewService(Params{EnabledError: true}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	assert.True(t, svc.IsOnError())

	svc = NewService(Params{EnabledError: false}, SendersParams{ToEmails: []string{"test@example.com"}})
	require.NotNil(t, svc)
	assert.False(t, svc.IsOnError())
}

func TestService_Send(t *testing.T) {
	tests := []struct {
		name           string
		subj           string
		text           string
		destination    string
		mockSendErr    error
		expectedErrMsg string
	}{
		{
			name:        "Successful Send",
			subj:        "jenkins-e2e: all 12 scenarios passed",
			text:        "Test Text",
			destination: "mailto:to@example.com,to2@example.com?from=from@example.com&subject=jenkins-e2e%3A+all+12+scenarios+passed",
			mockSendErr: nil,
		},
		{
			name:           "Send Error",
			subj:           "Problem Subject",
			text:           "Problem Text",
			destination:    "mailto:to@example.com,to2@example.com?from=from@example.com&subject=Problem+Subject",
			mockSendErr:    errors.New("mock error"),
			expectedErrMsg: "mock error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailtoNotifier := &mocks.NotifierMock{
				SendFunc: func(_ context.Context, dest string, text string) error {
					assert.Equal(t, tt.text, text)
					assert.Equal(t, tt.destination, dest)
					return tt.mockSendErr
				},
				SchemaFunc: func() string {
					return "mailto"
				},
			}
			otherNotifier := &mocks.NotifierMock{SchemaFunc: func() string { return "slack" }}

			s := Service{
				destinations: []notify.Notifier{mailtoNotifier, otherNotifier},
				fromEmail:    "from@example.com",
				toEmail:      []string{"to@example.com", "to2@example.com"},
			}

			err := s.Send(context.Background(), tt.subj, tt.text)
			assert.Len(t, mailtoNotifier.SendCalls(), 1)
			assert.Empty(t, otherNotifier.SendCalls())
			if tt.expectedErrMsg == "" {
				require.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.expectedErrMsg)
			}
		})
	}
}
