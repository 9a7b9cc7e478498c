// Package fixtures provides literal test data for scenarios and a seeded generator of projects.
// Default fixtures are embedded, an optional YAML file may override any of them.
package fixtures

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Data is a read-only set of literals used by scenarios
type Data struct {
	UserStatusEndpoint  string              `yaml:"user_status_endpoint" json:"user_status_endpoint" jsonschema:"description=path of the status endpoint queried after deletion"`
	UserStatusParams    string              `yaml:"user_status_params" json:"user_status_params" jsonschema:"description=query string for the status endpoint without cache buster"`
	ProjectName         string              `yaml:"project_name" json:"project_name" jsonschema:"description=name of the project created from fixtures"`
	ProjectDescription  string              `yaml:"project_description" json:"project_description" jsonschema:"description=description of the project created from fixtures"`
	ConfirmationMessage ConfirmationMessage `yaml:"confirmation_message" json:"confirmation_message"`
}

// ConfirmationMessage holds the expected texts of the delete confirmation dialog
type ConfirmationMessage struct {
	Title    string `yaml:"title" json:"title" jsonschema:"description=dialog title"`
	Question string `yaml:"question" json:"question" jsonschema:"description=question prefix followed by the quoted project name"`
}

// Project is a job record created through the UI
type Project struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Load returns embedded defaults merged with the optional file at path.
// Empty path means defaults only.
func Load(path string) (Data, error) {
	var res Data
	if err := yaml.Unmarshal(defaultFixtures, &res); err != nil {
		return Data{}, fmt.Errorf("can't parse embedded fixtures: %w", err)
	}
	if path == "" {
		return res, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from cli
	if err != nil {
		return Data{}, fmt.Errorf("can't read fixtures %s: %w", path, err)
	}
	// unmarshal on top of defaults, absent keys keep default values
	if err := yaml.Unmarshal(data, &res); err != nil {
		return Data{}, fmt.Errorf("can't parse fixtures %s: %w", path, err)
	}
	if err := res.validate(); err != nil {
		return Data{}, fmt.Errorf("invalid fixtures %s: %w", path, err)
	}
	return res, nil
}

// DeleteQuestion returns the expected confirmation question for a project name
func (d Data) DeleteQuestion(name string) string {
	return fmt.Sprintf("%s ‘%s’?", d.ConfirmationMessage.Question, name)
}

// StatusQuery returns the status endpoint query with a cache buster set to ts in milliseconds
func (d Data) StatusQuery(ts time.Time) (url.Values, error) {
	q, err := url.ParseQuery(d.UserStatusParams)
	if err != nil {
		return nil, fmt.Errorf("bad status params %q: %w", d.UserStatusParams, err)
	}
	q.Set("_", strconv.FormatInt(ts.UnixMilli(), 10))
	return q, nil
}

func (d Data) validate() error {
	switch {
	case d.UserStatusEndpoint == "":
		return fmt.Errorf("user_status_endpoint is empty")
	case d.ProjectName == "":
		return fmt.Errorf("project_name is empty")
	case d.ConfirmationMessage.Title == "":
		return fmt.Errorf("confirmation_message.title is empty")
	case d.ConfirmationMessage.Question == "":
		return fmt.Errorf("confirmation_message.question is empty")
	}
	return nil
}
