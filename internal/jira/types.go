package jira

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedIssue marks an upstream issue record that lacks required fields.
var ErrMalformedIssue = errors.New("jira: malformed issue")

// User is the subset of a Jira user object we read.
type User struct {
	DisplayName string `json:"displayName"`
	AccountID   string `json:"accountId"`
}

// Status is an issue's workflow status.
type Status struct {
	Name           string `json:"name"`
	StatusCategory *struct {
		Name string `json:"name"`
	} `json:"statusCategory"`
}

// Issue is an issue record as returned by search, or nested as a subtask.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the standard fields we request plus any custom fields,
// kept raw in Custom and keyed by field id.
type IssueFields struct {
	Summary      string  `json:"summary"`
	Status       *Status `json:"status"`
	Assignee     *User   `json:"assignee"`
	TimeEstimate *int64  `json:"timeestimate"`
	Created      string  `json:"created"`
	Subtasks     []Issue `json:"subtasks"`

	Custom map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and captures non-null
// customfield_* values into Custom.
func (f *IssueFields) UnmarshalJSON(data []byte) error {
	type known IssueFields
	var k known
	if err := json.Unmarshal(data, &k); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*f = IssueFields(k)
	for name, raw := range all {
		if !strings.HasPrefix(name, "customfield_") || isNull(raw) {
			continue
		}
		if f.Custom == nil {
			f.Custom = make(map[string]json.RawMessage)
		}
		f.Custom[name] = raw
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// UserField returns the display name held by a user-picker custom field.
// ok is false when the field is absent, null or has no display name.
func (f IssueFields) UserField(id string) (name string, ok bool, err error) {
	raw, present := f.Custom[id]
	if !present {
		return "", false, nil
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return "", false, fmt.Errorf("jira: decode %s: %w", id, err)
	}
	return u.DisplayName, u.DisplayName != "", nil
}

// TextField renders a custom field as text. Strings, numbers and booleans
// are returned as is; select options use their value, other objects their name
// or display name.
func (f IssueFields) TextField(id string) (text string, ok bool, err error) {
	raw, present := f.Custom[id]
	if !present {
		return "", false, nil
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s, s != "", nil
	}

	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String(), true, nil
	}

	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return strconv.FormatBool(b), true, nil
	}

	var obj struct {
		Value       string `json:"value"`
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", false, fmt.Errorf("jira: decode %s: %w", id, err)
	}
	for _, candidate := range []string{obj.Value, obj.Name, obj.DisplayName} {
		if candidate != "" {
			return candidate, true, nil
		}
	}
	return "", false, nil
}

// Validate checks the fields every formatted issue depends on.
func (i Issue) Validate() error {
	switch {
	case i.ID == "":
		return fmt.Errorf("%w: missing id (key %q)", ErrMalformedIssue, i.Key)
	case i.Key == "":
		return fmt.Errorf("%w: missing key (id %s)", ErrMalformedIssue, i.ID)
	case i.Fields.Status == nil || i.Fields.Status.Name == "":
		return fmt.Errorf("%w: %s has no status name", ErrMalformedIssue, i.Key)
	}
	return nil
}

// SearchRequest defines parameters for JQL searches.
type SearchRequest struct {
	JQL        string
	StartAt    int
	MaxResults int
	Fields     []string
}

// SearchResult represents the Jira search response.
type SearchResult struct {
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
}

// Worklog is a worklog entry as returned by the issue worklog endpoint.
type Worklog struct {
	ID               string `json:"id"`
	IssueID          string `json:"issueId"`
	Comment          any    `json:"comment"`
	Created          string `json:"created"`
	Updated          string `json:"updated"`
	Started          string `json:"started"`
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
}

// WorklogPage is one page of an issue's worklogs.
type WorklogPage struct {
	StartAt    int       `json:"startAt"`
	MaxResults int       `json:"maxResults"`
	Total      int       `json:"total"`
	Worklogs   []Worklog `json:"worklogs"`
}

// hoursFromSeconds converts an optional estimate in seconds to hours.
func hoursFromSeconds(seconds *int64) float64 {
	if seconds == nil {
		return 0
	}
	return float64(*seconds) / 3600
}

// EstimateHours returns the remaining time estimate in hours, 0 if unset.
func (f IssueFields) EstimateHours() float64 {
	return hoursFromSeconds(f.TimeEstimate)
}

// StatusCategoryName returns the status category, or "" when unavailable.
func (f IssueFields) StatusCategoryName() string {
	if f.Status == nil || f.Status.StatusCategory == nil {
		return ""
	}
	return f.Status.StatusCategory.Name
}
