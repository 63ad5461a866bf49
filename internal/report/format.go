package report

import (
	"github.com/ylchen07/worklog-dashboard/internal/config"
	"github.com/ylchen07/worklog-dashboard/internal/jira"
	"github.com/ylchen07/worklog-dashboard/internal/worklog"
)

// Formatter maps raw Jira issues onto dashboard fields.
type Formatter struct {
	fields config.FieldConfig
}

// NewFormatter returns a Formatter reading people and billing data from the
// given custom field ids.
func NewFormatter(fields config.FieldConfig) Formatter {
	return Formatter{fields: fields}
}

// Format validates raw and converts it. Optional text the tracker left empty
// is reported as worklog.Missing; an absent estimate is reported as zero hours.
func (f Formatter) Format(raw jira.Issue) (worklog.Fields, error) {
	if err := raw.Validate(); err != nil {
		return worklog.Fields{}, err
	}

	out := worklog.Fields{
		ID:             raw.ID,
		Key:            raw.Key,
		Name:           orMissing(raw.Fields.Summary, raw.Fields.Summary != ""),
		Assignee:       worklog.Missing,
		Status:         raw.Fields.Status.Name,
		StatusCategory: raw.Fields.StatusCategoryName(),
		TimeEstimated:  raw.Fields.EstimateHours(),
		Created:        raw.Fields.Created,
	}
	if a := raw.Fields.Assignee; a != nil && a.DisplayName != "" {
		out.Assignee = a.DisplayName
	}

	people := []struct {
		id  string
		dst *string
	}{
		{f.fields.TeamLead, &out.TeamLead},
		{f.fields.QA, &out.QA},
		{f.fields.Developer, &out.Developer},
	}
	for _, p := range people {
		name, ok, err := raw.Fields.UserField(p.id)
		if err != nil {
			return worklog.Fields{}, err
		}
		*p.dst = orMissing(name, ok)
	}

	billable, ok, err := raw.Fields.TextField(f.fields.Billable)
	if err != nil {
		return worklog.Fields{}, err
	}
	out.Billable = orMissing(billable, ok)

	return out, nil
}

// requestFields lists the issue fields Format reads.
func (f Formatter) requestFields() []string {
	fields := []string{"summary", "status", "assignee", "timeestimate", "created", "subtasks"}
	for _, id := range []string{f.fields.TeamLead, f.fields.QA, f.fields.Developer, f.fields.Billable} {
		if id != "" {
			fields = append(fields, id)
		}
	}
	return fields
}

func orMissing(value string, ok bool) string {
	if !ok {
		return worklog.Missing
	}
	return value
}
