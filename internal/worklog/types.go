package worklog

// Missing is the value reported for optional text fields the tracker left empty.
const Missing = "null"

// Worklog is a single time entry recorded against an issue or subtask.
type Worklog struct {
	Comment          any    `json:"comment"`
	Created          string `json:"created"`
	Updated          string `json:"updated"`
	Started          string `json:"started"`
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
	IssueID          string `json:"issueId"`
}

// Fields holds the normalized, display-ready attributes of an issue.
type Fields struct {
	ID             string  `json:"id"`
	Key            string  `json:"key"`
	Name           string  `json:"IntegrationName"`
	Assignee       string  `json:"Assignee"`
	Status         string  `json:"Status"`
	StatusCategory string  `json:"StatusCategory,omitempty"`
	TeamLead       string  `json:"TeamLead"`
	QA             string  `json:"QA"`
	Developer      string  `json:"Developer"`
	TimeEstimated  float64 `json:"TimeEstimated"`
	Billable       string  `json:"Billable"`
	Created        string  `json:"created,omitempty"`
}

// Issue is a node of the epic → child issue → subtask tree.
//
// Epics carry ChildIssues, child issues carry Subtasks and subtasks carry
// neither. TotalWorklogTime is derived by RollUp and is expressed in hours.
type Issue struct {
	Fields
	Worklogs         []Worklog `json:"worklogs"`
	Subtasks         []Issue   `json:"subtasks,omitempty"`
	ChildIssues      []Issue   `json:"childIssues,omitempty"`
	TotalWorklogTime float64   `json:"totalWorklogTime"`
}

// Summary is the shallow view of an epic: its fields and its own logged hours.
type Summary struct {
	Fields
	TotalWorklogTime float64 `json:"totalWorklogTime"`
}
