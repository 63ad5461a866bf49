package worklog

const secondsPerHour = 3600

// Filter returns the worklogs whose started timestamp lies inside w, in
// their original order. Entries with an unparseable timestamp are dropped.
// The input slice is left untouched and the result is never nil.
func Filter(worklogs []Worklog, w Window) []Worklog {
	out := make([]Worklog, 0, len(worklogs))
	for _, wl := range worklogs {
		started, ok := ParseTimestamp(wl.Started)
		if !ok || !w.Contains(started) {
			continue
		}
		out = append(out, wl)
	}
	return out
}

// Hours sums the time spent across worklogs, in hours.
func Hours(worklogs []Worklog) float64 {
	var seconds int64
	for _, wl := range worklogs {
		seconds += wl.TimeSpentSeconds
	}
	return float64(seconds) / secondsPerHour
}

// RollUp filters the worklogs of issue and of every descendant to w and
// recomputes TotalWorklogTime bottom-up. The same function serves epics,
// child issues and subtasks. The returned tree shares no slices with the
// input.
func RollUp(issue Issue, w Window) Issue {
	out := issue
	out.Worklogs = Filter(issue.Worklogs, w)
	out.Subtasks = RollUpAll(issue.Subtasks, w)
	out.ChildIssues = RollUpAll(issue.ChildIssues, w)

	total := Hours(out.Worklogs)
	for _, st := range out.Subtasks {
		total += st.TotalWorklogTime
	}
	for _, child := range out.ChildIssues {
		total += child.TotalWorklogTime
	}
	out.TotalWorklogTime = total

	return out
}

// RollUpAll applies RollUp to each issue independently. A nil slice stays
// nil so absent children remain absent.
func RollUpAll(issues []Issue, w Window) []Issue {
	if issues == nil {
		return nil
	}
	out := make([]Issue, len(issues))
	for i, issue := range issues {
		out[i] = RollUp(issue, w)
	}
	return out
}

// Summarize reduces issue to its fields and the hours logged on the issue
// itself within w. Children are ignored.
func Summarize(issue Issue, w Window) Summary {
	return Summary{
		Fields:           issue.Fields,
		TotalWorklogTime: Hours(Filter(issue.Worklogs, w)),
	}
}
