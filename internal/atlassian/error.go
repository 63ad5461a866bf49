package atlassian

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 4 << 10

// Error represents a Jira REST error response.
type Error struct {
	StatusCode    int               `json:"-"`
	Message       string            `json:"message"`
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	switch {
	case e.Message != "":
		return fmt.Sprintf("atlassian: %d %s", e.StatusCode, e.Message)
	case len(e.ErrorMessages) > 0:
		return fmt.Sprintf("atlassian: %d %s", e.StatusCode, strings.Join(e.ErrorMessages, "; "))
	case len(e.Errors) > 0:
		fields := make([]string, 0, len(e.Errors))
		for field, msg := range e.Errors {
			fields = append(fields, field+": "+msg)
		}
		sort.Strings(fields)
		return fmt.Sprintf("atlassian: %d %s", e.StatusCode, strings.Join(fields, "; "))
	}

	return fmt.Sprintf("atlassian: %d", e.StatusCode)
}

func parseError(res *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
	errRes := &Error{StatusCode: res.StatusCode}
	if len(data) > 0 {
		_ = json.Unmarshal(data, errRes)
	}

	if errRes.Message == "" && len(errRes.ErrorMessages) == 0 && len(errRes.Errors) == 0 {
		errRes.Message = strings.TrimSpace(string(data))
	}

	return errRes
}
