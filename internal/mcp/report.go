package mcp

import (
	"github.com/wagiedev/linepipe-go/internal/session"
)

// Report is the JSON form of a session verdict returned by run_session.
type Report struct {
	ID          string       `json:"id"`
	Success     bool         `json:"success"`
	Summary     string       `json:"summary"`
	Requests    int          `json:"requests"`
	Successes   int          `json:"successes"`
	Missing     int          `json:"missing"`
	ExitCode    int          `json:"exit_code"`
	DurationMS  int64        `json:"duration_ms"`
	LogLines    int          `json:"log_lines"`
	OutputLines int          `json:"output_lines"`
	Responses   []ReportItem `json:"responses"`
}

// ReportItem is one request/response pair in a Report.
type ReportItem struct {
	Index    int    `json:"index"`
	Request  string `json:"request"`
	Response string `json:"response,omitempty"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// NewReport converts a session result into a Report.
func NewReport(result *session.Result) Report {
	report := Report{
		ID:          result.ID,
		Success:     result.Success(),
		Summary:     result.Summary(),
		Requests:    result.Requests,
		Successes:   result.Successes,
		Missing:     result.Missing,
		ExitCode:    result.Exit.Code,
		DurationMS:  result.Duration.Milliseconds(),
		LogLines:    result.LogLines,
		OutputLines: result.OutputLines,
		Responses:   make([]ReportItem, 0, len(result.Responses)),
	}

	for _, item := range result.Responses {
		ri := ReportItem{
			Index:    item.Index,
			Request:  item.Request,
			Response: item.Response,
			Success:  item.Success,
		}

		if item.Err != nil {
			ri.Error = item.Err.Error()
		}

		report.Responses = append(report.Responses, ri)
	}

	return report
}
