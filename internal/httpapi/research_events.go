package httpapi

import (
	"errors"

	"deepresearch/internal/research"
)

type reportResponse struct {
	ShortSummary      string   `json:"shortSummary"`
	MarkdownBody      string   `json:"markdownBody"`
	FollowUpQuestions []string `json:"followUpQuestions"`
}

// researchEventData maps one core event to the SSE payload the frontend
// renders. Field presence follows the event kind; the run id is on every
// payload so a client can correlate events with a single run.
func researchEventData(event research.Event) map[string]any {
	data := map[string]any{
		"type":  string(event.Kind),
		"runId": event.RunID,
	}

	switch event.Kind {
	case research.EventPlanningDone, research.EventSearchingStarted:
		data["planSize"] = event.PlanSize
	case research.EventSearchCompleted:
		data["planSize"] = event.PlanSize
		data["searchIndex"] = event.SearchIndex
		data["ok"] = event.SearchOK
	case research.EventDone:
		if event.Report != nil {
			data["report"] = reportResponse{
				ShortSummary:      event.Report.ShortSummary,
				MarkdownBody:      event.Report.MarkdownBody,
				FollowUpQuestions: event.Report.FollowUpQuestions,
			}
		}
	case research.EventFailed:
		data["code"] = failureCode(event.Err)
		if event.Err != nil {
			data["message"] = event.Err.Error()
		}
	}

	return data
}

func failureCode(err error) string {
	switch {
	case errors.Is(err, research.ErrEmptyQuery):
		return "invalid_query"
	case errors.Is(err, research.ErrPlanningFailed):
		return "planning_failed"
	case errors.Is(err, research.ErrWritingFailed):
		return "writing_failed"
	default:
		return "research_failed"
	}
}
