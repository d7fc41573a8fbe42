package httpapi

import (
	"errors"
	"fmt"
	"testing"

	"deepresearch/internal/research"
)

func TestResearchEventDataFieldPresence(t *testing.T) {
	report := &research.Report{ShortSummary: "s", MarkdownBody: "b", FollowUpQuestions: []string{"q"}}

	tests := []struct {
		name     string
		event    research.Event
		wantKeys []string
		skipKeys []string
	}{
		{
			name:     "planning started carries only type and run id",
			event:    research.Event{RunID: "r", Kind: research.EventPlanningStarted},
			wantKeys: []string{"type", "runId"},
			skipKeys: []string{"planSize", "searchIndex", "report", "code"},
		},
		{
			name:     "planning done carries plan size",
			event:    research.Event{RunID: "r", Kind: research.EventPlanningDone, PlanSize: 3},
			wantKeys: []string{"planSize"},
			skipKeys: []string{"searchIndex", "report"},
		},
		{
			name:     "search completed carries index and ok",
			event:    research.Event{RunID: "r", Kind: research.EventSearchCompleted, PlanSize: 3, SearchIndex: 1, SearchOK: true},
			wantKeys: []string{"planSize", "searchIndex", "ok"},
			skipKeys: []string{"report", "code"},
		},
		{
			name:     "done carries report",
			event:    research.Event{RunID: "r", Kind: research.EventDone, Report: report},
			wantKeys: []string{"report"},
			skipKeys: []string{"code", "planSize"},
		},
		{
			name:     "failed carries code and message",
			event:    research.Event{RunID: "r", Kind: research.EventFailed, Err: research.ErrEmptyQuery},
			wantKeys: []string{"code", "message"},
			skipKeys: []string{"report", "planSize"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data := researchEventData(tc.event)
			if data["runId"] != tc.event.RunID {
				t.Fatalf("expected run id %q, got %v", tc.event.RunID, data["runId"])
			}
			for _, key := range tc.wantKeys {
				if _, ok := data[key]; !ok {
					t.Fatalf("expected key %q in %v", key, data)
				}
			}
			for _, key := range tc.skipKeys {
				if _, ok := data[key]; ok {
					t.Fatalf("unexpected key %q in %v", key, data)
				}
			}
		})
	}
}

func TestFailureCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: research.ErrEmptyQuery, want: "invalid_query"},
		{err: fmt.Errorf("%w: model down", research.ErrPlanningFailed), want: "planning_failed"},
		{err: fmt.Errorf("%w: bad json", research.ErrWritingFailed), want: "writing_failed"},
		{err: errors.New("anything else"), want: "research_failed"},
		{err: nil, want: "research_failed"},
	}

	for _, tc := range tests {
		if got := failureCode(tc.err); got != tc.want {
			t.Fatalf("failureCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
