package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"deepresearch/internal/config"
	"deepresearch/internal/notify"
	"deepresearch/internal/research"
)

type stubPlanner struct {
	plan research.SearchPlan
	err  error
}

func (p stubPlanner) Plan(_ context.Context, _ string) (research.SearchPlan, error) {
	return p.plan, p.err
}

type stubSearcher struct {
	summary string
	err     error
}

func (s stubSearcher) Search(_ context.Context, _ research.SearchDirective) (string, error) {
	return s.summary, s.err
}

type stubWriter struct {
	report research.Report
	err    error
}

func (w stubWriter) Write(_ context.Context, _ string, _ []research.SearchOutcome) (research.Report, error) {
	return w.report, w.err
}

type stubMailer struct {
	sent chan notify.Email
}

func (m *stubMailer) Send(_ context.Context, email notify.Email) error {
	m.sent <- email
	return nil
}

func newTestHandler(planner research.Planner, searcher research.Searcher, writer research.Writer, mailer notify.Mailer) Handler {
	cfg := config.Config{ResearchTimeoutSeconds: 5}
	manager := research.NewManager(planner, searcher, writer, research.ManagerConfig{MaxSearches: 5})
	return NewHandler(cfg, manager, mailer)
}

func postResearch(t *testing.T, h Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/research", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Research(rec, req)
	return rec
}

func decodeSSEPayloads(t *testing.T, raw string) []map[string]any {
	t.Helper()
	var payloads []map[string]any
	for _, line := range strings.Split(raw, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &payload); err != nil {
			t.Fatalf("decode SSE payload %q: %v", line, err)
		}
		payloads = append(payloads, payload)
	}
	return payloads
}

func eventTypes(payloads []map[string]any) []string {
	types := make([]string, 0, len(payloads))
	for _, payload := range payloads {
		types = append(types, payload["type"].(string))
	}
	return types
}

func TestResearchStreamsFullEventSequence(t *testing.T) {
	h := newTestHandler(
		stubPlanner{plan: research.SearchPlan{Searches: []research.SearchDirective{
			{SearchTerm: "a", Reason: "first"},
			{SearchTerm: "b", Reason: "second"},
		}}},
		stubSearcher{summary: "summary"},
		stubWriter{report: research.Report{
			ShortSummary:      "short",
			MarkdownBody:      "# Report",
			FollowUpQuestions: []string{"next?"},
		}},
		nil,
	)

	rec := postResearch(t, h, `{"query":"renewable energy storage trends"}`)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	payloads := decodeSSEPayloads(t, rec.Body.String())
	types := eventTypes(payloads)
	want := []string{
		"planning_started", "planning_done", "searching_started",
		"search_completed", "search_completed",
		"writing_started", "done",
	}
	if len(types) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), types)
	}
	for i, kind := range want {
		if types[i] != kind {
			t.Fatalf("event %d: expected %q, got %v", i, kind, types)
		}
	}

	runID, _ := payloads[0]["runId"].(string)
	if runID == "" {
		t.Fatal("expected a run id on the first event")
	}
	for i, payload := range payloads {
		if payload["runId"] != runID {
			t.Fatalf("event %d has mismatched run id: %v", i, payload["runId"])
		}
	}

	done := payloads[len(payloads)-1]
	report, ok := done["report"].(map[string]any)
	if !ok {
		t.Fatalf("expected report on done event, got %v", done)
	}
	if report["shortSummary"] != "short" || report["markdownBody"] != "# Report" {
		t.Fatalf("unexpected report payload: %v", report)
	}
}

func TestResearchRejectsInvalidRequests(t *testing.T) {
	h := newTestHandler(stubPlanner{}, stubSearcher{}, stubWriter{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"query":`},
		{name: "unknown field", body: `{"query":"q","depth":3}`},
		{name: "missing query", body: `{}`},
		{name: "blank query", body: `{"query":"   "}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := postResearch(t, h, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Error.Code != "invalid_request" {
				t.Fatalf("unexpected error code %q", resp.Error.Code)
			}
		})
	}
}

func TestResearchPlanningFailureEndsStreamWithFailedEvent(t *testing.T) {
	h := newTestHandler(
		stubPlanner{err: errors.New("model unavailable")},
		stubSearcher{}, stubWriter{}, nil,
	)

	rec := postResearch(t, h, `{"query":"anything"}`)

	payloads := decodeSSEPayloads(t, rec.Body.String())
	if len(payloads) != 2 {
		t.Fatalf("expected 2 events, got %v", eventTypes(payloads))
	}
	failed := payloads[1]
	if failed["type"] != "failed" || failed["code"] != "planning_failed" {
		t.Fatalf("unexpected failed payload: %v", failed)
	}
	if msg, _ := failed["message"].(string); !strings.Contains(msg, "model unavailable") {
		t.Fatalf("expected cause in message, got %v", failed["message"])
	}
}

func TestResearchSearchFailuresDoNotFailTheRun(t *testing.T) {
	h := newTestHandler(
		stubPlanner{plan: research.SearchPlan{Searches: []research.SearchDirective{{SearchTerm: "a"}}}},
		stubSearcher{err: errors.New("search backend down")},
		stubWriter{report: research.Report{ShortSummary: "s", MarkdownBody: "b"}},
		nil,
	)

	rec := postResearch(t, h, `{"query":"q"}`)

	payloads := decodeSSEPayloads(t, rec.Body.String())
	types := eventTypes(payloads)
	if types[len(types)-1] != "done" {
		t.Fatalf("expected run to finish with done, got %v", types)
	}
	for _, payload := range payloads {
		if payload["type"] == "search_completed" && payload["ok"] != false {
			t.Fatalf("expected failed search marked ok=false, got %v", payload)
		}
	}
}

func TestResearchEmailsFinishedReport(t *testing.T) {
	mailer := &stubMailer{sent: make(chan notify.Email, 1)}
	h := newTestHandler(
		stubPlanner{plan: research.SearchPlan{}},
		stubSearcher{},
		stubWriter{report: research.Report{
			ShortSummary:      "s",
			MarkdownBody:      "# Report body",
			FollowUpQuestions: []string{"what next?"},
		}},
		mailer,
	)

	postResearch(t, h, `{"query":"battery storage economics"}`)

	select {
	case email := <-mailer.sent:
		if !strings.HasPrefix(email.Subject, "Research report: battery storage economics") {
			t.Fatalf("unexpected subject: %q", email.Subject)
		}
		if !strings.Contains(email.Markdown, "# Report body") || !strings.Contains(email.Markdown, "## Follow-up questions") {
			t.Fatalf("unexpected email body: %q", email.Markdown)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected report email to be sent")
	}
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(stubPlanner{}, stubSearcher{}, stubWriter{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.Healthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}

func TestTrimForSubject(t *testing.T) {
	if got := trimForSubject("  short   query  "); got != "short query" {
		t.Fatalf("expected normalized subject, got %q", got)
	}
	long := strings.Repeat("q", 200)
	got := trimForSubject(long)
	if len([]rune(got)) != 83 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected 80-rune subject with ellipsis, got %q (%d runes)", got, len([]rune(got)))
	}
}
