package research

import (
	"context"
	"errors"
	"testing"
)

type stubResponder struct {
	response string
	err      error
	prompts  []string
}

func (r *stubResponder) Respond(_ context.Context, prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	return r.response, r.err
}

func TestLLMPlannerParsesStrictJSON(t *testing.T) {
	responder := &stubResponder{response: `{
	  "searches": [
	    {"searchTerm": "grid scale battery costs 2026", "reason": "cost trends"},
	    {"searchTerm": "pumped hydro capacity additions", "reason": "alternative storage"}
	  ]
	}`}
	planner := NewLLMPlanner(responder, 5)

	plan, err := planner.Plan(context.Background(), "renewable energy storage trends")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Size() != 2 {
		t.Fatalf("expected 2 directives, got %d", plan.Size())
	}
	if plan.Searches[0].SearchTerm != "grid scale battery costs 2026" {
		t.Fatalf("unexpected first directive: %+v", plan.Searches[0])
	}
	if len(responder.prompts) != 1 {
		t.Fatalf("expected one responder call, got %d", len(responder.prompts))
	}
}

func TestLLMPlannerAcceptsJSONWrappedInProse(t *testing.T) {
	responder := &stubResponder{response: "Here is the plan:\n{\"searches\":[{\"searchTerm\":\"solid state batteries\",\"reason\":\"emerging tech\"}]}\nDone."}
	planner := NewLLMPlanner(responder, 5)

	plan, err := planner.Plan(context.Background(), "battery research")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Size() != 1 {
		t.Fatalf("expected 1 directive, got %d", plan.Size())
	}
}

func TestLLMPlannerClampsToMaxSearches(t *testing.T) {
	responder := &stubResponder{response: `{"searches":[
	  {"searchTerm":"a","reason":""},{"searchTerm":"b","reason":""},{"searchTerm":"c","reason":""},
	  {"searchTerm":"d","reason":""},{"searchTerm":"e","reason":""},{"searchTerm":"f","reason":""}
	]}`}
	planner := NewLLMPlanner(responder, 3)

	plan, err := planner.Plan(context.Background(), "broad topic")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Size() != 3 {
		t.Fatalf("expected clamp to 3 directives, got %d", plan.Size())
	}
}

func TestLLMPlannerDropsBlankAndDuplicateTerms(t *testing.T) {
	responder := &stubResponder{response: `{"searches":[
	  {"searchTerm":"  flow  batteries ","reason":"x"},
	  {"searchTerm":"flow batteries","reason":"dup"},
	  {"searchTerm":"   ","reason":"blank"}
	]}`}
	planner := NewLLMPlanner(responder, 5)

	plan, err := planner.Plan(context.Background(), "storage")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Size() != 1 {
		t.Fatalf("expected deduped single directive, got %+v", plan.Searches)
	}
	if plan.Searches[0].SearchTerm != "flow batteries" {
		t.Fatalf("expected normalized term, got %q", plan.Searches[0].SearchTerm)
	}
}

func TestLLMPlannerRejectsMalformedOutput(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{name: "no json", response: "I could not produce a plan."},
		{name: "unknown fields", response: `{"searches":[],"totalSearches":3}`},
		{name: "wrong shape", response: `{"searches":"not a list"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			planner := NewLLMPlanner(&stubResponder{response: tc.response}, 5)
			if _, err := planner.Plan(context.Background(), "query"); err == nil {
				t.Fatal("expected parse error")
			}
		})
	}
}

func TestLLMPlannerPropagatesResponderError(t *testing.T) {
	wantErr := errors.New("model unavailable")
	planner := NewLLMPlanner(&stubResponder{err: wantErr}, 5)

	_, err := planner.Plan(context.Background(), "query")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected responder error, got %v", err)
	}
}

func TestLLMPlannerEmptyPlanIsLegal(t *testing.T) {
	planner := NewLLMPlanner(&stubResponder{response: `{"searches":[]}`}, 5)

	plan, err := planner.Plan(context.Background(), "nothing to search")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Size() != 0 {
		t.Fatalf("expected empty plan, got %d", plan.Size())
	}
}
