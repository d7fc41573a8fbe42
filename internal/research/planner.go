package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// LLMPlanner asks a prompt responder for a strict-JSON search plan. A
// response that cannot be parsed into a well-formed plan is an error; the
// manager treats that as fatal to the run, so there is no heuristic fallback
// here.
type LLMPlanner struct {
	responder   PromptResponder
	maxSearches int
}

func NewLLMPlanner(responder PromptResponder, maxSearches int) LLMPlanner {
	if maxSearches < 1 {
		maxSearches = defaultMaxSearches
	}
	return LLMPlanner{responder: responder, maxSearches: maxSearches}
}

func (p LLMPlanner) Plan(ctx context.Context, query string) (SearchPlan, error) {
	if p.responder == nil {
		return SearchPlan{}, errors.New("planner responder unavailable")
	}

	raw, err := p.responder.Respond(ctx, buildPlannerPrompt(query, p.maxSearches))
	if err != nil {
		return SearchPlan{}, fmt.Errorf("planner responder: %w", err)
	}

	plan, err := parseSearchPlan(raw)
	if err != nil {
		return SearchPlan{}, err
	}
	if len(plan.Searches) > p.maxSearches {
		plan.Searches = plan.Searches[:p.maxSearches]
	}
	return plan, nil
}

func parseSearchPlan(raw string) (SearchPlan, error) {
	jsonRaw := extractJSONBlock(raw)
	if jsonRaw == "" {
		return SearchPlan{}, errors.New("planner response did not include json")
	}
	decoder := json.NewDecoder(strings.NewReader(jsonRaw))
	decoder.DisallowUnknownFields()

	var plan SearchPlan
	if err := decoder.Decode(&plan); err != nil {
		return SearchPlan{}, err
	}

	cleaned := make([]SearchDirective, 0, len(plan.Searches))
	seen := make(map[string]struct{}, len(plan.Searches))
	for _, directive := range plan.Searches {
		term := strings.Join(strings.Fields(strings.TrimSpace(directive.SearchTerm)), " ")
		if term == "" {
			continue
		}
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, SearchDirective{
			SearchTerm: term,
			Reason:     strings.TrimSpace(directive.Reason),
		})
	}
	plan.Searches = cleaned
	return plan, nil
}

func extractJSONBlock(raw string) string {
	value := strings.TrimSpace(raw)
	if strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}") {
		return value
	}
	start := strings.Index(value, "{")
	end := strings.LastIndex(value, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return strings.TrimSpace(value[start : end+1])
}
