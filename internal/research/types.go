package research

import (
	"context"
	"errors"
)

var (
	ErrEmptyQuery     = errors.New("research query is empty")
	ErrPlanningFailed = errors.New("research planning failed")
	ErrWritingFailed  = errors.New("research report writing failed")
)

// SearchDirective is one planned unit of search work: a search term plus the
// planner's rationale for it. Directives are identified by their position in
// the plan; plans never outlive the run that produced them.
type SearchDirective struct {
	SearchTerm string `json:"searchTerm"`
	Reason     string `json:"reason"`
}

type SearchPlan struct {
	Searches []SearchDirective `json:"searches"`
}

func (p SearchPlan) Size() int { return len(p.Searches) }

// SearchOutcome is the settled result of executing one directive: either a
// textual summary or an explicit failure marker. Failures are data, never
// errors; the manager does not treat them as fatal.
type SearchOutcome struct {
	Index   int
	Summary string
	Failed  bool
}

func (o SearchOutcome) OK() bool { return !o.Failed }

type Report struct {
	ShortSummary      string   `json:"shortSummary"`
	MarkdownBody      string   `json:"markdownReport"`
	FollowUpQuestions []string `json:"followUpQuestions"`
}

type Planner interface {
	Plan(ctx context.Context, query string) (SearchPlan, error)
}

type Searcher interface {
	Search(ctx context.Context, directive SearchDirective) (string, error)
}

type Writer interface {
	Write(ctx context.Context, query string, outcomes []SearchOutcome) (Report, error)
}

// PromptResponder is the narrow LLM surface the capability implementations
// depend on.
type PromptResponder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}
