package research

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const defaultMaxSearches = 5

type ManagerConfig struct {
	MaxSearches int
}

// Manager drives the plan, search, write pipeline for a single query. It
// depends on the three capabilities only through their contracts; planning
// and writing failures are fatal to a run, individual search failures are
// folded into the outcome set and never escalate.
type Manager struct {
	planner  Planner
	searcher Searcher
	writer   Writer
	cfg      ManagerConfig
}

func NewManager(planner Planner, searcher Searcher, writer Writer, cfg ManagerConfig) Manager {
	if cfg.MaxSearches < 1 {
		cfg.MaxSearches = defaultMaxSearches
	}
	return Manager{
		planner:  planner,
		searcher: searcher,
		writer:   writer,
		cfg:      cfg,
	}
}

// Run executes one research run and returns its event stream. The channel is
// unbuffered and closed after the terminal event; exactly one consumer must
// drain it. Cancelling ctx stops the run cooperatively: in-flight searches
// exit, no further events are emitted, and the channel is closed without a
// terminal event. A caller-imposed timeout should wrap ctx.
func (m Manager) Run(ctx context.Context, query string) <-chan Event {
	if ctx == nil {
		ctx = context.Background()
	}
	events := make(chan Event)
	go func() {
		defer close(events)
		m.run(ctx, strings.TrimSpace(query), events)
	}()
	return events
}

func (m Manager) run(ctx context.Context, query string, events chan<- Event) {
	runID := uuid.NewString()
	emit := func(event Event) bool {
		event.RunID = runID
		select {
		case events <- event:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if query == "" {
		emit(Event{Kind: EventFailed, Err: ErrEmptyQuery})
		return
	}
	if !emit(Event{Kind: EventPlanningStarted}) {
		return
	}

	plan, err := m.planner.Plan(ctx, query)
	if err != nil {
		emit(Event{Kind: EventFailed, Err: fmt.Errorf("%w: %v", ErrPlanningFailed, err)})
		return
	}
	if len(plan.Searches) > m.cfg.MaxSearches {
		plan.Searches = plan.Searches[:m.cfg.MaxSearches]
	}

	if !emit(Event{Kind: EventPlanningDone, PlanSize: plan.Size()}) {
		return
	}
	if !emit(Event{Kind: EventSearchingStarted, PlanSize: plan.Size()}) {
		return
	}

	outcomes, completed := m.fanOutSearches(ctx, plan, emit)
	if !completed {
		return
	}

	if !emit(Event{Kind: EventWritingStarted}) {
		return
	}

	report, err := m.writer.Write(ctx, query, outcomes)
	if err != nil {
		emit(Event{Kind: EventFailed, Err: fmt.Errorf("%w: %v", ErrWritingFailed, err)})
		return
	}
	emit(Event{Kind: EventDone, Report: &report})
}

// fanOutSearches launches every directive concurrently, emits a
// search_completed event as each one settles, and waits for all of them. It
// never short-circuits on failure: a directive whose search errors becomes a
// Failed outcome. The returned slice is ordered by directive index regardless
// of completion order. completed is false when ctx was cancelled before every
// directive settled.
func (m Manager) fanOutSearches(ctx context.Context, plan SearchPlan, emit func(Event) bool) ([]SearchOutcome, bool) {
	outcomes := make([]SearchOutcome, plan.Size())
	if plan.Size() == 0 {
		return outcomes, ctx.Err() == nil
	}

	settled := make(chan SearchOutcome)
	var wg sync.WaitGroup
	for index, directive := range plan.Searches {
		wg.Add(1)
		go func(index int, directive SearchDirective) {
			defer wg.Done()
			outcome := SearchOutcome{Index: index}
			summary, err := m.searcher.Search(ctx, directive)
			if err != nil {
				outcome.Failed = true
			} else {
				outcome.Summary = summary
			}
			select {
			case settled <- outcome:
			case <-ctx.Done():
			}
		}(index, directive)
	}
	go func() {
		wg.Wait()
		close(settled)
	}()

	seen := 0
	for outcome := range settled {
		outcomes[outcome.Index] = outcome
		seen++
		if !emit(Event{
			Kind:        EventSearchCompleted,
			PlanSize:    plan.Size(),
			SearchIndex: outcome.Index,
			SearchOK:    outcome.OK(),
		}) {
			return nil, false
		}
	}
	if seen < plan.Size() || ctx.Err() != nil {
		return nil, false
	}
	return outcomes, true
}
