package research

type EventKind string

const (
	EventPlanningStarted  EventKind = "planning_started"
	EventPlanningDone     EventKind = "planning_done"
	EventSearchingStarted EventKind = "searching_started"
	EventSearchCompleted  EventKind = "search_completed"
	EventWritingStarted   EventKind = "writing_started"
	EventDone             EventKind = "done"
	EventFailed           EventKind = "failed"
)

// Event is one progress notification for a run. Events are delivered to a
// single subscriber in emission order; SearchIndex and SearchOK are only
// meaningful for search_completed, Report only for done, Err only for failed.
type Event struct {
	RunID       string
	Kind        EventKind
	PlanSize    int
	SearchIndex int
	SearchOK    bool
	Report      *Report
	Err         error
}

func (e Event) Terminal() bool {
	return e.Kind == EventDone || e.Kind == EventFailed
}
