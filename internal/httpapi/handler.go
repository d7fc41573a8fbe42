package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"deepresearch/internal/config"
	"deepresearch/internal/notify"
	"deepresearch/internal/research"
)

const emailDeliveryTimeout = 30 * time.Second

type Handler struct {
	cfg     config.Config
	manager research.Manager
	mailer  notify.Mailer
}

func NewHandler(cfg config.Config, manager research.Manager, mailer notify.Mailer) Handler {
	return Handler{cfg: cfg, manager: manager, mailer: mailer}
}

func (h Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type researchRequest struct {
	Query string `json:"query"`
}

// Research runs one research pipeline for the posted query and streams its
// progress events over SSE, ending with a done or failed event. A timeout
// from config bounds the whole run; hitting it cancels in-flight searches
// and surfaces a research_timeout error event.
func (h Handler) Research(w http.ResponseWriter, r *http.Request) {
	var req researchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "server does not support streaming")
		return
	}

	timeoutSeconds := h.cfg.ResearchTimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 120
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	startedAt := time.Now()
	log.Printf("research start: query_chars=%d timeout_seconds=%d", len([]rune(query)), timeoutSeconds)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	var runID string
	var report *research.Report
	var failure error
	terminal := false

	for event := range h.manager.Run(ctx, query) {
		runID = event.RunID
		if err := writeSSEEvent(w, researchEventData(event)); err != nil {
			cancel()
			break
		}
		flusher.Flush()
		if event.Terminal() {
			terminal = true
			report = event.Report
			failure = event.Err
		}
	}

	if !terminal {
		message := "research interrupted"
		code := "research_interrupted"
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			message = fmt.Sprintf("research timed out after %d seconds", timeoutSeconds)
			code = "research_timeout"
		}
		_ = writeSSEEvent(w, map[string]any{"type": "failed", "runId": runID, "code": code, "message": message})
		flusher.Flush()
	}

	log.Printf(
		"research finished: run_id=%s ok=%t timed_out=%t elapsed_ms=%d",
		runID,
		report != nil,
		errors.Is(ctx.Err(), context.DeadlineExceeded),
		time.Since(startedAt).Milliseconds(),
	)
	if failure != nil {
		log.Printf("research failed: run_id=%s err=%v", runID, failure)
	}

	if report != nil && h.mailer != nil {
		h.deliverReport(runID, query, *report)
	}
}

// deliverReport emails the finished report in the background. Delivery is
// best effort and never affects the run's outcome.
func (h Handler) deliverReport(runID, query string, report research.Report) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emailDeliveryTimeout)
		defer cancel()

		var body strings.Builder
		body.WriteString(report.MarkdownBody)
		if len(report.FollowUpQuestions) > 0 {
			body.WriteString("\n\n## Follow-up questions\n")
			for _, question := range report.FollowUpQuestions {
				body.WriteString("- ")
				body.WriteString(question)
				body.WriteString("\n")
			}
		}

		err := h.mailer.Send(ctx, notify.Email{
			Subject:  "Research report: " + trimForSubject(query),
			Markdown: body.String(),
		})
		if err != nil {
			log.Printf("report email failed: run_id=%s err=%v", runID, err)
			return
		}
		log.Printf("report email sent: run_id=%s", runID)
	}()
}

func trimForSubject(query string) string {
	const maxSubjectRunes = 80
	normalized := strings.Join(strings.Fields(query), " ")
	runes := []rune(normalized)
	if len(runes) <= maxSubjectRunes {
		return normalized
	}
	return string(runes[:maxSubjectRunes]) + "..."
}
