package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// LLMWriter synthesizes the final report from the original query and the
// full outcome set. Failed outcomes are visible to it (as a degraded
// coverage note in the prompt) but only successful summaries are inlined.
type LLMWriter struct {
	responder PromptResponder
}

func NewLLMWriter(responder PromptResponder) LLMWriter {
	return LLMWriter{responder: responder}
}

func (w LLMWriter) Write(ctx context.Context, query string, outcomes []SearchOutcome) (Report, error) {
	if w.responder == nil {
		return Report{}, errors.New("writer responder unavailable")
	}

	raw, err := w.responder.Respond(ctx, buildWriterPrompt(query, outcomes))
	if err != nil {
		return Report{}, fmt.Errorf("writer responder: %w", err)
	}
	return parseReport(raw)
}

func parseReport(raw string) (Report, error) {
	jsonRaw := extractJSONBlock(raw)
	if jsonRaw == "" {
		return Report{}, errors.New("writer response did not include json")
	}
	decoder := json.NewDecoder(strings.NewReader(jsonRaw))
	decoder.DisallowUnknownFields()

	var report Report
	if err := decoder.Decode(&report); err != nil {
		return Report{}, err
	}

	report.ShortSummary = strings.TrimSpace(report.ShortSummary)
	report.MarkdownBody = strings.TrimSpace(report.MarkdownBody)
	if report.MarkdownBody == "" {
		return Report{}, errors.New("writer report body is empty")
	}

	questions := make([]string, 0, len(report.FollowUpQuestions))
	for _, question := range report.FollowUpQuestions {
		trimmed := strings.TrimSpace(question)
		if trimmed == "" {
			continue
		}
		questions = append(questions, trimmed)
	}
	report.FollowUpQuestions = questions
	return report, nil
}
