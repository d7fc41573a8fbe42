package research

import (
	"fmt"
	"strings"
)

func buildPlannerPrompt(query string, maxSearches int) string {
	var b strings.Builder
	b.WriteString("You are a web research planner. Respond with strict JSON only.\n")
	b.WriteString("Schema: {\"searches\":[{\"searchTerm\":string,\"reason\":string}]}\n")
	b.WriteString("Rules:\n")
	b.WriteString(fmt.Sprintf("- Output at most %d searches.\n", maxSearches))
	b.WriteString("- Keep search terms concise and specific.\n")
	b.WriteString("- Each reason must explain how the search serves the query.\n")
	b.WriteString("\nQuery:\n")
	b.WriteString(strings.TrimSpace(query))
	return strings.TrimSpace(b.String())
}

func buildSearchSummaryPrompt(directive SearchDirective, sources []sourceExcerpt) string {
	var b strings.Builder
	b.WriteString("You are a research assistant. Summarize the web material below in under 300 words.\n")
	b.WriteString("Capture the main points tersely; ignore fluff. The summary feeds a report writer, so plain dense prose only, no commentary.\n")
	b.WriteString("\nSearch term: ")
	b.WriteString(directive.SearchTerm)
	if reason := strings.TrimSpace(directive.Reason); reason != "" {
		b.WriteString("\nReason for searching: ")
		b.WriteString(reason)
	}
	b.WriteString("\n\nMaterial:\n")
	for i, source := range sources {
		label := strings.TrimSpace(source.Title)
		if label == "" {
			label = source.URL
		}
		b.WriteString(fmt.Sprintf("[%d] %s (%s)\n", i+1, label, source.URL))
		if snippet := strings.TrimSpace(source.Snippet); snippet != "" {
			b.WriteString(trimToRunes(snippet, 600))
			b.WriteString("\n")
		}
		if excerpt := strings.TrimSpace(source.Excerpt); excerpt != "" {
			b.WriteString(trimToRunes(excerpt, 4000))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func buildWriterPrompt(query string, outcomes []SearchOutcome) string {
	failed := 0
	for _, outcome := range outcomes {
		if outcome.Failed {
			failed++
		}
	}

	var b strings.Builder
	b.WriteString("You are a senior researcher writing a cohesive report. Respond with strict JSON only.\n")
	b.WriteString("Schema: {\"shortSummary\":string,\"markdownReport\":string,\"followUpQuestions\":string[]}\n")
	b.WriteString("Rules:\n")
	b.WriteString("- shortSummary: 2-3 sentences.\n")
	b.WriteString("- markdownReport: detailed markdown, aim for at least 1000 words with an outline-first structure.\n")
	b.WriteString("- followUpQuestions: topics worth researching next.\n")
	b.WriteString("\nOriginal query:\n")
	b.WriteString(strings.TrimSpace(query))
	b.WriteString("\n\nSearch summaries:\n")
	for _, outcome := range outcomes {
		if outcome.Failed {
			continue
		}
		summary := strings.TrimSpace(outcome.Summary)
		if summary == "" {
			continue
		}
		b.WriteString(fmt.Sprintf("[search %d]\n", outcome.Index+1))
		b.WriteString(summary)
		b.WriteString("\n\n")
	}
	if failed > 0 {
		b.WriteString(fmt.Sprintf("Note: %d of %d searches failed; write from the available material without speculating about the gaps.\n", failed, len(outcomes)))
	}
	return strings.TrimSpace(b.String())
}
