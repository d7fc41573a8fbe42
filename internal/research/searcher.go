package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"deepresearch/internal/brave"
)

const (
	defaultResultsPerQuery  = 4
	defaultMaxSourceReads   = 2
	defaultSummaryWordLimit = 300
)

// SearchClient is the web search surface the searcher depends on.
type SearchClient interface {
	Search(ctx context.Context, query string, count int) ([]brave.SearchResult, error)
}

type WebSearcherConfig struct {
	ResultsPerQuery  int
	MaxSourceReads   int
	SummaryWordLimit int
}

type sourceExcerpt struct {
	URL     string
	Title   string
	Snippet string
	Excerpt string
}

// WebSearcher executes one directive: web search, read the top candidate
// pages, and condense the material into a short summary. It returns an error
// only when it produced nothing usable; the manager folds that into a Failed
// outcome, so a degraded summary is always preferred over an error.
type WebSearcher struct {
	client    SearchClient
	reader    *PageReader
	responder PromptResponder
	cfg       WebSearcherConfig
}

func NewWebSearcher(client SearchClient, reader *PageReader, responder PromptResponder, cfg WebSearcherConfig) WebSearcher {
	if cfg.ResultsPerQuery < 1 {
		cfg.ResultsPerQuery = defaultResultsPerQuery
	}
	if cfg.MaxSourceReads <= 0 {
		cfg.MaxSourceReads = defaultMaxSourceReads
	}
	if cfg.SummaryWordLimit < 1 {
		cfg.SummaryWordLimit = defaultSummaryWordLimit
	}
	return WebSearcher{
		client:    client,
		reader:    reader,
		responder: responder,
		cfg:       cfg,
	}
}

func (s WebSearcher) Search(ctx context.Context, directive SearchDirective) (string, error) {
	if s.client == nil {
		return "", errors.New("search client unavailable")
	}

	term := strings.TrimSpace(directive.SearchTerm)
	if term == "" {
		return "", errors.New("directive search term is empty")
	}

	results, err := s.client.Search(ctx, term, s.cfg.ResultsPerQuery)
	if err != nil {
		return "", fmt.Errorf("web search: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("no results for %q", term)
	}

	sources := s.collectSources(ctx, results)
	if len(sources) == 0 {
		return "", fmt.Errorf("no usable sources for %q", term)
	}

	if s.responder != nil {
		summary, summaryErr := s.responder.Respond(ctx, buildSearchSummaryPrompt(directive, sources))
		if summaryErr == nil {
			if trimmed := strings.TrimSpace(summary); trimmed != "" {
				return trimmed, nil
			}
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// Summarizer trouble is not fatal; fall through to stitched snippets.
	}
	return s.snippetSummary(sources), nil
}

// collectSources turns search results into excerpted sources, reading up to
// MaxSourceReads pages in result order. Pages that cannot be fetched or
// extracted contribute their search snippet only.
func (s WebSearcher) collectSources(ctx context.Context, results []brave.SearchResult) []sourceExcerpt {
	sources := make([]sourceExcerpt, 0, len(results))
	reads := 0
	for _, result := range results {
		if ctx.Err() != nil {
			break
		}
		source := sourceExcerpt{
			URL:     strings.TrimSpace(result.URL),
			Title:   strings.TrimSpace(result.Title),
			Snippet: strings.TrimSpace(result.Snippet),
		}
		if source.URL == "" {
			continue
		}
		if s.reader != nil && reads < s.cfg.MaxSourceReads {
			reads++
			page, err := s.reader.Read(ctx, source.URL)
			if err == nil {
				if page.Title != "" {
					source.Title = page.Title
				}
				source.Excerpt = page.Text
			}
		}
		if source.Snippet == "" && source.Excerpt == "" {
			continue
		}
		sources = append(sources, source)
	}
	return sources
}

func (s WebSearcher) snippetSummary(sources []sourceExcerpt) string {
	var b strings.Builder
	for _, source := range sources {
		text := source.Excerpt
		if text == "" {
			text = source.Snippet
		}
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.Join(strings.Fields(text), " "))
	}
	return trimToWords(b.String(), s.cfg.SummaryWordLimit)
}
