package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort                = "8080"
	defaultOpenRouterBaseURL   = "https://openrouter.ai/api/v1"
	defaultBraveBaseURL        = "https://api.search.brave.com/res/v1"
	defaultResendBaseURL       = "https://api.resend.com"
	defaultPlannerModel        = "openai/gpt-4o-mini"
	defaultSearchModel         = "openai/gpt-4o-mini"
	defaultWriterModel         = "openai/gpt-4o"
	defaultMaxSearches         = 5
	defaultResultsPerQuery     = 4
	defaultSearchIntervalMS    = 1100
	defaultResearchTimeoutSecs = 120
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	PlannerModel      string
	SearchModel       string
	WriterModel       string

	BraveAPIKey  string
	BraveBaseURL string

	MaxSearches            int
	ResultsPerQuery        int
	SearchMinInterval      time.Duration
	ResearchTimeoutSeconds int

	ResendAPIKey    string
	ResendBaseURL   string
	ReportEmailFrom string
	ReportEmailTo   string
}

func (c Config) ListenAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) EmailEnabled() bool {
	return c.ResendAPIKey != "" && c.ReportEmailFrom != "" && c.ReportEmailTo != ""
}

func Load() (Config, error) {
	cfg := Config{
		Port:                   envOrDefault("PORT", defaultPort),
		Environment:            envOrDefault("APP_ENV", "development"),
		OpenRouterAPIKey:       strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
		OpenRouterBaseURL:      envOrDefault("OPENROUTER_BASE_URL", defaultOpenRouterBaseURL),
		PlannerModel:           envOrDefault("OPENROUTER_PLANNER_MODEL", defaultPlannerModel),
		SearchModel:            envOrDefault("OPENROUTER_SEARCH_MODEL", defaultSearchModel),
		WriterModel:            envOrDefault("OPENROUTER_WRITER_MODEL", defaultWriterModel),
		BraveAPIKey:            strings.TrimSpace(os.Getenv("BRAVE_API_KEY")),
		BraveBaseURL:           envOrDefault("BRAVE_BASE_URL", defaultBraveBaseURL),
		MaxSearches:            intOrDefault("MAX_SEARCHES", defaultMaxSearches),
		ResultsPerQuery:        intOrDefault("SEARCH_RESULTS_PER_QUERY", defaultResultsPerQuery),
		ResearchTimeoutSeconds: intOrDefault("RESEARCH_TIMEOUT_SECONDS", defaultResearchTimeoutSecs),
		ResendAPIKey:           strings.TrimSpace(os.Getenv("RESEND_API_KEY")),
		ResendBaseURL:          envOrDefault("RESEND_BASE_URL", defaultResendBaseURL),
		ReportEmailFrom:        strings.TrimSpace(os.Getenv("REPORT_EMAIL_FROM")),
		ReportEmailTo:          strings.TrimSpace(os.Getenv("REPORT_EMAIL_TO")),
	}

	if cfg.MaxSearches < 1 {
		return Config{}, errors.New("MAX_SEARCHES must be > 0")
	}
	if cfg.ResultsPerQuery < 1 {
		return Config{}, errors.New("SEARCH_RESULTS_PER_QUERY must be > 0")
	}
	if cfg.ResearchTimeoutSeconds < 1 {
		return Config{}, errors.New("RESEARCH_TIMEOUT_SECONDS must be > 0")
	}

	intervalMS := intOrDefault("SEARCH_MIN_INTERVAL_MS", defaultSearchIntervalMS)
	if intervalMS < 0 {
		return Config{}, errors.New("SEARCH_MIN_INTERVAL_MS must be >= 0")
	}
	cfg.SearchMinInterval = time.Duration(intervalMS) * time.Millisecond

	origins := parseList(envOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:4173"))
	if len(origins) == 0 {
		return Config{}, errors.New("CORS_ALLOWED_ORIGINS must include at least one origin")
	}
	cfg.AllowedOrigins = origins

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
