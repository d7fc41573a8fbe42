package httpapi

import (
	"net/http"

	"deepresearch/internal/brave"
	"deepresearch/internal/config"
	"deepresearch/internal/notify"
	"deepresearch/internal/openrouter"
	"deepresearch/internal/research"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(cfg config.Config) http.Handler {
	llm := openrouter.NewClient(cfg, nil)

	// One rate-limit gate in front of Brave for the whole process; every
	// concurrent search task of every run goes through it.
	searchClient := research.NewRateLimitedSearchClient(brave.NewClient(cfg, nil), cfg.SearchMinInterval)
	reader := research.NewPageReader(research.PageReaderConfig{}, nil)

	planner := research.NewLLMPlanner(
		newModelResponder(llm, cfg.PlannerModel, "You are a research planner. Return only valid JSON that follows the provided schema."),
		cfg.MaxSearches,
	)
	searcher := research.NewWebSearcher(
		searchClient,
		reader,
		newModelResponder(llm, cfg.SearchModel, "You summarize web research material tersely and factually."),
		research.WebSearcherConfig{ResultsPerQuery: cfg.ResultsPerQuery},
	)
	writer := research.NewLLMWriter(
		newModelResponder(llm, cfg.WriterModel, "You are a senior researcher. Return only valid JSON that follows the provided schema."),
	)
	manager := research.NewManager(planner, searcher, writer, research.ManagerConfig{MaxSearches: cfg.MaxSearches})

	var mailer notify.Mailer
	if cfg.EmailEnabled() {
		mailer = notify.NewResendMailer(cfg, nil)
	}

	h := NewHandler(cfg, manager, mailer)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/research", h.Research)
	})

	return r
}
