package handlers

import (
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"currents/internal/cache"
	"currents/internal/config"
	"currents/internal/enrich"
	"currents/internal/extract"
	"currents/internal/llm"
	"currents/internal/logger"
	"currents/internal/pipeline"
	"currents/internal/repo"
	"currents/internal/sources"
)

// NewRunCmd creates the run command, the main pipeline entry point.
func NewRunCmd() *cobra.Command {
	var maxArticles int
	var noPersist bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, extract, enrich, and persist today's articles",
		Long: `Run executes one full pipeline batch: fetch articles from the
configured feeds, extract and sanitize their content, score and select
the most relevant items, generate knowledge cards, and persist the
results. Without an API key the pipeline degrades to heuristic scoring
and extractive cards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, maxArticles, !noPersist)
		},
	}

	cmd.Flags().IntVar(&maxArticles, "max-articles", 0, "cap the selection size (0 uses the configured target)")
	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "skip writing results to the repository")

	return cmd
}

func runPipeline(cmd *cobra.Command, maxArticles int, persist bool) error {
	cfg := config.Get()
	log := logger.Get()

	adapters := buildAdapters(cfg)
	if len(adapters) == 0 {
		return fmt.Errorf("no source feeds configured")
	}

	fetchOpts := sources.DefaultFetchOptions()
	fetchOpts.AdapterTimeout = cfg.Sources.AdapterTimeoutDuration()
	if cfg.Sources.MaxFailures > 0 {
		fetchOpts.MaxFailures = cfg.Sources.MaxFailures
	}
	orchestrator := sources.NewOrchestrator(adapters, cache.NewMemory(), fetchOpts)

	extractor := extract.NewEngine(extract.Options{
		Timeout:        cfg.Extraction.TimeoutDuration(),
		UserAgent:      cfg.Sources.UserAgent,
		MinContentLen:  cfg.Extraction.MinContentLen,
		MinTitleLen:    cfg.Extraction.MinTitleLen,
		MaxContentLen:  cfg.Extraction.MaxContentLen,
		MinQuality:     cfg.Extraction.MinQuality,
		MaxConcurrency: cfg.Extraction.MaxConcurrency,
	})

	enricher, degraded := buildEnricher(cfg)
	if degraded {
		log.Warn("No Gemini API key configured, running with heuristic scoring and extractive cards")
	}

	gateway, err := repo.NewGateway(cfg.Repository.Path)
	if err != nil {
		return fmt.Errorf("failed to open repository: %w", err)
	}
	defer gateway.Close()

	pipeCfg := pipeline.DefaultConfig()
	if cfg.Sources.MaxArticleAgeH > 0 {
		pipeCfg.MaxArticleAge = time.Duration(cfg.Sources.MaxArticleAgeH) * time.Hour
	}
	if cfg.Sources.PrepTitleFilter != "" {
		re, err := regexp.Compile(cfg.Sources.PrepTitleFilter)
		if err != nil {
			return fmt.Errorf("invalid sources.prep_title_filter: %w", err)
		}
		pipeCfg.PrepTitleFilter = re
	}

	p := pipeline.NewPipeline(orchestrator, extractor, enricher, gateway, pipeCfg)
	summary, err := p.Run(cmd.Context(), maxArticles, persist)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s completed\n", summary.RunID)
	fmt.Printf("  Fetched:  %d\n", summary.TotalFetched)
	fmt.Printf("  Enriched: %d\n", summary.TotalEnriched)
	fmt.Printf("  Filtered: %d\n", summary.Filtered)
	fmt.Printf("  Saved:    %d\n", summary.Saved)
	fmt.Printf("  Errors:   %d\n", summary.Errors)
	return nil
}

// buildAdapters registers one RSS adapter per configured feed.
func buildAdapters(cfg *config.Config) []sources.Adapter {
	adapters := make([]sources.Adapter, 0, len(cfg.Sources.Feeds))
	for _, feed := range cfg.Sources.Feeds {
		if feed.URL == "" {
			continue
		}
		name := feed.Name
		if name == "" {
			name = feed.Site + "-" + feed.Section
		}
		adapters = append(adapters, sources.NewRSSAdapter(
			name, feed.Site, feed.Section, feed.URL,
			cfg.Sources.UserAgent, feed.CacheTTLDuration(),
		))
	}
	return adapters
}

// buildEnricher assembles the two-pass engine. With an API key the
// scorer is model-backed and cards run primary model, fallback model,
// then extractive; without one everything is heuristic. The second
// return reports degraded mode.
func buildEnricher(cfg *config.Config) (*enrich.Engine, bool) {
	opts := enrich.Options{
		BatchSize:          cfg.Enrichment.BatchSize,
		RelevanceThreshold: cfg.Enrichment.RelevanceThreshold,
		SelectionTarget:    cfg.Enrichment.SelectionTarget,
		CardConcurrency:    cfg.Enrichment.CardConcurrency,
		MustKnow:           cfg.Enrichment.MustKnowSet(),
	}
	heuristic := enrich.NewHeuristicScorer(cfg.Enrichment.Keywords)

	var scorer enrich.Scorer
	generators := []enrich.CardGenerator{}

	primary, err := llm.NewClient(cfg.AI.Gemini.Model)
	if err == nil {
		scorer = llm.NewBatchScorer(primary)
		generators = append(generators, llm.NewCardProvider(primary))
		if fallback, err := llm.NewClient(cfg.AI.Gemini.FallbackModel); err == nil {
			generators = append(generators, llm.NewCardProvider(fallback))
		}
	}
	generators = append(generators, enrich.NewExtractiveCards())

	engine := enrich.NewEngine(scorer, heuristic, enrich.NewChain(generators...), nil, opts)
	return engine, scorer == nil
}
