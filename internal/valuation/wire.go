package valuation

import (
	"context"
	"fmt"

	"github.com/vglena/valorapro/internal/adapters/storage"
	"github.com/vglena/valorapro/internal/assistant"
	"github.com/vglena/valorapro/internal/email"
	"github.com/vglena/valorapro/internal/events"
	"github.com/vglena/valorapro/internal/pdf"
	"github.com/vglena/valorapro/internal/valuation/derive"
	"github.com/vglena/valorapro/internal/valuation/extract"
	"github.com/vglena/valorapro/internal/valuation/pricing"
	"github.com/vglena/valorapro/internal/valuation/service"
	"github.com/vglena/valorapro/platform/config"
	"github.com/vglena/valorapro/platform/logger"
	"github.com/vglena/valorapro/platform/metrics"
)

// Config combines the settings the valuation service is built from.
type Config interface {
	config.AssistantConfig
	config.GeminiConfig
	config.GotenbergConfig
	config.MinIOConfig
	config.ValuationConfig
}

// Infra holds the process-level collaborators shared with other modules.
// Geocoder and Jobs are optional.
type Infra struct {
	Geocoder service.Geocoder
	Jobs     service.JobQueue
	Mailer   email.Sender
	Bus      events.Bus
	Metrics  *metrics.Metrics
	Log      *logger.Logger
}

// BuildService assembles the generator chain, the pipeline and the exporter
// from configuration. The API and the worker share it.
func BuildService(ctx context.Context, cfg Config, infra Infra) (*service.Service, error) {
	log := infra.Log

	var generators []assistant.Generator
	if cfg.IsAssistantEnabled() {
		generators = append(generators, assistant.NewOpenAIAssistant(cfg))
		log.Info("openai assistant enabled", "assistantId", cfg.GetOpenAIAssistantID())
	}
	if cfg.IsGeminiEnabled() {
		backup, err := assistant.NewGeminiBackup(ctx, cfg)
		if err != nil {
			return nil, err
		}
		generators = append(generators, backup)
		log.Info("gemini backup enabled", "model", cfg.GetGeminiModel())
	}
	chain := assistant.NewChain(log, generators...)
	if !chain.Configured() {
		log.Warn("no valuation generator configured; only /process and /estimate will work")
	}

	table := pricing.DefaultTable()
	if path := cfg.GetPricingTablePath(); path != "" {
		loaded, err := pricing.LoadTable(path)
		if err != nil {
			return nil, fmt.Errorf("load pricing table: %w", err)
		}
		table = loaded
		log.Info("pricing table loaded", "path", path)
	}

	pipeline := service.NewPipeline(
		pricing.NewModel(table),
		extract.New(cfg.GetPlausibilityThreshold()),
		derive.Options{MarkupEnabled: cfg.IsMarkupEnabled()},
		log,
		infra.Metrics,
	)

	var converter service.PDFConverter
	if cfg.IsGotenbergEnabled() {
		converter = pdf.NewGotenbergClient(cfg)
		log.Info("gotenberg PDF converter initialized", "url", cfg.GetGotenbergURL())
	}

	var archive service.ReportArchive
	if cfg.IsMinIOEnabled() {
		store, err := storage.NewMinIOService(cfg)
		if err != nil {
			return nil, fmt.Errorf("initialize storage: %w", err)
		}
		reports := storage.NewReportArchive(store, cfg.GetMinioBucketReports())
		if err := reports.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure reports bucket: %w", err)
		}
		archive = reports
		log.Info("report archive initialized", "bucket", cfg.GetMinioBucketReports())
	}

	return service.New(service.Deps{
		Pipeline:  pipeline,
		Generator: chain,
		Geocoder:  infra.Geocoder,
		Jobs:      infra.Jobs,
		Exporter:  service.NewExporter(converter, archive, infra.Mailer, log),
		Bus:       infra.Bus,
		Metrics:   infra.Metrics,
		Log:       log,
	}), nil
}
