package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vglena/valorapro/internal/assistant"
	"github.com/vglena/valorapro/internal/events"
	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/platform/apperr"
	"github.com/vglena/valorapro/platform/logger"
	"github.com/vglena/valorapro/platform/metrics"
)

// NarrativeGenerator writes the narrative report for a profile.
type NarrativeGenerator interface {
	Provider() domain.Provider
	Generate(ctx context.Context, profile domain.PropertyProfile) (assistant.Narrative, error)
}

// Geocoder places a location on the map.
type Geocoder interface {
	GeocodeLocation(ctx context.Context, loc domain.Location) (domain.Coordinates, error)
}

// JobQueue runs generations in the background.
type JobQueue interface {
	EnqueueValuation(ctx context.Context, jobID string, profile domain.PropertyProfile, notify bool) error
	ValuationJob(ctx context.Context, jobID string) (domain.Job, error)
}

// Deps groups the collaborators of a Service. Only Pipeline, Generator and
// Log are required.
type Deps struct {
	Pipeline  *Pipeline
	Generator NarrativeGenerator
	Geocoder  Geocoder
	Jobs      JobQueue
	Exporter  *Exporter
	Bus       events.Bus
	Metrics   *metrics.Metrics
	Log       *logger.Logger
}

// Service coordinates a valuation from submission to report.
type Service struct {
	pipeline  *Pipeline
	generator NarrativeGenerator
	geocoder  Geocoder
	jobs      JobQueue
	exporter  *Exporter
	bus       events.Bus
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// New builds the service. Without an exporter only the print document is
// available.
func New(d Deps) *Service {
	if d.Exporter == nil {
		d.Exporter = NewExporter(nil, nil, nil, d.Log)
	}
	return &Service{
		pipeline:  d.Pipeline,
		generator: d.Generator,
		geocoder:  d.Geocoder,
		jobs:      d.Jobs,
		exporter:  d.Exporter,
		bus:       d.Bus,
		metrics:   d.Metrics,
		log:       d.Log,
	}
}

// Exporter returns the print and delivery helper.
func (s *Service) Exporter() *Exporter { return s.exporter }

// Generate writes the narrative, geocodes the address alongside it and runs
// the pipeline on the result. A geocoding failure only leaves the report
// without coordinates. When notify is set the completed event asks for the
// summary email.
func (s *Service) Generate(ctx context.Context, profile domain.PropertyProfile, notify bool) (domain.Report, error) {
	log := s.log.WithContext(ctx)

	var (
		narrative assistant.Narrative
		coords    *domain.Coordinates
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.generator.Generate(gctx, profile)
		if err != nil {
			return err
		}
		narrative = n
		return nil
	})
	if s.geocoder != nil {
		g.Go(func() error {
			c, err := s.geocoder.GeocodeLocation(gctx, profile.Location)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Warn("geocoding failed, report without coordinates", "error", err)
				}
				return nil
			}
			coords = &c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.generationFailed(ctx, err)
		return domain.Report{}, err
	}

	report := s.pipeline.Process(profile, narrative.Text, narrative.Provider)
	report.Coordinates = coords
	s.countGeneration(narrative.Provider, "success")
	log.Info("valuation generated",
		"reportId", report.ID,
		"provider", report.Provider,
		"base", report.Base.Source,
		"valuesBlock", report.Rewrite.ValuesBlockFound,
	)

	if s.bus != nil {
		s.bus.Publish(ctx, events.ValuationCompleted{
			BaseEvent:       events.NewBaseEvent(),
			JobID:           jobIDFrom(ctx),
			Report:          report,
			NotifyApplicant: notify && profile.Email != "",
		})
	}
	return report, nil
}

func (s *Service) generationFailed(ctx context.Context, err error) {
	provider := s.generator.Provider()
	category := assistant.Categorize(err)
	s.countGeneration(provider, "failure")
	if s.metrics != nil {
		s.metrics.ExternalCalls.WithLabelValues(string(provider), string(category)).Inc()
	}
	if s.bus != nil {
		s.bus.Publish(ctx, events.ValuationFailed{
			BaseEvent: events.NewBaseEvent(),
			JobID:     jobIDFrom(ctx),
			Provider:  provider,
			Category:  string(category),
			Reason:    err.Error(),
		})
	}
}

// jobIDFrom returns the queued job id the worker stores in ctx, if any.
func jobIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(logger.JobIDKey).(string)
	return id
}

func (s *Service) countGeneration(provider domain.Provider, outcome string) {
	if s.metrics != nil {
		s.metrics.Generations.WithLabelValues(string(provider), outcome).Inc()
	}
}

// Process runs the pipeline on a narrative supplied by the caller.
func (s *Service) Process(profile domain.PropertyProfile, narrative string) domain.Report {
	return s.pipeline.Process(profile, narrative, domain.ProviderSupplied)
}

// Estimate returns the fallback pricing for a profile.
func (s *Service) Estimate(profile domain.PropertyProfile) Estimate {
	return s.pipeline.Estimate(profile)
}

// Enqueue queues a background generation and returns its job id.
func (s *Service) Enqueue(ctx context.Context, profile domain.PropertyProfile, notify bool) (string, error) {
	if s.jobs == nil {
		return "", apperr.Unavailable("background generation is not configured")
	}
	jobID := uuid.New().String()
	if err := s.jobs.EnqueueValuation(ctx, jobID, profile, notify); err != nil {
		return "", apperr.Wrap(apperr.KindUnavailable, "could not queue valuation", err).WithOp("valuation.Enqueue")
	}
	s.log.WithContext(ctx).Info("valuation queued", "jobId", jobID)
	return jobID, nil
}

// JobStatus reports a queued generation.
func (s *Service) JobStatus(ctx context.Context, jobID string) (domain.Job, error) {
	if s.jobs == nil {
		return domain.Job{}, apperr.Unavailable("background generation is not configured")
	}
	job, err := s.jobs.ValuationJob(ctx, jobID)
	if errors.Is(err, domain.ErrJobNotFound) {
		return domain.Job{}, apperr.NotFound(fmt.Sprintf("valuation job %s not found", jobID))
	}
	if err != nil {
		return domain.Job{}, apperr.Wrap(apperr.KindUnavailable, "could not read valuation job", err).WithOp("valuation.JobStatus")
	}
	return job, nil
}
