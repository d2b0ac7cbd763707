package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vglena/valorapro/internal/adapters/storage"
	"github.com/vglena/valorapro/internal/assistant"
	"github.com/vglena/valorapro/internal/email"
	"github.com/vglena/valorapro/internal/events"
	"github.com/vglena/valorapro/internal/valuation/derive"
	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/internal/valuation/extract"
	"github.com/vglena/valorapro/internal/valuation/pricing"
	"github.com/vglena/valorapro/platform/apperr"
	"github.com/vglena/valorapro/platform/logger"
	"github.com/vglena/valorapro/platform/metrics"
)

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) Provider() domain.Provider { return domain.ProviderOpenAI }

func (f *fakeGenerator) Generate(ctx context.Context, profile domain.PropertyProfile) (assistant.Narrative, error) {
	if f.err != nil {
		return assistant.Narrative{}, f.err
	}
	return assistant.Narrative{Text: f.text, Provider: domain.ProviderOpenAI}, nil
}

type fakeGeocoder struct {
	coords domain.Coordinates
	err    error
}

func (f *fakeGeocoder) GeocodeLocation(ctx context.Context, loc domain.Location) (domain.Coordinates, error) {
	return f.coords, f.err
}

type fakeJobs struct {
	enqueued map[string]domain.PropertyProfile
}

func (f *fakeJobs) EnqueueValuation(ctx context.Context, jobID string, profile domain.PropertyProfile, notify bool) error {
	f.enqueued[jobID] = profile
	return nil
}

func (f *fakeJobs) ValuationJob(ctx context.Context, jobID string) (domain.Job, error) {
	if _, ok := f.enqueued[jobID]; !ok {
		return domain.Job{}, domain.ErrJobNotFound
	}
	return domain.Job{ID: jobID, State: domain.JobPending}, nil
}

func fixture(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("../testdata/informe.md")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(b)
}

func profile() domain.PropertyProfile {
	return domain.PropertyProfile{
		UserType:     domain.UserPrivate,
		Email:        "ana@example.es",
		PropertyType: domain.PropertyPiso,
		SurfaceType:  domain.SurfaceUtil,
		Area:         80,
		Location: domain.Location{
			StreetType: "Calle", StreetName: "Mayor", StreetNumber: "12",
			PostalCode: "28013", Municipality: "Madrid", Province: "Madrid",
		},
	}
}

func newPipeline(m *metrics.Metrics) (*Pipeline, *pricing.Model) {
	model := pricing.NewModel(pricing.DefaultTable())
	return NewPipeline(model, extract.New(0), derive.Options{MarkupEnabled: true}, logger.Discard(), m), model
}

func TestProcessFixture(t *testing.T) {
	p, _ := newPipeline(metrics.New())
	report := p.Process(profile(), fixture(t), domain.ProviderOpenAI)

	if report.Base.Source != domain.BaseExtracted || report.Base.Value != 410000 {
		t.Fatalf("unexpected base %+v", report.Base)
	}
	want := domain.CanonicalFigures{Market: 492000, Mortgage: 418200, FreeMarket: 516600, Listing: 516600}
	if report.Figures != want {
		t.Fatalf("figures = %+v, want %+v", report.Figures, want)
	}
	if report.Confidence != domain.ConfidenceHigh {
		t.Fatalf("confidence = %q", report.Confidence)
	}
	if report.PricePerSquareMeter != 6150 {
		t.Fatalf("price per m2 = %d", report.PricePerSquareMeter)
	}
	if !report.Rewrite.ValuesBlockFound || !strings.Contains(report.Content, "492.000 €") {
		t.Fatalf("narrative not rewritten: %+v", report.Rewrite)
	}
	if len(report.NextSteps) != 3 {
		t.Fatalf("expected 3 next steps, got %v", report.NextSteps)
	}
	if report.ID == "" || report.GeneratedAt.IsZero() || report.Provider != domain.ProviderOpenAI {
		t.Fatalf("report metadata missing: %+v", report)
	}
	if report.Extracted[domain.FigureMarket].Status != "found" {
		t.Fatalf("market should be reported as found")
	}
}

func TestProcessFallsBackWhenNothingExtracted(t *testing.T) {
	m := metrics.New()
	p, model := newPipeline(m)
	narrative := "Informe sin cifras."
	report := p.Process(profile(), narrative, domain.ProviderGemini)

	if report.Base.Source != domain.BaseFallback || report.Base.Value != model.Estimate(profile()) {
		t.Fatalf("unexpected base %+v", report.Base)
	}
	if report.Figures.Market < report.Base.Value {
		t.Fatalf("market %d below base %d", report.Figures.Market, report.Base.Value)
	}
	if report.Confidence != domain.ConfidenceMedium {
		t.Fatalf("confidence = %q", report.Confidence)
	}
	if report.Content != narrative || report.Rewrite.ValuesBlockFound {
		t.Fatalf("narrative without values block must be kept")
	}
	if len(report.NextSteps) != len(extract.DefaultNextSteps) {
		t.Fatalf("expected default next steps")
	}
	if got := testutil.ToFloat64(m.FallbackValues); got != 1 {
		t.Fatalf("fallback counter = %v", got)
	}
	if got := testutil.ToFloat64(m.RewriteMisses.WithLabelValues("values_block")); got != 1 {
		t.Fatalf("rewrite miss counter = %v", got)
	}
}

func TestEstimate(t *testing.T) {
	p, model := newPipeline(nil)
	est := p.Estimate(profile())
	if est.Base.Value != model.Estimate(profile()) || est.Figures.Market <= est.Base.Value {
		t.Fatalf("unexpected estimate %+v", est)
	}
	if est.PricePerM2 != 4500 || est.ConsideredArea != 100 {
		t.Fatalf("unexpected pricing detail %+v", est)
	}
	if !strings.Contains(est.SurfaceStatement, "a efectos de valoración") {
		t.Fatalf("unexpected statement %q", est.SurfaceStatement)
	}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) Handle(ctx context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func newService(t *testing.T, gen NarrativeGenerator, geo Geocoder, jobs JobQueue) (*Service, *events.InMemoryBus, *eventRecorder) {
	t.Helper()
	p, _ := newPipeline(nil)
	bus := events.NewInMemoryBus(logger.Discard())
	rec := &eventRecorder{}
	bus.Subscribe(events.NameValuationCompleted, rec)
	bus.Subscribe(events.NameValuationFailed, rec)
	svc := New(Deps{
		Pipeline:  p,
		Generator: gen,
		Geocoder:  geo,
		Jobs:      jobs,
		Bus:       bus,
		Metrics:   metrics.New(),
		Log:       logger.Discard(),
	})
	return svc, bus, rec
}

func TestGenerateAttachesCoordinatesAndPublishes(t *testing.T) {
	svc, bus, rec := newService(t, &fakeGenerator{text: fixture(t)}, &fakeGeocoder{coords: domain.Coordinates{Lat: 40.4, Lon: -3.7}}, nil)

	report, err := svc.Generate(context.Background(), profile(), true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.Coordinates == nil || report.Coordinates.Lat != 40.4 {
		t.Fatalf("coordinates missing: %+v", report.Coordinates)
	}
	if report.Figures.Market != 492000 {
		t.Fatalf("unexpected market %d", report.Figures.Market)
	}

	bus.Wait()
	if len(rec.events) != 1 {
		t.Fatalf("expected one event, got %d", len(rec.events))
	}
	completed, ok := rec.events[0].(events.ValuationCompleted)
	if !ok || !completed.NotifyApplicant || completed.Report.ID != report.ID {
		t.Fatalf("unexpected event %#v", rec.events[0])
	}
}

func TestGenerateSurvivesGeocodingFailure(t *testing.T) {
	svc, bus, _ := newService(t, &fakeGenerator{text: fixture(t)}, &fakeGeocoder{err: errors.New("nominatim down")}, nil)

	report, err := svc.Generate(context.Background(), profile(), false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.Coordinates != nil {
		t.Fatalf("expected no coordinates")
	}
	bus.Wait()
}

func TestGenerateFailurePublishesCategory(t *testing.T) {
	cause := assistant.AppError(domain.ProviderOpenAI, &assistant.RunError{Status: "failed", Code: "rate_limit_exceeded"})
	svc, bus, rec := newService(t, &fakeGenerator{err: cause}, nil, nil)

	_, err := svc.Generate(context.Background(), profile(), true)
	if apperr.GetKind(err) != apperr.KindTooManyRequests {
		t.Fatalf("expected too many requests, got %v", err)
	}

	bus.Wait()
	if len(rec.events) != 1 {
		t.Fatalf("expected one event, got %d", len(rec.events))
	}
	failed, ok := rec.events[0].(events.ValuationFailed)
	if !ok || failed.Category != "quota" || failed.Provider != domain.ProviderOpenAI {
		t.Fatalf("unexpected event %#v", rec.events[0])
	}
}

func TestEnqueueAndJobStatus(t *testing.T) {
	jobs := &fakeJobs{enqueued: map[string]domain.PropertyProfile{}}
	svc, _, _ := newService(t, &fakeGenerator{}, nil, jobs)

	id, err := svc.Enqueue(context.Background(), profile(), false)
	if err != nil || id == "" {
		t.Fatalf("Enqueue: %q %v", id, err)
	}
	job, err := svc.JobStatus(context.Background(), id)
	if err != nil || job.State != domain.JobPending {
		t.Fatalf("JobStatus: %+v %v", job, err)
	}
	if _, err := svc.JobStatus(context.Background(), "nope"); apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestEnqueueWithoutQueue(t *testing.T) {
	svc, _, _ := newService(t, &fakeGenerator{}, nil, nil)
	if _, err := svc.Enqueue(context.Background(), profile(), false); apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

type fakeConverter struct {
	document string
	err      error
}

func (f *fakeConverter) ConvertReport(ctx context.Context, document string) ([]byte, error) {
	f.document = document
	return []byte("%PDF"), f.err
}

type fakeArchive struct {
	key string
}

func (f *fakeArchive) ArchiveReport(ctx context.Context, reportID string, generatedAt time.Time, pdf []byte) (*storage.PresignedURL, error) {
	f.key = storage.ReportKey(reportID, generatedAt)
	return &storage.PresignedURL{URL: "https://files.test/" + f.key, FileKey: f.key}, nil
}

type fakeMailer struct {
	to          string
	summary     email.ValuationSummary
	attachments []email.Attachment
}

func (f *fakeMailer) SendValuationSummary(ctx context.Context, to string, summary email.ValuationSummary, attachments ...email.Attachment) error {
	f.to, f.summary, f.attachments = to, summary, attachments
	return nil
}

func sampleReport(t *testing.T) domain.Report {
	p, _ := newPipeline(nil)
	return p.Process(profile(), fixture(t), domain.ProviderOpenAI)
}

func TestExporterPDFArchives(t *testing.T) {
	conv, archive := &fakeConverter{}, &fakeArchive{}
	exp := NewExporter(conv, archive, nil, logger.Discard())
	report := sampleReport(t)

	out, err := exp.PDF(context.Background(), report)
	if err != nil {
		t.Fatalf("PDF: %v", err)
	}
	if string(out.Content) != "%PDF" || out.FileName != "informe-valoracion-calle-mayor-12.pdf" {
		t.Fatalf("unexpected export %+v", out)
	}
	if out.URL == nil || !strings.HasSuffix(out.URL.FileKey, report.ID+".pdf") {
		t.Fatalf("report not archived: %+v", out.URL)
	}
	if !strings.Contains(conv.document, "ESTUDIO DE VALOR DE MERCADO") {
		t.Fatalf("converter did not receive the print document")
	}
}

func TestExporterPDFUnavailable(t *testing.T) {
	exp := NewExporter(nil, nil, nil, logger.Discard())
	if _, err := exp.PDF(context.Background(), sampleReport(t)); apperr.GetKind(err) != apperr.KindUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestExporterPDFConversionFailure(t *testing.T) {
	exp := NewExporter(&fakeConverter{err: errors.New("boom")}, nil, nil, logger.Discard())
	if _, err := exp.PDF(context.Background(), sampleReport(t)); apperr.GetKind(err) != apperr.KindBadGateway {
		t.Fatalf("expected bad gateway, got %v", err)
	}
}

func TestSendSummaryWithAttachment(t *testing.T) {
	mailer := &fakeMailer{}
	exp := NewExporter(&fakeConverter{}, nil, mailer, logger.Discard())

	if err := exp.SendSummary(context.Background(), "ana@example.es", sampleReport(t), true); err != nil {
		t.Fatalf("SendSummary: %v", err)
	}
	if mailer.to != "ana@example.es" || len(mailer.attachments) != 1 {
		t.Fatalf("unexpected delivery to=%q attachments=%d", mailer.to, len(mailer.attachments))
	}
	s := mailer.summary
	if s.ToName != "Usuario" || s.ValuationMin != "492.000 €" || s.ValuationMax != "516.600 €" || s.PropertyArea != "80 m²" {
		t.Fatalf("unexpected summary %+v", s)
	}
	if !strings.HasPrefix(s.PropertyAddress, "Calle Mayor 12") {
		t.Fatalf("unexpected address %q", s.PropertyAddress)
	}
}

func TestReportFileNameFoldsAccents(t *testing.T) {
	r := domain.Report{Profile: domain.PropertyProfile{Location: domain.Location{StreetType: "Avenida", StreetName: "Constitución", StreetNumber: "3"}}}
	if got := ReportFileName(r); got != "informe-valoracion-avenida-constitucion-3.pdf" {
		t.Fatalf("unexpected file name %q", got)
	}
	if got := ReportFileName(domain.Report{}); got != "informe-valoracion.pdf" {
		t.Fatalf("unexpected fallback name %q", got)
	}
}
