package notification

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vglena/valorapro/internal/events"
	apphttp "github.com/vglena/valorapro/internal/http"
	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/platform/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testSender struct {
	mu        sync.Mutex
	calls     int
	to        string
	attachPDF bool
	err       error
}

func (s *testSender) SendSummary(ctx context.Context, to string, report domain.Report, attachPDF bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.to, s.attachPDF = to, attachPDF
	return s.err
}

func completed(notify bool) events.ValuationCompleted {
	return events.ValuationCompleted{
		BaseEvent: events.NewBaseEvent(),
		JobID:     "job-1",
		Report: domain.Report{
			ID:      "rep-1",
			Profile: domain.PropertyProfile{Email: "ana@example.es"},
			Figures: domain.CanonicalFigures{Market: 492000},
		},
		NotifyApplicant: notify,
	}
}

func TestCompletedSendsSummaryWhenRequested(t *testing.T) {
	sender := &testSender{}
	m := New(sender, true, logger.Discard())

	if err := m.Handle(context.Background(), completed(true)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.calls != 1 || sender.to != "ana@example.es" || !sender.attachPDF {
		t.Fatalf("unexpected send %+v", sender)
	}
}

func TestCompletedWithoutNotifySendsNothing(t *testing.T) {
	sender := &testSender{}
	m := New(sender, false, logger.Discard())

	if err := m.Handle(context.Background(), completed(false)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.calls != 0 {
		t.Fatalf("expected no email, got %d", sender.calls)
	}
}

func TestSendFailureIsReturned(t *testing.T) {
	sender := &testSender{err: errors.New("smtp down")}
	m := New(sender, false, logger.Discard())

	if err := m.Handle(context.Background(), completed(true)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBusDelivery(t *testing.T) {
	sender := &testSender{}
	m := New(sender, false, logger.Discard())
	bus := events.NewInMemoryBus(logger.Discard())
	m.RegisterHandlers(bus)

	if err := bus.PublishSync(context.Background(), completed(true)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if sender.calls != 1 {
		t.Fatalf("expected one email, got %d", sender.calls)
	}
}

func TestStreamReceivesPushedCompletion(t *testing.T) {
	m := New(nil, false, logger.Discard())
	engine := gin.New()
	m.RegisterRoutes(&apphttp.RouterContext{Engine: engine, V1: engine.Group("/api/v1")})
	srv := httptest.NewServer(engine)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/valuations/jobs/job-1/events")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	deadline := time.Now().Add(2 * time.Second)
	for m.SSE().Subscribers("job-1") == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := m.Handle(context.Background(), completed(false)); err != nil {
		t.Fatalf("handle: %v", err)
	}

	var body strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		body.WriteString(scanner.Text())
		body.WriteString("\n")
	}
	got := body.String()
	if !strings.Contains(got, "event:connected") || !strings.Contains(got, "event:valuation_completed") {
		t.Fatalf("unexpected stream %q", got)
	}
	if !strings.Contains(got, "rep-1") {
		t.Fatalf("report id missing from stream %q", got)
	}
}

type testJobs struct {
	job domain.Job
	err error
}

func (j testJobs) ValuationJob(ctx context.Context, jobID string) (domain.Job, error) {
	return j.job, j.err
}

func streamOnce(t *testing.T, m *Module, jobID string) string {
	t.Helper()
	engine := gin.New()
	m.RegisterRoutes(&apphttp.RouterContext{Engine: engine, V1: engine.Group("/api/v1")})
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/valuations/jobs/"+jobID+"/events", nil))
	return w.Body.String()
}

func TestStreamPollsFinishedJob(t *testing.T) {
	m := New(nil, false, logger.Discard())
	m.SSE().WatchJobs(testJobs{job: domain.Job{
		ID:     "job-2",
		State:  domain.JobCompleted,
		Report: &domain.Report{ID: "rep-2"},
	}}, time.Hour)

	got := streamOnce(t, m, "job-2")
	if !strings.Contains(got, "event:valuation_completed") || !strings.Contains(got, "rep-2") {
		t.Fatalf("unexpected stream %q", got)
	}
}

func TestStreamReportsUnknownJob(t *testing.T) {
	m := New(nil, false, logger.Discard())
	m.SSE().WatchJobs(testJobs{err: domain.ErrJobNotFound}, time.Hour)

	got := streamOnce(t, m, "missing")
	if !strings.Contains(got, "event:valuation_failed") {
		t.Fatalf("unexpected stream %q", got)
	}
}

func TestFailedEventPushesFailure(t *testing.T) {
	m := New(nil, false, logger.Discard())
	m.SSE().WatchJobs(testJobs{job: domain.Job{ID: "job-3", State: domain.JobFailed, Error: "quota"}}, time.Hour)

	got := streamOnce(t, m, "job-3")
	if !strings.Contains(got, "event:valuation_failed") || !strings.Contains(got, "quota") {
		t.Fatalf("unexpected stream %q", got)
	}
}
