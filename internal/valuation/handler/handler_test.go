package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vglena/valorapro/internal/assistant"
	"github.com/vglena/valorapro/internal/valuation/derive"
	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/internal/valuation/extract"
	"github.com/vglena/valorapro/internal/valuation/pricing"
	"github.com/vglena/valorapro/internal/valuation/service"
	"github.com/vglena/valorapro/internal/valuation/transport"
	"github.com/vglena/valorapro/platform/logger"
	"github.com/vglena/valorapro/platform/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubGenerator struct {
	text string
}

func (s *stubGenerator) Provider() domain.Provider { return domain.ProviderOpenAI }

func (s *stubGenerator) Generate(ctx context.Context, profile domain.PropertyProfile) (assistant.Narrative, error) {
	return assistant.Narrative{Text: s.text, Provider: domain.ProviderOpenAI}, nil
}

type stubJobs struct{}

func (stubJobs) EnqueueValuation(ctx context.Context, jobID string, profile domain.PropertyProfile, notify bool) error {
	return nil
}

func (stubJobs) ValuationJob(ctx context.Context, jobID string) (domain.Job, error) {
	return domain.Job{}, domain.ErrJobNotFound
}

type stubConverter struct{}

func (stubConverter) ConvertReport(ctx context.Context, document string) ([]byte, error) {
	return []byte("%PDF-1.7"), nil
}

func fixture(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("../testdata/informe.md")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(b)
}

func newRouter(t *testing.T, deps service.Deps) *gin.Engine {
	t.Helper()
	deps.Pipeline = service.NewPipeline(
		pricing.NewModel(pricing.DefaultTable()), extract.New(0),
		derive.Options{MarkupEnabled: true}, logger.Discard(), nil,
	)
	deps.Log = logger.Discard()
	val := validator.New()
	if err := transport.RegisterRules(val); err != nil {
		t.Fatalf("register rules: %v", err)
	}
	h := New(service.New(deps), val, logger.Discard())

	r := gin.New()
	g := r.Group("/valuations")
	g.POST("", h.Generate)
	g.POST("/jobs", h.Enqueue)
	g.GET("/jobs/:id", h.GetJob)
	g.POST("/process", h.Process)
	g.POST("/estimate", h.Estimate)
	g.POST("/print", h.Print)
	g.POST("/pdf", h.PDF)
	g.POST("/email", h.Email)
	return r
}

const profileJSON = `{
	"userType": "Usuario particular",
	"email": "ana@example.es",
	"location": {"streetType": "Calle", "streetName": "Mayor", "streetNumber": "12",
		"postalCode": "28013", "municipality": "Madrid", "province": "Madrid"},
	"propertyType": "Piso",
	"surfaceType": "Útil",
	"area": 80,
	"elevator": true,
	"terrace": false,
	"hasCommonZones": false,
	"mainPurpose": "Vender o comprar un inmueble"
}`

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestGenerateReturnsReportAndScreenHTML(t *testing.T) {
	r := newRouter(t, service.Deps{Generator: &stubGenerator{text: fixture(t)}})

	w := post(r, "/valuations", `{"profile": `+profileJSON+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp transport.ValuationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Figures.Market != 492000 || resp.Figures.Listing != 516600 {
		t.Fatalf("unexpected figures %+v", resp.Figures)
	}
	if !strings.Contains(resp.ScreenHTML, "<table>") {
		t.Fatalf("screen html missing table: %q", resp.ScreenHTML)
	}
}

func TestGenerateRejectsMalformedJSON(t *testing.T) {
	r := newRouter(t, service.Deps{})
	w := post(r, "/valuations", `{"profile":`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), msgInvalidRequest) {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestGenerateReportsFieldErrors(t *testing.T) {
	r := newRouter(t, service.Deps{})
	body := `{"profile": ` + strings.Replace(profileJSON, `"28013"`, `"99999"`, 1) + `}`

	w := post(r, "/valuations", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != msgValidationFailed || resp.Details["profile.location.postalCode"] != "es_postal_code" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestEstimate(t *testing.T) {
	r := newRouter(t, service.Deps{})
	w := post(r, "/valuations/estimate", `{"profile": `+profileJSON+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var est service.Estimate
	if err := json.Unmarshal(w.Body.Bytes(), &est); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if est.PricePerM2 != 4500 || est.Base.Source != domain.BaseFallback {
		t.Fatalf("unexpected estimate %+v", est)
	}
}

func TestEnqueueWithoutQueueIsUnavailable(t *testing.T) {
	r := newRouter(t, service.Deps{})
	w := post(r, "/valuations/jobs", `{"profile": `+profileJSON+`}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestEnqueueReturnsJobLink(t *testing.T) {
	r := newRouter(t, service.Deps{Jobs: stubJobs{}})
	w := post(r, "/valuations/jobs", `{"profile": `+profileJSON+`}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp transport.JobAcceptedResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.JobID == "" || resp.StatusURL != "/valuations/jobs/"+resp.JobID {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestGetUnknownJob(t *testing.T) {
	r := newRouter(t, service.Deps{Jobs: stubJobs{}})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/valuations/jobs/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func processedReport(t *testing.T, r *gin.Engine) domain.Report {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{
		"profile":   json.RawMessage(profileJSON),
		"narrative": fixture(t),
	})
	w := post(r, "/valuations/process", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("process status = %d body=%s", w.Code, w.Body.String())
	}
	var report domain.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return report
}

func reportBody(t *testing.T, report domain.Report, autoPrint bool) string {
	t.Helper()
	b, err := json.Marshal(transport.ReportRequest{Report: report, AutoPrint: autoPrint})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(b)
}

func TestPrintReturnsDocument(t *testing.T) {
	r := newRouter(t, service.Deps{})
	report := processedReport(t, r)

	w := post(r, "/valuations/print", reportBody(t, report, true))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "492.000 €") {
		t.Fatalf("document missing market value")
	}
}

func TestPrintRequiresContent(t *testing.T) {
	r := newRouter(t, service.Deps{})
	w := post(r, "/valuations/print", `{"report": {}}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestPDFWithoutConverterIsUnavailable(t *testing.T) {
	r := newRouter(t, service.Deps{})
	report := processedReport(t, r)
	w := post(r, "/valuations/pdf", reportBody(t, report, false))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestPDFServesBytes(t *testing.T) {
	r := newRouter(t, service.Deps{Exporter: service.NewExporter(stubConverter{}, nil, nil, logger.Discard())})
	report := processedReport(t, r)

	w := post(r, "/valuations/pdf", reportBody(t, report, false))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Type") != contentTypePDF {
		t.Fatalf("content type = %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "informe-valoracion-calle-mayor-12.pdf") {
		t.Fatalf("disposition = %q", w.Header().Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("unexpected body %q", w.Body.String())
	}
}

func TestEmailValidatesRecipient(t *testing.T) {
	r := newRouter(t, service.Deps{})
	w := post(r, "/valuations/email", `{"to": "not-an-email", "report": {"reportContent": "x"}}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"to"`) {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}

func TestEmailSendsWithNoopMailer(t *testing.T) {
	r := newRouter(t, service.Deps{})
	report := processedReport(t, r)
	body, _ := json.Marshal(transport.EmailRequest{To: "ana@example.es", Report: report})

	w := post(r, "/valuations/email", string(body))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "sent") {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
}
