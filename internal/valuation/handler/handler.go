package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/internal/valuation/render"
	"github.com/vglena/valorapro/internal/valuation/service"
	"github.com/vglena/valorapro/internal/valuation/transport"
	"github.com/vglena/valorapro/platform/httpkit"
	"github.com/vglena/valorapro/platform/logger"
	"github.com/vglena/valorapro/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgReportRequired   = "report content is required"
)

// Handler handles HTTP requests for valuations.
type Handler struct {
	svc *service.Service
	val *validator.Validator
	log *logger.Logger
}

// New creates a valuation handler. The validator must have the valuation
// rules registered.
func New(svc *service.Service, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, val: val, log: log}
}

// Generate writes a report synchronously.
func (h *Handler) Generate(c *gin.Context) {
	var req transport.ValuationRequest
	if !h.bind(c, &req) {
		return
	}

	report, err := h.svc.Generate(c.Request.Context(), req.Profile.ToProfile(), req.SendEmail)
	if httpkit.HandleError(c, err) {
		return
	}
	h.respondReport(c, report)
}

// Enqueue queues a generation and returns its job id.
func (h *Handler) Enqueue(c *gin.Context) {
	var req transport.ValuationRequest
	if !h.bind(c, &req) {
		return
	}

	jobID, err := h.svc.Enqueue(c.Request.Context(), req.Profile.ToProfile(), req.SendEmail)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Accepted(c, transport.JobAcceptedResponse{
		JobID:     jobID,
		StatusURL: strings.TrimSuffix(c.Request.URL.Path, "/") + "/" + jobID,
	})
}

// GetJob reports the state of a queued generation.
func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.svc.JobStatus(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}

	resp := transport.JobResponse{Job: job}
	if job.Report != nil {
		resp.ScreenHTML = h.screenHTML(*job.Report)
	}
	httpkit.OK(c, resp)
}

// Process runs the post-processing pipeline on a supplied narrative.
func (h *Handler) Process(c *gin.Context) {
	var req transport.ProcessRequest
	if !h.bind(c, &req) {
		return
	}
	h.respondReport(c, h.svc.Process(req.Profile.ToProfile(), req.Narrative))
}

// Estimate returns the local reference estimate without any generation.
func (h *Handler) Estimate(c *gin.Context) {
	var req transport.EstimateRequest
	if !h.bind(c, &req) {
		return
	}
	httpkit.OK(c, h.svc.Estimate(req.Profile.ToProfile()))
}

// Print returns the standalone print document.
func (h *Handler) Print(c *gin.Context) {
	var req transport.ReportRequest
	if !h.bindReport(c, &req) {
		return
	}

	doc, err := h.svc.Exporter().PrintDocument(req.Report, req.AutoPrint)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.HTML(c, http.StatusOK, doc)
}

// PDF converts the report. When archiving is enabled the response is a
// download link instead of the file.
func (h *Handler) PDF(c *gin.Context) {
	var req transport.ReportRequest
	if !h.bindReport(c, &req) {
		return
	}

	export, err := h.svc.Exporter().PDF(c.Request.Context(), req.Report)
	if httpkit.HandleError(c, err) {
		return
	}
	if export.URL != nil {
		httpkit.OK(c, transport.PDFLinkResponse{
			URL:       export.URL.URL,
			FileKey:   export.URL.FileKey,
			FileName:  export.FileName,
			ExpiresAt: export.URL.ExpiresAt,
		})
		return
	}
	servePDFBytes(c, export.FileName, export.Content)
}

// Email sends the summary email for a report.
func (h *Handler) Email(c *gin.Context) {
	var req transport.EmailRequest
	if !h.bind(c, &req) {
		return
	}
	if strings.TrimSpace(req.Report.Content) == "" {
		httpkit.Error(c, http.StatusBadRequest, msgReportRequired, nil)
		return
	}

	if err := h.svc.Exporter().SendSummary(c.Request.Context(), req.To, req.Report, req.AttachPDF); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.EmailResponse{Status: "sent"})
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func (h *Handler) bindReport(c *gin.Context, req *transport.ReportRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return false
	}
	if strings.TrimSpace(req.Report.Content) == "" {
		httpkit.Error(c, http.StatusBadRequest, msgReportRequired, nil)
		return false
	}
	return true
}

func (h *Handler) respondReport(c *gin.Context, report domain.Report) {
	httpkit.OK(c, transport.ValuationResponse{Report: report, ScreenHTML: h.screenHTML(report)})
}

// screenHTML renders the on-screen view. A render failure only drops the
// HTML; the report itself is still returned.
func (h *Handler) screenHTML(report domain.Report) string {
	html, err := render.ScreenHTML(report.Content)
	if err != nil {
		h.log.Warn("screen render failed", "reportId", report.ID, "error", err)
		return ""
	}
	return html
}
