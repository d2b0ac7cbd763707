// Package notification reacts to valuation events: it mails the summary to
// applicants who asked for it and pushes job outcomes to SSE subscribers.
package notification

import (
	"context"

	"github.com/vglena/valorapro/internal/events"
	apphttp "github.com/vglena/valorapro/internal/http"
	"github.com/vglena/valorapro/internal/notification/sse"
	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/platform/logger"
)

// SummarySender delivers the summary email of a report.
type SummarySender interface {
	SendSummary(ctx context.Context, to string, report domain.Report, attachPDF bool) error
}

// Module handles valuation events.
type Module struct {
	sender    SummarySender
	attachPDF bool
	sse       *sse.Service
	log       *logger.Logger
}

// New creates the notification module. sender may be nil when email is off.
func New(sender SummarySender, attachPDF bool, log *logger.Logger) *Module {
	return &Module{
		sender:    sender,
		attachPDF: attachPDF,
		sse:       sse.New(log),
		log:       log,
	}
}

// SSE exposes the stream service.
func (m *Module) SSE() *sse.Service {
	return m.sse
}

// RegisterHandlers subscribes the module to the valuation events.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.NameValuationCompleted, m)
	bus.Subscribe(events.NameValuationFailed, m)
	m.log.Info("notification handlers registered")
}

// Handle implements events.Handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ValuationCompleted:
		return m.handleValuationCompleted(ctx, e)
	case events.ValuationFailed:
		m.handleValuationFailed(e)
		return nil
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

func (m *Module) handleValuationCompleted(ctx context.Context, e events.ValuationCompleted) error {
	if e.JobID != "" {
		m.sse.Publish(sse.Event{
			Type:  sse.EventValuationCompleted,
			JobID: e.JobID,
			Data:  map[string]interface{}{"reportId": e.Report.ID, "figures": e.Report.Figures},
		})
	}

	if !e.NotifyApplicant || m.sender == nil {
		return nil
	}
	log := m.log.WithContext(ctx)
	if err := m.sender.SendSummary(ctx, e.Report.Profile.Email, e.Report, m.attachPDF); err != nil {
		log.Error("failed to send valuation summary", "reportId", e.Report.ID, "error", err)
		return err
	}
	log.Info("valuation summary sent", "reportId", e.Report.ID)
	return nil
}

func (m *Module) handleValuationFailed(e events.ValuationFailed) {
	if e.JobID == "" {
		return
	}
	m.sse.Publish(sse.Event{
		Type:    sse.EventValuationFailed,
		JobID:   e.JobID,
		Message: e.Reason,
		Data:    map[string]interface{}{"category": e.Category},
	})
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// RegisterRoutes mounts the job event stream next to the job status route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/valuations/jobs/:id/events", m.sse.Handler())
}

var (
	_ apphttp.Module = (*Module)(nil)
	_ events.Handler = (*Module)(nil)
)
