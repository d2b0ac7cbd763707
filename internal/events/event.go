// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Valuation Domain Events
// =============================================================================

// Event names, also used as subscription keys.
const (
	NameValuationCompleted = "valuation.completed"
	NameValuationFailed    = "valuation.failed"
)

// ValuationCompleted is published once a report has been produced. JobID is
// set when the generation ran as a queued job. NotifyApplicant is true when
// the submission asked for the summary by email.
type ValuationCompleted struct {
	BaseEvent
	JobID           string        `json:"jobId,omitempty"`
	Report          domain.Report `json:"report"`
	NotifyApplicant bool          `json:"notifyApplicant"`
}

func (e ValuationCompleted) EventName() string { return NameValuationCompleted }

// ValuationFailed is published when the narrative could not be generated.
type ValuationFailed struct {
	BaseEvent
	JobID    string          `json:"jobId,omitempty"`
	Provider domain.Provider `json:"provider,omitempty"`
	Category string          `json:"category"`
	Reason   string          `json:"reason"`
}

func (e ValuationFailed) EventName() string { return NameValuationFailed }
