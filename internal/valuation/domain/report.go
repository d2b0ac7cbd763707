package domain

import (
	"errors"
	"time"
)

// Provider identifies the backend that wrote a narrative.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	// ProviderSupplied marks narratives posted by the caller for reprocessing.
	ProviderSupplied Provider = "supplied"
)

// Confidence levels reported to the client.
const (
	ConfidenceHigh   = "alto"
	ConfidenceMedium = "medio"
)

// RewriteOutcome records which anchors the rewriter found.
type RewriteOutcome struct {
	ValuesBlockFound          bool `json:"valuesBlockFound"`
	SurfaceStatementsReplaced int  `json:"surfaceStatementsReplaced"`
}

// Coordinates is a geocoded point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Report is the frozen result of one valuation.
type Report struct {
	ID                  string                    `json:"id"`
	Profile             PropertyProfile           `json:"profile"`
	PropertyDescription string                    `json:"propertyDescription"`
	ValuationApproach   string                    `json:"valuationApproach"`
	Base                Base                      `json:"base"`
	Extracted           map[FigureKind]FigureView `json:"extracted"`
	Figures             CanonicalFigures          `json:"figures"`
	PricePerSquareMeter int64                     `json:"pricePerSquareMeter"`
	Confidence          string                    `json:"confidence"`
	Summary             string                    `json:"summary"`
	Content             string                    `json:"reportContent"`
	NextSteps           []string                  `json:"nextSteps"`
	Rewrite             RewriteOutcome            `json:"rewrite"`
	Provider            Provider                  `json:"provider"`
	Coordinates         *Coordinates              `json:"coordinates,omitempty"`
	GeneratedAt         time.Time                 `json:"generatedAt"`
}

// JobState is the lifecycle state of an asynchronous valuation.
type JobState string

const (
	JobPending   JobState = "pending"
	JobActive    JobState = "active"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// ErrJobNotFound is returned for unknown or expired job ids.
var ErrJobNotFound = errors.New("valuation job not found")

// Job is the status of an asynchronous valuation. Report is set once the job
// has completed.
type Job struct {
	ID     string   `json:"jobId"`
	State  JobState `json:"state"`
	Report *Report  `json:"report,omitempty"`
	Error  string   `json:"error,omitempty"`
}
