// Package email delivers the valuation summary to applicants.
package email

import (
	"context"
)

// Attachment represents a file attachment for an email.
type Attachment struct {
	Content  []byte // raw file bytes
	FileName string // e.g. "informe-valoracion-calle-mayor.pdf"
	MIMEType string // e.g. "application/pdf"
}

// ValuationSummary holds the named fields the summary template renders. The
// full report document is never sent in the body.
type ValuationSummary struct {
	ToName          string
	PropertyAddress string
	PropertyType    string
	PropertyArea    string
	ValuationMin    string
	ValuationMax    string
	Confidence      string
	Summary         string
}

type Sender interface {
	SendValuationSummary(ctx context.Context, toEmail string, summary ValuationSummary, attachments ...Attachment) error
}

// NoopSender is used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendValuationSummary(ctx context.Context, toEmail string, summary ValuationSummary, attachments ...Attachment) error {
	return nil
}

var (
	_ Sender = (*SMTPSender)(nil)
	_ Sender = NoopSender{}
)
