package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/vglena/valorapro/internal/adapters/storage"
	"github.com/vglena/valorapro/internal/email"
	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/internal/valuation/numparse"
	"github.com/vglena/valorapro/internal/valuation/render"
	"github.com/vglena/valorapro/platform/apperr"
	"github.com/vglena/valorapro/platform/logger"
)

// PDFConverter turns a print document into PDF bytes.
type PDFConverter interface {
	ConvertReport(ctx context.Context, document string) ([]byte, error)
}

// ReportArchive keeps generated PDFs and hands out download links.
type ReportArchive interface {
	ArchiveReport(ctx context.Context, reportID string, generatedAt time.Time, pdf []byte) (*storage.PresignedURL, error)
}

// Exporter renders reports for print and delivers them as PDF or email.
// PDF and Archive are optional; Mailer defaults to a no-op sender.
type Exporter struct {
	pdf     PDFConverter
	archive ReportArchive
	mailer  email.Sender
	log     *logger.Logger
}

func NewExporter(pdf PDFConverter, archive ReportArchive, mailer email.Sender, log *logger.Logger) *Exporter {
	if mailer == nil {
		mailer = email.NoopSender{}
	}
	return &Exporter{pdf: pdf, archive: archive, mailer: mailer, log: log}
}

// PDFExport is a converted report. URL is set when the PDF was archived.
type PDFExport struct {
	Content  []byte
	FileName string
	URL      *storage.PresignedURL
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// PrintDocument renders the standalone print document of a report.
func (e *Exporter) PrintDocument(report domain.Report, autoPrint bool) (string, error) {
	doc, err := render.PrintDocument(render.DocumentFromReport(report, autoPrint))
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "could not render report", err).WithOp("valuation.PrintDocument")
	}
	return doc, nil
}

// PDF converts a report to PDF and archives it when storage is configured.
// An archive failure still returns the PDF.
func (e *Exporter) PDF(ctx context.Context, report domain.Report) (PDFExport, error) {
	if e.pdf == nil {
		return PDFExport{}, apperr.Unavailable("PDF export is not configured")
	}

	doc, err := e.PrintDocument(report, false)
	if err != nil {
		return PDFExport{}, err
	}
	content, err := e.pdf.ConvertReport(ctx, doc)
	if err != nil {
		e.log.ExternalCallFailed("gotenberg", "convert", "generic", err)
		return PDFExport{}, apperr.Wrap(apperr.KindBadGateway, "PDF conversion failed", err).WithOp("valuation.PDF")
	}

	out := PDFExport{Content: content, FileName: ReportFileName(report)}
	if e.archive != nil && report.ID != "" {
		url, err := e.archive.ArchiveReport(ctx, report.ID, report.GeneratedAt, content)
		if err != nil {
			e.log.ExternalCallFailed("minio", "archive", "generic", err)
		} else {
			out.URL = url
		}
	}
	return out, nil
}

// SendSummary emails the summary fields of a report to to. With attachPDF the
// PDF is attached when conversion is available.
func (e *Exporter) SendSummary(ctx context.Context, to string, report domain.Report, attachPDF bool) error {
	var attachments []email.Attachment
	if attachPDF && e.pdf != nil {
		export, err := e.PDF(ctx, report)
		if err != nil {
			return err
		}
		attachments = append(attachments, email.Attachment{
			Content:  export.Content,
			FileName: export.FileName,
			MIMEType: "application/pdf",
		})
	}

	if err := e.mailer.SendValuationSummary(ctx, to, Summary(report), attachments...); err != nil {
		e.log.ExternalCallFailed("smtp", "send", "generic", err)
		return apperr.Wrap(apperr.KindBadGateway, "could not send email", err).WithOp("valuation.SendSummary")
	}
	return nil
}

// Summary extracts the named fields the summary email renders.
func Summary(report domain.Report) email.ValuationSummary {
	p := report.Profile
	toName := "Usuario"
	if p.UserType == domain.UserProfessional {
		toName = "Profesional"
	}
	return email.ValuationSummary{
		ToName:          toName,
		PropertyAddress: p.FullAddress(),
		PropertyType:    string(p.PropertyType),
		PropertyArea:    numparse.FormatArea(p.Area) + " m²",
		ValuationMin:    numparse.FormatEUR(report.Figures.Market),
		ValuationMax:    numparse.FormatEUR(report.Figures.Listing),
		Confidence:      report.Confidence,
		Summary:         report.Summary,
	}
}

// ReportFileName names the PDF after the street, e.g.
// "informe-valoracion-calle-mayor-12.pdf".
func ReportFileName(report domain.Report) string {
	loc := report.Profile.Location
	slug := slugify(strings.Join([]string{loc.StreetType, loc.StreetName, loc.StreetNumber}, " "))
	if slug == "" {
		return "informe-valoracion.pdf"
	}
	return fmt.Sprintf("informe-valoracion-%s.pdf", slug)
}

func slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(folded), "-"), "-")
}
