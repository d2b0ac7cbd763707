package email

import (
	"context"
	"strings"
	"testing"

	"github.com/vglena/valorapro/platform/config"
)

func sampleSummary() ValuationSummary {
	return ValuationSummary{
		ToName:          "Usuario",
		PropertyAddress: "Calle Mayor 12, Madrid",
		PropertyType:    "Piso",
		PropertyArea:    "85 m²",
		ValuationMin:    "492.000 €",
		ValuationMax:    "516.600 €",
		Confidence:      "alto",
		Summary:         "Piso de 85 m² en 28013 Madrid, Madrid.",
	}
}

func TestRenderValuationSummary(t *testing.T) {
	html, err := renderValuationSummary(sampleSummary(), true)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{
		"Hola Usuario", "Calle Mayor 12, Madrid", "Piso (85 m²)",
		"492.000 € - 516.600 €", "alto", "PDF adjunto",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered email is missing %q", want)
		}
	}
}

func TestRenderValuationSummaryEscapesFields(t *testing.T) {
	s := sampleSummary()
	s.Summary = "<script>alert(1)</script>"
	html, err := renderValuationSummary(s, false)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("summary was not escaped")
	}
	if strings.Contains(html, "PDF adjunto") {
		t.Fatalf("attachment note rendered without attachments")
	}
}

func TestValuationSubject(t *testing.T) {
	if got := valuationSubject(ValuationSummary{}); got != subjectValuationFallback {
		t.Fatalf("unexpected fallback subject %q", got)
	}
	if got := valuationSubject(sampleSummary()); !strings.Contains(got, "Calle Mayor 12") {
		t.Fatalf("subject should name the address, got %q", got)
	}
}

func TestNewSenderWithoutSMTPIsNoop(t *testing.T) {
	sender := NewSender(&config.Config{})
	if _, ok := sender.(NoopSender); !ok {
		t.Fatalf("expected NoopSender, got %T", sender)
	}
	if err := sender.SendValuationSummary(context.Background(), "a@b.es", sampleSummary()); err != nil {
		t.Fatalf("noop send: %v", err)
	}
}
