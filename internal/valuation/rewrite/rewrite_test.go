package rewrite

import (
	"os"
	"strings"
	"testing"

	"github.com/vglena/valorapro/internal/valuation/domain"
)

const statement = "Superficie considerada a efectos de valoración: 100 m² construidos con elementos comunes (CCC)."

var figures = domain.CanonicalFigures{Market: 492000, Mortgage: 418200, FreeMarket: 516600, Listing: 516600}

func loadFixture(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("../testdata/informe.md")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(b)
}

func TestRewriteFixture(t *testing.T) {
	in := loadFixture(t)
	out, outcome := Rewrite(in, figures, statement)

	if !outcome.ValuesBlockFound || outcome.SurfaceStatementsReplaced != 1 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	wantBlock := "**VALORES A EMITIR:**\n\n" +
		"**1. VALOR DE MERCADO (ECO/ECM):** 492.000 €\n" +
		"**2. VALOR DE GARANTÍA HIPOTECARIA:** 418.200 €\n" +
		"**3. VALOR DE MERCADO LIBRE (no OM):** 516.600 €\n" +
		"**4. VALOR DE VENTA RECOMENDADO:** 516.600 €\n\n## 8. FACTORES"
	if !strings.Contains(out, wantBlock) {
		t.Fatalf("canonical block not found in:\n%s", out)
	}
	if strings.Contains(out, "410.000") {
		t.Fatalf("old market value survived")
	}
	if !strings.Contains(out, statement+" El método de comparación") {
		t.Fatalf("surface sentence not replaced in place:\n%s", out)
	}
	if strings.Contains(out, "96 m²") {
		t.Fatalf("old surface statement survived")
	}
}

func TestWarningsSectionUntouchedAndLast(t *testing.T) {
	in := loadFixture(t)
	out, _ := Rewrite(in, figures, statement)

	warnIn := in[strings.Index(in, "## 11. ADVERTENCIAS"):]
	if !strings.HasSuffix(out, warnIn) {
		t.Fatalf("warnings section changed or content appended after it")
	}
	if strings.Count(out, "ADVERTENCIAS") != 1 {
		t.Fatalf("warnings section duplicated")
	}
}

func TestRewriteIsIdempotent(t *testing.T) {
	inputs := []string{
		loadFixture(t),
		"## 7. VALORES A EMITIR\n\n- Valor de mercado: 200.000 €\n- Valor hipotecario: 170.000 €\n\n## 11. ADVERTENCIAS\nTexto.",
		"Texto previo.\n\nVALORES A EMITIR\nValor de mercado: 1 €",
		"Sin bloque, pero la superficie a efectos de valoración es 80 m².",
	}
	for _, in := range inputs {
		once, _ := Rewrite(in, figures, statement)
		twice, _ := Rewrite(once, figures, statement)
		if once != twice {
			t.Fatalf("not idempotent for %q:\nonce:\n%s\ntwice:\n%s", in, once, twice)
		}
	}
}

func TestMissingValuesBlockLeavesNarrativeUnchanged(t *testing.T) {
	in := "## 7. VALORACIÓN\n\nLa superficie a efectos de valoración es de 90 m².\n\n## 11. ADVERTENCIAS\nTexto."
	out, outcome := Rewrite(in, figures, statement)
	if out != in {
		t.Fatalf("expected unchanged narrative, got:\n%s", out)
	}
	if outcome.ValuesBlockFound || outcome.SurfaceStatementsReplaced != 0 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestBlockStopsBeforeWarningsWithoutHeading(t *testing.T) {
	in := "**VALORES A EMITIR:**\n- Valor de mercado: 200.000 €\n**ADVERTENCIAS:** no es una tasación."
	out, _ := Rewrite(in, figures, statement)
	if !strings.HasSuffix(out, "\n\n**ADVERTENCIAS:** no es una tasación.") {
		t.Fatalf("warnings line consumed:\n%s", out)
	}
}

func TestHeadingAnchorIsKept(t *testing.T) {
	in := "## 7. VALORES A EMITIR\n\n- Valor de mercado: 200.000 €\n\n## 8. OTROS"
	out, _ := Rewrite(in, figures, statement)
	want := "## 7. VALORES A EMITIR\n\n**1. VALOR DE MERCADO (ECO/ECM):** 492.000 €"
	if !strings.HasPrefix(out, want) {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if !strings.HasSuffix(out, "516.600 €\n\n## 8. OTROS") {
		t.Fatalf("following section not preserved:\n%s", out)
	}
}

func TestTrailingProseIsPreserved(t *testing.T) {
	in := "**VALORES A EMITIR:**\n\n1. Valor de mercado: 200.000 €\n\nEstos importes se han redondeado.\n"
	out, _ := Rewrite(in, figures, statement)
	if !strings.Contains(out, "516.600 €\n\nEstos importes se han redondeado.") {
		t.Fatalf("prose after the block was lost:\n%s", out)
	}
}

func TestSurfaceInWarningsIsNotRewritten(t *testing.T) {
	in := "**VALORES A EMITIR:**\n- Valor: 1 €\n\n## 11. ADVERTENCIAS\nLa superficie a efectos de valoración no ha sido medida."
	out, outcome := Rewrite(in, figures, statement)
	if outcome.SurfaceStatementsReplaced != 0 || !strings.HasSuffix(out, "no ha sido medida.") {
		t.Fatalf("warnings rewritten: %+v\n%s", outcome, out)
	}
}

func TestBulletSurfaceStatement(t *testing.T) {
	in := "- **Superficie a efectos de valoración:** 96 m²\n\n**VALORES A EMITIR:**\n- Valor: 1 €"
	out, outcome := Rewrite(in, figures, statement)
	if outcome.SurfaceStatementsReplaced != 1 || !strings.HasPrefix(out, "- "+statement+"\n") {
		t.Fatalf("unexpected output %+v:\n%s", outcome, out)
	}
}

func TestAbbreviationDoesNotSplitSurfaceSentence(t *testing.T) {
	in := "El inmueble es exterior. Superficie aprox. 85 m² a efectos de valoración.\n\n**VALORES A EMITIR:**\n- Valor: 1 €"
	out, outcome := Rewrite(in, figures, statement)
	if outcome.SurfaceStatementsReplaced != 1 {
		t.Fatalf("expected one replacement, got %+v", outcome)
	}
	if !strings.HasPrefix(out, "El inmueble es exterior. "+statement+"\n") || strings.Contains(out, "aprox.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSplitAnchorsReplaceWholeLine(t *testing.T) {
	in := "Superficie de 85 m². Se toma a efectos de valoración la catastral.\n\n**VALORES A EMITIR:**\n- Valor: 1 €"
	out, outcome := Rewrite(in, figures, statement)
	if outcome.SurfaceStatementsReplaced != 1 || !strings.HasPrefix(out, statement+"\n") {
		t.Fatalf("unexpected output %+v:\n%s", outcome, out)
	}
	again, _ := Rewrite(out, figures, statement)
	if again != out {
		t.Fatalf("rewrite not idempotent:\n%s", again)
	}
}
