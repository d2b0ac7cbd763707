// Package rewrite replaces the numeric statements of a narrative report with
// canonical text: the surface considered for the valuation and the block of
// values issued. Everything from the warnings section on is left untouched.
package rewrite

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vglena/valorapro/internal/valuation/domain"
	"github.com/vglena/valorapro/internal/valuation/numparse"
)

// ValuesHeading opens the canonical values block.
const ValuesHeading = "**VALORES A EMITIR:**"

var (
	valuesLabelLine  = regexp.MustCompile(`(?i)^[\s#*>\d.)-]*valores\s+a\s+emitir[\s*:.]*$`)
	valueLine        = regexp.MustCompile(`(?i)^\s*(?:[-•]\s*|\*\s+)?(?:\*\*)?\s*(?:\d+[.)]\s*)?(?:\*\*)?\s*(?:valor|precio)\b`)
	headingLine      = regexp.MustCompile(`^\s{0,3}#`)
	ruleLine         = regexp.MustCompile(`^\s*(?:-{3,}|_{3,}|\*{3,})\s*$`)
	warningsLine     = regexp.MustCompile(`(?i)advertencia`)
	boldTitleLine    = regexp.MustCompile(`^[ \t]*\*\*[ \t]*(?:\d{1,2}[.)][ \t]*)?[A-ZÁÉÍÓÚÜÑ][A-ZÁÉÍÓÚÜÑ0-9 ,/()-]{2,}:?[ \t]*\*\*[ \t]*:?[ \t]*$`)
	surfaceTopic     = regexp.MustCompile(`(?i)superficie`)
	valuationPurpose = regexp.MustCompile(`(?i)a\s+efectos\s+de\s+(?:la\s+)?valoraci[oó]n`)
	sentenceBreak    = regexp.MustCompile(`\.\s+`)
	bulletPrefix     = regexp.MustCompile(`^\s*(?:[-•>]\s+|\*\s+)?`)
)

// Outcome reports which anchors were found.
type Outcome struct {
	ValuesBlockFound          bool
	SurfaceStatementsReplaced int
}

// ValuesBlock renders the canonical enumeration of the figures.
func ValuesBlock(f domain.CanonicalFigures) string {
	return strings.Join([]string{
		ValuesHeading,
		"",
		fmt.Sprintf("**1. VALOR DE MERCADO (ECO/ECM):** %s", numparse.FormatEUR(f.Market)),
		fmt.Sprintf("**2. VALOR DE GARANTÍA HIPOTECARIA:** %s", numparse.FormatEUR(f.Mortgage)),
		fmt.Sprintf("**3. VALOR DE MERCADO LIBRE (no OM):** %s", numparse.FormatEUR(f.FreeMarket)),
		fmt.Sprintf("**4. VALOR DE VENTA RECOMENDADO:** %s", numparse.FormatEUR(f.Listing)),
	}, "\n")
}

// Rewrite replaces every surface statement with surfaceStatement and the
// values block with the canonical figures. When the narrative has no values
// block it is returned unchanged. Rewrite is idempotent.
func Rewrite(text string, figures domain.CanonicalFigures, surfaceStatement string) (string, Outcome) {
	lines := strings.Split(text, "\n")
	warnAt := warningsStart(lines)

	label, end, ok := findValuesBlock(lines, warnAt)
	if !ok {
		return text, Outcome{}
	}

	out := Outcome{ValuesBlockFound: true}

	var b []string
	for i := 0; i < label; i++ {
		line, n := replaceSurface(lines[i], surfaceStatement)
		out.SurfaceStatementsReplaced += n
		b = append(b, line)
	}

	block := ValuesBlock(figures)
	if headingLine.MatchString(lines[label]) {
		// Keep a heading anchor as the section title.
		block = lines[label] + "\n\n" + strings.TrimPrefix(block, ValuesHeading+"\n\n")
	}
	b = append(b, strings.Split(block, "\n")...)
	if end < len(lines) {
		b = append(b, "")
	}

	for i := end; i < len(lines); i++ {
		line := lines[i]
		if i < warnAt {
			var n int
			line, n = replaceSurface(line, surfaceStatement)
			out.SurfaceStatementsReplaced += n
		}
		b = append(b, line)
	}

	return strings.Join(b, "\n"), out
}

// warningsStart returns the index of the line opening the warnings section,
// or len(lines).
func warningsStart(lines []string) int {
	for i, line := range lines {
		if IsWarningsHeading(line) {
			return i
		}
	}
	return len(lines)
}

// IsWarningsHeading reports whether line opens the warnings section, in any
// of its forms: "## ADVERTENCIAS", "**ADVERTENCIAS:**", "11. Advertencias".
func IsWarningsHeading(line string) bool {
	trimmed := strings.TrimLeft(line, " \t#*>0123456789.)")
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(trimmed)), "advertencia")
}

// IsSectionTitle reports whether line is a bold all-caps title such as
// "**CONCLUSIÓN**" or "**11. ANEXOS:**".
func IsSectionTitle(line string) bool {
	return boldTitleLine.MatchString(line)
}

// findValuesBlock returns the label line index and the first line after the
// block. The block ends before the first heading, horizontal rule, warnings
// line, or non-blank line that does not state a value.
func findValuesBlock(lines []string, limit int) (label, end int, ok bool) {
	label = -1
	for i := 0; i < limit; i++ {
		if valuesLabelLine.MatchString(lines[i]) {
			label = i
			break
		}
	}
	if label < 0 {
		return 0, 0, false
	}

	end = label + 1
	for ; end < len(lines); end++ {
		line := lines[end]
		if end >= limit || headingLine.MatchString(line) || ruleLine.MatchString(line) || warningsLine.MatchString(line) {
			break
		}
		if strings.TrimSpace(line) != "" && !valueLine.MatchString(line) {
			break
		}
	}
	return label, end, true
}

// replaceSurface rewrites every sentence of line that states the surface
// considered for the valuation. Headings and table rows are skipped.
func replaceSurface(line, statement string) (string, int) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || headingLine.MatchString(line) || strings.HasPrefix(trimmed, "|") {
		return line, 0
	}
	if !surfaceTopic.MatchString(line) || !valuationPurpose.MatchString(line) {
		return line, 0
	}

	prefix := bulletPrefix.FindString(line)
	body := line[len(prefix):]

	var sentences, seps []string
	last := 0
	for _, loc := range sentenceBreak.FindAllStringIndex(body, -1) {
		if !opensSentence(body[loc[1]:]) {
			continue
		}
		sentences = append(sentences, body[last:loc[0]+1])
		seps = append(seps, body[loc[0]+1:loc[1]])
		last = loc[1]
	}
	sentences = append(sentences, body[last:])
	seps = append(seps, "")

	replaced := 0
	var b strings.Builder
	b.WriteString(prefix)
	for i, s := range sentences {
		if surfaceTopic.MatchString(s) && valuationPurpose.MatchString(s) {
			trail := s[len(strings.TrimRight(s, " \t")):]
			s = statement + trail
			replaced++
		}
		b.WriteString(s)
		b.WriteString(seps[i])
	}
	if replaced == 0 {
		// The anchors sit in different fragments; the whole line is the claim.
		trail := body[len(strings.TrimRight(body, " \t")):]
		return prefix + statement + trail, 1
	}
	return b.String(), replaced
}

// opensSentence reports whether rest, the text after a full stop, starts a new
// sentence. "aprox. 85 m²" does not.
func opensSentence(rest string) bool {
	r, _ := utf8.DecodeRuneInString(rest)
	return unicode.IsUpper(r) || strings.ContainsRune("*¿¡«\"", r)
}
