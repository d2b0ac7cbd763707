// Package render turns a rewritten valuation narrative into HTML, either as a
// print-ready fragment (PrintHTML, PrintDocument) or for on-screen display
// (ScreenHTML).
package render

import (
	"html"
	"regexp"
	"strings"

	"github.com/vglena/valorapro/internal/valuation/rewrite"
)

var (
	tableSeparatorLine = regexp.MustCompile(`^\|?[ \t]*:?-+:?[ \t]*(?:\|[ \t]*:?-+:?[ \t]*)*\|?$`)

	nextStepsHeading = regexp.MustCompile(`(?i)^[ \t]*#{0,6}[ \t]*(?:\*\*)?[ \t]*10\.[ \t]*SIGUIENTES[ \t]+PASOS[ \t]+RECOMENDADOS`)
	sectionBoundary  = regexp.MustCompile(`(?i)^[ \t]*(?:#{1,6}[ \t]|(?:\*\*)?[ \t]*11\.)`)

	// Disclaimer spans never cross a blank line.
	legalVariants = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\*\*AVISO LEGAL[:*]*\*\*(?:[^\n]|\n[^\n])*?Banco de España\.?`),
		regexp.MustCompile(`(?i)AVISO LEGAL:(?:[^\n]|\n[^\n])*?Banco de España\.?`),
		regexp.MustCompile(`(?i)Este informe no constituye una tasaci[oó]n oficial(?:[^\n]|\n[^\n])*?Banco de España\.?`),
		regexp.MustCompile(`(?im)[^.\n]*no constituye una tasaci[oó]n oficial[^\n]*?(?:\.(?:[ \t]|$)|$)`),
	}

	artifactLine = regexp.MustCompile(`^[ \t]*(?:[-•*]|\*\*[ \t]*\*\*|-{2,}|_{2,}|\*{2,})[ \t]*$`)

	markedHeading   = regexp.MustCompile(`^[ \t]*(#{1,6})[ \t]*(.*?)[ \t#]*$`)
	numberedHeading = regexp.MustCompile(`^[ \t]*(?:\*\*)?[ \t]*(\d{1,2})\.[ \t]+([A-ZÁÉÍÓÚÜÑ][A-ZÁÉÍÓÚÜÑ0-9 ,/()-]*[A-ZÁÉÍÓÚÜÑ)])[ \t]*:?[ \t]*(?:\*\*)?[ \t]*:?$`)
	boldSpan        = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	bulletItem      = regexp.MustCompile(`^[ \t]*[-•*][ \t]+(.+)$`)
	numberedItem    = regexp.MustCompile(`^[ \t]*\d+[.)][ \t]+(.+)$`)
)

const tablePrefix = "<table>"

// PrintHTML converts a narrative into the HTML fragment embedded in the print
// document. Steps run in a fixed order: escape, tables, next-steps removal,
// disclaimer removal, artifact cleanup, then block assembly (headings, bold,
// lists, paragraphs). Unrecognised input ends up as paragraph text.
func PrintHTML(markdown string) string {
	text := strings.ReplaceAll(markdown, "\r\n", "\n")
	text = html.EscapeString(text)

	lines := convertTables(strings.Split(text, "\n"))
	lines = removeNextSteps(lines)

	text = stripLegal(strings.Join(lines, "\n"))

	lines = strings.Split(text, "\n")
	for i, line := range lines {
		if artifactLine.MatchString(line) {
			lines[i] = ""
		}
	}
	return assemble(lines)
}

// RemoveNextSteps drops section 10 from a Markdown narrative. The section is
// rendered separately from the report's next-steps list.
func RemoveNextSteps(markdown string) string {
	lines := strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n")
	return strings.Join(removeNextSteps(lines), "\n")
}

func removeNextSteps(lines []string) []string {
	start := -1
	for i, line := range lines {
		if nextStepsHeading.MatchString(line) {
			start = i
			break
		}
	}
	if start < 0 {
		return lines
	}
	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		if isSectionBoundary(lines[i]) {
			end = i
			break
		}
	}
	out := make([]string, 0, len(lines)-(end-start))
	out = append(out, lines[:start]...)
	return append(out, lines[end:]...)
}

// isSectionBoundary reports whether line opens the section following the
// next steps: a Markdown heading, section 11, a bold title or the warnings.
func isSectionBoundary(line string) bool {
	return sectionBoundary.MatchString(line) || rewrite.IsSectionTitle(line) || rewrite.IsWarningsHeading(line)
}

func stripLegal(text string) string {
	for _, re := range legalVariants {
		text = re.ReplaceAllString(text, "")
	}
	return text
}

// convertTables replaces each pipe table (header, separator, rows) by a
// single line of table markup. A header without a separator is left as text.
func convertTables(lines []string) []string {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		if !isTableRow(lines[i]) || i+1 >= len(lines) || !tableSeparatorLine.MatchString(strings.TrimSpace(lines[i+1])) {
			out = append(out, lines[i])
			continue
		}
		header := tableCells(lines[i])
		j := i + 2
		var rows [][]string
		for ; j < len(lines) && isTableRow(lines[j]); j++ {
			if cells := tableCells(lines[j]); len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
		out = append(out, tableHTML(header, rows))
		i = j - 1
	}
	return out
}

func isTableRow(line string) bool {
	s := strings.TrimSpace(line)
	return len(s) > 1 && strings.HasPrefix(s, "|") && strings.HasSuffix(s, "|")
}

func tableCells(line string) []string {
	var cells []string
	for _, cell := range strings.Split(strings.Trim(strings.TrimSpace(line), "|"), "|") {
		if cell = strings.TrimSpace(cell); cell != "" {
			cells = append(cells, cell)
		}
	}
	return cells
}

func tableHTML(header []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString(tablePrefix)
	if len(header) > 0 {
		b.WriteString("<thead><tr>")
		for _, h := range header {
			b.WriteString("<th>" + inline(h) + "</th>")
		}
		b.WriteString("</tr></thead>")
	}
	b.WriteString("<tbody>")
	for _, row := range rows {
		b.WriteString("<tr>")
		for _, c := range row {
			b.WriteString("<td>" + inline(c) + "</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func inline(s string) string {
	return boldSpan.ReplaceAllString(s, "<strong>$1</strong>")
}

type listKind int

const (
	noList listKind = iota
	bulletList
	orderedList
)

// assemble emits block elements line by line. Paragraphs collect consecutive
// text lines; any block element or blank line closes them.
func assemble(lines []string) string {
	var (
		blocks    []string
		paragraph []string
		items     []string
		list      = noList
	)

	flushParagraph := func() {
		if len(paragraph) > 0 {
			blocks = append(blocks, "<p>"+strings.Join(paragraph, "<br>")+"</p>")
			paragraph = nil
		}
	}
	flushList := func() {
		if list == noList {
			return
		}
		tag := "ul"
		if list == orderedList {
			tag = "ol"
		}
		blocks = append(blocks, "<"+tag+">"+strings.Join(items, "")+"</"+tag+">")
		items = nil
		list = noList
	}
	addItem := func(kind listKind, content string) {
		if list != kind {
			flushList()
			list = kind
		}
		items = append(items, "<li>"+inline(content)+"</li>")
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flushParagraph()
			flushList()
		case strings.HasPrefix(line, tablePrefix):
			flushParagraph()
			flushList()
			blocks = append(blocks, line)
		case headingHTML(line) != "":
			flushParagraph()
			flushList()
			blocks = append(blocks, headingHTML(line))
		case bulletItem.MatchString(line) && !strings.HasPrefix(line, "**"):
			flushParagraph()
			addItem(bulletList, bulletItem.FindStringSubmatch(line)[1])
		case numberedItem.MatchString(line):
			flushParagraph()
			addItem(orderedList, numberedItem.FindStringSubmatch(line)[1])
		default:
			flushList()
			paragraph = append(paragraph, inline(line))
		}
	}
	flushParagraph()
	flushList()
	return strings.Join(blocks, "\n")
}

func headingHTML(line string) string {
	if m := markedHeading.FindStringSubmatch(line); m != nil {
		title := strings.TrimSpace(unwrapBold(m[2]))
		if title == "" {
			return ""
		}
		if len(m[1]) >= 3 {
			return "<h3>" + inline(title) + "</h3>"
		}
		return "<h2>" + inline(title) + "</h2>"
	}
	if m := numberedHeading.FindStringSubmatch(line); m != nil {
		return "<h2>" + m[1] + ". " + strings.TrimSpace(m[2]) + "</h2>"
	}
	return ""
}

func unwrapBold(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "**") && strings.HasSuffix(s, "**") && len(s) > 4 {
		return s[2 : len(s)-2]
	}
	return s
}
