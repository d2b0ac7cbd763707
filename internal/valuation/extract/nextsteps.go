package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxNextSteps = 6

var (
	nextStepsHeading = regexp.MustCompile(`(?im)^[#*\s\d.)]*(?:siguientes\s+pasos|pasos\s+recomendados|recomendaciones)[^\n]*\n`)
	nextStepsEnd     = regexp.MustCompile(`\n#|\n---|\*\*AVISO`)
	stepLine         = regexp.MustCompile(`(?m)^\s*(?:\d+[.)]\s*|[-•*]\s+)(.+)$`)
)

// DefaultNextSteps is used when the narrative lists none.
var DefaultNextSteps = []string{
	"Verificar la situación urbanística y registral del inmueble",
	"Solicitar nota simple actualizada del Registro de la Propiedad",
	"Comprobar superficies en el Catastro",
	"Si es para hipoteca, solicitar tasación oficial ECO/805/2003",
	"Preparar documentación para la comercialización del inmueble",
}

// NextSteps returns up to six recommended steps listed under the first
// "next steps" heading, or DefaultNextSteps.
func NextSteps(text string) []string {
	loc := nextStepsHeading.FindStringIndex(text)
	if loc == nil {
		return append([]string(nil), DefaultNextSteps...)
	}

	section := text[loc[1]:]
	if end := nextStepsEnd.FindStringIndex(section); end != nil {
		section = section[:end[0]]
	}

	var steps []string
	for _, m := range stepLine.FindAllStringSubmatch(section, -1) {
		step := strings.TrimSpace(strings.ReplaceAll(m[1], "**", ""))
		if utf8.RuneCountInString(step) > 10 {
			steps = append(steps, step)
		}
		if len(steps) == maxNextSteps {
			break
		}
	}
	if len(steps) == 0 {
		return append([]string(nil), DefaultNextSteps...)
	}
	return steps
}
