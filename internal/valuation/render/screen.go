package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var screenMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// ScreenHTML renders the narrative for on-screen display. Raw HTML in the
// input is not passed through. Section 10 is dropped because clients show the
// report's next steps on their own.
func ScreenHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := screenMarkdown.Convert([]byte(RemoveNextSteps(markdown)), &buf); err != nil {
		return "", fmt.Errorf("render screen html: %w", err)
	}
	return buf.String(), nil
}
