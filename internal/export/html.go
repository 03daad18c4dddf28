package export

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
)

//go:embed templates/sheet.html.tmpl
var templateFS embed.FS

var sheetTemplate = template.Must(template.ParseFS(templateFS, "templates/sheet.html.tmpl"))

// RenderHTML writes the printable technique sheet.
func RenderHTML(w io.Writer, s *TechniqueSheet) error {
	if err := sheetTemplate.Execute(w, s); err != nil {
		return fmt.Errorf("render technique sheet: %w", err)
	}
	return nil
}

// WriteHTML renders the sheet to a file.
func WriteHTML(path string, s *TechniqueSheet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return RenderHTML(f, s)
}
