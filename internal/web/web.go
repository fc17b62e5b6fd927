// Package web embeds the HTML templates and static assets of the board.
//
// Templates are parsed once at startup and handed to Gin via SetHTMLTemplate.
// Each file is addressable by its file name (e.g. "idea.html"); layout.html
// only defines the shared "head" and "foot" blocks.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"label": Label,
		"add":   func(a, b int) int { return a + b },
		"sub":   func(a, b int) int { return a - b },
	}
}

// Label formats a category for display: the first letter of each word is
// upper-cased and the rest is kept as typed. Blank categories read as
// "Random".
func Label(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		category = "random"
	}
	// Casers keep state; one per call.
	return cases.Title(language.English, cases.NoLower).String(category)
}

// Templates parses every embedded template.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
}

// MustTemplates is Templates for program start-up; it panics on a parse error.
func MustTemplates() *template.Template {
	t, err := Templates()
	if err != nil {
		panic(err)
	}
	return t
}

// Static serves the embedded static directory.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The directory is embedded at build time.
		panic(err)
	}
	return http.FS(sub)
}
