// Package web embeds the browser surface: HTML templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/noah-isme/records-panel/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var funcs = template.FuncMap{
	"isSelect": func(f models.FormField) bool { return f.Kind == models.FieldSelect },
	"inputType": func(f models.FormField) string {
		if f.Kind == models.FieldNumber {
			return "number"
		}
		return "text"
	},
	"join": strings.Join,
}

// Templates parses every page template.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// Static serves the scripts and styles under /static.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
